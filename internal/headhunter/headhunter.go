package headhunter

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "spigell/hh-covergen"
	// Max value for search per page.
	maxPerPage = 100

	defaultRequestsPerSecond = 2
)

type Client struct {
	// ctx used only for http requests right now
	ctx        context.Context
	token      string
	logger     *zap.Logger
	limiter    *rate.Limiter
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client for the HeadHunter API. The token is optional: the
// vacancies endpoints are public and a token only lifts rate limits.
func New(ctx context.Context, logger *zap.Logger, token string) *Client {
	return &Client{
		ctx:    ctx,
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1),
		logger:    logger,
		UserAgent: userAgent,
	}
}

// SetRateLimit caps outgoing requests per second. Zero or negative removes the cap.
func (c *Client) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}

	c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}
