package ai

import "testing"

func TestCleanResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "strips end of sequence token",
			input:  "Добрый день</s>",
			expect: "Добрый день",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  Текст письма \n",
			expect: "Текст письма",
		},
		{
			name:   "removes space after newline",
			input:  "Первая строка\n вторая строка",
			expect: "Первая строка\nвторая строка",
		},
		{
			name:   "collapses double spaces",
			input:  "Два  пробела",
			expect: "Два пробела",
		},
		{
			name:   "removes markdown markers",
			input:  "#Заголовок, это *важно* и `код`",
			expect: "Заголовок, это важно и код",
		},
		{
			name:   "plain answer untouched",
			input:  "да",
			expect: "да",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanResponse(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
