package cmd

import (
	"log"
	"path/filepath"

	"github.com/spigell/hh-covergen/internal/letterstore"
	"github.com/spigell/hh-covergen/internal/logger"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Bundle accepted letters into one RTF file and archive them by date",
	Run: func(cmd *cobra.Command, _ []string) {
		export(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "path of the RTF bundle (default is cover_letters.rtf inside the letters dir)")
}

func export(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	dir := lettersDir()

	store, err := letterstore.New(dir, logger)
	if err != nil {
		logger.Fatal("opening the letter store", zap.Error(err))
	}

	// The bundle moves letter files around, so it takes the same lock as run.
	lock := flock.New(filepath.Join(dir, lockFileName))

	locked, err := lock.TryLock()
	if err != nil {
		logger.Fatal("acquiring the run lock", zap.Error(err))
	}

	if !locked {
		logger.Fatal("another run holds the letters dir", zap.String("lock", lock.Path()))
	}
	defer lock.Unlock()

	result, err := store.ExportRTF(cmd.Flag("output").Value.String())
	if err != nil {
		logger.Fatal("exporting letters", zap.Error(err))
	}

	logger.Info("letters exported",
		zap.String("bundle", result.BundlePath),
		zap.String("archive", result.ArchiveDir),
		zap.Int("count", len(result.Exported)),
	)
}
