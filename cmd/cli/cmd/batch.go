package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/angelospk/posterbed/pkg/processor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewBatchProcessorFunc allows overriding the batch processor creation for testing.
var NewBatchProcessorFunc = func(rehoster processor.Rehoster, logger *logrus.Logger) *processor.Processor {
	return processor.NewProcessor(rehoster, logger)
}

var batchRecursive bool

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <directory>",
	Short: "Rehost posters for every PT-Gen JSON dump in a directory",
	Long: `Scans a directory for PT-Gen JSON response dumps (*.json) and runs the
rehost pipeline for each one, printing a per-file summary.

Use the --recursive flag to scan subdirectories.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatchCmd,
}

func init() {
	RootCmd.AddCommand(batchCmd)
	batchCmd.Flags().BoolVarP(&batchRecursive, "recursive", "r", false, "Scan directories recursively")
}

func runBatchCmd(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if viper.GetString(CfgKeyPictureBedURL) == "" {
		return fmt.Errorf("picture-bed URL not configured. Set picturebed.url in the config file or POSTERBED_PICTUREBED_URL")
	}

	service, err := NewRehostServiceFunc(logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize posterbed client")
		return fmt.Errorf("failed to initialize posterbed client: %w", err)
	}

	proc := NewBatchProcessorFunc(rehosterAdapter{service}, logger)
	return runBatch(cmd.Context(), args[0], batchRecursive, proc, cmd)
}

// rehosterAdapter narrows RehostService to the processor.Rehoster interface.
type rehosterAdapter struct {
	service RehostService
}

func (a rehosterAdapter) FromMetadata(ctx context.Context, data map[string]any) (string, error) {
	return a.service.RehostFromMetadata(ctx, data)
}

func runBatch(ctx context.Context, dir string, recursive bool, proc *processor.Processor, cmd *cobra.Command) error {
	results, err := proc.RehostDirectory(ctx, dir, recursive)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			cmd.Printf("FAIL %s: %v\n", filepath.Base(res.File), res.Err)
			continue
		}
		cmd.Printf("OK   %s: %s\n", filepath.Base(res.File), res.HostedURL)
	}
	cmd.Printf("Done. %d rehosted, %d failed.\n", len(results)-failed, failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d dumps failed", failed, len(results))
	}
	return nil
}
