package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/angelospk/posterbed"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// --- Dependency Injection Functions for Testing ---

// RehostService is the subset of the posterbed client the command needs.
type RehostService interface {
	Rehost(ctx context.Context, resourceURL string) (string, error)
	RehostRelease(ctx context.Context, releaseName string) (string, error)
	RehostFromMetadata(ctx context.Context, data map[string]any) (string, error)
}

var NewRehostServiceFunc = func(logger *logrus.Logger) (RehostService, error) {
	return posterbed.NewClient(posterbed.Config{
		PictureBedURL:   viper.GetString(CfgKeyPictureBedURL),
		PictureBedToken: viper.GetString(CfgKeyPictureBedToken),
		PTGenURL:        viper.GetString(CfgKeyPTGenURL),
		TempDir:         viper.GetString(CfgKeyTempDir),
		Logger:          logger,
	})
}

// --- End Dependency Injection ---

var (
	rehostRelease  string
	rehostJSONPath string
)

// rehostCmd represents the rehost command
var rehostCmd = &cobra.Command{
	Use:   "rehost [resource-url]",
	Short: "Download a movie poster and re-upload it to the picture-bed",
	Long: `Rehosts a movie poster onto your configured picture-bed service and
prints the hosted URL.

The poster source can be given three ways:
  posterbedcli rehost https://movie.douban.com/subject/1292052/
  posterbedcli rehost --release "The.Matrix.1999.1080p.BluRay.x264-GROUP.mkv"
  posterbedcli rehost --json ./ptgen-response.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRehostCmd,
}

func init() {
	RootCmd.AddCommand(rehostCmd)
	rehostCmd.Flags().StringVarP(&rehostRelease, "release", "r", "", "Release filename to parse and search for")
	rehostCmd.Flags().StringVarP(&rehostJSONPath, "json", "j", "", "Path to a local PT-Gen JSON response")
}

// runRehostCmd initializes dependencies and calls runRehost
func runRehostCmd(cmd *cobra.Command, args []string) error {
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

	resourceURL := ""
	if len(args) == 1 {
		resourceURL = args[0]
	}
	return runRehost(cmd.Context(), resourceURL, rehostRelease, rehostJSONPath, service, cmd)
}

// runRehost contains the core logic for resolving the poster source and
// running the pipeline.
func runRehost(ctx context.Context, resourceURL, releaseName, jsonPath string, service RehostService, cmd *cobra.Command) error {
	sources := 0
	for _, s := range []string{resourceURL, releaseName, jsonPath} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("exactly one of a resource URL argument, --release, or --json must be provided")
	}

	var hostedURL string
	var err error
	switch {
	case resourceURL != "":
		hostedURL, err = service.Rehost(ctx, resourceURL)
	case releaseName != "":
		hostedURL, err = service.RehostRelease(ctx, releaseName)
	default:
		var data map[string]any
		raw, readErr := os.ReadFile(jsonPath)
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", jsonPath, readErr)
		}
		if unmarshalErr := json.Unmarshal(raw, &data); unmarshalErr != nil {
			return fmt.Errorf("failed to parse %s: %w", jsonPath, unmarshalErr)
		}
		hostedURL, err = service.RehostFromMetadata(ctx, data)
	}
	if err != nil {
		return err
	}

	cmd.Println(hostedURL)
	return nil
}
