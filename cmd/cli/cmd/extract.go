package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/angelospk/posterbed/pkg/core/ptgen"
	"github.com/spf13/cobra"
)

// extractCmd prints the poster URL found in a local PT-Gen JSON dump.
// It needs no picture-bed credentials.
var extractCmd = &cobra.Command{
	Use:   "extract <ptgen-response.json>",
	Short: "Print the poster URL found in a PT-Gen JSON response",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	RootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	posterURL := ptgen.PosterURLFromData(data)
	if posterURL == "" {
		return fmt.Errorf("no poster URL found in metadata response")
	}

	cmd.Println(posterURL)
	return nil
}
