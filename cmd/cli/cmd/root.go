package cmd

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Define configuration keys
const (
	CfgKeyPictureBedURL   = "picturebed.url"
	CfgKeyPictureBedToken = "picturebed.token"
	CfgKeyPTGenURL        = "ptgen.url"
	CfgKeyTempDir         = "temp_dir"
)

var (
	// Used for flags.
	cfgFile string

	// RootCmd represents the base command when called without any subcommands.
	// Exported for use in tests.
	RootCmd = &cobra.Command{
		Use:   "posterbedcli",
		Short: "A CLI tool to rehost movie posters onto a picture-bed service.",
		Long: `posterbedcli extracts poster URLs from PT-Gen metadata responses,
downloads the image, and re-uploads it to your configured image hosting
(picture-bed) service, printing the hosted URL.`,
		// PersistentPreRun ensures the picture-bed credentials are checked
		// after viper has loaded everything.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			checkAndPromptToken(cmd)
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.posterbedcli/config.yaml or ./config.yaml)")
}

// initConfig reads in config file and ENV variables if set.
// This runs *before* PersistentPreRun.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".posterbedcli")
		viper.AddConfigPath(configDir)
		viper.AddConfigPath(".") // current directory as fallback
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()             // read in environment variables that match
	viper.SetEnvPrefix("POSTERBED")  // e.g. POSTERBED_PICTUREBED_TOKEN
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; checkAndPromptToken will handle it.
		} else if os.IsNotExist(err) {
			// Config directory might not exist yet.
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n", viper.ConfigFileUsed(), err)
		}
	}
}

// checkAndPromptToken checks that the picture-bed endpoint and token are
// configured and prompts for the token if missing. Extraction-only
// commands do not need credentials and are skipped.
func checkAndPromptToken(cmd *cobra.Command) {
	if cmd.Name() == "extract" || cmd.Name() == "help" {
		return
	}

	token := viper.GetString(CfgKeyPictureBedToken)
	if token != "" {
		return
	}

	fmt.Println("Picture-bed API token not found.")
	fmt.Print("Please enter your API token: ")

	reader := bufio.NewReader(os.Stdin)
	inputToken, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read API token: %v", err)
	}
	inputToken = strings.TrimSpace(inputToken)

	if inputToken == "" {
		log.Fatalf("API token cannot be empty.")
	}

	viper.Set(CfgKeyPictureBedToken, inputToken)

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Could not get home directory: %v", err)
	}
	configDir := filepath.Join(home, ".posterbedcli")
	configPath := filepath.Join(configDir, "config.yaml")

	if err := os.MkdirAll(configDir, 0750); err != nil {
		log.Fatalf("Could not create config directory %s: %v", configDir, err)
	}

	// Note: WriteConfigAs saves *all* current viper settings, not just the token.
	if err := viper.WriteConfigAs(configPath); err != nil {
		log.Fatalf("Failed to save API token to %s: %v", configPath, err)
	}

	fmt.Printf("API token saved successfully to %s\n", configPath)
}
