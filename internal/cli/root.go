package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"qrisk/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "qrisk",
	Short: "qrisk - Offline URL risk assessment",
	Long: `qrisk assesses URLs from QR codes, messages, and pasted links
without touching the network.

Every URL gets a 0-100 risk score, a SAFE / SUSPICIOUS / MALICIOUS
verdict, and an explanation of each finding: what fired, how many
points it added, and what change would have avoided it.

Assessment is fully offline. qrisk never fetches the URL, never
queries a reputation service, and works identically with or without
connectivity.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("qrisk v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.qrisk/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("sensitivity", "", "scoring preset: low, balanced, paranoia")
	rootCmd.PersistentFlags().String("policy", "", "organization policy file (JSON)")
	rootCmd.PersistentFlags().String("brands", "", "brand registry override file (YAML)")
	rootCmd.PersistentFlags().String("tlds", "", "TLD risk table override file (YAML)")

	// Bind flags to viper
	_ = viper.BindPFlag("sensitivity", rootCmd.PersistentFlags().Lookup("sensitivity"))
	_ = viper.BindPFlag("policy.file", rootCmd.PersistentFlags().Lookup("policy"))
	_ = viper.BindPFlag("data.brand_file", rootCmd.PersistentFlags().Lookup("brands"))
	_ = viper.BindPFlag("data.tld_file", rootCmd.PersistentFlags().Lookup("tlds"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.qrisk")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match QRISK_*
	viper.SetEnvPrefix("QRISK")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the runtime configuration: defaults first,
// then the config file and QRISK_* environment, then bound flags.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return cfg, nil
}
