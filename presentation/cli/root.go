package cli

import (
	"fmt"
	"os"

	"browser_scripts/infrastructure/config"
	"browser_scripts/infrastructure/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string

	cfg    *config.Config
	logger *logrus.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "browser-scripts",
	Short:         "Browser automations: image translation, Instagram capture and selector repair",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, envLoaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(cfg.Log)

		if !envLoaded {
			logger.Debug("No .env file found, using config file and environment")
		}
		return nil
	},
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.WithError(err).Error("Command failed")
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(newTranslateCmd())
	rootCmd.AddCommand(newInstagramCmd())
	rootCmd.AddCommand(newRepairCmd())
}
