package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/worker-host/worker"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "workerhost",
	Short: "Host for isolated WASM background workers",
	Long: `workerhost runs sandboxed WASM workers, each on its own OS thread with a
private runtime, and relays messages and events between them and the host.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var (
			logger *zap.Logger
			err    error
		)
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return err
		}
		worker.SetLogger(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "workerhost.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")
}
