package cmd

import (
	"fmt"
	"os"

	"github.com/nikogura/sop-writer/pkg/config"
	"github.com/nikogura/sop-writer/pkg/essay"
	"github.com/nikogura/sop-writer/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var configFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "sop-writer",
	Short: "Generate Statements of Purpose for graduate applications",
	Long: `sop-writer drafts a Statement of Purpose from your application details and
keeps revising it until it lands inside the word count you ask for.

Uses OpenAI, Anthropic or Gemini models. Run it from the command line or serve
the web form with 'sop-writer serve'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		err = config.LoadEnvFile()
		return err
	},
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.sop-writer/config.json)")
}

// getVerbose returns the verbose flag value.
func getVerbose() (result bool) {
	result = verbose
	return result
}

// getConfigFile returns the config file path.
func getConfigFile() (result string) {
	result = configFile
	return result
}

// newLogger builds the logger described by cfg. --verbose forces debug level.
func newLogger(cfg config.Config) (logger *zap.Logger) {
	level := cfg.Log.Level
	if getVerbose() {
		level = "debug"
	}

	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to build logger, logging disabled: %v\n", err)
		logger = zap.NewNop()
	}
	return logger
}

// generatorOptions maps configuration onto generator settings.
func generatorOptions(cfg config.Config) (opts []essay.Option) {
	opts = []essay.Option{
		essay.WithModel(cfg.Model),
		essay.WithTemperature(cfg.Temperature),
		essay.WithMaxAttempts(cfg.MaxAttempts),
		essay.WithCallTimeout(cfg.RequestTimeout),
	}
	return opts
}
