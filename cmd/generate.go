package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nikogura/sop-writer/pkg/config"
	"github.com/nikogura/sop-writer/pkg/essay"
	"github.com/nikogura/sop-writer/pkg/llm"
	"github.com/nikogura/sop-writer/pkg/profile"
	"github.com/nikogura/sop-writer/pkg/renderer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var minWords int

//nolint:gochecknoglobals // Cobra boilerplate
var maxWords int

//nolint:gochecknoglobals // Cobra boilerplate
var outputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var provider string

//nolint:gochecknoglobals // Cobra boilerplate
var model string

//nolint:gochecknoglobals // Cobra boilerplate
var temperature float64

//nolint:gochecknoglobals // Cobra boilerplate
var renderPDF bool

//nolint:gochecknoglobals // Cobra boilerplate
var toStdout bool

//nolint:gochecknoglobals // Cobra boilerplate
var generateCmd = &cobra.Command{
	Use:   "generate [profile-file-or-url]",
	Short: "Generate a Statement of Purpose",
	Long: `Generate a Statement of Purpose from your application details.

The details can be provided as:
- A JSON or YAML file (e.g., profile.yaml)
- A URL (e.g., https://example.com/profile.json)
- Interactively, when no argument is given

The essay is regenerated with corrective instructions until its word count
falls within --min-words and --max-words, up to four attempts in total.

Example:
  sop-writer generate profile.yaml
  sop-writer generate profile.json --min-words 600 --max-words 800
  sop-writer generate --provider anthropic --pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVar(&minWords, "min-words", profile.DefaultMinWords, "Minimum word count")
	generateCmd.Flags().IntVar(&maxWords, "max-words", profile.DefaultMaxWords, "Maximum word count")
	generateCmd.Flags().StringVar(&outputDir, "output-dir", "", "Output directory (default from config)")
	generateCmd.Flags().StringVar(&provider, "provider", "", "Model provider: openai, anthropic or gemini (default from config)")
	generateCmd.Flags().StringVar(&model, "model", "", "Model name (default depends on provider)")
	generateCmd.Flags().Float64Var(&temperature, "temperature", llm.DefaultTemperature, "Sampling temperature")
	generateCmd.Flags().BoolVar(&renderPDF, "pdf", false, "Also render a PDF with pandoc")
	generateCmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the essay instead of writing a file")
}

func runGenerate(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.Config
	cfg, err = loadGenerateConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	var p profile.ApplicantProfile
	p, err = readProfile(ctx, args)
	if err != nil {
		return err
	}

	b := profile.WordBudget{Min: minWords, Max: maxWords}
	err = profile.Validate(p, b)
	if err != nil {
		var verr *profile.ValidationError
		if errors.As(err, &verr) {
			for _, line := range verr.Messages() {
				fmt.Fprintln(os.Stderr, line)
			}
		}
		return err
	}

	var completer llm.Completer
	completer, err = llm.NewCompleter(ctx, cfg.LLMSettings())
	if err != nil {
		err = errors.Wrap(err, "failed to create model client")
		return err
	}

	opts := generatorOptions(cfg)
	opts = append(opts, essay.WithLogger(logger))
	if getVerbose() {
		opts = append(opts, essay.WithObserver(progressPrinter(statusOut())))
	}
	g := essay.NewGenerator(completer, opts...)

	var result essay.Essay
	result, err = runGeneration(ctx, g, p, b)
	if err != nil {
		return err
	}

	if toStdout {
		fmt.Println(result.Text)
		fmt.Fprintln(os.Stderr, renderer.Summary(result))
		return err
	}

	err = writeOutputs(cfg, p, result, logger)
	return err
}

// loadGenerateConfig loads config and applies command-line overrides.
func loadGenerateConfig(cmd *cobra.Command) (cfg config.Config, err error) {
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return cfg, err
	}

	if provider != "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(provider))
	}
	if model != "" {
		cfg.Model = model
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature = temperature
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "invalid options")
		return cfg, err
	}

	return cfg, err
}

func readProfile(ctx context.Context, args []string) (p profile.ApplicantProfile, err error) {
	if len(args) == 0 {
		p, err = collectProfile(os.Stdin, statusOut())
		if err != nil {
			return p, err
		}
		p.Normalize()
		return p, err
	}

	if getVerbose() {
		fmt.Fprintf(statusOut(), "Loading profile from %s...\n", args[0])
	}

	p, err = profile.LoadWithContext(ctx, args[0])
	if err != nil {
		err = errors.Wrap(err, "failed to load profile")
		return p, err
	}

	return p, err
}

func runGeneration(ctx context.Context, g *essay.Generator, p profile.ApplicantProfile, b profile.WordBudget) (result essay.Essay, err error) {
	// verbose mode prints per-attempt progress instead
	if !getVerbose() {
		stop := startSpinner(os.Stderr, fmt.Sprintf("Generating SOP (%d-%d words)... This may take a minute.", b.Min, b.Max))
		result, err = g.Generate(ctx, p, b)
		stop()
	} else {
		result, err = g.Generate(ctx, p, b)
	}

	if err != nil {
		if essay.IsServiceError(err) {
			err = errors.Wrap(err, "an error occurred while generating the SOP, please try again later")
			return result, err
		}
		return result, err
	}

	return result, err
}

// statusOut is where prompts and progress go. With --stdout the essay owns
// stdout, so everything else moves to stderr.
func statusOut() (w io.Writer) {
	w = os.Stdout
	if toStdout {
		w = os.Stderr
	}
	return w
}

// progressPrinter reports each finished attempt on w.
func progressPrinter(w io.Writer) (o essay.Observer) {
	o = func(ev essay.Event) {
		if ev.Result == nil {
			return
		}
		fmt.Fprintf(w, "Attempt %d: %d words (%s, %s)\n", ev.Attempt, ev.Result.WordCount, ev.Result.Verdict, ev.Elapsed.Round(time.Millisecond))
	}
	return o
}

func writeOutputs(cfg config.Config, p profile.ApplicantProfile, result essay.Essay, logger *zap.Logger) (err error) {
	textPath := filepath.Join(cfg.OutputDir, renderer.Filename(p.Name, p.Institution, p.Program))

	err = renderer.WriteEssay(result.Text, textPath)
	if err != nil {
		return err
	}

	fmt.Println(renderer.Summary(result))
	fmt.Printf("SOP saved: %s\n", textPath)

	if !renderPDF {
		return err
	}

	pdfPath := filepath.Join(cfg.OutputDir, renderer.BaseName(p.Name, p.Institution, p.Program)+".pdf")
	err = renderer.RenderPDF(textPath, pdfPath, cfg.Pandoc.TemplatePath)
	if err != nil {
		logger.Error("pdf rendering failed", zap.String("path", pdfPath), zap.Error(err))
		err = errors.Wrap(err, "failed to render PDF")
		return err
	}

	fmt.Printf("PDF saved: %s\n", pdfPath)
	return err
}
