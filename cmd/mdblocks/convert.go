package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	mdblocks "github.com/alnah/go-mdblocks"
	"github.com/alnah/go-mdblocks/internal/config"
	"github.com/alnah/go-mdblocks/internal/fontsubset"
	"github.com/alnah/go-mdblocks/internal/hints"
	"github.com/alnah/go-mdblocks/internal/logging"
)

// ErrInvalidTimeout is returned for an unparseable or non-positive --timeout.
var ErrInvalidTimeout = errors.New("invalid timeout")

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	cfg, err := loadConfig(flags.common.config, envCfg.ConfigPath, env.Config)
	if err != nil {
		return err
	}

	// Precedence: CLI flags > env vars > config file > defaults
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	timeout, err := resolveTimeout(flags.timeout, envCfg.Timeout)
	if err != nil {
		return err
	}

	log, err := logging.New(resolveLogLevel(flags, cfg), env.Stderr)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfigInvalid, err)
	}
	defer func() { _ = log.Sync() }()

	inputPath, err := resolveInputPath(positionalArgs)
	if err != nil {
		return err
	}

	outputDir := flags.output
	if outputDir == "" {
		outputDir = cfg.Output.DefaultDir
	}

	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, inputPath)
	}

	if flags.outputMode.printAST {
		return printAST(ctx, files, env)
	}

	opts, err := buildConverterOptions(cfg, timeout, log)
	if err != nil {
		return err
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	pool := mdblocks.NewConverterPool(mdblocks.ResolvePoolSize(workers), opts...)
	defer func() {
		if err := pool.Close(); err != nil {
			log.Warn("Unable to close browser", zap.Error(err))
		}
	}()
	log.Debug("Starting conversion", zap.Int("files", len(files)), zap.Int("pool", pool.Size()))

	params := &conversionParams{
		page:       buildPageSettings(cfg),
		title:      cfg.Document.Title,
		lang:       cfg.Document.Lang,
		htmlOutput: flags.outputMode.html,
		htmlOnly:   flags.outputMode.htmlOnly,
	}

	results := convertBatch(ctx, &poolAdapter{pool: pool}, files, params)

	summary := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if summary.Failed > 0 {
		return fmt.Errorf("%d conversion(s) failed: %w", summary.Failed, summary.FirstErr)
	}

	return nil
}

// loadConfig loads the named config, the MDBLOCKS_CONFIG one, or a copy of
// the environment defaults.
func loadConfig(flagName, envName string, defaults *config.Config) (*config.Config, error) {
	name := flagName
	if name == "" {
		name = envName
	}
	if name == "" {
		cfg := *defaults
		return &cfg, nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeFlags applies CLI flags to the config. Only flags given on the
// command line override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.document.title != "" {
		cfg.Document.Title = flags.document.title
	}
	if flags.document.lang != "" {
		cfg.Document.Lang = flags.document.lang
	}
	if flags.isSet("font-size") {
		cfg.Document.FontSize = flags.document.fontSize
	}
	if flags.document.noJustify {
		cfg.Document.Justify = false
	}

	if flags.page.size != "" {
		cfg.Page.Size = flags.page.size
	}
	if flags.page.orientation != "" {
		cfg.Page.Orientation = flags.page.orientation
	}
	if flags.isSet("margin-top") {
		cfg.Page.Margins.Top = flags.page.marginTop
	}
	if flags.isSet("margin-right") {
		cfg.Page.Margins.Right = flags.page.marginRight
	}
	if flags.isSet("margin-bottom") {
		cfg.Page.Margins.Bottom = flags.page.marginBottom
	}
	if flags.isSet("margin-left") {
		cfg.Page.Margins.Left = flags.page.marginLeft
	}
}

// resolveTimeout returns the --timeout value, else the MDBLOCKS_TIMEOUT one.
// Zero means the converter default.
func resolveTimeout(flagValue string, envTimeout time.Duration) (time.Duration, error) {
	if flagValue == "" {
		return envTimeout, nil
	}
	d, err := time.ParseDuration(flagValue)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, flagValue)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s (must be positive)", ErrInvalidTimeout, flagValue)
	}
	return d, nil
}

// resolveLogLevel maps --quiet and --verbose onto log levels; otherwise the
// configured level applies.
func resolveLogLevel(flags *convertFlags, cfg *config.Config) string {
	switch {
	case flags.common.verbose:
		return logging.LevelDebug
	case flags.common.quiet:
		return logging.LevelNone
	}
	return cfg.Log.Level
}

// buildPageSettings converts the page config to library settings.
func buildPageSettings(cfg *config.Config) *mdblocks.PageSettings {
	m := cfg.Page.Margins
	return &mdblocks.PageSettings{
		Size:        strings.ToLower(cfg.Page.Size),
		Orientation: strings.ToLower(cfg.Page.Orientation),
		Margins:     mdblocks.Margins{Top: m.Top, Right: m.Right, Bottom: m.Bottom, Left: m.Left},
	}
}

// buildLayout converts the document config to a layout.
func buildLayout(cfg *config.Config) mdblocks.Layout {
	return mdblocks.Layout{
		Justify:          cfg.Document.Justify,
		ParagraphSpacing: cfg.Document.ParagraphSpacing,
		HeaderSpacing:    cfg.Document.HeaderSpacing,
		TextSize:         cfg.Document.FontSize,
	}
}

// buildConverterOptions turns the config into converter options, loading a
// custom font family when one is configured.
func buildConverterOptions(cfg *config.Config, timeout time.Duration, log *zap.Logger) ([]mdblocks.Option, error) {
	opts := []mdblocks.Option{
		mdblocks.WithLogger(log),
		mdblocks.WithLayout(buildLayout(cfg)),
		mdblocks.WithLineSpacing(cfg.Document.LineSpacing),
		mdblocks.WithFontSubset(cfg.Fonts.Subset),
	}
	if timeout > 0 {
		opts = append(opts, mdblocks.WithTimeout(timeout))
	}

	if cfg.Fonts.Custom() {
		fam, err := fontsubset.LoadFamily("custom", fontsubset.Paths{
			Regular:    cfg.Fonts.Regular,
			Bold:       cfg.Fonts.Bold,
			Italic:     cfg.Fonts.Italic,
			BoldItalic: cfg.Fonts.BoldItalic,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", mdblocks.ErrFontLoad, err)
		}
		opts = append(opts, mdblocks.WithFonts(fam))
	}

	return opts, nil
}

// printAST writes the parsed event stream of every file to stdout.
func printAST(ctx context.Context, files []FileToConvert, env *Environment) error {
	conv, err := mdblocks.NewConverter()
	if err != nil {
		return err
	}
	defer conv.Close()

	for i, f := range files {
		content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadMarkdown, err)
		}
		tree, err := conv.Tree(ctx, mdblocks.Input{Markdown: string(content)})
		if err != nil {
			return fmt.Errorf("%s: %w", f.InputPath, err)
		}
		if len(files) > 1 {
			if i > 0 {
				fmt.Fprintln(env.Stdout)
			}
			fmt.Fprintf(env.Stdout, "==> %s <==\n", f.InputPath)
		}
		if err := tree.Dump(env.Stdout); err != nil {
			return err
		}
	}
	return nil
}

// poolAdapter exposes a ConverterPool through the Pool interface.
type poolAdapter struct {
	pool *mdblocks.ConverterPool
}

func (a *poolAdapter) Acquire() CLIConverter {
	if conv := a.pool.Acquire(); conv != nil {
		return conv
	}
	return nil
}

func (a *poolAdapter) Release(c CLIConverter) {
	conv, ok := c.(*mdblocks.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

func (a *poolAdapter) InitErr() error {
	return a.pool.InitErr()
}

// hintFor returns actionable hints for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, mdblocks.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, mdblocks.ErrPageLoad):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err))
	case errors.Is(err, fontsubset.ErrMissingGlyph):
		return hints.ForMissingGlyph()
	case errors.Is(err, mdblocks.ErrFontLoad):
		return hints.ForFontLoad()
	case errors.Is(err, mdblocks.ErrInvariant):
		return hints.ForInvariant()
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	}
	return ""
}

// triedPaths extracts the searched locations from a config lookup error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}
