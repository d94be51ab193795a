package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/distill"
	"github.com/fwojciec/distill/deepgram"
	"github.com/fwojciec/distill/extract"
	"github.com/fwojciec/distill/firecrawl"
	"github.com/fwojciec/distill/fs"
	"github.com/fwojciec/distill/gemini"
	"github.com/fwojciec/distill/goquery"
	"github.com/fwojciec/distill/htmltomarkdown"
	distillhttp "github.com/fwojciec/distill/http"
	"github.com/fwojciec/distill/jina"
	"github.com/fwojciec/distill/opengraph"
	"github.com/fwojciec/distill/premium"
	"github.com/fwojciec/distill/readability"
	"github.com/fwojciec/distill/rod"
	distillslog "github.com/fwojciec/distill/slog"
	"github.com/fwojciec/distill/sqlite"
	"github.com/fwojciec/distill/supabase"
	"github.com/fwojciec/distill/trafilatura"
	"github.com/fwojciec/distill/unstructured"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()
	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	m.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	closers []func() error
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close releases browsers and the database.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i]())
	}
	m.closers = nil
	return errors.Join(errs...)
}

// NewParser returns the Kong parser for cli. Services are bound through deps.
func NewParser(cli *CLI, deps *Dependencies, stdout, stderr io.Writer) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("distill"),
		kong.Description("Turn web pages and files into clean plain text"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Configuration(YAMLLoader),
		kong.Vars{"db_path": defaultDBPath()},
		kong.Bind(deps),
	)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Now:    time.Now,
	}

	cli := &CLI{}
	parser, err := NewParser(cli, deps, stdout, stderr)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'distill --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg := &cli.Config
	deps.Config = cfg
	deps.Logger = NewLogger(stderr, cfg.LogFormat, cfg.LogLevel)

	cmd := kongCtx.Command()
	switch {
	case cmd == "serve":
		if err := m.openDB(cfg.DB, deps); err != nil {
			fmt.Fprintln(stderr, "Hint: Set DISTILL_DB to use a different database path")
			return err
		}
		if deps.URLs, err = m.urlExtractor(cfg, deps); err != nil {
			return err
		}
		if deps.Files, err = m.fileExtractor(cfg, deps); err != nil {
			return err
		}
		deps.Premium = premiumGate(cfg, deps)
	case strings.HasPrefix(cmd, "url"):
		if deps.URLs, err = m.urlExtractor(cfg, deps); err != nil {
			return err
		}
		if cli.URL.Output != "" {
			deps.Writer = fs.NewWriter(cli.URL.Output)
		}
	case strings.HasPrefix(cmd, "file"):
		if deps.Files, err = m.fileExtractor(cfg, deps); err != nil {
			return err
		}
	case strings.HasPrefix(cmd, "subscription"), strings.HasPrefix(cmd, "quota"):
		if err := m.openDB(cfg.DB, deps); err != nil {
			fmt.Fprintln(stderr, "Hint: Set DISTILL_DB to use a different database path")
			return err
		}
	}

	return kongCtx.Run(deps)
}

func (m *Main) openDB(path string, deps *Dependencies) error {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		return fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	m.closers = append(m.closers, m.DB.Close)

	deps.DB = m.DB
	deps.Subscriptions = sqlite.NewSubscriptionService(m.DB)
	deps.Quotas = sqlite.NewQuotaService(m.DB)
	return nil
}

// urlExtractor builds the escalation chain: static fetch, then a rendering
// browser when one is configured, then the reader proxy.
func (m *Main) urlExtractor(cfg *Config, deps *Dependencies) (*extract.URLExtractor, error) {
	logger := deps.Logger

	var extractor distill.Extractor = readability.NewExtractor()
	if cfg.Extractor == "trafilatura" {
		extractor = trafilatura.NewExtractor()
	}
	texter := goquery.NewTexter()
	sniffer := opengraph.NewSniffer()

	stages := []extract.Stage{
		&extract.StaticStage{
			Fetcher:   distillslog.NewLoggingFetcher(distillhttp.NewFetcher(distillhttp.WithTimeout(cfg.StaticTimeout)), "http", logger),
			Extractor: extractor,
			Texter:    texter,
			Sniffer:   sniffer,
			Timeout:   cfg.StaticTimeout,
			MinLength: cfg.MinQualityLength,
		},
	}

	if cfg.RenderBrowserURL != "" || cfg.RenderLocal {
		opts := []rod.Option{rod.WithFetchTimeout(cfg.RenderTimeout)}
		if cfg.RenderBrowserURL != "" {
			opts = append(opts, rod.WithControlURL(cfg.RenderBrowserURL))
		} else {
			opts = append(opts, rod.WithManagerOptions(rod.WithMaxPages(cfg.RenderMaxPages)))
		}
		fetcher, err := rod.NewFetcher(opts...)
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed, or set RENDER_BROWSER_URL")
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		m.closers = append(m.closers, fetcher.Close)

		stages = append(stages, &extract.RenderedStage{
			Fetcher:   distillslog.NewLoggingFetcher(fetcher, "rod", logger),
			Extractor: extractor,
			Texter:    texter,
			Sniffer:   sniffer,
			Timeout:   cfg.RenderTimeout,
			MinLength: cfg.MinQualityLength,
		})
	}

	readerOpts := []jina.Option{jina.WithAPIKey(cfg.JinaAPIKey), jina.WithTimeout(cfg.ReaderTimeout)}
	if cfg.JinaAPIURL != "" {
		readerOpts = append(readerOpts, jina.WithBaseURL(cfg.JinaAPIURL))
	}
	stages = append(stages, &extract.ReaderStage{
		Reader:  distillslog.NewLoggingReader(jina.NewReader(readerOpts...), logger),
		Timeout: cfg.ReaderTimeout,
	})

	tc, err := tokenCounter(cfg)
	if err != nil {
		return nil, err
	}

	return &extract.URLExtractor{
		Stages:       stages,
		TokenCounter: tc,
		Logger:       logger,
	}, nil
}

func (m *Main) fileExtractor(cfg *Config, deps *Dependencies) (*extract.FileExtractor, error) {
	docOpts := []unstructured.Option{unstructured.WithTimeout(cfg.OCRTimeout)}
	if cfg.UnstructuredAPIURL != "" {
		docOpts = append(docOpts, unstructured.WithBaseURL(cfg.UnstructuredAPIURL))
	}
	audioOpts := []deepgram.Option{deepgram.WithTimeout(cfg.AudioTimeout)}
	if cfg.DeepgramAPIURL != "" {
		audioOpts = append(audioOpts, deepgram.WithBaseURL(cfg.DeepgramAPIURL))
	}

	tc, err := tokenCounter(cfg)
	if err != nil {
		return nil, err
	}

	return &extract.FileExtractor{
		Documents:    distillslog.NewLoggingDocumentTranscriber(unstructured.NewClient(cfg.UnstructuredAPIKey, docOpts...), deps.Logger),
		Audio:        distillslog.NewLoggingAudioTranscriber(deepgram.NewClient(cfg.DeepgramAPIKey, audioOpts...), deps.Logger),
		TokenCounter: tc,
		Logger:       deps.Logger,
	}, nil
}

func premiumGate(cfg *Config, deps *Dependencies) *premium.Gate {
	g := &premium.Gate{
		Auth:          supabase.NewAuthService(cfg.SupabaseURL, cfg.SupabaseAnonKey),
		Subscriptions: deps.Subscriptions,
		Quotas:        deps.Quotas,
		Converter:     htmltomarkdown.NewConverter(),
		Texter:        goquery.NewTexter(),
		Limit:         cfg.PremiumLimit,
		Now:           deps.Now,
		Logger:        deps.Logger,
	}
	if cfg.FirecrawlAPIKey != "" {
		opts := []firecrawl.Option{firecrawl.WithTimeout(cfg.PremiumTimeout)}
		if cfg.FirecrawlAPIURL != "" {
			opts = append(opts, firecrawl.WithBaseURL(cfg.FirecrawlAPIURL))
		}
		g.Scraper = distillslog.NewLoggingScraper(firecrawl.NewClient(cfg.FirecrawlAPIKey, opts...), deps.Logger)
	}
	return g
}

func tokenCounter(cfg *Config) (distill.TokenCounter, error) {
	if !cfg.CountTokens {
		return nil, nil
	}
	tc, err := gemini.NewTokenCounter(cfg.TokenizerModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create token counter: %w", err)
	}
	return tc, nil
}
