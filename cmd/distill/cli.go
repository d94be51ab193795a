package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/distill"
	"github.com/fwojciec/distill/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config *Config
	Now    func() time.Time

	DB            *sqlite.DB
	URLs          distill.URLExtractor
	Files         distill.FileExtractor
	Premium       distill.PremiumExtractor
	Subscriptions distill.SubscriptionService
	Quotas        distill.QuotaService
	Writer        distill.ResultWriter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	ConfigFile kong.ConfigFlag `name:"config" env:"DISTILL_CONFIG" help:"YAML file with flag values"`
	Config     `embed:""`

	Serve        ServeCmd        `cmd:"" help:"Run the extraction HTTP API"`
	URL          URLCmd          `cmd:"" name:"url" help:"Extract text from a web page"`
	File         FileCmd         `cmd:"" help:"Extract text from a local file"`
	Subscription SubscriptionCmd `cmd:"" help:"Manage premium subscriptions"`
	Quota        QuotaCmd        `cmd:"" help:"Inspect premium quota usage"`
}

// Config is shared by every command. Each field can be set by flag,
// environment variable or config file.
type Config struct {
	DB   string `name:"db" env:"DISTILL_DB" default:"${db_path}" help:"SQLite database path"`
	Addr string `env:"DISTILL_ADDR" default:":8080" help:"HTTP listen address"`

	AllowedOrigins []string `env:"DISTILL_ALLOWED_ORIGINS" help:"Origins allowed to call the premium endpoint"`
	PremiumLimit   int      `env:"DISTILL_PREMIUM_LIMIT" default:"50" help:"Monthly premium extractions per user"`
	QuotaRetention int      `default:"3" help:"Months of quota history kept by the nightly pruning job"`
	PruneSchedule  string   `default:"0 3 * * *" help:"Cron schedule of housekeeping jobs (UTC)"`

	RateLimit  float64 `default:"2" help:"Requests per second allowed per client IP, 0 disables"`
	RateBurst  int     `default:"10" help:"Burst allowed per client IP"`
	TrustProxy bool    `env:"DISTILL_TRUST_PROXY" help:"Take client IPs from X-Forwarded-For"`

	Extractor        string `enum:"readability,trafilatura" default:"readability" help:"Main-content extractor"`
	MinQualityLength int    `default:"400" help:"Characters a page fetch must yield to stop escalating"`
	CountTokens      bool   `help:"Report token counts in result metadata"`
	TokenizerModel   string `default:"gemini-2.0-flash" help:"Model whose tokenizer counts tokens"`

	StaticTimeout  time.Duration `default:"30s" help:"Static fetch timeout"`
	RenderTimeout  time.Duration `default:"45s" help:"Browser render timeout"`
	ReaderTimeout  time.Duration `default:"30s" help:"Reader proxy timeout"`
	OCRTimeout     time.Duration `name:"ocr-timeout" default:"90s" help:"Document OCR timeout"`
	AudioTimeout   time.Duration `default:"90s" help:"Audio transcription timeout"`
	PremiumTimeout time.Duration `default:"60s" help:"Premium scrape timeout"`

	RenderBrowserURL string `env:"RENDER_BROWSER_URL" help:"DevTools URL of a remote browser"`
	RenderLocal      bool   `env:"RENDER_LOCAL" help:"Launch a local headless browser"`
	RenderMaxPages   int64  `default:"75" help:"Pages rendered before a local browser is recycled"`

	UnstructuredAPIKey string `env:"UNSTRUCTURED_API_KEY" help:"Document OCR API key"`
	UnstructuredAPIURL string `env:"UNSTRUCTURED_API_URL" help:"Document OCR API base URL"`
	DeepgramAPIKey     string `env:"DEEPGRAM_API_KEY" help:"Speech-to-text API key"`
	DeepgramAPIURL     string `env:"DEEPGRAM_API_URL" help:"Speech-to-text API base URL"`
	JinaAPIKey         string `env:"JINA_API_KEY" help:"Reader proxy API key"`
	JinaAPIURL         string `env:"JINA_API_URL" help:"Reader proxy base URL"`
	FirecrawlAPIKey    string `env:"FIRECRAWL_API_KEY" help:"Premium scraper API key"`
	FirecrawlAPIURL    string `env:"FIRECRAWL_API_URL" help:"Premium scraper base URL"`
	SupabaseURL        string `env:"SUPABASE_URL" help:"Identity provider URL"`
	SupabaseAnonKey    string `env:"SUPABASE_ANON_KEY" help:"Identity provider anon key"`

	LogFormat string `enum:"text,json" default:"text" help:"Log output format"`
	LogLevel  string `enum:"debug,info,warn,error" default:"info" help:"Minimum log level"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct{}

// URLCmd is the "url" subcommand.
type URLCmd struct {
	URL    string `arg:"" help:"Page URL"`
	Output string `short:"o" type:"path" help:"Write a markdown file into this directory"`
	JSON   bool   `help:"Print the full result as JSON"`
}

// FileCmd is the "file" subcommand.
type FileCmd struct {
	Path string `arg:"" type:"existingfile" help:"File to extract"`
	JSON bool   `help:"Print the full result as JSON"`
}

// SubscriptionCmd groups subscription subcommands.
type SubscriptionCmd struct {
	Set  SubscriptionSetCmd  `cmd:"" help:"Create or replace a user's subscription"`
	Show SubscriptionShowCmd `cmd:"" help:"Show a user's subscription"`
}

// SubscriptionSetCmd is the "subscription set" subcommand.
type SubscriptionSetCmd struct {
	UserID string `arg:"" name:"user-id" help:"User ID"`
	Status string `enum:"active,trialing,canceled,past_due" default:"active" help:"Subscription status"`
	Plan   string `default:"pro" help:"Plan name"`
	Ends   string `help:"Last day of the paid period (YYYY-MM-DD), empty for no expiry"`
}

// SubscriptionShowCmd is the "subscription show" subcommand.
type SubscriptionShowCmd struct {
	UserID string `arg:"" name:"user-id" help:"User ID"`
}

// QuotaCmd groups quota subcommands.
type QuotaCmd struct {
	Show QuotaShowCmd `cmd:"" help:"Show premium usage for the current period"`
}

// QuotaShowCmd is the "quota show" subcommand.
type QuotaShowCmd struct {
	UserID string `arg:"" name:"user-id" help:"User ID"`
}
