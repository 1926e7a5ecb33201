package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "SIGNALS_DIGEST_CONFIG"

	openAIAPIKeyEnv      = "OPENAI_API_KEY"
	openAIAPIBaseEnv     = "OPENAI_API_BASE"
	openAIModelEnv       = "OPENAI_MODEL"
	anthropicAPIKeyEnv   = "ANTHROPIC_API_KEY"
	summarizerEnv        = "SUMMARIZER_PROVIDER"
	storeBackendEnv      = "SEEN_STORE_BACKEND"
	storeDSNEnv          = "SEEN_STORE_DSN"
	redisURLEnv          = "REDIS_URL"
	outDirEnv            = "OUTDIR"
	logLevelEnv          = "LOG_LEVEL"
	debugEnv             = "DEBUG"
	itemsPerSectionEnv   = "ITEMS_PER_SECTION"
	perDomainCapEnv      = "PER_DOMAIN_CAP"
	allowUndatedEnv      = "ALLOW_UNDATED"
	telegramTokenEnv     = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv    = "TELEGRAM_CHAT_ID"
	userAgentEnv         = "USER_AGENT"
	httpTimeoutSecsEnv   = "HTTP_TIMEOUT_SECS"
	summarizerTimeoutEnv = "OPENAI_TIMEOUT_SECS"
)

// Scanner strategies understood by the collector.
const (
	ScannerRSS  = "rss"
	ScannerHTML = "html"
)

// Summarizer providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderService   = "service"
	ProviderNone      = "none"
)

// Seen-URL store backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds high-level settings required across the application.
type Config struct {
	Timezone      string             `yaml:"timezone"`
	Logging       LoggingConfig      `yaml:"logging"`
	Output        OutputConfig       `yaml:"output"`
	State         StateConfig        `yaml:"state"`
	HTTP          HTTPConfig         `yaml:"http"`
	Summarizer    SummarizerConfig   `yaml:"summarizer"`
	Selection     SelectionConfig    `yaml:"selection"`
	Filters       FilterConfig       `yaml:"filters"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sections      []SectionConfig    `yaml:"sections"`
	Digests       []DigestConfig     `yaml:"digests"`

	location *time.Location `yaml:"-"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OutputConfig describes where digests and debug artifacts land.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Debug     bool   `yaml:"debug"`
}

// StateConfig selects the seen-URL store backend.
type StateConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	RedisURL string `yaml:"redisUrl"`
	RedisKey string `yaml:"redisKey"`
}

// HTTPConfig tunes the shared fetch client.
type HTTPConfig struct {
	UserAgent         string  `yaml:"userAgent"`
	TimeoutSeconds    int     `yaml:"timeoutSeconds"`
	MaxBytes          int64   `yaml:"maxBytes"`
	MaxRetries        int     `yaml:"maxRetries"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	DateResolveBudget int     `yaml:"dateResolveBudget"`
	MaxEntriesPerFeed int     `yaml:"maxEntriesPerFeed"`
}

// Timeout returns the per-request timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// SummarizerConfig defines how to contact the summarization service.
type SummarizerConfig struct {
	Provider       string  `yaml:"provider"`
	Endpoint       string  `yaml:"endpoint"`
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"apiKey"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"maxTokens"`
	TimeoutSeconds int     `yaml:"timeoutSeconds"`
	MaxRetries     int     `yaml:"maxRetries"`
	ExcerptChars   int     `yaml:"excerptChars"`
	SystemPrompt   string  `yaml:"systemPrompt"`
}

// Timeout returns the per-call timeout.
func (s SummarizerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// SelectionConfig bounds how many candidates make it into a section.
type SelectionConfig struct {
	ItemsPerSection  int      `yaml:"itemsPerSection"`
	PerDomainCap     int      `yaml:"perDomainCap"`
	MinTextChars     int      `yaml:"minTextChars"`
	PriorityMinChars int      `yaml:"priorityMinChars"`
	PriorityDomains  []string `yaml:"priorityDomains"`
	AllowUndated     bool     `yaml:"allowUndated"`
	LookbackDays     int      `yaml:"lookbackDays"`
}

// FilterConfig holds the allow/deny rules applied to candidates.
type FilterConfig struct {
	AllowDomains         []string            `yaml:"allowDomains"`
	DenyDomains          []string            `yaml:"denyDomains"`
	DenyKeywords         []string            `yaml:"denyKeywords"`
	DenyTitleKeywords    []string            `yaml:"denyTitleKeywords"`
	AllowURLRegex        []string            `yaml:"allowUrlRegex"`
	DenyURLRegex         []string            `yaml:"denyUrlRegex"`
	DenyURLSubstrings    []string            `yaml:"denyUrlSubstrings"`
	DomainDenySubstrings map[string][]string `yaml:"domainDenySubstrings"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both token and chat are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// SectionConfig describes a topical section and the endpoints feeding it.
type SectionConfig struct {
	Name    string         `yaml:"name"`
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig is a single feed or index page with its scanner strategy.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	URL     string            `yaml:"url"`
	// Options are scanner specific, e.g. selector and resolve_budget for html.
	Options map[string]string `yaml:"options"`
}

// DigestConfig describes one digest kind and the sections it covers.
type DigestConfig struct {
	Kind     string   `yaml:"kind"`
	Title    string   `yaml:"title"`
	Cadence  string   `yaml:"cadence"`
	Sections []string `yaml:"sections"`
}

// Location resolves the configured timezone to a time.Location.
func (c Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Section looks up a section by name.
func (c Config) Section(name string) (SectionConfig, bool) {
	for _, s := range c.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return SectionConfig{}, false
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An explicit path that cannot be read is an error; the env-provided path
// falls back to defaults.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(configPathEnv)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err != nil && explicit:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		case err != nil:
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sections) == 0 {
		cfg.Sections = defaultConfig().Sections
	}
	if len(cfg.Digests) == 0 {
		cfg.Digests = defaultConfig().Digests
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross references and enumerations.
func (c Config) Validate() error {
	var errs []error

	switch c.State.Backend {
	case BackendFile, BackendSQLite, BackendPostgres, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown state backend %q", c.State.Backend))
	}

	switch c.Summarizer.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderService, ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("unknown summarizer provider %q", c.Summarizer.Provider))
	}

	sections := map[string]bool{}
	for _, s := range c.Sections {
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, errors.New("section with empty name"))
			continue
		}
		if sections[s.Name] {
			errs = append(errs, fmt.Errorf("duplicate section %q", s.Name))
		}
		sections[s.Name] = true
		for _, src := range s.Sources {
			if src.Scanner != ScannerRSS && src.Scanner != ScannerHTML {
				errs = append(errs, fmt.Errorf("section %q: source %q has unknown scanner %q", s.Name, src.URL, src.Scanner))
			}
		}
	}

	kinds := map[string]bool{}
	for _, d := range c.Digests {
		if d.Kind == "" {
			errs = append(errs, errors.New("digest with empty kind"))
			continue
		}
		if kinds[d.Kind] {
			errs = append(errs, fmt.Errorf("duplicate digest kind %q", d.Kind))
		}
		kinds[d.Kind] = true
		if d.Cadence != "daily" && d.Cadence != "monthly" {
			errs = append(errs, fmt.Errorf("digest %q: cadence must be daily or monthly, got %q", d.Kind, d.Cadence))
		}
		for _, name := range d.Sections {
			if !sections[name] {
				errs = append(errs, fmt.Errorf("digest %q: unknown section %q", d.Kind, name))
			}
		}
	}

	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(summarizerEnv); v != "" {
		c.Summarizer.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(openAIAPIKeyEnv); v != "" && c.Summarizer.Provider == ProviderOpenAI {
		c.Summarizer.APIKey = v
	}
	if v := os.Getenv(openAIAPIBaseEnv); v != "" && c.Summarizer.Provider == ProviderOpenAI {
		c.Summarizer.Endpoint = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" && c.Summarizer.Provider == ProviderOpenAI {
		c.Summarizer.Model = v
	}
	if v := os.Getenv(anthropicAPIKeyEnv); v != "" && c.Summarizer.Provider == ProviderAnthropic {
		c.Summarizer.APIKey = v
	}
	if v := envInt(summarizerTimeoutEnv); v > 0 {
		c.Summarizer.TimeoutSeconds = v
	}

	if v := os.Getenv(storeBackendEnv); v != "" {
		c.State.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(storeDSNEnv); v != "" {
		c.State.DSN = v
	}
	if v := os.Getenv(redisURLEnv); v != "" {
		c.State.RedisURL = v
	}

	if v := os.Getenv(outDirEnv); v != "" {
		c.Output.Directory = v
	}
	if v, ok := envBool(debugEnv); ok {
		c.Output.Debug = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := envInt(itemsPerSectionEnv); v > 0 {
		c.Selection.ItemsPerSection = v
	}
	if v := envInt(perDomainCapEnv); v > 0 {
		c.Selection.PerDomainCap = v
	}
	if v, ok := envBool(allowUndatedEnv); ok {
		c.Selection.AllowUndated = v
	}

	if v := os.Getenv(userAgentEnv); v != "" {
		c.HTTP.UserAgent = v
	}
	if v := envInt(httpTimeoutSecsEnv); v > 0 {
		c.HTTP.TimeoutSeconds = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.location = loc
}

func envInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, v, err)
		return 0
	}
	return n
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	default:
		return false, false
	}
}
