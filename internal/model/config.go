package model

import "time"

// Config is the full runtime configuration. Values are resolved in layers:
// built-in defaults, ~/.hindsite/config.yaml, HINDSITE_* environment
// variables, then CLI flags.
type Config struct {
	Source      SourceConfig      `yaml:"source" mapstructure:"source"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Generator   GeneratorConfig   `yaml:"generator" mapstructure:"generator"`
	Temporal    TemporalConfig    `yaml:"temporal" mapstructure:"temporal"`
	Entity      EntityConfig      `yaml:"entity" mapstructure:"entity"`
	Validator   ValidatorConfig   `yaml:"validator" mapstructure:"validator"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// SourceConfig describes the upstream newsletter API.
type SourceConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	PublicationID string  `yaml:"publication_id" mapstructure:"publication_id"`
	APIKey        string  `yaml:"api_key" mapstructure:"api_key"`
	PageSize      int     `yaml:"page_size" mapstructure:"page_size"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	WebFallback   bool    `yaml:"web_fallback" mapstructure:"web_fallback"`
}

// HTTPConfig controls outbound HTTP behavior.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the layered source-response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// GeneratorConfig selects and tunes the card generation strategy.
type GeneratorConfig struct {
	// Strategy is "heuristic" or "assisted".
	Strategy string `yaml:"strategy" mapstructure:"strategy"`
	// Strict requires a temporal reference on every unit; when false,
	// connection phrases also qualify.
	Strict bool `yaml:"strict" mapstructure:"strict"`
	// IncludeTitleYears also considers years in the issue title when
	// deriving the timeline year. Historical variants disagree on this,
	// so it stays a knob.
	IncludeTitleYears bool `yaml:"include_title_years" mapstructure:"include_title_years"`
	MaxCards          int  `yaml:"max_cards" mapstructure:"max_cards"`
	MinUnitLen        int  `yaml:"min_unit_len" mapstructure:"min_unit_len"`
	MaxUnitLen        int  `yaml:"max_unit_len" mapstructure:"max_unit_len"`
	MaxPromptChars    int  `yaml:"max_prompt_chars" mapstructure:"max_prompt_chars"`
}

// TemporalConfig bounds bare-year detection.
type TemporalConfig struct {
	MinYear int `yaml:"min_year" mapstructure:"min_year"`
	MaxYear int `yaml:"max_year" mapstructure:"max_year"`
}

// EntityConfig tunes the entity tagger.
type EntityConfig struct {
	MaxTags int `yaml:"max_tags" mapstructure:"max_tags"`
	// VocabFile optionally replaces the built-in platform/company/figure
	// vocabularies with a YAML file loaded at startup.
	VocabFile string `yaml:"vocab_file" mapstructure:"vocab_file"`
}

// ValidatorConfig bounds the card validation gate.
type ValidatorConfig struct {
	MinYear     int `yaml:"min_year" mapstructure:"min_year"`
	MaxYear     int `yaml:"max_year" mapstructure:"max_year"`
	MaxCards    int `yaml:"max_cards" mapstructure:"max_cards"`
	MaxEvidence int `yaml:"max_evidence" mapstructure:"max_evidence"`
	MaxTags     int `yaml:"max_tags" mapstructure:"max_tags"`
}

// LLMConfig configures the completion provider for the assisted strategy.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama, ""
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// StoreConfig locates the card database.
type StoreConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// ConcurrencyConfig controls import fan-out. Workers > 1 fans out across
// distinct issue ids; writes to the same id are always serialized.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls operator-facing noise.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:       "https://api.beehiiv.com/v2",
			PageSize:      50,
			RatePerSecond: 2,
			RateBurst:     5,
			WebFallback:   true,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "hindsite/0.1 (+https://github.com/hindsite)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "~/.hindsite/cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Generator: GeneratorConfig{
			Strategy:       "heuristic",
			Strict:         true,
			MaxCards:       10,
			MinUnitLen:     20,
			MaxUnitLen:     500,
			MaxPromptChars: 14_000,
		},
		Temporal: TemporalConfig{
			MinYear: 1900,
			MaxYear: 2029,
		},
		Entity: EntityConfig{
			MaxTags: 12,
		},
		Validator: ValidatorConfig{
			MinYear:     1990,
			MaxYear:     2035,
			MaxCards:    6,
			MaxEvidence: 4,
			MaxTags:     10,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1500,
		},
		Store: StoreConfig{
			DBPath: "~/.hindsite/hindsite.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 1,
		},
	}
}
