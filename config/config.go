package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research assistant
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Reddit    RedditConfig    `mapstructure:"reddit"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug             bool          `mapstructure:"debug"`
	LogLevel          string        `mapstructure:"log_level"`
	MaxProcessingTime time.Duration `mapstructure:"max_processing_time"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type       string              `mapstructure:"type"` // openai, anthropic, etc.
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Models     map[string]LLMModel `mapstructure:"models"`
	MaxRetries int                 `mapstructure:"max_retries"`
	Timeout    time.Duration       `mapstructure:"timeout"`
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name            string  `mapstructure:"name"`
	APIName         string  `mapstructure:"api_name"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	CostPer1K       float64 `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64 `mapstructure:"cost_per_1k_output"`
}

// LLMRoutingConfig defines which model to use for different tasks
type LLMRoutingConfig struct {
	Strategy  string `mapstructure:"strategy"`  // Use for search strategy derivation
	Analysis  string `mapstructure:"analysis"`  // Use for structured extraction
	Decision  string `mapstructure:"decision"`  // Use for agent-loop tool decisions
	Synthesis string `mapstructure:"synthesis"` // Use for final summaries
	Fallback  string `mapstructure:"fallback"`  // Fallback model
}

// ModelFor resolves a routing slot to a configured model name, falling back
// through the fallback slot so a partially filled routing table still works.
func (r LLMRoutingConfig) ModelFor(task string) string {
	var m string
	switch task {
	case "strategy":
		m = r.Strategy
	case "analysis":
		m = r.Analysis
	case "decision":
		m = r.Decision
	case "synthesis":
		m = r.Synthesis
	}
	if m == "" {
		m = r.Fallback
	}
	return m
}

// RedditConfig contains Reddit retrieval settings
type RedditConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	UserAgent        string        `mapstructure:"user_agent"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
	SearchDelay      time.Duration `mapstructure:"search_delay"`
	DetailDelayMin   time.Duration `mapstructure:"detail_delay_min"`
	DetailDelayMax   time.Duration `mapstructure:"detail_delay_max"`
	CommentLimit     int           `mapstructure:"comment_limit"`
	CommentCharLimit int           `mapstructure:"comment_char_limit"`
	SelftextLimit    int           `mapstructure:"selftext_limit"`
	// TopicSubreddits maps a lowercased trigger keyword to the subreddits
	// searched when a strategy names none. The map is data, not contract.
	TopicSubreddits   map[string][]string `mapstructure:"topic_subreddits"`
	DefaultSubreddits []string            `mapstructure:"default_subreddits"`
}

// Normalize applies defaults for unset Reddit values.
func (r RedditConfig) Normalize() RedditConfig {
	if strings.TrimSpace(r.BaseURL) == "" {
		r.BaseURL = "https://www.reddit.com"
	}
	if strings.TrimSpace(r.UserAgent) == "" {
		r.UserAgent = "RedditDig/2.0 (Reddit research assistant)"
	}
	if r.RequestTimeout <= 0 {
		r.RequestTimeout = 15 * time.Second
	}
	if r.MaxRetries <= 0 {
		r.MaxRetries = 3
	}
	if r.RetryBackoff <= 0 {
		r.RetryBackoff = time.Second
	}
	if r.SearchDelay <= 0 {
		r.SearchDelay = 300 * time.Millisecond
	}
	if r.DetailDelayMin <= 0 {
		r.DetailDelayMin = time.Second
	}
	if r.DetailDelayMax < r.DetailDelayMin {
		r.DetailDelayMax = r.DetailDelayMin + time.Second
	}
	if r.CommentLimit <= 0 {
		r.CommentLimit = 3
	}
	if r.CommentCharLimit <= 0 {
		r.CommentCharLimit = 300
	}
	if r.SelftextLimit <= 0 {
		r.SelftextLimit = 800
	}
	if len(r.TopicSubreddits) == 0 {
		r.TopicSubreddits = DefaultTopicSubreddits()
	}
	if len(r.DefaultSubreddits) == 0 {
		r.DefaultSubreddits = []string{"AskReddit", "discussion", "TrueAskReddit", "NoStupidQuestions", "explainlikeimfive"}
	}
	return r
}

// Validate checks the Reddit configuration.
func (r RedditConfig) Validate() error {
	if !strings.HasPrefix(r.BaseURL, "http://") && !strings.HasPrefix(r.BaseURL, "https://") {
		return fmt.Errorf("reddit.base_url must be an http(s) URL")
	}
	if strings.TrimSpace(r.UserAgent) == "" {
		return fmt.Errorf("reddit.user_agent is required")
	}
	return nil
}

// StrategyConfig controls how search strategies are derived from conversations
type StrategyConfig struct {
	Mode        string `mapstructure:"mode"` // simple | structured
	MaxKeywords int    `mapstructure:"max_keywords"`
}

func (s StrategyConfig) Normalize() StrategyConfig {
	if s.Mode == "" {
		s.Mode = "structured"
	}
	if s.MaxKeywords <= 0 {
		s.MaxKeywords = 10
	}
	return s
}

func (s StrategyConfig) Validate() error {
	if s.Mode != "simple" && s.Mode != "structured" {
		return fmt.Errorf("strategy.mode must be simple or structured, got %q", s.Mode)
	}
	return nil
}

// AnalysisConfig controls the batching analysis engine. MaxContextTokens is
// the per-batch prompt budget; the character cap fed to the prompt builder is
// derived from it, bounded above by MaxContextChars.
type AnalysisConfig struct {
	BatchSize        int `mapstructure:"batch_size"`
	MaxContextChars  int `mapstructure:"max_context_chars"`
	MaxContextTokens int `mapstructure:"max_context_tokens"`
}

func (a AnalysisConfig) Normalize() AnalysisConfig {
	if a.BatchSize <= 0 {
		a.BatchSize = 8
	}
	if a.MaxContextChars <= 0 {
		a.MaxContextChars = 12000
	}
	if a.MaxContextTokens <= 0 {
		a.MaxContextTokens = 3400
	}
	return a
}

// AgentConfig controls the tool-calling agent loop
type AgentConfig struct {
	MaxSteps          int `mapstructure:"max_steps"`
	MaxPostsPerSearch int `mapstructure:"max_posts_per_search"`
}

func (a AgentConfig) Normalize() AgentConfig {
	if a.MaxSteps <= 0 {
		a.MaxSteps = 8
	}
	if a.MaxPostsPerSearch <= 0 {
		a.MaxPostsPerSearch = 5
	}
	return a
}

// CacheConfig configures the optional Redis search-response cache.
// When Host is empty the cache is disabled and every search hits Reddit.
type CacheConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (c CacheConfig) Enabled() bool { return strings.TrimSpace(c.Host) != "" }

func (c CacheConfig) Normalize() CacheConfig {
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.Enabled() && strings.TrimSpace(c.Port) == "" {
		c.Port = "6379"
	}
	return c
}

// TelemetryConfig contains telemetry and cost-tracking settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	CostTracking bool `mapstructure:"cost_tracking"`
}

// DefaultTopicSubreddits returns the built-in keyword -> subreddit routing used
// when no strategy subreddits are given and the config does not override it.
func DefaultTopicSubreddits() map[string][]string {
	return map[string][]string{
		"programming":  {"programming", "javascript", "reactjs", "node", "webdev", "learnprogramming"},
		"coding":       {"programming", "javascript", "reactjs", "node", "webdev", "learnprogramming"},
		"javascript":   {"programming", "javascript", "reactjs", "node", "webdev", "learnprogramming"},
		"python":       {"programming", "javascript", "reactjs", "node", "webdev", "learnprogramming"},
		"react":        {"programming", "javascript", "reactjs", "node", "webdev", "learnprogramming"},
		"node":         {"programming", "javascript", "reactjs", "node", "webdev", "learnprogramming"},
		"game":         {"gaming", "pcgaming", "Games", "gamingsuggestions", "patientgamers"},
		"gaming":       {"gaming", "pcgaming", "Games", "gamingsuggestions", "patientgamers"},
		"console":      {"gaming", "pcgaming", "Games", "gamingsuggestions", "patientgamers"},
		"job":          {"jobs", "careerguidance", "cscareerquestions", "ITCareerQuestions", "careerchange"},
		"career":       {"jobs", "careerguidance", "cscareerquestions", "ITCareerQuestions", "careerchange"},
		"interview":    {"jobs", "careerguidance", "cscareerquestions", "ITCareerQuestions", "careerchange"},
		"fitness":      {"fitness", "health", "loseit", "gainit", "nutrition"},
		"health":       {"fitness", "health", "loseit", "gainit", "nutrition"},
		"diet":         {"fitness", "health", "loseit", "gainit", "nutrition"},
		"workout":      {"fitness", "health", "loseit", "gainit", "nutrition"},
		"relationship": {"relationship_advice", "dating_advice", "relationships", "dating"},
		"dating":       {"relationship_advice", "dating_advice", "relationships", "dating"},
		"advice":       {"relationship_advice", "dating_advice", "relationships", "dating"},
		"invest":       {"investing", "personalfinance", "financialindependence", "stocks", "CryptoCurrency"},
		"money":        {"investing", "personalfinance", "financialindependence", "stocks", "CryptoCurrency"},
		"financial":    {"investing", "personalfinance", "financialindependence", "stocks", "CryptoCurrency"},
		"crypto":       {"investing", "personalfinance", "financialindependence", "stocks", "CryptoCurrency"},
		"laptop":       {"laptops", "SuggestALaptop", "buyitforlife"},
		"macbook":      {"Apple", "mac", "laptops"},
	}
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.max_processing_time", "60s")
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("strategy.mode", "structured")
	viper.SetDefault("analysis.batch_size", 8)
	viper.SetDefault("analysis.max_context_tokens", 3400)
	viper.SetDefault("agent.max_steps", 8)
	viper.SetDefault("agent.max_posts_per_search", 5)
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.cost_tracking", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("REDDITDIG")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Reddit = config.Reddit.Normalize()
	config.Strategy = config.Strategy.Normalize()
	config.Analysis = config.Analysis.Normalize()
	config.Agent = config.Agent.Normalize()
	config.Cache = config.Cache.Normalize()

	if err := config.Reddit.Validate(); err != nil {
		panic(err)
	}
	if err := config.Strategy.Validate(); err != nil {
		panic(err)
	}
	return &config
}
