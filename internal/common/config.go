package common

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StoreGitHub = "github"
	StoreFile   = "file"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	LLM      LLMConfig
	Store    StoreConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds run-ledger database configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// LLMConfig holds oracle configuration
type LLMConfig struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	Temperature   float32
	Timeout       time.Duration
}

// StoreConfig holds catalog blob store configuration
type StoreConfig struct {
	Backend       string
	GitHubToken   string
	GitHubOwner   string
	GitHubRepo    string
	GitHubBranch  string
	GitHubPath    string
	GitHubBaseURL string
	FilePath      string
	MaxAttempts   int
	Backoff       time.Duration
	CommitMessage string
}

// PipelineConfig holds per-run behavior
type PipelineConfig struct {
	Timezone   string
	RunTimeout time.Duration
}

// Location resolves the configured timezone, falling back to UTC.
func (p PipelineConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_url", "file:market-views.db?_pragma=busy_timeout(5000)")
	v.SetDefault("db_max_conns", 10)
	v.SetDefault("db_min_conns", 1)
	v.SetDefault("db_max_conn_lifetime", 30*time.Minute)
	v.SetDefault("db_max_conn_idle_time", 5*time.Minute)
	v.SetDefault("db_dial_timeout", 3*time.Second)

	v.SetDefault("llm_provider", ProviderGemini)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-2.0-flash")
	v.SetDefault("gemini_base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("llm_temperature", 0.0)
	v.SetDefault("llm_timeout", 120*time.Second)

	v.SetDefault("store_backend", StoreGitHub)
	v.SetDefault("github_token", "")
	v.SetDefault("github_repo", "")
	v.SetDefault("github_branch", "")
	v.SetDefault("github_file_path", "investment_views.csv")
	v.SetDefault("github_base_url", "")
	v.SetDefault("store_file_path", "investment_views.csv")
	v.SetDefault("append_max_attempts", 3)
	v.SetDefault("append_backoff", 750*time.Millisecond)
	v.SetDefault("commit_message", "Add investment views from {source}")

	v.SetDefault("timezone", "")
	v.SetDefault("run_timeout", 5*time.Minute)
}

// LoadConfig builds the configuration once at process entry. Precedence, lowest first:
// defaults, the optional config file at path, a .env file in the working directory,
// and the process environment.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError(KindConfig, "load .env", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError(KindConfig, fmt.Sprintf("read config file %q", path), err)
		}
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	owner, repo := splitRepo(v.GetString("github_repo"))
	return &Config{
		Database: DatabaseConfig{
			DSN:             v.GetString("db_url"),
			MaxConns:        v.GetInt32("db_max_conns"),
			MinConns:        v.GetInt32("db_min_conns"),
			MaxConnLifetime: v.GetDuration("db_max_conn_lifetime"),
			MaxConnIdleTime: v.GetDuration("db_max_conn_idle_time"),
			DialTimeout:     v.GetDuration("db_dial_timeout"),
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(strings.TrimSpace(v.GetString("llm_provider"))),
			GeminiAPIKey:  v.GetString("gemini_api_key"),
			GeminiModel:   v.GetString("gemini_model"),
			GeminiBaseURL: v.GetString("gemini_base_url"),
			OpenAIAPIKey:  v.GetString("openai_api_key"),
			OpenAIModel:   v.GetString("openai_model"),
			OpenAIBaseURL: v.GetString("openai_base_url"),
			Temperature:   float32(v.GetFloat64("llm_temperature")),
			Timeout:       v.GetDuration("llm_timeout"),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(strings.TrimSpace(v.GetString("store_backend"))),
			GitHubToken:   v.GetString("github_token"),
			GitHubOwner:   owner,
			GitHubRepo:    repo,
			GitHubBranch:  v.GetString("github_branch"),
			GitHubPath:    v.GetString("github_file_path"),
			GitHubBaseURL: v.GetString("github_base_url"),
			FilePath:      v.GetString("store_file_path"),
			MaxAttempts:   v.GetInt("append_max_attempts"),
			Backoff:       v.GetDuration("append_backoff"),
			CommitMessage: v.GetString("commit_message"),
		},
		Pipeline: PipelineConfig{
			Timezone:   v.GetString("timezone"),
			RunTimeout: v.GetDuration("run_timeout"),
		},
	}
}

// splitRepo accepts "owner/name" and returns both halves; anything else yields empty strings.
func splitRepo(s string) (string, string) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", ""
	}
	return owner, name
}

// Validate checks every section.
func (c *Config) Validate() error {
	v := NewValidator()
	c.validateLLM(v)
	c.validateStore(v)
	return validationResult(v)
}

// ValidateStore checks only what reading and writing the catalog needs.
func (c *Config) ValidateStore() error {
	v := NewValidator()
	c.validateStore(v)
	return validationResult(v)
}

func (c *Config) validateLLM(v *Validator) {
	v.Field("llm_provider", c.LLM.Provider, OneOf(ProviderGemini, ProviderOpenAI))
	switch c.LLM.Provider {
	case ProviderGemini:
		v.Field("gemini_api_key", c.LLM.GeminiAPIKey, Required)
		v.Field("gemini_model", c.LLM.GeminiModel, Required)
	case ProviderOpenAI:
		v.Field("openai_api_key", c.LLM.OpenAIAPIKey, Required)
		v.Field("openai_model", c.LLM.OpenAIModel, Required)
	}
	if c.Pipeline.Timezone != "" {
		if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
			v.Field("timezone", c.Pipeline.Timezone, func(field string, value interface{}) *ValidationError {
				return &ValidationError{Field: field, Value: value, Message: "unknown timezone"}
			})
		}
	}
}

func (c *Config) validateStore(v *Validator) {
	v.Field("store_backend", c.Store.Backend, OneOf(StoreGitHub, StoreFile))
	switch c.Store.Backend {
	case StoreGitHub:
		v.Field("github_token", c.Store.GitHubToken, Required)
		v.Field("github_repo", c.Store.GitHubRepo, Required)
		v.Field("github_file_path", c.Store.GitHubPath, Required)
	case StoreFile:
		v.Field("store_file_path", c.Store.FilePath, Required)
	}
	v.Field("append_max_attempts", c.Store.MaxAttempts, Positive)
	v.Field("db_url", c.Database.DSN, Required)
}

func validationResult(v *Validator) error {
	if v.HasErrors() {
		return NewAppError(KindConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
