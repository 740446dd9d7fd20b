package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Blob      BlobConfig      `yaml:"blob" mapstructure:"blob"`
	Text      TextConfig      `yaml:"text" mapstructure:"text"`
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// BlobConfig configures where reports are listed and downloaded from.
type BlobConfig struct {
	Provider          string `yaml:"provider" mapstructure:"provider"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	Key               string `yaml:"key" mapstructure:"key"`
	Bucket            string `yaml:"bucket" mapstructure:"bucket"`
	Folder            string `yaml:"folder" mapstructure:"folder"`
	ListLimit         int    `yaml:"list_limit" mapstructure:"list_limit"`
	PublicURLTemplate string `yaml:"public_url_template" mapstructure:"public_url_template"`

	// S3 / MinIO
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	Region    string `yaml:"region" mapstructure:"region"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}

// TextConfig configures PDF text extraction.
type TextConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MaxPages      int    `yaml:"max_pages" mapstructure:"max_pages"`
	MinChars      int    `yaml:"min_chars" mapstructure:"min_chars"`
}

// OracleConfig configures the structured-extraction model call.
type OracleConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxPromptChars    int     `yaml:"max_prompt_chars" mapstructure:"max_prompt_chars"`
	MaxTokens         int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// OpenAIConfig holds OpenAI-compatible chat completion settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PipelineConfig configures batch behavior.
type PipelineConfig struct {
	BatchSize      int    `yaml:"batch_size" mapstructure:"batch_size"`
	Extension      string `yaml:"extension" mapstructure:"extension"`
	HighlightsFile string `yaml:"highlights_file" mapstructure:"highlights_file"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// envFiles are loaded before the environment is read. Variables already
// set in the process environment win.
var envFiles = []string{".env.local", ".env"}

// envAliases maps config keys to conventional variable names used by the
// hosting platforms, checked after the MINEDOCS_ prefixed name.
var envAliases = map[string][]string{
	"store.database_url": {"DATABASE_URL"},
	"blob.base_url":      {"SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"},
	"blob.key":           {"SUPABASE_SERVICE_ROLE_KEY"},
	"openai.key":         {"OPENAI_API_KEY"},
	"anthropic.key":      {"ANTHROPIC_API_KEY"},
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MINEDOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{"MINEDOCS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("blob.provider", "supabase")
	v.SetDefault("blob.bucket", "technical-documents")
	v.SetDefault("blob.folder", "mining-documents")
	v.SetDefault("blob.list_limit", 100)
	v.SetDefault("blob.region", "us-east-1")
	v.SetDefault("blob.use_ssl", true)
	v.SetDefault("text.provider", "native")
	v.SetDefault("text.pdftotext_path", "pdftotext")
	v.SetDefault("text.max_pages", 50)
	v.SetDefault("text.min_chars", 100)
	v.SetDefault("oracle.provider", "openai")
	v.SetDefault("oracle.temperature", 0.1)
	v.SetDefault("oracle.max_prompt_chars", 8000)
	v.SetDefault("oracle.max_tokens", 2048)
	v.SetDefault("oracle.requests_per_minute", 0)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4-turbo-preview")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("pipeline.batch_size", 5)
	v.SetDefault("pipeline.extension", ".pdf")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", true)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// loadEnvFiles loads each existing dotenv file without overriding
// variables that are already set.
func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "config: stat %s", p)
		}
		if err := godotenv.Load(p); err != nil {
			return eris.Wrapf(err, "config: load %s", p)
		}
	}
	return nil
}

// Validate checks the settings the ingest command cannot run without.
func (c *Config) Validate() error {
	var missing []string
	switch c.Store.Driver {
	case "postgres", "":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url")
		}
	case "sqlite":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	switch c.Blob.Provider {
	case "supabase":
		if c.Blob.BaseURL == "" {
			missing = append(missing, "blob.base_url")
		}
		if c.Blob.Key == "" {
			missing = append(missing, "blob.key")
		}
	case "s3", "minio":
		if c.Blob.Provider == "minio" && c.Blob.Endpoint == "" {
			missing = append(missing, "blob.endpoint")
		}
	default:
		return eris.Errorf("config: unknown blob provider %q", c.Blob.Provider)
	}
	switch c.Oracle.Provider {
	case "openai":
		if c.OpenAI.Key == "" {
			missing = append(missing, "openai.key")
		}
	case "anthropic":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key")
		}
	default:
		return eris.Errorf("config: unknown oracle provider %q", c.Oracle.Provider)
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger. When cfg.File is set, JSON
// entries are also written to a size-rotated file.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	var opts []zap.Option
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotator),
			zapCfg.Level,
		)
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	logger, err := zapCfg.Build(opts...)
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
