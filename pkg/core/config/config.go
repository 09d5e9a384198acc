// Package config loads runtime settings from an optional YAML file and the
// environment. Environment variables override the file, which overrides defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is built once at startup and passed down explicitly.
type Config struct {
	Gemini      GeminiConfig  `yaml:"gemini" envconfig:"GEMINI"`
	Extract     ExtractConfig `yaml:"extract" envconfig:"EXTRACT"`
	Google      GoogleConfig  `yaml:"google" envconfig:"GOOGLE"`
	XLSX        XLSXConfig    `yaml:"xlsx" envconfig:"XLSX"`
	Sheets      SheetNames    `yaml:"sheets" envconfig:"SHEET"`
	Match       MatchConfig   `yaml:"match" envconfig:"MATCH"`
	Store       string        `yaml:"store_backend" envconfig:"STORE_BACKEND" validate:"omitempty,oneof=sheets xlsx memory"`
	Logging     LoggingConfig `yaml:"logging" envconfig:"LOG"`
	LayoutFile  string        `yaml:"layout_file" envconfig:"LAYOUT_FILE"`
	MappingFile string        `yaml:"mapping_file" envconfig:"MAPPING_FILE"`
	DatabaseURL string        `yaml:"database_url" envconfig:"DATABASE_URL"`

	// CostOfProduction enables the manufacturing cost report and its rules.
	CostOfProduction bool `yaml:"cost_of_production" envconfig:"COST_OF_PRODUCTION"`
}

// GeminiConfig contains model settings
type GeminiConfig struct {
	APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
	Model           string        `yaml:"model" envconfig:"MODEL" validate:"required"`
	Temperature     float32       `yaml:"temperature" envconfig:"TEMPERATURE" validate:"gte=0,lte=2"`
	TopP            float32       `yaml:"top_p" envconfig:"TOP_P" validate:"gte=0,lte=1"`
	MaxOutputTokens int32         `yaml:"max_output_tokens" envconfig:"MAX_OUTPUT_TOKENS" validate:"gt=0"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// ExtractConfig contains retry and caching settings
type ExtractConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" validate:"gte=1,lte=10"`
	InitialDelay time.Duration `yaml:"initial_delay" envconfig:"INITIAL_DELAY" validate:"gte=0"`
	CacheDir     string        `yaml:"cache_dir" envconfig:"CACHE_DIR"`
	JSON         bool          `yaml:"json" envconfig:"JSON"`
}

// GoogleConfig selects the spreadsheet backend
type GoogleConfig struct {
	SpreadsheetID          string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	ServiceAccountJSON     string `yaml:"-" envconfig:"SERVICE_ACCOUNT_JSON"`
	ServiceAccountFile     string `yaml:"service_account_file" envconfig:"SERVICE_ACCOUNT_FILE"`
	ApplicationCredentials string `yaml:"-" envconfig:"APPLICATION_CREDENTIALS"`
}

// CredentialsFile is the service account file, falling back to ADC's variable.
func (g GoogleConfig) CredentialsFile() string {
	if g.ServiceAccountFile != "" {
		return g.ServiceAccountFile
	}
	return g.ApplicationCredentials
}

// XLSXConfig selects the local workbook backend
type XLSXConfig struct {
	Template string `yaml:"template" envconfig:"TEMPLATE_PATH"`
	Output   string `yaml:"output" envconfig:"OUTPUT_PATH"`
}

// SheetNames are the auxiliary sheets of the workbook.
type SheetNames struct {
	OCR     string `yaml:"ocr" envconfig:"OCR" validate:"required"`
	Mapping string `yaml:"mapping" envconfig:"MAPPING" validate:"required"`
	Audit   string `yaml:"audit" envconfig:"AUDIT" validate:"required"`
}

// MatchConfig tunes fuzzy name matching
type MatchConfig struct {
	Threshold float64 `yaml:"threshold" envconfig:"THRESHOLD" validate:"gt=0,lt=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Gemini: GeminiConfig{
			Model:           "gemini-2.5-flash",
			Temperature:     0,
			TopP:            1,
			MaxOutputTokens: 8192,
			Timeout:         60 * time.Second,
		},
		Extract: ExtractConfig{
			MaxAttempts:  3,
			InitialDelay: time.Second,
		},
		Sheets: SheetNames{
			OCR:     "OCR作業シート",
			Mapping: "勘定科目マッピング",
			Audit:   "調整ログ",
		},
		Match:   MatchConfig{Threshold: 0.7},
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "console", FilePath: "logs/transcribe.log"},
	}
}

// Load applies defaults, then the YAML file at path (if any), then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and backend selection.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch c.Backend() {
	case "sheets":
		if c.Google.SpreadsheetID == "" {
			return fmt.Errorf("%w: sheets backend requires GOOGLE_SPREADSHEET_ID", ErrInvalid)
		}
	case "xlsx":
		if c.XLSX.Output == "" && c.XLSX.Template == "" {
			return fmt.Errorf("%w: xlsx backend requires XLSX_OUTPUT_PATH or XLSX_TEMPLATE_PATH", ErrInvalid)
		}
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("%w: logging output to file requires LOG_FILE_PATH", ErrInvalid)
	}
	return nil
}

// Backend names the store: STORE_BACKEND when set, otherwise inferred from
// which of spreadsheet ID and workbook path is configured.
func (c *Config) Backend() string {
	if c.Store != "" {
		return c.Store
	}
	switch {
	case c.Google.SpreadsheetID != "":
		return "sheets"
	case c.XLSX.Output != "" || c.XLSX.Template != "":
		return "xlsx"
	default:
		return "memory"
	}
}
