package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Staging modes for the transcription pipeline.
const (
	StagingInline  = "inline"
	StagingDurable = "durable"
)

// Credential modes for the speech client.
const (
	CredentialServiceAccount = "service-account"
	CredentialOAuthRefresh   = "oauth-refresh"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Pipeline struct {
		TranscodeEnabled bool   `yaml:"transcode_enabled"`
		StagingMode      string `yaml:"staging_mode"`
		MaxFileSizeMB    int    `yaml:"max_file_size_mb"`
		TempDir          string `yaml:"temp_dir"`
	} `yaml:"pipeline"`

	Speech struct {
		LanguageCode               string   `yaml:"language_code"`
		AlternativeLanguageCodes   []string `yaml:"alternative_language_codes"`
		Model                      string   `yaml:"model"`
		UseEnhanced                bool     `yaml:"use_enhanced"`
		EnableAutomaticPunctuation bool     `yaml:"enable_automatic_punctuation"`
		CredentialMode             string   `yaml:"credential_mode"`
	} `yaml:"speech"`

	Storage struct {
		Bucket   string `yaml:"bucket"`
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Auth struct {
		TokenTTLHours int `yaml:"token_ttl_hours"`
	} `yaml:"auth"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	// Secrets are never read from the YAML file.
	Secrets Secrets `yaml:"-"`
}

// Secrets holds credential material sourced from the environment.
type Secrets struct {
	ServiceAccountJSON string // inline JSON key
	ServiceAccountFile string // path to a JSON key file
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	JWTSecret          string
	Username           string
	PasswordHash       string // bcrypt hash of the login password
}

// Load reads the YAML config at path, merges environment secrets (a .env file
// is honored when present) and validates the result.
func Load(path string) (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Secrets = Secrets{
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		ClientID:           os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret:       os.Getenv("GOOGLE_CLIENT_SECRET"),
		RefreshToken:       os.Getenv("GOOGLE_REFRESH_TOKEN"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		Username:           os.Getenv("AUTH_USERNAME"),
		PasswordHash:       os.Getenv("AUTH_PASSWORD_HASH"),
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Pipeline.StagingMode == "" {
		c.Pipeline.StagingMode = StagingInline
	}
	if c.Pipeline.MaxFileSizeMB == 0 {
		c.Pipeline.MaxFileSizeMB = 50
	}
	if c.Pipeline.TempDir == "" {
		c.Pipeline.TempDir = "temp"
	}
	if c.Speech.LanguageCode == "" {
		c.Speech.LanguageCode = "pt-BR"
	}
	if c.Speech.CredentialMode == "" {
		c.Speech.CredentialMode = CredentialServiceAccount
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = 24
	}
	if c.Cleanup.IntervalMinutes == 0 {
		c.Cleanup.IntervalMinutes = 30
	}
	if c.Cleanup.MaxAgeHours == 0 {
		c.Cleanup.MaxAgeHours = 6
	}
}

// Validate checks mode combinations and required credential material.
func (c *Config) Validate() error {
	switch c.Pipeline.StagingMode {
	case StagingInline, StagingDurable:
	default:
		return fmt.Errorf("invalid staging_mode %q (want %s or %s)",
			c.Pipeline.StagingMode, StagingInline, StagingDurable)
	}
	if c.Pipeline.StagingMode == StagingDurable && c.Storage.Bucket == "" {
		return fmt.Errorf("staging_mode %s requires storage.bucket", StagingDurable)
	}

	switch c.Speech.CredentialMode {
	case CredentialServiceAccount:
		if c.Secrets.ServiceAccountJSON == "" && c.Secrets.ServiceAccountFile == "" {
			return fmt.Errorf("credential_mode %s requires GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_APPLICATION_CREDENTIALS",
				CredentialServiceAccount)
		}
	case CredentialOAuthRefresh:
		if c.Secrets.ClientID == "" || c.Secrets.ClientSecret == "" || c.Secrets.RefreshToken == "" {
			return fmt.Errorf("credential_mode %s requires GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN",
				CredentialOAuthRefresh)
		}
	default:
		return fmt.Errorf("invalid credential_mode %q (want %s or %s)",
			c.Speech.CredentialMode, CredentialServiceAccount, CredentialOAuthRefresh)
	}

	if c.Secrets.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Secrets.Username == "" || c.Secrets.PasswordHash == "" {
		return fmt.Errorf("AUTH_USERNAME and AUTH_PASSWORD_HASH are required")
	}
	return nil
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Pipeline.MaxFileSizeMB) * 1024 * 1024
}
