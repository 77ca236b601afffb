package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"salonbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App          AppConfig          `yaml:"app"`
	Logging      LoggingConfig      `yaml:"logging"`
	API          APIConfig          `yaml:"api"`
	Redis        RedisConfig        `yaml:"redis"`
	Database     DatabaseConfig     `yaml:"database"`
	Upstream     UpstreamConfig     `yaml:"upstream"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Verification VerificationConfig `yaml:"verification"`
	Submission   SubmissionConfig   `yaml:"submission"`
	Contact      ContactConfig      `yaml:"contact"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Monitoring   MonitoringConfig   `yaml:"monitoring"`
	Exports      ExportConfig       `yaml:"exports"`
	Session      SessionConfig      `yaml:"session"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      APICORSConfig      `yaml:"cors"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

// APIAuthConfig guards the admin routes.
type APIAuthConfig struct {
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type APICORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// UpstreamConfig points at the salon booking API.
type UpstreamConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type ScheduleConfig struct {
	Timezone        string        `yaml:"timezone"`
	Start           string        `yaml:"start"`
	End             string        `yaml:"end"`
	SlotMinutes     int           `yaml:"slot_minutes"`
	MonthsCount     int           `yaml:"months_count"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type VerificationConfig struct {
	OTPLength       int           `yaml:"otp_length"`
	OTPTTL          time.Duration `yaml:"otp_ttl"`
	ResendCooldown  time.Duration `yaml:"resend_cooldown"`
	AutoSubmitDelay time.Duration `yaml:"autosubmit_delay"`
	// SendLimit caps OTP sends per phone within SendWindow.
	SendLimit  int           `yaml:"send_limit"`
	SendWindow time.Duration `yaml:"send_window"`
}

type SubmissionConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	BaseDelay      time.Duration `yaml:"base_delay"`
	BackoffFactor  float64       `yaml:"backoff_factor"`
	MaxDelay       time.Duration `yaml:"max_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimitDelay time.Duration `yaml:"rate_limit_delay"`
}

type ContactConfig struct {
	WhatsAppNumber  string `yaml:"whatsapp_number"`
	MessageTemplate string `yaml:"message_template"`
}

type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	ManagerChatIDs []int64 `yaml:"manager_chat_ids"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Load reads .env (optional) and the YAML file at configPath, expanding ${VAR}
// references before parsing.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes raw YAML, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return errors.New("upstream base url is required")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid schedule timezone %q: %w", c.Schedule.Timezone, err)
	}

	start, err := time.Parse(models.TimeFormat, c.Schedule.Start)
	if err != nil {
		return fmt.Errorf("invalid schedule start %q", c.Schedule.Start)
	}
	end, err := time.Parse(models.TimeFormat, c.Schedule.End)
	if err != nil {
		return fmt.Errorf("invalid schedule end %q", c.Schedule.End)
	}
	if !start.Before(end) {
		return errors.New("schedule start must be before end")
	}
	if c.Schedule.SlotMinutes <= 0 {
		return errors.New("schedule slot_minutes must be positive")
	}

	if c.Verification.OTPLength < 4 || c.Verification.OTPLength > 8 {
		return fmt.Errorf("verification otp_length must be between 4 and 8, got %d", c.Verification.OTPLength)
	}
	if c.Submission.MaxRetries < 0 {
		return errors.New("submission max_retries must not be negative")
	}
	return nil
}

// Location returns the configured schedule timezone. Validate has already
// checked that it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) WorkingHours() models.WorkingHours {
	return models.WorkingHours{
		Start:       c.Schedule.Start,
		End:         c.Schedule.End,
		SlotMinutes: c.Schedule.SlotMinutes,
	}
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "salonbook"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/salonbook.db"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}

	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 15 * time.Second
	}
	if c.Upstream.CacheTTL == 0 {
		c.Upstream.CacheTTL = 5 * time.Minute
	}

	// Schedule defaults
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Europe/Istanbul"
	}
	if c.Schedule.Start == "" {
		c.Schedule.Start = models.DefaultWorkStart
	}
	if c.Schedule.End == "" {
		c.Schedule.End = models.DefaultWorkEnd
	}
	if c.Schedule.SlotMinutes == 0 {
		c.Schedule.SlotMinutes = models.DefaultSlotMinutes
	}
	if c.Schedule.MonthsCount == 0 {
		c.Schedule.MonthsCount = models.DefaultMonthsCount
	}
	if c.Schedule.RefreshInterval == 0 {
		c.Schedule.RefreshInterval = 5 * time.Minute
	}

	// Verification defaults
	if c.Verification.OTPLength == 0 {
		c.Verification.OTPLength = models.DefaultOTPLength
	}
	if c.Verification.OTPTTL == 0 {
		c.Verification.OTPTTL = 5 * time.Minute
	}
	if c.Verification.ResendCooldown == 0 {
		c.Verification.ResendCooldown = 60 * time.Second
	}
	if c.Verification.AutoSubmitDelay == 0 {
		c.Verification.AutoSubmitDelay = 500 * time.Millisecond
	}
	if c.Verification.SendLimit == 0 {
		c.Verification.SendLimit = 5
	}
	if c.Verification.SendWindow == 0 {
		c.Verification.SendWindow = time.Hour
	}

	// Submission defaults
	if c.Submission.MaxRetries == 0 {
		c.Submission.MaxRetries = 3
	}
	if c.Submission.BaseDelay == 0 {
		c.Submission.BaseDelay = time.Second
	}
	if c.Submission.BackoffFactor == 0 {
		c.Submission.BackoffFactor = 2
	}
	if c.Submission.MaxDelay == 0 {
		c.Submission.MaxDelay = 30 * time.Second
	}
	if c.Submission.RequestTimeout == 0 {
		c.Submission.RequestTimeout = 10 * time.Second
	}
	if c.Submission.RateLimitDelay == 0 {
		c.Submission.RateLimitDelay = 60 * time.Second
	}

	if c.Session.TTL == 0 {
		c.Session.TTL = models.DefaultSessionTTL * time.Second
	}
}
