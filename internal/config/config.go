package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Server   ServerConfig   `yaml:"server"`
	Theme    ThemeConfig    `yaml:"theme"`
	Content  ContentConfig  `yaml:"content"`
	Assets   AssetsConfig   `yaml:"assets"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Quill"`
	Description string `yaml:"description" default:"Long-form writing with pictures"`
	Tagline     string `yaml:"tagline" default:"Notes, essays and photographs"`
}

type ServerConfig struct {
	Host           string   `yaml:"host" default:"0.0.0.0"`
	Port           string   `yaml:"port" default:"12600"`
	AllowedOrigins []string `yaml:"allowed_origins" default:"http://localhost:3000"`
}

type ThemeConfig struct {
	SyntaxHighlighting SyntaxConfig `yaml:"syntax_highlighting"`
}

type SyntaxConfig struct {
	Default string `yaml:"default" default:"gruvbox"`
}

type ContentConfig struct {
	// MaxChars caps decoded body text, counted in characters.
	MaxChars int `yaml:"max_chars" default:"50000"`
	// CompressThreshold enables gzip-base64 envelopes for bodies at least this
	// many bytes long. Zero keeps every body uncompressed.
	CompressThreshold int    `yaml:"compress_threshold" default:"0"`
	MarkdownRenderer  string `yaml:"markdown_renderer" default:"classic"`
	PostsPerPage      int    `yaml:"posts_per_page" default:"50"`
}

type AssetsConfig struct {
	Backend       string   `yaml:"backend" default:"fs"`
	PublicBaseURL string   `yaml:"public_base_url" default:"http://localhost:12600/uploads/"`
	UploadDir     string   `yaml:"upload_dir" default:"./uploads"`
	MaxBytes      int64    `yaml:"max_bytes" default:"5242880"`
	AllowedTypes  []string `yaml:"allowed_types" default:"image/jpeg,image/png,image/gif"`
	S3            S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint" default:""`
	Bucket          string `yaml:"bucket" default:""`
	Region          string `yaml:"region" default:"auto"`
	AccessKeyID     string `yaml:"access_key_id" default:""`
	SecretAccessKey string `yaml:"secret_access_key" default:""`
}

type DatabaseConfig struct {
	Path string `yaml:"path" default:"./database.db"`
}

type AuthConfig struct {
	AdminUsername string        `yaml:"admin_username" default:"admin"`
	AdminPassword string        `yaml:"admin_password" default:""`
	SessionSecret string        `yaml:"session_secret" default:""`
	SessionTTL    time.Duration `yaml:"session_ttl" default:"24h"`
	Issuer        string        `yaml:"issuer" default:"quill"`
}

type GatewayConfig struct {
	BaseURL   string        `yaml:"base_url" default:"http://localhost:12600"`
	Timeout   time.Duration `yaml:"timeout" default:"30s"`
	TokenFile string        `yaml:"token_file" default:".quill-session"`
}

var AppConfig *Config

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	ApplyEnv(config)

	AppConfig = config
	return nil
}

// Environment variables that override secrets and deployment-specific values.
const (
	EnvAdminUsername     = "QUILL_ADMIN_USERNAME"
	EnvAdminPassword     = "QUILL_ADMIN_PASSWORD"
	EnvSessionSecret     = "QUILL_SESSION_SECRET"
	EnvS3AccessKeyID     = "QUILL_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "QUILL_S3_SECRET_ACCESS_KEY"
	EnvGatewayURL        = "QUILL_GATEWAY_URL"
	EnvAssetsBaseURL     = "QUILL_ASSETS_BASE_URL"
)

func ApplyEnv(cfg *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvAdminUsername, &cfg.Auth.AdminUsername},
		{EnvAdminPassword, &cfg.Auth.AdminPassword},
		{EnvSessionSecret, &cfg.Auth.SessionSecret},
		{EnvS3AccessKeyID, &cfg.Assets.S3.AccessKeyID},
		{EnvS3SecretAccessKey, &cfg.Assets.S3.SecretAccessKey},
		{EnvGatewayURL, &cfg.Gateway.BaseURL},
		{EnvAssetsBaseURL, &cfg.Assets.PublicBaseURL},
	}

	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.target = v
		}
	}
}

// Validate checks the settings shared by the server and the publishing client.
func (c *Config) Validate() error {
	return validation.Errors{
		"content": validation.ValidateStruct(&c.Content,
			validation.Field(&c.Content.MaxChars, validation.Required, validation.Min(1)),
			validation.Field(&c.Content.CompressThreshold, validation.Min(0)),
			validation.Field(&c.Content.MarkdownRenderer, validation.Required, validation.In(RendererClassic, RendererMmark)),
		),
		"assets": validation.ValidateStruct(&c.Assets,
			validation.Field(&c.Assets.Backend, validation.Required, validation.In(AssetBackendFS, AssetBackendS3)),
			validation.Field(&c.Assets.PublicBaseURL, validation.Required, is.URL),
			validation.Field(&c.Assets.MaxBytes, validation.Required, validation.Min(int64(1))),
			validation.Field(&c.Assets.AllowedTypes, validation.Required),
		),
		"gateway": validation.ValidateStruct(&c.Gateway,
			validation.Field(&c.Gateway.BaseURL, validation.Required, is.URL),
			validation.Field(&c.Gateway.Timeout, validation.Required),
		),
	}.Filter()
}

// ValidateServer additionally requires the admin credential and the session
// signing secret.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}

	err := validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.AdminUsername, validation.Required),
		validation.Field(&c.Auth.AdminPassword, validation.Required),
		validation.Field(&c.Auth.SessionSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.Auth.SessionTTL, validation.Required),
	)
	if err != nil {
		return err
	}

	if c.Assets.Backend == AssetBackendS3 {
		return validation.ValidateStruct(&c.Assets.S3,
			validation.Field(&c.Assets.S3.Endpoint, validation.Required, is.URL),
			validation.Field(&c.Assets.S3.Bucket, validation.Required),
		)
	}
	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Int64:
			if field.Type() == durationType {
				if val, err := time.ParseDuration(defaultValue); err == nil {
					field.SetInt(int64(val))
				}
			} else if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
