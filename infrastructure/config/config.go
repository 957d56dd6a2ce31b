package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BROWSER_SCRIPTS"

// Config is the configuration shared by every tool
type Config struct {
	Browser    BrowserConfig    `mapstructure:"browser"`
	Log        LogConfig        `mapstructure:"log"`
	Translator TranslatorConfig `mapstructure:"translator"`
	Instagram  InstagramConfig  `mapstructure:"instagram"`
	Repair     RepairConfig     `mapstructure:"repair"`
}

// BrowserConfig controls the browser session
type BrowserConfig struct {
	// ProfileDir keeps cookies between runs so login is done only once
	ProfileDir string  `mapstructure:"profile_dir" validate:"required"`
	Headless   bool    `mapstructure:"headless"`
	SlowMo     float64 `mapstructure:"slow_mo" validate:"gte=0"`
	Channel    string  `mapstructure:"channel"`
}

// LogConfig controls logging
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=trace debug info warn warning error"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// TranslatorConfig controls the image translator
type TranslatorConfig struct {
	AppURL        string        `mapstructure:"app_url" validate:"required,url"`
	ImagesDir     string        `mapstructure:"images_dir" validate:"required"`
	TempDir       string        `mapstructure:"temp_dir" validate:"required"`
	OutputDir     string        `mapstructure:"output_dir" validate:"required"`
	Prompt        string        `mapstructure:"prompt" validate:"required"`
	Extensions    []string      `mapstructure:"extensions" validate:"min=1,dive,required"`
	ResponseWait  time.Duration `mapstructure:"response_wait" validate:"gt=0"`
	SelectorsFile string        `mapstructure:"selectors_file"`
	ReportFile    string        `mapstructure:"report_file" validate:"required"`
}

// InstagramConfig controls the instagram capture
type InstagramConfig struct {
	OutputDir         string        `mapstructure:"output_dir" validate:"required"`
	MaxCarouselImages int           `mapstructure:"max_carousel_images" validate:"gte=1"`
	PostDelay         time.Duration `mapstructure:"post_delay" validate:"gte=0"`
}

// RepairConfig controls the selector repair tool
type RepairConfig struct {
	ReportFile string `mapstructure:"report_file" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load - reads .env, the optional YAML config file and BROWSER_SCRIPTS_* variables.
// envLoaded reports whether a .env file was found.
func Load(path string) (cfg *Config, envLoaded bool, err error) {
	// .env file is optional
	envLoaded = godotenv.Load() == nil

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, envLoaded, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, envLoaded, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, envLoaded, err
	}
	return cfg, envLoaded, nil
}

// Validate - checks the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	desktop := filepath.Join(home, "Desktop")

	v.SetDefault("browser.profile_dir", filepath.Join(home, ".gemini_translator_profile"))
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.slow_mo", 0)
	v.SetDefault("browser.channel", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("translator.app_url", "https://gemini.google.com/app")
	v.SetDefault("translator.images_dir", filepath.Join(home, "Pictures"))
	v.SetDefault("translator.temp_dir", filepath.Join(os.TempDir(), "gemini_images"))
	v.SetDefault("translator.output_dir", desktop)
	v.SetDefault("translator.prompt", "traduce el texto de la imagen, a español")
	v.SetDefault("translator.extensions", []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"})
	v.SetDefault("translator.response_wait", 30*time.Second)
	v.SetDefault("translator.selectors_file", "selectors.yaml")
	v.SetDefault("translator.report_file", filepath.Join(desktop, "translation_report.json"))

	v.SetDefault("instagram.output_dir", filepath.Join(desktop, "instagram_posts"))
	v.SetDefault("instagram.max_carousel_images", 15)
	v.SetDefault("instagram.post_delay", 1500*time.Millisecond)

	v.SetDefault("repair.report_file", "selectors_report.json")
}
