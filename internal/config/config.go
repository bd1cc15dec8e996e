// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`

	// Generative text service (OpenAI-compatible chat completions)
	OpenAIAPIKey  string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	TailorModel   string `yaml:"tailor_model"`
	AnswerModel   string `yaml:"answer_model"`

	// Object storage
	AWSRegion string `yaml:"aws_region" env:"AWS_REGION"`
	S3Bucket  string `yaml:"s3_bucket" env:"AWS_S3_BUCKET"`

	// CAPTCHA solving
	CapsolverAPIKey string `yaml:"capsolver_api_key" env:"CAPSOLVER_API_KEY"`

	// Operator notifications (optional)
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`

	// Browser
	ProxyFile   string `yaml:"proxy_file" env:"PROXY_FILE"`
	ShowBrowser bool   `yaml:"show_browser" env:"SHOW_BROWSER"`

	// Worker behavior. TestMode stops after the resume upload and marks the
	// task success; DryRun walks the whole form but never clicks submit.
	TestMode     bool   `yaml:"test_mode" env:"TEST_MODE"`
	DryRun       bool   `yaml:"dry_run" env:"DRY_RUN"`
	IdleDelaySec int    `yaml:"idle_delay_sec"`
	ClaimOrder   string `yaml:"claim_order"` // "fifo" (default) or "random"

	// Resume rendering
	TemplatePath string `yaml:"template_path"`

	// Status API
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

func Load() *Config {
	_ = godotenv.Load()

	//Load yaml config
	cfg := &Config{}

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Printf("Warning: Could not read config.yaml: %v", err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("Error parsing config.yaml: %v", err)
		}
	}

	//Override with env vars
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWSRegion = v
	}
	if v := os.Getenv("AWS_S3_BUCKET"); v != "" {
		cfg.S3Bucket = v
	}
	if v := os.Getenv("CAPSOLVER_API_KEY"); v != "" {
		cfg.CapsolverAPIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Fatalf("Invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = id
	}
	if v := os.Getenv("PROXY_FILE"); v != "" {
		cfg.ProxyFile = v
	}
	if v := os.Getenv("SHOW_BROWSER"); v != "" {
		cfg.ShowBrowser = v == "true"
	}
	if v := os.Getenv("TEST_MODE"); v != "" {
		cfg.TestMode = v == "true"
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		cfg.DryRun = v == "true"
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	//Set default values if not set
	if cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if cfg.TailorModel == "" {
		cfg.TailorModel = "gpt-4.1"
	}
	if cfg.AnswerModel == "" {
		cfg.AnswerModel = "gpt-4o-mini"
	}
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "eu-west-1"
	}
	if cfg.IdleDelaySec == 0 {
		cfg.IdleDelaySec = 3
	}
	if cfg.ClaimOrder == "" {
		cfg.ClaimOrder = "fifo"
	}
	if cfg.TemplatePath == "" {
		cfg.TemplatePath = "templates/resume.html"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	//Validate required fields
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	return cfg
}
