package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Instance   InstanceConfig   `yaml:"instance"`
	Collect    CollectConfig    `yaml:"collect"`
	Media      MediaConfig      `yaml:"media"`
	Classifier ClassifierConfig `yaml:"classifier"`
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
	LogLevel   string           `yaml:"log_level"`
}

type InstanceConfig struct {
	BaseURL    string `yaml:"base_url"`
	ProfileDir string `yaml:"profile_dir"`
	Headless   bool   `yaml:"headless"`
}

type CollectConfig struct {
	TermsFile      string        `yaml:"terms_file"`
	IDFile         string        `yaml:"id_file"`
	OutputDir      string        `yaml:"output_dir"`
	Interval       time.Duration `yaml:"interval"`
	MaxPerTerm     int           `yaml:"max_per_term"`
	WaitTimeout    time.Duration `yaml:"wait_timeout"`
	TargetLanguage string        `yaml:"target_language"`
	Salt           string        `yaml:"salt"`
}

type MediaConfig struct {
	DownloadDir      string        `yaml:"download_dir"`
	KeepFiles        bool          `yaml:"keep_files"`
	OCRLanguages     string        `yaml:"ocr_languages"`
	TranscriberCmd   string        `yaml:"transcriber_cmd"`
	TranscriberModel string        `yaml:"transcriber_model"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
}

type ClassifierConfig struct {
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// RabbitMQConfig configures the optional post announcer. An empty URL
// disables publishing.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Instance.BaseURL == "" {
		c.Instance.BaseURL = "https://twiiit.com"
	}
	if c.Instance.ProfileDir == "" {
		c.Instance.ProfileDir = "chrome_profile"
	}
	if c.Collect.TermsFile == "" {
		c.Collect.TermsFile = "search_terms.txt"
	}
	if c.Collect.IDFile == "" {
		c.Collect.IDFile = "collected_ids.txt"
	}
	if c.Collect.OutputDir == "" {
		c.Collect.OutputDir = "collections"
	}
	if c.Collect.Interval == 0 {
		c.Collect.Interval = 10 * time.Minute
	}
	if c.Collect.MaxPerTerm == 0 {
		c.Collect.MaxPerTerm = 20
	}
	if c.Collect.WaitTimeout == 0 {
		c.Collect.WaitTimeout = 60 * time.Second
	}
	if c.Collect.TargetLanguage == "" {
		c.Collect.TargetLanguage = "pt"
	}
	if c.Media.DownloadDir == "" {
		c.Media.DownloadDir = "media_downloads"
	}
	if c.Media.OCRLanguages == "" {
		c.Media.OCRLanguages = "por+eng"
	}
	if c.Media.TranscriberCmd == "" {
		c.Media.TranscriberCmd = "whisper-cli"
	}
	if c.Media.TranscriberModel == "" {
		c.Media.TranscriberModel = "base"
	}
	if c.Media.FetchTimeout == 0 {
		c.Media.FetchTimeout = 30 * time.Second
	}
	if c.Media.RetryDelay == 0 {
		c.Media.RetryDelay = 5 * time.Second
	}
	if c.Classifier.BaseURL == "" {
		c.Classifier.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "gemini-2.0-flash"
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = 60 * time.Second
	}
	if c.Classifier.Retry.MaxAttempts == 0 {
		c.Classifier.Retry.MaxAttempts = 3
	}
	if c.Classifier.Retry.InitialBackoff == 0 {
		c.Classifier.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Classifier.Retry.MaxBackoff == 0 {
		c.Classifier.Retry.MaxBackoff = 30 * time.Second
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "post_radar"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "posts"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "collected_posts"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// LoadSearchTerms reads one search term per line. Blank lines and lines
// starting with # are ignored. An empty resulting list is an error.
func LoadSearchTerms(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open terms file: %w", err)
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read terms file: %w", err)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("terms file %s contains no search terms", path)
	}
	return terms, nil
}
