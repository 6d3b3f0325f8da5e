package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DB      *Postgres `yaml:"database"`
	RMQ     *RabbitMQ `yaml:"rabbitmq"`
	Billing *Billing  `yaml:"billing"`
}

type Postgres struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQ struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	VHost    string `yaml:"vhost"`
}

type Billing struct {
	TaxPercentage float64 `yaml:"tax_percentage"`
	RecycleBinDir string  `yaml:"recycle_bin_dir"`
	PrinterURL    string  `yaml:"printer_url"`
}

func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Billing == nil {
		cfg.Billing = defaultBilling()
	}
	return cfg, nil
}

// LoadDotEnv builds a config from environment variables with local
// development defaults, for running without a yaml file.
func LoadDotEnv() *Config {
	return &Config{
		DB: &Postgres{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "admin"),
			Password: getEnv("POSTGRES_PASSWORD", "admin"),
			Database: getEnv("POSTGRES_DBNAME", "restobill_db"),
		},
		RMQ: &RabbitMQ{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT_APP", "5672"),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", ""),
		},
		Billing: defaultBilling(),
	}
}

func defaultBilling() *Billing {
	return &Billing{
		TaxPercentage: 5.0,
		RecycleBinDir: getEnv("RECYCLE_BIN_DIR", "./recycle-bin"),
		PrinterURL:    getEnv("PRINTER_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
