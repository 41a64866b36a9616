package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the restaurant core
type Config struct {
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Security SecurityConfig
	VNPay    VNPayConfig
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// SecurityConfig holds the shared secrets for signed artifacts
type SecurityConfig struct {
	QRSecret     string
	QRTTLMinutes int
}

// VNPayConfig holds the payment gateway credentials and endpoints
type VNPayConfig struct {
	TmnCode   string
	Secret    string
	URL       string
	ReturnURL string
	IpnURL    string
}

// Load reads configuration from a YAML file
func Load(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	config := &Config{}
	scanner := bufio.NewScanner(file)

	var currentSection string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Check for section headers
		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			currentSection = strings.TrimSuffix(line, ":")
			continue
		}

		// Parse key-value pairs
		if strings.Contains(line, ":") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if err := config.setValue(currentSection, key, value); err != nil {
				return nil, fmt.Errorf("failed to set config value %s.%s: %w", currentSection, key, err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.applyEnvOverrides()

	return config, nil
}

// applyEnvOverrides lets secrets come from the environment instead of
// the config file. A set variable wins over the file value.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HOABAN_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("HOABAN_RABBITMQ_PASSWORD"); v != "" {
		c.RabbitMQ.Password = v
	}
	if v := os.Getenv("HOABAN_QR_SECRET"); v != "" {
		c.Security.QRSecret = v
	}
	if v := os.Getenv("HOABAN_VNPAY_SECRET"); v != "" {
		c.VNPay.Secret = v
	}
}

// setValue sets a configuration value based on section and key
func (c *Config) setValue(section, key, value string) error {
	switch section {
	case "database":
		return c.setDatabaseValue(key, value)
	case "rabbitmq":
		return c.setRabbitMQValue(key, value)
	case "security":
		return c.setSecurityValue(key, value)
	case "vnpay":
		return c.setVNPayValue(key, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func (c *Config) setDatabaseValue(key, value string) error {
	switch key {
	case "host":
		c.Database.Host = value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port value: %w", err)
		}
		c.Database.Port = port
	case "user":
		c.Database.User = value
	case "password":
		c.Database.Password = value
	case "database":
		c.Database.Database = value
	default:
		return fmt.Errorf("unknown database key: %s", key)
	}
	return nil
}

func (c *Config) setRabbitMQValue(key, value string) error {
	switch key {
	case "host":
		c.RabbitMQ.Host = value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port value: %w", err)
		}
		c.RabbitMQ.Port = port
	case "user":
		c.RabbitMQ.User = value
	case "password":
		c.RabbitMQ.Password = value
	default:
		return fmt.Errorf("unknown rabbitmq key: %s", key)
	}
	return nil
}

func (c *Config) setSecurityValue(key, value string) error {
	switch key {
	case "qr_secret":
		c.Security.QRSecret = value
	case "qr_ttl_minutes":
		ttl, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid qr_ttl_minutes value: %w", err)
		}
		c.Security.QRTTLMinutes = ttl
	default:
		return fmt.Errorf("unknown security key: %s", key)
	}
	return nil
}

func (c *Config) setVNPayValue(key, value string) error {
	switch key {
	case "tmn_code":
		c.VNPay.TmnCode = value
	case "secret":
		c.VNPay.Secret = value
	case "url":
		c.VNPay.URL = value
	case "return_url":
		c.VNPay.ReturnURL = value
	case "ipn_url":
		c.VNPay.IpnURL = value
	default:
		return fmt.Errorf("unknown vnpay key: %s", key)
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
