package config

import (
	"fmt"
	"time"
)

// --- Shared Configs ---

type ServerConfig struct {
	Port     string // HTTP port for the wager API and websocket
	Name     string // Service name, added to every log line
	LogLevel string // debug, info, warn, error
	LogFile  string

	PortFallback bool // bind a random port when Port is taken
}

type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Path     string // sqlite file path
}

// DSN returns the postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

type RedisConfig struct {
	Host string
	Port string
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type JWTConfig struct {
	Secret   string
	Duration time.Duration
}
