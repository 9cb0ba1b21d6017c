package config

import (
	"fmt"
	"time"
)

// WagerConfig holds everything the wager service needs
type WagerConfig struct {
	Server     ServerConfig
	Redis      RedisConfig
	Database   DatabaseConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	WebSocket  WebSocketConfig
	RepoType   string   // roster store: memory or redis
	WalletType string   // memory or db
	Notifiers  []string // any of ws, redis, kafka
	Settings   WagerSettings
	Machine    MachineConfig
}

type WagerSettings struct {
	MatchID          string
	NodeID           int64 // snowflake node for wager IDs
	FirstTeamTokens  []string
	SecondTeamTokens []string
	StartingBalance  int64  // granted when the host registers a player without a balance
	HostKey          string // shared secret for host-only routes; empty disables the check
}

// MachineConfig drives the built-in round clock used when no game host is attached
type MachineConfig struct {
	Enabled      bool
	LiveDuration time.Duration
	RestDuration time.Duration
	KillInterval time.Duration
	Simulate     bool // play the match too: revive at start, eliminate players while live
}

// LoadWagerConfig loads configuration for the wager service.
// If WAGER_CONFIG_FILE is set the file is read first.
func LoadWagerConfig() (*WagerConfig, error) {
	if path, ok := lookup(ConfigFileEnv); ok && path != "" {
		if err := LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg := &WagerConfig{
		Server: ServerConfig{
			Port:     getEnv("WAGER_HTTP_PORT", "8090"),
			Name:     getEnv("WAGER_SERVICE_NAME", "players-bet"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			LogFile:  getEnv("LOG_FILE", "logs/players_bet/monolith.log"),

			PortFallback: getEnvBool("WAGER_PORT_FALLBACK", false),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnv("REDIS_PORT", "6379"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "casino_user"),
			Password: getEnv("DB_PASSWORD", "casino_pass"),
			Name:     getEnv("DB_NAME", "casino_db"),
			Path:     getEnv("DB_PATH", "data/players_bet.db"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_WAGER_OUTCOMES", "wager.outcomes"),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", "dev-secret-key"),
			Duration: getEnvDuration("JWT_DURATION", 24*time.Hour),
		},
		WebSocket:  loadWebSocketConfig(),
		RepoType:   getEnv("WAGER_REPO_TYPE", "memory"),
		WalletType: getEnv("WAGER_WALLET_TYPE", "memory"),
		Notifiers:  getEnvList("WAGER_NOTIFIERS", []string{"ws"}),
		Settings: WagerSettings{
			MatchID:          getEnv("WAGER_MATCH_ID", "default"),
			NodeID:           int64(getEnvInt("WAGER_NODE_ID", 1)),
			FirstTeamTokens:  getEnvList("WAGER_FIRST_TEAM_TOKENS", []string{"t"}),
			SecondTeamTokens: getEnvList("WAGER_SECOND_TEAM_TOKENS", []string{"ct"}),
			StartingBalance:  int64(getEnvInt("WAGER_STARTING_BALANCE", 800)),
			HostKey:          getEnv("WAGER_HOST_KEY", ""),
		},
		Machine: MachineConfig{
			Enabled:      getEnvBool("WAGER_MACHINE_ENABLED", false),
			LiveDuration: getEnvDuration("WAGER_MACHINE_LIVE", 40*time.Second),
			RestDuration: getEnvDuration("WAGER_MACHINE_REST", 5*time.Second),
			KillInterval: getEnvDuration("WAGER_MACHINE_KILL_INTERVAL", 4*time.Second),
			Simulate:     getEnvBool("WAGER_MACHINE_SIMULATE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot start with
func (c *WagerConfig) Validate() error {
	switch c.RepoType {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown WAGER_REPO_TYPE %q", c.RepoType)
	}
	switch c.WalletType {
	case "memory", "db":
	default:
		return fmt.Errorf("unknown WAGER_WALLET_TYPE %q", c.WalletType)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	for _, n := range c.Notifiers {
		switch n {
		case "ws", "redis", "kafka":
		default:
			return fmt.Errorf("unknown notifier %q", n)
		}
	}
	if len(c.Settings.FirstTeamTokens) == 0 || len(c.Settings.SecondTeamTokens) == 0 {
		return fmt.Errorf("side tokens must not be empty")
	}
	if c.Settings.NodeID < 0 || c.Settings.NodeID > 1023 {
		return fmt.Errorf("WAGER_NODE_ID must be in [0, 1023]")
	}
	return nil
}
