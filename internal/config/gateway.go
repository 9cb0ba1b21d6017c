package config

import "time"

type WebSocketConfig struct {
	PingInterval   time.Duration
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func loadWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		PingInterval:   getEnvDuration("WS_PING_INTERVAL", 54*time.Second),
		WriteWait:      getEnvDuration("WS_WRITE_WAIT", 30*time.Second),
		PongWait:       getEnvDuration("WS_PONG_WAIT", 60*time.Second),
		MaxMessageSize: int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 4096)),
		SendBuffer:     getEnvInt("WS_SEND_BUFFER", 256),
	}
}
