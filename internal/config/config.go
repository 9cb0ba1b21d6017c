package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the optional YAML file holding defaults for any of the
// environment keys below. Real environment variables always win.
const ConfigFileEnv = "WAGER_CONFIG_FILE"

var (
	fileMu     sync.RWMutex
	fileValues = map[string]string{}
)

// LoadFile reads a flat YAML mapping of KEY: value pairs
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case []interface{}:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			values[k] = strings.Join(parts, ",")
		default:
			values[k] = fmt.Sprint(val)
		}
	}

	fileMu.Lock()
	fileValues = values
	fileMu.Unlock()
	return nil
}

func lookup(key string) (string, bool) {
	if value, ok := os.LookupEnv(key); ok {
		return value, true
	}
	fileMu.RLock()
	defer fileMu.RUnlock()
	value, ok := fileValues[key]
	return value, ok
}

func getEnv(key, fallback string) string {
	if value, ok := lookup(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := lookup(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty items
func getEnvList(key string, fallback []string) []string {
	value, ok := lookup(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
