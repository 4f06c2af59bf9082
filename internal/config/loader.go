package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort  int
	SQLiteDSN string
	// APIKeys maps each accepted Authorization key to the principal it
	// authenticates, parsed from SCHEDULER_API_KEYS.
	APIKeys map[string]APIKeyPrincipal
}

// APIKeyPrincipal describes the caller an API key authenticates as.
type APIKeyPrincipal struct {
	UserID  string
	IsAdmin bool
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values and reporting localized error messages for missing entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:  8080,
		SQLiteDSN: "scheduler.db",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if keysValue := strings.TrimSpace(os.Getenv("SCHEDULER_API_KEYS")); keysValue == "" {
		missing = append(missing, "SCHEDULER_API_KEYS")
	} else {
		keys, err := ParseAPIKeys(keysValue)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_API_KEYS")
		} else {
			cfg.APIKeys = keys
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// ParseAPIKeys parses a comma-separated list of key:user_id[:admin] entries
// into the APIKeys map. The key is the literal value callers present in the
// Authorization header.
func ParseAPIKeys(value string) (map[string]APIKeyPrincipal, error) {
	keys := make(map[string]APIKeyPrincipal)
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("config: malformed API key entry %q", entry)
		}
		principal := APIKeyPrincipal{UserID: parts[1]}
		if len(parts) == 3 {
			if parts[2] != "admin" {
				return nil, fmt.Errorf("config: malformed API key entry %q", entry)
			}
			principal.IsAdmin = true
		}
		if _, dup := keys[parts[0]]; dup {
			return nil, fmt.Errorf("config: duplicate API key %q", parts[0])
		}
		keys[parts[0]] = principal
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("config: no API key entries")
	}
	return keys, nil
}
