package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

func String(key, def string, log *logger.Logger) string {
	val, ok := lookup(key)
	if !ok {
		debug(log, key, "Environment variable not found, using default", "default", def)
		return def
	}
	return val
}

func Int(key string, def int, log *logger.Logger) int {
	val, ok := lookup(key)
	if !ok {
		debug(log, key, "Environment variable not found, using default", "default", def)
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		debug(log, key, "Environment variable could not be parsed as int, using default", "provided", val, "default", def, "error", err)
		return def
	}
	return i
}

func Bool(key string, def bool, log *logger.Logger) bool {
	val, ok := lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		debug(log, key, "Environment variable could not be parsed as bool, using default", "provided", val, "default", def)
		return def
	}
}

func Float(key string, def float64, log *logger.Logger) float64 {
	val, ok := lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		debug(log, key, "Environment variable could not be parsed as float, using default", "provided", val, "default", def)
		return def
	}
	return f
}

func Duration(key string, def time.Duration, log *logger.Logger) time.Duration {
	val, ok := lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		debug(log, key, "Environment variable could not be parsed as duration, using default", "provided", val, "default", def.String())
		return def
	}
	return d
}

// CSV splits a comma separated value, dropping blanks. A missing or blank
// variable yields def.
func CSV(key string, def []string, log *logger.Logger) []string {
	val, ok := lookup(key)
	if !ok {
		return def
	}
	out := make([]string, 0, 4)
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func lookup(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return "", false
	}
	return val, true
}

func debug(log *logger.Logger, key, msg string, kv ...interface{}) {
	if log == nil {
		return
	}
	log.With("env_var", key).Debug(msg, kv...)
}
