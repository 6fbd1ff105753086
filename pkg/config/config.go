package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable read by GetEnv and friends.
const EnvPrefix = "DUCKTAG_"

// Load reads environment variables from the given .env files.
// Missing files are skipped; variables already set in the environment win.
func Load(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, filename := range filenames {
		if err := godotenv.Load(filename); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug("No env file at %s", filename)
				continue
			}
			return fmt.Errorf("failed to load env file %s: %v", filename, err)
		}
		log.Debug("Loaded environment variables from %s", filename)
	}
	return nil
}

// GetEnv returns the value of DUCKTAG_<key>, or fallback when unset.
func GetEnv(key string, fallback string) string {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
		return v
	}
	return fallback
}

// GetEnvInt returns DUCKTAG_<key> parsed as an int, or fallback when unset.
func GetEnvInt(key string, fallback int) (int, error) {
	v := GetEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("failed to parse %s%s: %v", EnvPrefix, key, err)
	}
	return i, nil
}

// GetEnvDuration returns DUCKTAG_<key> parsed as a time.Duration, or fallback when unset.
func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := GetEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("failed to parse %s%s: %v", EnvPrefix, key, err)
	}
	return d, nil
}

// GetEnvBool returns DUCKTAG_<key> parsed as a bool, or fallback when unset.
func GetEnvBool(key string, fallback bool) (bool, error) {
	v := GetEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("failed to parse %s%s: %v", EnvPrefix, key, err)
	}
	return b, nil
}
