package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
)

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set are not overridden. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return guarderrors.WrapError(err, guarderrors.ErrorCategoryConfiguration, "config", "LoadEnvFile")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, guarderrors.NewConfigurationError("config", "ApplyEnv", key+" is not an integer: "+val)
	}
	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, guarderrors.NewConfigurationError("config", "ApplyEnv", key+" is not a number: "+val)
	}
	return f, nil
}
