package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load fills spec from the environment using envconfig tags. A .env file in
// the working directory (or the file named by ENV_FILE) is applied first;
// variables already set in the process environment win.
func Load(prefix string, spec any) error {
	file := os.Getenv("ENV_FILE")
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", file, err)
	}
	if err := envconfig.Process(prefix, spec); err != nil {
		return fmt.Errorf("process env: %w", err)
	}
	return nil
}
