package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// dotenvPath is the optional .env file loaded before reading the environment.
var dotenvPath = ".env"

// parseEnv loads .env (if present) into the process environment and then
// overlays every variable named in the Config env tags. Variables that are
// not set leave the current value untouched. Malformed values panic, the same
// as malformed JSON or flags.
func parseEnv(config *Config) {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
