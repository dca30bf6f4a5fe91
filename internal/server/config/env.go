package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv loads the given dotenv files into the process environment
// (missing files are skipped, already-set variables win) and then overlays
// every MYMEE_* variable onto config. Unset variables keep their current
// values. Malformed values panic, like the other loaders.
func parseEnv(config *Config, dotenvFiles ...string) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
