package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read at startup when SKYMOCK_ENV_FILE is not set.
const DefaultEnvFile = ".env"

// LoadEnvFile copies the variables of a dotenv file into the process
// environment before Load runs. Variables already set win. A missing default
// file is not an error; a missing explicit one is.
func LoadEnvFile() (string, error) {
	path := os.Getenv("SKYMOCK_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return path, err
	}
	return path, nil
}
