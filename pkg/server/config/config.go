/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/dnote/notesync/pkg/dirs"
	"github.com/dnote/notesync/pkg/server/log"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// AppEnvTest represents an app environment for tests.
	AppEnvTest string = "TEST"
	// DefaultDBDir is the default directory name for the server data
	DefaultDBDir = "notesync"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "server.db"
	// DefaultLogMaxSizeMB is the size at which the log file is rotated
	DefaultLogMaxSizeMB = 100
)

var (
	// DefaultDBPath is the default path to the database file
	DefaultDBPath = filepath.Join(dirs.DataHome, DefaultDBDir, DefaultDBFilename)
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrLogLevelInvalid is an error for an unknown log level
	ErrLogLevelInvalid = errors.New("Invalid log level")
	// ErrLogMaxSizeInvalid is an error for a log rotation size that is not a
	// positive number
	ErrLogMaxSizeInvalid = errors.New("Invalid log max size")
)

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

// LoadEnv loads environment variables from the given dotenv files, or from
// .env in the working directory if none is given. Variables already set in
// the environment take precedence. Missing files are ignored.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	for _, f := range filenames {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "loading %s", f)
		}
	}

	return nil
}

// Config is an application configuration
type Config struct {
	AppEnv string
	Port   string
	// DBPath is the sqlite database file. It is ignored when DBURL is set.
	DBPath string
	// DBURL is a postgres connection string
	DBURL        string
	LogLevel     string
	LogFile      string
	LogMaxSizeMB int
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv   string
	Port     string
	DBPath   string
	DBURL    string
	LogLevel string
	LogFile  string
}

// New constructs and returns a new validated config.
// Empty string params will fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	maxSize, err := strconv.Atoi(getOrEnv("", "LOG_MAX_SIZE_MB", strconv.Itoa(DefaultLogMaxSizeMB)))
	if err != nil {
		return Config{}, errors.Wrap(ErrLogMaxSizeInvalid, err.Error())
	}

	c := Config{
		AppEnv:       getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:         getOrEnv(p.Port, "PORT", "3001"),
		DBPath:       getOrEnv(p.DBPath, "DBPath", DefaultDBPath),
		DBURL:        getOrEnv(p.DBURL, "DBURL", ""),
		LogLevel:     getOrEnv(p.LogLevel, "LOG_LEVEL", log.LevelInfo),
		LogFile:      getOrEnv(p.LogFile, "LOG_FILE", ""),
		LogMaxSizeMB: maxSize,
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

// IsTest checks if the app environment is configured to be test.
func (c Config) IsTest() bool {
	return c.AppEnv == AppEnvTest
}

func validLogLevel(level string) bool {
	switch level {
	case log.LevelDebug, log.LevelInfo, log.LevelWarn, log.LevelError:
		return true
	}

	return false
}

func validate(c Config) error {
	if c.Port == "" {
		return ErrPortInvalid
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.Wrapf(ErrPortInvalid, "'%s'", c.Port)
	}

	if c.DBPath == "" && c.DBURL == "" {
		return ErrDBMissingPath
	}

	if !validLogLevel(c.LogLevel) {
		return errors.Wrapf(ErrLogLevelInvalid, "'%s'", c.LogLevel)
	}

	if c.LogFile != "" && c.LogMaxSizeMB <= 0 {
		return ErrLogMaxSizeInvalid
	}

	return nil
}
