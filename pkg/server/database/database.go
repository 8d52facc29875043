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

package database

import (
	"os"
	"path/filepath"

	"github.com/dnote/notesync/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Params configures the database connection. URL selects postgres and takes
// precedence over Path, which selects sqlite.
type Params struct {
	Path     string
	URL      string
	LogLevel string
}

// getDBLogLevel maps the server log level to the gorm log level. Queries are
// only logged at debug.
func getDBLogLevel(level string) logger.LogLevel {
	switch level {
	case log.LevelDebug:
		return logger.Info
	case log.LevelWarn:
		return logger.Warn
	case log.LevelError:
		return logger.Error
	default:
		return logger.Silent
	}
}

// InitSchema migrates database schema to reflect the latest model definition
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Note{},
		&System{},
	); err != nil {
		return errors.Wrap(err, "migrating the schema")
	}

	if err := db.Where(System{Key: SystemMaxUSN}).FirstOrCreate(&System{}).Error; err != nil {
		return errors.Wrap(err, "initializing max_usn")
	}

	return nil
}

func dialector(p Params) (gorm.Dialector, error) {
	if p.URL != "" {
		return postgres.Open(p.URL), nil
	}

	// Create directory if it doesn't exist
	if dir := filepath.Dir(p.Path); p.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating database directory at %s", dir)
		}
	}

	return sqlite.Open(p.Path), nil
}

// Open initializes the database connection and migrates the schema
func Open(p Params) (*gorm.DB, error) {
	d, err := dialector(p)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(getDBLogLevel(p.LogLevel)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database connection")
	}

	if err := InitSchema(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "getting the connection pool")
	}

	return sqlDB.Close()
}
