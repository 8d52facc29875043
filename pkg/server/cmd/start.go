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

package cmd

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dnote/notesync/pkg/server/buildinfo"
	"github.com/dnote/notesync/pkg/server/config"
	"github.com/dnote/notesync/pkg/server/database"
	"github.com/dnote/notesync/pkg/server/log"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type startFlags struct {
	params  config.Params
	envFile string
}

func bindStartFlags(fs *flag.FlagSet) *startFlags {
	f := &startFlags{}

	fs.StringVar(&f.params.Port, "port", "", "Server port (env: PORT, default: 3001)")
	fs.StringVar(&f.params.DBPath, "dbPath", "", "Path to SQLite database file (env: DBPath, default: $XDG_DATA_HOME/notesync/server.db)")
	fs.StringVar(&f.params.DBURL, "dbUrl", "", "Postgres connection string used instead of SQLite (env: DBURL)")
	fs.StringVar(&f.params.LogLevel, "logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	fs.StringVar(&f.params.LogFile, "logFile", "", "Path to a rotated log file instead of stderr (env: LOG_FILE)")
	fs.StringVar(&f.envFile, "envFile", "", "Path to a dotenv file (default: .env)")

	return f
}

func loadConfig(f *startFlags) (config.Config, error) {
	var envFiles []string
	if f.envFile != "" {
		envFiles = append(envFiles, f.envFile)
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		return config.Config{}, errors.Wrap(err, "loading env")
	}

	return config.New(f.params)
}

func startCmd(args []string) {
	fs := setupFlagSet("start", "notesync-server start", flag.ExitOnError)
	f := bindStartFlags(fs)
	fs.Parse(args)

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, nil); err != nil {
		log.ErrorWrap(err, "server failed")
		os.Exit(1)
	}
}

// run serves the app until the context is done. ready is called with the
// listening address once the server accepts connections.
func run(ctx context.Context, cfg config.Config, ready func(net.Addr)) error {
	log.SetLevel(cfg.LogLevel)
	if cfg.LogFile != "" {
		f := log.SetFile(log.FileParams{
			Path:      cfg.LogFile,
			MaxSizeMB: cfg.LogMaxSizeMB,
		})
		defer f.Close()
	}

	a, err := initApp(cfg)
	if err != nil {
		return err
	}
	defer database.Close(a.DB)

	h, err := newHandler(&a)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		return errors.Wrapf(err, "listening on port %s", cfg.Port)
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithFields(log.Fields{
		"version": buildinfo.Version,
		"addr":    ln.Addr().String(),
	}).Info("Notesync server starting")

	if ready != nil {
		ready(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serving")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutting down")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Notesync server stopped")
	return nil
}
