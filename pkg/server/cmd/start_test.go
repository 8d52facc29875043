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
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/assert"
	"github.com/dnote/notesync/pkg/server/config"
	"github.com/dnote/notesync/pkg/server/log"
	"github.com/pkg/errors"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("PORT=4123\nLOG_LEVEL=debug\n"), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing env file"))
	}

	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("PORT")
	os.Unsetenv("LOG_LEVEL")

	fs := setupFlagSet("start", "notesync-server start", flag.ContinueOnError)
	f := bindStartFlags(fs)
	if err := fs.Parse([]string{"--envFile", envFile, "--dbPath", filepath.Join(dir, "server.db"), "--logLevel", "warn"}); err != nil {
		t.Fatal(errors.Wrap(err, "parsing flags"))
	}

	cfg, err := loadConfig(f)
	if err != nil {
		t.Fatal(errors.Wrap(err, "loading config"))
	}

	assert.Equal(t, cfg.Port, "4123", "Port mismatch")
	assert.Equal(t, cfg.LogLevel, "warn", "flag should take precedence over env")
	assert.Equal(t, cfg.DBPath, filepath.Join(dir, "server.db"), "DBPath mismatch")
}

func TestRun(t *testing.T) {
	var stderr bytes.Buffer
	restore := log.SetOutput(&stderr)
	defer restore()

	dir := t.TempDir()
	logFile := filepath.Join(dir, "server.log")
	cfg := config.Config{
		AppEnv:       config.AppEnvTest,
		Port:         "0",
		DBPath:       filepath.Join(dir, "server.db"),
		LogLevel:     log.LevelInfo,
		LogFile:      logFile,
		LogMaxSizeMB: 1,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan net.Addr, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, func(addr net.Addr) {
			addrCh <- addr
		})
	}()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatal(errors.Wrap(err, "starting server"))
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	port := addr.(*net.TCPAddr).Port
	res, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
	if err != nil {
		t.Fatal(errors.Wrap(err, "requesting health"))
	}
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading body"))
	}

	assert.Equal(t, res.StatusCode, http.StatusOK, "status mismatch")
	assert.Equal(t, string(body), "ok", "body mismatch")

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatal(errors.Wrap(err, "running server"))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	b, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading log file"))
	}
	assert.Equal(t, bytes.Contains(b, []byte(`"msg":"Notesync server starting"`)), true, "start should be logged to the file")
	assert.Equal(t, bytes.Contains(b, []byte(`"path":"/health"`)), true, "request should be logged to the file")
	assert.Equal(t, stderr.Len(), 0, "nothing should be logged to stderr")
}
