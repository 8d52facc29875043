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

package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/dnote/notesync/pkg/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testServerBinary string

func init() {
	// Build server binary in temp directory
	tmpDir := os.TempDir()
	testServerBinary = fmt.Sprintf("%s/notesync-test-server", tmpDir)
	buildCmd := exec.Command("go", "build", "-o", testServerBinary, "../server")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		panic(fmt.Sprintf("failed to build server: %v\n%s", err, out))
	}
}

// freePort returns a port that is free at the time of the call
func freePort(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("finding a free port: %v", err)
	}
	defer ln.Close()

	return fmt.Sprintf("%d", ln.Addr().(*net.TCPAddr).Port)
}

// waitForHealth polls the health endpoint until the server responds
func waitForHealth(t *testing.T, port string) *http.Response {
	deadline := time.Now().Add(10 * time.Second)

	for {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/health", port))
		if err == nil {
			return resp
		}
		if time.Now().After(deadline) {
			t.Fatalf("failed to reach server health endpoint: %v", err)
		}

		time.Sleep(100 * time.Millisecond)
	}
}

func TestServerStart(t *testing.T) {
	tmpDB := t.TempDir() + "/test.db"
	port := freePort(t)

	// Start server in background
	cmd := exec.Command(testServerBinary, "start", "--port", port)
	cmd.Env = append(os.Environ(),
		"DBPath="+tmpDB,
		"APP_ENV=PRODUCTION",
	)

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	// Ensure cleanup
	cleanup := func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
			cmd.Wait() // Wait for process to fully exit
		}
	}
	defer cleanup()

	resp := waitForHealth(t, port)
	defer resp.Body.Close()

	assert.Equal(t, resp.StatusCode, 200, "health endpoint should return 200")

	// Kill server before checking database to avoid locks
	cleanup()

	// Verify database file was created
	if _, err := os.Stat(tmpDB); os.IsNotExist(err) {
		t.Fatalf("database file was not created at %s", tmpDB)
	}

	db, err := gorm.Open(sqlite.Open(tmpDB), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	// Verify the schema was created
	var count int64
	if err := db.Table("notes").Count(&count).Error; err != nil {
		t.Fatalf("notes table not found: %v", err)
	}
	assert.Equal(t, count, int64(0), "notes table should be empty")
}

func TestServerVersion(t *testing.T) {
	cmd := exec.Command(testServerBinary, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	outputStr := string(output)
	if !strings.Contains(outputStr, "notesync-server-") {
		t.Errorf("expected version output to contain 'notesync-server-', got: %s", outputStr)
	}
}

func TestServerRootCommand(t *testing.T) {
	cmd := exec.Command(testServerBinary)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("server command failed: %v", err)
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "Notesync server - the remote for notesync clients"), true, "output should contain description")
	assert.Equal(t, strings.Contains(outputStr, "start: Start the server"), true, "output should contain start command")
	assert.Equal(t, strings.Contains(outputStr, "version: Print the version"), true, "output should contain version command")
}

func TestServerStartHelp(t *testing.T) {
	cmd := exec.Command(testServerBinary, "start", "--help")
	output, _ := cmd.CombinedOutput()

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "notesync-server start [flags]"), true, "output should contain usage")
	assert.Equal(t, strings.Contains(outputStr, "--port"), true, "output should contain port flag")
	assert.Equal(t, strings.Contains(outputStr, "--dbPath"), true, "output should contain dbPath flag")
	assert.Equal(t, strings.Contains(outputStr, "--dbUrl"), true, "output should contain dbUrl flag")
	assert.Equal(t, strings.Contains(outputStr, "--logFile"), true, "output should contain logFile flag")
	assert.Equal(t, strings.Contains(outputStr, "--envFile"), true, "output should contain envFile flag")
}

func TestServerStartInvalidConfig(t *testing.T) {
	cmd := exec.Command(testServerBinary, "start")
	// Set an invalid port to trigger validation failure
	cmd.Env = []string{"PORT=not-a-port", "HOME=" + t.TempDir()}

	output, err := cmd.CombinedOutput()

	// Should exit with non-zero status
	if err == nil {
		t.Fatal("expected command to fail with invalid config")
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "Error:"), true, "output should contain error message")
	assert.Equal(t, strings.Contains(outputStr, "Invalid Port"), true, "output should mention invalid port")
	assert.Equal(t, strings.Contains(outputStr, "notesync-server start [flags]"), true, "output should show usage")
	assert.Equal(t, strings.Contains(outputStr, "--port"), true, "output should show flags")
}

func TestServerUnknownCommand(t *testing.T) {
	cmd := exec.Command(testServerBinary, "unknown")
	output, err := cmd.CombinedOutput()

	// Should exit with non-zero status
	if err == nil {
		t.Fatal("expected command to fail with unknown command")
	}

	outputStr := string(output)
	assert.Equal(t, strings.Contains(outputStr, "Unknown command"), true, "output should contain unknown command message")
	assert.Equal(t, strings.Contains(outputStr, "Notesync server - the remote for notesync clients"), true, "output should show help")
}
