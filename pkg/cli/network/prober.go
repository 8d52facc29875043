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

package network

import (
	"context"
	"time"

	"github.com/dnote/notesync/pkg/cli/log"
)

// Checker reports whether the remote is reachable
type Checker interface {
	Health(ctx context.Context) error
}

// Prober turns health checks against the remote into connectivity reports
type Prober struct {
	checker Checker
	monitor *Monitor
	timeout time.Duration
}

// NewProber returns a prober that reports to the given monitor. Each check is
// bounded by timeout unless it is zero.
func NewProber(checker Checker, monitor *Monitor, timeout time.Duration) *Prober {
	return &Prober{
		checker: checker,
		monitor: monitor,
		timeout: timeout,
	}
}

// Check runs a single health check without reporting it
func Check(ctx context.Context, checker Checker, timeout time.Duration) bool {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := checker.Health(ctx); err != nil {
		log.Debug("health check failed: %s\n", err.Error())
		return false
	}

	return true
}

// Probe runs a health check and reports the result to the monitor
func (p *Prober) Probe(ctx context.Context) bool {
	online := Check(ctx, p.checker, p.timeout)
	p.monitor.Report(online)

	return online
}
