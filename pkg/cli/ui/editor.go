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

// Package ui provides the user interface for the program
package ui

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dnote/notesync/pkg/cli/consts"
	"github.com/dnote/notesync/pkg/cli/context"
	"github.com/dnote/notesync/pkg/cli/log"
	"github.com/dnote/notesync/pkg/cli/utils"
	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
)

// pollInterval is how often the draft file is checked for writes while the
// editor is open
var pollInterval = 100 * time.Millisecond

// GetTmpContentPath returns the path to the temporary file containing
// content being added or edited
func GetTmpContentPath(ctx context.NotesCtx) (string, error) {
	dir := context.DraftDir(ctx.Paths)

	for i := 0; ; i++ {
		filename := fmt.Sprintf("%s_%d.%s", consts.TmpContentFileBase, i, consts.TmpContentFileExt)
		candidate := filepath.Join(dir, filename)

		ok, err := utils.FileExists(candidate)
		if err != nil {
			return "", errors.Wrapf(err, "checking if file exists at %s", candidate)
		}
		if !ok {
			return candidate, nil
		}
	}
}

// FormatDraft renders a note into the text shown in the editor. The first
// line holds the title and the rest holds the content.
func FormatDraft(title, content string) string {
	if content == "" {
		return title + "\n"
	}

	return fmt.Sprintf("%s\n\n%s\n", title, content)
}

// ParseDraft is the inverse of FormatDraft
func ParseDraft(raw string) (string, string) {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	parts := strings.SplitN(raw, "\n", 2)
	title := strings.TrimSpace(parts[0])

	var content string
	if len(parts) == 2 {
		content = strings.TrimLeft(parts[1], "\n")
		content = strings.TrimRight(content, "\n")
	}

	return title, content
}

func newEditorCmd(ctx context.NotesCtx, fpath string) (*exec.Cmd, error) {
	args := strings.Fields(ctx.Editor)
	if len(args) == 0 {
		return nil, errors.New("no editor is configured")
	}
	args = append(args, fpath)

	return exec.Command(args[0], args[1:]...), nil
}

// watchFile calls onWrite with the content of the file at fpath every time
// it is written, until the returned stop function is called
func watchFile(fpath string, onWrite func(raw string)) (func(), error) {
	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write)

	if err := w.Add(fpath); err != nil {
		return nil, errors.Wrapf(err, "watching %s", fpath)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		for {
			select {
			case <-w.Event:
				b, err := os.ReadFile(fpath)
				if err != nil {
					log.Debug("reading the draft: %s\n", err.Error())
					continue
				}
				onWrite(string(b))
			case err := <-w.Error:
				log.Debug("watching the draft: %s\n", err.Error())
			case <-w.Closed:
				return
			}
		}
	}()

	go func() {
		if err := w.Start(pollInterval); err != nil {
			log.Debug("starting the draft watcher: %s\n", err.Error())
		}
	}()
	w.Wait()

	return func() {
		w.Close()
		<-done
	}, nil
}

// GetEditorInput writes initial to fpath, launches a text editor on it and
// waits for it to exit. While the editor is open, onWrite, if not nil,
// receives the file content after every save.
func GetEditorInput(ctx context.NotesCtx, fpath, initial string, onWrite func(raw string)) (string, error) {
	if err := os.WriteFile(fpath, []byte(initial), 0644); err != nil {
		return "", errors.Wrap(err, "creating a temporary content file")
	}
	defer os.Remove(fpath)

	cmd, err := newEditorCmd(ctx, fpath)
	if err != nil {
		return "", errors.Wrap(err, "creating an editor command")
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if onWrite != nil {
		stop, err := watchFile(fpath, onWrite)
		if err != nil {
			return "", errors.Wrap(err, "watching the temporary content file")
		}
		defer stop()
	}

	err = cmd.Start()
	if err != nil {
		return "", errors.Wrapf(err, "launching an editor")
	}

	err = cmd.Wait()
	if err != nil {
		return "", errors.Wrap(err, "waiting for the editor")
	}

	b, err := os.ReadFile(fpath)
	if err != nil {
		return "", errors.Wrap(err, "reading the temporary content file")
	}

	return string(b), nil
}
