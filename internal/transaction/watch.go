// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transaction

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// drainWatcher wakes waitUntilClean early when the VCS metadata
// directory changes, instead of always sleeping a full poll interval.
// It is a best-effort accelerator: the polling fallback in
// waitUntilClean still runs unconditionally, since not every
// filesystem delivers these events (see the design note on replacing
// polling with filesystem events where available).
type drainWatcher struct {
	fsw    *fsnotify.Watcher
	events chan struct{}
	done   chan struct{}
}

func newDrainWatcher(configDir string, logger *slog.Logger) (*drainWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	gitDir := filepath.Join(configDir, ".git")
	if err := fsw.Add(gitDir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &drainWatcher{
		fsw:    fsw,
		events: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.pump(logger)
	return w, nil
}

func (w *drainWatcher) pump(logger *slog.Logger) {
	defer close(w.done)
	for {
		select {
		case _, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			select {
			case w.events <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("drain watcher error", slog.Any("error", err))
		}
	}
}

func (w *drainWatcher) Close() {
	w.fsw.Close()
	<-w.done
}
