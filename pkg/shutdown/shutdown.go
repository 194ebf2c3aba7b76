// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shutdown

import (
	"context"
	"sync"
	"sync/atomic"
)

// Manager is a one-shot shutdown signal. It fires once and may be observed
// any number of times.
type Manager struct {
	shuttingDown atomic.Bool
	once         sync.Once
	shutdownChan chan struct{}
}

// NewManager creates a new shutdown manager
func NewManager() *Manager {
	return &Manager{
		shutdownChan: make(chan struct{}),
	}
}

// IsShuttingDown returns true if the service is shutting down
func (m *Manager) IsShuttingDown() bool {
	return m.shuttingDown.Load()
}

// Shutdown fires the signal.
// Returns true if shutdown was triggered, false if already shutting down
func (m *Manager) Shutdown() bool {
	fired := false
	m.once.Do(func() {
		m.shuttingDown.Store(true)
		close(m.shutdownChan)
		fired = true
	})
	return fired
}

// Wait returns a channel closed once Shutdown has been called.
func (m *Manager) Wait() <-chan struct{} {
	return m.shutdownChan
}

// Context returns a context canceled when the signal fires, and a release
// func that must be called once the context is no longer needed.
func (m *Manager) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-m.shutdownChan:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
