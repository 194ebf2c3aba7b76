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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ShutdownOnce(t *testing.T) {
	m := NewManager()
	assert.False(t, m.IsShuttingDown())

	assert.True(t, m.Shutdown())
	assert.False(t, m.Shutdown())
	assert.True(t, m.IsShuttingDown())
}

func TestManager_BroadcastsToAllWaiters(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-m.Wait()
		}()
	}

	m.Shutdown()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not every waiter observed the signal")
	}
}

func TestManager_Context(t *testing.T) {
	m := NewManager()
	ctx, release := m.Context(context.Background())
	defer release()

	require.NoError(t, ctx.Err())
	m.Shutdown()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled")
	}
}
