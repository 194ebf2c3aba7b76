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

package messenger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/courier/pkg/chanx"
	"github.com/go-arcade/courier/pkg/log"
	"github.com/go-arcade/courier/pkg/metrics"
	"github.com/go-arcade/courier/pkg/safe"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

const (
	// DefaultCapacity is the per-receiver backlog of a live subscription.
	DefaultCapacity = 100
	// DefaultGCInterval is how often idle entries are removed.
	DefaultGCInterval = 5 * time.Second

	gcJobName = "subscription_gc"
)

// RegistryConf tunes the subscription registry.
type RegistryConf struct {
	Capacity int
	// GCInterval is in seconds.
	GCInterval int `mapstructure:"gcInterval"`
}

// Registry fans new messages out to the live subscribers of their sender and
// recipient. Each user has one entry holding a set of receivers; an entry is
// created on first subscribe and removed by a periodic sweep once it has no
// receivers left.
//
// A receiver whose buffer is full when a message is published is
// disconnected: its channel is closed and the client is expected to
// resubscribe from the last message it saw.
type Registry struct {
	fetcher  BacklogFetcher
	capacity int

	mu      sync.RWMutex
	entries map[UserID]*entry

	cron *cron.Cron
}

type entry struct {
	mu   sync.Mutex
	taps map[chan Message]struct{}
}

// NewRegistry creates a registry and starts its sweep.
func NewRegistry(fetcher BacklogFetcher, conf RegistryConf) (*Registry, error) {
	capacity := conf.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	interval := DefaultGCInterval
	if conf.GCInterval > 0 {
		interval = time.Duration(conf.GCInterval) * time.Second
	}

	r := &Registry{
		fetcher:  fetcher,
		capacity: capacity,
		entries:  make(map[UserID]*entry),
		cron:     cron.New(),
	}
	if err := r.cron.AddFunc(fmt.Sprintf("@every %s", interval), r.collect); err != nil {
		return nil, errors.Wrap(err, "schedule subscription gc")
	}
	r.cron.Start()
	return r, nil
}

// Close stops the sweep. Live subscriptions are unaffected.
func (r *Registry) Close() {
	r.cron.Stop()
}

// Subscribe returns a channel of the messages user sends or receives from now
// on. With a resume point the channel first replays everything after it, then
// continues live without repeating any replayed message.
//
// The subscription lasts until ctx is done; the returned channel is then
// closed. It is also closed early if the receiver falls behind.
func (r *Registry) Subscribe(ctx context.Context, user UserID, resume *MessageID) (<-chan Message, error) {
	e, tap := r.attach(user)
	safe.Go(func() {
		<-ctx.Done()
		e.remove(tap)
	})

	if resume == nil {
		return tap, nil
	}

	// the tap is already buffering, so nothing published from here on is missed
	backlog, err := r.fetcher.FetchUsersMessagesSince(ctx, user, *resume)
	if err != nil {
		e.remove(tap)
		return nil, errors.Wrapf(err, "fetch messages of %s since %s", user, resume)
	}

	out := make(chan Message, r.capacity+len(backlog))
	replayed := make(map[MessageID]struct{}, len(backlog))
	for _, m := range backlog {
		replayed[m.ID] = struct{}{}
		out <- m
	}

	live := chanx.Pipe(ctx, tap, func(m Message) (Message, bool) {
		if _, ok := replayed[m.ID]; ok {
			delete(replayed, m.ID)
			return m, false
		}
		return m, true
	})
	chanx.Redirect(ctx, live, out)

	return out, nil
}

// attach adds a receiver to user's entry, creating the entry if needed. The
// receiver is added while a registry lock is held so a sweep cannot drop the
// entry in between.
func (r *Registry) attach(user UserID) (*entry, chan Message) {
	tap := make(chan Message, r.capacity)

	r.mu.RLock()
	e, ok := r.entries[user]
	if ok {
		e.add(tap)
	}
	r.mu.RUnlock()
	if ok {
		return e, tap
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok = r.entries[user]
	if !ok {
		e = &entry{taps: make(map[chan Message]struct{})}
		r.entries[user] = e
		metrics.SubscriptionEntries.Set(float64(len(r.entries)))
	}
	e.add(tap)
	return e, tap
}

// Publish delivers message to the live subscribers of its sender and, when
// different, its recipient. It never blocks.
func (r *Registry) Publish(message *Message) {
	metrics.MessagesPublishedTotal.Inc()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[message.From]; ok {
		e.broadcast(message.From, *message)
	}
	if message.To == message.From {
		return
	}
	if e, ok := r.entries[message.To]; ok {
		e.broadcast(message.To, *message)
	}
}

// collect removes entries without receivers.
func (r *Registry) collect() {
	start := time.Now()

	r.mu.Lock()
	removed := 0
	for user, e := range r.entries {
		if e.receivers() == 0 {
			delete(r.entries, user)
			removed++
		}
	}
	remaining := len(r.entries)
	r.mu.Unlock()

	metrics.SubscriptionEntries.Set(float64(remaining))
	metrics.SubscriptionEntriesCollectedTotal.Add(float64(removed))
	metrics.RecordCronJobRun(gcJobName, time.Since(start), nil)
	if removed > 0 {
		log.Debugw("subscription entries collected", "removed", removed, "remaining", remaining)
	}
}

// receivers returns the receiver count of user's entry, or -1 without one.
func (r *Registry) receivers(user UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[user]
	if !ok {
		return -1
	}
	return e.receivers()
}

func (e *entry) add(tap chan Message) {
	e.mu.Lock()
	e.taps[tap] = struct{}{}
	e.mu.Unlock()
}

// remove detaches and closes tap. Removing twice is a no-op.
func (e *entry) remove(tap chan Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.taps[tap]; ok {
		delete(e.taps, tap)
		close(tap)
	}
}

func (e *entry) receivers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.taps)
}

func (e *entry) broadcast(user UserID, m Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for tap := range e.taps {
		select {
		case tap <- m:
		default:
			delete(e.taps, tap)
			close(tap)
			metrics.SubscribersLaggedTotal.Inc()
			log.Warnw("subscriber fell behind, disconnecting",
				"user", user,
				"capacity", cap(tap),
			)
		}
	}
}
