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

package messenger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-arcade/courier/internal/messenger"
	"github.com/go-arcade/courier/internal/store/mock"
	"github.com/go-arcade/courier/internal/store/storetest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

// the sweep is run by hand; the scheduled one never fires during a test
var testConf = messenger.RegistryConf{Capacity: 100, GCInterval: 3600}

func newRegistry(t *testing.T, fetcher messenger.BacklogFetcher, conf messenger.RegistryConf) *messenger.Registry {
	t.Helper()
	r, err := messenger.NewRegistry(fetcher, conf)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func seeded(t *testing.T) (*mock.Store, *storetest.Fixture) {
	t.Helper()
	s := mock.New()
	return s, storetest.Seed(t, s)
}

func receive(t *testing.T, ch <-chan messenger.Message) messenger.Message {
	t.Helper()
	select {
	case m, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return m
	case <-time.After(waitFor):
		require.FailNow(t, "no message received")
	}
	return messenger.Message{}
}

func receiveN(t *testing.T, ch <-chan messenger.Message, n int) []messenger.Message {
	t.Helper()
	messages := make([]messenger.Message, 0, n)
	for range n {
		messages = append(messages, receive(t, ch))
	}
	return messages
}

func assertSilent(t *testing.T, ch <-chan messenger.Message) {
	t.Helper()
	select {
	case m, ok := <-ch:
		if ok {
			assert.Failf(t, "unexpected message", "%s", m.ID)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func assertClosed(t *testing.T, ch <-chan messenger.Message) {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			require.FailNow(t, "subscription not closed")
		}
	}
}

func TestPublishReachesSenderAndRecipient(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, testConf)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u1, err := r.Subscribe(ctx, f.U1.ID, nil)
	require.NoError(t, err)
	u2, err := r.Subscribe(ctx, f.U2.ID, nil)
	require.NoError(t, err)
	u3, err := r.Subscribe(ctx, f.U3.ID, nil)
	require.NoError(t, err)

	m := messenger.NewMessage(f.U1.ID, f.U2.ID, "hi", time.Now())
	r.Publish(m)

	assert.Equal(t, m.ID, receive(t, u1).ID)
	assert.Equal(t, m.ID, receive(t, u2).ID)
	assertSilent(t, u3)
}

func TestPublishToSelfIsDeliveredOnce(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, testConf)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u1, err := r.Subscribe(ctx, f.U1.ID, nil)
	require.NoError(t, err)

	m := messenger.NewMessage(f.U1.ID, f.U1.ID, "note to self", time.Now())
	r.Publish(m)

	assert.Equal(t, m.ID, receive(t, u1).ID)
	assertSilent(t, u1)
}

func TestEverySubscriptionOfAUserGetsTheMessage(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, testConf)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := r.Subscribe(ctx, f.U2.ID, nil)
	require.NoError(t, err)
	second, err := r.Subscribe(ctx, f.U2.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Receivers(f.U2.ID))

	m := messenger.NewMessage(f.U1.ID, f.U2.ID, "hi", time.Now())
	r.Publish(m)

	assert.Equal(t, m.ID, receive(t, first).ID)
	assert.Equal(t, m.ID, receive(t, second).ID)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, testConf)

	assert.NotPanics(t, func() {
		r.Publish(messenger.NewMessage(f.U1.ID, f.U2.ID, "nobody listens", time.Now()))
	})
	assert.Equal(t, -1, r.Receivers(f.U1.ID))
	assert.Equal(t, -1, r.Receivers(f.U2.ID))
}

func TestResumeReplaysBacklogThenLive(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, testConf)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resume := f.Message(3).ID
	ch, err := r.Subscribe(ctx, f.U1.ID, &resume)
	require.NoError(t, err)

	assert.Equal(t, f.IDs(4, 5, 8), storetest.IDsOf(receiveN(t, ch, 3)))

	// a replayed message published again reaches the subscriber once
	replayed := f.Message(5)
	r.Publish(&replayed)
	live := messenger.NewMessage(f.U2.ID, f.U1.ID, "live", time.Now())
	r.Publish(live)

	assert.Equal(t, live.ID, receive(t, ch).ID)
	assertSilent(t, ch)
}

func TestResumeFromLatestMessage(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, testConf)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resume := f.Message(8).ID
	ch, err := r.Subscribe(ctx, f.U1.ID, &resume)
	require.NoError(t, err)
	assertSilent(t, ch)

	live := messenger.NewMessage(f.U1.ID, f.U3.ID, "live", time.Now())
	r.Publish(live)
	assert.Equal(t, live.ID, receive(t, ch).ID)
}

func TestResumeFromUnknownMessage(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, testConf)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	unknown := messenger.NewMessage(f.U1.ID, f.U2.ID, "never stored", time.Now()).ID
	ch, err := r.Subscribe(ctx, f.U1.ID, &unknown)
	require.NoError(t, err)
	assertSilent(t, ch)
}

// racingFetcher stores and publishes messages while the backlog query is in
// flight, so they reach the subscriber through both the backlog and the tap.
type racingFetcher struct {
	store    *mock.Store
	registry *messenger.Registry
	from, to messenger.UserID
	count    int
	sent     []messenger.MessageID
}

func (f *racingFetcher) FetchUsersMessagesSince(ctx context.Context, user messenger.UserID, since messenger.MessageID) ([]messenger.Message, error) {
	for i := range f.count {
		m := messenger.NewMessage(f.from, f.to, fmt.Sprintf("racing %d", i), time.Now())
		if err := f.store.CreateMessage(ctx, m); err != nil {
			return nil, err
		}
		f.registry.Publish(m)
		f.sent = append(f.sent, m.ID)
	}
	return f.store.FetchUsersMessagesSince(ctx, user, since)
}

func TestResumeDeduplicatesSendsRacingTheFetch(t *testing.T) {
	s, f := seeded(t)
	fetcher := &racingFetcher{store: s, from: f.U2.ID, to: f.U1.ID, count: 20}
	r := newRegistry(t, fetcher, testConf)
	fetcher.registry = r
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resume := f.Message(3).ID
	ch, err := r.Subscribe(ctx, f.U1.ID, &resume)
	require.NoError(t, err)

	want := append(f.IDs(4, 5, 8), fetcher.sent...)
	got := receiveN(t, ch, len(want))
	assert.Equal(t, want, storetest.IDsOf(got))
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Before(&got[i]), "storage order at %d", i)
	}
	assertSilent(t, ch)
}

type failingFetcher struct{}

func (failingFetcher) FetchUsersMessagesSince(context.Context, messenger.UserID, messenger.MessageID) ([]messenger.Message, error) {
	return nil, errors.New("database is down")
}

func TestResumeFetchErrorDetaches(t *testing.T) {
	r := newRegistry(t, failingFetcher{}, testConf)
	user := messenger.UserID{1}
	resume := messenger.MessageID{1}

	ch, err := r.Subscribe(context.Background(), user, &resume)
	require.Error(t, err)
	assert.Nil(t, ch)
	assert.Equal(t, 0, r.Receivers(user))
}

func TestLaggingSubscriberIsDisconnected(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, messenger.RegistryConf{Capacity: 2, GCInterval: 3600})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slow, err := r.Subscribe(ctx, f.U2.ID, nil)
	require.NoError(t, err)

	published := make([]*messenger.Message, 0, 3)
	for range 3 {
		m := messenger.NewMessage(f.U1.ID, f.U2.ID, "flood", time.Now())
		published = append(published, m)
		r.Publish(m)
	}

	// the buffered messages are still readable, then the channel is closed
	assert.Equal(t, published[0].ID, receive(t, slow).ID)
	assert.Equal(t, published[1].ID, receive(t, slow).ID)
	assertClosed(t, slow)
	assert.Equal(t, 0, r.Receivers(f.U2.ID))

	// others keep receiving
	fresh, err := r.Subscribe(ctx, f.U2.ID, nil)
	require.NoError(t, err)
	m := messenger.NewMessage(f.U1.ID, f.U2.ID, "after", time.Now())
	r.Publish(m)
	assert.Equal(t, m.ID, receive(t, fresh).ID)
}

func TestCancelClosesAndDetaches(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, testConf)
	ctx, cancel := context.WithCancel(context.Background())

	plain, err := r.Subscribe(ctx, f.U1.ID, nil)
	require.NoError(t, err)
	resume := f.Message(1).ID
	resumed, err := r.Subscribe(ctx, f.U1.ID, &resume)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Receivers(f.U1.ID))

	cancel()

	assertClosed(t, plain)
	assertClosed(t, resumed)
	assert.Eventually(t, func() bool {
		return r.Receivers(f.U1.ID) == 0
	}, waitFor, 10*time.Millisecond)
}

func TestCollectRemovesIdleEntries(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, testConf)

	idleCtx, cancelIdle := context.WithCancel(context.Background())
	_, err := r.Subscribe(idleCtx, f.U1.ID, nil)
	require.NoError(t, err)
	busyCtx, cancelBusy := context.WithCancel(context.Background())
	defer cancelBusy()
	_, err = r.Subscribe(busyCtx, f.U2.ID, nil)
	require.NoError(t, err)

	cancelIdle()
	require.Eventually(t, func() bool {
		return r.Receivers(f.U1.ID) == 0
	}, waitFor, 10*time.Millisecond)

	r.Collect()

	assert.Equal(t, -1, r.Receivers(f.U1.ID))
	assert.Equal(t, 1, r.Receivers(f.U2.ID))

	r.Collect()
	assert.Equal(t, -1, r.Receivers(f.U1.ID), "second sweep changes nothing")
	assert.Equal(t, 1, r.Receivers(f.U2.ID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	again, err := r.Subscribe(ctx, f.U1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Receivers(f.U1.ID))

	m := messenger.NewMessage(f.U2.ID, f.U1.ID, "after sweep", time.Now())
	r.Publish(m)
	assert.Equal(t, m.ID, receive(t, again).ID)
}

func TestScheduledCollect(t *testing.T) {
	s, f := seeded(t)
	r := newRegistry(t, s, messenger.RegistryConf{GCInterval: 1})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := r.Subscribe(ctx, f.U1.ID, nil)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		return r.Receivers(f.U1.ID) == -1
	}, 5*time.Second, 50*time.Millisecond)
}
