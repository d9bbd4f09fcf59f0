package sse

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-reader/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(cancel)
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case evt := <-c.EventChan:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case evt := <-c.EventChan:
		t.Fatalf("unexpected event %s", evt.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func testProfile(userID string) *domain.ReaderProfile {
	p := domain.NewReaderProfile(userID)
	p.Revision = "rev-1"
	p.Settings.SetNightMode(true)
	return p
}

func TestManager_UserEventsAreFiltered(t *testing.T) {
	m := startManager(t)

	alice, err := m.Connect("alice")
	require.NoError(t, err)
	bob, err := m.Connect("bob")
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Emit(NewReaderSettingsUpdatedEvent(testProfile("alice"), SourceUpdate, []string{domain.FieldNightMode}))

	evt := receive(t, alice)
	assert.Equal(t, EventReaderSettingsUpdated, evt.Type)
	data, ok := evt.Data.(ReaderSettingsUpdatedEventData)
	require.True(t, ok)
	assert.Equal(t, []string{domain.FieldNightMode}, data.ChangedFields)
	assert.Equal(t, "rev-1", data.Revision)

	assertNoEvent(t, bob)
}

func TestManager_BroadcastReachesEveryone(t *testing.T) {
	m := startManager(t)

	alice, err := m.Connect("alice")
	require.NoError(t, err)
	bob, err := m.Connect("bob")
	require.NoError(t, err)

	m.Emit(NewReaderDefaultsChangedEvent(domain.NewDefaults()))

	assert.Equal(t, EventReaderDefaultsChanged, receive(t, alice).Type)
	assert.Equal(t, EventReaderDefaultsChanged, receive(t, bob).Type)
}

func TestManager_IgnoresNonEvents(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect("alice")
	require.NoError(t, err)

	m.Emit("not an event")

	assertNoEvent(t, c)
}

func TestManager_Disconnect(t *testing.T) {
	m := NewManager(testLogger())

	c, err := m.Connect("alice")
	require.NoError(t, err)

	m.Disconnect(c.ID)
	m.Disconnect(c.ID) // second call is a no-op

	assert.Equal(t, 0, m.ClientCount())
	_, open := <-c.Done
	assert.False(t, open)
}

type countingDrops struct{ n atomic.Int32 }

func (c *countingDrops) EventDropped(string) { c.n.Add(1) }

func TestManager_SlowClientDropsAreRecorded(t *testing.T) {
	m := NewManager(testLogger())
	drops := &countingDrops{}
	m.SetDropRecorder(drops)

	c, err := m.Connect("alice")
	require.NoError(t, err)

	for range cap(c.EventChan) + 3 {
		m.broadcast(NewReaderSettingsResetEvent("alice", "rev-1"))
	}

	assert.Equal(t, int32(3), drops.n.Load())
}

func TestManager_ShutdownDropsLaterEvents(t *testing.T) {
	m := startManager(t)
	c, err := m.Connect("alice")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	m.Emit(NewReaderSettingsResetEvent("alice", "rev-1")) // must not panic
	assert.Equal(t, 0, m.ClientCount())

	_, open := <-c.Done
	assert.False(t, open)
}

func TestHandler_StreamsOwnEvents(t *testing.T) {
	m := startManager(t)

	type ctxKey struct{}
	handler := NewHandler(m, func(ctx context.Context) string {
		v, _ := ctx.Value(ctxKey{}).(string)
		return v
	}, testLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user")
		handler.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?user=alice", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEventName := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if name, ok := strings.CutPrefix(line, "event: "); ok {
				return strings.TrimSpace(name)
			}
		}
	}

	assert.Equal(t, "connected", readEventName())

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	m.Emit(NewReaderSettingsResetEvent("bob", "rev-9"))
	m.Emit(NewReaderSettingsResetEvent("alice", "rev-1"))

	assert.Equal(t, string(EventReaderSettingsReset), readEventName())
}

func TestHandler_RequiresUser(t *testing.T) {
	m := NewManager(testLogger())
	handler := NewHandler(m, func(context.Context) string { return "" }, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t,
		`{"v":1,"success":false,"error":"Authentication required","code":"UNAUTHORIZED","message":"Authentication required"}`,
		rec.Body.String())
	assert.Equal(t, 0, m.ClientCount())
}

func TestHandler_RejectsNonGet(t *testing.T) {
	m := NewManager(testLogger())
	handler := NewHandler(m, func(context.Context) string { return "alice" }, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stream", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Equal(t, 0, m.ClientCount())
}
