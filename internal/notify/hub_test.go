package notify

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPublishReachesOnlyTheUser(t *testing.T) {
	h := NewHub(nil)
	alice, bob := uuid.New(), uuid.New()

	aliceCh, unsubA := h.Subscribe(alice)
	defer unsubA()
	bobCh, unsubB := h.Subscribe(bob)
	defer unsubB()

	n := h.Publish(Event{UserID: alice, Type: EventCropLogReminder, Data: "wheat"})
	assert.Equal(t, 1, n)

	select {
	case ev := <-aliceCh:
		assert.Equal(t, EventCropLogReminder, ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	default:
		t.Fatal("expected an event for alice")
	}
	select {
	case <-bobCh:
		t.Fatal("bob should not receive alice's event")
	default:
	}
}

func TestUnsubscribeClosesAndForgets(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := NewHub(nil)
	user := uuid.New()
	ch, unsub := h.Subscribe(user)
	assert.Equal(t, 1, h.ClientCount(user))

	unsub()
	unsub()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.ClientCount(user))
	assert.Equal(t, 0, h.Publish(Event{UserID: user, Type: EventPing}))
}

func TestFullClientDropsEvents(t *testing.T) {
	h := NewHub(nil)
	h.buffer = 1
	user := uuid.New()
	_, unsub := h.Subscribe(user)
	defer unsub()

	assert.Equal(t, 1, h.Publish(Event{UserID: user, Type: EventPing}))
	assert.Equal(t, 0, h.Publish(Event{UserID: user, Type: EventPing}))
}

func TestStreamWritesServerSentEvents(t *testing.T) {
	h := NewHub(nil)
	user := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Stream(w, r, user)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return h.ClientCount(user) == 1 }, 2*time.Second, 10*time.Millisecond)
	h.Notify(user, EventCropLogReminder, map[string]string{"crop": "maize"})

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: crop_log_reminder\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: "))
	assert.Contains(t, line, `"crop":"maize"`)

	cancel()
	require.Eventually(t, func() bool { return h.ClientCount(user) == 0 }, 2*time.Second, 10*time.Millisecond)
}
