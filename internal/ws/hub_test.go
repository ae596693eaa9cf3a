package ws

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavelength-ai/chat-insights/pkg/logger"
)

// fakeConn records payloads and optionally fails every write.
type fakeConn struct {
	mu       sync.Mutex
	payloads []any
	fail     bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.payloads = append(f.payloads, v)
	return nil
}

func (f *fakeConn) received() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.payloads...)
}

func TestHub_SubscribeUnsubscribeLifecycle(t *testing.T) {
	h := NewHub(logger.NewNop())
	a, b := &fakeConn{}, &fakeConn{}

	assert.Zero(t, h.Subscribers("c1"))

	h.Subscribe(a, "c1")
	h.Subscribe(b, "c1")
	assert.Equal(t, 2, h.Subscribers("c1"))
	assert.Zero(t, h.Subscribers("c2"))

	h.Unsubscribe(a, "c1")
	assert.Equal(t, 1, h.Subscribers("c1"))

	h.Unsubscribe(b, "c1")
	assert.Zero(t, h.Subscribers("c1"))

	// Unsubscribing an unknown conn is a no-op.
	h.Unsubscribe(a, "c1")
	h.Unsubscribe(a, "never-seen")
}

func TestHub_BroadcastReachesOnlyConversationSubscribers(t *testing.T) {
	h := NewHub(logger.NewNop())
	a, b, other := &fakeConn{}, &fakeConn{}, &fakeConn{}

	h.Subscribe(a, "c1")
	h.Subscribe(b, "c1")
	h.Subscribe(other, "c2")

	h.Broadcast("c1", "hello")

	assert.Equal(t, []any{"hello"}, a.received())
	assert.Equal(t, []any{"hello"}, b.received())
	assert.Empty(t, other.received())
}

func TestHub_BroadcastPrunesDeadConnsAndContinues(t *testing.T) {
	h := NewHub(logger.NewNop())
	dead := &fakeConn{fail: true}
	live := &fakeConn{}

	h.Subscribe(dead, "c1")
	h.Subscribe(live, "c1")

	h.Broadcast("c1", "first")

	require.Equal(t, []any{"first"}, live.received())
	assert.Equal(t, 1, h.Subscribers("c1"))

	// The pruned conn stays gone on the next broadcast.
	h.Broadcast("c1", "second")
	assert.Equal(t, []any{"first", "second"}, live.received())
	assert.Equal(t, 1, h.Subscribers("c1"))
}

func TestHub_BroadcastToEmptyConversation(t *testing.T) {
	h := NewHub(logger.NewNop())
	h.Broadcast("nobody-home", "hello")
}
