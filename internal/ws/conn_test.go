package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// dialPair returns a client-side websocket against an echo-discarding server.
func dialPair(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// Gorilla panics on interleaved writers; the wrapper must let broadcasts and
// the close frame race without tripping that.
func TestSocketConn_ConcurrentWritesAndClose(t *testing.T) {
	conn := NewSocketConn(dialPair(t))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// Errors are fine once the close frame lands; the test is
				// that nothing panics.
				conn.WriteJSON(map[string]int{"seq": j})
			}
		}()
	}

	conn.WriteClose(websocket.CloseNormalClosure, "done")
	wg.Wait()
}

func TestSocketConn_WriteCloseSendsCloseFrame(t *testing.T) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	gotClose := make(chan int, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				if ce, ok := err.(*websocket.CloseError); ok {
					gotClose <- ce.Code
				}
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	raw, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	conn := NewSocketConn(raw)
	require.NoError(t, conn.WriteClose(websocket.CloseInternalServerErr, "internal error"))

	require.Equal(t, websocket.CloseInternalServerErr, <-gotClose)
}
