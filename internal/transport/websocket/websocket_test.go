package websocket

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/binprot/internal/core/observability/log"
	"github.com/zeusync/binprot/internal/schema"
	"github.com/zeusync/binprot/pkg/encoding/binprot"
)

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func echoServer(t *testing.T, tuple schema.Tuple) *httptest.Server {
	t.Helper()
	logger := log.Nop()
	handler := EchoHandler(func() Message { return tuple.New() }, logger)
	s := httptest.NewServer(NewServer(ServerConfig{Conn: Config{ReadLimit: 1 << 16}}, handler, logger))
	t.Cleanup(s.Close)
	return s
}

func TestEcho_RoundTrip(t *testing.T) {
	tuple, err := schema.ParseTuple([]string{"i64", "seq<string>"})
	require.NoError(t, err)
	s := echoServer(t, tuple)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, wsURL(s), Config{}, log.Nop())
	require.NoError(t, err)
	defer c.Close()

	rec, err := tuple.Parse([]string{"1000", `["a", "b"]`})
	require.NoError(t, err)
	require.NoError(t, c.Send(rec))

	out := tuple.New()
	require.NoError(t, c.Receive(out))
	assert.Equal(t, rec.String(), out.String())

	sent, received := c.Stats()
	assert.Equal(t, uint64(1), sent)
	assert.Equal(t, uint64(1), received)
}

func TestEcho_SkipsMalformedMessages(t *testing.T) {
	tuple, err := schema.ParseTuple([]string{"bool"})
	require.NoError(t, err)
	s := echoServer(t, tuple)

	raw, _, err := websocket.DefaultDialer.Dial(wsURL(s), nil)
	require.NoError(t, err)
	defer raw.Close()

	// Not a bool, trailing data, empty, text frame, then a valid value.
	require.NoError(t, raw.WriteMessage(websocket.BinaryMessage, []byte{0x02}))
	require.NoError(t, raw.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x01}))
	require.NoError(t, raw.WriteMessage(websocket.BinaryMessage, []byte{}))
	require.NoError(t, raw.WriteMessage(websocket.TextMessage, []byte("true")))
	require.NoError(t, raw.WriteMessage(websocket.BinaryMessage, []byte{0x01}))

	_ = raw.SetReadDeadline(time.Now().Add(5 * time.Second))
	messageType, data, err := raw.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, messageType)
	assert.Equal(t, []byte{0x01}, data)
}

func TestEcho_SkipsTruncatedMessages(t *testing.T) {
	tuple, err := schema.ParseTuple([]string{"i64"})
	require.NoError(t, err)
	s := echoServer(t, tuple)

	raw, _, err := websocket.DefaultDialer.Dial(wsURL(s), nil)
	require.NoError(t, err)
	defer raw.Close()

	// A lone header byte, a header with half its payload, then a valid value.
	require.NoError(t, raw.WriteMessage(websocket.BinaryMessage, []byte{0xFE}))
	require.NoError(t, raw.WriteMessage(websocket.BinaryMessage, []byte{0xFD, 0x01, 0x02}))
	require.NoError(t, raw.WriteMessage(websocket.BinaryMessage, []byte{0x05}))

	_ = raw.SetReadDeadline(time.Now().Add(5 * time.Second))
	messageType, data, err := raw.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, messageType)
	assert.Equal(t, []byte{0x05}, data)
}

func TestReceive_Errors(t *testing.T) {
	sent := make(chan struct{})
	handler := func(ctx context.Context, c *Conn) {
		_ = c.writeBinary([]byte{0x05, 0x06})
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		c.writeMu.Unlock()
		<-sent
	}
	s := httptest.NewServer(NewServer(ServerConfig{}, handler, log.Nop()))
	defer s.Close()
	defer close(sent)

	c, err := Dial(context.Background(), wsURL(s), Config{}, log.Nop())
	require.NoError(t, err)
	defer c.Close()

	var n binprot.Int64
	err = c.Receive(&n)
	assert.ErrorIs(t, err, binprot.ErrTrailingData)
	assert.ErrorIs(t, err, ErrMalformed)

	err = c.Receive(&n)
	assert.ErrorIs(t, err, ErrNotBinary)
}

func TestSend_Concurrent(t *testing.T) {
	tuple, err := schema.ParseTuple([]string{"i64"})
	require.NoError(t, err)
	s := echoServer(t, tuple)

	c, err := Dial(context.Background(), wsURL(s), Config{WriteTimeout: 5 * time.Second}, log.Nop())
	require.NoError(t, err)
	defer c.Close()

	const senders, perSender = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				assert.NoError(t, c.Send(binprot.Int64(i*perSender+j)))
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[binprot.Int64]bool)
	for i := 0; i < senders*perSender; i++ {
		var n binprot.Int64
		require.NoError(t, c.Receive(&n))
		seen[n] = true
	}
	assert.Len(t, seen, senders*perSender)
}

func TestConn_ClosedOperations(t *testing.T) {
	tuple, err := schema.ParseTuple([]string{"i64"})
	require.NoError(t, err)
	s := echoServer(t, tuple)

	c, err := Dial(context.Background(), wsURL(s), Config{}, log.Nop())
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "second close is a no-op")

	assert.ErrorIs(t, c.Send(binprot.Int64(1)), ErrClosed)
	var n binprot.Int64
	assert.ErrorIs(t, c.Receive(&n), ErrClosed)
	assert.True(t, IsClosedError(ErrClosed))
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	tuple, err := schema.ParseTuple([]string{"string"})
	require.NoError(t, err)
	logger := log.Nop()
	srv := NewServer(ServerConfig{Path: "/ws", ShutdownTimeout: time.Second},
		EchoHandler(func() Message { return tuple.New() }, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	c, err := Dial(context.Background(), "ws://"+ln.Addr().String()+"/ws", Config{}, logger)
	require.NoError(t, err)
	defer c.Close()

	rec, err := tuple.Parse([]string{"ping"})
	require.NoError(t, err)
	require.NoError(t, c.Send(rec))
	out := tuple.New()
	require.NoError(t, c.Receive(out))
	assert.Equal(t, `"ping"`, out.String())
	assert.Equal(t, 1, srv.ActiveConnections())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, 0, srv.ActiveConnections())
}
