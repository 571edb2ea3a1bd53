// Package websocket carries binprot values over websocket connections, one
// encoded value per binary message.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/binprot/internal/core/observability/log"
	"github.com/zeusync/binprot/pkg/encoding/binprot"
)

var (
	ErrClosed    = errors.New("connection is closed")
	ErrNotBinary = errors.New("expected a binary message")
	ErrMalformed = errors.New("malformed message")
)

// Config tunes a single connection.
type Config struct {
	// ReadLimit caps the size of an incoming message.
	ReadLimit    int64
	WriteTimeout time.Duration
	Codec        binprot.Options
}

// Conn sends and receives encoded values. Send is safe for concurrent use;
// Receive must be called from one goroutine at a time.
type Conn struct {
	id     string
	conn   *websocket.Conn
	config Config
	logger log.Log
	closed atomic.Bool

	messagesSent     atomic.Uint64
	messagesReceived atomic.Uint64

	// Write mutex to ensure thread-safe writes
	writeMu sync.Mutex
}

func NewConn(conn *websocket.Conn, config Config, logger log.Log) *Conn {
	id := uuid.New().String()
	if config.ReadLimit > 0 {
		conn.SetReadLimit(config.ReadLimit)
	}
	return &Conn{
		id:     id,
		conn:   conn,
		config: config,
		logger: logger.With(log.String("conn_id", id)),
	}
}

// Dial opens a client connection to url.
func Dial(ctx context.Context, url string, config Config, logger log.Log) (*Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := NewConn(conn, config, logger)
	c.logger.Debug("Connected", log.String("url", url))
	return c, nil
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send encodes v and writes it as one binary message.
func (c *Conn) Send(v binprot.Encodable) error {
	data, err := binprot.Marshal(v, c.config.Codec)
	if err != nil {
		return err
	}
	return c.writeBinary(data)
}

func (c *Conn) writeBinary(data []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	c.messagesSent.Add(1)
	c.logger.Debug("Message sent", log.Int("bytes", len(data)))
	return nil
}

// Receive reads one message and decodes it into v. The message must hold
// exactly one value. Decode failures wrap ErrMalformed and leave the
// connection usable.
func (c *Conn) Receive(v binprot.Decodable) error {
	if c.closed.Load() {
		return ErrClosed
	}

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read message: %w", err)
	}
	c.messagesReceived.Add(1)

	if messageType != websocket.BinaryMessage {
		return ErrNotBinary
	}
	if err := binprot.Unmarshal(data, v, c.config.Codec); err != nil {
		c.logger.Warn("Failed to decode message",
			log.Hex("payload", data),
			log.String("kind", binprot.KindOf(err).String()),
			log.Error(err))
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// Close sends a close frame and releases the connection.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()

	c.logger.Debug("Connection closed",
		log.Uint64("messages_sent", c.messagesSent.Load()),
		log.Uint64("messages_received", c.messagesReceived.Load()))
	return c.conn.Close()
}

// Stats reports message counts since the connection opened.
func (c *Conn) Stats() (sent, received uint64) {
	return c.messagesSent.Load(), c.messagesReceived.Load()
}

// IsClosedError reports whether err means the peer went away.
func IsClosedError(err error) bool {
	if errors.Is(err, ErrClosed) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr)
}
