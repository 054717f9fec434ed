package device

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"chartpulse/internal/domain"
)

// WSConfig configures WebSocket transport behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSTransport implements Transport over a gorilla/websocket connection.
// The channel is outbound only; inbound frames (device acks) are drained
// and discarded. A dropped connection is re-dialed with exponential
// backoff while commands issued in between fail fast.
type WSTransport struct {
	endpoint string
	config   WSConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// done signals shutdown
	done chan struct{}
	wg   sync.WaitGroup

	// reconnecting indicates reconnection in progress
	reconnecting atomic.Bool
}

// Compile-time interface check.
var _ Transport = (*WSTransport)(nil)

// NewWSTransport creates a new WebSocket transport and connects to the endpoint.
func NewWSTransport(ctx context.Context, endpoint string, config *WSConfig) (*WSTransport, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	t := &WSTransport{
		endpoint: endpoint,
		config:   cfg,
		done:     make(chan struct{}),
	}

	if err := t.connect(ctx); err != nil {
		return nil, err
	}

	// Start reader goroutine
	t.wg.Add(1)
	go t.readLoop()

	// Start ping goroutine
	t.wg.Add(1)
	go t.pingLoop()

	return t, nil
}

// connect establishes WebSocket connection.
func (t *WSTransport) connect(ctx context.Context) error {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	t.conn = conn
	return nil
}

// SendCommand delivers one command frame.
func (t *WSTransport) SendCommand(_ context.Context, cmd domain.DeviceCommand) error {
	return t.writeFrame(commandFrame{
		Type:     "command",
		Speed:    cmd.Speed,
		MinY:     cmd.MinY,
		MaxY:     cmd.MaxY,
		SentAtMs: time.Now().UnixMilli(),
	})
}

// StopDevice delivers the stop frame.
func (t *WSTransport) StopDevice(_ context.Context) error {
	stop := domain.CommandStop
	return t.writeFrame(commandFrame{
		Type:     "stop",
		Speed:    stop.Speed,
		MinY:     stop.MinY,
		MaxY:     stop.MaxY,
		SentAtMs: time.Now().UnixMilli(),
	})
}

// writeFrame sends one JSON frame under the write deadline. A failed write
// kicks off the reconnect loop and surfaces the error to the caller.
func (t *WSTransport) writeFrame(frame commandFrame) error {
	if t.closed.Load() {
		return fmt.Errorf("transport closed")
	}

	t.connMu.Lock()
	if t.conn == nil {
		t.connMu.Unlock()
		return fmt.Errorf("not connected")
	}

	t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
	err := t.conn.WriteJSON(frame)
	t.connMu.Unlock()

	if err != nil {
		if !t.reconnecting.Swap(true) {
			go t.reconnect(t.config.ReconnectDelay)
		}
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close closes the WebSocket connection.
func (t *WSTransport) Close() error {
	if t.closed.Swap(true) {
		return nil // Already closed
	}

	close(t.done)

	t.connMu.Lock()
	if t.conn != nil {
		t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.conn.Close()
	}
	t.connMu.Unlock()

	t.wg.Wait()
	return nil
}

// readLoop drains inbound frames and drives reconnection on errors.
func (t *WSTransport) readLoop() {
	defer t.wg.Done()

	reconnectDelay := t.config.ReconnectDelay

	for !t.closed.Load() {
		t.connMu.Lock()
		conn := t.conn
		t.connMu.Unlock()

		if conn == nil {
			select {
			case <-t.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(t.config.ReadTimeout))

		// Device acks carry no engine-relevant state; discard them.
		_, _, err := conn.ReadMessage()
		if err != nil {
			if t.closed.Load() {
				return
			}

			// Connection error - attempt reconnect with exponential backoff
			if !t.reconnecting.Swap(true) {
				go t.reconnect(reconnectDelay)
			}

			// Increase delay for next reconnect (exponential backoff)
			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > t.config.MaxReconnectDelay {
				reconnectDelay = t.config.MaxReconnectDelay
			}

			select {
			case <-t.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = t.config.ReconnectDelay
	}
}

// reconnect attempts to re-dial the endpoint after a delay.
func (t *WSTransport) reconnect(delay time.Duration) {
	defer t.reconnecting.Store(false)

	if t.closed.Load() {
		return
	}

	// Wait before reconnecting
	select {
	case <-t.done:
		return
	case <-time.After(delay):
	}

	// Close existing connection
	t.connMu.Lock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.connMu.Unlock()

	// Attempt reconnect
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := t.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		return
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (t *WSTransport) pingLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.connMu.Lock()
			if t.conn != nil {
				t.conn.SetWriteDeadline(time.Now().Add(t.config.WriteTimeout))
				// A failed ping is not fatal here, the reader surfaces the error.
				_ = t.conn.WriteMessage(websocket.PingMessage, nil)
			}
			t.connMu.Unlock()
		}
	}
}

// commandFrame is the wire format for outbound device frames.
type commandFrame struct {
	Type     string  `json:"type"`
	Speed    float64 `json:"speed"`
	MinY     float64 `json:"min_y"`
	MaxY     float64 `json:"max_y"`
	SentAtMs int64   `json:"sent_at_ms"`
}
