// Package cdp implements the CDP Client: a single-connection multiplexer for
// command/event traffic with a browser's Chrome DevTools Protocol endpoint.
// Every call id is monotonically increasing, replies are matched back to
// their waiter by id, and unsolicited frames (those carrying a "method"
// instead of an "id") are fanned out to registered event listeners.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// CommandTimeout bounds how long Send waits for a matching reply, per
// spec §4.2.
const CommandTimeout = 10 * time.Second

// wireMessage is the outbound command envelope.
type wireMessage struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// inboundFrame is parsed loosely first to decide whether it's a command
// reply (has "id") or an event (has "method").
type inboundFrame struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// pendingCommand is the waiter a background reader resolves by id.
type pendingCommand struct {
	method string
	result chan json.RawMessage
	err    chan error
}

// Client is a single-connection multiplexer for one browser DevTools
// WebSocket endpoint. Not safe to share across unrelated sessions — each
// Session Engine instance owns exactly one Client for the lifetime of its
// browser.
type Client struct {
	conn   *websocket.Conn
	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]*pendingCommand
	closed  bool

	listenersMu sync.RWMutex
	listeners   map[string][]func(json.RawMessage)

	logger   *slog.Logger
	doneOnce sync.Once
	done     chan struct{}
}

// Connect opens the transport to wsURL (a page-level
// webSocketDebuggerUrl from GET {cdp}/json/list) and starts the background
// reader.
func Connect(ctx context.Context, wsURL string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: CommandTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cdp: dial %s: %w", wsURL, err)
	}

	c := &Client{
		conn:      conn,
		pending:   make(map[int64]*pendingCommand),
		listeners: make(map[string][]func(json.RawMessage)),
		logger:    slog.Default(),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Send assigns a monotonically increasing command id, transmits
// {id, method, params}, and awaits the framed reply carrying the same id.
func (c *Client) Send(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	id := c.nextID.Add(1)
	pc := &pendingCommand{
		method: method,
		result: make(chan json.RawMessage, 1),
		err:    make(chan error, 1),
	}
	c.pending[id] = pc
	c.mu.Unlock()

	var paramsJSON json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			c.dropPending(id)
			return nil, fmt.Errorf("cdp: marshal params for %s: %w", method, err)
		}
		paramsJSON = encoded
	}

	msg := wireMessage{ID: id, Method: method, Params: paramsJSON}
	data, err := json.Marshal(msg)
	if err != nil {
		c.dropPending(id)
		return nil, fmt.Errorf("cdp: marshal command %s: %w", method, err)
	}

	if err := c.writeMessage(data); err != nil {
		c.dropPending(id)
		return nil, fmt.Errorf("cdp: write %s: %w", method, err)
	}

	timer := time.NewTimer(CommandTimeout)
	defer timer.Stop()

	select {
	case result := <-pc.result:
		return result, nil
	case err := <-pc.err:
		return nil, err
	case <-timer.C:
		c.dropPending(id)
		return nil, ErrTimeout
	case <-ctx.Done():
		c.dropPending(id)
		return nil, ErrCancelled
	case <-c.done:
		return nil, ErrClosed
	}
}

func (c *Client) writeMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) dropPending(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// OnEvent registers fn to be invoked whenever an inbound frame's "method"
// equals name. A single name may have multiple callbacks, invoked in
// registration order.
func (c *Client) OnEvent(name string, fn func(params json.RawMessage)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners[name] = append(c.listeners[name], fn)
}

// readLoop is the sole goroutine reading from the WebSocket connection. It
// dispatches command replies to their waiter and events to registered
// listeners.
func (c *Client) readLoop() {
	defer c.teardown()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warn("cdp: malformed frame", "error", err)
			continue
		}

		if frame.ID != 0 {
			c.resolveCommand(frame)
			continue
		}
		if frame.Method != "" {
			c.dispatchEvent(frame.Method, frame.Params)
		}
	}
}

func (c *Client) resolveCommand(frame inboundFrame) {
	c.mu.Lock()
	pc, ok := c.pending[frame.ID]
	if ok {
		delete(c.pending, frame.ID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	if frame.Error != nil {
		pc.err <- &CdpError{Method: pc.method, Code: frame.Error.Code, Message: frame.Error.Message}
		return
	}
	pc.result <- frame.Result
}

func (c *Client) dispatchEvent(method string, params json.RawMessage) {
	c.listenersMu.RLock()
	fns := append([]func(json.RawMessage){}, c.listeners[method]...)
	c.listenersMu.RUnlock()
	for _, fn := range fns {
		fn(params)
	}
}

// teardown runs once the read loop exits (connection loss or Close):
// cancels all pending commands with ErrClosed.
func (c *Client) teardown() {
	c.mu.Lock()
	c.closed = true
	pending := c.pending
	c.pending = make(map[int64]*pendingCommand)
	c.mu.Unlock()

	for _, pc := range pending {
		pc.err <- ErrClosed
	}
	c.doneOnce.Do(func() { close(c.done) })
}

// Close cancels all pending commands with ErrClosed and closes the
// underlying connection. After Close, Send always fails with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	already := c.closed
	c.mu.Unlock()
	if already {
		return nil
	}
	err := c.conn.Close()
	c.teardown()
	return err
}
