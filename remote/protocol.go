package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// JSON-RPC 2.0 protocol types for daemon communication.

const jsonrpcVersion = "2.0"

// maxLineBytes bounds a single protocol message. Data URLs for large images
// arrive as one line.
const maxLineBytes = 64 << 20

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// Notification is a JSON-RPC 2.0 notification (no ID, no response expected).
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("RPC error %d: %s (data: %s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Error codes the client maps to distinct error kinds. Any other code is
// reported with the daemon's message.
const (
	CodeMethodNotFound = -32601 // JSON-RPC 2.0: method does not exist
	CodeUnauthorized   = -32001 // Daemon: missing or wrong token
)

// ErrProtocolClosed is returned for calls made after the read loop stopped.
var ErrProtocolClosed = errors.New("protocol closed")

// Protocol handles line-delimited JSON-RPC over a byte stream. Responses
// are matched to calls by ID, so concurrent calls may be in flight.
type Protocol struct {
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex // Protects writer
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan *Response
	err     error
	done    chan struct{}

	// OnNotification receives notifications read by Run. Set before Run.
	OnNotification func(Notification)
}

// NewProtocol creates a new JSON-RPC protocol handler.
func NewProtocol(r io.Reader, w io.Writer) *Protocol {
	return &Protocol{
		reader:  bufio.NewReaderSize(r, 64*1024),
		writer:  w,
		pending: make(map[int64]chan *Response),
		done:    make(chan struct{}),
	}
}

// Run reads messages until the reader fails, routing responses to their
// callers. Pending and later calls fail with the read error.
func (p *Protocol) Run() error {
	for {
		line, err := p.readLine()
		if err != nil {
			p.fail(fmt.Errorf("read response: %w", err))
			return err
		}
		if len(line) == 0 {
			continue
		}

		var msg struct {
			ID *int64 `json:"id"`
		}
		if err := json.Unmarshal(line, &msg); err != nil {
			p.fail(fmt.Errorf("parse message: %w", err))
			return err
		}

		if msg.ID == nil {
			var notif Notification
			if err := json.Unmarshal(line, &notif); err == nil && p.OnNotification != nil {
				p.OnNotification(notif)
			}
			continue
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			p.fail(fmt.Errorf("parse response: %w", err))
			return err
		}

		p.mu.Lock()
		ch, ok := p.pending[resp.ID]
		delete(p.pending, resp.ID)
		p.mu.Unlock()
		// Responses for abandoned calls are dropped.
		if ok {
			ch <- &resp
		}
	}
}

func (p *Protocol) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := p.reader.ReadLine()
		if err != nil {
			return nil, err
		}
		line = append(line, chunk...)
		if len(line) > maxLineBytes {
			return nil, fmt.Errorf("message exceeds %d bytes", maxLineBytes)
		}
		if !isPrefix {
			return line, nil
		}
	}
}

func (p *Protocol) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	p.err = err
	for id, ch := range p.pending {
		close(ch)
		delete(p.pending, id)
	}
	close(p.done)
}

// Done is closed when Run stops.
func (p *Protocol) Done() <-chan struct{} {
	return p.done
}

// Err returns the error that stopped Run, if any.
func (p *Protocol) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// CallRaw sends a request and waits for its response or for ctx.
func (p *Protocol) CallRaw(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := p.nextID.Add(1)
	ch := make(chan *Response, 1)

	p.mu.Lock()
	if p.err != nil {
		err := p.err
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrProtocolClosed, err)
	}
	p.pending[id] = ch
	p.mu.Unlock()

	req := Request{
		JSONRPC: jsonrpcVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}
	if err := p.send(req); err != nil {
		p.forget(id)
		return nil, fmt.Errorf("send request: %w", err)
	}

	select {
	case <-ctx.Done():
		p.forget(id)
		return nil, ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%w: %w", ErrProtocolClosed, p.Err())
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

// Call sends a request and unmarshals the result into result.
func (p *Protocol) Call(ctx context.Context, method string, params, result any) error {
	raw, err := p.CallRaw(ctx, method, params)
	if err != nil {
		return err
	}
	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

func (p *Protocol) forget(id int64) {
	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()
}

// send marshals and writes a message.
func (p *Protocol) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_, err = p.writer.Write(data)
	return err
}
