package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/randalmurphal/codexmonitor/apperr"
)

// MethodAuth authenticates a connection with the daemon token.
const MethodAuth = "auth"

// ErrNotConnected is returned by Call when no daemon connection is open.
var ErrNotConnected = apperr.Message(apperr.KindRouting, "remote backend is not connected")

// AuthParams are the parameters for the "auth" RPC method.
type AuthParams struct {
	Token string `json:"token"`
}

// Client forwards calls to a remote codex-monitor daemon. The zero value
// is a disconnected client.
type Client struct {
	mu    sync.Mutex
	conn  io.ReadWriteCloser
	proto *Protocol
}

// NewClient creates a disconnected client.
func NewClient() *Client {
	return &Client{}
}

// Connect dials host over TCP and authenticates with token. A blank token
// skips authentication.
func (c *Client) Connect(ctx context.Context, host, token string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return apperr.Message(apperr.KindValidation, "Remote backend host is required")
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return apperr.New(apperr.KindRouting, "connect", err)
	}
	if err := c.ConnectWith(ctx, conn, token); err != nil {
		return err
	}
	slog.Info("connected to remote backend", slog.String("host", host))
	return nil
}

// ConnectWith uses an established stream, replacing any current connection.
func (c *Client) ConnectWith(ctx context.Context, conn io.ReadWriteCloser, token string) error {
	proto := NewProtocol(conn, conn)
	proto.OnNotification = func(n Notification) {
		slog.Debug("remote notification", slog.String("method", n.Method))
	}

	c.mu.Lock()
	old := c.conn
	c.conn, c.proto = conn, proto
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	go c.readLoop(conn, proto)

	if token = strings.TrimSpace(token); token != "" {
		if err := proto.Call(ctx, MethodAuth, AuthParams{Token: token}, nil); err != nil {
			c.drop(conn)
			var rpcErr *RPCError
			if errors.As(err, &rpcErr) {
				return remoteError(MethodAuth, rpcErr)
			}
			return apperr.New(apperr.KindRouting, MethodAuth, err)
		}
	}
	return nil
}

// readLoop runs the protocol until the transport fails, then drops the
// connection so the client reads as disconnected.
func (c *Client) readLoop(conn io.ReadWriteCloser, proto *Protocol) {
	err := proto.Run()
	if c.drop(conn) && !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
		slog.Warn("remote backend disconnected", slog.Any("error", err))
	}
}

// drop closes conn if it is still current and reports whether it was.
func (c *Client) drop(conn io.ReadWriteCloser) bool {
	c.mu.Lock()
	current := c.conn == conn
	if current {
		c.conn, c.proto = nil, nil
	}
	c.mu.Unlock()
	_ = conn.Close()
	return current
}

// IsConnected reports whether a daemon connection is open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proto != nil
}

// Call invokes method on the daemon and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	proto := c.proto
	c.mu.Unlock()
	if proto == nil {
		return nil, ErrNotConnected
	}

	raw, err := proto.CallRaw(ctx, method, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return nil, remoteError(method, rpcErr)
		}
		return nil, apperr.New(apperr.KindRouting, method, err)
	}
	return raw, nil
}

// remoteError turns a daemon error response into an apperr error carrying
// the daemon's message.
func remoteError(method string, rpcErr *RPCError) error {
	switch rpcErr.Code {
	case CodeUnauthorized:
		return apperr.Newf(apperr.KindRouting, "", "Remote backend rejected the token: %s", rpcErr.Message)
	case CodeMethodNotFound:
		return apperr.Newf(apperr.KindUnsupported, "", "Remote backend does not support %s", method)
	default:
		return apperr.Message(apperr.KindRouting, rpcErr.Message)
	}
}

// Close drops the current connection.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	c.drop(conn)
	return nil
}
