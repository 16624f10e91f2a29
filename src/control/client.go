package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrNoResident means no daemon answered on the configured port range.
	ErrNoResident = errors.New("no resident overlay daemon")
	// ErrRejected wraps the error text of a response with ok=false.
	ErrRejected = errors.New("request rejected")
)

// Client is one control connection to the resident daemon. Do may be called
// from several goroutines; requests on one client are serialized.
type Client struct {
	nc     net.Conn
	br     *bufio.Reader
	mu     sync.Mutex
	nextID atomic.Int64
}

// Dial finds the resident within ports and connects to it.
func Dial(ctx context.Context, ports PortRange) (*Client, error) {
	port, ok := DetectResident(ctx, ports)
	if !ok {
		return nil, ErrNoResident
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", net.JoinHostPort(residentHost, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("connect to resident on port %d: %w", port, err)
	}
	return newClient(nc), nil
}

func newClient(nc net.Conn) *Client {
	r := bufio.NewReaderSize(nc, 64<<10)
	return &Client{nc: nc, br: r}
}

// envelope tells responses from notifications.
type envelope struct {
	ID    *int64 `json:"id"`
	Event string `json:"event"`
}

// Do sends req and waits for its response. Notifications arriving in between
// are skipped. A response with ok=false is returned together with an error
// wrapping ErrRejected.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req.ID = c.nextID.Add(1)
	if dl, ok := ctx.Deadline(); ok {
		_ = c.nc.SetDeadline(dl)
	} else {
		_ = c.nc.SetDeadline(time.Now().Add(5 * time.Second))
	}
	defer c.nc.SetDeadline(time.Time{})

	line, err := encodeLine(req)
	if err != nil {
		return Response{}, err
	}
	if _, err := c.nc.Write(line); err != nil {
		return Response{}, fmt.Errorf("send %s: %w", req.Type, err)
	}
	for {
		raw, err := c.br.ReadBytes('\n')
		if err != nil {
			return Response{}, fmt.Errorf("read %s response: %w", req.Type, err)
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return Response{}, fmt.Errorf("decode response: %w", err)
		}
		if env.Event != "" || env.ID == nil || *env.ID != req.ID {
			continue
		}
		var resp Response
		if err := json.Unmarshal(raw, &resp); err != nil {
			return Response{}, fmt.Errorf("decode response: %w", err)
		}
		if !resp.OK {
			return resp, fmt.Errorf("%s: %w: %s", req.Type, ErrRejected, resp.Error)
		}
		return resp, nil
	}
}

// Subscribe asks for notifications and delivers each one to fn until ctx is
// done or the connection drops. The client must not be used for other
// requests afterwards.
func (c *Client) Subscribe(ctx context.Context, fn func(Notification)) error {
	if _, err := c.Do(ctx, Request{Type: TypeSubscribe}); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = c.nc.SetReadDeadline(time.Now()) })
	defer stop()
	for {
		raw, err := c.br.ReadBytes('\n')
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read notification: %w", err)
		}
		var n Notification
		if err := json.Unmarshal(raw, &n); err != nil || n.Event == "" {
			continue
		}
		fn(n)
	}
}

// Close closes the connection.
func (c *Client) Close() error { return c.nc.Close() }
