package control

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Call is one request waiting for the owner of the server to answer it.
type Call struct {
	Request Request
	reply   chan Response
}

// Reply answers the call. Only the first reply counts.
func (c *Call) Reply(r Response) {
	r.ID = c.Request.ID
	select {
	case c.reply <- r:
	default:
	}
}

// Server accepts control connections on loopback.
type Server struct {
	ports PortRange
	log   *zap.Logger

	lis   net.Listener
	port  int
	calls chan *Call

	mu    sync.Mutex
	conns map[*conn]struct{}
	wg    sync.WaitGroup

	dropped atomic.Uint64
}

// NewServer returns an unstarted server for ports.
func NewServer(ports PortRange, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		ports: ports.Normalize(),
		log:   log,
		calls: make(chan *Call, 16),
		conns: map[*conn]struct{}{},
	}
}

// Start binds only the first port of the range. An occupied port is an error:
// some other resident owns it.
func (s *Server) Start() error {
	if s.lis != nil {
		return nil
	}
	addr := net.JoinHostPort(residentHost, fmt.Sprint(s.ports.Start))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind control port %s: %w", addr, err)
	}
	s.lis = lis
	s.port = lis.Addr().(*net.TCPAddr).Port
	s.log.Info("control channel listening", zap.String("addr", lis.Addr().String()))
	return nil
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int { return s.port }

// Calls delivers requests to the owner, one per line received.
func (s *Server) Calls() <-chan *Call { return s.calls }

// Serve accepts connections until ctx is done, then closes every connection
// and waits for their goroutines.
func (s *Server) Serve(ctx context.Context) error {
	if s.lis == nil {
		return errors.New("control server not started")
	}
	go func() {
		<-ctx.Done()
		_ = s.lis.Close()
	}()
	defer func() {
		s.mu.Lock()
		for c := range s.conns {
			_ = c.nc.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
	}()
	for {
		nc, err := s.lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		c := &conn{
			nc:  nc,
			out: make(chan []byte, 64),
			log: s.log.With(zap.String("remote", nc.RemoteAddr().String())),
		}
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(2)
		go s.readLoop(ctx, c)
		go s.writeLoop(c)
	}
}

// Broadcast queues n for every subscribed connection. Slow subscribers lose
// notifications instead of stalling the caller.
func (s *Server) Broadcast(n Notification) {
	line, err := encodeLine(n)
	if err != nil {
		s.log.Error("encode notification", zap.Error(err))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		if !c.subscribed.Load() {
			continue
		}
		if !c.send(line) {
			s.dropped.Add(1)
		}
	}
}

// Subscribers counts subscribed connections.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for c := range s.conns {
		if c.subscribed.Load() {
			n++
		}
	}
	return n
}

func (s *Server) readLoop(ctx context.Context, c *conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		// The writer closes the socket once queued lines are flushed.
		c.close()
	}()

	sc := bufio.NewScanner(c.nc)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if string(line) == "PING" {
			c.log.Debug("PING -> PONG")
			c.send([]byte(pongResponse))
			return
		}
		resp, ok := s.handle(ctx, c, line)
		if !ok {
			return
		}
		out, err := encodeLine(resp)
		if err != nil {
			c.log.Error("encode response", zap.Error(err))
			continue
		}
		c.send(out)
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		c.log.Debug("control connection closed", zap.Error(err))
	}
}

// handle decodes one request and waits for its answer. It reports false when
// the server is shutting down.
func (s *Server) handle(ctx context.Context, c *conn, line []byte) (Response, bool) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{Error: "malformed request: " + err.Error()}, true
	}
	if req.Type == TypeSubscribe {
		c.subscribed.Store(true)
		c.log.Debug("subscribed to notifications")
		return Response{ID: req.ID, OK: true}, true
	}
	call := &Call{Request: req, reply: make(chan Response, 1)}
	select {
	case s.calls <- call:
	case <-ctx.Done():
		return Response{}, false
	}
	select {
	case resp := <-call.reply:
		return resp, true
	case <-ctx.Done():
		return Response{}, false
	}
}

func (s *Server) writeLoop(c *conn) {
	defer s.wg.Done()
	defer c.nc.Close()
	for line := range c.out {
		if _, err := c.nc.Write(line); err != nil {
			c.log.Debug("control write failed", zap.Error(err))
			_ = c.nc.Close()
			// Keep draining so senders never block on a dead connection.
			for range c.out {
			}
			return
		}
	}
}

func encodeLine(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

type conn struct {
	nc         net.Conn
	out        chan []byte
	log        *zap.Logger
	subscribed atomic.Bool

	mu     sync.Mutex
	closed bool
}

func (c *conn) send(line []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.out <- line:
		return true
	default:
		return false
	}
}

func (c *conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.out)
	}
}
