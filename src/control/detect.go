package control

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"time"
)

// DetectResident scans ports and returns the first port whose listener
// answers PING.
func DetectResident(ctx context.Context, ports PortRange) (int, bool) {
	timeout := 300 * time.Millisecond
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < timeout {
			timeout = d
		}
	}
	p := ports.Normalize()
	for port := p.Start; port <= p.End; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if ping(net.JoinHostPort(residentHost, strconv.Itoa(port)), timeout) {
			return port, true
		}
	}
	return 0, false
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(pingRequest)); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
