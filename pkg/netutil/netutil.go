// Package netutil opens the listener the HTTP server is served on.
package netutil

import (
	"fmt"
	"net"
)

// Listen binds the preferred port. With fallback set and the port taken it
// binds a random free port instead. The chosen port is returned.
func Listen(preferredPort string, fallback bool) (net.Listener, int, error) {
	lis, err := net.Listen("tcp", ":"+preferredPort)
	if err == nil {
		return lis, lis.Addr().(*net.TCPAddr).Port, nil
	}
	if !fallback {
		return nil, 0, fmt.Errorf("listen on port %s: %w", preferredPort, err)
	}

	lis, err = net.Listen("tcp", ":0")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to listen on preferred port %s and random port: %w", preferredPort, err)
	}
	return lis, lis.Addr().(*net.TCPAddr).Port, nil
}
