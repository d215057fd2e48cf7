// Package netutil holds small networking helpers for job launchers.
package netutil

import (
	"fmt"
	"net"
)

// FreePorts returns n distinct TCP ports that were free at the time of the
// check, discovered by binding ephemeral listeners. A port is only
// guaranteed free until something else binds it.
func FreePorts(n int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	seen := make(map[int]struct{}, n)
	ports := make([]int, 0, n)
	for attempts := 0; len(ports) < n; attempts++ {
		if attempts >= n*20 {
			return nil, fmt.Errorf("gave up finding %d free ports after %d attempts", n, attempts)
		}
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("probe free port: %w", err)
		}
		port := l.Addr().(*net.TCPAddr).Port
		l.Close()
		if _, dup := seen[port]; dup {
			continue
		}
		seen[port] = struct{}{}
		ports = append(ports, port)
	}
	return ports, nil
}
