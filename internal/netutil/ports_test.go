package netutil

import (
	"fmt"
	"net"
	"testing"
)

func TestFreePortsReturnsDistinctUsablePorts(t *testing.T) {
	const n = 5
	ports, err := FreePorts(n)
	if err != nil {
		t.Fatalf("free ports: %v", err)
	}
	if len(ports) != n {
		t.Fatalf("expected %d ports, got %d", n, len(ports))
	}

	seen := make(map[int]struct{}, n)
	for _, port := range ports {
		if port <= 0 || port > 65535 {
			t.Fatalf("port %d out of range", port)
		}
		if _, dup := seen[port]; dup {
			t.Fatalf("duplicate port %d in %v", port, ports)
		}
		seen[port] = struct{}{}

		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			t.Fatalf("port %d reported free but bind failed: %v", port, err)
		}
		l.Close()
	}
}

func TestFreePortsZeroRequest(t *testing.T) {
	ports, err := FreePorts(0)
	if err != nil {
		t.Fatalf("free ports: %v", err)
	}
	if len(ports) != 0 {
		t.Fatalf("expected no ports, got %v", ports)
	}
}
