package utils

import (
	"net"
	"testing"
	"time"
)

func TestPingHostReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to open listener: %v", err)
	}
	defer ln.Close()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("Failed to split listener address: %v", err)
	}

	if err := PingHost(host, port, time.Second); err != nil {
		t.Errorf("Expected listening port to be reachable, got %v", err)
	}
}

func TestPingHostRefused(t *testing.T) {
	// Grab a free port, then close it so nothing listens there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to open listener: %v", err)
	}
	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("Failed to split listener address: %v", err)
	}
	ln.Close()

	if err := PingHost(host, port, 500*time.Millisecond); err == nil {
		t.Error("Expected closed port to be unreachable")
	}
}
