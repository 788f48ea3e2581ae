package server

import (
	"context"
	"net"
)

// listen binds addr with SO_REUSEADDR set where the platform supports it.
func listen(addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	return lc.Listen(context.Background(), "tcp", addr)
}
