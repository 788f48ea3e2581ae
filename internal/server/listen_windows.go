//go:build windows

package server

import (
	"errors"
	"syscall"
)

// wsaeaddrinuse is WSAEADDRINUSE.
const wsaeaddrinuse = syscall.Errno(10048)

// SO_REUSEADDR on Windows lets a second process bind a port that is in use, so it is left unset.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}

func isAddrInUse(err error) bool {
	return errors.Is(err, wsaeaddrinuse) || errors.Is(err, syscall.EADDRINUSE)
}
