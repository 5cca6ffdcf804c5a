// Package util contains misc internal utilities.
package util

import (
	"net"
	"time"
)

// GetBit returns the value of a given bit in a byte
func GetBit(b byte, bitIndex uint) bool {
	return (b & (1 << bitIndex)) != 0
}

// SetBit returns b with the given bit set to value
func SetBit(b byte, bitIndex uint, value bool) byte {
	if value {
		return b | (1 << bitIndex)
	}
	return b &^ (1 << bitIndex)
}

// TCPSetup opens a new TCP connection and sets a timeout on connect, read, and write
func TCPSetup(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)
	return conn, nil
}
