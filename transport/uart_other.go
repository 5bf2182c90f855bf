//go:build !linux

package transport

import "fmt"

// UART is only available on linux.
type UART struct{}

func NewUART(cfg UARTConfig) (*UART, error) {
	return nil, fmt.Errorf("uart transport only available on linux")
}

func (u *UART) OnData(fn func()) {}

func (u *UART) Read(p []byte) (int, error) {
	return 0, fmt.Errorf("uart transport only available on linux")
}

func (u *UART) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("uart transport only available on linux")
}

func (u *UART) Close() error { return nil }

func (u *UART) String() string { return "uart-unsupported" }
