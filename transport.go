package bleport

import "io"

// A Transport is the raw byte stream to the controller. It is what the
// pseudo device table hands to the stack as the chosen HCI device's api
// handle; the port never frames or interprets the bytes itself.
type Transport interface {
	io.ReadWriteCloser
	String() string
}
