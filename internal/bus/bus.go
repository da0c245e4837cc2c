package bus

import "errors"

var ErrClosed = errors.New("bus: closed")

// Transport is a byte-oriented register bus. ReadBurst may return fewer
// bytes than requested; callers must use the returned count.
type Transport interface {
	ReadByte(reg byte) (byte, error)
	WriteByte(reg byte, value byte) error
	ReadBurst(start byte, p []byte) (int, error)
}
