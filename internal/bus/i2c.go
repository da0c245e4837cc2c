package bus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2C is the production Transport over a periph.io I2C bus. The device
// auto-increments its register pointer during multi-byte reads, so a
// burst is a single write-then-read transaction.
type I2C struct {
	bus i2c.BusCloser
	dev i2c.Dev
}

// Open initializes the periph host and opens the named I2C bus. An
// empty name selects the first available bus.
func Open(name string, addr uint16) (*I2C, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("bus: host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("bus: open %q: %w", name, err)
	}
	return &I2C{
		bus: b,
		dev: i2c.Dev{Bus: b, Addr: addr},
	}, nil
}

func (c *I2C) ReadByte(reg byte) (byte, error) {
	if c.bus == nil {
		return 0, ErrClosed
	}
	var buf [1]byte
	if err := c.dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (c *I2C) WriteByte(reg byte, value byte) error {
	if c.bus == nil {
		return ErrClosed
	}
	return c.dev.Tx([]byte{reg, value}, nil)
}

func (c *I2C) ReadBurst(start byte, p []byte) (int, error) {
	if c.bus == nil {
		return 0, ErrClosed
	}
	if err := c.dev.Tx([]byte{start}, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *I2C) Close() error {
	if c.bus == nil {
		return nil
	}
	err := c.bus.Close()
	c.bus = nil
	return err
}
