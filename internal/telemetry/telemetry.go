// Package telemetry frames wrapped IMU readings as binary downlink
// packets and writes them to a serial ground link.
//
// Packet layout, all multi-byte values little-endian:
//
//	[0]   sync 0x5A
//	[1]   sync 0xA5
//	[2:4] payload length
//	[4:6] CRC-16/CCITT over bytes [0:4] and the payload
//	[6:]  payload: seq uint64, sys ticks int64, gyro X/Y/Z int16,
//	      accel X/Y/Z int16
package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/donny0101/Base11-FC/internal/config"
	"github.com/donny0101/Base11-FC/internal/manager"
	"github.com/donny0101/Base11-FC/internal/sensor"
	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
)

const (
	Sync1   byte = 0x5A
	Sync2   byte = 0xA5
	HdrSize      = 6

	payloadSize = 8 + 8 + 6*2
)

// Encode builds one downlink packet for a wrapped reading.
func Encode(r *sensor.IMUReadingWrapped) []byte {
	p := make([]byte, HdrSize+payloadSize)
	p[0] = Sync1
	p[1] = Sync2
	binary.LittleEndian.PutUint16(p[2:4], payloadSize)

	payload := p[HdrSize:]
	binary.LittleEndian.PutUint64(payload[0:8], r.Seq)
	binary.LittleEndian.PutUint64(payload[8:16], uint64(r.SysTicks))
	for i, v := range [6]int16{
		r.Gyro.X, r.Gyro.Y, r.Gyro.Z,
		r.Acc.X, r.Acc.Y, r.Acc.Z,
	} {
		binary.LittleEndian.PutUint16(payload[16+i*2:], uint16(v))
	}

	var crc uint16
	crc16Update(&crc, p[:4])
	crc16Update(&crc, payload)
	binary.LittleEndian.PutUint16(p[4:6], crc)
	return p
}

func crc16Update(currentCRC *uint16, src []byte) {
	crc := *currentCRC

	for _, b := range src {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			temp := crc << 1
			if (crc & 0x8000) != 0 {
				temp ^= 0x1021
			}
			crc = temp
		}
	}
	*currentCRC = crc
}

// Writer publishes packets over a serial port.
type Writer struct {
	port *serial.Port
}

func NewWriter(opt config.TelemetryOpt) (*Writer, error) {
	c := &serial.Config{
		Name: opt.Port,
		Baud: opt.Baud,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", opt.Port, err)
	}
	return &Writer{port: port}, nil
}

func (w *Writer) Publish(r *sensor.IMUReadingWrapped) error {
	if w.port == nil {
		return errors.New("telemetry: port not open")
	}
	_, err := w.port.Write(Encode(r))
	return err
}

func (w *Writer) Close() error {
	if w.port == nil {
		return nil
	}
	err := w.port.Close()
	w.port = nil
	return err
}

// Pump follows the manager's ring buffer and publishes every new
// reading. It returns when the serial link fails.
func (w *Writer) Pump(m manager.Manager) error {
	var cursor = int64(-1)
	for {
		if !m.Running() {
			time.Sleep(time.Second)
			continue
		}
		next, readings, err := m.Read(cursor)
		if err != nil {
			time.Sleep(time.Millisecond * 10)
			continue
		}
		cursor = next
		for _, r := range readings {
			if err := w.Publish(r); err != nil {
				log.Errorln("telemetry publish failed:", err)
				return err
			}
		}
	}
}
