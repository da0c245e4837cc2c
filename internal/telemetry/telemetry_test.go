package telemetry

import (
	"encoding/binary"
	"testing"

	"github.com/donny0101/Base11-FC/internal/sensor"
)

func TestEncodeLayout(t *testing.T) {
	r := &sensor.IMUReadingWrapped{
		IMUReading: sensor.IMUReading{
			Gyro: sensor.Vector3{X: 1, Y: -2, Z: 3},
			Acc:  sensor.Vector3{X: -4, Y: 5, Z: -32768},
		},
		Seq:      42,
		SysTicks: 1234567890,
	}
	p := Encode(r)

	if len(p) != HdrSize+payloadSize {
		t.Fatalf("packet length = %d, want %d", len(p), HdrSize+payloadSize)
	}
	if p[0] != Sync1 || p[1] != Sync2 {
		t.Errorf("sync bytes = %#02x %#02x", p[0], p[1])
	}
	if got := binary.LittleEndian.Uint16(p[2:4]); got != payloadSize {
		t.Errorf("length field = %d, want %d", got, payloadSize)
	}

	payload := p[HdrSize:]
	if got := binary.LittleEndian.Uint64(payload[0:8]); got != 42 {
		t.Errorf("seq = %d, want 42", got)
	}
	if got := int64(binary.LittleEndian.Uint64(payload[8:16])); got != 1234567890 {
		t.Errorf("sys ticks = %d", got)
	}
	want := [6]int16{1, -2, 3, -4, 5, -32768}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(payload[16+i*2:])); got != w {
			t.Errorf("axis %d = %d, want %d", i, got, w)
		}
	}
}

func TestEncodeCRC(t *testing.T) {
	r := &sensor.IMUReadingWrapped{Seq: 7}
	p := Encode(r)

	var crc uint16
	crc16Update(&crc, p[:4])
	crc16Update(&crc, p[HdrSize:])
	if got := binary.LittleEndian.Uint16(p[4:6]); got != crc {
		t.Errorf("crc field = %#04x, recomputed %#04x", got, crc)
	}

	// a corrupted payload must not verify
	p[HdrSize] ^= 0xFF
	crc = 0
	crc16Update(&crc, p[:4])
	crc16Update(&crc, p[HdrSize:])
	if got := binary.LittleEndian.Uint16(p[4:6]); got == crc {
		t.Error("crc unchanged after payload corruption")
	}
}

func TestCRC16KnownValue(t *testing.T) {
	// CRC-16/XMODEM check value for "123456789"
	var crc uint16
	crc16Update(&crc, []byte("123456789"))
	if crc != 0x31C3 {
		t.Errorf("crc16(123456789) = %#04x, want 0x31c3", crc)
	}
}
