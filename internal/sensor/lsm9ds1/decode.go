package lsm9ds1

import "github.com/donny0101/Base11-FC/internal/sensor"

// decodeSamples splits a FIFO burst into 12-byte lines and decodes each
// into a reading. A trailing partial line is discarded; the FIFO always
// emits whole lines, so a remainder only appears on a short transport
// read.
func decodeSamples(p []byte) []sensor.IMUReading {
	n := len(p) / BytesPerSample
	out := make([]sensor.IMUReading, 0, n)
	for i := 0; i < n; i++ {
		line := p[i*BytesPerSample : (i+1)*BytesPerSample]
		out = append(out, sensor.IMUReading{
			Gyro: sensor.Vector3{
				X: i2(line[0:]),
				Y: i2(line[2:]),
				Z: i2(line[4:]),
			},
			Acc: sensor.Vector3{
				X: i2(line[6:]),
				Y: i2(line[8:]),
				Z: i2(line[10:]),
			},
		})
	}
	return out
}

// i2 reads a little-endian signed 16-bit value.
func i2(p []byte) int16 {
	return int16(p[1])<<8 | int16(p[0])
}
