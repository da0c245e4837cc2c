package lsm9ds1

import (
	"fmt"

	"github.com/donny0101/Base11-FC/internal/bus"
	"github.com/donny0101/Base11-FC/internal/sensor"
)

// Device cannot be accessed by two goroutines at the same time, except
// for the reading queue which is safe against one concurrent consumer.
// All bus faults are returned to the caller; nothing is retried and
// device state is undefined after a failed write.
type Device struct {
	tr      bus.Transport
	samples readingQueue
}

func New(tr bus.Transport) *Device {
	return &Device{tr: tr}
}

// WhoAmI reads the chip identification register.
func (d *Device) WhoAmI() (byte, error) {
	v, err := d.tr.ReadByte(RegWhoAmI)
	if err != nil {
		return 0, fmt.Errorf("lsm9ds1: who_am_i: %w", err)
	}
	return v, nil
}

// Probe verifies that the device on the bus answers with the LSM9DS1
// chip ID.
func (d *Device) Probe() error {
	id, err := d.WhoAmI()
	if err != nil {
		return err
	}
	if id != ChipID {
		return fmt.Errorf("lsm9ds1: unexpected chip id 0x%02X, want 0x%02X", id, ChipID)
	}
	return nil
}

// Reset triggers a software reset via CTRL_REG8. The caller should
// allow the device a few milliseconds to reboot before configuring it.
func (d *Device) Reset() error {
	return d.writeField(RegCtrl8, fieldSWReset, 1)
}

// SetOutputDataRate sets the shared gyro/accel output data rate.
func (d *Device) SetOutputDataRate(r OutputDataRate) error {
	if !r.Valid() {
		return fmt.Errorf("lsm9ds1: invalid output data rate %d", byte(r))
	}
	return d.writeField(RegCtrl1G, fieldODR, byte(r))
}

// SetAccelScale sets the accelerometer full scale.
func (d *Device) SetAccelScale(s AccelScale) error {
	if !s.Valid() {
		return fmt.Errorf("lsm9ds1: invalid accelerometer scale %d", byte(s))
	}
	return d.writeField(RegCtrl6XL, fieldAccelScale, byte(s))
}

// SetGyroScale sets the gyroscope full scale.
func (d *Device) SetGyroScale(s GyroScale) error {
	if !s.Valid() {
		return fmt.Errorf("lsm9ds1: invalid gyroscope scale %d", byte(s))
	}
	return d.writeField(RegCtrl1G, fieldGyroScale, byte(s))
}

// SetFIFOEnabled toggles the FIFO_EN bit in CTRL_REG9.
func (d *Device) SetFIFOEnabled(enabled bool) error {
	var v byte
	if enabled {
		v = 1
	}
	return d.writeField(RegCtrl9, fieldFIFOEnable, v)
}

// SetFIFOMode selects the FIFO behaviour.
func (d *Device) SetFIFOMode(m FIFOMode) error {
	if !m.Valid() {
		return fmt.Errorf("lsm9ds1: invalid FIFO mode %d", byte(m))
	}
	return d.writeField(RegFIFOCtrl, fieldFIFOMode, byte(m))
}

// SetFIFOThreshold sets the fill level at which the threshold flag
// raises. The hardware field is 5 bits, so n is silently clamped to
// [0, 31]; the clamp is lossy by design of the original interface.
func (d *Device) SetFIFOThreshold(n int) error {
	if n > FIFOThresholdMax {
		n = FIFOThresholdMax
	}
	if n < FIFOThresholdMin {
		n = FIFOThresholdMin
	}
	return d.writeField(RegFIFOCtrl, fieldFIFOThreshold, byte(n))
}

// FIFOOverrun reports whether the FIFO filled completely and samples
// were lost. Read fresh from FIFO_SRC on every call.
func (d *Device) FIFOOverrun() (bool, error) {
	v, err := d.readFIFOSrc()
	if err != nil {
		return false, err
	}
	return fieldFIFOOverrun.Extract(v) != 0, nil
}

// FIFOThresholdReached reports whether the FIFO fill level is at or
// above the configured threshold.
func (d *Device) FIFOThresholdReached() (bool, error) {
	v, err := d.readFIFOSrc()
	if err != nil {
		return false, err
	}
	return fieldFIFOThsStatus.Extract(v) != 0, nil
}

// SamplesInFIFO reports how many unread samples the FIFO holds.
func (d *Device) SamplesInFIFO() (int, error) {
	v, err := d.readFIFOSrc()
	if err != nil {
		return 0, err
	}
	return int(fieldFIFOSamples.Extract(v)), nil
}

// Poll drains the FIFO: one sample-count query, then a single burst
// read of count*12 bytes starting at OUT_X_L_G with the device
// auto-incrementing across the output registers. Decoded readings are
// appended to the queue oldest first. A transport fault aborts the poll
// with nothing enqueued and is returned to the caller.
func (d *Device) Poll() error {
	count, err := d.SamplesInFIFO()
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	buf := make([]byte, count*BytesPerSample)
	n, err := d.tr.ReadBurst(RegOutXLG, buf)
	if err != nil {
		return fmt.Errorf("lsm9ds1: fifo burst: %w", err)
	}
	for _, r := range decodeSamples(buf[:n]) {
		d.samples.push(r)
	}
	return nil
}

// ReadDirect takes one sample straight from the output registers,
// bypassing the FIFO. The gyro and accel register banks are not
// contiguous so this is two short bursts.
func (d *Device) ReadDirect() (sensor.IMUReading, error) {
	var line [BytesPerSample]byte
	if _, err := d.tr.ReadBurst(RegOutXLG, line[:6]); err != nil {
		return sensor.IMUReading{}, fmt.Errorf("lsm9ds1: gyro out: %w", err)
	}
	if _, err := d.tr.ReadBurst(RegOutXLXL, line[6:]); err != nil {
		return sensor.IMUReading{}, fmt.Errorf("lsm9ds1: accel out: %w", err)
	}
	return decodeSamples(line[:])[0], nil
}

// HasNext reports whether an undelivered reading is queued.
func (d *Device) HasNext() bool {
	return d.samples.len() > 0
}

// Next pops the oldest undelivered reading. It returns false instead
// of blocking or failing when the queue is empty.
func (d *Device) Next() (sensor.IMUReading, bool) {
	return d.samples.pop()
}

// writeField does the read-modify-write cycle shared by every setter.
func (d *Device) writeField(reg byte, f Field, v byte) error {
	cur, err := d.tr.ReadByte(reg)
	if err != nil {
		return fmt.Errorf("lsm9ds1: read reg 0x%02X: %w", reg, err)
	}
	if err := d.tr.WriteByte(reg, f.Insert(cur, v)); err != nil {
		return fmt.Errorf("lsm9ds1: write reg 0x%02X: %w", reg, err)
	}
	return nil
}

func (d *Device) readFIFOSrc() (byte, error) {
	v, err := d.tr.ReadByte(RegFIFOSrc)
	if err != nil {
		return 0, fmt.Errorf("lsm9ds1: fifo_src: %w", err)
	}
	return v, nil
}

var (
	_ sensor.PollingSensor = (*Device)(nil)
	_ sensor.IMU           = (*Device)(nil)
)
