package lsm9ds1

import (
	"sync"
	"testing"
	"time"

	"github.com/donny0101/Base11-FC/internal/config"
	driver "github.com/donny0101/Base11-FC/internal/sensor/lsm9ds1"
)

// fakeBus emulates the accel/gyro register file. The FIFO serves a
// fixed number of samples once, then reads empty, so tests can assert
// exact ring buffer contents.
type fakeBus struct {
	mu      sync.Mutex
	regs    map[byte]byte
	pending int
	next    int16
	closed  bool
}

func newFakeBus(samples int) *fakeBus {
	return &fakeBus{
		regs:    map[byte]byte{driver.RegWhoAmI: driver.ChipID},
		pending: samples,
	}
}

func (b *fakeBus) ReadByte(reg byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if reg == driver.RegFIFOSrc {
		return byte(b.pending) & 0b111111, nil
	}
	return b.regs[reg], nil
}

func (b *fakeBus) WriteByte(reg byte, value byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regs[reg] = value
	return nil
}

func (b *fakeBus) ReadBurst(start byte, p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(p) / driver.BytesPerSample
	for i := 0; i < n; i++ {
		line := p[i*driver.BytesPerSample:]
		for axis := 0; axis < 6; axis++ {
			v := b.next
			line[axis*2] = byte(v)
			line[axis*2+1] = byte(v >> 8)
		}
		b.next++
	}
	if b.pending > n {
		b.pending -= n
	} else {
		b.pending = 0
	}
	return len(p), nil
}

func (b *fakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func testOpt() *config.FCIMUOpt {
	opt := config.NewFCIMUOpt()
	opt.IMU.PollIntervalMs = 1
	return &opt
}

func newTestManager(b *fakeBus) *lsm9ds1Manager {
	m := NewManager(testOpt()).(*lsm9ds1Manager)
	m.openBus = func(config.IMUOpt) (Transport, error) {
		return b, nil
	}
	return m
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

func TestStartConfiguresDevice(t *testing.T) {
	b := newFakeBus(0)
	m := newTestManager(b)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	if !m.Running() {
		t.Error("manager not running after Start")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if got := b.regs[driver.RegCtrl1G] >> 5; got != 0b011 {
		t.Errorf("ODR bits = %#03b, want 119hz (0b011)", got)
	}
	if b.regs[driver.RegCtrl9]&0b10 == 0 {
		t.Error("FIFO_EN not set")
	}
	if got := b.regs[driver.RegFIFOCtrl] >> 5; got != 0b110 {
		t.Errorf("FIFO mode bits = %#03b, want continuous (0b110)", got)
	}
	if got := b.regs[driver.RegFIFOCtrl] & 0b11111; got != config.DefaultFIFOThreshold {
		t.Errorf("FIFO threshold = %d, want %d", got, config.DefaultFIFOThreshold)
	}
}

func TestStartRejectsForeignChip(t *testing.T) {
	b := newFakeBus(0)
	b.regs[driver.RegWhoAmI] = 0x71
	m := newTestManager(b)
	if err := m.Start(); err == nil {
		t.Fatal("Start accepted a foreign chip id")
	}
	if !b.closed {
		t.Error("bus left open after failed Start")
	}
}

func TestReadCursorSemantics(t *testing.T) {
	b := newFakeBus(5)
	m := newTestManager(b)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	waitFor(t, func() bool {
		m.lock.RLock()
		defer m.lock.RUnlock()
		return m.counter >= 5
	})

	cursor, res, err := m.Read(-1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 {
		t.Fatalf("Read(-1) returned %d readings, want 1", len(res))
	}
	if cursor != 4 {
		t.Errorf("cursor = %d, want 4", cursor)
	}

	// replay from sample 1 to the head
	cursor, res, err = m.Read(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 4 {
		t.Fatalf("Read(1) returned %d readings, want 4", len(res))
	}
	for i, r := range res {
		if r.Seq != uint64(1+i) {
			t.Errorf("reading %d has seq %d, want %d", i, r.Seq, 1+i)
		}
	}

	if _, _, err = m.Read(cursor); err == nil {
		t.Error("Read at head did not report no new data")
	}
}

func TestReadNotReady(t *testing.T) {
	m := newTestManager(newFakeBus(0))
	if _, _, err := m.Read(-1); err == nil {
		t.Error("Read on idle manager did not fail")
	}
}

func TestFIFOStatusSnapshot(t *testing.T) {
	b := newFakeBus(0)
	m := newTestManager(b)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	b.mu.Lock()
	b.pending = 7
	b.mu.Unlock()

	st, err := m.FIFOStatus()
	if err != nil {
		t.Fatal(err)
	}
	// the poll goroutine may have drained in between, so accept empty
	if st.Samples != 7 && st.Samples != 0 {
		t.Errorf("FIFO samples = %d, want 7 or 0", st.Samples)
	}
}

func TestStopReleasesBus(t *testing.T) {
	b := newFakeBus(0)
	m := newTestManager(b)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if err := m.Stop(); err != nil {
		t.Fatal(err)
	}
	if m.Running() {
		t.Error("manager running after Stop")
	}
	if !m.ManuallyStopped() {
		t.Error("ManuallyStopped false after Stop")
	}
	if !b.closed {
		t.Error("bus left open after Stop")
	}
	// idempotent
	if err := m.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestProbeDevScansAddresses(t *testing.T) {
	var opened []int
	m := NewManager(testOpt()).(*lsm9ds1Manager)
	m.openBus = func(opt config.IMUOpt) (Transport, error) {
		opened = append(opened, opt.Addr)
		b := newFakeBus(0)
		if opt.Addr != 0x6B {
			b.regs[driver.RegWhoAmI] = 0x00
		}
		return b, nil
	}

	found, err := m.ProbeDev()
	if err != nil {
		t.Fatal(err)
	}
	if len(opened) != 2 {
		t.Errorf("probed %d addresses, want 2", len(opened))
	}
	if len(found) != 1 || found[0] != "1:0x6B" {
		t.Errorf("found = %v, want [1:0x6B]", found)
	}
}
