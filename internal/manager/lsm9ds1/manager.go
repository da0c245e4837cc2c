package lsm9ds1

import (
	"context"
	"errors"
	"fmt"
	"github.com/donny0101/Base11-FC/internal/bus"
	"github.com/donny0101/Base11-FC/internal/config"
	"github.com/donny0101/Base11-FC/internal/manager"
	"github.com/donny0101/Base11-FC/internal/sensor"
	driver "github.com/donny0101/Base11-FC/internal/sensor/lsm9ds1"
	log "github.com/sirupsen/logrus"
	"math"
	"sync"
	"time"
)

const BufLen = 1024

// candidateAddrs are the two I2C addresses the accel/gyro die can
// strap to (SDO_A/G low or high).
var candidateAddrs = []uint16{0x6A, 0x6B}

const resetSettleTime = 10 * time.Millisecond

// Transport is what the manager needs from a bus handle: the register
// transport plus teardown.
type Transport interface {
	bus.Transport
	Close() error
}

type lsm9ds1Manager struct {
	opt              *config.FCIMUOpt
	openBus          func(opt config.IMUOpt) (Transport, error)
	tr               Transport
	dev              *driver.Device
	ringBuffer       []*sensor.IMUReadingWrapped
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	lock             sync.RWMutex
	counter          int64
	seq              uint64
	manuallyStopped  bool
	faulted          bool
	lastAccessSecond int64
}

func openI2C(opt config.IMUOpt) (Transport, error) {
	return bus.Open(opt.Bus, uint16(opt.Addr))
}

// ProbeDev scans the candidate addresses on the configured bus for a
// responding LSM9DS1.
func (m *lsm9ds1Manager) ProbeDev() ([]string, error) {
	var found []string
	for _, addr := range candidateAddrs {
		tr, err := m.openBus(config.IMUOpt{Bus: m.opt.IMU.Bus, Addr: int(addr)})
		if err != nil {
			return nil, err
		}
		err = driver.New(tr).Probe()
		_ = tr.Close()
		if err != nil {
			log.Debugf("no LSM9DS1 at 0x%02X: %v", addr, err)
			continue
		}
		found = append(found, fmt.Sprintf("%s:0x%02X", m.opt.IMU.Bus, addr))
	}

	if len(found) == 0 {
		return nil, errors.New("no LSM9DS1 found on bus " + m.opt.IMU.Bus)
	}
	return found, nil
}

const autoSleepDurationSecond = 60

func (m *lsm9ds1Manager) TrySleep() error {
	var err error = nil
	if m.Running() && (time.Now().Unix()-m.lastAccessSecond > autoSleepDurationSecond) {
		log.Infof("timeout after %v seconds, enter sleep mode", autoSleepDurationSecond)
		m.lastAccessSecond = math.MaxInt64
		err := m.Stop()
		if err != nil {
			log.Errorln(err)
		}
	}
	return err
}

// ListDev returns the attached device in bus:addr form
func (m *lsm9ds1Manager) ListDev() ([]string, error) {
	m.lastAccessSecond = time.Now().Unix()

	if !m.Running() {
		return nil, nil
	}
	return []string{fmt.Sprintf("%s:0x%02X", m.opt.IMU.Bus, m.opt.IMU.Addr)}, nil
}

func (m *lsm9ds1Manager) Running() bool {
	return m.dev != nil && !m.faulted
}

func (m *lsm9ds1Manager) Faulted() bool {
	return m.faulted
}

func (m *lsm9ds1Manager) ManuallyStopped() bool {
	return m.manuallyStopped
}

// FIFOStatus queries the device's buffer state fresh; nothing is
// cached between calls.
func (m *lsm9ds1Manager) FIFOStatus() (manager.FIFOStatus, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.lastAccessSecond = time.Now().Unix()

	if m.dev == nil {
		return manager.FIFOStatus{}, errors.New("not running")
	}
	samples, err := m.dev.SamplesInFIFO()
	if err != nil {
		return manager.FIFOStatus{}, err
	}
	overrun, err := m.dev.FIFOOverrun()
	if err != nil {
		return manager.FIFOStatus{}, err
	}
	reached, err := m.dev.FIFOThresholdReached()
	if err != nil {
		return manager.FIFOStatus{}, err
	}
	return manager.FIFOStatus{
		Samples:          samples,
		Overrun:          overrun,
		ThresholdReached: reached,
	}, nil
}

// configure brings the device from reset into the configured sampling
// state. Option strings come straight from the config file.
func (m *lsm9ds1Manager) configure(dev *driver.Device) error {
	odr, err := driver.ParseOutputDataRate(m.opt.IMU.ODR)
	if err != nil {
		return err
	}
	accScale, err := driver.ParseAccelScale(m.opt.IMU.AccelScale)
	if err != nil {
		return err
	}
	gyrScale, err := driver.ParseGyroScale(m.opt.IMU.GyroScale)
	if err != nil {
		return err
	}
	mode, err := driver.ParseFIFOMode(m.opt.IMU.FIFOMode)
	if err != nil {
		return err
	}

	if err := dev.Reset(); err != nil {
		return err
	}
	time.Sleep(resetSettleTime)

	if err := dev.SetOutputDataRate(odr); err != nil {
		return err
	}
	if err := dev.SetAccelScale(accScale); err != nil {
		return err
	}
	if err := dev.SetGyroScale(gyrScale); err != nil {
		return err
	}
	if err := dev.SetFIFOEnabled(true); err != nil {
		return err
	}
	if err := dev.SetFIFOMode(mode); err != nil {
		return err
	}
	return dev.SetFIFOThreshold(m.opt.IMU.FIFOThreshold)
}

// pollLoop drains the device FIFO on a fixed cadence and moves decoded
// readings into the ring buffer. A transport fault latches the manager
// faulted and ends the loop; the Daemon decides what happens next.
func (m *lsm9ds1Manager) pollLoop() {
	defer m.wg.Done()

	interval := time.Duration(m.opt.IMU.PollIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = config.DefaultPollIntervalMs * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// diagnose variables
	diagLastCheck := time.Now().UnixMilli()
	diagLastCounter := m.counter

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
		}

		m.lock.Lock()
		if m.dev == nil {
			m.lock.Unlock()
			return
		}
		err := m.dev.Poll()
		if err != nil {
			m.faulted = true
			m.lock.Unlock()
			log.Errorf("fifo drain failed: %v", err)
			return
		}
		for {
			r, ok := m.dev.Next()
			if !ok {
				break
			}
			m.ringBuffer[m.counter%BufLen] = &sensor.IMUReadingWrapped{
				IMUReading: r,
				Seq:        m.seq,
				SysTicks:   time.Now().UnixNano(),
			}
			m.seq++
			m.counter++
		}
		m.lock.Unlock()

		diagDuration := float64(time.Now().UnixMilli()-diagLastCheck) / 1000
		if diagDuration >= 10 {
			log.Debugf("pollLoop sps: %3.1f", float64(m.counter-diagLastCounter)/diagDuration)
			diagLastCounter = m.counter
			diagLastCheck = time.Now().UnixMilli()
		}
	}
}

// Start opens the bus, verifies and configures the device, then starts
// the poll goroutine
func (m *lsm9ds1Manager) Start() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.lastAccessSecond = time.Now().Unix()
	log.Infof("manager started")

	if m.dev == nil {
		tr, err := m.openBus(m.opt.IMU)
		if err != nil {
			return err
		}
		dev := driver.New(tr)
		if err := dev.Probe(); err != nil {
			_ = tr.Close()
			return err
		}
		if err := m.configure(dev); err != nil {
			_ = tr.Close()
			return err
		}

		m.ctx, m.cancel = context.WithCancel(context.Background())
		m.tr = tr
		m.dev = dev
		m.faulted = false
		m.wg.Add(1)
		go m.pollLoop()
	}
	m.manuallyStopped = false
	return nil
}

// Stop halts the poll goroutine and releases the bus
func (m *lsm9ds1Manager) Stop() error {
	m.lock.Lock()
	m.lastAccessSecond = time.Now().Unix()

	if m.dev == nil {
		m.lock.Unlock()
		return nil
	}
	m.cancel()
	m.lock.Unlock()
	m.wg.Wait()

	m.lock.Lock()
	defer m.lock.Unlock()
	log.Infof("manager stopped")
	err := m.tr.Close()
	m.tr = nil
	m.dev = nil
	m.manuallyStopped = true
	m.counter = 0
	m.seq = 0
	m.ringBuffer = make([]*sensor.IMUReadingWrapped, BufLen)
	return err
}

// Restart restarts the sensor manager
func (m *lsm9ds1Manager) Restart() error {
	err := m.Stop()
	if err != nil {
		return err
	}
	return m.Start()
}

// Read returns readings after the given cursor, or the latest reading
// when cursor is negative. The returned cursor feeds the next call.
func (m *lsm9ds1Manager) Read(cursor int64) (int64, []*sensor.IMUReadingWrapped, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	m.lastAccessSecond = time.Now().Unix()

	if cursor < 0 {
		cursor = m.counter - 1
		if cursor < 0 {
			return cursor, nil, errors.New("not ready")
		}
		res := make([]*sensor.IMUReadingWrapped, 1)
		res[0] = m.ringBuffer[cursor%BufLen]
		return cursor, res, nil
	}

	if cursor+1 >= m.counter {
		return cursor, nil, errors.New("no new data")
	}
	stop := m.counter
	if stop-cursor >= BufLen {
		// fell behind by more than the buffer, skip forward
		cursor = m.counter - 1
	}
	res := make([]*sensor.IMUReadingWrapped, 0, stop-cursor)
	for ; cursor < stop; cursor++ {
		res = append(res, m.ringBuffer[cursor%BufLen])
	}

	if len(res) == 0 {
		return cursor, nil, errors.New("no new data")
	}
	return cursor, res, nil
}

func NewManager(opt *config.FCIMUOpt) manager.Manager {
	return &lsm9ds1Manager{
		opt:              opt,
		openBus:          openI2C,
		ringBuffer:       make([]*sensor.IMUReadingWrapped, BufLen),
		lastAccessSecond: time.Now().Unix(),
	}
}

func Daemon(m manager.Manager) {
	for {
		if m.Faulted() {
			log.Infoln("status is faulted, restarting")
			err := m.Restart()
			if err != nil {
				log.Errorln(err)
			}
		}
		if !m.Running() && !m.ManuallyStopped() {
			err := m.Start()
			if err != nil {
				log.Errorln(err)
				time.Sleep(time.Second * 1)
				continue
			}
		}
		time.Sleep(time.Second * 1)
		_ = m.TrySleep()
	}
}
