package manager

import "github.com/donny0101/Base11-FC/internal/sensor"

// FIFOStatus is a fresh snapshot of the device's hardware buffer,
// queried on demand and never cached.
type FIFOStatus struct {
	Samples          int  `json:"samples"`
	Overrun          bool `json:"overrun"`
	ThresholdReached bool `json:"threshold_reached"`
}

type Manager interface {
	Start() error
	Stop() error
	Restart() error
	Read(int64) (int64, []*sensor.IMUReadingWrapped, error)
	FIFOStatus() (FIFOStatus, error)
	Running() bool
	ManuallyStopped() bool
	Faulted() bool
	ListDev() ([]string, error)
	ProbeDev() ([]string, error)
	TrySleep() error
}
