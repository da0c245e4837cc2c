package sensor

// Vector3 is a 3-axis sample in raw sensor counts. Unit conversion is
// left to the consumer.
type Vector3 struct {
	X int16
	Y int16
	Z int16
}

// IMUReading is one decoded FIFO sample: simultaneous angular rate and
// linear acceleration. Never mutated after the decoder builds it.
type IMUReading struct {
	Gyro Vector3
	Acc  Vector3
}

type IMUReadingWrapped struct {
	IMUReading
	Seq      uint64
	SysTicks int64
}

// PollingSensor drains the device on demand. Poll blocks for the bus
// transactions it issues and surfaces any transport fault.
type PollingSensor interface {
	Poll() error
}

// IMU hands out decoded readings in acquisition order.
type IMU interface {
	HasNext() bool
	Next() (IMUReading, bool)
}
