// Package lsm9ds1 drives the accelerometer/gyroscope half of ST's
// LSM9DS1 iNEMO module over a register bus. The datasheet can be found
// here: https://www.st.com/resource/en/datasheet/lsm9ds1.pdf
package lsm9ds1

import "fmt"

// Accel/gyro register map, datasheet table 21.
const (
	RegActThs       byte = 0x04
	RegActDur       byte = 0x05
	RegIntGenCfgXL  byte = 0x06
	RegIntGenThsXXL byte = 0x07
	RegIntGenThsYXL byte = 0x08
	RegIntGenThsZXL byte = 0x09
	RegIntGenDurXL  byte = 0x0A
	RegReferenceG   byte = 0x0B
	RegInt1Ctrl     byte = 0x0C
	RegInt2Ctrl     byte = 0x0D
	RegWhoAmI       byte = 0x0F
	RegCtrl1G       byte = 0x10
	RegCtrl2G       byte = 0x11
	RegCtrl3G       byte = 0x12
	RegOrientCfgG   byte = 0x13
	RegIntGenSrcG   byte = 0x14
	RegOutTempL     byte = 0x15
	RegOutTempH     byte = 0x16
	RegStatus       byte = 0x17
	RegOutXLG       byte = 0x18 // first FIFO output register, bursts start here
	RegOutXHG       byte = 0x19
	RegOutYLG       byte = 0x1A
	RegOutYHG       byte = 0x1B
	RegOutZLG       byte = 0x1C
	RegOutZHG       byte = 0x1D
	RegCtrl4        byte = 0x1E
	RegCtrl5XL      byte = 0x1F
	RegCtrl6XL      byte = 0x20
	RegCtrl7XL      byte = 0x21
	RegCtrl8        byte = 0x22
	RegCtrl9        byte = 0x23
	RegCtrl10       byte = 0x24
	RegIntGenSrcXL  byte = 0x26
	RegStatus2      byte = 0x27
	RegOutXLXL      byte = 0x28
	RegOutXHXL      byte = 0x29
	RegOutYLXL      byte = 0x2A
	RegOutYHXL      byte = 0x2B
	RegOutZLXL      byte = 0x2C
	RegOutZHXL      byte = 0x2D
	RegFIFOCtrl     byte = 0x2E
	RegFIFOSrc      byte = 0x2F
	RegIntGenCfgG   byte = 0x30
	RegIntGenThsXHG byte = 0x31
	RegIntGenThsXLG byte = 0x32
	RegIntGenThsYHG byte = 0x33
	RegIntGenThsYLG byte = 0x34
	RegIntGenThsZHG byte = 0x35
	RegIntGenThsZLG byte = 0x36
	RegIntGenDurG   byte = 0x37
)

const (
	// ChipID is the expected WHO_AM_I response for the accel/gyro die.
	ChipID byte = 0x68

	// BytesPerSample is one FIFO line: gyro X/Y/Z then accel X/Y/Z,
	// two bytes per axis.
	BytesPerSample = 12

	// FIFODepth is the hardware sample capacity, which also bounds a
	// drain burst to FIFODepth*BytesPerSample = 372 bytes. The I2C
	// driver ceiling is 8000 bytes per transaction; we never get close.
	FIFODepth = 31

	FIFOThresholdMax = 31
	FIFOThresholdMin = 0
)

// Field locates one value inside a register byte: a right-aligned mask
// and the distance of its LSB from the register's LSB.
type Field struct {
	Mask  byte
	Shift byte
}

// Insert returns reg with the field replaced by v. Bits outside the
// field are preserved. v is masked first, so an out-of-range value can
// never spill into neighbouring fields.
func (f Field) Insert(reg, v byte) byte {
	return (v&f.Mask)<<f.Shift | reg&^(f.Mask<<f.Shift)
}

// Extract returns the field's value from reg, right-aligned.
func (f Field) Extract(reg byte) byte {
	return (reg >> f.Shift) & f.Mask
}

// Writable and status fields. Fields sharing a register must not
// overlap; TestFieldLayout checks this against the table below.
var (
	fieldODR           = Field{Mask: 0b111, Shift: 5}    // CTRL_REG1_G
	fieldGyroScale     = Field{Mask: 0b11, Shift: 3}     // CTRL_REG1_G
	fieldAccelScale    = Field{Mask: 0b11, Shift: 3}     // CTRL_REG6_XL
	fieldSWReset       = Field{Mask: 0b1, Shift: 0}      // CTRL_REG8
	fieldFIFOEnable    = Field{Mask: 0b1, Shift: 1}      // CTRL_REG9
	fieldFIFOMode      = Field{Mask: 0b111, Shift: 5}    // FIFO_CTRL
	fieldFIFOThreshold = Field{Mask: 0b11111, Shift: 0}  // FIFO_CTRL
	fieldFIFOOverrun   = Field{Mask: 0b1, Shift: 6}      // FIFO_SRC
	fieldFIFOThsStatus = Field{Mask: 0b1, Shift: 7}      // FIFO_SRC
	fieldFIFOSamples   = Field{Mask: 0b111111, Shift: 0} // FIFO_SRC
)

// OutputDataRate selects the gyro/accel sampling rate, CTRL_REG1_G
// bits ODR_G[2:0]. Codes are declared explicitly from datasheet table
// 46 rather than inferred from declaration order.
type OutputDataRate byte

const (
	ODRPowerDown OutputDataRate = 0b000
	ODR14Hz9     OutputDataRate = 0b001 // 14.9 Hz
	ODR59Hz5     OutputDataRate = 0b010 // 59.5 Hz
	ODR119Hz     OutputDataRate = 0b011
	ODR238Hz     OutputDataRate = 0b100
	ODR476Hz     OutputDataRate = 0b101
	ODR952Hz     OutputDataRate = 0b110
)

func (r OutputDataRate) Valid() bool {
	return r <= ODR952Hz
}

func (r OutputDataRate) String() string {
	switch r {
	case ODRPowerDown:
		return "off"
	case ODR14Hz9:
		return "14.9hz"
	case ODR59Hz5:
		return "59.5hz"
	case ODR119Hz:
		return "119hz"
	case ODR238Hz:
		return "238hz"
	case ODR476Hz:
		return "476hz"
	case ODR952Hz:
		return "952hz"
	}
	return fmt.Sprintf("OutputDataRate(%d)", byte(r))
}

// AccelScale selects the accelerometer full scale, CTRL_REG6_XL bits
// FS_XL[1:0]. The datasheet assigns 16g to code 0b01, between 2g and
// 4g.
type AccelScale byte

const (
	AccelScale2G  AccelScale = 0b00
	AccelScale16G AccelScale = 0b01
	AccelScale4G  AccelScale = 0b10
	AccelScale8G  AccelScale = 0b11
)

func (s AccelScale) Valid() bool {
	return s <= AccelScale8G
}

func (s AccelScale) String() string {
	switch s {
	case AccelScale2G:
		return "2g"
	case AccelScale16G:
		return "16g"
	case AccelScale4G:
		return "4g"
	case AccelScale8G:
		return "8g"
	}
	return fmt.Sprintf("AccelScale(%d)", byte(s))
}

// GyroScale selects the gyroscope full scale, CTRL_REG1_G bits
// FS_G[1:0]. Code 0b10 is reserved by the hardware and has no constant.
type GyroScale byte

const (
	GyroScale245DPS  GyroScale = 0b00
	GyroScale500DPS  GyroScale = 0b01
	GyroScale2000DPS GyroScale = 0b11
)

func (s GyroScale) Valid() bool {
	switch s {
	case GyroScale245DPS, GyroScale500DPS, GyroScale2000DPS:
		return true
	}
	return false
}

func (s GyroScale) String() string {
	switch s {
	case GyroScale245DPS:
		return "245dps"
	case GyroScale500DPS:
		return "500dps"
	case GyroScale2000DPS:
		return "2000dps"
	}
	return fmt.Sprintf("GyroScale(%d)", byte(s))
}

// FIFOMode selects the FIFO behaviour, FIFO_CTRL bits FMODE[2:0].
// Codes 0b010 and 0b101 are reserved by the hardware.
type FIFOMode byte

const (
	FIFOModeBypass             FIFOMode = 0b000
	FIFOModeFIFO               FIFOMode = 0b001
	FIFOModeContinuousToFIFO   FIFOMode = 0b011
	FIFOModeBypassToContinuous FIFOMode = 0b100
	FIFOModeContinuous         FIFOMode = 0b110
)

func (m FIFOMode) Valid() bool {
	switch m {
	case FIFOModeBypass, FIFOModeFIFO, FIFOModeContinuousToFIFO,
		FIFOModeBypassToContinuous, FIFOModeContinuous:
		return true
	}
	return false
}

func (m FIFOMode) String() string {
	switch m {
	case FIFOModeBypass:
		return "bypass"
	case FIFOModeFIFO:
		return "fifo"
	case FIFOModeContinuousToFIFO:
		return "continuous-to-fifo"
	case FIFOModeBypassToContinuous:
		return "bypass-to-continuous"
	case FIFOModeContinuous:
		return "continuous"
	}
	return fmt.Sprintf("FIFOMode(%d)", byte(m))
}

// ParseOutputDataRate maps a configuration string to an option code.
// Accepted names match String().
func ParseOutputDataRate(s string) (OutputDataRate, error) {
	for _, r := range []OutputDataRate{ODRPowerDown, ODR14Hz9, ODR59Hz5,
		ODR119Hz, ODR238Hz, ODR476Hz, ODR952Hz} {
		if s == r.String() {
			return r, nil
		}
	}
	return 0, fmt.Errorf("lsm9ds1: unknown output data rate %q", s)
}

func ParseAccelScale(s string) (AccelScale, error) {
	for _, v := range []AccelScale{AccelScale2G, AccelScale4G,
		AccelScale8G, AccelScale16G} {
		if s == v.String() {
			return v, nil
		}
	}
	return 0, fmt.Errorf("lsm9ds1: unknown accelerometer scale %q", s)
}

func ParseGyroScale(s string) (GyroScale, error) {
	for _, v := range []GyroScale{GyroScale245DPS, GyroScale500DPS,
		GyroScale2000DPS} {
		if s == v.String() {
			return v, nil
		}
	}
	return 0, fmt.Errorf("lsm9ds1: unknown gyroscope scale %q", s)
}

func ParseFIFOMode(s string) (FIFOMode, error) {
	for _, v := range []FIFOMode{FIFOModeBypass, FIFOModeFIFO,
		FIFOModeContinuousToFIFO, FIFOModeBypassToContinuous,
		FIFOModeContinuous} {
		if s == v.String() {
			return v, nil
		}
	}
	return 0, fmt.Errorf("lsm9ds1: unknown FIFO mode %q", s)
}
