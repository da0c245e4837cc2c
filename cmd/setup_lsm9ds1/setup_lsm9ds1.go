package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/donny0101/Base11-FC/internal/bus"
	"github.com/donny0101/Base11-FC/internal/sensor/lsm9ds1"
)

var logger = log.New(os.Stdout, "lsm9ds1 ", log.LstdFlags)

func configure(dev *lsm9ds1.Device, odr, accScale, gyrScale, mode string, threshold int) error {
	rate, err := lsm9ds1.ParseOutputDataRate(odr)
	if err != nil {
		return err
	}
	acc, err := lsm9ds1.ParseAccelScale(accScale)
	if err != nil {
		return err
	}
	gyr, err := lsm9ds1.ParseGyroScale(gyrScale)
	if err != nil {
		return err
	}
	fifoMode, err := lsm9ds1.ParseFIFOMode(mode)
	if err != nil {
		return err
	}

	if err := dev.Reset(); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)

	if err := dev.SetOutputDataRate(rate); err != nil {
		return err
	}
	if err := dev.SetAccelScale(acc); err != nil {
		return err
	}
	if err := dev.SetGyroScale(gyr); err != nil {
		return err
	}
	if err := dev.SetFIFOEnabled(true); err != nil {
		return err
	}
	if err := dev.SetFIFOMode(fifoMode); err != nil {
		return err
	}
	return dev.SetFIFOThreshold(threshold)
}

func dump(dev *lsm9ds1.Device) error {
	id, err := dev.WhoAmI()
	if err != nil {
		return err
	}
	fmt.Printf("WHO_AM_I      -> 0x%02X\n", id)

	count, err := dev.SamplesInFIFO()
	if err != nil {
		return err
	}
	fmt.Printf("FIFO samples  -> %d\n", count)

	r, err := dev.ReadDirect()
	if err != nil {
		return err
	}
	fmt.Printf("gyro  (raw)   -> %6d %6d %6d\n", r.Gyro.X, r.Gyro.Y, r.Gyro.Z)
	fmt.Printf("accel (raw)   -> %6d %6d %6d\n", r.Acc.X, r.Acc.Y, r.Acc.Z)
	return nil
}

func main() {
	busFlag := flag.String("bus", "1", "The I2C bus to use")
	addrFlag := flag.Int("addr", 0x6B, "The I2C address of the device")
	odrFlag := flag.String("odr", "119hz", "Output data rate (off, 14.9hz, 59.5hz, 119hz, 238hz, 476hz, 952hz)")
	accFlag := flag.String("accel-scale", "8g", "Accelerometer full scale (2g, 4g, 8g, 16g)")
	gyrFlag := flag.String("gyro-scale", "245dps", "Gyroscope full scale (245dps, 500dps, 2000dps)")
	modeFlag := flag.String("fifo-mode", "continuous", "FIFO mode")
	thresholdFlag := flag.Int("fifo-threshold", 24, "FIFO threshold [0, 31]")

	flag.Parse()

	tr, err := bus.Open(*busFlag, uint16(*addrFlag))
	if err != nil {
		logger.Fatal(err)
	}
	defer tr.Close()

	dev := lsm9ds1.New(tr)
	if err := dev.Probe(); err != nil {
		logger.Fatal(err)
	}

	if err := configure(dev, *odrFlag, *accFlag, *gyrFlag, *modeFlag, *thresholdFlag); err != nil {
		logger.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := dump(dev); err != nil {
		logger.Fatal(err)
	}
}
