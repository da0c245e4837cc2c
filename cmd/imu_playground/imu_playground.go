package main

import (
	"fmt"
	"github.com/donny0101/Base11-FC/internal/config"
	"github.com/donny0101/Base11-FC/internal/manager/lsm9ds1"
	"github.com/donny0101/Base11-FC/internal/sensor"
	"github.com/donny0101/Base11-FC/internal/server"
	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"time"
)

var defaultTableValue = [][]string{{"Seq", "Gyro (raw)", "Accel (raw)", "SysTicks"}}

func getTable() *widgets.Table {
	table := widgets.NewTable()
	table.Rows = defaultTableValue
	table.ColumnWidths = []int{12, 26, 26, 22}
	table.TextStyle = ui.NewStyle(ui.ColorWhite)
	table.TextAlignment = ui.AlignRight
	table.SetRect(0, 0, 90, 5)
	return table
}

func getGauge() *widgets.Gauge {
	gauge := widgets.NewGauge()
	gauge.Title = "FIFO fill"
	gauge.SetRect(0, 5, 90, 8)
	gauge.BarColor = ui.ColorGreen
	return gauge
}

func printVector(v sensor.Vector3) string {
	return fmt.Sprintf("%6d, %6d, %6d", v.X, v.Y, v.Z)
}

func updateValue(opt *config.FCIMUOpt, table *widgets.Table, gauge *widgets.Gauge) {
	m := lsm9ds1.NewManager(opt)
	table.Rows = append(table.Rows, []string{"", "", "", ""})

	err := m.Start()
	if err != nil {
		log.Panicln(err)
	}

	for {
		_, res, err := m.Read(-1)
		if err != nil {
			log.Warnln(err)
			time.Sleep(time.Millisecond * 100)
			continue
		}

		latest := res[len(res)-1]
		table.Rows[1] = []string{
			fmt.Sprintf("%d", latest.Seq),
			printVector(latest.Gyro),
			printVector(latest.Acc),
			fmt.Sprintf("%d", latest.SysTicks),
		}

		if st, err := m.FIFOStatus(); err == nil {
			gauge.Percent = st.Samples * 100 / 31
			if st.Overrun {
				gauge.BarColor = ui.ColorRed
			} else {
				gauge.BarColor = ui.ColorGreen
			}
		}

		ui.Render(table, gauge)
		time.Sleep(time.Millisecond * 50)
	}
}

func _main(cmd *cobra.Command, args []string) {
	log.Info("Starting")
	if err := ui.Init(); err != nil {
		log.Fatalf("failed to initialize termui: %v", err)
	}
	defer ui.Close()

	t := getTable()
	g := getGauge()
	opt := server.NewMainApp(cmd, args).PrepareRun().GetOpt()
	go updateValue(opt, t, g)

	uiEvents := ui.PollEvents()
	for {
		e := <-uiEvents
		switch e.ID {
		case "q", "<C-c>":
			return
		}
	}

}

var rootCmd = &cobra.Command{
	Use:   "imu_playground",
	Short: "imu_playground",
	Long:  "imu_playground",
	Run: func(cmd *cobra.Command, args []string) {
		_main(cmd, args)
	},
}

func main() {
	rootCmd.Flags().String("config", "", "default configuration path")
	rootCmd.Flags().Int64P("port", "p", config.DefaultAPIPort, "port that the API server listens on")
	rootCmd.Flags().StringP("interface", "i", config.DefaultAPIInterface, "interface that the API server listens on, default to 0.0.0.0")
	rootCmd.Flags().Bool("debug", false, "toggle debug logging")

	err := rootCmd.Execute()
	if err != nil {
		return
	}
}
