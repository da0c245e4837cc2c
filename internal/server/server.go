package server

import (
	"fmt"
	"github.com/donny0101/Base11-FC/internal/config"
	"github.com/donny0101/Base11-FC/internal/controller/rest"
	managerImpl "github.com/donny0101/Base11-FC/internal/manager/lsm9ds1"
	"github.com/donny0101/Base11-FC/internal/telemetry"
	"github.com/donny0101/Base11-FC/pkg/version"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"os"
	"strconv"
	"strings"
	"sync"
)

type mainApp struct {
	name string
	cmd  *cobra.Command
	args []string
	opt  *config.FCIMUOpt
}

func (a *mainApp) ProbeSensor() error {
	m := managerImpl.NewManager(a.opt)
	log.Infoln("Probing IMU devices...")
	res, err := m.ProbeDev()
	if err != nil {
		log.Errorln(err)
		return err
	}
	log.Infof("Found %d valid IMU devices: \n", len(res))
	for _, v := range res {
		fmt.Printf("- %s\n", strings.TrimSpace(v))
	}
	return nil
}

func (a *mainApp) GetOpt() *config.FCIMUOpt {
	return a.opt
}

func (a *mainApp) SetOpt(opt *config.FCIMUOpt) { a.opt = opt }

var app MainApp = nil

func (a *mainApp) Run() {
	var once sync.Once
	once.Do(func() {
		app = a
	})

	log.Infoln("version:", version.GitVersion)
	log.Infoln("api.port:", a.opt.API.Port)
	log.Infoln("api.interface:", a.opt.API.Interface)
	log.Infoln("imu.bus:", a.opt.IMU.Bus)
	log.Infof("imu.addr: 0x%02X", a.opt.IMU.Addr)
	log.Infoln("imu.odr:", a.opt.IMU.ODR)
	log.Infoln("telemetry.enabled:", a.opt.Telemetry.Enabled)
	log.Infoln("debug:", a.opt.Debug)

	// start manager
	m := managerImpl.NewManager(a.opt)
	go managerImpl.Daemon(m)

	// start telemetry downlink
	if a.opt.Telemetry.Enabled {
		w, err := telemetry.NewWriter(a.opt.Telemetry)
		if err != nil {
			log.Errorln("telemetry disabled:", err)
		} else {
			go func() {
				defer func() { _ = w.Close() }()
				if err := w.Pump(m); err != nil {
					log.Errorln("telemetry pump exited:", err)
				}
			}()
		}
	}

	// install and start api server
	if !a.opt.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	rest.NewController(m).InstallRoutes(router)

	addr := a.opt.API.Interface + ":" + strconv.Itoa(a.opt.API.Port)
	log.Info("start API listen on ", addr)
	if err := router.Run(addr); err != nil {
		log.Errorln("failed to serve...", err)
		return
	}
}

func (a *mainApp) PrepareRun() MainApp {
	desc := config.NewFCIMUDesc()
	err := desc.Parse(a.cmd)
	if err != nil {
		log.Errorln(err)
		os.Exit(1)
		return nil
	}
	desc.PostParse()
	a.opt = &desc.Opt
	a.name = config.DefaultAppName

	if a.opt.Debug {
		log.SetLevel(log.DebugLevel)
	}

	return a
}

type MainApp interface {
	Run()
	PrepareRun() MainApp
	GetOpt() *config.FCIMUOpt
	SetOpt(*config.FCIMUOpt)
	ProbeSensor() error
}

func NewMainApp(cmd *cobra.Command, args []string) MainApp {
	return &mainApp{
		cmd:  cmd,
		args: args,
	}
}
