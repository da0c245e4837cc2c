package config

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/donny0101/Base11-FC/internal/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"os"
	"path"
	"strings"
)

const DefaultAppName = "fcimu"
const DefaultConfigName = "config"
const DefaultAPIInterface = "0.0.0.0"
const DefaultAPIPort = 18889
const DefaultI2CBus = "1"
const DefaultI2CAddr = 0x6B
const DefaultOutputDataRate = "119hz"
const DefaultAccelScale = "8g"
const DefaultGyroScale = "245dps"
const DefaultFIFOMode = "continuous"
const DefaultFIFOThreshold = 24
const DefaultPollIntervalMs = 10
const DefaultTelemetryPort = "/dev/ttyAMA0"
const DefaultTelemetryBaud = 115200

var userHomeDir, _ = os.UserHomeDir()
var DefaultConfig = path.Join(userHomeDir, ".config/"+DefaultAppName+"/"+DefaultConfigName+".yaml")
var DefaultConfigSearchPath0 = path.Join(userHomeDir, ".config", DefaultAppName)

const DefaultConfigSearchPath1 = "/etc/" + DefaultAppName
const DefaultConfigSearchPath2 = "./"
const DefaultConfigSearchPath3 = "/config"

type APIOpt struct {
	Port      int    `yaml:"port"`
	Interface string `yaml:"interface"`
}

type IMUOpt struct {
	Bus            string `yaml:"bus"`
	Addr           int    `yaml:"addr"`
	ODR            string `yaml:"odr"`
	AccelScale     string `yaml:"accel_scale"`
	GyroScale      string `yaml:"gyro_scale"`
	FIFOMode       string `yaml:"fifo_mode"`
	FIFOThreshold  int    `yaml:"fifo_threshold"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
}

type TelemetryOpt struct {
	Enabled bool   `yaml:"enabled"`
	Port    string `yaml:"port"`
	Baud    int    `yaml:"baud"`
}

type FCIMUOpt struct {
	API       APIOpt       `yaml:"api"`
	IMU       IMUOpt       `yaml:"imu"`
	Telemetry TelemetryOpt `yaml:"telemetry"`
	Debug     bool         `yaml:"debug"`
}

type FCIMUDesc struct {
	Opt   FCIMUOpt
	Viper *viper.Viper
}

func NewFCIMUDesc() FCIMUDesc {
	return FCIMUDesc{
		Opt:   NewFCIMUOpt(),
		Viper: nil,
	}
}

func NewFCIMUOpt() FCIMUOpt {
	return FCIMUOpt{
		API: APIOpt{
			Port:      DefaultAPIPort,
			Interface: DefaultAPIInterface,
		},
		IMU: IMUOpt{
			Bus:            DefaultI2CBus,
			Addr:           DefaultI2CAddr,
			ODR:            DefaultOutputDataRate,
			AccelScale:     DefaultAccelScale,
			GyroScale:      DefaultGyroScale,
			FIFOMode:       DefaultFIFOMode,
			FIFOThreshold:  DefaultFIFOThreshold,
			PollIntervalMs: DefaultPollIntervalMs,
		},
		Telemetry: TelemetryOpt{
			Enabled: false,
			Port:    DefaultTelemetryPort,
			Baud:    DefaultTelemetryBaud,
		},
		Debug: false,
	}
}

func (o *FCIMUDesc) Parse(cmd *cobra.Command) error {
	vipCfg := viper.New()
	vipCfg.SetDefault("api.port", DefaultAPIPort)
	vipCfg.SetDefault("api.interface", DefaultAPIInterface)
	vipCfg.SetDefault("imu.bus", DefaultI2CBus)
	vipCfg.SetDefault("imu.addr", DefaultI2CAddr)
	vipCfg.SetDefault("imu.odr", DefaultOutputDataRate)
	vipCfg.SetDefault("imu.accel_scale", DefaultAccelScale)
	vipCfg.SetDefault("imu.gyro_scale", DefaultGyroScale)
	vipCfg.SetDefault("imu.fifo_mode", DefaultFIFOMode)
	vipCfg.SetDefault("imu.fifo_threshold", DefaultFIFOThreshold)
	vipCfg.SetDefault("imu.poll_interval_ms", DefaultPollIntervalMs)
	vipCfg.SetDefault("telemetry.enabled", false)
	vipCfg.SetDefault("telemetry.port", DefaultTelemetryPort)
	vipCfg.SetDefault("telemetry.baud", DefaultTelemetryBaud)
	vipCfg.SetDefault("debug", false)

	if configFileCmd, err := cmd.Flags().GetString("config"); err == nil && configFileCmd != "" {
		vipCfg.SetConfigFile(configFileCmd)
	} else {
		configFileEnv := os.Getenv("FCIMU_CONFIG")
		if configFileEnv != "" {
			vipCfg.SetConfigFile(configFileEnv)
		} else {
			vipCfg.SetConfigName(DefaultConfigName)
			vipCfg.SetConfigType("yaml")
			vipCfg.AddConfigPath(DefaultConfigSearchPath0)
			vipCfg.AddConfigPath(DefaultConfigSearchPath1)
			vipCfg.AddConfigPath(DefaultConfigSearchPath2)
			vipCfg.AddConfigPath(DefaultConfigSearchPath3)
		}
	}
	vipCfg.WatchConfig()

	vipCfg.SetEnvPrefix(DefaultAppName)
	vipCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vipCfg.AutomaticEnv()

	_ = vipCfg.BindPFlag("api.port", cmd.Flags().Lookup("port"))
	_ = vipCfg.BindPFlag("api.interface", cmd.Flags().Lookup("interface"))
	_ = vipCfg.BindPFlag("debug", cmd.Flags().Lookup("debug"))

	// If a config file is found, read it in.
	if err := vipCfg.ReadInConfig(); err == nil {
		log.Debugln("using config file:", vipCfg.ConfigFileUsed())
	} else {
		log.Warnln(err)
	}

	if err := vipCfg.Unmarshal(&o.Opt); err != nil {
		log.Fatalln("failed to unmarshal config")
		os.Exit(1)
	}

	o.Viper = vipCfg
	return nil
}

func (o *FCIMUDesc) PostParse() {
	if o.Opt.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func (o *FCIMUDesc) SaveConfig() error {
	if o.Viper == nil {
		return errors.New("viper is nil")
	}
	f, err := os.OpenFile(o.Viper.ConfigFileUsed(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	defer func() { _ = f.Close() }()
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	s, _ := yaml.Marshal(o.Opt)
	_, err = w.Write(s)
	if err != nil {
		return err
	}
	_ = w.Flush()
	return nil
}

// InitCfg prepares a config template for the application
func InitCfg(cmd *cobra.Command, _ []string) error {
	printFlag, _ := cmd.Flags().GetBool("print")
	outputPath, _ := cmd.Flags().GetString("output")
	overwriteFlag, _ := cmd.Flags().GetBool("yes")

	desc := NewFCIMUDesc()
	err := desc.Parse(cmd)
	if err != nil {
		log.Errorln(err)
		return err
	}

	if printFlag {
		configBuffer, _ := yaml.Marshal(desc.Opt)
		fmt.Println(string(configBuffer))
	} else {
		utils.DumpOption(desc.Opt, outputPath, overwriteFlag)
	}
	return nil
}
