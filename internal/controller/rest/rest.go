package rest

import (
	"net/http"
	"strconv"

	"github.com/donny0101/Base11-FC/internal/manager"
	"github.com/donny0101/Base11-FC/internal/sensor"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Controller struct {
	manager manager.Manager
}

func NewController(m manager.Manager) *Controller {
	return &Controller{manager: m}
}

// InstallRoutes registers the v1 API on the given engine.
func (c *Controller) InstallRoutes(r *gin.Engine) {
	r.GET("/healthz", c.Healthz)
	v1 := r.Group("/api/v1")
	v1.GET("/devices", c.GetDevices)
	v1.GET("/status", c.GetStatus)
	v1.GET("/readings", c.GetReadings)
	v1.POST("/sampling", c.SetSampling)
}

func (c *Controller) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (c *Controller) GetDevices(ctx *gin.Context) {
	devices, err := c.manager.ListDev()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"err":     err.Error(),
			"devices": nil,
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"err":     nil,
		"devices": devices,
	})
}

// GetStatus reports the manager state plus a fresh FIFO snapshot when
// the device is up.
func (c *Controller) GetStatus(ctx *gin.Context) {
	resp := gin.H{
		"running":          c.manager.Running(),
		"faulted":          c.manager.Faulted(),
		"manually_stopped": c.manager.ManuallyStopped(),
	}
	if c.manager.Running() {
		st, err := c.manager.FIFOStatus()
		if err != nil {
			resp["fifo_err"] = err.Error()
		} else {
			resp["fifo"] = st
		}
	}
	ctx.JSON(http.StatusOK, resp)
}

type readingJSON struct {
	Seq      uint64   `json:"seq"`
	SysTicks int64    `json:"sys_ticks"`
	Gyro     [3]int16 `json:"gyro"`
	Acc      [3]int16 `json:"acc"`
}

func packReading(r *sensor.IMUReadingWrapped) readingJSON {
	return readingJSON{
		Seq:      r.Seq,
		SysTicks: r.SysTicks,
		Gyro:     [3]int16{r.Gyro.X, r.Gyro.Y, r.Gyro.Z},
		Acc:      [3]int16{r.Acc.X, r.Acc.Y, r.Acc.Z},
	}
}

// GetReadings returns readings after ?cursor=N, or the latest reading
// when the cursor is absent or negative.
func (c *Controller) GetReadings(ctx *gin.Context) {
	cursor := int64(-1)
	if s := ctx.Query("cursor"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"err": "invalid cursor: " + s})
			return
		}
		cursor = v
	}

	if !c.manager.Running() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"err": "sampling is not running"})
		return
	}

	next, readings, err := c.manager.Read(cursor)
	if err != nil {
		ctx.JSON(http.StatusOK, gin.H{
			"err":      err.Error(),
			"cursor":   cursor,
			"readings": nil,
		})
		return
	}

	packed := make([]readingJSON, len(readings))
	for i, r := range readings {
		packed[i] = packReading(r)
	}
	ctx.JSON(http.StatusOK, gin.H{
		"err":      nil,
		"cursor":   next,
		"readings": packed,
	})
}

type samplingRequest struct {
	Enabled bool `json:"enabled"`
}

// SetSampling starts or stops acquisition
func (c *Controller) SetSampling(ctx *gin.Context) {
	req := samplingRequest{}
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	log.Infof("SetSampling: %v", req.Enabled)

	var err error
	if req.Enabled {
		err = c.manager.Start()
	} else {
		err = c.manager.Stop()
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"running": c.manager.Running(),
			"err":     err.Error(),
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"running": c.manager.Running(),
		"err":     nil,
	})
}
