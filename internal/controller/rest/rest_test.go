package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/donny0101/Base11-FC/internal/manager"
	"github.com/donny0101/Base11-FC/internal/sensor"
	"github.com/gin-gonic/gin"
)

type stubManager struct {
	running  bool
	faulted  bool
	stopped  bool
	readings []*sensor.IMUReadingWrapped
	started  bool
	haltErr  error
}

func (s *stubManager) Start() error {
	s.started = true
	s.running = true
	return nil
}

func (s *stubManager) Stop() error {
	if s.haltErr != nil {
		return s.haltErr
	}
	s.running = false
	s.stopped = true
	return nil
}

func (s *stubManager) Restart() error { return nil }

func (s *stubManager) Read(cursor int64) (int64, []*sensor.IMUReadingWrapped, error) {
	if len(s.readings) == 0 {
		return cursor, nil, errors.New("not ready")
	}
	if cursor < 0 {
		return int64(len(s.readings) - 1), s.readings[len(s.readings)-1:], nil
	}
	if cursor >= int64(len(s.readings)) {
		return cursor, nil, errors.New("no new data")
	}
	return int64(len(s.readings)), s.readings[cursor:], nil
}

func (s *stubManager) FIFOStatus() (manager.FIFOStatus, error) {
	return manager.FIFOStatus{Samples: 12, ThresholdReached: true}, nil
}

func (s *stubManager) Running() bool         { return s.running }
func (s *stubManager) ManuallyStopped() bool { return s.stopped }
func (s *stubManager) Faulted() bool         { return s.faulted }

func (s *stubManager) ListDev() ([]string, error)  { return []string{"1:0x6B"}, nil }
func (s *stubManager) ProbeDev() ([]string, error) { return nil, nil }
func (s *stubManager) TrySleep() error             { return nil }

func newTestRouter(m manager.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewController(m).InstallRoutes(r)
	return r
}

func doRequest(r *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(&stubManager{})
	w := doRequest(r, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("/healthz = %d", w.Code)
	}
}

func TestGetDevices(t *testing.T) {
	r := newTestRouter(&stubManager{})
	w := doRequest(r, "GET", "/api/v1/devices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Devices []string `json:"devices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Devices) != 1 || resp.Devices[0] != "1:0x6B" {
		t.Errorf("devices = %v", resp.Devices)
	}
}

func TestGetStatusIncludesFIFOSnapshot(t *testing.T) {
	r := newTestRouter(&stubManager{running: true})
	w := doRequest(r, "GET", "/api/v1/status", "")
	var resp struct {
		Running bool                `json:"running"`
		FIFO    *manager.FIFOStatus `json:"fifo"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Running {
		t.Error("running = false")
	}
	if resp.FIFO == nil || resp.FIFO.Samples != 12 || !resp.FIFO.ThresholdReached {
		t.Errorf("fifo snapshot = %+v", resp.FIFO)
	}
}

func TestGetReadings(t *testing.T) {
	m := &stubManager{running: true, readings: []*sensor.IMUReadingWrapped{
		{Seq: 0, IMUReading: sensor.IMUReading{Gyro: sensor.Vector3{X: 1, Y: 2, Z: 3}}},
		{Seq: 1, IMUReading: sensor.IMUReading{Acc: sensor.Vector3{X: 4, Y: 5, Z: 6}}},
	}}
	r := newTestRouter(m)

	w := doRequest(r, "GET", "/api/v1/readings?cursor=0", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Cursor   int64         `json:"cursor"`
		Readings []readingJSON `json:"readings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Readings) != 2 {
		t.Fatalf("readings = %d, want 2", len(resp.Readings))
	}
	if resp.Readings[0].Gyro != [3]int16{1, 2, 3} {
		t.Errorf("gyro = %v", resp.Readings[0].Gyro)
	}
	if resp.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", resp.Cursor)
	}
}

func TestGetReadingsBadCursor(t *testing.T) {
	r := newTestRouter(&stubManager{running: true})
	w := doRequest(r, "GET", "/api/v1/readings?cursor=abc", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetReadingsNotRunning(t *testing.T) {
	r := newTestRouter(&stubManager{})
	w := doRequest(r, "GET", "/api/v1/readings", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestSetSampling(t *testing.T) {
	m := &stubManager{}
	r := newTestRouter(m)

	w := doRequest(r, "POST", "/api/v1/sampling", `{"enabled": true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !m.started {
		t.Error("manager not started")
	}

	w = doRequest(r, "POST", "/api/v1/sampling", `{"enabled": false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !m.stopped {
		t.Error("manager not stopped")
	}
}

func TestSetSamplingStopFailure(t *testing.T) {
	m := &stubManager{running: true, haltErr: errors.New("bus busy")}
	r := newTestRouter(m)
	w := doRequest(r, "POST", "/api/v1/sampling", `{"enabled": false}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
