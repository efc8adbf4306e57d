package actuator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/roomwatch/go-roomwatch/internal/httpc"
)

// httpClient is shared by all HTTPActuator instances. The short timeout
// keeps a wedged servo daemon from stalling the control loop.
var httpClient = httpc.NewClient(2 * time.Second)

// HTTPActuator drives the servo mount through the servo daemon's JSON API.
// This is the production actuator.
type HTTPActuator struct {
	BaseURL string

	mu   sync.Mutex
	last map[Axis]float64
}

// NewHTTP creates an actuator talking to the servo daemon at the given host.
func NewHTTP(host string) *HTTPActuator {
	return &HTTPActuator{
		BaseURL: fmt.Sprintf("http://%s:8000", host),
		last:    make(map[Axis]float64),
	}
}

type angleCommand struct {
	Axis    string  `json:"axis"`
	Degrees float64 `json:"degrees"`
}

// SetAngle commands one axis. Failures propagate to the caller, which owns
// retry policy.
func (a *HTTPActuator) SetAngle(axis Axis, degrees float64) error {
	body, err := json.Marshal(angleCommand{Axis: string(axis), Degrees: degrees})
	if err != nil {
		return fmt.Errorf("marshal angle command: %w", err)
	}

	resp, err := httpClient.Post(a.BaseURL+"/api/servo/angle", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("set %s angle: %w", axis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("set %s angle: daemon returned %s", axis, resp.Status)
	}

	a.mu.Lock()
	a.last[axis] = degrees
	a.mu.Unlock()
	return nil
}

// GetAngle returns the daemon's reported angle for the axis, falling back
// to the last commanded value if the daemon has not reported yet.
func (a *HTTPActuator) GetAngle(axis Axis) (float64, error) {
	resp, err := httpClient.Get(fmt.Sprintf("%s/api/servo/angle?axis=%s", a.BaseURL, axis))
	if err != nil {
		return 0, fmt.Errorf("get %s angle: %w", axis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("get %s angle: daemon returned %s", axis, resp.Status)
	}

	var out struct {
		Degrees *float64 `json:"degrees"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode %s angle: %w", axis, err)
	}
	if out.Degrees == nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.last[axis], nil
	}
	return *out.Degrees, nil
}
