package actuator

import "sync"

// Command records a single SetAngle invocation.
type Command struct {
	Axis    Axis
	Degrees float64
}

// Mock implements Actuator for testing. It records every command and
// optionally fails via SetAngleErr.
type Mock struct {
	// SetAngleErr, if non-nil, is returned by every SetAngle call.
	SetAngleErr error

	mu       sync.Mutex
	angles   map[Axis]float64
	commands []Command
}

// NewMock creates a mock actuator with both axes at 90°.
func NewMock() *Mock {
	return &Mock{
		angles: map[Axis]float64{Pan: 90.0, Tilt: 90.0},
	}
}

// SetAngle records the command and updates the stored angle.
func (m *Mock) SetAngle(axis Axis, degrees float64) error {
	if m.SetAngleErr != nil {
		return m.SetAngleErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.angles[axis] = degrees
	m.commands = append(m.commands, Command{Axis: axis, Degrees: degrees})
	return nil
}

// GetAngle returns the last commanded angle.
func (m *Mock) GetAngle(axis Axis) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.angles[axis], nil
}

// Commands returns a copy of all recorded commands.
func (m *Mock) Commands() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.commands))
	copy(out, m.commands)
	return out
}

// CommandCount returns how many SetAngle calls were made.
func (m *Mock) CommandCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.commands)
}

// Reset clears the recorded commands.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = nil
}

var _ Actuator = (*Mock)(nil)
var _ Actuator = (*HTTPActuator)(nil)
