package detect

import "sync"

// Mock implements Source for testing. Function fields override behavior;
// otherwise the stored snapshots are returned.
type Mock struct {
	// TrackedFunc, if set, is called by TrackedObjects.
	TrackedFunc func() []TrackedObject

	// FacesFunc, if set, is called by FaceDetections.
	FacesFunc func() []Face

	mu      sync.Mutex
	tracked []TrackedObject
	faces   []Face
}

// NewMock creates an empty mock source.
func NewMock() *Mock {
	return &Mock{}
}

// SetTracked replaces the tracked-object snapshot.
func (m *Mock) SetTracked(tracked []TrackedObject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked = tracked
}

// SetFaces replaces the face snapshot.
func (m *Mock) SetFaces(faces []Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// TrackedObjects returns the scripted tracked objects.
func (m *Mock) TrackedObjects() []TrackedObject {
	if m.TrackedFunc != nil {
		return m.TrackedFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TrackedObject, len(m.tracked))
	copy(out, m.tracked)
	return out
}

// FaceDetections returns the scripted faces.
func (m *Mock) FaceDetections() []Face {
	if m.FacesFunc != nil {
		return m.FacesFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Face, len(m.faces))
	copy(out, m.faces)
	return out
}

var _ Source = (*Mock)(nil)
