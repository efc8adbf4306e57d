package detect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/roomwatch/go-roomwatch/internal/log"
)

// PipelineConfig configures the detection pipeline.
type PipelineConfig struct {
	CameraID      int
	FrameInterval time.Duration // time between processed frames
	MatchIoU      float64       // minimum IoU to keep a track alive
	MaxMissing    int           // drop a track after this many missed frames
}

// DefaultPipelineConfig returns production defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		CameraID:      0,
		FrameInterval: 100 * time.Millisecond,
		MatchIoU:      0.3,
		MaxMissing:    5,
	}
}

// Pipeline pumps camera frames through the person and face detectors and
// maintains the tracked-object view the scanner consumes. It is the
// production Source implementation.
type Pipeline struct {
	camera *gocv.VideoCapture
	people *PersonDetector
	faces  *FaceDetector
	cfg    PipelineConfig

	mu       sync.RWMutex
	tracks   *trackSet
	faceDets []Face
	lastJPEG []byte
	frameSeq uint64
}

// NewPipeline opens the camera and wires the detectors.
func NewPipeline(cfg PipelineConfig, people *PersonDetector, faces *FaceDetector) (*Pipeline, error) {
	if cfg.FrameInterval <= 0 {
		return nil, fmt.Errorf("non-positive frame interval %v", cfg.FrameInterval)
	}
	camera, err := gocv.OpenVideoCapture(cfg.CameraID)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.CameraID, err)
	}
	return &Pipeline{
		camera: camera,
		people: people,
		faces:  faces,
		cfg:    cfg,
		tracks: newTrackSet(cfg.MatchIoU, cfg.MaxMissing),
	}, nil
}

// Run processes frames until ctx is cancelled. Frame read failures are
// logged and skipped; the camera owns its own recovery.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.FrameInterval)
	defer ticker.Stop()

	frame := gocv.NewMat()
	defer frame.Close()

	log.Info("detection pipeline started", "camera", p.cfg.CameraID)

	for {
		select {
		case <-ctx.Done():
			log.Info("detection pipeline stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := p.processFrame(&frame); err != nil {
				log.Warn("frame processing failed", "error", err)
			}
		}
	}
}

func (p *Pipeline) processFrame(frame *gocv.Mat) error {
	if ok := p.camera.Read(frame); !ok || frame.Empty() {
		return fmt.Errorf("camera read failed")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	jpeg := buf.GetBytes()
	defer buf.Close()

	people, err := p.people.Detect(jpeg)
	if err != nil {
		return fmt.Errorf("person detection: %w", err)
	}

	var faces []Face
	if p.faces != nil {
		faces, err = p.faces.Detect(jpeg)
		if err != nil {
			// Faces are advisory; a failed face pass does not invalidate
			// the person detections.
			log.Debug("face detection failed", "error", err)
			faces = nil
		}
	}

	p.mu.Lock()
	p.tracks.observe(people)
	p.faceDets = faces
	p.mu.Unlock()

	p.storeFrame(jpeg)
	return nil
}

// storeFrame keeps a copy of the encoded frame for the dashboard camera
// stream. The copy matters: the source buffer is released when the
// frame's native buffer closes.
func (p *Pipeline) storeFrame(jpeg []byte) {
	frame := make([]byte, len(jpeg))
	copy(frame, jpeg)

	p.mu.Lock()
	p.lastJPEG = frame
	p.frameSeq++
	p.mu.Unlock()
}

// LatestFrame returns the most recent JPEG-encoded camera frame and its
// sequence number. The sequence lets pollers skip frames they have
// already shipped. Nil with sequence 0 before the first frame.
func (p *Pipeline) LatestFrame() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastJPEG == nil {
		return nil, 0
	}
	out := make([]byte, len(p.lastJPEG))
	copy(out, p.lastJPEG)
	return out, p.frameSeq
}

// TrackedObjects returns a snapshot of the currently tracked objects.
func (p *Pipeline) TrackedObjects() []TrackedObject {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tracks.snapshot()
}

// FaceDetections returns the face detections from the latest frame.
func (p *Pipeline) FaceDetections() []Face {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Face, len(p.faceDets))
	copy(out, p.faceDets)
	return out
}

// ClearTracked drops all tracks, forcing persistence to rebuild. The
// scanner calls this after large servo moves so stale boxes from the old
// viewpoint cannot satisfy the persistence filter.
func (p *Pipeline) ClearTracked() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracks.clear()
	p.faceDets = nil
}

// Close releases the camera and detector resources.
func (p *Pipeline) Close() error {
	var firstErr error
	if err := p.camera.Close(); err != nil {
		firstErr = err
	}
	if p.people != nil {
		if err := p.people.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.faces != nil {
		if err := p.faces.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Source = (*Pipeline)(nil)
