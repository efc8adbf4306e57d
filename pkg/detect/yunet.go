package detect

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// FaceConfig holds face detector configuration.
type FaceConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	InputWidth       int
	InputHeight      int
}

// DefaultFaceConfig returns production defaults for YuNet.
func DefaultFaceConfig() FaceConfig {
	return FaceConfig{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// FaceDetector finds faces in camera frames using OpenCV's FaceDetectorYN.
type FaceDetector struct {
	detector gocv.FaceDetectorYN
	config   FaceConfig
	mu       sync.Mutex
}

// NewFaceDetector creates a YuNet-backed face detector.
func NewFaceDetector(cfg FaceConfig) (*FaceDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		cfg.ConfidenceThresh,
		0.3,  // NMS threshold
		5000, // top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &FaceDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Detect finds faces in the JPEG frame. Boxes are in frame pixels.
func (d *FaceDetector) Detect(jpeg []byte) ([]Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	// Input size follows the actual frame.
	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	// YuNet rows: x, y, w, h, 5 landmark pairs, score at column 14.
	var out []Face
	for r := 0; r < faces.Rows(); r++ {
		out = append(out, Face{
			Box: Box{
				X: float64(faces.GetFloatAt(r, 0)),
				Y: float64(faces.GetFloatAt(r, 1)),
				W: float64(faces.GetFloatAt(r, 2)),
				H: float64(faces.GetFloatAt(r, 3)),
			},
			Confidence: float64(faces.GetFloatAt(r, 14)),
		})
	}
	return out, nil
}

// Close releases the detector resources.
func (d *FaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
