package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	err      error
	calls    int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence makes Detect return one entry per call, in order.
// Once exhausted, Detect returns no hands.
func (m *MockDetector) SetSequence(seq [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = seq
	m.hands = nil
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.sequence != nil {
		if len(m.sequence) == 0 {
			return nil, nil
		}
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PoseLandmarks builds a right hand on a mirrored frame whose fingers are
// extended or curled as requested, in thumb, index, middle, ring, pinky order.
func PoseLandmarks(thumb, index, middle, ring, pinky bool) HandLandmarks {
	lm := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point3D{X: 0.50, Y: 0.80}

	// Thumb splays towards smaller x when extended.
	lm.Points[ThumbCMC] = Point3D{X: 0.46, Y: 0.76}
	lm.Points[ThumbMCP] = Point3D{X: 0.43, Y: 0.71}
	lm.Points[ThumbIP] = Point3D{X: 0.40, Y: 0.67}
	if thumb {
		lm.Points[ThumbTip] = Point3D{X: 0.35, Y: 0.64}
	} else {
		lm.Points[ThumbTip] = Point3D{X: 0.45, Y: 0.66}
	}

	fingers := []struct {
		mcp, pip, dip, tip int
		x                  float64
		extended           bool
	}{
		{IndexMCP, IndexPIP, IndexDIP, IndexTip, 0.45, index},
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip, 0.50, middle},
		{RingMCP, RingPIP, RingDIP, RingTip, 0.55, ring},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip, 0.60, pinky},
	}
	for _, f := range fingers {
		lm.Points[f.mcp] = Point3D{X: f.x, Y: 0.66, Z: -0.01}
		lm.Points[f.pip] = Point3D{X: f.x, Y: 0.56, Z: -0.02}
		if f.extended {
			lm.Points[f.dip] = Point3D{X: f.x, Y: 0.48, Z: -0.02}
			lm.Points[f.tip] = Point3D{X: f.x, Y: 0.40, Z: -0.02}
		} else {
			// Curled: the tip folds back below the PIP joint.
			lm.Points[f.dip] = Point3D{X: f.x, Y: 0.60, Z: -0.05}
			lm.Points[f.tip] = Point3D{X: f.x, Y: 0.64, Z: -0.04}
		}
	}

	return lm
}

// HelloLandmarks returns an open palm with the thumb tucked in.
func HelloLandmarks() HandLandmarks {
	return PoseLandmarks(false, true, true, true, true)
}

// GoodbyeLandmarks returns a closed fist.
func GoodbyeLandmarks() HandLandmarks {
	return PoseLandmarks(false, false, false, false, false)
}

// OKLandmarks returns thumb, index and pinky extended.
func OKLandmarks() HandLandmarks {
	return PoseLandmarks(true, true, false, false, true)
}
