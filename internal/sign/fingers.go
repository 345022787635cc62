package sign

import (
	"strings"

	"github.com/ayusman/signvoice/internal/detector"
)

// Finger indexes a FingerState.
type Finger int

// Fingers in FingerState order.
const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || f >= NumFingers {
		return "unknown"
	}
	return fingerNames[f]
}

// tip and base landmarks compared per finger.
var (
	fingerTips  = [NumFingers]int{detector.ThumbTip, detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}
	fingerBases = [NumFingers]int{detector.ThumbIP, detector.IndexPIP, detector.MiddlePIP, detector.RingPIP, detector.PinkyPIP}
)

// FingerState records which fingers are extended, in thumb..pinky order.
type FingerState [NumFingers]bool

// State builds a FingerState from 0/1 flags, for tables and tests.
func State(thumb, index, middle, ring, pinky int) FingerState {
	return FingerState{thumb != 0, index != 0, middle != 0, ring != 0, pinky != 0}
}

// String renders the state as five binary digits, e.g. "01111".
func (s FingerState) String() string {
	var b strings.Builder
	for _, up := range s {
		if up {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Fingers derives the finger state of one hand. It returns false when
// fewer than detector.NumLandmarks points are supplied.
//
// The thumb is tested laterally (tip left of its IP joint on a mirrored
// frame); the other fingers vertically (tip above the PIP joint, image y
// grows downward).
func Fingers(points []detector.Point3D) (FingerState, bool) {
	var s FingerState
	if len(points) < detector.NumLandmarks {
		return s, false
	}

	s[Thumb] = points[fingerTips[Thumb]].X < points[fingerBases[Thumb]].X
	for f := Index; f < NumFingers; f++ {
		s[f] = points[fingerTips[f]].Y < points[fingerBases[f]].Y
	}
	return s, true
}
