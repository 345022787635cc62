package sign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/signvoice/internal/detector"
)

func pose(s FingerState) []detector.Point3D {
	return detector.PoseLandmarks(s[Thumb], s[Index], s[Middle], s[Ring], s[Pinky]).Points
}

func TestClassify_KnownPatterns(t *testing.T) {
	tests := []struct {
		name  string
		state FingerState
		want  Gloss
	}{
		{name: "open palm thumb in", state: State(0, 1, 1, 1, 1), want: Hello},
		{name: "fist", state: State(0, 0, 0, 0, 0), want: Goodbye},
		{name: "thumb index pinky", state: State(1, 1, 0, 0, 1), want: OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(pose(tt.state)))
		})
	}
}

func TestClassify_AllOtherPatternsAreNone(t *testing.T) {
	mapped := 0
	for bits := 0; bits < 32; bits++ {
		var s FingerState
		for f := Thumb; f < NumFingers; f++ {
			s[f] = bits&(1<<uint(f)) != 0
		}

		got := Classify(pose(s))
		switch s {
		case State(0, 1, 1, 1, 1), State(0, 0, 0, 0, 0), State(1, 1, 0, 0, 1):
			assert.NotEqual(t, None, got, "state %s", s)
			mapped++
		default:
			assert.Equal(t, None, got, "state %s", s)
		}
	}
	assert.Equal(t, 3, mapped)
}

func TestClassify_IncompleteInput(t *testing.T) {
	full := detector.HelloLandmarks().Points

	for n := 0; n < detector.NumLandmarks; n++ {
		assert.Equal(t, None, Classify(full[:n]), "%d points", n)
	}
	assert.Equal(t, None, Classify(nil))
}

func TestClassify_Deterministic(t *testing.T) {
	points := detector.OKLandmarks().Points

	first, ok := Fingers(points)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := Fingers(points)
		require.True(t, ok)
		assert.Equal(t, first, again)
		assert.Equal(t, OK, Classify(points))
	}
}

func TestFingers_ThumbIsLateral(t *testing.T) {
	points := detector.GoodbyeLandmarks().Points

	// Raising the thumb tip vertically does not extend it.
	points[detector.ThumbTip].Y = 0.1
	s, ok := Fingers(points)
	require.True(t, ok)
	assert.False(t, s[Thumb])

	// Moving it left of the IP joint does.
	points[detector.ThumbTip].X = points[detector.ThumbIP].X - 0.05
	s, _ = Fingers(points)
	assert.True(t, s[Thumb])
	assert.Equal(t, "10000", s.String())
	assert.Equal(t, None, Classify(points))
}

func TestFingers_EqualCoordinatesAreNotExtended(t *testing.T) {
	points := make([]detector.Point3D, detector.NumLandmarks)

	s, ok := Fingers(points)
	require.True(t, ok)
	assert.Equal(t, FingerState{}, s)
	assert.Equal(t, Goodbye, Lookup(s))
}

func TestClassifyHands_FirstRecognizedWins(t *testing.T) {
	unknown := detector.PoseLandmarks(true, false, false, false, false)
	partial := detector.HandLandmarks{Points: detector.HelloLandmarks().Points[:10]}

	g, idx := ClassifyHands([]detector.HandLandmarks{unknown, partial, detector.OKLandmarks(), detector.HelloLandmarks()})
	assert.Equal(t, OK, g)
	assert.Equal(t, 2, idx)

	g, idx = ClassifyHands(nil)
	assert.Equal(t, None, g)
	assert.Equal(t, -1, idx)
}

func TestGloss(t *testing.T) {
	assert.True(t, None.IsNone())
	assert.False(t, Hello.IsNone())
	assert.True(t, Goodbye.Valid())
	assert.False(t, Gloss("WAVE").Valid())
	assert.False(t, None.Valid())
}

func TestFinger_String(t *testing.T) {
	assert.Equal(t, "thumb", Thumb.String())
	assert.Equal(t, "pinky", Pinky.String())
	assert.Equal(t, "unknown", NumFingers.String())
}
