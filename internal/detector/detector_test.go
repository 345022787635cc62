package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/signvoice/testdata"
)

func TestHandLandmarks_Complete(t *testing.T) {
	var nilHand *HandLandmarks
	assert.False(t, nilHand.Complete())
	assert.False(t, (&HandLandmarks{Points: make([]Point3D, NumLandmarks-1)}).Complete())
	assert.True(t, (&HandLandmarks{Points: make([]Point3D, NumLandmarks)}).Complete())
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		fixture    string
		wantHands  int
		wantPoints []int
	}{
		{name: "single hello hand", fixture: "hello", wantHands: 1, wantPoints: []int{21}},
		{name: "no hands", fixture: "empty", wantHands: 0},
		{name: "partial hand kept partial", fixture: "partial", wantHands: 1, wantPoints: []int{12}},
		{name: "two hands", fixture: "two_hands", wantHands: 2, wantPoints: []int{21, 21}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := testdata.LoadResponse(tt.fixture)
			require.NoError(t, err)

			hands, err := parseResponse(line)
			require.NoError(t, err)
			require.Len(t, hands, tt.wantHands)
			for i, n := range tt.wantPoints {
				assert.Len(t, hands[i].Points, n)
			}
		})
	}
}

func TestParseResponse_Errors(t *testing.T) {
	_, err := parseResponse([]byte("not json\n"))
	assert.Error(t, err)

	_, err = parseResponse([]byte(`{"error":"decode failed"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode failed")
}

func TestParseResponse_PreservesMetadata(t *testing.T) {
	line, err := testdata.LoadResponse("two_hands")
	require.NoError(t, err)

	hands, err := parseResponse(line)
	require.NoError(t, err)

	assert.Equal(t, "Left", hands[0].Handedness)
	assert.InDelta(t, 0.8, hands[0].Score, 1e-9)
	assert.Equal(t, "Right", hands[1].Handedness)
}

func TestJSONHand_TruncatesExtraPoints(t *testing.T) {
	h := jsonHand{Points: make([]Point3D, NumLandmarks+5)}
	assert.Len(t, h.toHandLandmarks().Points, NumLandmarks)
}

func TestExchange_FramesRequestAndReadsLine(t *testing.T) {
	response, err := testdata.LoadResponse("ok")
	require.NoError(t, err)

	var sent bytes.Buffer
	reader := bufio.NewReader(bytes.NewReader(response))
	payload := []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}

	hands, err := exchange(&sent, reader, payload)
	require.NoError(t, err)
	require.Len(t, hands, 1)

	raw := sent.Bytes()
	require.Len(t, raw, 4+len(payload))
	assert.Equal(t, uint32(len(payload)), binary.BigEndian.Uint32(raw[:4]))
	assert.Equal(t, payload, raw[4:])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestExchange_WriteFailure(t *testing.T) {
	_, err := exchange(failingWriter{}, bufio.NewReader(strings.NewReader("")), []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write length")
}

func TestExchange_ClosedOutput(t *testing.T) {
	_, err := exchange(&bytes.Buffer{}, bufio.NewReader(strings.NewReader("")), []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read response")
}

func TestNewMediaPipeDetector_MissingScript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Script = filepath.Join(t.TempDir(), "missing.py")

	_, err := NewMediaPipeDetector(cfg)
	assert.Error(t, err)
}

func TestMediaPipeDetector_Args(t *testing.T) {
	d := &MediaPipeDetector{config: Config{MinConfidence: 0.7, MinTrackingConf: 0.5}}

	assert.Equal(t, []string{
		"--max-hands", "1",
		"--min-detection-confidence", "0.7",
		"--min-tracking-confidence", "0.5",
	}, d.args())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.MaxHands)
	assert.InDelta(t, 0.7, cfg.MinConfidence, 1e-9)
	assert.InDelta(t, 0.5, cfg.MinTrackingConf, 1e-9)
	assert.Positive(t, cfg.IdleTimeout)
}

func TestMockDetector(t *testing.T) {
	t.Run("returns configured hands", func(t *testing.T) {
		m := NewMockDetector()
		m.SetHands([]HandLandmarks{HelloLandmarks()})

		for i := 0; i < 3; i++ {
			hands, err := m.Detect(nil)
			require.NoError(t, err)
			assert.Len(t, hands, 1)
		}
		assert.Equal(t, 3, m.Calls())
	})

	t.Run("plays a sequence then runs dry", func(t *testing.T) {
		m := NewMockDetector()
		m.SetSequence([][]HandLandmarks{{GoodbyeLandmarks()}, nil, {OKLandmarks()}})

		first, _ := m.Detect(nil)
		second, _ := m.Detect(nil)
		third, _ := m.Detect(nil)
		fourth, _ := m.Detect(nil)

		assert.Len(t, first, 1)
		assert.Empty(t, second)
		assert.Len(t, third, 1)
		assert.Empty(t, fourth)
	})

	t.Run("returns configured error", func(t *testing.T) {
		m := NewMockDetector()
		m.SetError(errors.New("boom"))

		_, err := m.Detect(nil)
		assert.EqualError(t, err, "boom")
	})
}

func TestPoseLandmarks_Geometry(t *testing.T) {
	hand := PoseLandmarks(true, false, true, false, true)
	require.True(t, hand.Complete())

	assert.Less(t, hand.Points[ThumbTip].X, hand.Points[ThumbIP].X, "extended thumb")
	assert.Greater(t, hand.Points[IndexTip].Y, hand.Points[IndexPIP].Y, "curled index")
	assert.Less(t, hand.Points[MiddleTip].Y, hand.Points[MiddlePIP].Y, "extended middle")
	assert.Greater(t, hand.Points[RingTip].Y, hand.Points[RingPIP].Y, "curled ring")
	assert.Less(t, hand.Points[PinkyTip].Y, hand.Points[PinkyPIP].Y, "extended pinky")
}

func TestDrawLandmarks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	hand := HelloLandmarks()
	DrawLandmarks(&frame, &hand)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	assert.Positive(t, gocv.CountNonZero(gray))
}

func TestDrawLandmarks_IgnoresIncompleteHand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	DrawLandmarks(&frame, &HandLandmarks{Points: make([]Point3D, 5)})

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	assert.Zero(t, gocv.CountNonZero(gray))
}
