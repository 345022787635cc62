// Package testdata holds recorded MediaPipe service responses and frame helpers for tests.
package testdata

import (
	"embed"
	"fmt"

	"gocv.io/x/gocv"
)

//go:embed responses/*.json
var responsesFS embed.FS

// LoadResponse returns one recorded service response line by name, e.g. "hello".
func LoadResponse(name string) ([]byte, error) {
	data, err := responsesFS.ReadFile("responses/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load response %s: %w", name, err)
	}
	return data, nil
}

// BlankFrames allocates n black 640x480 BGR frames. The caller closes them.
func BlankFrames(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
		frames[i] = &mat
	}
	return frames
}

// CloseFrames releases frames allocated by BlankFrames.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
