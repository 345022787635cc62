package session

import (
	"context"

	log "github.com/echocat/slf4g"
	"gocv.io/x/gocv"

	"github.com/ayusman/signvoice/internal/detector"
	"github.com/ayusman/signvoice/internal/sign"
)

// run is the per-session worker loop. Each iteration:
// 1. checks for a stop request
// 2. pulls one frame (blocking at the device rate)
// 3. detects hands and draws the overlay
// 4. classifies the first recognizable hand
// 5. feeds the announcer and the preview
//
// A closed or unreadable device ends the session.
func (c *Controller) run(ctx context.Context, id string, done chan struct{}) {
	reason := ReasonRequested
	defer func() {
		c.finish(id, done, reason)
	}()

	camera := c.config.Camera
	for {
		if ctx.Err() != nil {
			return
		}
		if !camera.IsOpen() {
			reason = ReasonCamera
			return
		}

		frame, err := camera.ReadFrame()
		if err != nil {
			if ctx.Err() == nil {
				reason = ReasonCamera
				log.WithError(err).
					With("session", id).
					Warn("Cannot read frame, ending session.")
			}
			return
		}

		c.process(frame)
		frame.Close()
	}
}

// process handles one frame. Detector failures count as "no hands".
func (c *Controller) process(frame *gocv.Mat) {
	c.frames.Add(1)

	var hands []detector.HandLandmarks
	if c.config.Detector != nil {
		var err error
		hands, err = c.config.Detector.Detect(frame)
		if err != nil {
			log.WithError(err).Debug("Hand detection failed for frame.")
			hands = nil
		}
	}

	if c.config.Overlay {
		for i := range hands {
			detector.DrawLandmarks(frame, &hands[i])
		}
	}

	g, _ := sign.ClassifyHands(hands)
	if c.config.Announcer != nil {
		c.config.Announcer.Observe(g, c.config.Clock())
	}

	if c.config.Preview != nil {
		c.config.Preview.ShowFrame(frame)
	}
}
