package display

import (
	"context"
	"sync"

	log "github.com/echocat/slf4g"
	"gocv.io/x/gocv"
)

// FrameBuffer keeps the latest processed frame as JPEG for preview streaming.
type FrameBuffer struct {
	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	updated chan struct{}
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{updated: make(chan struct{})}
}

// ShowFrame implements Preview by encoding frame as JPEG.
func (b *FrameBuffer) ShowFrame(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		log.WithError(err).Debug("Cannot encode preview frame.")
		return
	}
	defer buf.Close()

	b.Put(buf.GetBytes())
}

// Put stores an already encoded JPEG and wakes waiting readers.
func (b *FrameBuffer) Put(jpeg []byte) {
	data := make([]byte, len(jpeg))
	copy(data, jpeg)

	b.mu.Lock()
	b.jpeg = data
	b.seq++
	close(b.updated)
	b.updated = make(chan struct{})
	b.mu.Unlock()
}

// Latest returns the newest JPEG and its sequence number. Seq 0 means
// no frame has been stored yet.
func (b *FrameBuffer) Latest() ([]byte, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jpeg, b.seq
}

// Next blocks until a frame newer than after is available or ctx is done.
func (b *FrameBuffer) Next(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		b.mu.Lock()
		if b.seq > after {
			jpeg, seq := b.jpeg, b.seq
			b.mu.Unlock()
			return jpeg, seq, nil
		}
		wait := b.updated
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, after, ctx.Err()
		case <-wait:
		}
	}
}
