package record

import "sync"

// Buffer is the capture buffer shared by the audio callback and the state
// machine. Write, reset and detach are serialized by one mutex; detach swaps
// the chunk list out so the caller owns it afterwards.
type Buffer struct {
	mu        sync.Mutex
	recording bool
	chunks    [][]float32
	samples   int
	dropped   int
	max       int
}

// NewBuffer returns a buffer that keeps at most maxSamples samples per
// recording. maxSamples <= 0 means no cap.
func NewBuffer(maxSamples int) *Buffer {
	return &Buffer{max: maxSamples}
}

// Write appends a copy of frame while recording and is a no-op otherwise.
// It is called from the audio callback and never blocks on anything but
// the buffer lock.
func (b *Buffer) Write(frame []float32) {
	if len(frame) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.recording {
		return
	}
	if b.max > 0 && b.samples+len(frame) > b.max {
		b.dropped += len(frame)
		return
	}
	c := make([]float32, len(frame))
	copy(c, frame)
	b.chunks = append(b.chunks, c)
	b.samples += len(c)
}

// Recording reports whether frames are currently kept.
func (b *Buffer) Recording() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recording
}

// reset clears the chunk list and starts keeping frames.
func (b *Buffer) reset() {
	b.mu.Lock()
	b.chunks = nil
	b.samples = 0
	b.dropped = 0
	b.recording = true
	b.mu.Unlock()
}

// detach stops keeping frames and hands the chunk list to the caller.
func (b *Buffer) detach() (chunks [][]float32, samples, dropped int) {
	b.mu.Lock()
	chunks, samples, dropped = b.chunks, b.samples, b.dropped
	b.chunks = nil
	b.samples = 0
	b.dropped = 0
	b.recording = false
	b.mu.Unlock()
	return chunks, samples, dropped
}
