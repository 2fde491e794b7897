// Package capture runs the PortAudio input stream that feeds the capture
// buffer.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/coleski/win-voice/internal/config"
	"github.com/coleski/win-voice/internal/log"
)

// FramesPerBuffer is the callback block size (32 ms at 16 kHz).
const FramesPerBuffer = 512

// Sink receives every captured frame on the audio callback thread. It must
// not block.
type Sink interface {
	Write(frame []float32)
}

// Device describes an input device.
type Device struct {
	Index    int
	Name     string
	HostAPI  string
	Channels int
	Default  bool
}

// Devices lists input devices with their PortAudio index.
func Devices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}
	defer portaudio.Terminate()

	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices failed: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []Device
	for i, d := range all {
		if d.MaxInputChannels < 1 {
			continue
		}
		dev := Device{Index: i, Name: d.Name, Channels: d.MaxInputChannels, Default: def != nil && def.Name == d.Name}
		if d.HostApi != nil {
			dev.HostAPI = d.HostApi.Name
		}
		out = append(out, dev)
	}
	return out, nil
}

// Stream is an open input stream. It keeps running between recordings;
// the sink decides which frames to keep.
type Stream struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	device string
	closed bool
	log    *log.Logger
}

// Open initializes PortAudio and opens a 16 kHz mono float32 input stream
// on the device with the given index, or the default input when nil.
func Open(mic *int, sink Sink, lg *log.Logger) (*Stream, error) {
	if sink == nil {
		return nil, errors.New("capture: nil sink")
	}
	lg = lg.Component("capture")
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}

	info, err := inputDevice(mic)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}

	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = 1
	params.SampleRate = config.SampleRate
	params.FramesPerBuffer = FramesPerBuffer

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		sink.Write(in)
	})
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open stream on %q failed: %w", info.Name, err)
	}
	lg.Info("input stream opened", "device", info.Name, "rate", config.SampleRate, "frames", FramesPerBuffer)
	return &Stream{stream: stream, device: info.Name, log: lg}, nil
}

func inputDevice(mic *int) (*portaudio.DeviceInfo, error) {
	if mic == nil {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default input device: %w", err)
		}
		return info, nil
	}
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices failed: %w", err)
	}
	if *mic < 0 || *mic >= len(all) {
		return nil, fmt.Errorf("microphone %d not found (%d devices)", *mic, len(all))
	}
	info := all[*mic]
	if info.MaxInputChannels < 1 {
		return nil, fmt.Errorf("device %d (%s) has no input channels", *mic, info.Name)
	}
	return info, nil
}

// Device is the name of the open device.
func (s *Stream) Device() string { return s.device }

// Start begins delivering frames to the sink.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("capture: stream closed")
	}
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("start stream failed: %w", err)
	}
	return nil
}

// Close stops the stream and releases PortAudio. It is safe to call twice.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.stream.Stop()
	err := s.stream.Close()
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	s.log.Info("input stream closed")
	return err
}
