// Package audiodevice wraps SDL2's audio-only output path for the online
// (device-backed) render loop, grounded on internal/ui/ui.go's
// OpenAudioDevice/QueueAudio pair stripped of everything video/window
// related — this engine has no framebuffer, only audio.
package audiodevice

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/veandco/go-sdl2/sdl"
)

// Device is a stereo float32 SDL audio output queue.
type Device struct {
	id         sdl.AudioDeviceID
	sampleRate int
}

// Open initializes SDL's audio subsystem and opens the default playback
// device at sampleRate, stereo, queued (not callback-driven) playback —
// the same sdl.AUDIO_F32/OpenAudioDevice/PauseAudioDevice(false) sequence
// internal/ui/ui.go uses, with Channels fixed at 2 and a 1024-sample device
// buffer; no SDL callback is installed, since this engine pushes fixed-size
// blocks on its own schedule.
func Open(sampleRate int) (*Device, error) {
	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("audiodevice: sdl.Init: %w", err)
	}

	spec := sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_F32,
		Channels: 2,
		Samples:  1024,
	}
	id, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return nil, fmt.Errorf("audiodevice: OpenAudioDevice: %w", err)
	}
	sdl.PauseAudioDevice(id, false)

	return &Device{id: id, sampleRate: sampleRate}, nil
}

// QueueStereo pushes interleaved (left, right) float32 samples. When the
// device's internal queue already holds maxQueuedFrames or more, the block is
// dropped and nil is returned — mirroring internal/ui/ui.go's
// "limit to ~2 frames worth" queued-bytes check so playback doesn't build
// unbounded latency.
func (d *Device) QueueStereo(left, right []float32, maxQueuedFrames int) error {
	if len(left) != len(right) {
		return fmt.Errorf("audiodevice: left/right length mismatch (%d vs %d)", len(left), len(right))
	}

	maxQueuedBytes := uint32(maxQueuedFrames * 2 * 4)
	if sdl.GetQueuedAudioSize(d.id) >= maxQueuedBytes {
		return nil
	}

	buf := make([]byte, len(left)*2*4)
	for i := range left {
		binary.LittleEndian.PutUint32(buf[i*8:i*8+4], math.Float32bits(left[i]))
		binary.LittleEndian.PutUint32(buf[i*8+4:i*8+8], math.Float32bits(right[i]))
	}
	return sdl.QueueAudio(d.id, buf)
}

// Close stops playback and releases the device.
func (d *Device) Close() {
	sdl.CloseAudioDevice(d.id)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
}
