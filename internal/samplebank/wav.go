package samplebank

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// PCM is decoded sample audio: mono or interleaved-stereo float64 frames at
// a fixed sample rate, the shape internal/dsp's Sample node plays back.
type PCM struct {
	SampleRate int
	Channels   int
	Frames     []float64 // interleaved
}

// loadWAV decodes a 16-bit or 32-bit-float PCM WAV file. No library in the
// retrieval pack parses WAV (none of the example repos do audio file I/O —
// the teacher's APU only ever generates samples, never decodes them), so
// this is a deliberate stdlib-only exception: a minimal canonical-chunk WAV
// reader, not a general-purpose RIFF parser.
func loadWAV(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("samplebank: opening %s: %w", path, err)
	}
	defer f.Close()

	var riffHeader [12]byte
	if _, err := io.ReadFull(f, riffHeader[:]); err != nil {
		return nil, fmt.Errorf("samplebank: %s: reading RIFF header: %w", path, err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return nil, fmt.Errorf("samplebank: %s: not a RIFF/WAVE file", path)
	}

	var (
		channels      int
		sampleRate    int
		bitsPerSample int
		audioFormat   uint16
		data          []byte
		haveFmt       bool
	)

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(f, chunkHeader[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("samplebank: %s: reading chunk header: %w", path, err)
		}
		id := string(chunkHeader[0:4])
		size := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(f, body); err != nil {
				return nil, fmt.Errorf("samplebank: %s: reading fmt chunk: %w", path, err)
			}
			audioFormat = binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			haveFmt = true
		case "data":
			data = make([]byte, size)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, fmt.Errorf("samplebank: %s: reading data chunk: %w", path, err)
			}
		default:
			if _, err := io.CopyN(io.Discard, f, int64(size)); err != nil {
				return nil, fmt.Errorf("samplebank: %s: skipping chunk %q: %w", path, id, err)
			}
		}
		if size%2 == 1 {
			var pad [1]byte
			io.ReadFull(f, pad[:])
		}
	}

	if !haveFmt || data == nil {
		return nil, fmt.Errorf("samplebank: %s: missing fmt or data chunk", path)
	}

	var frames []float64
	switch {
	case audioFormat == 1 && bitsPerSample == 16:
		n := len(data) / 2
		frames = make([]float64, n)
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
			frames[i] = float64(v) / 32768.0
		}
	case audioFormat == 3 && bitsPerSample == 32:
		n := len(data) / 4
		frames = make([]float64, n)
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
			frames[i] = float64(math.Float32frombits(bits))
		}
	default:
		return nil, fmt.Errorf("samplebank: %s: unsupported format %d/%d-bit", path, audioFormat, bitsPerSample)
	}

	return &PCM{SampleRate: sampleRate, Channels: channels, Frames: frames}, nil
}

// WriteWAV writes interleaved float32 frames as a 16-bit PCM WAV file at
// sampleRate/channels — the encode-side counterpart to loadWAV, used by
// cmd/loom's offline render. Same stdlib-only exception: no library in the
// retrieval pack does WAV encoding either.
func WriteWAV(path string, frames []float32, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("samplebank: creating %s: %w", path, err)
	}
	defer f.Close()

	dataSize := len(frames) * 2
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], 16) // bits per sample
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))
	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("samplebank: writing %s header: %w", path, err)
	}

	body := make([]byte, dataSize)
	for i, s := range frames {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(body[i*2:i*2+2], uint16(int16(s*32767)))
	}
	if _, err := f.Write(body); err != nil {
		return fmt.Errorf("samplebank: writing %s data: %w", path, err)
	}
	return nil
}
