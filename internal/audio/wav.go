package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// HeaderSize is the length of a canonical PCM WAV header
const HeaderSize = 44

// Format describes interleaved PCM samples
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultSpeechFormat is what speech models return: 24 kHz mono 16-bit
var DefaultSpeechFormat = Format{SampleRate: 24000, Channels: 1, BitsPerSample: 16}

func (f Format) validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", f.Channels)
	}
	if f.BitsPerSample <= 0 || f.BitsPerSample%8 != 0 {
		return fmt.Errorf("invalid bits per sample %d", f.BitsPerSample)
	}
	return nil
}

func (f Format) blockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// Duration returns the playback length of n bytes of PCM
func (f Format) Duration(n int) time.Duration {
	if f.validate() != nil {
		return 0
	}
	frames := n / f.blockAlign()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// WriteWAV writes a RIFF/WAVE header followed by the PCM samples
func WriteWAV(w io.Writer, pcm []byte, f Format) error {
	if err := f.validate(); err != nil {
		return err
	}
	if len(pcm)%f.blockAlign() != 0 {
		return fmt.Errorf("pcm length %d is not a multiple of frame size %d", len(pcm), f.blockAlign())
	}
	if uint64(len(pcm)) > uint64(^uint32(0))-(HeaderSize-8) {
		return fmt.Errorf("pcm data too large for WAV: %d bytes", len(pcm))
	}

	dataSize := uint32(len(pcm))
	header := struct {
		ChunkID       [4]byte
		ChunkSize     uint32
		Format        [4]byte
		Subchunk1ID   [4]byte
		Subchunk1Size uint32
		AudioFormat   uint16
		NumChannels   uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Subchunk2ID   [4]byte
		Subchunk2Size uint32
	}{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(f.Channels),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.SampleRate * f.blockAlign()),
		BlockAlign:    uint16(f.blockAlign()),
		BitsPerSample: uint16(f.BitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	return nil
}

// EncodeWAV returns the PCM wrapped in a WAV container
func EncodeWAV(pcm []byte, f Format) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(pcm))
	if err := WriteWAV(&buf, pcm, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
