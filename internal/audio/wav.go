// Package audio provides the WAV operations behind the alignment engine:
// measuring clip duration, appending trailing silence, and concatenating
// per-cue clips into one continuous track. All clips are PCM WAV as produced
// by the synthesis engine; operations work directly on the sample data.
package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"dubber/internal/fileutil"
)

// Format describes the PCM layout of a WAV file.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// BlockAlign returns the byte size of one sample frame.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

// ByteRate returns the number of data bytes per second.
func (f Format) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

// Clip is a decoded WAV file: its format and raw PCM data.
type Clip struct {
	Format Format
	Data   []byte
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	rate := c.Format.ByteRate()
	if rate == 0 {
		return 0
	}
	return float64(len(c.Data)) / float64(rate)
}

// ReadClip decodes a PCM WAV file.
func ReadClip(path string) (Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Clip{}, fmt.Errorf("read wav: %w", err)
	}
	return decode(data, path)
}

// Duration returns the duration of a WAV file in seconds.
func Duration(path string) (float64, error) {
	clip, err := ReadClip(path)
	if err != nil {
		return 0, err
	}
	return clip.Duration(), nil
}

// WriteClip encodes a clip as a canonical PCM WAV file, written atomically.
func WriteClip(path string, clip Clip) error {
	return fileutil.WriteFileAtomic(path, encode(clip), 0o644)
}

// WriteSilence writes a WAV file containing only silence of the given length.
func WriteSilence(path string, format Format, seconds float64) error {
	return WriteClip(path, Clip{Format: format, Data: silence(format, seconds)})
}

// AppendSilence extends the clip at path with trailing silence.
func AppendSilence(path string, seconds float64) error {
	if seconds <= 0 {
		return nil
	}
	clip, err := ReadClip(path)
	if err != nil {
		return err
	}
	clip.Data = append(clip.Data, silence(clip.Format, seconds)...)
	return WriteClip(path, clip)
}

// Concat joins the given WAV files in order into one track at dst.
// All sources must share the same PCM format.
func Concat(dst string, sources []string) error {
	if len(sources) == 0 {
		return fmt.Errorf("concat: no source clips")
	}
	var merged Clip
	for i, src := range sources {
		clip, err := ReadClip(src)
		if err != nil {
			return err
		}
		if i == 0 {
			merged.Format = clip.Format
		} else if clip.Format != merged.Format {
			return fmt.Errorf("concat: format mismatch at %s: %+v vs %+v", src, clip.Format, merged.Format)
		}
		merged.Data = append(merged.Data, clip.Data...)
	}
	return WriteClip(dst, merged)
}

func silence(format Format, seconds float64) []byte {
	frames := int(math.Round(seconds * float64(format.SampleRate)))
	if frames < 0 {
		frames = 0
	}
	return make([]byte, frames*format.BlockAlign())
}

func decode(data []byte, path string) (Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("decode wav %s: not a RIFF/WAVE file", path)
	}

	var clip Clip
	haveFmt := false
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkLen := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkLen > len(data) {
			return Clip{}, fmt.Errorf("decode wav %s: truncated %q chunk", path, chunkID)
		}
		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return Clip{}, fmt.Errorf("decode wav %s: short fmt chunk", path)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return Clip{}, fmt.Errorf("decode wav %s: unsupported audio format %d (PCM required)", path, audioFormat)
			}
			clip.Format = Format{
				Channels:      int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				SampleRate:    int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(data[body+14 : body+16])),
			}
			haveFmt = true
		case "data":
			clip.Data = append([]byte(nil), data[body:body+chunkLen]...)
		}
		// Chunks are word-aligned.
		offset = body + chunkLen + chunkLen%2
	}

	if !haveFmt {
		return Clip{}, fmt.Errorf("decode wav %s: missing fmt chunk", path)
	}
	return clip, nil
}

func encode(clip Clip) []byte {
	var buf bytes.Buffer
	dataLen := len(clip.Data)

	buf.WriteString("RIFF")
	writeUint32(&buf, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeUint32(&buf, 16)
	writeUint16(&buf, 1) // PCM
	writeUint16(&buf, uint16(clip.Format.Channels))
	writeUint32(&buf, uint32(clip.Format.SampleRate))
	writeUint32(&buf, uint32(clip.Format.ByteRate()))
	writeUint16(&buf, uint16(clip.Format.BlockAlign()))
	writeUint16(&buf, uint16(clip.Format.BitsPerSample))

	buf.WriteString("data")
	writeUint32(&buf, uint32(dataLen))
	buf.Write(clip.Data)

	return buf.Bytes()
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], v)
	buf.Write(scratch[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	buf.Write(scratch[:])
}
