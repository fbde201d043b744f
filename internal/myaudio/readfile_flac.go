package myaudio

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/tphakala/flac"
	"github.com/verbalis/voicedetect-go/internal/errors"
)

// ReadFLACInfo returns stream parameters without decoding sample data.
func ReadFLACInfo(file *os.File) (AudioInfo, error) {
	decoder, err := flac.NewDecoder(file)
	if err != nil {
		return AudioInfo{}, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}

	return AudioInfo{
		SampleRate:   decoder.SampleRate,
		TotalSamples: int(decoder.TotalSamples),
		NumChannels:  decoder.NChannels,
		BitDepth:     decoder.BitsPerSample,
	}, nil
}

// readFLAC decodes up to maxSeconds of audio as source-rate mono samples.
func readFLAC(file *os.File, maxSeconds float64) ([]float64, int, error) {
	decoder, err := flac.NewDecoder(file)
	if err != nil {
		return nil, 0, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}

	divisor, err := getAudioDivisor(decoder.BitsPerSample)
	if err != nil {
		return nil, 0, err
	}

	sourceRate := decoder.SampleRate
	channels := decoder.NChannels
	bytesPerSample := decoder.BitsPerSample / 8
	maxFrames := int(maxSeconds * float64(sourceRate))

	var interleaved []float64
	for len(interleaved)/channels < maxFrames {
		frame, err := decoder.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, errors.New(err).
				Component("myaudio").
				Category(errors.CategoryAudioDecode).
				Build()
		}

		for i := 0; i+bytesPerSample <= len(frame); i += bytesPerSample {
			var sample int32
			switch decoder.BitsPerSample {
			case 16:
				sample = int32(int16(binary.LittleEndian.Uint16(frame[i:])))
			case 24:
				// Sign-extend the 24-bit little-endian value.
				sample = (int32(frame[i]) | int32(frame[i+1])<<8 | int32(frame[i+2])<<16) << 8 >> 8
			case 32:
				sample = int32(binary.LittleEndian.Uint32(frame[i:]))
			}
			interleaved = append(interleaved, float64(sample)/divisor)
		}
	}

	mono := downmix(interleaved, channels)
	if len(mono) > maxFrames {
		mono = mono[:maxFrames]
	}
	return mono, sourceRate, nil
}
