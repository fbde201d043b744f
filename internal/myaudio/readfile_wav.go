package myaudio

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/verbalis/voicedetect-go/internal/errors"
)

// ReadWAVInfo returns stream parameters without decoding sample data.
func ReadWAVInfo(file *os.File) (AudioInfo, error) {
	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		return AudioInfo{}, errors.Newf("invalid WAV file format").
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}

	if decoder.NumChans != 1 && decoder.NumChans != 2 {
		return AudioInfo{}, errors.Newf("unsupported number of channels: %d", decoder.NumChans).
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return AudioInfo{}, err
	}

	bytesPerSample := int(decoder.BitDepth / 8)
	totalSamples := int(fileInfo.Size()) / bytesPerSample / int(decoder.NumChans)

	return AudioInfo{
		SampleRate:   int(decoder.SampleRate),
		TotalSamples: totalSamples,
		NumChannels:  int(decoder.NumChans),
		BitDepth:     int(decoder.BitDepth),
	}, nil
}

// readWAV decodes up to maxSeconds of audio as source-rate mono samples.
func readWAV(file *os.File, maxSeconds float64) ([]float64, int, error) {
	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, 0, errors.Newf("input is not a valid WAV audio file").
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}

	divisor, err := getAudioDivisor(int(decoder.BitDepth))
	if err != nil {
		return nil, 0, err
	}

	sourceRate := int(decoder.SampleRate)
	channels := int(decoder.NumChans)
	if channels < 1 {
		return nil, 0, errors.Newf("invalid channel count: %d", channels).
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Build()
	}
	maxFrames := int(maxSeconds * float64(sourceRate))

	buf := &audio.IntBuffer{
		Data:   make([]int, 8192),
		Format: &audio.Format{SampleRate: sourceRate, NumChannels: channels},
	}

	var interleaved []float64
	for len(interleaved)/channels < maxFrames {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, 0, errors.New(err).
				Component("myaudio").
				Category(errors.CategoryAudioDecode).
				Build()
		}
		if n == 0 {
			break
		}
		for _, sample := range buf.Data[:n] {
			interleaved = append(interleaved, float64(sample)/divisor)
		}
	}

	mono := downmix(interleaved, channels)
	if len(mono) > maxFrames {
		mono = mono[:maxFrames]
	}
	return mono, sourceRate, nil
}
