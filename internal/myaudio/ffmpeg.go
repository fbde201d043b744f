package myaudio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/errors"
	"github.com/verbalis/voicedetect-go/internal/logging"
)

// readViaFfmpeg transcodes a non-native container (mp3, ogg, m4a, ...) to a
// temporary WAV file with ffmpeg and decodes that. The transcode already
// resamples, downmixes and caps duration, so the WAV read is cheap.
func readViaFfmpeg(ctx context.Context, settings *conf.Settings, path string) ([]float64, int, error) {
	wavPath, err := transcodeToWAV(ctx, settings, path)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := os.Remove(wavPath); err != nil && !os.IsNotExist(err) {
			logging.ForService("myaudio").Warn("failed to remove transcode file", "path", wavPath, "error", err)
		}
	}()

	file, err := os.Open(wavPath)
	if err != nil {
		return nil, 0, errors.New(fmt.Errorf("opening transcoded file: %w", err)).
			Component("myaudio").
			Category(errors.CategoryFileIO).
			Build()
	}
	defer file.Close() //nolint:errcheck // read-only descriptor

	return readWAV(file, settings.Audio.MaxClipSeconds)
}

// transcodeToWAV runs ffmpeg to produce a 16-bit PCM WAV at the target sample
// rate, mono, capped at the maximum clip duration.
func transcodeToWAV(ctx context.Context, settings *conf.Settings, inputPath string) (string, error) {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%d", inputPath, time.Now().UnixNano())))
	outputPath := filepath.Join(settings.Audio.ScratchDir,
		fmt.Sprintf("voicedetect-transcode-%s.wav", hex.EncodeToString(sum[:8])))

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-t", fmt.Sprintf("%.1f", settings.Audio.MaxClipSeconds),
		"-ar", fmt.Sprintf("%d", settings.Audio.SampleRate),
		"-ac", "1",
		"-sample_fmt", "s16",
		"-f", "wav",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, settings.Audio.FfmpegPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if removeErr := os.Remove(outputPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.ForService("myaudio").Warn("failed to remove transcode file", "path", outputPath, "error", removeErr)
		}
		return "", errors.New(fmt.Errorf("ffmpeg decode failed: %w", err)).
			Component("myaudio").
			Category(errors.CategoryAudioDecode).
			Context("ffmpeg_stderr", strings.TrimSpace(stderr.String())).
			Build()
	}

	return outputPath, nil
}
