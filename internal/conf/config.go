// Package conf holds the application settings for voicedetect-go. Settings are
// loaded once at startup through viper and treated as read-only afterwards.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// AudioSettings contains settings for audio acquisition and decoding.
type AudioSettings struct {
	SampleRate      int     // target sample rate in Hz, must match training
	MaxClipSeconds  float64 // waveform is truncated past this duration
	MinClipSeconds  float64 // clips shorter than this are rejected
	MaxDownloadMB   int     // streaming download abort limit
	DownloadTimeout int     // download timeout in seconds
	FfmpegPath      string  // path to ffmpeg for non-native formats
	ScratchDir      string  // directory for downloaded temp files
}

// FeatureSettings contains the analysis window parameters. These must match
// between training-time and inference-time extraction exactly.
type FeatureSettings struct {
	NFFT    int // FFT window size in samples
	Hop     int // hop between successive frames in samples
	NMFCC   int // number of cepstral coefficients
	NMels   int // number of mel filterbank bands
	NChroma int // number of pitch classes
}

// ForestSettings contains the classifier hyperparameters.
type ForestSettings struct {
	Trees           int // number of trees in the ensemble
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64 // random seed for reproducible training
}

// PolicySettings contains the decision policy thresholds. These are policy
// constants carried over from the initial deployment, not calibrated values.
type PolicySettings struct {
	OverrideThreshold float64 // AI_GENERATED below this confidence reports HUMAN
	HighConfidence    float64 // explanation tier boundary
	LowConfidence     float64 // explanation tier boundary
}

// HTTPSettings contains settings for the API server.
type HTTPSettings struct {
	Host   string
	Port   string
	APIKey string // bearer token required on prediction endpoints
}

// LogSettings contains settings for file logging.
type LogSettings struct {
	Enabled  bool
	Path     string
	MaxSize  int // megabytes before rotation
	MaxAge   int // days to retain rotated files
	Backups  int // rotated files to retain
	Compress bool
}

// Settings is the root configuration struct.
type Settings struct {
	Debug     bool
	ModelPath string // path to the trained model artifact
	DataDir   string // training data root with human/ and ai/ subdirectories

	Audio    AudioSettings
	Features FeatureSettings
	Forest   ForestSettings
	Policy   PolicySettings
	HTTP     HTTPSettings
	Log      LogSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
)

// Load reads configuration from defaults, an optional config file and
// environment variables, in ascending order of precedence.
func Load() (*Settings, error) {
	setDefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, p := range configPaths() {
		viper.AddConfigPath(p)
	}

	viper.SetEnvPrefix("voicedetect")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env cover everything.
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if settings.Audio.ScratchDir == "" {
		settings.Audio.ScratchDir = os.TempDir()
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Setting returns the process-wide settings, loading them on first use.
// Load failures at this point are fatal: running with a partial configuration
// produces meaningless predictions.
func Setting() *Settings {
	once.Do(func() {
		var err error
		settingsInstance, err = Load()
		if err != nil {
			log.Fatalf("error loading settings: %v", err)
		}
	})
	return settingsInstance
}

// Validate checks invariants that would otherwise surface as confusing
// numeric failures deep in the pipeline.
func (s *Settings) Validate() error {
	switch {
	case s.Audio.SampleRate <= 0:
		return fmt.Errorf("audio.samplerate must be positive, got %d", s.Audio.SampleRate)
	case s.Audio.MinClipSeconds <= 0 || s.Audio.MinClipSeconds >= s.Audio.MaxClipSeconds:
		return fmt.Errorf("audio.minclipseconds %.2f must be positive and below audio.maxclipseconds %.2f",
			s.Audio.MinClipSeconds, s.Audio.MaxClipSeconds)
	case s.Audio.MaxDownloadMB <= 0:
		return fmt.Errorf("audio.maxdownloadmb must be positive, got %d", s.Audio.MaxDownloadMB)
	case s.Features.NFFT <= 0 || s.Features.Hop <= 0 || s.Features.Hop > s.Features.NFFT:
		return fmt.Errorf("invalid analysis window: nfft=%d hop=%d", s.Features.NFFT, s.Features.Hop)
	case s.Features.NMFCC <= 0 || s.Features.NMFCC > s.Features.NMels:
		return fmt.Errorf("features.nmfcc %d must be positive and at most features.nmels %d",
			s.Features.NMFCC, s.Features.NMels)
	case s.Forest.Trees <= 0:
		return fmt.Errorf("forest.trees must be positive, got %d", s.Forest.Trees)
	case s.Policy.OverrideThreshold < 0 || s.Policy.OverrideThreshold > 1:
		return fmt.Errorf("policy.overridethreshold %.2f outside [0,1]", s.Policy.OverrideThreshold)
	case s.Policy.LowConfidence >= s.Policy.HighConfidence:
		return fmt.Errorf("policy.lowconfidence %.2f must be below policy.highconfidence %.2f",
			s.Policy.LowConfidence, s.Policy.HighConfidence)
	}
	return nil
}

// MaxDownloadBytes returns the streaming download limit in bytes.
func (s *Settings) MaxDownloadBytes() int64 {
	return int64(s.Audio.MaxDownloadMB) * 1024 * 1024
}

// MaxSamples returns the waveform truncation point in samples.
func (s *Settings) MaxSamples() int {
	return int(s.Audio.MaxClipSeconds * float64(s.Audio.SampleRate))
}

// MinSamples returns the minimum accepted waveform length in samples.
func (s *Settings) MinSamples() int {
	return int(s.Audio.MinClipSeconds * float64(s.Audio.SampleRate))
}

func configPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "voicedetect"))
	}
	paths = append(paths, "/etc/voicedetect")
	return paths
}
