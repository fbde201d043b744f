package detection

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/errors"
	"github.com/verbalis/voicedetect-go/internal/features"
	"github.com/verbalis/voicedetect-go/internal/fetcher"
	"github.com/verbalis/voicedetect-go/internal/forest"
	"github.com/verbalis/voicedetect-go/internal/logging"
	"github.com/verbalis/voicedetect-go/internal/myaudio"
	"github.com/verbalis/voicedetect-go/internal/observability"
)

// Engine runs the inference pipeline. The model is loaded once at startup and
// never mutated afterwards, so one Engine serves concurrent requests without
// synchronization; every request gets its own scratch file.
type Engine struct {
	settings  *conf.Settings
	model     *forest.Forest
	extractor *features.Extractor
	fetcher   *fetcher.Fetcher
	policy    *Policy
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewEngine loads the model artifact and assembles the pipeline. A missing or
// corrupt artifact is a startup failure, not a per-request error.
func NewEngine(settings *conf.Settings, metrics *observability.Metrics) (*Engine, error) {
	extractor := features.New(&settings.Features)

	model, err := forest.Load(settings.ModelPath, extractor.FeatureNames())
	if err != nil {
		return nil, err
	}

	if metrics != nil {
		metrics.Detection.ModelLoadedGauge.Set(1)
	}

	return &Engine{
		settings:  settings,
		model:     model,
		extractor: extractor,
		fetcher:   fetcher.New(&settings.Audio),
		policy:    NewPolicy(&settings.Policy),
		metrics:   metrics,
		logger:    logging.ForService("detection"),
	}, nil
}

// NewEngineWithModel assembles a pipeline around an already-trained model.
// Used by the CLI and in tests where no artifact file exists.
func NewEngineWithModel(settings *conf.Settings, model *forest.Forest, metrics *observability.Metrics) *Engine {
	return &Engine{
		settings:  settings,
		model:     model,
		extractor: features.New(&settings.Features),
		fetcher:   fetcher.New(&settings.Audio),
		policy:    NewPolicy(&settings.Policy),
		metrics:   metrics,
		logger:    logging.ForService("detection"),
	}
}

// Predict runs the full pipeline for one audio URL: validate, acquire,
// decode, extract, classify, explain. The scratch file is removed on every
// exit path. Elapsed wall-clock time is measured from entry and reported in
// the result in milliseconds.
func (e *Engine) Predict(ctx context.Context, audioURL string) (*Result, error) {
	start := time.Now()

	if err := ValidateURL(audioURL); err != nil {
		return nil, e.fail(err, start)
	}

	tempPath, err := e.fetcher.Fetch(ctx, audioURL)
	if err != nil {
		return nil, e.fail(err, start)
	}
	defer e.cleanup(tempPath)

	if e.metrics != nil {
		if info, err := os.Stat(tempPath); err == nil {
			e.metrics.Detection.DownloadBytes.Observe(float64(info.Size()))
		}
	}

	wave, sampleRate, err := myaudio.ReadFile(ctx, e.settings, tempPath)
	if err != nil {
		return nil, e.fail(err, start)
	}

	vector, err := e.extractor.Extract(wave, sampleRate)
	if err != nil {
		return nil, e.fail(err, start)
	}

	rawLabel, confidence, err := e.model.Predict(vector)
	if err != nil {
		return nil, e.fail(err, start)
	}

	label := e.policy.Apply(rawLabel, confidence)

	// The scratch name is a content hash and can never carry language
	// markers, so the heuristic inspects the request URL instead.
	language := DetectLanguageFromPath(audioURL)

	result := &Result{
		Label:            label,
		Confidence:       confidence,
		Language:         language,
		Explanation:      e.policy.Explain(label, confidence),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}

	if e.metrics != nil {
		e.metrics.Detection.PredictionTotal.WithLabelValues(label).Inc()
		e.metrics.Detection.PredictionDuration.Observe(time.Since(start).Seconds())
	}
	e.logger.Info("prediction complete",
		"label", label,
		"raw_label", rawLabel,
		"confidence", confidence,
		"language", language,
		"duration_ms", result.ProcessingTimeMS)

	return result, nil
}

// PredictFile runs the pipeline on a local audio file, skipping acquisition.
// The caller keeps ownership of the file. Used by the CLI and by offline
// evaluation.
func (e *Engine) PredictFile(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	wave, sampleRate, err := myaudio.ReadFile(ctx, e.settings, path)
	if err != nil {
		return nil, e.fail(err, start)
	}

	vector, err := e.extractor.Extract(wave, sampleRate)
	if err != nil {
		return nil, e.fail(err, start)
	}

	rawLabel, confidence, err := e.model.Predict(vector)
	if err != nil {
		return nil, e.fail(err, start)
	}

	label := e.policy.Apply(rawLabel, confidence)

	return &Result{
		Label:            label,
		Confidence:       confidence,
		Language:         DetectLanguageFromPath(path),
		Explanation:      e.policy.Explain(label, confidence),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

// ModelInfo describes the loaded model for the info endpoint.
type ModelInfo struct {
	ModelType   string   `json:"model_type"`
	NumTrees    int      `json:"n_trees"`
	NumFeatures int      `json:"n_features"`
	Classes     []string `json:"classes"`
	Trained     bool     `json:"trained"`
}

// Info returns metadata about the loaded model.
func (e *Engine) Info() ModelInfo {
	return ModelInfo{
		ModelType:   "RandomForest",
		NumTrees:    len(e.model.Trees),
		NumFeatures: len(e.model.FeatureNames),
		Classes:     e.model.ClassNames,
		Trained:     e.model.Trained,
	}
}

// fail records the error with elapsed time so far and returns it unchanged.
func (e *Engine) fail(err error, start time.Time) error {
	category := errors.CategoryOf(err)
	if e.metrics != nil {
		e.metrics.Detection.PipelineErrors.WithLabelValues(string(category)).Inc()
	}
	e.logger.Warn("prediction failed",
		"category", string(category),
		"error", err,
		"elapsed_ms", time.Since(start).Milliseconds())
	return err
}

// cleanup removes the scratch file. Failure to delete is logged and ignored;
// correctness depends on attempting cleanup, not on it succeeding.
func (e *Engine) cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		e.logger.Warn("failed to remove scratch file", "path", path, "error", err)
	}
}
