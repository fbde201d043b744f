package api

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verbalis/voicedetect-go/internal/conf"
	"github.com/verbalis/voicedetect-go/internal/detection"
	"github.com/verbalis/voicedetect-go/internal/errors"
	"github.com/verbalis/voicedetect-go/internal/features"
	"github.com/verbalis/voicedetect-go/internal/forest"
	"go.uber.org/goleak"
)

const testAPIKey = "test-key"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	settings := &conf.Settings{
		Audio: conf.AudioSettings{
			SampleRate:      16000,
			MaxClipSeconds:  60,
			MinClipSeconds:  0.5,
			MaxDownloadMB:   1,
			DownloadTimeout: 5,
			ScratchDir:      t.TempDir(),
		},
		Features: conf.FeatureSettings{NFFT: 2048, Hop: 512, NMFCC: 13, NMels: 128, NChroma: 12},
		Forest:   conf.ForestSettings{Trees: 5, MaxDepth: 4, MinSamplesSplit: 4, MinSamplesLeaf: 2, Seed: 42},
		Policy:   conf.PolicySettings{OverrideThreshold: 0.85, HighConfidence: 0.85, LowConfidence: 0.65},
		HTTP:     conf.HTTPSettings{Host: "127.0.0.1", Port: "0", APIKey: testAPIKey},
	}

	engine := detection.NewEngineWithModel(settings, trainedModel(t, settings), nil)
	return New(settings, engine, nil)
}

func trainedModel(t *testing.T, settings *conf.Settings) *forest.Forest {
	t.Helper()

	names := features.New(&settings.Features).FeatureNames()
	rng := rand.New(rand.NewSource(7)) //nolint:gosec // test data

	var x [][]float64
	var y []int
	for _, class := range []int{forest.ClassHuman, forest.ClassAI} {
		center := float64(class) * 10
		for range 15 {
			row := make([]float64, len(names))
			for d := range row {
				row[d] = center + rng.Float64()
			}
			x = append(x, row)
			y = append(y, class)
		}
	}

	model := forest.New(&settings.Forest)
	_, err := model.Train(x, y, names)
	require.NoError(t, err)
	return model
}

func doRequest(s *Server, method, path, body, apiKey string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if apiKey != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+apiKey)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthNoAuth(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestPredictRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing key", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/predict", `{"audio_url":"https://example.com/a.mp3"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/predict", `{"audio_url":"https://example.com/a.mp3"}`, "wrong")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPredictValidation(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing audio_url", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/predict", `{}`, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "audio_url is required")
	})

	t.Run("malformed url", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/predict", `{"audio_url":"not-a-valid-url"}`, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("internal target blocked", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/predict", `{"audio_url":"http://127.0.0.1/x.mp3"}`, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid json body", func(t *testing.T) {
		rec := doRequest(s, http.MethodPost, "/api/v1/predict", `{not json`, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestModelInfo(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/model/info", "", testAPIKey)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "RandomForest")
	assert.Contains(t, rec.Body.String(), "AI_GENERATED")
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/health", "", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		category errors.ErrorCategory
		want     int
	}{
		{"validation", errors.CategoryValidation, http.StatusBadRequest},
		{"download", errors.CategoryDownload, http.StatusUnprocessableEntity},
		{"decode", errors.CategoryAudioDecode, http.StatusUnprocessableEntity},
		{"network", errors.CategoryNetwork, http.StatusUnprocessableEntity},
		{"model load", errors.CategoryModelLoad, http.StatusServiceUnavailable},
		{"model state", errors.CategoryModelState, http.StatusServiceUnavailable},
		{"generic", errors.CategoryGeneric, http.StatusInternalServerError},
		{"file io", errors.CategoryFileIO, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", http.NoBody)
			rec := httptest.NewRecorder()
			c := s.Echo.NewContext(req, rec)

			err := s.mapError(c, errors.Newf("boom").Category(tt.category).Build())
			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.want, httpErr.Code)
		})
	}
}
