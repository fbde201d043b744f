package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/verbalis/voicedetect-go/internal/detection"
	"github.com/verbalis/voicedetect-go/internal/errors"
)

const shutdownTimeout = 10 * time.Second

// PredictRequest is the body of POST /api/v1/predict.
type PredictRequest struct {
	AudioURL string `json:"audio_url"`
}

func (s *Server) handlePredict(c echo.Context) error {
	var req PredictRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.AudioURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "audio_url is required")
	}

	// The engine repeats this check defensively; rejecting here keeps bad
	// input out of the pipeline metrics.
	if err := detection.ValidateURL(req.AudioURL); err != nil {
		return s.mapError(c, err)
	}

	result, err := s.engine.Predict(c.Request().Context(), req.AudioURL)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleModelInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Info())
}

// mapError translates pipeline error categories to HTTP statuses. Internal
// details never reach the client; the full error is already logged by the
// engine.
func (s *Server) mapError(c echo.Context, err error) error {
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.CategoryDownload, errors.CategoryAudioDecode, errors.CategoryNetwork:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "audio could not be retrieved or decoded")
	case errors.CategoryModelLoad, errors.CategoryModelState:
		return echo.NewHTTPError(http.StatusServiceUnavailable, "model unavailable")
	default:
		s.logger.Error("unhandled pipeline error",
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
