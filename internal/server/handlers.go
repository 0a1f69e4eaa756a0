package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "yashubustudio/sentiment/internal/errors"
)

type predictRequest struct {
	Review *string `json:"review"`
}

func (s *Server) handleGreeting(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"Hello": "Sentiment service"})
}

func (s *Server) handlePredict(c echo.Context) error {
	var req predictRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		if errors.Is(err, io.EOF) {
			return apperrors.ValidationError("request body is empty")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return apperrors.ValidationError("field \"review\" must be a string").WithContext("field", "review")
		}
		return apperrors.ValidationError("request body is not valid JSON")
	}
	if req.Review == nil {
		return apperrors.ValidationError("field \"review\" is required").WithContext("field", "review")
	}

	start := time.Now()
	result, err := s.predictor.Predict(c.Request().Context(), *req.Review)
	s.predMetrics.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.predMetrics.ErrorsTotal.Inc()
		return apperrors.InternalError("prediction failed", err).WithContext("model", s.predictor.ModelID())
	}
	s.predMetrics.PredictionsTotal.WithLabelValues(result.Prediction).Inc()

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"model":  s.predictor.ModelID(),
	})
}
