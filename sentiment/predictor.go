package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// Predictor normalizes reviews and scores them with a shared classifier.
//
// Predict("") never fails in the normalizer. Whether the classifier accepts an
// empty document depends on the artifact: the linear model scores its intercept,
// the ONNX model fails with ErrEmptyInput when the tokenizer emits no tokens.
type Predictor struct {
	classifier Classifier
	normalizer *Normalizer
	logger     *slog.Logger
}

// NewPredictor constructs a predictor. The classifier stays owned by the caller.
func NewPredictor(classifier Classifier, normalizer *Normalizer, logger *slog.Logger) (*Predictor, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if normalizer == nil {
		return nil, errors.New("normalizer is required")
	}
	return &Predictor{classifier: classifier, normalizer: normalizer, logger: logger}, nil
}

// ModelID returns the identifier of the underlying artifact.
func (p *Predictor) ModelID() string {
	return p.classifier.ModelID()
}

// Predict classifies a single review.
func (p *Predictor) Predict(ctx context.Context, review string) (Result, error) {
	cleaned := p.normalizer.Normalize(review, DefaultNormalizeOptions())
	batch := []string{cleaned}

	classes, err := p.classifier.Predict(ctx, batch)
	if err != nil {
		return Result{}, fmt.Errorf("predict: %w", err)
	}
	if len(classes) != 1 {
		return Result{}, fmt.Errorf("predict: got %d classes for 1 input", len(classes))
	}
	class := classes[0]

	probas, err := p.classifier.PredictProba(ctx, batch)
	if err != nil {
		return Result{}, fmt.Errorf("predict proba: %w", err)
	}
	if len(probas) != 1 {
		return Result{}, fmt.Errorf("predict proba: got %d rows for 1 input", len(probas))
	}

	label, ok := classLabels[class]
	if !ok || class >= len(probas[0]) {
		p.logError(ctx, "classifier returned unknown class", "class", class, "model", p.ModelID())
		return Result{}, fmt.Errorf("%w: %d", ErrUnknownClass, class)
	}
	prob := probas[0][class]
	if math.IsNaN(prob) {
		return Result{}, fmt.Errorf("predict proba: NaN probability for class %d", class)
	}
	return Result{Prediction: label, Probability: formatProbability(prob)}, nil
}

// PredictAll classifies reviews in order and stops at the first failure.
func (p *Predictor) PredictAll(ctx context.Context, reviews []string) ([]Result, error) {
	out := make([]Result, 0, len(reviews))
	for i, review := range reviews {
		res, err := p.Predict(ctx, review)
		if err != nil {
			return nil, fmt.Errorf("review %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func formatProbability(p float64) string {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return fmt.Sprintf("%.2f", p)
}

func (p *Predictor) logError(ctx context.Context, msg string, args ...any) {
	if p.logger != nil {
		p.logger.ErrorContext(ctx, msg, args...)
	}
}
