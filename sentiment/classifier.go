package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyInput is returned by artifacts that cannot score an empty document.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnknownClass signals a class index outside the binary label set.
	ErrUnknownClass = errors.New("class index outside label set")
	// ErrNotLoaded is returned when a closed or zero-value classifier is used.
	ErrNotLoaded = errors.New("classifier is not loaded")
)

// Classifier is the contract of a loaded classification artifact. Implementations
// are read-only after construction and safe for concurrent use.
type Classifier interface {
	Predict(ctx context.Context, texts []string) ([]int, error)
	PredictProba(ctx context.Context, texts []string) ([][]float64, error)
	ModelID() string
	Close() error
}

// LoadClassifier opens the artifact described by cfg. The format is taken from
// cfg.Format or, when unset, from the file extension.
func LoadClassifier(cfg ModelConfig) (Classifier, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("model path is required")
	}
	if cfg.ModelID == "" {
		cfg.ModelID = filepath.Base(cfg.Path)
	}
	format := cfg.Format
	if format == "" {
		format = formatFromPath(cfg.Path)
	}
	switch format {
	case FormatONNX:
		return NewOnnxClassifier(cfg)
	case FormatLinear:
		return LoadLinearClassifier(cfg.Path, cfg.ModelID)
	default:
		return nil, fmt.Errorf("unsupported model format %q", format)
	}
}

func formatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx":
		return FormatONNX
	case ".json":
		return FormatLinear
	default:
		return Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	}
}

func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	maxV := logits[0]
	for _, v := range logits[1:] {
		if v > maxV {
			maxV = v
		}
	}
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func argmax(row []float64) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}

func argmaxRows(rows [][]float64) []int {
	out := make([]int, len(rows))
	for i, row := range rows {
		out[i] = argmax(row)
	}
	return out
}
