package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
)

var wordTokenRe = regexp.MustCompile(`\b\w\w+\b`)

// LinearModel is the JSON export of a TF-IDF vectorizer followed by a logistic
// regression. Coef holds one row for binary models and one row per class otherwise.
type LinearModel struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	NgramRange  [2]int         `json:"ngram_range"`
	Lowercase   *bool          `json:"lowercase,omitempty"`
	SublinearTF bool           `json:"sublinear_tf"`
	Norm        string         `json:"norm"`
	Coef        [][]float64    `json:"coef"`
	Intercept   []float64      `json:"intercept"`
	Classes     []int          `json:"classes"`
}

// LinearClassifier scores documents with a LinearModel in pure Go.
type LinearClassifier struct {
	model   LinearModel
	modelID string
}

// LoadLinearClassifier reads and validates a LinearModel from path.
func LoadLinearClassifier(path, modelID string) (*LinearClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return NewLinearClassifier(m, modelID)
}

// NewLinearClassifier validates m and wraps it as a Classifier.
func NewLinearClassifier(m LinearModel, modelID string) (*LinearClassifier, error) {
	if len(m.Vocabulary) == 0 {
		return nil, errors.New("linear model: empty vocabulary")
	}
	if len(m.IDF) != len(m.Vocabulary) {
		return nil, fmt.Errorf("linear model: idf has %d entries, vocabulary %d", len(m.IDF), len(m.Vocabulary))
	}
	if len(m.Coef) == 0 {
		return nil, errors.New("linear model: missing coef")
	}
	for i, row := range m.Coef {
		if len(row) != len(m.IDF) {
			return nil, fmt.Errorf("linear model: coef row %d has %d weights, want %d", i, len(row), len(m.IDF))
		}
	}
	if len(m.Intercept) != len(m.Coef) {
		return nil, fmt.Errorf("linear model: %d intercepts for %d coef rows", len(m.Intercept), len(m.Coef))
	}
	for term, idx := range m.Vocabulary {
		if idx < 0 || idx >= len(m.IDF) {
			return nil, fmt.Errorf("linear model: term %q has index %d out of range", term, idx)
		}
	}
	if len(m.Classes) == 0 {
		n := len(m.Coef)
		if n == 1 {
			n = 2
		}
		m.Classes = make([]int, n)
		for i := range m.Classes {
			m.Classes[i] = i
		}
	}
	if len(m.Coef) == 1 && len(m.Classes) != 2 {
		return nil, fmt.Errorf("linear model: binary coef with %d classes", len(m.Classes))
	}
	if len(m.Coef) > 1 && len(m.Coef) != len(m.Classes) {
		return nil, fmt.Errorf("linear model: %d coef rows for %d classes", len(m.Coef), len(m.Classes))
	}
	if m.NgramRange[0] <= 0 {
		m.NgramRange[0] = 1
	}
	if m.NgramRange[1] < m.NgramRange[0] {
		m.NgramRange[1] = m.NgramRange[0]
	}
	if m.Norm == "" {
		m.Norm = "l2"
	}
	return &LinearClassifier{model: m, modelID: modelID}, nil
}

// ModelID returns the identifier of the loaded artifact.
func (c *LinearClassifier) ModelID() string {
	return c.modelID
}

// Close is a no-op; the model lives in memory.
func (c *LinearClassifier) Close() error {
	return nil
}

// Predict returns the class value with the highest probability for each text.
func (c *LinearClassifier) Predict(ctx context.Context, texts []string) ([]int, error) {
	probas, err := c.PredictProba(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probas))
	for i, row := range probas {
		out[i] = c.model.Classes[argmax(row)]
	}
	return out, nil
}

// PredictProba returns one probability row per text, columns ordered as Classes.
// An empty document scores the intercept alone.
func (c *LinearClassifier) PredictProba(ctx context.Context, texts []string) ([][]float64, error) {
	if c == nil || len(c.model.Coef) == 0 {
		return nil, ErrNotLoaded
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = c.scoreDocument(c.vectorize(text))
	}
	return out, nil
}

func (c *LinearClassifier) scoreDocument(features map[int]float64) []float64 {
	m := c.model
	decision := make([]float64, len(m.Coef))
	for k, row := range m.Coef {
		d := m.Intercept[k]
		for idx, v := range features {
			d += row[idx] * v
		}
		decision[k] = d
	}
	if len(decision) == 1 {
		p := sigmoid(decision[0])
		return []float64{1 - p, p}
	}
	return softmax(decision)
}

func (c *LinearClassifier) vectorize(text string) map[int]float64 {
	m := c.model
	if m.Lowercase == nil || *m.Lowercase {
		text = strings.ToLower(text)
	}
	tokens := wordTokenRe.FindAllString(text, -1)
	counts := make(map[int]float64)
	for n := m.NgramRange[0]; n <= m.NgramRange[1]; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			if idx, ok := m.Vocabulary[term]; ok {
				counts[idx]++
			}
		}
	}
	var sumSq, sumAbs float64
	for idx, tf := range counts {
		if m.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		v := tf * m.IDF[idx]
		counts[idx] = v
		sumSq += v * v
		sumAbs += math.Abs(v)
	}
	switch m.Norm {
	case "l2":
		if sumSq > 0 {
			scale := math.Sqrt(sumSq)
			for idx := range counts {
				counts[idx] /= scale
			}
		}
	case "l1":
		if sumAbs > 0 {
			for idx := range counts {
				counts[idx] /= sumAbs
			}
		}
	}
	return counts
}
