package sentiment

// Labels produced by the predictor. The artifact is assumed binary.
const (
	LabelNegative = "Negative"
	LabelPositive = "Positive"
)

var classLabels = map[int]string{
	0: LabelNegative,
	1: LabelPositive,
}

// Result is the prediction returned for a single review.
type Result struct {
	Prediction  string `json:"prediction"`
	Probability string `json:"probability"`
}

// Format identifies how a classification artifact is serialized on disk.
type Format string

const (
	// FormatONNX is a transformer sequence classifier exported to ONNX with a
	// HuggingFace tokenizer.json next to it.
	FormatONNX Format = "onnx"
	// FormatLinear is a TF-IDF + logistic regression pipeline exported as JSON.
	FormatLinear Format = "linear"
)

// ModelConfig describes where the classification artifact lives and how to run it.
type ModelConfig struct {
	Path          string `json:"path"`
	Format        Format `json:"format,omitempty"`
	ModelID       string `json:"modelId,omitempty"`
	OrtDLL        string `json:"ortDll,omitempty"`
	TokenizerPath string `json:"tokenizerPath,omitempty"`
	MaxSeqLen     int    `json:"maxSeqLen,omitempty"`
	OutputName    string `json:"outputName,omitempty"`
}

// ResourceConfig points at optional replacements for the bundled linguistic data.
type ResourceConfig struct {
	StopWordsPath      string `json:"stopWordsPath,omitempty"`
	LemmaOverridesPath string `json:"lemmaOverridesPath,omitempty"`
}

// Config aggregates settings persisted to config.json.
type Config struct {
	Model     ModelConfig    `json:"model"`
	Resources ResourceConfig `json:"resources"`
}

// InputRecord is a review read from a batch input file.
type InputRecord struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Model.Path == "" {
		c.Model.Path = "./models/sentiment_pipeline.json"
	}
	if c.Model.MaxSeqLen == 0 {
		c.Model.MaxSeqLen = 512
	}
	if c.Model.OutputName == "" {
		c.Model.OutputName = "logits"
	}
}
