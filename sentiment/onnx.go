package sentiment

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
)

var (
	ortMu   sync.Mutex
	ortRefs int
)

func acquireOrt(dll string) error {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortRefs == 0 && !ort.IsInitialized() {
		if dll != "" {
			ort.SetSharedLibraryPath(dll)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("init onnxruntime: %w", err)
		}
	}
	ortRefs++
	return nil
}

func releaseOrt() {
	ortMu.Lock()
	defer ortMu.Unlock()
	if ortRefs == 0 {
		return
	}
	ortRefs--
	if ortRefs == 0 {
		_ = ort.DestroyEnvironment()
	}
}

// OnnxClassifier runs a transformer sequence classifier through onnxruntime.
type OnnxClassifier struct {
	cfg        ModelConfig
	inputs     []string
	numClasses int64

	tkMu sync.Mutex
	tk   *tokenizer.Tokenizer

	mu      sync.RWMutex
	session *ort.DynamicAdvancedSession
}

// NewOnnxClassifier loads the tokenizer, initializes onnxruntime and opens a session.
func NewOnnxClassifier(cfg ModelConfig) (*OnnxClassifier, error) {
	if cfg.TokenizerPath == "" {
		cfg.TokenizerPath = filepath.Join(filepath.Dir(cfg.Path), "tokenizer.json")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 512
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "logits"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = filepath.Base(cfg.Path)
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	if err := acquireOrt(cfg.OrtDLL); err != nil {
		return nil, err
	}
	inputInfo, outputInfo, err := ort.GetInputOutputInfo(cfg.Path)
	if err != nil {
		releaseOrt()
		return nil, fmt.Errorf("inspect model: %w", err)
	}
	inputs := make([]string, 0, len(inputInfo))
	for _, in := range inputInfo {
		switch in.Name {
		case inputIDs, attentionMask, tokenTypeIDs:
			inputs = append(inputs, in.Name)
		default:
			releaseOrt()
			return nil, fmt.Errorf("model input %q is not supported", in.Name)
		}
	}
	output, numClasses, err := pickOutput(outputInfo, cfg.OutputName)
	if err != nil {
		releaseOrt()
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.Path, inputs, []string{output}, nil)
	if err != nil {
		releaseOrt()
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &OnnxClassifier{
		cfg:        cfg,
		inputs:     inputs,
		numClasses: numClasses,
		tk:         tk,
		session:    session,
	}, nil
}

func pickOutput(outputs []ort.InputOutputInfo, want string) (string, int64, error) {
	var chosen *ort.InputOutputInfo
	for i := range outputs {
		if outputs[i].Name == want {
			chosen = &outputs[i]
			break
		}
	}
	if chosen == nil && len(outputs) == 1 {
		chosen = &outputs[0]
	}
	if chosen == nil {
		return "", 0, fmt.Errorf("model has no output named %q", want)
	}
	classes := int64(2)
	if dims := chosen.Dimensions; len(dims) > 0 && dims[len(dims)-1] > 0 {
		classes = dims[len(dims)-1]
	}
	return chosen.Name, classes, nil
}

// ModelID returns the identifier of the loaded artifact.
func (o *OnnxClassifier) ModelID() string {
	return o.cfg.ModelID
}

// Close destroys the session and releases the runtime when no other classifier uses it.
func (o *OnnxClassifier) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	releaseOrt()
	return err
}

// Predict returns the arg-max class index of each text.
func (o *OnnxClassifier) Predict(ctx context.Context, texts []string) ([]int, error) {
	probas, err := o.PredictProba(ctx, texts)
	if err != nil {
		return nil, err
	}
	return argmaxRows(probas), nil
}

// PredictProba returns softmax probabilities per text. A text that tokenizes to
// nothing fails with ErrEmptyInput.
func (o *OnnxClassifier) PredictProba(ctx context.Context, texts []string) ([][]float64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.session == nil {
		return nil, ErrNotLoaded
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logits, err := o.run(text)
		if err != nil {
			return nil, err
		}
		out[i] = softmax(logits)
	}
	return out, nil
}

func (o *OnnxClassifier) run(text string) ([]float64, error) {
	features, n, err := o.encode(text)
	if err != nil {
		return nil, err
	}
	shape := ort.NewShape(1, int64(n))
	values := make([]ort.Value, 0, len(o.inputs))
	defer func() {
		for _, v := range values {
			_ = v.Destroy()
		}
	}()
	for _, name := range o.inputs {
		t, err := ort.NewTensor(shape, features[name])
		if err != nil {
			return nil, fmt.Errorf("create %s tensor: %w", name, err)
		}
		values = append(values, t)
	}
	logits, err := ort.NewEmptyTensor[float32](ort.NewShape(1, o.numClasses))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer logits.Destroy()
	if err := o.session.Run(values, []ort.Value{logits}); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	raw := logits.GetData()
	row := make([]float64, len(raw))
	for i, v := range raw {
		row[i] = float64(v)
	}
	return row, nil
}

func (o *OnnxClassifier) encode(text string) (map[string][]int64, int, error) {
	o.tkMu.Lock()
	enc, err := o.tk.EncodeSingle(text, true)
	o.tkMu.Unlock()
	if err != nil {
		return nil, 0, fmt.Errorf("tokenize: %w", err)
	}
	ids, mask, types := enc.Ids, enc.AttentionMask, enc.TypeIds
	if len(ids) == 0 {
		return nil, 0, ErrEmptyInput
	}
	n := len(ids)
	if n > o.cfg.MaxSeqLen {
		n = o.cfg.MaxSeqLen
	}
	features := map[string][]int64{
		inputIDs:      make([]int64, n),
		attentionMask: make([]int64, n),
		tokenTypeIDs:  make([]int64, n),
	}
	for i := 0; i < n; i++ {
		src := i
		// keep the closing special token when truncating
		if i == n-1 && n < len(ids) {
			src = len(ids) - 1
		}
		features[inputIDs][i] = int64(ids[src])
		features[attentionMask][i] = 1
		if src < len(mask) {
			features[attentionMask][i] = int64(mask[src])
		}
		if src < len(types) {
			features[tokenTypeIDs][i] = int64(types[src])
		}
	}
	return features, n, nil
}
