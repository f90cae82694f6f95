package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrModelUnavailable marks a NER model that failed to load. Construction
// callers surface it; evaluation callers treat it as "no contribution".
var ErrModelUnavailable = errors.New("ner model unavailable")

// WordPrediction is the model's verdict for one word of the input.
type WordPrediction struct {
	Word  Word
	Label string // raw model label, possibly B-/I- prefixed
	Score float64
}

// TokenClassifier produces token-level labeled spans for a text. The
// ONNX-backed Model is the production implementation; tests substitute
// fakes.
type TokenClassifier interface {
	Predict(ctx context.Context, text string) ([]WordPrediction, error)
}

// Model runs token classification through an exported ONNX model. The
// session, vocabulary, and label table are loaded lazily on first use
// and reused for the lifetime of the model; loading is the one expensive
// operation in this package.
type Model struct {
	dir      string
	maxBytes int

	once      sync.Once
	loadErr   error
	labels    map[int]string
	tokenizer *WordPieceTokenizer
	session   *ort.DynamicAdvancedSession
}

var ortInit sync.Once

// NewModel creates a lazily-loaded model rooted at dir, which must hold
// model.onnx, labels.json, and tokenizer.json.
func NewModel(dir string) *Model {
	return &Model{dir: dir, maxBytes: 32 * 1024}
}

// Load forces initialization. Useful at construction time so a broken
// model surfaces immediately rather than on the first request.
func (m *Model) Load() error { return m.init() }

func (m *Model) init() error {
	m.once.Do(func() {
		modelPath := filepath.Join(m.dir, "model.onnx")
		if _, err := os.Stat(modelPath); err != nil {
			m.loadErr = fmt.Errorf("%w: model missing: %v", ErrModelUnavailable, err)
			return
		}
		labels, err := loadLabels(filepath.Join(m.dir, "labels.json"))
		if err != nil {
			m.loadErr = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			return
		}
		tokenizer, err := NewWordPieceTokenizer(filepath.Join(m.dir, "tokenizer.json"))
		if err != nil {
			m.loadErr = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			return
		}
		ortInit.Do(func() {
			if p := os.Getenv("PIIGUARD_ONNXRUNTIME_LIB"); p != "" {
				ort.SetSharedLibraryPath(p)
			}
			if err := ort.InitializeEnvironment(); err != nil {
				m.loadErr = fmt.Errorf("%w: init onnxruntime: %v", ErrModelUnavailable, err)
			}
		})
		if m.loadErr != nil {
			return
		}
		session, err := ort.NewDynamicAdvancedSession(modelPath,
			[]string{"input_ids", "attention_mask", "token_type_ids"},
			[]string{"logits"}, nil)
		if err != nil {
			m.loadErr = fmt.Errorf("%w: create session: %v", ErrModelUnavailable, err)
			return
		}
		m.labels = labels
		m.tokenizer = tokenizer
		m.session = session
	})
	return m.loadErr
}

func loadLabels(path string) (map[int]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	var byKey map[string]string
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	out := make(map[int]string, len(byKey))
	for k, v := range byKey {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("labels: non-numeric index %q", k)
		}
		out[idx] = v
	}
	if len(out) == 0 {
		return nil, errors.New("labels: empty table")
	}
	return out, nil
}

// Close releases the inference session. The model cannot be used after.
func (m *Model) Close() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}

// Predict tokenizes text, runs inference, and aggregates wordpiece
// logits back to word-level predictions. A word's label comes from its
// first subword; its score is the mean of its subwords' top softmax
// probabilities.
func (m *Model) Predict(ctx context.Context, text string) ([]WordPrediction, error) {
	if text == "" || len(text) > m.maxBytes {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.init(); err != nil {
		return nil, err
	}

	enc := m.tokenizer.Encode(text)
	if len(enc.Words) == 0 {
		return nil, nil
	}
	logits, err := m.run(enc)
	if err != nil {
		return nil, err
	}

	numLabels := len(m.labels)
	type acc struct {
		label string
		sum   float64
		n     int
	}
	byWord := make([]acc, len(enc.Words))
	for pos, wi := range enc.WordIndex {
		if wi < 0 {
			continue
		}
		row := logits[pos*numLabels : (pos+1)*numLabels]
		idx, prob := softmaxTop(row)
		if byWord[wi].n == 0 {
			byWord[wi].label = m.labels[idx]
		}
		byWord[wi].sum += prob
		byWord[wi].n++
	}
	out := make([]WordPrediction, 0, len(enc.Words))
	for wi, a := range byWord {
		if a.n == 0 {
			continue
		}
		out = append(out, WordPrediction{
			Word:  enc.Words[wi],
			Label: a.label,
			Score: a.sum / float64(a.n),
		})
	}
	return out, nil
}

func (m *Model) run(enc *Encoding) ([]float32, error) {
	n := int64(len(enc.InputIDs))
	shape := ort.NewShape(1, n)
	ids, err := ort.NewTensor(shape, enc.InputIDs)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer ids.Destroy()
	mask, err := ort.NewTensor(shape, enc.AttentionMask)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer mask.Destroy()
	types, err := ort.NewTensor(shape, enc.TokenTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	defer types.Destroy()

	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{ids, mask, types}, outputs); err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	logitsTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("inference: unexpected output tensor type")
	}
	defer logitsTensor.Destroy()

	data := logitsTensor.GetData()
	want := int(n) * len(m.labels)
	if len(data) != want {
		return nil, fmt.Errorf("inference: got %d logits, want %d", len(data), want)
	}
	return append([]float32(nil), data...), nil
}

func softmaxTop(row []float32) (int, float64) {
	if len(row) == 0 {
		return 0, 0
	}
	maxIdx := 0
	maxVal := row[0]
	for i, v := range row {
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
	}
	var denom float64
	for _, v := range row {
		denom += math.Exp(float64(v - maxVal))
	}
	if denom == 0 {
		return maxIdx, 0
	}
	return maxIdx, 1.0 / denom
}
