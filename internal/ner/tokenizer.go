// Package ner wraps a token-classification model behind the
// analysis.Recognizer interface. The adapter owns span reconstruction
// and label normalization; the model itself is a black box producing
// token-level labeled spans.
package ner

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Word is one whitespace/punctuation-delimited token of the input text.
// Offsets are rune offsets into the original text.
type Word struct {
	Text       string
	Start, End int
}

// splitWords extracts letter/digit runs with their rune offsets.
func splitWords(text string) []Word {
	words := make([]Word, 0)
	var buf []rune
	start := -1
	pos := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = pos
			}
			buf = append(buf, r)
		} else if start >= 0 {
			words = append(words, Word{Text: string(buf), Start: start, End: pos})
			buf = buf[:0]
			start = -1
		}
		pos++
	}
	if start >= 0 {
		words = append(words, Word{Text: string(buf), Start: start, End: pos})
	}
	return words
}

// Encoding is the model-ready form of one input text.
type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
	// WordIndex maps each wordpiece position to its source word in
	// Words, or -1 for special tokens.
	WordIndex []int
	Words     []Word
}

// WordPieceTokenizer encodes text with a BERT-style vocabulary loaded
// from a HuggingFace tokenizer.json export.
type WordPieceTokenizer struct {
	vocab      map[string]int
	unkID      int
	clsID      int
	sepID      int
	maxWordLen int
	maxSeqLen  int
	lowercase  bool
}

type tokenizerJSON struct {
	Model struct {
		Vocab map[string]int `json:"vocab"`
	} `json:"model"`
	Normalizer struct {
		Lowercase *bool `json:"lowercase"`
	} `json:"normalizer"`
}

// NewWordPieceTokenizer loads the vocabulary at path. A vocabulary
// missing the special tokens is a configuration error.
func NewWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}
	var cfg tokenizerJSON
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse tokenizer: %w", err)
	}
	if len(cfg.Model.Vocab) == 0 {
		return nil, fmt.Errorf("tokenizer %s: model.vocab is empty", path)
	}
	t := &WordPieceTokenizer{
		vocab:      cfg.Model.Vocab,
		maxWordLen: 100,
		maxSeqLen:  512,
		lowercase:  true,
	}
	if cfg.Normalizer.Lowercase != nil {
		t.lowercase = *cfg.Normalizer.Lowercase
	}
	var ok bool
	if t.unkID, ok = t.vocab["[UNK]"]; !ok {
		return nil, fmt.Errorf("tokenizer %s: vocab is missing [UNK]", path)
	}
	if t.clsID, ok = t.vocab["[CLS]"]; !ok {
		return nil, fmt.Errorf("tokenizer %s: vocab is missing [CLS]", path)
	}
	if t.sepID, ok = t.vocab["[SEP]"]; !ok {
		return nil, fmt.Errorf("tokenizer %s: vocab is missing [SEP]", path)
	}
	return t, nil
}

// Encode splits text into words and each word into wordpieces, framed by
// [CLS]/[SEP]. Words past the sequence limit are truncated.
func (t *WordPieceTokenizer) Encode(text string) *Encoding {
	words := splitWords(text)
	enc := &Encoding{
		InputIDs:      []int64{int64(t.clsID)},
		AttentionMask: []int64{1},
		TokenTypeIDs:  []int64{0},
		WordIndex:     []int{-1},
		Words:         words,
	}
	for wi, word := range words {
		for _, id := range t.wordToPieces(word.Text) {
			if len(enc.InputIDs) >= t.maxSeqLen-1 {
				break
			}
			enc.InputIDs = append(enc.InputIDs, int64(id))
			enc.AttentionMask = append(enc.AttentionMask, 1)
			enc.TokenTypeIDs = append(enc.TokenTypeIDs, 0)
			enc.WordIndex = append(enc.WordIndex, wi)
		}
		if len(enc.InputIDs) >= t.maxSeqLen-1 {
			break
		}
	}
	enc.InputIDs = append(enc.InputIDs, int64(t.sepID))
	enc.AttentionMask = append(enc.AttentionMask, 1)
	enc.TokenTypeIDs = append(enc.TokenTypeIDs, 0)
	enc.WordIndex = append(enc.WordIndex, -1)
	return enc
}

func (t *WordPieceTokenizer) wordToPieces(word string) []int {
	if word == "" {
		return []int{t.unkID}
	}
	normalized := word
	if t.lowercase {
		normalized = strings.ToLower(word)
	}
	runes := []rune(normalized)
	if len(runes) > t.maxWordLen {
		return []int{t.unkID}
	}
	if id, ok := t.vocab[string(runes)]; ok {
		return []int{id}
	}
	ids := make([]int, 0)
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := -1
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				found = id
				break
			}
			end--
		}
		if found == -1 {
			return []int{t.unkID}
		}
		ids = append(ids, found)
		start = end
	}
	return ids
}
