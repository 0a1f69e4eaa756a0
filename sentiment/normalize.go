package sentiment

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// punctuation mirrors the ASCII punctuation class.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	nonAlnumRe    = regexp.MustCompile(`[^A-Za-z0-9]`)
	possessiveRe  = regexp.MustCompile(`'s`)
	urlRe         = regexp.MustCompile(`http\S+`)
	numberTokenRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\s+`)
)

// NormalizeOptions toggles the optional cleaning steps.
type NormalizeOptions struct {
	RemoveStopWords bool
	Lemmatize       bool
}

// DefaultNormalizeOptions enables every step. The predictor always uses these.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{RemoveStopWords: true, Lemmatize: true}
}

// Lemmatizer reduces a lower-case word to its dictionary base form.
type Lemmatizer interface {
	Lemma(word string) string
}

// Normalizer turns raw review text into the token string the classifier was trained on.
// It holds only read-only resources and is safe for concurrent use.
type Normalizer struct {
	stopWords  StopWords
	lemmatizer Lemmatizer
}

// NewNormalizer wires the stop-word set and lemmatizer into a normalizer.
func NewNormalizer(stopWords StopWords, lemmatizer Lemmatizer) (*Normalizer, error) {
	if len(stopWords) == 0 {
		return nil, errors.New("stop-word set is required")
	}
	if lemmatizer == nil {
		return nil, errors.New("lemmatizer is required")
	}
	return &Normalizer{stopWords: stopWords, lemmatizer: lemmatizer}, nil
}

// Normalize applies the cleaning steps in order. Each regex runs on the output of
// the previous one, so reordering them changes results.
func (n *Normalizer) Normalize(text string, opts NormalizeOptions) string {
	text = nonAlnumRe.ReplaceAllString(text, " ")
	text = possessiveRe.ReplaceAllString(text, " ")
	text = urlRe.ReplaceAllString(text, " link ")
	text = numberTokenRe.ReplaceAllString(text, "")
	text = stripPunctuation(text)

	if opts.RemoveStopWords {
		text = n.removeStopWords(text)
	}
	if opts.Lemmatize {
		text = n.lemmatize(text)
	}
	return text
}

func (n *Normalizer) removeStopWords(text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, w := range fields {
		if n.stopWords.Contains(w) {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func (n *Normalizer) lemmatize(text string) string {
	// cases.Caser keeps state, so each call gets its own.
	lower := cases.Lower(language.English)
	fields := strings.Fields(text)
	for i, w := range fields {
		fields[i] = n.lemmatizer.Lemma(lower.String(w))
	}
	return strings.Join(fields, " ")
}

func stripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, text)
}
