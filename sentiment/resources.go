package sentiment

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
)

//go:embed stopwords_en.txt
var bundledStopWords string

// StopWords is a read-only set of stop-words, matched exactly.
type StopWords map[string]struct{}

// Contains reports whether word is a stop-word. Matching is exact, so a
// capitalised "The" is not the stop-word "the".
func (s StopWords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// LoadStopWords reads a newline separated list. An empty path selects the
// bundled English list.
func LoadStopWords(path string) (StopWords, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return parseStopWords(bundledStopWords), nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read stop-words: %w", err)
	}
	set := parseStopWords(string(data))
	if len(set) == 0 {
		return nil, fmt.Errorf("no stop-words found in %s", filepath.Clean(path))
	}
	return set, nil
}

func parseStopWords(data string) StopWords {
	set := make(StopWords)
	for _, line := range strings.Split(data, "\n") {
		w := strings.TrimSpace(line)
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// DictionaryLemmatizer maps words through an optional override table and then
// the bundled English lemma dictionary.
type DictionaryLemmatizer struct {
	dict      *golem.Lemmatizer
	overrides map[string]string
}

// NewLemmatizer loads the English dictionary and, when overridesPath is set, a
// tab separated "word<TAB>lemma" file that takes precedence over it.
func NewLemmatizer(overridesPath string) (*DictionaryLemmatizer, error) {
	dict, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load lemma dictionary: %w", err)
	}
	overrides, err := loadLemmaOverrides(overridesPath)
	if err != nil {
		return nil, err
	}
	return &DictionaryLemmatizer{dict: dict, overrides: overrides}, nil
}

// Lemma returns the base form of word, or word itself when it is unknown.
func (d *DictionaryLemmatizer) Lemma(word string) string {
	if lemma, ok := d.overrides[word]; ok {
		return lemma
	}
	if !d.dict.InDict(word) {
		return word
	}
	return d.dict.Lemma(word)
}

func loadLemmaOverrides(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open lemma overrides: %w", err)
	}
	defer f.Close()
	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		word, lemma, ok := strings.Cut(text, "\t")
		word = strings.ToLower(strings.TrimSpace(word))
		lemma = strings.ToLower(strings.TrimSpace(lemma))
		if !ok || word == "" || lemma == "" {
			return nil, fmt.Errorf("lemma overrides line %d: want word<TAB>lemma", line)
		}
		out[word] = lemma
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lemma overrides: %w", err)
	}
	return out, nil
}

// LoadNormalizer builds a normalizer from the configured resources.
func LoadNormalizer(cfg ResourceConfig) (*Normalizer, error) {
	stopWords, err := LoadStopWords(cfg.StopWordsPath)
	if err != nil {
		return nil, err
	}
	lemmatizer, err := NewLemmatizer(cfg.LemmaOverridesPath)
	if err != nil {
		return nil, err
	}
	return NewNormalizer(stopWords, lemmatizer)
}
