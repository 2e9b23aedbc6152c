package classifier

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tokenize folds case, normalizes to NFKC and splits text into word tokens
// of at least two runes.
func Tokenize(text string) []string {
	folded := cases.Fold().String(norm.NFKC.String(text))
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	tokens := words[:0]
	for _, w := range words {
		if len([]rune(w)) >= 2 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// Terms returns the unigrams and adjacent-token bigrams of text.
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// Feature is one non-zero entry of a sparse feature vector.
type Feature struct {
	Index int
	Value float64
}

// Vectorizer maps text to L2-normalized TF-IDF vectors with sublinear term
// frequency and smoothed inverse document frequency.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// FitVectorizer learns the vocabulary and IDF weights from texts, keeping at
// most maxFeatures terms ranked by corpus frequency. maxFeatures <= 0 keeps
// every term.
func FitVectorizer(texts []string, maxFeatures int) *Vectorizer {
	counts := make(map[string]int)
	docFreq := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]bool)
		for _, t := range Terms(text) {
			counts[t]++
			if !seen[t] {
				seen[t] = true
				docFreq[t]++
			}
		}
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxFeatures > 0 && len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(texts))
	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}
	for i, t := range terms {
		v.Vocabulary[t] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}
	return v
}

// Transform returns the sparse feature vector for text, sorted by index.
// Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) []Feature {
	tf := make(map[int]int)
	for _, t := range Terms(text) {
		if idx, ok := v.Vocabulary[t]; ok {
			tf[idx]++
		}
	}
	features := make([]Feature, 0, len(tf))
	var norm2 float64
	for idx, c := range tf {
		val := (1 + math.Log(float64(c))) * v.IDF[idx]
		features = append(features, Feature{Index: idx, Value: val})
		norm2 += val * val
	}
	if norm2 > 0 {
		inv := 1 / math.Sqrt(norm2)
		for i := range features {
			features[i].Value *= inv
		}
	}
	sort.Slice(features, func(i, j int) bool { return features[i].Index < features[j].Index })
	return features
}

// Size returns the number of features.
func (v *Vectorizer) Size() int {
	return len(v.IDF)
}
