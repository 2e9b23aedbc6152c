// Package classifier categorizes expense descriptions with a TF-IDF
// multinomial logistic regression model.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ModelVersion is bumped whenever the artifact layout changes.
const ModelVersion = 1

var (
	ErrEmptyTrainingSet = errors.New("empty training set")
	ErrModelMismatch    = errors.New("model artifact is inconsistent")
)

// Prediction is the classifier output for one description.
type Prediction struct {
	Category   string             `json:"category"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
}

// Model is a trained, read-only classifier. It is safe for concurrent use.
type Model struct {
	Version    int         `json:"version"`
	Vectorizer *Vectorizer `json:"vectorizer"`
	Classes    []string    `json:"classes"`
	// Weights is indexed by class, then feature.
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// TrainOptions controls fitting.
type TrainOptions struct {
	// MaxFeatures caps the vocabulary size.
	MaxFeatures int
	// C is the inverse L2 regularization strength.
	C            float64
	LearningRate float64
	Iterations   int
}

// DefaultTrainOptions mirrors the production model settings.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		MaxFeatures:  10000,
		C:            1.0,
		LearningRate: 2.0,
		Iterations:   1000,
	}
}

// Train fits a model on examples by full-batch gradient descent on the
// L2-regularized multinomial cross-entropy.
func Train(examples []Example, opts TrainOptions) (*Model, error) {
	if len(examples) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if opts.C <= 0 || opts.LearningRate <= 0 || opts.Iterations <= 0 {
		return nil, fmt.Errorf("invalid train options: %+v", opts)
	}

	texts := make([]string, len(examples))
	classSet := make(map[string]bool)
	for i, ex := range examples {
		texts[i] = ex.Text
		classSet[ex.Label] = true
	}
	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	vec := FitVectorizer(texts, opts.MaxFeatures)
	xs := make([][]Feature, len(examples))
	ys := make([]int, len(examples))
	for i, ex := range examples {
		xs[i] = vec.Transform(ex.Text)
		ys[i] = classIdx[ex.Label]
	}

	k, d, n := len(classes), vec.Size(), float64(len(examples))
	m := &Model{
		Version:    ModelVersion,
		Vectorizer: vec,
		Classes:    classes,
		Weights:    make([][]float64, k),
		Bias:       make([]float64, k),
	}
	gradW := make([][]float64, k)
	for c := range m.Weights {
		m.Weights[c] = make([]float64, d)
		gradW[c] = make([]float64, d)
	}
	gradB := make([]float64, k)
	lambda := 1 / (opts.C * n)
	probs := make([]float64, k)

	for iter := 0; iter < opts.Iterations; iter++ {
		for c := range gradW {
			for j := range gradW[c] {
				gradW[c][j] = lambda * m.Weights[c][j]
			}
			gradB[c] = 0
		}
		for i, x := range xs {
			m.probabilities(x, probs)
			for c := range probs {
				diff := probs[c]
				if c == ys[i] {
					diff--
				}
				diff /= n
				gradB[c] += diff
				for _, f := range x {
					gradW[c][f.Index] += diff * f.Value
				}
			}
		}
		for c := range m.Weights {
			for j := range m.Weights[c] {
				m.Weights[c][j] -= opts.LearningRate * gradW[c][j]
			}
			m.Bias[c] -= opts.LearningRate * gradB[c]
		}
	}
	return m, nil
}

// Validate checks that the artifact dimensions agree.
func (m *Model) Validate() error {
	if m.Vectorizer == nil || len(m.Classes) == 0 {
		return fmt.Errorf("%w: missing vectorizer or classes", ErrModelMismatch)
	}
	if len(m.Weights) != len(m.Classes) || len(m.Bias) != len(m.Classes) {
		return fmt.Errorf("%w: %d classes, %d weight rows, %d biases", ErrModelMismatch, len(m.Classes), len(m.Weights), len(m.Bias))
	}
	for _, row := range m.Weights {
		if len(row) != m.Vectorizer.Size() {
			return fmt.Errorf("%w: weight row has %d features, want %d", ErrModelMismatch, len(row), m.Vectorizer.Size())
		}
	}
	for _, idx := range m.Vectorizer.Vocabulary {
		if idx < 0 || idx >= m.Vectorizer.Size() {
			return fmt.Errorf("%w: vocabulary index %d out of range", ErrModelMismatch, idx)
		}
	}
	return nil
}

// Predict classifies text.
func (m *Model) Predict(text string) Prediction {
	probs := make([]float64, len(m.Classes))
	m.probabilities(m.Vectorizer.Transform(text), probs)

	p := Prediction{Scores: make(map[string]float64, len(m.Classes))}
	for c, prob := range probs {
		p.Scores[m.Classes[c]] = prob
		if prob > p.Confidence {
			p.Confidence = prob
			p.Category = m.Classes[c]
		}
	}
	return p
}

// probabilities writes the softmax class probabilities for x into out.
func (m *Model) probabilities(x []Feature, out []float64) {
	maxLogit := math.Inf(-1)
	for c := range out {
		z := m.Bias[c]
		for _, f := range x {
			z += m.Weights[c][f.Index] * f.Value
		}
		out[c] = z
		maxLogit = math.Max(maxLogit, z)
	}
	var sum float64
	for c := range out {
		out[c] = math.Exp(out[c] - maxLogit)
		sum += out[c]
	}
	for c := range out {
		out[c] /= sum
	}
}
