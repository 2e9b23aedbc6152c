package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"finsight/internal/log"
)

// Store lazily provides the process-wide model. The first caller loads the
// artifact from Path, or trains on the bundled set and persists it when the
// artifact is missing. Concurrent first calls share one initialization.
type Store struct {
	Path    string
	Options TrainOptions
	Data    []Example

	logger *log.Logger
	once   sync.Once
	ready  atomic.Bool
	model  *Model
	err    error
}

// NewStore creates a store for the artifact at path. An empty path keeps the
// model in memory only.
func NewStore(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default(log.ComponentClassifier)
	}
	return &Store{
		Path:    path,
		Options: DefaultTrainOptions(),
		Data:    TrainingSet,
		logger:  logger.WithComponent(log.ComponentClassifier),
	}
}

// Model returns the shared model, initializing it on first use.
func (s *Store) Model() (*Model, error) {
	s.once.Do(func() {
		s.model, s.err = s.loadOrTrain()
		s.ready.Store(s.err == nil)
	})
	return s.model, s.err
}

// Loaded reports whether the model has been initialized successfully. It
// never triggers initialization.
func (s *Store) Loaded() bool {
	return s.ready.Load()
}

// Classify categorizes text with the shared model.
func (s *Store) Classify(text string) (Prediction, error) {
	m, err := s.Model()
	if err != nil {
		return Prediction{}, err
	}
	return m.Predict(text), nil
}

func (s *Store) loadOrTrain() (*Model, error) {
	if s.Path != "" {
		m, err := Load(s.Path)
		if err == nil {
			s.logger.Info("Classifier model loaded", "path", s.Path, "classes", len(m.Classes))
			return m, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Classifier model unreadable, retraining", "path", s.Path, log.FieldError, err.Error())
		}
	}

	m, err := Train(s.Data, s.Options)
	if err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}
	s.logger.Info("Classifier model trained",
		log.FieldOperation, log.OpTrain,
		"examples", len(s.Data),
		"features", m.Vectorizer.Size())

	if s.Path != "" {
		if err := Save(m, s.Path); err != nil {
			s.logger.Warn("Failed to persist classifier model", "path", s.Path, log.FieldError, err.Error())
		}
	}
	return m, nil
}

// Load reads and validates a model artifact.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if m.Version != ModelVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrModelMismatch, m.Version, ModelVersion)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the artifact atomically, creating the parent directory.
func Save(m *Model, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
