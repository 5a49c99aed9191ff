package topics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/drillz/internal/store"
)

// ErrInvalidTopic indicates a topic file that failed schema or semantic checks.
var ErrInvalidTopic = errors.New("invalid topic file")

const topicSchemaURL = "schema://topic.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func getTopicSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(topicSchemaURL, topicSchema); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(topicSchemaURL)
	})
	return compiledSchema, compileErr
}

// ParseFile reads and validates a YAML or JSON topic file.
func ParseFile(path string) (*Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topic file: %w", err)
	}
	return Parse(data)
}

// Parse validates a YAML or JSON topic document and decodes it. JSON is
// accepted because it is a subset of YAML.
func Parse(data []byte) (*Topic, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}

	schema, err := getTopicSchema()
	if err != nil {
		return nil, fmt.Errorf("compile topic schema: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}

	var t Topic
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}
	if err := check(&t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}
	return &t, nil
}

// check enforces what the schema cannot express.
func check(t *Topic) error {
	if !store.ValidID(t.ID) {
		return fmt.Errorf("topic id %q is not valid", t.ID)
	}
	seen := make(map[string]bool, len(t.Questions))
	for _, q := range t.Questions {
		if !store.ValidID(q.ID) {
			return fmt.Errorf("question id %q is not valid", q.ID)
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true

		answers := make(map[string]bool, len(q.Answers))
		correct := 0
		for _, a := range q.Answers {
			if !store.ValidID(a.ID) {
				return fmt.Errorf("question %s: answer id %q is not valid", q.ID, a.ID)
			}
			if answers[a.ID] {
				return fmt.Errorf("question %s: duplicate answer id %q", q.ID, a.ID)
			}
			answers[a.ID] = true
			if a.Correct {
				correct++
			}
		}
		if correct == 0 {
			return fmt.Errorf("question %s has no correct answer", q.ID)
		}
	}
	return nil
}

// Invalidator drops cached data for a topic.
type Invalidator interface {
	Invalidate(ctx context.Context, topicID string) error
}

// Importer writes parsed topics to the store.
type Importer struct {
	repo   store.TopicRepo
	cache  Invalidator
	logger *zap.Logger
}

// NewImporter creates an importer. cache may be nil.
func NewImporter(repo store.TopicRepo, cache Invalidator, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{repo: repo, cache: cache, logger: logger}
}

// Import replaces the topic's question set. Workouts that reference
// removed questions skip them on resume.
func (im *Importer) Import(ctx context.Context, t *Topic) error {
	data := toTopicData(t)
	data.ImportedAt = time.Now()
	if err := im.repo.Import(ctx, data); err != nil {
		return fmt.Errorf("import topic %s: %w", t.ID, err)
	}

	if im.cache != nil {
		if err := im.cache.Invalidate(ctx, t.ID); err != nil {
			im.logger.Warn("cache invalidation failed", zap.String("topic", t.ID), zap.Error(err))
		}
	}

	im.logger.Info("topic imported",
		zap.String("topic", t.ID),
		zap.Int("questions", len(t.Questions)),
	)
	return nil
}
