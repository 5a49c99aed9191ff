// Package topics provides the live question set consumed by the workout
// engine: a store-backed source, a Redis cache in front of it, and the
// topic file importer.
package topics

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/drillz/internal/store"
)

// ErrTopicNotFound is returned when a topic does not exist.
var ErrTopicNotFound = errors.New("topic not found")

// Answer is one answer option of a question.
type Answer struct {
	ID      string `json:"id" yaml:"id"`
	Text    string `json:"text" yaml:"text"`
	Correct bool   `json:"correct,omitempty" yaml:"correct"`
}

// Question is a multiple-choice question. Its correctness set is the set
// of answers with Correct=true.
type Question struct {
	ID      string   `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Answers []Answer `json:"answers" yaml:"answers"`
}

// HasAnswer reports whether answerID is one of the question's options.
func (q *Question) HasAnswer(answerID string) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}

// IsCorrect reports whether answerID is in the question's correctness set.
func (q *Question) IsCorrect(answerID string) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return a.Correct
		}
	}
	return false
}

// Topic is a titled group of questions.
type Topic struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions,omitempty" yaml:"questions"`
}

// QuestionSet is the live question set of a topic, indexed by id.
type QuestionSet struct {
	TopicID   string
	Title     string
	Questions []Question

	byID map[string]int
}

// NewQuestionSet builds an indexed question set.
func NewQuestionSet(topicID, title string, questions []Question) *QuestionSet {
	qs := &QuestionSet{
		TopicID:   topicID,
		Title:     title,
		Questions: questions,
		byID:      make(map[string]int, len(questions)),
	}
	for i, q := range questions {
		qs.byID[q.ID] = i
	}
	return qs
}

// Lookup returns the question with the given id.
func (s *QuestionSet) Lookup(id string) (*Question, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.Questions[i], true
}

// IDs returns the question ids in topic order.
func (s *QuestionSet) IDs() []string {
	ids := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Len returns the number of live questions.
func (s *QuestionSet) Len() int { return len(s.Questions) }

// Source returns the live question set of a topic.
type Source interface {
	QuestionSet(ctx context.Context, topicID string) (*QuestionSet, error)
}

// RepoSource reads topics from the store.
type RepoSource struct {
	repo store.TopicRepo
}

// NewRepoSource creates a Source backed by a TopicRepo.
func NewRepoSource(repo store.TopicRepo) *RepoSource {
	return &RepoSource{repo: repo}
}

// QuestionSet loads the topic and its questions.
func (s *RepoSource) QuestionSet(ctx context.Context, topicID string) (*QuestionSet, error) {
	t, err := s.repo.Topic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("load topic %s: %w", topicID, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, topicID)
	}
	return NewQuestionSet(t.ID, t.Title, fromQuestionData(t.Questions)), nil
}

// Topics lists all topics without their questions.
func (s *RepoSource) Topics(ctx context.Context) ([]Topic, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	topics := make([]Topic, len(list))
	for i, t := range list {
		topics[i] = Topic{ID: t.ID, Title: t.Title}
	}
	return topics, nil
}

func fromQuestionData(data []store.QuestionData) []Question {
	questions := make([]Question, len(data))
	for i, q := range data {
		answers := make([]Answer, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = Answer{ID: a.ID, Text: a.Text, Correct: a.Correct}
		}
		questions[i] = Question{ID: q.ID, Text: q.Text, Answers: answers}
	}
	return questions
}

func toTopicData(t *Topic) store.TopicData {
	questions := make([]store.QuestionData, len(t.Questions))
	for i, q := range t.Questions {
		answers := make([]store.AnswerData, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = store.AnswerData{ID: a.ID, Text: a.Text, Correct: a.Correct}
		}
		questions[i] = store.QuestionData{ID: q.ID, Text: q.Text, Answers: answers}
	}
	return store.TopicData{ID: t.ID, Title: t.Title, Questions: questions}
}
