package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/mindhaven/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindhaven/backend/internal/model/chat"
	emotionservice "github.com/zhouzirui/mindhaven/backend/internal/service/emotion"
	"github.com/zhouzirui/mindhaven/backend/internal/service/mood"
	"github.com/zhouzirui/mindhaven/backend/internal/service/reply"
)

var (
	ErrNilTracker   = errors.New("mood tracker is required")
	ErrNilResponder = errors.New("responder is required")
)

// Outcome is the result of handling one user message.
type Outcome struct {
	Reply   string        `json:"reply"`
	Stats   mood.Stats    `json:"stats"`
	Crisis  bool          `json:"crisis"`
	Emotion emotion.Label `json:"emotion,omitempty"`
}

// Service runs the classify, reply and record pipeline for each message.
type Service struct {
	tracker   *mood.Tracker
	responder *reply.Responder
	emotions  *emotionservice.Service
	now       func() time.Time
	newID     func() string
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the record id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService wires the pipeline. emotions may be nil, in which case the
// keyword scorer decides every label.
func NewService(tracker *mood.Tracker, responder *reply.Responder, emotions *emotionservice.Service, opts ...Option) (*Service, error) {
	if tracker == nil {
		return nil, ErrNilTracker
	}
	if responder == nil {
		return nil, ErrNilResponder
	}

	svc := &Service{
		tracker:   tracker,
		responder: responder,
		emotions:  emotions,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Handle processes one message. Blank input returns the prompt reply and the
// current counters without recording anything.
func (s *Service) Handle(ctx context.Context, message string) (Outcome, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		stats, err := s.tracker.Stats(ctx)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Reply: reply.EmptyReply, Stats: stats}, nil
	}

	crisis := emotion.DetectCrisis(text)
	label := s.resolve(ctx, text)
	answer := s.responder.Reply(text, label)

	record := chat.NewRecord(s.newID(), s.now(), text, answer, label)
	stats, err := s.tracker.Observe(ctx, record)
	if err != nil {
		return Outcome{}, err
	}

	event := log.Info().
		Str("component", "chat").
		Str("record", record.ID).
		Str("emotion", string(label)).
		Bool("crisis", crisis)
	if crisis {
		event = event.Strs("matched", emotion.CrisisMatches(text))
	}
	event.Msg("message handled")

	return Outcome{Reply: answer, Stats: stats, Crisis: crisis, Emotion: label}, nil
}

func (s *Service) resolve(ctx context.Context, text string) emotion.Label {
	if !s.emotions.Enabled() {
		return emotion.Detect(text)
	}

	history, err := s.tracker.History(ctx)
	if err != nil {
		log.Warn().Str("component", "chat").Err(err).Msg("load history for classifier failed")
		history = nil
	}
	return s.emotions.Resolve(ctx, history, text).Label
}

// Stats returns the current mood counters.
func (s *Service) Stats(ctx context.Context) (mood.Stats, error) {
	return s.tracker.Stats(ctx)
}

// History returns the most recent records, oldest first.
func (s *Service) History(ctx context.Context) ([]chat.Record, error) {
	return s.tracker.History(ctx)
}

// Responder exposes the reply builder, e.g. for the crisis helpline.
func (s *Service) Responder() *reply.Responder {
	return s.responder
}
