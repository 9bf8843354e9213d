package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ammindexer/internal/chain"
	"ammindexer/internal/dedupe"
	"ammindexer/internal/domain"
	"ammindexer/internal/mapping"
	"ammindexer/internal/pubsub"

	"gitlab.com/nevasik7/alerting/logger"
)

// Outcomes decided before an event reaches the handlers.
const (
	OutcomeSkipped   mapping.Outcome = "skipped"
	OutcomeDuplicate mapping.Outcome = "duplicate"
	OutcomeMalformed mapping.Outcome = "malformed"
)

const unknownEvent = "unknown"

type EventDecoder interface {
	Decode(env *chain.LogEnvelope) (domain.Event, error)
}

type EventHandler interface {
	Handle(ctx context.Context, ev domain.Event) error
}

type EventObserver interface {
	ObserveEvent(event, outcome string, took time.Duration)
}

type HealthChecker interface {
	Health(ctx context.Context) error
}

// Dependency is a named readiness check.
type Dependency struct {
	Name    string
	Checker HealthChecker
}

type Deps struct {
	Log          logger.Logger
	Decoder      EventDecoder
	Handler      EventHandler
	Deduper      dedupe.Deduper
	Subscriber   pubsub.Subscriber
	Observer     EventObserver
	Subject      string
	Dependencies []Dependency
}

// IndexerService is the only orchestration point: decode -> dedupe -> handle ->
// classify -> metrics. Events are applied strictly one at a time.
type IndexerService struct {
	log        logger.Logger
	decoder    EventDecoder
	handler    EventHandler
	deduper    dedupe.Deduper
	subscriber pubsub.Subscriber
	observer   EventObserver
	subject    string
	deps       []Dependency

	mu  sync.Mutex
	sub pubsub.Subscription
}

func NewIndexerService(d Deps) *IndexerService {
	return &IndexerService{
		log:        d.Log,
		decoder:    d.Decoder,
		handler:    d.Handler,
		deduper:    d.Deduper,
		subscriber: d.Subscriber,
		observer:   d.Observer,
		subject:    d.Subject,
		deps:       d.Dependencies,
	}
}

// Start subscribes to the ingest subject.
func (s *IndexerService) Start(ctx context.Context) error {
	// no queue group: a single consumer keeps delivery order
	sub, err := s.subscriber.Subscribe(ctx, s.subject, "", s.HandleMessage)
	if err != nil {
		return fmt.Errorf("subscribe ingest: %w", err)
	}
	s.sub = sub
	return nil
}

func (s *IndexerService) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}

// HandleMessage decodes one delivered LogEnvelope and processes it.
func (s *IndexerService) HandleMessage(ctx context.Context, data []byte) {
	var env chain.LogEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.log.Errorf("Failed unmarshal log envelope, error=%v", err)
		s.observe(unknownEvent, OutcomeMalformed, time.Now())
		return
	}

	s.Process(ctx, &env)
}

func (s *IndexerService) Process(ctx context.Context, env *chain.LogEnvelope) mapping.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	ev, err := s.decoder.Decode(env)
	if err != nil {
		if errors.Is(err, chain.ErrSkipped) {
			s.log.Debugf("Log skipped: %v", err)
			s.observe(unknownEvent, OutcomeSkipped, start)
			return OutcomeSkipped
		}
		s.log.Errorf("Failed decode log tx=%s index=%d, error=%v", env.Log.TxHash.Hex(), env.Log.Index, err)
		s.observe(unknownEvent, OutcomeMalformed, start)
		return OutcomeMalformed
	}

	meta := ev.Meta()
	id := meta.EventID()
	lg := s.log.WithFields(map[string]interface{}{
		"event":     ev.Name(),
		"tx":        meta.TxHash,
		"log_index": meta.LogIndex,
		"pair":      meta.Address,
	})

	seen, err := s.deduper.Seen(ctx, id)
	if err != nil {
		lg.Errorf("Dedupe check failed for %s: %v", id, err)
		s.observe(ev.Name(), mapping.OutcomeFailed, start)
		return mapping.OutcomeFailed
	}
	if seen {
		lg.Debugf("Duplicate event ignored: %s", id)
		s.observe(ev.Name(), OutcomeDuplicate, start)
		return OutcomeDuplicate
	}

	err = s.handler.Handle(ctx, ev)
	outcome := mapping.Classify(err)

	switch outcome {
	case mapping.OutcomeApplied:
		lg.Debugf("Event applied: %s", id)
	case mapping.OutcomeIgnored:
		lg.Debugf("Event ignored: %v", err)
	case mapping.OutcomeFailed:
		// writes issued before the failure stay committed, so the id stays
		// marked and a redelivery cannot apply them twice
		lg.Errorf("Event failed: %v", err)
	default:
		lg.Warnf("Event aborted (%s): %v", outcome, err)
	}

	s.observe(ev.Name(), outcome, start)
	return outcome
}

func (s *IndexerService) observe(event string, outcome mapping.Outcome, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveEvent(event, string(outcome), time.Since(start))
	}
}

func (s *IndexerService) CheckDependency(ctx context.Context) error {
	errDependency := make([]string, 0, len(s.deps))

	for _, d := range s.deps {
		if err := d.Checker.Health(ctx); err != nil {
			errDependency = append(errDependency, fmt.Sprintf("%s: %v", d.Name, err))
		}
	}

	if len(errDependency) > 0 {
		return fmt.Errorf("dependency check failed: %v", strings.Join(errDependency, "; "))
	}

	s.log.Debugf("All dependency check passed")
	return nil
}
