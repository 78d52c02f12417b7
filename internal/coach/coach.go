// Package coach is the decision engine's orchestrator. ProcessTurn runs
// the full per-turn pipeline: extract, score, merge, evaluate readiness,
// and attempt a phase transition when the session is ready or the
// forced-progression guard fires. A snapshot is captured before every
// transition attempt, successful or not, and the phase change is only
// committed once the store write succeeds.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/okrd/internal/cache"
	"github.com/fyrsmithlabs/okrd/internal/events"
	"github.com/fyrsmithlabs/okrd/internal/extraction"
	"github.com/fyrsmithlabs/okrd/internal/phase"
	"github.com/fyrsmithlabs/okrd/internal/scoring"
	"github.com/fyrsmithlabs/okrd/internal/session"
	"github.com/fyrsmithlabs/okrd/internal/snapshot"
	"github.com/fyrsmithlabs/okrd/internal/transition"
)

const instrumentationName = "github.com/fyrsmithlabs/okrd/internal/coach"

// recentTurnWindow bounds how many raw turns are retained on the session
// for finalization detection.
const recentTurnWindow = 5

// ErrRateLimited is returned when a session exceeds its turn rate.
var ErrRateLimited = errors.New("session turn rate exceeded")

// Options configures the coaching service. Store and Snapshots are
// required; every other dependency gets a working default.
type Options struct {
	Store     session.Store
	Snapshots *snapshot.Manager
	Bus       *events.Bus
	Machine   *phase.Machine
	Validator *transition.Validator
	Scorer    *scoring.Scorer
	Extractor *extraction.Extractor
	Cache     *cache.ScoreCache
	Logger    *zap.Logger

	// TurnRate limits turns per second per session. Zero disables
	// limiting.
	TurnRate  rate.Limit
	TurnBurst int
}

// TurnResult is the structured outcome of one processed turn.
type TurnResult struct {
	Success      bool                 `json:"success"`
	Error        string               `json:"error,omitempty"`
	SessionID    string               `json:"session_id"`
	Phase        phase.Phase          `json:"phase"`
	MessageCount int                  `json:"message_count"`
	Readiness    phase.Readiness      `json:"readiness"`
	Scores       scoring.QualityScore `json:"scores"`

	// Transition fields are populated when this turn attempted one.
	Transitioned bool               `json:"transitioned"`
	FromPhase    phase.Phase        `json:"from_phase,omitempty"`
	Trigger      events.Trigger     `json:"trigger,omitempty"`
	Validation   *transition.Result `json:"validation,omitempty"`
}

// Service coordinates a turn across the scorer, state machine, snapshot
// manager, validator, and event bus. Turns for the same session are
// serialized; turns for different sessions run concurrently.
type Service struct {
	store     session.Store
	snapshots *snapshot.Manager
	bus       *events.Bus
	machine   *phase.Machine
	validator *transition.Validator
	scorer    *scoring.Scorer
	extractor *extraction.Extractor
	cache     *cache.ScoreCache
	logger    *zap.Logger

	turnRate  rate.Limit
	turnBurst int

	mu       sync.Mutex
	locks    map[string]*sessionLock
	limiters map[string]*rate.Limiter

	tracer            trace.Tracer
	turnCounter       metric.Int64Counter
	transitionCounter metric.Int64Counter
}

// NewService creates a coaching service.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Snapshots == nil {
		return nil, errors.New("snapshot manager is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus(opts.Logger)
	}
	if opts.Machine == nil {
		m, err := phase.NewMachine(nil, opts.Logger)
		if err != nil {
			return nil, err
		}
		opts.Machine = m
	}
	if opts.Validator == nil {
		opts.Validator = transition.NewValidator(opts.Machine.Table())
	}
	if opts.Scorer == nil {
		opts.Scorer = scoring.NewScorer()
	}
	if opts.Extractor == nil {
		opts.Extractor = extraction.NewExtractor()
	}
	if opts.TurnBurst <= 0 {
		opts.TurnBurst = 5
	}

	s := &Service{
		store:     opts.Store,
		snapshots: opts.Snapshots,
		bus:       opts.Bus,
		machine:   opts.Machine,
		validator: opts.Validator,
		scorer:    opts.Scorer,
		extractor: opts.Extractor,
		cache:     opts.Cache,
		logger:    opts.Logger,
		turnRate:  opts.TurnRate,
		turnBurst: opts.TurnBurst,
		locks:     make(map[string]*sessionLock),
		limiters:  make(map[string]*rate.Limiter),
		tracer:    otel.Tracer(instrumentationName),
	}

	meter := otel.Meter(instrumentationName)
	var err error
	s.turnCounter, err = meter.Int64Counter("okrd.coach.turns_total",
		metric.WithDescription("Turns processed, labeled by phase"))
	if err != nil {
		opts.Logger.Warn("failed to create turn counter", zap.Error(err))
	}
	s.transitionCounter, err = meter.Int64Counter("okrd.coach.transitions_total",
		metric.WithDescription("Transition attempts, labeled by phases, trigger, and outcome"))
	if err != nil {
		opts.Logger.Warn("failed to create transition counter", zap.Error(err))
	}

	return s, nil
}

// CreateSession starts a new session in the discovery phase.
func (s *Service) CreateSession(ctx context.Context) (*session.Session, error) {
	sess := session.New()
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("session created", zap.String("session_id", sess.ID))
	return sess, nil
}

// GetSession returns the current state of a session.
func (s *Service) GetSession(ctx context.Context, id string) (*session.Session, error) {
	return s.store.Get(ctx, id)
}

// ListSnapshots returns the session's snapshots, oldest first.
func (s *Service) ListSnapshots(ctx context.Context, sessionID string) ([]*snapshot.Snapshot, error) {
	return s.snapshots.List(ctx, sessionID)
}

// Bus exposes the event bus for handler registration.
func (s *Service) Bus() *events.Bus {
	return s.bus
}

// Drain waits for in-flight asynchronous event handlers.
func (s *Service) Drain(ctx context.Context) error {
	return s.bus.Drain(ctx)
}

// ScoreDraft scores an ad-hoc draft without touching any session. Used by
// the one-shot scoring surface.
func (s *Service) ScoreDraft(objective string, keyResults []string) scoring.QualityScore {
	var scores scoring.QualityScore
	if objective != "" {
		obj := s.scorer.ScoreObjective(objective)
		scores.Objective = &obj
	}
	scores.KeyResults = s.scoreKeyResults(keyResults, objective)
	scores.Overall = s.scorer.ScoreOverall(scores.Objective, scores.KeyResults)
	return scores
}

// ProcessTurn runs one user turn through the pipeline. A panic anywhere in
// the pipeline is converted into a failed structured result so one corrupt
// turn cannot take down the embedding process.
func (s *Service) ProcessTurn(ctx context.Context, sessionID, text string) (result *TurnResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("turn processing panicked",
				zap.String("session_id", sessionID),
				zap.Any("panic", r),
			)
			result = &TurnResult{
				Success:   false,
				SessionID: sessionID,
				Error:     fmt.Sprintf("internal error: %v", r),
			}
			err = nil
		}
	}()

	if !s.allow(sessionID) {
		return nil, ErrRateLimited
	}

	lock := s.lockSession(sessionID)
	defer s.unlockSession(sessionID, lock)

	ctx, span := s.tracer.Start(ctx, "coach.process_turn",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess.MessageCount++
	sess.TurnsInPhase++
	s.applyTurn(sess, text)
	s.applyScores(sess)

	finalization := phase.DetectFinalization(sess.State.RecentTurns, sess.MessageCount)
	readiness := s.machine.EvaluateReadiness(phase.EvaluateInput{
		Phase:              sess.Phase,
		Scores:             sess.Scores,
		Signals:            sess.State.SignalCounts(),
		MessageCount:       sess.MessageCount,
		TurnsInPhase:       sess.TurnsInPhase,
		FinalizationSignal: finalization,
	})
	forced := phase.ShouldForceProgress(sess.Phase, sess.TurnsInPhase)

	result = &TurnResult{
		Success:      true,
		SessionID:    sess.ID,
		Phase:        sess.Phase,
		MessageCount: sess.MessageCount,
		Readiness:    readiness,
		Scores:       sess.Scores,
	}

	if (readiness.ReadyToTransition || forced) && !sess.Phase.Terminal() {
		trigger := s.determineTrigger(sess, forced, finalization)
		if err := s.attemptTransition(ctx, sess, trigger, result); err != nil {
			return nil, err
		}
	}

	if err := s.store.Update(ctx, sess); err != nil {
		// The phase flip is only real once persisted. Listeners that saw
		// the before event learn the transition did not happen.
		if result.Transitioned {
			s.emitPersistFailed(ctx, sess, result, err)
		}
		return nil, fmt.Errorf("persist session: %w", err)
	}
	if result.Transitioned {
		s.emitAfter(ctx, sess, result)
	}
	if sess.Phase.Terminal() {
		s.releaseLimiter(sess.ID)
	}

	if s.turnCounter != nil {
		s.turnCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String("phase", string(sess.Phase))))
	}
	result.Phase = sess.Phase
	return result, nil
}

// applyTurn folds one turn's extraction output into the session state.
func (s *Service) applyTurn(sess *session.Session, text string) {
	sess.State.RecentTurns = append(sess.State.RecentTurns, text)
	if len(sess.State.RecentTurns) > recentTurnWindow {
		sess.State.RecentTurns = sess.State.RecentTurns[len(sess.State.RecentTurns)-recentTurnWindow:]
	}

	if objective, ok := s.extractor.Objective(text); ok {
		sess.State.OKR.Objective = objective
	}
	for _, kr := range s.extractor.KeyResults(text) {
		sess.State.OKR.KeyResults = appendUnique(sess.State.OKR.KeyResults, kr)
	}

	sig := s.extractor.Signals(text)
	disc := &sess.State.Discovery
	for _, v := range sig.BusinessObjectives {
		disc.BusinessObjectives = appendUnique(disc.BusinessObjectives, v)
	}
	for _, v := range sig.Stakeholders {
		disc.Stakeholders = appendUnique(disc.Stakeholders, v)
	}
	for _, v := range sig.DesiredOutcomes {
		disc.DesiredOutcomes = appendUnique(disc.DesiredOutcomes, v)
	}
	for _, v := range sig.CandidateMetrics {
		disc.CandidateMetrics = appendUnique(disc.CandidateMetrics, v)
	}
	for _, v := range sig.Constraints {
		disc.Constraints = appendUnique(disc.Constraints, v)
	}
	disc.ReadinessPhrases += sig.ReadinessPhrases
	disc.FrustrationSignals += sig.FrustrationSignals
}

// applyScores re-scores the current draft and folds the result into the
// session's scores. Empty incoming scores never discard existing ones.
func (s *Service) applyScores(sess *session.Session) {
	var incoming scoring.QualityScore
	if sess.State.OKR.Objective != "" {
		obj := s.scorer.ScoreObjective(sess.State.OKR.Objective)
		incoming.Objective = &obj
	}
	incoming.KeyResults = s.scoreKeyResults(sess.State.OKR.KeyResults, sess.State.OKR.Objective)
	incoming.Overall = s.scorer.ScoreOverall(incoming.Objective, incoming.KeyResults)
	sess.Scores = scoring.Merge(sess.Scores, incoming)
}

func (s *Service) scoreKeyResults(texts []string, objective string) []scoring.KeyResultScore {
	if len(texts) == 0 {
		return nil
	}
	out := make([]scoring.KeyResultScore, 0, len(texts))
	for _, text := range texts {
		// Relevance depends on the objective, so it is part of the key.
		cacheKey := objective + "\x1f" + text
		if s.cache != nil {
			if cached, ok := s.cache.Get(cacheKey); ok {
				out = append(out, cached)
				continue
			}
		}
		sc := s.scorer.ScoreKeyResult(text, objective)
		if s.cache != nil {
			s.cache.Put(cacheKey, sc)
		}
		out = append(out, sc)
	}
	return out
}

// determineTrigger names why this transition attempt is happening, most
// specific cause first.
func (s *Service) determineTrigger(sess *session.Session, forced, finalization bool) events.Trigger {
	switch {
	case forced:
		return events.TriggerForced
	case finalization:
		return events.TriggerFinalizationSignal
	case sess.TurnsInPhase >= s.machine.Table()[sess.Phase].TimeoutMessages:
		return events.TriggerTimeout
	default:
		return events.TriggerQualityThreshold
	}
}

// attemptTransition snapshots, validates, and stages a phase change on the
// session. The snapshot is captured before validation so a pre-attempt
// state exists whether or not the transition goes through. A failed
// snapshot aborts the attempt.
func (s *Service) attemptTransition(ctx context.Context, sess *session.Session, trigger events.Trigger, result *TurnResult) error {
	from := sess.Phase
	// The caller only attempts transitions from non-terminal phases, so a
	// next phase always exists.
	to, _ := from.Next()

	if _, err := s.snapshots.Capture(ctx, snapshot.CaptureRequest{
		SessionID:    sess.ID,
		Phase:        from,
		State:        sess.State,
		Scores:       sess.Scores,
		MessageCount: sess.MessageCount,
		Reason:       "transition_attempt:" + string(trigger),
		Metadata: map[string]string{
			"from_phase": string(from),
			"to_phase":   string(to),
		},
	}); err != nil {
		return fmt.Errorf("capture snapshot: %w", err)
	}

	validation := s.validator.Validate(from, to, sess, sess.Scores)
	result.FromPhase = from
	result.Trigger = trigger
	result.Validation = &validation

	ev := events.Event{
		SessionID:    sess.ID,
		FromPhase:    from,
		ToPhase:      to,
		Trigger:      trigger,
		Scores:       sess.Scores,
		MessageCount: sess.MessageCount,
		TurnsInPhase: sess.TurnsInPhase,
		Valid:        validation.Valid,
		Errors:       validation.Errors,
	}

	if !validation.Valid {
		ev.Reason = strings.Join(validation.Errors, "; ")
		s.bus.EmitFailed(ctx, ev)
		s.countTransition(ctx, from, to, trigger, "rejected")
		s.logger.Info("transition rejected",
			zap.String("session_id", sess.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Strings("errors", validation.Errors),
		)
		return nil
	}

	if err := s.bus.EmitBefore(ctx, ev); err != nil {
		ev.Valid = false
		ev.Reason = "vetoed: " + err.Error()
		ev.Errors = append(ev.Errors, err.Error())
		s.bus.EmitFailed(ctx, ev)
		s.countTransition(ctx, from, to, trigger, "vetoed")
		result.Validation.Valid = false
		result.Validation.Errors = append(result.Validation.Errors, "vetoed: "+err.Error())
		s.logger.Info("transition vetoed",
			zap.String("session_id", sess.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err),
		)
		return nil
	}

	sess.Phase = to
	sess.TurnsInPhase = 0
	result.Transitioned = true
	return nil
}

// emitPersistFailed tells listeners that a validated transition did not
// happen because the session write failed.
func (s *Service) emitPersistFailed(ctx context.Context, sess *session.Session, result *TurnResult, cause error) {
	s.bus.EmitFailed(ctx, events.Event{
		SessionID:    sess.ID,
		FromPhase:    result.FromPhase,
		ToPhase:      sess.Phase,
		Trigger:      result.Trigger,
		Scores:       sess.Scores,
		MessageCount: sess.MessageCount,
		TurnsInPhase: sess.TurnsInPhase,
		Valid:        false,
		Reason:       "persist failed: " + cause.Error(),
		Errors:       []string{cause.Error()},
	})
	s.countTransition(ctx, result.FromPhase, sess.Phase, result.Trigger, "persist_failed")
}

// emitAfter runs once the phase change is persisted.
func (s *Service) emitAfter(ctx context.Context, sess *session.Session, result *TurnResult) {
	s.bus.EmitAfter(ctx, events.Event{
		SessionID:    sess.ID,
		FromPhase:    result.FromPhase,
		ToPhase:      sess.Phase,
		Trigger:      result.Trigger,
		Scores:       sess.Scores,
		MessageCount: sess.MessageCount,
		TurnsInPhase: sess.TurnsInPhase,
		Valid:        true,
	})
	s.countTransition(ctx, result.FromPhase, sess.Phase, result.Trigger, "committed")
	s.logger.Info("phase transition committed",
		zap.String("session_id", sess.ID),
		zap.String("from", string(result.FromPhase)),
		zap.String("to", string(sess.Phase)),
		zap.String("trigger", string(result.Trigger)),
	)
}

func (s *Service) countTransition(ctx context.Context, from, to phase.Phase, trigger events.Trigger, outcome string) {
	if s.transitionCounter == nil {
		return
	}
	s.transitionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
		attribute.String("trigger", string(trigger)),
		attribute.String("outcome", outcome),
	))
}

// sessionLock is a reference-counted per-session mutex. Entries live only
// while turns for the session are in flight, so the lock map stays bounded
// by concurrency rather than by session count.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (s *Service) lockSession(id string) *sessionLock {
	s.mu.Lock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sessionLock{}
		s.locks[id] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (s *Service) unlockSession(id string, lock *sessionLock) {
	lock.mu.Unlock()
	s.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, id)
	}
	s.mu.Unlock()
}

// releaseLimiter drops a session's rate limiter once the session reaches
// its terminal phase.
func (s *Service) releaseLimiter(id string) {
	s.mu.Lock()
	delete(s.limiters, id)
	s.mu.Unlock()
}

func (s *Service) allow(id string) bool {
	if s.turnRate <= 0 {
		return true
	}
	s.mu.Lock()
	limiter, ok := s.limiters[id]
	if !ok {
		limiter = rate.NewLimiter(s.turnRate, s.turnBurst)
		s.limiters[id] = limiter
	}
	s.mu.Unlock()
	return limiter.Allow()
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
