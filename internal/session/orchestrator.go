// Package session owns the voice logging cycle: it invites the user to
// speak, listens for a set, reads it back for confirmation, and persists it.
// All audio work goes through one audio guard so speaking and listening
// never overlap, and every state change is published as an Event.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/alkime/liftlog/internal/audiolock"
	"github.com/alkime/liftlog/internal/listen"
	"github.com/alkime/liftlog/internal/telemetry"
	"github.com/alkime/liftlog/internal/workout"
)

var (
	ErrNotIdle      = errors.New("session is not idle")
	ErrNoPendingSet = errors.New("no set is waiting for confirmation")

	errSuperseded = errors.New("cycle superseded")
)

// Orchestrator runs the phase machine. It is safe for concurrent use: Start
// blocks for a whole cycle while Confirm, Reject, Finish and Snapshot may be
// called from other goroutines.
type Orchestrator struct {
	deps    Deps
	guard   *audiolock.Guard
	policy  Policy
	sink    EventSink
	clock   func() time.Time
	userID  string
	log     *slog.Logger
	metrics *telemetry.Metrics

	mu          sync.Mutex
	cycle       uint64
	voice       *voiceRun
	phase       Phase
	pending     *workout.Set
	transcript  string
	lastErr     string
	buttonsOnly bool
	today       []workout.LoggedSet
}

// voiceRun cancels the listening of one Start call.
type voiceRun struct {
	cancel context.CancelFunc
}

type Option func(*Orchestrator)

func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithGuard shares an audio guard with other audio users.
func WithGuard(g *audiolock.Guard) Option {
	return func(o *Orchestrator) { o.guard = g }
}

func WithEventSink(s EventSink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

func WithUserID(id string) Option {
	return func(o *Orchestrator) { o.userID = id }
}

func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		deps:    deps,
		policy:  DefaultPolicy(),
		sink:    nopSink{},
		clock:   time.Now,
		log:     slog.Default(),
		metrics: telemetry.Default(),
		phase:   PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.guard == nil {
		o.guard = audiolock.New(o.log)
	}
	if o.sink == nil {
		o.sink = nopSink{}
	}
	if o.policy.OuterAttempts < 1 {
		o.policy.OuterAttempts = 1
	}
	if o.policy.OnAmbiguous == "" {
		o.policy.OnAmbiguous = DefaultAmbiguousPolicy
	}
	return o
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Refresh reloads today's sets from the store.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	sets, err := o.deps.Store.SetsByDate(ctx, workout.DateOf(o.clock()))
	if err != nil {
		return fmt.Errorf("load today's sets: %w", err)
	}

	o.mu.Lock()
	o.today = sets
	ev := Event{Reason: ReasonRefreshed, Snapshot: o.snapshotLocked()}
	o.mu.Unlock()
	o.sink.Publish(ev)
	return nil
}

// Start runs one voice cycle and blocks until it resolves or hands over to
// the buttons. It fails with ErrNotIdle unless the session is idle.
func (o *Orchestrator) Start(ctx context.Context) (Outcome, error) {
	o.mu.Lock()
	if o.phase != PhaseIdle {
		o.mu.Unlock()
		return "", ErrNotIdle
	}
	o.cycle++
	cycle := o.cycle
	o.phase = PhaseTranscribing
	o.transcript = ""
	o.lastErr = ""
	o.buttonsOnly = false
	voiceCtx, cancel := context.WithCancel(ctx)
	run := &voiceRun{cancel: cancel}
	o.voice = run
	ev := Event{Reason: ReasonStarted, Snapshot: o.snapshotLocked()}
	o.mu.Unlock()
	o.sink.Publish(ev)
	defer o.endVoice(run)

	today := o.loadToday(ctx)

	res, skipped, _ := audiolock.Do(voiceCtx, o.guard, func(ctx context.Context) (listen.SetResult, error) {
		return o.listenForSet(ctx, cycle, today), nil
	})
	if skipped {
		o.metrics.GuardSkipped(ctx, "start")
		o.update(cycle, Event{Reason: ReasonSkipped, Message: "audio busy"}, func() {
			o.phase = PhaseIdle
		})
		return o.finishCycle(ctx, OutcomeSkipped), nil
	}

	prompts := o.policy.Prompts
	switch res.Status {
	case listen.SetRecognized:
		return o.confirm(ctx, voiceCtx, cycle, res.Set), nil
	case listen.SetErrored:
		ok := o.update(cycle, Event{Reason: ReasonRecordingFailed, Message: errString(res.Err)}, func() {
			o.phase = PhaseIdle
			o.lastErr = prompts.RecordingFailed
		})
		if !ok {
			return OutcomeSuperseded, nil
		}
		return o.finishCycle(ctx, OutcomeRecordingFailed), nil
	default:
		ok := o.update(cycle, Event{Reason: ReasonNoSet}, func() {
			o.phase = PhaseIdle
			o.lastErr = prompts.NoSet
		})
		if !ok {
			return OutcomeSuperseded, nil
		}
		return o.finishCycle(ctx, OutcomeNoSet), nil
	}
}

// Confirm is the Yes button.
func (o *Orchestrator) Confirm(ctx context.Context) (Outcome, error) {
	cycle, err := o.takeOverFromVoice()
	if err != nil {
		return "", err
	}
	return o.commit(ctx, cycle), nil
}

// Reject is the No button.
func (o *Orchestrator) Reject(ctx context.Context) (Outcome, error) {
	cycle, err := o.takeOverFromVoice()
	if err != nil {
		return "", err
	}
	return o.reject(ctx, cycle), nil
}

// Finish ends the session: speech stops, listening is cancelled, an
// in-flight recording is dropped, and the state returns to idle. Results
// from a cycle still running are ignored.
func (o *Orchestrator) Finish(ctx context.Context) {
	o.mu.Lock()
	o.stopVoiceLocked()
	o.mu.Unlock()

	o.deps.Speaker.Stop()
	if o.deps.Recorder != nil && o.deps.Recorder.Recording() {
		if err := o.deps.Recorder.Abort(ctx); err != nil {
			o.log.Warn("failed to abort recording", "error", err)
		}
	}

	o.mu.Lock()
	o.cycle++
	o.phase = PhaseIdle
	o.pending = nil
	o.transcript = ""
	o.lastErr = ""
	o.buttonsOnly = false
	ev := Event{Reason: ReasonFinished, Snapshot: o.snapshotLocked()}
	o.mu.Unlock()
	o.sink.Publish(ev)
}

// takeOverFromVoice validates a button press and starts a new cycle
// generation so a voice answer still in flight is ignored. The yes/no
// listener is cancelled so the microphone is released.
func (o *Orchestrator) takeOverFromVoice() (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseAwaitingYesNo || o.pending == nil {
		return 0, ErrNoPendingSet
	}
	o.stopVoiceLocked()
	o.cycle++
	return o.cycle, nil
}

func (o *Orchestrator) stopVoiceLocked() {
	if o.voice != nil {
		o.voice.cancel()
		o.voice = nil
	}
}

// endVoice releases the listening context of a Start call that returned.
func (o *Orchestrator) endVoice(run *voiceRun) {
	o.mu.Lock()
	if o.voice == run {
		o.voice = nil
	}
	o.mu.Unlock()
	run.cancel()
}

// listenForSet runs under the audio guard.
func (o *Orchestrator) listenForSet(ctx context.Context, cycle uint64, today []workout.LoggedSet) listen.SetResult {
	p := o.policy
	o.deps.Speaker.Stop()
	o.say(ctx, p.Prompts.Invitation)

	for attempt := 0; attempt < p.OuterAttempts; attempt++ {
		if !o.current(cycle) {
			return listen.SetResult{Status: listen.SetErrored, Err: errSuperseded}
		}

		opts := p.SetListen
		opts.TodaySets = today
		// The last invocation gets its whole chunk budget.
		opts.HintOnFirstFailure = attempt < p.OuterAttempts-1
		opts.OnTranscript = o.transcriptUpdater(cycle)
		opts.OnError = func(msg string) {
			o.update(cycle, Event{Reason: ReasonListenerError, Message: msg}, func() {})
		}

		res := o.deps.Sets.Listen(ctx, opts)
		o.metrics.SetListened(ctx, string(res.Status), res.Attempts)

		switch res.Status {
		case listen.SetRecognized:
			return res
		case listen.SetFirstFailed:
			hint := p.Prompts.FirstHint
			if attempt > 0 {
				hint = p.Prompts.RetryHint
			}
			if !o.update(cycle, Event{Reason: ReasonHint, Message: hint}, func() {}) {
				return listen.SetResult{Status: listen.SetErrored, Err: errSuperseded}
			}
			o.say(ctx, hint)
		case listen.SetErrored:
			if ctx.Err() != nil {
				o.log.Debug("set listener cancelled", "error", res.Err)
				return res
			}
			o.log.Error("set listener failed", "error", res.Err)
			if o.current(cycle) {
				o.say(ctx, p.Prompts.RecordingFailed)
			}
			return res
		default:
			if o.current(cycle) {
				o.say(ctx, p.Prompts.NoSet)
			}
			return res
		}
	}

	if o.current(cycle) {
		o.say(ctx, p.Prompts.NoSet)
	}
	return listen.SetResult{Status: listen.SetTimedOut}
}

// confirm asks for a yes or no. voiceCtx bounds the listening; ctx carries
// the rest of the cycle, which a button press must not cut short.
func (o *Orchestrator) confirm(ctx, voiceCtx context.Context, cycle uint64, set workout.Set) Outcome {
	set.ExerciseName = workout.TitleCase(set.ExerciseName)
	pending := set
	ok := o.update(cycle, Event{Reason: ReasonRecognized}, func() {
		o.phase = PhaseConfirming
		o.pending = &pending
		o.lastErr = ""
	})
	if !ok {
		return OutcomeSuperseded
	}

	ans, skipped, _ := audiolock.Do(voiceCtx, o.guard, func(ctx context.Context) (listen.Answer, error) {
		return o.askYesNo(ctx, cycle, set), nil
	})
	if skipped {
		o.metrics.GuardSkipped(ctx, "confirm")
		msg := o.policy.Prompts.ButtonsOnly
		o.update(cycle, Event{Reason: ReasonButtonsOnly, Message: "audio busy"}, func() {
			o.phase = PhaseAwaitingYesNo
			o.buttonsOnly = true
			o.lastErr = msg
		})
		return OutcomeAwaitingButtons
	}

	switch ans.Decision {
	case listen.DecisionYes:
		return o.commit(ctx, cycle)
	case listen.DecisionNo:
		return o.reject(ctx, cycle)
	default:
		return o.ambiguous(ctx, cycle, ans)
	}
}

// askYesNo runs under the audio guard: read back, listen, and clarify once.
func (o *Orchestrator) askYesNo(ctx context.Context, cycle uint64, set workout.Set) listen.Answer {
	p := o.policy
	o.say(ctx, p.Prompts.Confirmation(set))

	ok := o.update(cycle, Event{Reason: ReasonAwaitingAnswer}, func() {
		o.phase = PhaseAwaitingYesNo
	})
	if !ok {
		return listen.Answer{Decision: listen.DecisionUnknown, Err: errSuperseded}
	}

	opts := p.YesNoListen
	opts.OnTranscript = o.transcriptUpdater(cycle)

	ans := o.deps.YesNo.Listen(ctx, opts)
	o.recordAnswer(ctx, ans)
	if ans.Decision != listen.DecisionUnknown {
		return ans
	}

	if !o.update(cycle, Event{Reason: ReasonClarifying, Message: p.Prompts.Clarify}, func() {}) {
		return listen.Answer{Decision: listen.DecisionUnknown, Err: errSuperseded}
	}
	o.say(ctx, p.Prompts.Clarify)

	ans = o.deps.YesNo.Listen(ctx, opts)
	o.recordAnswer(ctx, ans)
	return ans
}

func (o *Orchestrator) commit(ctx context.Context, cycle uint64) Outcome {
	o.mu.Lock()
	if cycle != o.cycle || o.phase != PhaseAwaitingYesNo || o.pending == nil {
		o.mu.Unlock()
		return OutcomeSuperseded
	}
	set := *o.pending
	o.phase = PhaseLogging
	o.buttonsOnly = false
	ev := Event{Reason: ReasonLogging, Snapshot: o.snapshotLocked()}
	o.mu.Unlock()
	o.sink.Publish(ev)

	logged, today, err := o.persist(ctx, set)
	if err != nil {
		o.log.Error("failed to log set", "error", err)
		msg := o.policy.Prompts.PersistFailed
		ok := o.update(cycle, Event{Reason: ReasonPersistFailed, Message: err.Error()}, func() {
			o.phase = PhaseAwaitingYesNo
			o.buttonsOnly = true
			o.lastErr = msg
		})
		if !ok {
			return OutcomeSuperseded
		}
		o.metrics.CycleFinished(ctx, string(OutcomePersistFailed))
		o.sayGuarded(ctx, msg)
		return OutcomePersistFailed
	}

	o.metrics.SetLogged(ctx, logged.ExerciseName, logged.Weight)
	o.sayGuarded(ctx, o.policy.Prompts.Logged(logged))

	ok := o.update(cycle, Event{Reason: ReasonLogged, Logged: &logged}, func() {
		o.today = today
		o.pending = nil
		o.transcript = ""
		o.lastErr = ""
		o.phase = PhaseIdle
	})
	if !ok {
		// Finished while confirming; the set is saved either way.
		o.mu.Lock()
		o.today = today
		o.mu.Unlock()
	}
	return o.finishCycle(ctx, OutcomeLogged)
}

func (o *Orchestrator) persist(ctx context.Context, set workout.Set) (workout.LoggedSet, []workout.LoggedSet, error) {
	date := workout.DateOf(o.clock())

	existing, err := o.deps.Store.SetsByDate(ctx, date)
	if err != nil {
		return workout.LoggedSet{}, nil, fmt.Errorf("count sets: %w", err)
	}

	logged, err := o.deps.Store.LogSet(ctx, workout.LogInput{
		Date:         date,
		ExerciseName: set.ExerciseName,
		Weight:       set.Weight,
		Reps:         set.Reps,
		SetNumber:    workout.NextSetNumber(existing, set.ExerciseName),
		UserID:       o.userID,
	})
	if err != nil {
		return workout.LoggedSet{}, nil, fmt.Errorf("log set: %w", err)
	}

	today, err := o.deps.Store.SetsByDate(ctx, date)
	if err != nil {
		o.log.Warn("failed to refetch today's sets", "error", err)
		today = append(slices.Clone(existing), logged)
	}

	return logged, today, nil
}

func (o *Orchestrator) reject(ctx context.Context, cycle uint64) Outcome {
	ok := o.updateIf(cycle, Event{Reason: ReasonRejected}, func() bool {
		if o.phase != PhaseAwaitingYesNo || o.pending == nil {
			return false
		}
		o.pending = nil
		o.transcript = ""
		o.lastErr = ""
		o.buttonsOnly = false
		o.phase = PhaseIdle
		return true
	})
	if !ok {
		return OutcomeSuperseded
	}

	o.sayGuarded(ctx, o.policy.Prompts.Rejected)
	return o.finishCycle(ctx, OutcomeRejected)
}

func (o *Orchestrator) ambiguous(ctx context.Context, cycle uint64, ans listen.Answer) Outcome {
	if errors.Is(ans.Err, errSuperseded) {
		return OutcomeSuperseded
	}

	p := o.policy
	if p.OnAmbiguous == AmbiguousButtons {
		ok := o.updateIf(cycle, Event{Reason: ReasonButtonsOnly, Message: errString(ans.Err)}, func() bool {
			if o.phase != PhaseAwaitingYesNo {
				return false
			}
			o.buttonsOnly = true
			o.lastErr = p.Prompts.ButtonsOnly
			return true
		})
		if !ok {
			return OutcomeSuperseded
		}
		o.sayGuarded(ctx, p.Prompts.ButtonsOnly)
		return OutcomeAwaitingButtons
	}

	msg := p.Prompts.Abandoned
	if ans.Err != nil {
		msg = p.Prompts.Unreachable
	}
	ok := o.updateIf(cycle, Event{Reason: ReasonAbandoned, Message: errString(ans.Err)}, func() bool {
		if o.phase != PhaseAwaitingYesNo {
			return false
		}
		o.pending = nil
		o.transcript = ""
		o.lastErr = msg
		o.phase = PhaseIdle
		return true
	})
	if !ok {
		return OutcomeSuperseded
	}

	o.sayGuarded(ctx, msg)
	return o.finishCycle(ctx, OutcomeAbandoned)
}

func (o *Orchestrator) recordAnswer(ctx context.Context, ans listen.Answer) {
	failure := ""
	switch {
	case errors.Is(ans.Err, context.Canceled):
		// Finish or a button took over.
		return
	case ans.Err == nil:
	case errors.Is(ans.Err, listen.ErrTranscriptionTimeout):
		failure = "timeout"
	default:
		failure = "error"
	}
	if failure != "" {
		o.log.Warn("yes/no listener failed", "error", ans.Err)
	}
	o.metrics.Answered(ctx, string(ans.Decision), failure)
}

func (o *Orchestrator) loadToday(ctx context.Context) []workout.LoggedSet {
	sets, err := o.deps.Store.SetsByDate(ctx, workout.DateOf(o.clock()))

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.log.Warn("failed to load today's sets", "error", err)
		return slices.Clone(o.today)
	}
	o.today = sets
	return slices.Clone(sets)
}

func (o *Orchestrator) transcriptUpdater(cycle uint64) func(string) {
	return func(text string) {
		o.update(cycle, Event{Reason: ReasonTranscript}, func() {
			o.transcript = text
		})
	}
}

// say speaks text. Speech failures are logged; the on-screen state carries
// the same information.
func (o *Orchestrator) say(ctx context.Context, text string) {
	if err := o.deps.Speaker.Speak(ctx, text); err != nil {
		o.log.Warn("failed to speak", "text", text, "error", err)
	}
}

// sayGuarded speaks outside of a guarded task. If another audio task holds
// the guard the sentence is dropped.
func (o *Orchestrator) sayGuarded(ctx context.Context, text string) {
	skipped, _ := o.guard.Run(ctx, func(ctx context.Context) error {
		o.say(ctx, text)
		return nil
	})
	if skipped {
		o.metrics.GuardSkipped(ctx, "speak")
		o.log.Debug("audio busy, not speaking", "text", text)
	}
}

func (o *Orchestrator) finishCycle(ctx context.Context, outcome Outcome) Outcome {
	o.metrics.CycleFinished(ctx, string(outcome))
	o.log.Info("cycle finished", "outcome", outcome)
	return outcome
}

func (o *Orchestrator) current(cycle uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return cycle == o.cycle
}

// update applies fn and publishes ev if cycle is still current.
func (o *Orchestrator) update(cycle uint64, ev Event, fn func()) bool {
	return o.updateIf(cycle, ev, func() bool {
		fn()
		return true
	})
}

// updateIf is update with a precondition: fn returns false to abort
// without publishing.
func (o *Orchestrator) updateIf(cycle uint64, ev Event, fn func() bool) bool {
	o.mu.Lock()
	if cycle != o.cycle || !fn() {
		o.mu.Unlock()
		return false
	}
	ev.Snapshot = o.snapshotLocked()
	o.mu.Unlock()
	o.sink.Publish(ev)
	return true
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{
		Phase:       o.phase,
		Transcript:  o.transcript,
		Error:       o.lastErr,
		TodaySets:   slices.Clone(o.today),
		ButtonsOnly: o.buttonsOnly,
	}
	if o.pending != nil {
		p := *o.pending
		s.Pending = &p
	}
	return s
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
