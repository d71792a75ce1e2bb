package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alkime/liftlog/internal/audiolock"
	"github.com/alkime/liftlog/internal/listen"
	"github.com/alkime/liftlog/internal/session"
	"github.com/alkime/liftlog/internal/workout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const today = "2026-10-19"

type harness struct {
	sets    *fakeSetListener
	yesno   *fakeYesNo
	speaker *fakeSpeaker
	store   *memStore
	rec     *fakeRecorder

	mu     sync.Mutex
	events []session.Event
}

func newHarness(sets *fakeSetListener, yesno *fakeYesNo) *harness {
	return &harness{
		sets:    sets,
		yesno:   yesno,
		speaker: &fakeSpeaker{},
		store:   &memStore{},
		rec:     &fakeRecorder{},
	}
}

func (h *harness) orchestrator(opts ...session.Option) *session.Orchestrator {
	clock := func() time.Time { return time.Date(2026, 10, 19, 18, 30, 0, 0, time.Local) }
	base := []session.Option{
		session.WithClock(clock),
		session.WithUserID("tester"),
		session.WithMetrics(nil),
		session.WithEventSink(session.SinkFunc(func(e session.Event) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.events = append(h.events, e)
		})),
	}
	return session.New(session.Deps{
		Sets:     h.sets,
		YesNo:    h.yesno,
		Speaker:  h.speaker,
		Store:    h.store,
		Recorder: h.rec,
	}, append(base, opts...)...)
}

func (h *harness) reasons() []session.Reason {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []session.Reason
	for _, e := range h.events {
		out = append(out, e.Reason)
	}
	return out
}

func TestStartLogsConfirmedSet(t *testing.T) {
	ctx := context.Background()
	h := newHarness(
		&fakeSetListener{results: []listen.SetResult{recognized("leg press", 160, 10)}},
		answers(listen.DecisionYes),
	)
	o := h.orchestrator()
	prompts := session.DefaultPrompts()

	outcome, err := o.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeLogged, outcome)

	require.Len(t, h.store.sets, 1)
	logged := h.store.sets[0]
	assert.Equal(t, "Leg Press", logged.ExerciseName)
	assert.Equal(t, today, logged.Date)
	assert.Equal(t, 1, logged.SetNumber)
	assert.Equal(t, "tester", logged.UserID)

	assert.Equal(t, []string{
		prompts.Invitation,
		prompts.Confirmation(workout.Set{ExerciseName: "Leg Press", Weight: 160, Reps: 10}),
		prompts.Logged(logged),
	}, h.speaker.Spoken())

	snap := o.Snapshot()
	assert.Equal(t, session.PhaseIdle, snap.Phase)
	assert.Nil(t, snap.Pending)
	assert.Empty(t, snap.Transcript)
	assert.Len(t, snap.TodaySets, 1)

	assert.Equal(t, []session.Reason{
		session.ReasonStarted,
		session.ReasonRecognized,
		session.ReasonAwaitingAnswer,
		session.ReasonLogging,
		session.ReasonLogged,
	}, h.reasons())
}

func TestStartHintsThenRecognizes(t *testing.T) {
	h := newHarness(
		&fakeSetListener{results: []listen.SetResult{
			{Status: listen.SetFirstFailed, Attempts: 1},
			recognized("squat", 225, 5),
		}},
		answers(listen.DecisionYes),
	)
	o := h.orchestrator()

	outcome, err := o.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeLogged, outcome)

	calls := h.sets.Calls()
	require.Len(t, calls, 2)
	assert.True(t, calls[0].HintOnFirstFailure)
	assert.Contains(t, h.speaker.Spoken(), session.DefaultPrompts().FirstHint)
	assert.Equal(t, "Squat", h.store.sets[0].ExerciseName)
}

func TestStartExhaustsOuterAttempts(t *testing.T) {
	h := newHarness(
		&fakeSetListener{results: []listen.SetResult{
			{Status: listen.SetFirstFailed},
			{Status: listen.SetFirstFailed},
			{Status: listen.SetFirstFailed},
			{Status: listen.SetTimedOut},
		}},
		answers(),
	)
	o := h.orchestrator()
	prompts := session.DefaultPrompts()

	outcome, err := o.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeNoSet, outcome)

	var hints []bool
	for _, c := range h.sets.Calls() {
		hints = append(hints, c.HintOnFirstFailure)
	}
	assert.Equal(t, []bool{true, true, true, false}, hints)

	assert.Equal(t, []string{
		prompts.Invitation,
		prompts.FirstHint,
		prompts.RetryHint,
		prompts.RetryHint,
		prompts.NoSet,
	}, h.speaker.Spoken())

	snap := o.Snapshot()
	assert.Equal(t, session.PhaseIdle, snap.Phase)
	assert.Equal(t, prompts.NoSet, snap.Error)
	assert.Zero(t, h.yesno.calls)
	assert.Empty(t, h.store.sets)
}

func TestStartRecordingError(t *testing.T) {
	h := newHarness(
		&fakeSetListener{results: []listen.SetResult{{Status: listen.SetErrored, Err: listen.ErrTranscriptionTimeout}}},
		answers(),
	)
	o := h.orchestrator()

	outcome, err := o.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeRecordingFailed, outcome)
	assert.Len(t, h.sets.Calls(), 1)
	assert.Equal(t, session.DefaultPrompts().RecordingFailed, o.Snapshot().Error)
}

func TestVoiceRejection(t *testing.T) {
	h := newHarness(
		&fakeSetListener{results: []listen.SetResult{recognized("bench press", 135, 8)}},
		answers(listen.DecisionNo),
	)
	o := h.orchestrator()

	outcome, err := o.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeRejected, outcome)
	assert.Empty(t, h.store.sets)

	spoken := h.speaker.Spoken()
	assert.Equal(t, session.DefaultPrompts().Rejected, spoken[len(spoken)-1])
	assert.Nil(t, o.Snapshot().Pending)
	assert.Equal(t, session.PhaseIdle, o.Snapshot().Phase)
}

func TestAmbiguousAnswers(t *testing.T) {
	prompts := session.DefaultPrompts()

	t.Run("abandons after the clarifying prompt", func(t *testing.T) {
		h := newHarness(
			&fakeSetListener{results: []listen.SetResult{recognized("deadlift", 315, 3)}},
			answers(listen.DecisionUnknown, listen.DecisionUnknown),
		)
		o := h.orchestrator()

		outcome, err := o.Start(context.Background())
		require.NoError(t, err)
		assert.Equal(t, session.OutcomeAbandoned, outcome)
		assert.Equal(t, 2, h.yesno.calls)

		spoken := h.speaker.Spoken()
		assert.Contains(t, spoken, prompts.Clarify)
		assert.Equal(t, prompts.Abandoned, spoken[len(spoken)-1])
		assert.Empty(t, h.store.sets)
		assert.Equal(t, session.PhaseIdle, o.Snapshot().Phase)
	})

	t.Run("clarified answer is accepted", func(t *testing.T) {
		h := newHarness(
			&fakeSetListener{results: []listen.SetResult{recognized("deadlift", 315, 3)}},
			answers(listen.DecisionUnknown, listen.DecisionYes),
		)
		o := h.orchestrator()

		outcome, err := o.Start(context.Background())
		require.NoError(t, err)
		assert.Equal(t, session.OutcomeLogged, outcome)
		assert.Len(t, h.store.sets, 1)
	})

	t.Run("unreachable transcription gets its own apology", func(t *testing.T) {
		yn := &fakeYesNo{answers: []listen.Answer{
			{Decision: listen.DecisionUnknown, Err: listen.ErrTranscriptionTimeout},
			{Decision: listen.DecisionUnknown, Err: listen.ErrTranscriptionTimeout},
		}}
		h := newHarness(&fakeSetListener{results: []listen.SetResult{recognized("deadlift", 315, 3)}}, yn)
		o := h.orchestrator()

		outcome, err := o.Start(context.Background())
		require.NoError(t, err)
		assert.Equal(t, session.OutcomeAbandoned, outcome)
		spoken := h.speaker.Spoken()
		assert.Equal(t, prompts.Unreachable, spoken[len(spoken)-1])
	})

	t.Run("buttons policy keeps the set pending", func(t *testing.T) {
		h := newHarness(
			&fakeSetListener{results: []listen.SetResult{recognized("deadlift", 315, 3)}},
			answers(listen.DecisionUnknown, listen.DecisionUnknown),
		)
		policy := session.DefaultPolicy()
		policy.OnAmbiguous = session.AmbiguousButtons
		o := h.orchestrator(session.WithPolicy(policy))

		outcome, err := o.Start(context.Background())
		require.NoError(t, err)
		assert.Equal(t, session.OutcomeAwaitingButtons, outcome)

		snap := o.Snapshot()
		assert.Equal(t, session.PhaseAwaitingYesNo, snap.Phase)
		assert.True(t, snap.ButtonsOnly)
		require.NotNil(t, snap.Pending)
		assert.Equal(t, "Deadlift", snap.Pending.ExerciseName)

		_, err = o.Start(context.Background())
		require.ErrorIs(t, err, session.ErrNotIdle)

		outcome, err = o.Confirm(context.Background())
		require.NoError(t, err)
		assert.Equal(t, session.OutcomeLogged, outcome)
		assert.Len(t, h.store.sets, 1)
	})
}

func TestSetNumbering(t *testing.T) {
	h := newHarness(
		&fakeSetListener{results: []listen.SetResult{recognized("leg press", 180, 8)}},
		answers(listen.DecisionYes),
	)
	h.store.sets = []workout.LoggedSet{
		{ID: 1, Date: today, ExerciseName: "Leg Press", Weight: 160, Reps: 10, SetNumber: 1},
		{ID: 2, Date: today, ExerciseName: "Squat", Weight: 225, Reps: 5, SetNumber: 1},
		{ID: 3, Date: today, ExerciseName: "leg press", Weight: 170, Reps: 10, SetNumber: 2},
		{ID: 4, Date: "2026-10-18", ExerciseName: "Leg Press", Weight: 150, Reps: 10, SetNumber: 3},
	}
	o := h.orchestrator()

	_, err := o.Start(context.Background())
	require.NoError(t, err)

	require.Len(t, h.store.sets, 5)
	assert.Equal(t, 3, h.store.sets[4].SetNumber)
	assert.Len(t, o.Snapshot().TodaySets, 4)
}

func TestSetNumberingAcrossCycles(t *testing.T) {
	ctx := context.Background()
	h := newHarness(
		&fakeSetListener{results: []listen.SetResult{
			recognized("leg press", 160, 10),
			recognized("squat", 225, 5),
			recognized("Leg Press", 170, 10),
		}},
		answers(listen.DecisionYes, listen.DecisionYes, listen.DecisionYes),
	)
	o := h.orchestrator()

	for range 3 {
		outcome, err := o.Start(ctx)
		require.NoError(t, err)
		require.Equal(t, session.OutcomeLogged, outcome)
	}

	require.Len(t, h.store.sets, 3)
	assert.Equal(t, "Leg Press", h.store.sets[0].ExerciseName)
	assert.Equal(t, 1, h.store.sets[0].SetNumber)
	assert.Equal(t, "Squat", h.store.sets[1].ExerciseName)
	assert.Equal(t, 1, h.store.sets[1].SetNumber)
	assert.Equal(t, "Leg Press", h.store.sets[2].ExerciseName)
	assert.Equal(t, 2, h.store.sets[2].SetNumber)
	assert.Len(t, o.Snapshot().TodaySets, 3)
}

func TestPersistFailureKeepsPendingSet(t *testing.T) {
	ctx := context.Background()
	h := newHarness(
		&fakeSetListener{results: []listen.SetResult{recognized("row", 95, 12)}},
		answers(listen.DecisionYes),
	)
	h.store.failLog = errDiskFull
	o := h.orchestrator()

	outcome, err := o.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomePersistFailed, outcome)

	snap := o.Snapshot()
	assert.Equal(t, session.PhaseAwaitingYesNo, snap.Phase)
	assert.True(t, snap.ButtonsOnly)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, session.DefaultPrompts().PersistFailed, snap.Error)
	assert.Contains(t, h.reasons(), session.ReasonPersistFailed)

	h.store.setFailure(nil)
	outcome, err = o.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeLogged, outcome)
	assert.Len(t, h.store.sets, 1)
	assert.Equal(t, session.PhaseIdle, o.Snapshot().Phase)
}

func TestButtonsOutsideConfirmation(t *testing.T) {
	h := newHarness(&fakeSetListener{}, answers())
	o := h.orchestrator()

	_, err := o.Confirm(context.Background())
	require.ErrorIs(t, err, session.ErrNoPendingSet)
	_, err = o.Reject(context.Background())
	require.ErrorIs(t, err, session.ErrNoPendingSet)
}

func TestButtonSupersedesVoiceAnswer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(
		&fakeSetListener{results: []listen.SetResult{recognized("curl", 30, 12)}},
		answers(listen.DecisionYes),
	)
	o := h.orchestrator()

	var buttonOutcome session.Outcome
	var buttonErr error
	h.yesno.during = func() {
		buttonOutcome, buttonErr = o.Reject(ctx)
	}

	outcome, err := o.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeSuperseded, outcome)

	require.NoError(t, buttonErr)
	assert.Equal(t, session.OutcomeRejected, buttonOutcome)
	assert.Empty(t, h.store.sets, "late voice yes must not log the rejected set")
	assert.Equal(t, session.PhaseIdle, o.Snapshot().Phase)
}

func TestFinishDuringListening(t *testing.T) {
	ctx := context.Background()
	h := newHarness(
		&fakeSetListener{results: []listen.SetResult{recognized("curl", 30, 12)}},
		answers(listen.DecisionYes),
	)
	h.rec.recording = true
	o := h.orchestrator()
	h.sets.during = func() { o.Finish(ctx) }

	outcome, err := o.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeSuperseded, outcome)

	assert.Equal(t, 1, h.rec.aborts)
	assert.Zero(t, h.yesno.calls)
	assert.Empty(t, h.store.sets)

	snap := o.Snapshot()
	assert.Equal(t, session.PhaseIdle, snap.Phase)
	assert.Nil(t, snap.Pending)
	assert.Contains(t, h.reasons(), session.ReasonFinished)
}

func TestStartSkippedWhileAudioBusy(t *testing.T) {
	ctx := context.Background()
	guard := audiolock.New(nil)
	h := newHarness(&fakeSetListener{}, answers())
	o := h.orchestrator(session.WithGuard(guard))

	var outcome session.Outcome
	skipped, err := guard.Run(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = o.Start(ctx)
		return err
	})
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, session.OutcomeSkipped, outcome)
	assert.Empty(t, h.sets.Calls())
	assert.Equal(t, session.PhaseIdle, o.Snapshot().Phase)
}

func TestRefresh(t *testing.T) {
	h := newHarness(&fakeSetListener{}, answers())
	h.store.sets = []workout.LoggedSet{{ID: 1, Date: today, ExerciseName: "Squat", Weight: 225, Reps: 5, SetNumber: 1}}
	o := h.orchestrator()

	require.NoError(t, o.Refresh(context.Background()))
	assert.Len(t, o.Snapshot().TodaySets, 1)
	assert.Equal(t, []session.Reason{session.ReasonRefreshed}, h.reasons())
}
