package session_test

import (
	"context"
	"errors"
	"sync"

	"github.com/alkime/liftlog/internal/listen"
	"github.com/alkime/liftlog/internal/workout"
)

type fakeSetListener struct {
	mu      sync.Mutex
	results []listen.SetResult
	calls   []listen.SetOptions
	// during runs inside Listen, before the result is returned.
	during func()
}

func (f *fakeSetListener) Listen(_ context.Context, opts listen.SetOptions) listen.SetResult {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	var res listen.SetResult
	if len(f.results) == 0 {
		res = listen.SetResult{Status: listen.SetTimedOut}
	} else {
		res = f.results[0]
		f.results = f.results[1:]
	}
	during := f.during
	f.mu.Unlock()

	if during != nil {
		during()
	}
	return res
}

func (f *fakeSetListener) Calls() []listen.SetOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listen.SetOptions(nil), f.calls...)
}

func recognized(name string, weight float64, reps int) listen.SetResult {
	return listen.SetResult{
		Status:   listen.SetRecognized,
		Set:      workout.Set{ExerciseName: name, Weight: weight, Reps: reps},
		Attempts: 1,
	}
}

type fakeYesNo struct {
	mu      sync.Mutex
	answers []listen.Answer
	calls   int
	during  func()
}

func (f *fakeYesNo) Listen(context.Context, listen.YesNoOptions) listen.Answer {
	f.mu.Lock()
	f.calls++
	ans := listen.Answer{Decision: listen.DecisionUnknown}
	if len(f.answers) > 0 {
		ans = f.answers[0]
		f.answers = f.answers[1:]
	}
	during := f.during
	f.mu.Unlock()

	if during != nil {
		during()
	}
	return ans
}

func answers(ds ...listen.Decision) *fakeYesNo {
	f := &fakeYesNo{}
	for _, d := range ds {
		f.answers = append(f.answers, listen.Answer{Decision: d, Attempts: 1})
	}
	return f
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
	stops  int
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeSpeaker) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

type memStore struct {
	mu      sync.Mutex
	sets    []workout.LoggedSet
	failLog error
}

func (m *memStore) LogSet(_ context.Context, in workout.LogInput) (workout.LoggedSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLog != nil {
		return workout.LoggedSet{}, m.failLog
	}
	s := workout.LoggedSet{
		ID:           int64(len(m.sets) + 1),
		Date:         in.Date,
		ExerciseName: in.ExerciseName,
		Weight:       in.Weight,
		Reps:         in.Reps,
		SetNumber:    in.SetNumber,
		UserID:       in.UserID,
	}
	m.sets = append(m.sets, s)
	return s, nil
}

func (m *memStore) SetsByDate(_ context.Context, date string) ([]workout.LoggedSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []workout.LoggedSet
	for _, s := range m.sets {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) setFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failLog = err
}

type fakeRecorder struct {
	recording bool
	aborts    int
}

func (f *fakeRecorder) Recording() bool { return f.recording }

func (f *fakeRecorder) Abort(context.Context) error {
	f.aborts++
	f.recording = false
	return nil
}

var errDiskFull = errors.New("disk full")
