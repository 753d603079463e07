package service

import (
	"context"
	"testing"

	exammodel "DriveSync/module/exam/model"
	examstore "DriveSync/module/exam/store"
	"DriveSync/tools/errs"

	"github.com/stretchr/testify/require"
)

func newTestEvaluator(t *testing.T) (*Evaluator, *Arbiter, *examstore.MemoryStore) {
	t.Helper()
	store := examstore.NewMemoryStore()
	arbiter := NewArbiter(store, &recordingNotifier{})
	return NewEvaluator(store, arbiter), arbiter, store
}

func TestChangeCriteriumRequiresOwnership(t *testing.T) {
	ev, arbiter, store := newTestEvaluator(t)
	store.Put(ongoingExam("exam-1", "bob"))
	ctx := context.Background()

	err := ev.ChangeCriteriumState(ctx, "exam-1", exammodel.ScopeManeuverArea, "Parking", exammodel.StatePassed, "conn-1")
	require.True(t, errs.ErrAccessDenied.Is(err))

	exam, _ := store.GetExam(ctx, "exam-1")
	require.Equal(t, exammodel.StateUngraded, exam.Scope(exammodel.ScopeManeuverArea).Criterium("Parking").State)

	_, err = arbiter.Claim(ctx, "exam-1", "conn-1", "bob")
	require.NoError(t, err)
	err = ev.ChangeCriteriumState(ctx, "exam-1", exammodel.ScopeManeuverArea, "Parking", exammodel.StatePassed, "conn-1")
	require.NoError(t, err)

	exam, _ = store.GetExam(ctx, "exam-1")
	require.Equal(t, exammodel.StatePassed, exam.Scope(exammodel.ScopeManeuverArea).Criterium("Parking").State)
}

func TestChangeCriteriumNormalizesName(t *testing.T) {
	ev, arbiter, store := newTestEvaluator(t)
	store.Put(ongoingExam("exam-1", "bob"))
	ctx := context.Background()
	_, err := arbiter.Claim(ctx, "exam-1", "conn-1", "bob")
	require.NoError(t, err)

	err = ev.ChangeCriteriumState(ctx, "exam-1", exammodel.ScopeManeuverArea, "parking", exammodel.StateFailedOnce, "conn-1")
	require.NoError(t, err)

	exam, _ := store.GetExam(ctx, "exam-1")
	require.Equal(t, exammodel.StateFailedOnce, exam.Scope(exammodel.ScopeManeuverArea).Criterium("Parking").State)
}

func TestChangeCriteriumFreeTransitions(t *testing.T) {
	ev, arbiter, store := newTestEvaluator(t)
	store.Put(ongoingExam("exam-1", "bob"))
	ctx := context.Background()
	_, err := arbiter.Claim(ctx, "exam-1", "conn-1", "bob")
	require.NoError(t, err)

	for _, state := range []exammodel.CriteriumState{
		exammodel.StateFailedTwice,
		exammodel.StatePassed,
		exammodel.StateFailedOnce,
	} {
		require.NoError(t, ev.ChangeCriteriumState(ctx, "exam-1", exammodel.ScopeOpenRoad, "Overtaking", state, "conn-1"))
		exam, _ := store.GetExam(ctx, "exam-1")
		require.Equal(t, state, exam.Scope(exammodel.ScopeOpenRoad).Criterium("Overtaking").State)
	}
}

func TestChangeCriteriumRejectsBadInput(t *testing.T) {
	ev, arbiter, store := newTestEvaluator(t)
	store.Put(ongoingExam("exam-1", "bob"))
	ctx := context.Background()
	_, err := arbiter.Claim(ctx, "exam-1", "conn-1", "bob")
	require.NoError(t, err)

	err = ev.ChangeCriteriumState(ctx, "exam-1", exammodel.ScopeManeuverArea, "Parking", "shrug", "conn-1")
	require.True(t, errs.ErrInvalidState.Is(err))

	err = ev.ChangeCriteriumState(ctx, "exam-1", "motorway", "Parking", exammodel.StatePassed, "conn-1")
	require.True(t, errs.ErrInvalidState.Is(err))

	err = ev.ChangeCriteriumState(ctx, "exam-1", exammodel.ScopeManeuverArea, "Juggling", exammodel.StatePassed, "conn-1")
	require.True(t, errs.ErrInvalidState.Is(err))
}

func TestEndExamReleasesClaim(t *testing.T) {
	ev, arbiter, store := newTestEvaluator(t)
	store.Put(ongoingExam("exam-1", "bob"))
	ctx := context.Background()

	err := ev.EndExam(ctx, "exam-1", "conn-1")
	require.True(t, errs.ErrAccessDenied.Is(err))

	_, err = arbiter.Claim(ctx, "exam-1", "conn-1", "bob")
	require.NoError(t, err)
	require.NoError(t, ev.EndExam(ctx, "exam-1", "conn-1"))

	exam, _ := store.GetExam(ctx, "exam-1")
	require.Equal(t, exammodel.StatusConcluded, exam.Status)
	require.False(t, exam.EndedAt.IsZero())
	require.Equal(t, "", arbiter.Owner("exam-1"))

	// a concluded exam can no longer be claimed
	_, err = arbiter.Claim(ctx, "exam-1", "conn-2", "bob")
	require.True(t, errs.ErrInvalidState.Is(err))
}
