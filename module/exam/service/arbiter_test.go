package service

import (
	"context"
	"sync"
	"testing"
	"time"

	exammodel "DriveSync/module/exam/model"
	examstore "DriveSync/module/exam/store"
	"DriveSync/tools/errs"

	"github.com/stretchr/testify/require"
)

type kickRecord struct {
	connID string
	examID string
}

type recordingNotifier struct {
	mu    sync.Mutex
	kicks []kickRecord
}

func (n *recordingNotifier) Kick(connID, examID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kicks = append(n.kicks, kickRecord{connID: connID, examID: examID})
}

func (n *recordingNotifier) all() []kickRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]kickRecord(nil), n.kicks...)
}

func ongoingExam(examID, instructor string) *exammodel.Exam {
	return &exammodel.Exam{
		ExamID:       examID,
		InstructorID: instructor,
		StudentID:    "student-1",
		Status:       exammodel.StatusOngoing,
		StartedAt:    time.Now(),
		Scopes: []exammodel.GradingScope{
			{Name: exammodel.ScopeManeuverArea, Criteria: []exammodel.Criterium{
				{Name: "Parking"}, {Name: "Reversing"},
			}},
			{Name: exammodel.ScopeOpenRoad, Criteria: []exammodel.Criterium{
				{Name: "Overtaking"},
			}},
		},
	}
}

func newTestArbiter(t *testing.T) (*Arbiter, *examstore.MemoryStore, *recordingNotifier) {
	t.Helper()
	store := examstore.NewMemoryStore()
	notifier := &recordingNotifier{}
	return NewArbiter(store, notifier), store, notifier
}

func TestClaimInstallsExclusiveOwner(t *testing.T) {
	a, store, notifier := newTestArbiter(t)
	store.Put(ongoingExam("exam-1", "bob"))
	ctx := context.Background()

	exam, err := a.Claim(ctx, "exam-1", "conn-1", "bob")
	require.NoError(t, err)
	require.Equal(t, "exam-1", exam.ExamID)
	require.True(t, a.IsOwner("exam-1", "conn-1"))
	require.Empty(t, notifier.all())

	// a later claim from another connection evicts with exactly one kick
	_, err = a.Claim(ctx, "exam-1", "conn-2", "bob")
	require.NoError(t, err)
	require.True(t, a.IsOwner("exam-1", "conn-2"))
	require.False(t, a.IsOwner("exam-1", "conn-1"))
	require.Equal(t, []kickRecord{{connID: "conn-1", examID: "exam-1"}}, notifier.all())
}

func TestReclaimSameConnectionNoKick(t *testing.T) {
	a, store, notifier := newTestArbiter(t)
	store.Put(ongoingExam("exam-1", "bob"))
	ctx := context.Background()

	_, err := a.Claim(ctx, "exam-1", "conn-1", "bob")
	require.NoError(t, err)
	_, err = a.Claim(ctx, "exam-1", "conn-1", "bob")
	require.NoError(t, err)
	require.True(t, a.IsOwner("exam-1", "conn-1"))
	require.Empty(t, notifier.all())
}

func TestClaimValidation(t *testing.T) {
	a, store, notifier := newTestArbiter(t)
	ctx := context.Background()

	_, err := a.Claim(ctx, "ghost", "conn-1", "bob")
	require.True(t, errs.ErrNoEntity.Is(err))

	concluded := ongoingExam("exam-done", "bob")
	concluded.Status = exammodel.StatusConcluded
	store.Put(concluded)
	_, err = a.Claim(ctx, "exam-done", "conn-1", "bob")
	require.True(t, errs.ErrInvalidState.Is(err))

	store.Put(ongoingExam("exam-1", "bob"))
	_, err = a.Claim(ctx, "exam-1", "conn-1", "mallory")
	require.True(t, errs.ErrAccessDenied.Is(err))

	// a failed claim leaves the standing owner untouched
	_, err = a.Claim(ctx, "exam-1", "conn-owner", "bob")
	require.NoError(t, err)
	_, err = a.Claim(ctx, "exam-1", "conn-other", "mallory")
	require.True(t, errs.ErrAccessDenied.Is(err))
	require.True(t, a.IsOwner("exam-1", "conn-owner"))
	require.Empty(t, notifier.all())
}

func TestConcurrentClaimsSingleOwner(t *testing.T) {
	a, store, notifier := newTestArbiter(t)
	store.Put(ongoingExam("exam-1", "bob"))
	ctx := context.Background()

	const claimers = 16
	var wg sync.WaitGroup
	conns := make([]string, claimers)
	claimErrs := make(chan error, claimers)
	for i := 0; i < claimers; i++ {
		conns[i] = "conn-" + string(rune('a'+i))
		wg.Add(1)
		go func(connID string) {
			defer wg.Done()
			_, err := a.Claim(ctx, "exam-1", connID, "bob")
			claimErrs <- err
		}(conns[i])
	}
	wg.Wait()
	close(claimErrs)
	for err := range claimErrs {
		require.NoError(t, err)
	}

	owner := a.Owner("exam-1")
	require.Contains(t, conns, owner)
	owned := 0
	for _, c := range conns {
		if a.IsOwner("exam-1", c) {
			owned++
		}
	}
	require.Equal(t, 1, owned)
	// every claim but the final winner's got evicted exactly once
	require.Len(t, notifier.all(), claimers-1)
}

func TestReleaseOnlyByOwner(t *testing.T) {
	a, store, _ := newTestArbiter(t)
	store.Put(ongoingExam("exam-1", "bob"))
	ctx := context.Background()

	_, err := a.Claim(ctx, "exam-1", "conn-1", "bob")
	require.NoError(t, err)
	_, err = a.Claim(ctx, "exam-1", "conn-2", "bob")
	require.NoError(t, err)

	// stale release from the evicted connection must not clear conn-2
	a.Release("exam-1", "conn-1")
	require.True(t, a.IsOwner("exam-1", "conn-2"))

	a.Release("exam-1", "conn-2")
	require.Equal(t, "", a.Owner("exam-1"))
}

func TestReleaseAllOnDisconnect(t *testing.T) {
	a, store, _ := newTestArbiter(t)
	store.Put(ongoingExam("exam-1", "bob"))
	store.Put(ongoingExam("exam-2", "bob"))
	ctx := context.Background()

	_, err := a.Claim(ctx, "exam-1", "conn-1", "bob")
	require.NoError(t, err)
	_, err = a.Claim(ctx, "exam-2", "conn-1", "bob")
	require.NoError(t, err)

	a.ReleaseAll("conn-1")
	require.Equal(t, "", a.Owner("exam-1"))
	require.Equal(t, "", a.Owner("exam-2"))

	// unknown connection is a no-op
	a.ReleaseAll("conn-ghost")
}
