package service

import (
	"context"
	"sync"

	"DriveSync/logger"
	exammodel "DriveSync/module/exam/model"
	examstore "DriveSync/module/exam/store"
	"DriveSync/tools/errs"
)

// KickNotifier tells a connection it just lost exam ownership. The call
// happens synchronously inside the claim sequence, before the new owner
// is installed, so an evicted connection can never still believe it is
// authoritative.
type KickNotifier interface {
	Kick(connID, examID string)
}

// Arbiter maps an exam id to at most one owning connection. Claims for
// the same exam serialize on a per-exam lock; different exams proceed
// fully in parallel.
type Arbiter struct {
	store    examstore.Store
	notifier KickNotifier

	mu     sync.RWMutex
	byExam map[string]*claimEntry
	byConn map[string]map[string]struct{} // connID -> exam ids it owns
}

type claimEntry struct {
	mu    sync.Mutex
	owner string // connID; "" when unclaimed
}

func NewArbiter(store examstore.Store, notifier KickNotifier) *Arbiter {
	return &Arbiter{
		store:    store,
		notifier: notifier,
		byExam:   make(map[string]*claimEntry),
		byConn:   make(map[string]map[string]struct{}),
	}
}

func (a *Arbiter) entry(examID string) *claimEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.byExam[examID]
	if !ok {
		e = &claimEntry{}
		a.byExam[examID] = e
	}
	return e
}

func (a *Arbiter) lookup(examID string) *claimEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.byExam[examID]
}

func (a *Arbiter) index(connID, examID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.byConn[connID]
	if m == nil {
		m = make(map[string]struct{})
		a.byConn[connID] = m
	}
	m[examID] = struct{}{}
}

func (a *Arbiter) unindex(connID, examID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if m := a.byConn[connID]; m != nil {
		delete(m, examID)
		if len(m) == 0 {
			delete(a.byConn, connID)
		}
	}
}

// Claim validates the exam and the requestor, then installs connID as the
// exclusive owner, evicting (with exactly one kick) any previous owner.
// A failed claim leaves the previous owner untouched.
func (a *Arbiter) Claim(ctx context.Context, examID, connID, requestor string) (*exammodel.Exam, error) {
	exam, err := a.store.GetExam(ctx, examID)
	if err != nil {
		return nil, errs.ErrDb.WithDetail(err.Error())
	}
	if exam == nil {
		return nil, errs.ErrNoEntity.WithDetail(examID)
	}
	if exam.Status != exammodel.StatusOngoing {
		return nil, errs.ErrInvalidState.WithDetail("exam is " + exam.Status)
	}
	if exam.InstructorID != requestor {
		return nil, errs.ErrAccessDenied.WithDetail("not the instructor of record")
	}

	e := a.entry(examID)
	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.owner
	if old == connID {
		// re-claim by the current owner: nothing to evict
		return exam, nil
	}
	if old != "" {
		// notify before install; the eviction is part of the claim's
		// critical section
		if a.notifier != nil {
			a.notifier.Kick(old, examID)
		}
		a.unindex(old, examID)
		logger.Infof("[arbiter] exam=%s owner %s evicted by %s", examID, old, connID)
	}
	e.owner = connID
	a.index(connID, examID)
	return exam, nil
}

// Release clears the claim only when connID matches the recorded owner,
// so a stale disconnect never clears a newer claim.
func (a *Arbiter) Release(examID, connID string) {
	e := a.lookup(examID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.owner == connID {
		e.owner = ""
		a.unindex(connID, examID)
	}
}

// ReleaseAll drops every claim held by connID; invoked from the
// disconnect path. Best-effort, never fails.
func (a *Arbiter) ReleaseAll(connID string) {
	a.mu.RLock()
	examIDs := make([]string, 0, len(a.byConn[connID]))
	for examID := range a.byConn[connID] {
		examIDs = append(examIDs, examID)
	}
	a.mu.RUnlock()

	for _, examID := range examIDs {
		a.Release(examID, connID)
	}
}

// IsOwner is the authorization check for every exam-scoped command.
func (a *Arbiter) IsOwner(examID, connID string) bool {
	e := a.lookup(examID)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner == connID && connID != ""
}

// Owner returns the current owning connection id, or "".
func (a *Arbiter) Owner(examID string) string {
	e := a.lookup(examID)
	if e == nil {
		return ""
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}
