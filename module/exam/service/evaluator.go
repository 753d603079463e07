package service

import (
	"context"

	exammodel "DriveSync/module/exam/model"
	examstore "DriveSync/module/exam/store"
	"DriveSync/tools/errs"
)

// Evaluator applies grading-state changes to exam criteria. Every
// mutation is gated on the arbiter's current owner, so there is never a
// second writer by construction.
type Evaluator struct {
	store   examstore.Store
	arbiter *Arbiter
}

func NewEvaluator(store examstore.Store, arbiter *Arbiter) *Evaluator {
	return &Evaluator{store: store, arbiter: arbiter}
}

// ChangeCriteriumState sets the named criterium (within the given
// grading scope) to state. Any grading value may replace any other;
// instructors correct mistakes. No broadcast: the session has a single
// observer.
func (ev *Evaluator) ChangeCriteriumState(ctx context.Context, examID, scope, name string, state exammodel.CriteriumState, connID string) error {
	if !ev.arbiter.IsOwner(examID, connID) {
		return errs.ErrAccessDenied.WithDetail("connection does not own the exam session")
	}
	exam, err := ev.store.GetExam(ctx, examID)
	if err != nil {
		return errs.ErrDb.WithDetail(err.Error())
	}
	if exam == nil {
		return errs.ErrNoEntity.WithDetail(examID)
	}
	if !state.Valid() {
		return errs.ErrInvalidState.WithDetailf("unknown grading value %q", state)
	}

	name = exammodel.NormalizeCriteriumName(name)
	sc := exam.Scope(scope)
	if sc == nil {
		return errs.ErrInvalidState.WithDetailf("scope %q not in exam", scope)
	}
	if sc.Criterium(name) == nil {
		return errs.ErrInvalidState.WithDetailf("criterium %q not in scope %q", name, scope)
	}

	if err := ev.store.SaveCriteriumState(ctx, examID, scope, name, state); err != nil {
		return errs.ErrDb.WithDetail(err.Error())
	}
	return nil
}

// EndExam marks the exam concluded and releases the claim, so a future
// claim attempt correctly finds the session unclaimed.
func (ev *Evaluator) EndExam(ctx context.Context, examID, connID string) error {
	if !ev.arbiter.IsOwner(examID, connID) {
		return errs.ErrAccessDenied.WithDetail("connection does not own the exam session")
	}
	if err := ev.store.MarkExamEnded(ctx, examID); err != nil {
		return errs.ErrDb.WithDetail(err.Error())
	}
	ev.arbiter.Release(examID, connID)
	return nil
}
