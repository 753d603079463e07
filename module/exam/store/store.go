package store

import (
	"context"

	exammodel "DriveSync/module/exam/model"
)

// Store is the persistence collaborator for exams and their criteria.
// GetExam returns (nil, nil) when the exam is absent.
type Store interface {
	GetExam(ctx context.Context, examID string) (*exammodel.Exam, error)
	// SaveCriteriumState persists the state of one criterium within the
	// given scope. The criterium name is already normalized.
	SaveCriteriumState(ctx context.Context, examID, scope, name string, state exammodel.CriteriumState) error
	// MarkExamEnded transitions the exam to concluded.
	MarkExamEnded(ctx context.Context, examID string) error
}
