package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	exammodel "DriveSync/module/exam/model"
)

// MemoryStore is the in-memory twin of MongoStore for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	exams map[string]*exammodel.Exam
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{exams: make(map[string]*exammodel.Exam)}
}

func (s *MemoryStore) Put(e *exammodel.Exam) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams[e.ExamID] = e
}

func (s *MemoryStore) GetExam(_ context.Context, examID string) (*exammodel.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exams[examID]
	if !ok {
		return nil, nil
	}
	cp := *e
	cp.Scopes = make([]exammodel.GradingScope, len(e.Scopes))
	for i, sc := range e.Scopes {
		cp.Scopes[i] = exammodel.GradingScope{
			Name:     sc.Name,
			Criteria: append([]exammodel.Criterium(nil), sc.Criteria...),
		}
	}
	return &cp, nil
}

func (s *MemoryStore) SaveCriteriumState(_ context.Context, examID, scope, name string, state exammodel.CriteriumState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exams[examID]
	if !ok {
		return fmt.Errorf("exam %s not found", examID)
	}
	sc := e.Scope(scope)
	if sc == nil {
		return fmt.Errorf("scope %s not found in exam %s", scope, examID)
	}
	cr := sc.Criterium(name)
	if cr == nil {
		return fmt.Errorf("criterium %s not found in scope %s", name, scope)
	}
	cr.State = state
	return nil
}

func (s *MemoryStore) MarkExamEnded(_ context.Context, examID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.exams[examID]
	if !ok {
		return fmt.Errorf("exam %s not found", examID)
	}
	e.Status = exammodel.StatusConcluded
	e.EndedAt = time.Now()
	return nil
}
