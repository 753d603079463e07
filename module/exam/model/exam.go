package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Exam statuses.
const (
	StatusScheduled = "scheduled"
	StatusOngoing   = "ongoing"
	StatusConcluded = "concluded"
)

// Grading scopes (categories within the rubric).
const (
	ScopeManeuverArea = "maneuver_area"
	ScopeOpenRoad     = "open_road"
)

// CriteriumState is the enumerated grading value. Transitions are free
// in every direction: instructors correct mistakes.
type CriteriumState string

const (
	StateUngraded    CriteriumState = ""
	StateFailedOnce  CriteriumState = "failed_once"
	StateFailedTwice CriteriumState = "failed_twice"
	StatePassed      CriteriumState = "passed"
)

// Valid reports whether s is a settable grading value.
func (s CriteriumState) Valid() bool {
	switch s {
	case StateFailedOnce, StateFailedTwice, StatePassed:
		return true
	}
	return false
}

// Criterium is a single gradable rubric item within a scope.
type Criterium struct {
	Name  string         `bson:"name"` // normalized: first letter upper-cased
	State CriteriumState `bson:"state"`
}

// GradingScope groups criteria under one category.
type GradingScope struct {
	Name     string      `bson:"name"`
	Criteria []Criterium `bson:"criteria"`
}

// Exam is a practical driving exam. InstructorID is the instructor of
// record for the exam's ride and the only identity allowed to claim the
// live tracking session.
type Exam struct {
	ExamID       string         `bson:"exam_id"`
	RideID       string         `bson:"ride_id,omitempty"`
	InstructorID string         `bson:"instructor_id"`
	StudentID    string         `bson:"student_id"`
	Status       string         `bson:"status"`
	Scopes       []GradingScope `bson:"scopes"`
	StartedAt    time.Time      `bson:"started_at"`
	EndedAt      time.Time      `bson:"ended_at,omitempty"`
}

const (
	ExamFieldExamID       = "exam_id"
	ExamFieldInstructorID = "instructor_id"
	ExamFieldStatus       = "status"
	ExamFieldScopes       = "scopes"
	ExamFieldEndedAt      = "ended_at"
)

func (e *Exam) GetTableName() string {
	return "exams"
}

// Scope returns the named grading scope or nil.
func (e *Exam) Scope(name string) *GradingScope {
	for i := range e.Scopes {
		if e.Scopes[i].Name == name {
			return &e.Scopes[i]
		}
	}
	return nil
}

// Criterium returns the named criterium within the scope, or nil.
func (s *GradingScope) Criterium(name string) *Criterium {
	for i := range s.Criteria {
		if s.Criteria[i].Name == name {
			return &s.Criteria[i]
		}
	}
	return nil
}

// NormalizeCriteriumName upper-cases the first letter to match the
// stored schema ("parking" and "Parking" address the same item).
func NormalizeCriteriumName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
