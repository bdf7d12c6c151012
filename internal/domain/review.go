package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewEntry is one message or file attachment in the criterion review
// ledger. Entries are append-only: never mutated, never deleted.
//
// AuthorRole is recorded at write time so historical display stays stable
// even if the author's role later changes. Seq is the insertion sequence
// used to break ordering ties within the same CreatedAt.
type ReviewEntry struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	CriterionID   uuid.UUID
	AuthorID      uuid.UUID
	AuthorRole    Role

	Kind ReviewEntryKind

	// Body is set for COMMENT entries, FileRef for FILE entries.
	Body    *string
	FileRef *string

	Seq       int64
	CreatedAt time.Time
}

// CriterionAssessment is the certifier's per-criterion verdict captured in
// a decision snapshot.
type CriterionAssessment struct {
	Meets AssessmentLevel
	Notes string
}

// ReviewDecision is the immutable audit record of a certifier's decision,
// including a snapshot of the per-criterion assessment at decision time.
type ReviewDecision struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	ReviewerID    uuid.UUID
	Action        DecisionAction
	Notes         string

	// Assessments maps criterion id to the verdict snapshot.
	Assessments map[uuid.UUID]CriterionAssessment

	CreatedAt time.Time
}

// CriterionThread groups ledger entries for one criterion, ordered by
// creation time ascending (Seq breaks ties).
type CriterionThread struct {
	CriterionID uuid.UUID
	Entries     []ReviewEntry
}
