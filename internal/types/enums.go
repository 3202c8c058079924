package types

import "fmt"

// RhetoricalRole is the closed set of discourse functions a chunk can
// play. Values outside the set are rejected at every write boundary.
type RhetoricalRole string

const (
	RoleArgument         RhetoricalRole = "argument"
	RoleExample          RhetoricalRole = "example"
	RoleBackground       RhetoricalRole = "background"
	RoleConclusion       RhetoricalRole = "conclusion"
	RoleMethodology      RhetoricalRole = "methodology"
	RoleInsight          RhetoricalRole = "insight"
	RoleObservation      RhetoricalRole = "observation"
	RoleDefinition       RhetoricalRole = "definition"
	RoleInsufficientData RhetoricalRole = "insufficient_data"
	RoleUnknown          RhetoricalRole = "unknown"
)

var allRoles = map[RhetoricalRole]bool{
	RoleArgument:         true,
	RoleExample:          true,
	RoleBackground:       true,
	RoleConclusion:       true,
	RoleMethodology:      true,
	RoleInsight:          true,
	RoleObservation:      true,
	RoleDefinition:       true,
	RoleInsufficientData: true,
	RoleUnknown:          true,
}

func (r RhetoricalRole) Valid() bool { return allRoles[r] }

func ParseRhetoricalRole(s string) (RhetoricalRole, error) {
	r := RhetoricalRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid rhetorical role %q", s)
	}
	return r, nil
}

// Confidence is the coarse trust tier attached to a label.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// Rank orders tiers low < medium < high for threshold filters.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

func ParseConfidence(s string) (Confidence, error) {
	c := Confidence(s)
	if !c.Valid() {
		return "", fmt.Errorf("invalid confidence %q", s)
	}
	return c, nil
}

// TaskMode selects one of the closed guidance modes.
type TaskMode string

const (
	ModeStart          TaskMode = "START"
	ModeContinue       TaskMode = "CONTINUE"
	ModeReframe        TaskMode = "REFRAME"
	ModeStuckDiagnosis TaskMode = "STUCK_DIAGNOSIS"
	ModeOutline        TaskMode = "OUTLINE"
)

func (m TaskMode) Valid() bool {
	switch m {
	case ModeStart, ModeContinue, ModeReframe, ModeStuckDiagnosis, ModeOutline:
		return true
	}
	return false
}

func ParseTaskMode(s string) (TaskMode, error) {
	m := TaskMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("invalid task mode %q", s)
	}
	return m, nil
}

// ContentType is the inferred kind of a source document.
type ContentType string

const (
	ContentResearchPaper   ContentType = "research_paper"
	ContentVideoTranscript ContentType = "video_transcript"
	ContentLectureNotes    ContentType = "lecture_notes"
	ContentPersonalNotes   ContentType = "personal_notes"
	ContentBookExcerpt     ContentType = "book_excerpt"
	ContentArticle         ContentType = "article"
	ContentUnknown         ContentType = "unknown"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentResearchPaper, ContentVideoTranscript, ContentLectureNotes,
		ContentPersonalNotes, ContentBookExcerpt, ContentArticle, ContentUnknown:
		return true
	}
	return false
}

// DocumentStatus tracks the ingestion lifecycle of a document.
type DocumentStatus string

const (
	DocumentUploaded   DocumentStatus = "uploaded"
	DocumentProcessing DocumentStatus = "processing"
	DocumentReady      DocumentStatus = "ready"
	DocumentFailed     DocumentStatus = "failed"
)
