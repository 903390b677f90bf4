// Package protocol defines the JSON event catalogue exchanged over a lecture
// connection. Inbound messages are decoded exactly once, at the connection
// boundary, into a closed set of typed events.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/Firefly-HackGT/firefly-backend/internal/history"
)

// Inbound event types.
const (
	TypeInit    = "init_lecture"
	TypeJoin    = "join_lecture"
	TypeRate    = "rate"
	TypeAdvance = "advance"
	TypeRetreat = "retreat"
	TypeHistory = "history"
)

// Outbound event types. Names follow the original browser client.
const (
	TypeSessionKey   = "get_session_key"
	TypeNextSection  = "next_section"
	TypeAggregate    = "new_overall_rating"
	TypeFinalResults = "final_results"
	TypeHistoryData  = "history_data"
	TypeError        = "error"
)

// Error kinds carried by Error events.
const (
	ErrKindLectureNotFound = "LectureNotFound"
	ErrKindRepeatName      = "RepeatName"
)

// Event is an inbound message after boundary decoding.
type Event interface{ isEvent() }

// SectionSpec is the client-supplied definition of one lecture section.
type SectionSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Init starts a new lecture. Sent as the first message by a presenter.
type Init struct {
	Lecture   string        `json:"lecture"`
	Professor string        `json:"professor"`
	Sections  []SectionSpec `json:"sections"`
}

// Join enters an existing lecture. Sent as the first message by a student.
type Join struct {
	Session string `json:"session"`
	Name    string `json:"name"`
}

// Rate submits a rating for the section the student was viewing. Section is
// the index echoed from the last NextSection event, so a rating lands on the
// section the student saw even if the presenter has moved on since.
type Rate struct {
	Rating  int `json:"rating"`
	Section int `json:"section"`
}

// Advance moves the lecture to the next section.
type Advance struct{}

// Retreat moves the lecture to the previous section.
type Retreat struct{}

// HistoryQuery requests the stored lecture records for one person.
type HistoryQuery struct {
	Kind history.PersonKind `json:"kind"`
	Name string             `json:"name"`
}

func (*Init) isEvent()         {}
func (*Join) isEvent()         {}
func (*Rate) isEvent()         {}
func (*Advance) isEvent()      {}
func (*Retreat) isEvent()      {}
func (*HistoryQuery) isEvent() {}

// Decode parses one inbound message. An unknown type or unparseable payload
// is an error; the caller treats it as fatal to the connection.
func Decode(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed event: %w", err)
	}

	var ev Event
	switch head.Type {
	case TypeInit:
		ev = &Init{}
	case TypeJoin:
		ev = &Join{}
	case TypeRate:
		ev = &Rate{}
	case TypeAdvance:
		return &Advance{}, nil
	case TypeRetreat:
		return &Retreat{}, nil
	case TypeHistory:
		ev = &HistoryQuery{}
	default:
		return nil, fmt.Errorf("unknown event type %q", head.Type)
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("malformed %s event: %w", head.Type, err)
	}
	return ev, nil
}

// SessionKey tells the presenter the key students use to join.
type SessionKey struct {
	Type       string `json:"type"`
	SessionKey string `json:"session_key"`
}

// NextSection carries the active section to one student, together with the
// rating that student already holds for it.
type NextSection struct {
	Type        string `json:"type"`
	Lecture     string `json:"lecture"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rating      int    `json:"rating"`
	Curr        int    `json:"curr"`
	Length      int    `json:"length"`
}

// AggregateUpdate carries the presenter-facing average for the current
// section. OverallRating is rounded to one decimal at this boundary.
type AggregateUpdate struct {
	Type          string  `json:"type"`
	OverallRating float64 `json:"overall_rating"`
	NumStudents   int     `json:"num_students"`
}

// RatedSection is one entry of a final-results event: a student's
// below-threshold section, or a per-section class average for the presenter.
type RatedSection struct {
	SectionNum int         `json:"section_num"`
	Section    SectionSpec `json:"section"`
	Rating     float64     `json:"rating"`
}

// FinalResults closes out a lecture for one participant.
type FinalResults struct {
	Type          string         `json:"type"`
	Sections      []RatedSection `json:"sections"`
	OverallRating float64        `json:"overall_rating"`
}

// HistoryData answers a HistoryQuery.
type HistoryData struct {
	Type     string                  `json:"type"`
	Lectures []history.LectureRecord `json:"lectures"`
}

// Error reports a failed join attempt.
type Error struct {
	Type      string `json:"type"`
	ErrorType string `json:"error_type"`
}

func NewSessionKey(key string) SessionKey {
	return SessionKey{Type: TypeSessionKey, SessionKey: key}
}

func NewAggregateUpdate(average float64, students int) AggregateUpdate {
	return AggregateUpdate{Type: TypeAggregate, OverallRating: average, NumStudents: students}
}

func NewFinalResults(sections []RatedSection, overall float64) FinalResults {
	return FinalResults{Type: TypeFinalResults, Sections: sections, OverallRating: overall}
}

func NewHistoryData(lectures []history.LectureRecord) HistoryData {
	return HistoryData{Type: TypeHistoryData, Lectures: lectures}
}

func NewError(kind string) Error {
	return Error{Type: TypeError, ErrorType: kind}
}
