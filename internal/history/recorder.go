package history

import (
	"context"
	"errors"
)

// PersonKind selects which side of a lecture a stored record belongs to.
type PersonKind string

const (
	KindStudent   PersonKind = "student"
	KindProfessor PersonKind = "professor"
)

// Valid reports whether the kind is one of the two known values.
func (k PersonKind) Valid() bool {
	return k == KindStudent || k == KindProfessor
}

// RecordSection is one section of a finalized lecture record. For a student
// record Rating is the student's own rating; for a professor record it is the
// class average for that section.
type RecordSection struct {
	Name        string  `json:"name" bson:"name"`
	Description string  `json:"description" bson:"description"`
	Rating      float64 `json:"rating" bson:"rating"`
}

// LectureRecord is the durable summary of one completed lecture for one
// person. Records are append-only: a person accumulates one record per
// lecture they took part in.
type LectureRecord struct {
	Name           string          `json:"name" bson:"name"`
	OverallAverage float64         `json:"overall_average" bson:"overall_average"`
	Sections       []RecordSection `json:"sections" bson:"sections"`
}

// ErrUnknownKind is returned by stores for a PersonKind outside the catalogue.
var ErrUnknownKind = errors.New("unknown person kind")

// Recorder persists finalized lecture records keyed by person name.
// If no record set exists for a name one is created; otherwise the new
// record is appended.
type Recorder interface {
	RecordStudentLecture(ctx context.Context, name string, rec LectureRecord) error
	RecordProfessorLecture(ctx context.Context, name string, rec LectureRecord) error
	FetchLectures(ctx context.Context, kind PersonKind, name string) ([]LectureRecord, error)
	Close(ctx context.Context) error
}
