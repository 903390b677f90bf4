package lecture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Firefly-HackGT/firefly-backend/internal/history"
	"github.com/Firefly-HackGT/firefly-backend/internal/protocol"
)

// persistTimeout bounds the history handoff when a lecture completes.
const persistTimeout = 10 * time.Second

// EventSender delivers outbound protocol events to one participant.
// Implementations must not block indefinitely: session broadcasts run under
// the session lock, so a send is expected to enqueue into a buffered writer
// and fail with an error rather than stall.
type EventSender interface {
	Send(v any) error
}

// Session is one live lecture: the section sequence, the presenter's
// outbound sender, the senders of currently connected students, and every
// joined student's rating array.
//
// The maps diverge deliberately: a disconnected student's sender is removed
// but their ratings stay and keep contributing to aggregates, and their name
// stays reserved for the rest of the lecture.
//
// All mutation happens under mu. Goroutines are preemptive, so the lock
// covers both the state change and the broadcasts it triggers; between the
// two, no other connection's view can interleave.
type Session struct {
	key       string
	lecture   string
	professor string

	mu        sync.Mutex
	seq       *Sequence
	presenter EventSender
	students  map[string]EventSender
	ratings   map[string][]int
	done      bool

	recorder history.Recorder
}

// NewSession creates a live lecture owned by the given presenter connection.
func NewSession(key, lectureName, professor string, sections []Section, presenter EventSender, rec history.Recorder) (*Session, error) {
	if len(sections) == 0 {
		return nil, ErrNoSections
	}
	return &Session{
		key:       key,
		lecture:   lectureName,
		professor: professor,
		seq:       NewSequence(sections),
		presenter: presenter,
		students:  make(map[string]EventSender),
		ratings:   make(map[string][]int),
		recorder:  rec,
	}, nil
}

func (s *Session) Key() string       { return s.key }
func (s *Session) Lecture() string   { return s.lecture }
func (s *Session) Professor() string { return s.professor }

// Join registers a student. The name must be new for this lecture; a name
// stays taken even after its owner disconnects. On success the presenter
// immediately sees the aggregate with the new participant count and the
// student receives the currently active section.
func (s *Session) Join(name string, sender EventSender) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return ErrLectureNotFound
	}
	if _, taken := s.ratings[name]; taken {
		return ErrRepeatName
	}

	slots := make([]int, s.seq.Len())
	for i := range slots {
		slots[i] = DefaultRating
	}
	s.ratings[name] = slots
	s.students[name] = sender

	s.notifyAggregateLocked()
	s.sendSectionLocked(name, sender)
	return nil
}

// Leave removes a student's sender. Their ratings and name reservation
// survive; run on every exit path of the student's connection loop.
func (s *Session) Leave(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.students, name)
}

// SubmitRating records a student's rating for the section the student was
// viewing. Binding is send-time: the index travels with the submission
// instead of being read from the cursor, so a concurrent presenter advance
// cannot land the rating on the wrong section. The presenter then receives
// the recomputed aggregate for the section currently active.
func (s *Session) SubmitRating(name string, section, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		// Finalized while the submission was in flight; results are
		// already out, so the rating is dropped.
		return nil
	}
	slots, joined := s.ratings[name]
	if !joined {
		return ErrLectureNotFound
	}
	if section < 0 || section >= len(slots) {
		return ErrInvalidSection
	}

	slots[section] = rating
	s.notifyAggregateLocked()
	return nil
}

// Advance moves to the next section, or past the last one into completion.
// Every entry into a live section rebroadcasts it to the students and the
// recomputed aggregate to the presenter. Completion sends final results to
// everyone, hands the records to the history recorder, and reports true; the
// caller then deregisters the session and stops processing navigation.
func (s *Session) Advance() bool {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return true
	}

	s.seq.Advance()
	if !s.seq.Completed() {
		s.broadcastSectionLocked()
		s.notifyAggregateLocked()
		s.mu.Unlock()
		return false
	}

	s.done = true
	studentRecs, profRec := s.finalizeLocked()
	s.mu.Unlock()

	s.persist(studentRecs, profRec)
	return true
}

// Retreat moves back one section. At the first section it is a silent no-op
// with no broadcast.
func (s *Session) Retreat() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done || !s.seq.Retreat() {
		return
	}
	s.broadcastSectionLocked()
	s.notifyAggregateLocked()
}

// sendSectionLocked pushes the active section to one student, with the
// rating that student already holds for it so the client can show an
// existing rating when the presenter retreats.
func (s *Session) sendSectionLocked(name string, sender EventSender) {
	curr := s.seq.Index()
	sec := s.seq.Current()
	ev := protocol.NextSection{
		Type:        protocol.TypeNextSection,
		Lecture:     s.lecture,
		Name:        sec.Name,
		Description: sec.Description,
		Rating:      s.ratings[name][curr],
		Curr:        curr,
		Length:      s.seq.Len(),
	}
	if err := sender.Send(ev); err != nil {
		slog.Warn("section push failed", "session", s.key, "student", name, "error", err)
	}
}

func (s *Session) broadcastSectionLocked() {
	for name, sender := range s.students {
		s.sendSectionLocked(name, sender)
	}
}

// notifyAggregateLocked pushes the current section's average and the
// participant count to the presenter. Only the presenter sees aggregates;
// students never see each other's ratings.
func (s *Session) notifyAggregateLocked() {
	avg := RoundRating(SectionAverage(s.ratings, s.seq.Index()))
	ev := protocol.NewAggregateUpdate(avg, len(s.ratings))
	if err := s.presenter.Send(ev); err != nil {
		slog.Warn("aggregate push failed", "session", s.key, "error", err)
	}
}

// finalizeLocked sends final results to every connected participant and
// builds the records handed to the history recorder. Records cover every
// joined student, connected or not.
func (s *Session) finalizeLocked() (map[string]history.LectureRecord, history.LectureRecord) {
	n := s.seq.Len()

	studentRecs := make(map[string]history.LectureRecord, len(s.ratings))
	for name, slots := range s.ratings {
		sections := make([]history.RecordSection, n)
		sum := 0
		for i := 0; i < n; i++ {
			sections[i] = history.RecordSection{
				Name:        s.seq.At(i).Name,
				Description: s.seq.At(i).Description,
				Rating:      float64(slots[i]),
			}
			sum += slots[i]
		}
		studentRecs[name] = history.LectureRecord{
			Name:           s.lecture,
			OverallAverage: RoundRating(float64(sum) / float64(n)),
			Sections:       sections,
		}
	}

	for name, sender := range s.students {
		low := BelowThreshold(s.seq.sections, s.ratings[name], RatingThreshold)
		ev := protocol.NewFinalResults(ratedToWire(low), studentRecs[name].OverallAverage)
		if err := sender.Send(ev); err != nil {
			slog.Warn("final results push failed", "session", s.key, "student", name, "error", err)
		}
	}

	perSection := FinalPerSection(s.ratings, n)
	overall := RoundRating(OverallAverage(perSection))

	profSections := make([]history.RecordSection, n)
	profWire := make([]protocol.RatedSection, n)
	for i := 0; i < n; i++ {
		sec := s.seq.At(i)
		avg := RoundRating(perSection[i])
		profSections[i] = history.RecordSection{Name: sec.Name, Description: sec.Description, Rating: avg}
		profWire[i] = protocol.RatedSection{
			SectionNum: i,
			Section:    protocol.SectionSpec{Name: sec.Name, Description: sec.Description},
			Rating:     avg,
		}
	}
	profRec := history.LectureRecord{Name: s.lecture, OverallAverage: overall, Sections: profSections}

	if err := s.presenter.Send(protocol.NewFinalResults(profWire, overall)); err != nil {
		slog.Warn("final results push failed", "session", s.key, "error", err)
	}

	return studentRecs, profRec
}

// persist hands the finalized records to the recorder. Runs outside the
// session lock; the session is terminal by now.
func (s *Session) persist(studentRecs map[string]history.LectureRecord, profRec history.LectureRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	for name, rec := range studentRecs {
		if err := s.recorder.RecordStudentLecture(ctx, name, rec); err != nil {
			slog.Error("student lecture record failed", "session", s.key, "student", name, "error", err)
		}
	}
	if err := s.recorder.RecordProfessorLecture(ctx, s.professor, profRec); err != nil {
		slog.Error("professor lecture record failed", "session", s.key, "professor", s.professor, "error", err)
	}
}

func ratedToWire(low []Rated) []protocol.RatedSection {
	wire := make([]protocol.RatedSection, 0, len(low))
	for _, r := range low {
		wire = append(wire, protocol.RatedSection{
			SectionNum: r.Index,
			Section:    protocol.SectionSpec{Name: r.Section.Name, Description: r.Section.Description},
			Rating:     r.Rating,
		})
	}
	return wire
}
