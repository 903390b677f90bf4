package ws

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Firefly-HackGT/firefly-backend/internal/history"
	"github.com/Firefly-HackGT/firefly-backend/internal/lecture"
	"github.com/Firefly-HackGT/firefly-backend/internal/protocol"
)

// fetchTimeout bounds a history lookup serving one websocket query.
const fetchTimeout = 10 * time.Second

// Conn is the connection surface the dispatcher drives. *Connection
// implements it; tests substitute scripted fakes.
type Conn interface {
	ReadEvent() (protocol.Event, error)
	Send(v any) error
	Close() error
}

// Dispatcher classifies each connection by its first inbound event and runs
// the matching protocol loop until the connection closes. Per-connection
// failures never escape their loop; every exit path runs the deferred
// cleanup for that role.
type Dispatcher struct {
	registry *lecture.Registry
	recorder history.Recorder
}

func NewDispatcher(registry *lecture.Registry, recorder history.Recorder) *Dispatcher {
	return &Dispatcher{registry: registry, recorder: recorder}
}

// Handle owns conn for its whole life. The first event decides the role:
// a presenter starting a lecture, a student joining one, or a history query.
// Anything else, including a decode failure, drops the connection.
func (d *Dispatcher) Handle(conn Conn) {
	defer func() { _ = conn.Close() }()

	first, err := conn.ReadEvent()
	if err != nil {
		return
	}

	switch ev := first.(type) {
	case *protocol.Init:
		d.runPresenter(conn, ev)
	case *protocol.Join:
		d.runStudent(conn, ev)
	case *protocol.HistoryQuery:
		d.serveHistory(conn, ev)
	default:
		slog.Debug("connection opened with non-initial event", "event", ev)
	}
}

// runPresenter creates the session, registers it, hands the key back, then
// processes navigation until completion or disconnect. The registry entry is
// removed on every exit path; after a presenter drop the removal only blocks
// new joins, students already inside the session finish their submissions
// against their direct reference.
func (d *Dispatcher) runPresenter(conn Conn, init *protocol.Init) {
	sections := make([]lecture.Section, len(init.Sections))
	for i, s := range init.Sections {
		sections[i] = lecture.Section{Name: s.Name, Description: s.Description}
	}

	key := uuid.NewString()
	sess, err := lecture.NewSession(key, init.Lecture, init.Professor, sections, conn, d.recorder)
	if err != nil {
		slog.Warn("lecture rejected", "professor", init.Professor, "error", err)
		return
	}
	if err := d.registry.Put(key, sess); err != nil {
		slog.Error("session registration failed", "session", key, "error", err)
		return
	}
	defer d.registry.Remove(key)

	if err := conn.Send(protocol.NewSessionKey(key)); err != nil {
		return
	}
	slog.Info("lecture started", "session", key, "lecture", init.Lecture, "professor", init.Professor, "sections", len(sections))

	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			slog.Info("presenter disconnected", "session", key)
			return
		}

		switch ev.(type) {
		case *protocol.Advance:
			if sess.Advance() {
				slog.Info("lecture completed", "session", key, "lecture", init.Lecture)
				return
			}
		case *protocol.Retreat:
			sess.Retreat()
		default:
			slog.Warn("unexpected presenter event", "session", key)
			return
		}
	}
}

// runStudent resolves the session, joins it, then processes rating
// submissions until disconnect. Validation order is fixed: the key first
// (LectureNotFound), the name second (RepeatName). Leaving removes only the
// student's sender; their ratings keep contributing to aggregates.
func (d *Dispatcher) runStudent(conn Conn, join *protocol.Join) {
	sess, ok := d.registry.Get(join.Session)
	if !ok {
		_ = conn.Send(protocol.NewError(protocol.ErrKindLectureNotFound))
		return
	}

	if err := sess.Join(join.Name, conn); err != nil {
		switch {
		case errors.Is(err, lecture.ErrRepeatName):
			_ = conn.Send(protocol.NewError(protocol.ErrKindRepeatName))
		case errors.Is(err, lecture.ErrLectureNotFound):
			_ = conn.Send(protocol.NewError(protocol.ErrKindLectureNotFound))
		}
		return
	}
	defer sess.Leave(join.Name)
	slog.Info("student joined", "session", join.Session, "student", join.Name)

	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			slog.Info("student disconnected", "session", join.Session, "student", join.Name)
			return
		}

		rate, ok := ev.(*protocol.Rate)
		if !ok {
			slog.Warn("unexpected student event", "session", join.Session, "student", join.Name)
			return
		}
		if err := sess.SubmitRating(join.Name, rate.Section, rate.Rating); err != nil {
			slog.Warn("rating rejected", "session", join.Session, "student", join.Name, "error", err)
			return
		}
	}
}

// serveHistory answers a one-shot query for a person's stored lectures.
func (d *Dispatcher) serveHistory(conn Conn, q *protocol.HistoryQuery) {
	if !q.Kind.Valid() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	lectures, err := d.recorder.FetchLectures(ctx, q.Kind, q.Name)
	if err != nil {
		slog.Error("history fetch failed", "kind", q.Kind, "name", q.Name, "error", err)
		return
	}
	_ = conn.Send(protocol.NewHistoryData(lectures))
}
