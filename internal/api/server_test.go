package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Firefly-HackGT/firefly-backend/internal/history"
	"github.com/Firefly-HackGT/firefly-backend/internal/lecture"
)

type stubRecorder struct {
	lectures []history.LectureRecord
	fetchErr error
}

func (r *stubRecorder) RecordStudentLecture(context.Context, string, history.LectureRecord) error {
	return nil
}

func (r *stubRecorder) RecordProfessorLecture(context.Context, string, history.LectureRecord) error {
	return nil
}

func (r *stubRecorder) FetchLectures(context.Context, history.PersonKind, string) ([]history.LectureRecord, error) {
	return r.lectures, r.fetchErr
}

func (r *stubRecorder) Close(context.Context) error { return nil }

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubRecorder{}, lecture.NewRegistry())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status         string `json:"status"`
		ActiveLectures int    `json:"active_lectures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.ActiveLectures)
}

func TestLectures(t *testing.T) {
	t.Parallel()

	records := []history.LectureRecord{{Name: "Systems", OverallAverage: 4.2}}
	srv := NewServer(&stubRecorder{lectures: records}, lecture.NewRegistry())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lectures?kind=student&name=alice", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Lectures []history.LectureRecord `json:"lectures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, records, body.Lectures)
}

func TestLecturesValidation(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubRecorder{}, lecture.NewRegistry())

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"missing name", http.MethodGet, "/api/lectures?kind=student", http.StatusBadRequest},
		{"bad kind", http.MethodGet, "/api/lectures?kind=teacher&name=alice", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/api/lectures?kind=student&name=alice", http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestLecturesFetchFailure(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubRecorder{fetchErr: errors.New("store down")}, lecture.NewRegistry())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lectures?kind=professor&name=prof", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLecturesEmptyIsList(t *testing.T) {
	t.Parallel()

	srv := NewServer(&stubRecorder{}, lecture.NewRegistry())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lectures?kind=student&name=nobody", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lectures":[]}`, rec.Body.String())
}
