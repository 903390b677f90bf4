package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Firefly-HackGT/firefly-backend/internal/history"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want Event
	}{
		{
			name: "init",
			data: `{"type":"init_lecture","lecture":"Systems","professor":"prof","sections":[{"name":"A","description":"intro"}]}`,
			want: &Init{Lecture: "Systems", Professor: "prof", Sections: []SectionSpec{{Name: "A", Description: "intro"}}},
		},
		{
			name: "join",
			data: `{"type":"join_lecture","session":"k1","name":"alice"}`,
			want: &Join{Session: "k1", Name: "alice"},
		},
		{
			name: "rate",
			data: `{"type":"rate","rating":4,"section":2}`,
			want: &Rate{Rating: 4, Section: 2},
		},
		{
			name: "advance",
			data: `{"type":"advance"}`,
			want: &Advance{},
		},
		{
			name: "retreat",
			data: `{"type":"retreat"}`,
			want: &Retreat{},
		},
		{
			name: "history",
			data: `{"type":"history","kind":"student","name":"alice"}`,
			want: &HistoryQuery{Kind: history.KindStudent, Name: "alice"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode([]byte(tc.data))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()

	for _, data := range []string{
		`not json`,
		`{"type":"bogus"}`,
		`{}`,
		`{"type":"rate","rating":"high"}`,
	} {
		_, err := Decode([]byte(data))
		assert.Error(t, err, "input %q", data)
	}
}

func TestOutboundEventsCarryTheirType(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewSessionKey("k1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"get_session_key","session_key":"k1"}`, string(data))

	data, err = json.Marshal(NewAggregateUpdate(3.5, 2))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"new_overall_rating","overall_rating":3.5,"num_students":2}`, string(data))

	data, err = json.Marshal(NewError(ErrKindRepeatName))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","error_type":"RepeatName"}`, string(data))
}
