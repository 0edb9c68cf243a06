package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/examflow/api"
	"github.com/jmcleod/examflow/internal/validate"
)

func TestEndTime(t *testing.T) {
	tests := []struct {
		start   string
		minutes int
		want    string
	}{
		{"09:00", 120, "11:00"},
		{"09:15:00", 90, "10:45"},
		{"23:30", 120, "01:30"},
		{"00:00", 0, "00:00"},
	}
	for _, tt := range tests {
		got, err := EndTime(tt.start, tt.minutes)
		require.NoError(t, err, tt.start)
		assert.Equal(t, tt.want, got, tt.start)
	}

	_, err := EndTime("9am", 60)
	assert.Error(t, err)
	_, err = EndTime("09:00", -5)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestPartition(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 01:00 local on June 2nd is still June 1st in UTC.
	now := time.Date(2025, 6, 2, 1, 0, 0, 0, loc)

	exams := []api.Exam{
		{ID: 1, Date: "2025-06-01"},
		{ID: 2, Date: "2025-06-02"},
		{ID: 3, Date: "2025-07-10"},
		{ID: 4, Date: "not a date"},
		{ID: 5, Date: "2024-12-31"},
	}
	upcoming, past := Partition(exams, now)

	ids := func(es []api.Exam) []int64 {
		out := make([]int64, len(es))
		for i, e := range es {
			out[i] = e.ID
		}
		return out
	}
	assert.Equal(t, []int64{2, 3}, ids(upcoming))
	assert.Equal(t, []int64{1, 4, 5}, ids(past))

	late := time.Date(2025, 6, 2, 23, 30, 0, 0, time.UTC)
	upcoming, _ = Partition([]api.Exam{{ID: 6, Date: "2025-06-02"}}, late)
	assert.Equal(t, []int64{6}, ids(upcoming), "an exam dated today stays upcoming all day")

	upcoming, past = Partition(nil, now)
	assert.Empty(t, upcoming)
	assert.Empty(t, past)
}

func TestCheckCapacity(t *testing.T) {
	rooms := []api.Room{{Name: "T312", Capacity: 30}, {Name: "A101", Capacity: 120}}

	assert.NoError(t, CheckCapacity(rooms, "T312", 30))
	assert.NoError(t, CheckCapacity(rooms, "Z999", 500), "unknown rooms pass")

	err := CheckCapacity(rooms, "T312", 45)
	require.ErrorIs(t, err, ErrCapacityExceeded)
	var ce *CapacityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 30, ce.Capacity)
	assert.Equal(t, "Maximum students (45) exceeds room capacity (30). Please reduce the number of students or select a larger room.", err.Error())
}

func TestPrepare(t *testing.T) {
	rooms := []api.Room{{Name: "T312", Capacity: 30}}

	t.Run("Valid", func(t *testing.T) {
		f := NewExamForm()
		f.Course, f.Room, f.Date, f.StartTime = "COMP101", "T312", "2025-06-02", "09:30"
		f.MaxStudents = 25
		f.ExamType = api.ExamFinal

		in, err := Prepare(f, rooms)
		require.NoError(t, err)
		assert.Equal(t, api.ExamInput{
			Course: "COMP101", ExamType: "final", Date: "2025-06-02",
			StartTime: "09:30", EndTime: "11:30", Room: "T312",
			DurationMinutes: 120, MaxStudents: 25,
		}, in)
	})

	t.Run("MissingFields", func(t *testing.T) {
		f := NewExamForm()
		f.Course = "COMP101"
		_, err := Prepare(f, rooms)
		assert.ErrorIs(t, err, ErrMissingFields)
	})

	t.Run("BadFormats", func(t *testing.T) {
		f := NewExamForm()
		f.Course, f.Room, f.Date, f.StartTime = "COMP101", "T312", "02/06/2025", "9h30"
		f.ExamType = "oral"
		_, err := Prepare(f, rooms)
		var fe validate.FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "date")
		assert.Contains(t, fe, "start_time")
		assert.Contains(t, fe, "exam_type")
	})

	t.Run("OverCapacity", func(t *testing.T) {
		f := NewExamForm()
		f.Course, f.Room, f.Date, f.StartTime = "COMP101", "T312", "2025-06-02", "09:30"
		_, err := Prepare(f, rooms)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})
}

func TestEditForm(t *testing.T) {
	e := api.Exam{
		Course: &api.Course{Code: "COMP101"}, Room: &api.Room{Name: "T312"},
		ExamType: api.ExamQuiz, Date: "2025-06-02", StartTime: "09:00:00",
		DurationMinutes: 45, MaxStudents: 20, Notes: "bring calculators",
	}
	f := EditForm(e)
	assert.Equal(t, "COMP101", f.Course)
	assert.Equal(t, "T312", f.Room)
	assert.Equal(t, 45, f.DurationMinutes)

	in, err := Prepare(f, nil)
	require.NoError(t, err)
	assert.Equal(t, "09:45", in.EndTime)

	assert.Empty(t, EditForm(api.Exam{}).Course)
}
