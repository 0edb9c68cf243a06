package schedule

import (
	"errors"

	"github.com/jmcleod/examflow/api"
	"github.com/jmcleod/examflow/internal/validate"
)

// ErrMissingFields is returned when a required exam form field is empty.
var ErrMissingFields = errors.New("missing required fields: course, date, start time and room")

// ExamForm is the editable shape of an exam before submission. Course is a
// course code and Room a room name.
type ExamForm struct {
	Course          string `json:"course"`
	ExamType        string `json:"exam_type" validate:"oneof=midterm final quiz makeup"`
	Date            string `json:"date" validate:"omitempty,isodate"`
	StartTime       string `json:"start_time" validate:"omitempty,clocktime"`
	Room            string `json:"room"`
	DurationMinutes int    `json:"duration_minutes" validate:"gt=0"`
	MaxStudents     int    `json:"max_students" validate:"gt=0"`
	Notes           string `json:"notes"`
}

// NewExamForm returns a blank form with the usual defaults.
func NewExamForm() ExamForm {
	return ExamForm{
		ExamType:        api.ExamMidterm,
		DurationMinutes: 120,
		MaxStudents:     50,
	}
}

// EditForm pre-fills a form from an existing exam.
func EditForm(e api.Exam) ExamForm {
	f := ExamForm{
		ExamType:        e.ExamType,
		Date:            e.Date,
		StartTime:       e.StartTime,
		DurationMinutes: e.DurationMinutes,
		MaxStudents:     e.MaxStudents,
		Notes:           e.Notes,
	}
	if e.Course != nil {
		f.Course = e.Course.Code
	}
	if e.Room != nil {
		f.Room = e.Room.Name
	}
	return f
}

// Prepare checks f and turns it into a request body: required fields first,
// then field formats, then room capacity against rooms. The end time is
// derived from the start time and duration.
func Prepare(f ExamForm, rooms []api.Room) (api.ExamInput, error) {
	if f.Course == "" || f.Date == "" || f.StartTime == "" || f.Room == "" {
		return api.ExamInput{}, ErrMissingFields
	}
	if err := validate.Struct(f); err != nil {
		return api.ExamInput{}, err
	}
	if err := CheckCapacity(rooms, f.Room, f.MaxStudents); err != nil {
		return api.ExamInput{}, err
	}
	end, err := EndTime(f.StartTime, f.DurationMinutes)
	if err != nil {
		return api.ExamInput{}, err
	}

	return api.ExamInput{
		Course:          f.Course,
		ExamType:        f.ExamType,
		Date:            f.Date,
		StartTime:       f.StartTime,
		EndTime:         end,
		Room:            f.Room,
		DurationMinutes: f.DurationMinutes,
		MaxStudents:     f.MaxStudents,
		Notes:           f.Notes,
	}, nil
}
