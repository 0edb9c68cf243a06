// Package schedule holds the client-side scheduling rules applied before an
// exam is sent to the server, and helpers for presenting exam lists.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmcleod/examflow/api"
	"github.com/jmcleod/examflow/internal/validate"
)

var (
	ErrCapacityExceeded = errors.New("room capacity exceeded")
	ErrInvalidDuration  = errors.New("duration must not be negative")
)

// CapacityError reports a requested head count larger than the room.
type CapacityError struct {
	Room        string
	Capacity    int
	MaxStudents int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("Maximum students (%d) exceeds room capacity (%d). Please reduce the number of students or select a larger room.",
		e.MaxStudents, e.Capacity)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// EndTime adds minutes to a "HH:MM" or "HH:MM:SS" start and returns "HH:MM".
// Times past midnight wrap around.
func EndTime(start string, minutes int) (string, error) {
	if minutes < 0 {
		return "", ErrInvalidDuration
	}
	t, err := validate.ParseClock(start)
	if err != nil {
		return "", fmt.Errorf("start time %q: %w", start, err)
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format("15:04"), nil
}

// Partition splits exams into those on or after today and those before, by
// calendar day in now's location. Exams with an unreadable date count as past.
// Order within each half is preserved. Unlike the web dashboard, which
// compares UTC midnight of the exam date with the current instant, an exam
// dated today is deliberately counted as upcoming.
func Partition(exams []api.Exam, now time.Time) (upcoming, past []api.Exam) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	for _, e := range exams {
		day, err := time.ParseInLocation(time.DateOnly, e.Date, now.Location())
		if err == nil && !day.Before(today) {
			upcoming = append(upcoming, e)
		} else {
			past = append(past, e)
		}
	}
	return upcoming, past
}

// CheckCapacity fails with a *CapacityError when roomName is among rooms and
// seats fewer than maxStudents. Unknown rooms pass; the server has the final
// word on them.
func CheckCapacity(rooms []api.Room, roomName string, maxStudents int) error {
	for _, r := range rooms {
		if r.Name != roomName {
			continue
		}
		if maxStudents > r.Capacity {
			return &CapacityError{Room: r.Name, Capacity: r.Capacity, MaxStudents: maxStudents}
		}
		return nil
	}
	return nil
}
