package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jmcleod/examflow/internal/validate"
)

const examsPath = "/exams/"

// ExamService covers /exams/ endpoints, courses included.
type ExamService struct {
	d Doer
}

// List returns exams visible to the current user, narrowed by f. The server
// scopes the result by role: students see enrolled exams, instructors their
// courses' exams, admins everything.
func (s *ExamService) List(ctx context.Context, f ExamFilter) ([]Exam, error) {
	q := query{}
	q.setInt("department", f.Department)
	q.set("date_from", f.DateFrom)
	q.set("date_to", f.DateTo)
	q.set("status", f.Status)

	var out List[Exam]
	if err := s.d.Do(ctx, http.MethodGet, examsPath, url.Values(q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ExamService) Create(ctx context.Context, in ExamInput) (*Exam, error) {
	var out Exam
	if err := s.d.Do(ctx, http.MethodPost, examsPath, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ExamService) Update(ctx context.Context, id int64, in ExamInput) (*Exam, error) {
	var out Exam
	if err := s.d.Do(ctx, http.MethodPut, itemPath(examsPath, id, ""), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ExamService) Delete(ctx context.Context, id int64) error {
	return s.d.Do(ctx, http.MethodDelete, itemPath(examsPath, id, ""), nil, nil, nil)
}

// Mine returns the current user's exams ordered by date and start time.
func (s *ExamService) Mine(ctx context.Context) ([]Exam, error) {
	var out List[Exam]
	if err := s.d.Do(ctx, http.MethodGet, examsPath+"my-exams/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckConflicts reports exams overlapping the slot in the given room.
func (s *ExamService) CheckConflicts(ctx context.Context, req ConflictCheck) (*Conflicts, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var out Conflicts
	if err := s.d.Do(ctx, http.MethodPost, examsPath+"check-conflicts/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DepartmentSchedule returns a department's exams within r.
func (s *ExamService) DepartmentSchedule(ctx context.Context, departmentID int64, r DateRange) (*DepartmentSchedule, error) {
	q := query{}
	q.set("date_from", r.From)
	q.set("date_to", r.To)

	var out DepartmentSchedule
	path := itemPath(examsPath+"department/", departmentID, "schedule/")
	if err := s.d.Do(ctx, http.MethodGet, path, url.Values(q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ExamService) Courses(ctx context.Context, f CourseFilter) ([]Course, error) {
	q := query{}
	q.setInt("department", f.Department)
	q.setInt("instructor", f.Instructor)
	q.set("semester", f.Semester)

	var out List[Course]
	if err := s.d.Do(ctx, http.MethodGet, examsPath+"courses/", url.Values(q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ExamService) CreateCourse(ctx context.Context, in CourseInput) (*Course, error) {
	var out Course
	if err := s.d.Do(ctx, http.MethodPost, examsPath+"courses/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
