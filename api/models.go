package api

import (
	"strings"

	"github.com/jmcleod/examflow/internal/util"
	"github.com/jmcleod/examflow/internal/validate"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// Department is an academic department.
type Department struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	CreatedAt string `json:"created_at,omitempty"`
}

// DepartmentInput is the JSON body for POST /auth/departments/.
type DepartmentInput struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// User is the authenticated identity as served by the API. Timestamps are
// kept as the server's strings so a persisted copy round-trips unchanged.
type User struct {
	ID         int64       `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	FirstName  string      `json:"first_name"`
	LastName   string      `json:"last_name"`
	Role       Role        `json:"role"`
	Department *Department `json:"department"`
	StudentID  string      `json:"student_id,omitempty"`
	Phone      string      `json:"phone,omitempty"`
	IsActive   bool        `json:"is_active"`
	DateJoined string      `json:"date_joined,omitempty"`
}

// FullName returns "First Last", falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Token   string `json:"token"`
	User    *User  `json:"user"`
	Message string `json:"message,omitempty"`
}

// LoginRequest is the JSON body for POST /auth/login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the JSON body for POST /auth/register/. Any role may
// self-register, admin included.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"eqfield=Password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Role            Role   `json:"role" validate:"oneof=admin instructor student"`
	Department      *int64 `json:"department,omitempty"`
	StudentID       string `json:"student_id,omitempty"`
	Phone           string `json:"phone,omitempty"`
}

// Validate checks the form before it is sent. Errors are
// validate.FieldErrors keyed by JSON field name.
func (r RegisterRequest) Validate() error {
	return validate.Struct(r)
}

// ProfileUpdate is the JSON body for PUT /auth/profile/update/. Nil fields
// are left unchanged by the server.
type ProfileUpdate struct {
	Email        *string `json:"email,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	StudentID    *string `json:"student_id,omitempty"`
	DepartmentID *int64  `json:"department_id,omitempty"`
}

// ChangePasswordRequest is the JSON body for POST /auth/change-password/.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"min=8"`
}

// UserFilter narrows GET /auth/users/.
type UserFilter struct {
	Role       Role
	Department int64
}

// Building groups rooms.
type Building struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Address string `json:"address,omitempty"`
}

// BuildingInput is the JSON body for POST /rooms/buildings/.
type BuildingInput struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Address string `json:"address,omitempty"`
}

// Room is a bookable exam room.
type Room struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Building      *Building `json:"building"`
	FullName      string    `json:"full_name"`
	Capacity      int       `json:"capacity"`
	RoomType      string    `json:"room_type"`
	HasProjector  bool      `json:"has_projector"`
	HasComputer   bool      `json:"has_computer"`
	HasWhiteboard bool      `json:"has_whiteboard"`
	IsAvailable   bool      `json:"is_available"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     string    `json:"created_at,omitempty"`
}

// RoomInput is the JSON body for creating or replacing a room.
type RoomInput struct {
	Name          string `json:"name"`
	BuildingID    int64  `json:"building_id"`
	Capacity      int    `json:"capacity"`
	RoomType      string `json:"room_type,omitempty"`
	HasProjector  bool   `json:"has_projector"`
	HasComputer   bool   `json:"has_computer"`
	HasWhiteboard bool   `json:"has_whiteboard"`
	IsAvailable   bool   `json:"is_available"`
	Notes         string `json:"notes,omitempty"`
}

// RoomFilter narrows GET /rooms/.
type RoomFilter struct {
	Building    int64
	IsAvailable *bool
	MinCapacity int
}

// AvailabilityRequest is the JSON body for POST /rooms/check-availability/.
type AvailabilityRequest struct {
	Date          string `json:"date" validate:"required,isodate"`
	StartTime     string `json:"start_time" validate:"required,clocktime"`
	EndTime       string `json:"end_time" validate:"required,clocktime"`
	ExcludeExamID int64  `json:"exclude_exam_id,omitempty"`
}

// Availability lists the rooms free for the requested slot.
type Availability struct {
	AvailableRooms []Room `json:"available_rooms"`
	TotalCount     int    `json:"total_count"`
}

// DateRange bounds schedule queries. Dates are YYYY-MM-DD; empty means open.
type DateRange struct {
	From string
	To   string
}

// RoomSchedule is returned by GET /rooms/{id}/schedule/.
type RoomSchedule struct {
	Room  Room   `json:"room"`
	Exams []Exam `json:"exams"`
}

// Course is a taught course.
type Course struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Code       string      `json:"code"`
	Department *Department `json:"department"`
	Instructor *User       `json:"instructor"`
	Credits    int         `json:"credits"`
	Semester   string      `json:"semester"`
}

// CourseInput is the JSON body for POST /exams/courses/.
type CourseInput struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	DepartmentID int64  `json:"department_id"`
	InstructorID int64  `json:"instructor_id"`
	Credits      int    `json:"credits"`
	Semester     string `json:"semester"`
}

// CourseFilter narrows GET /exams/courses/.
type CourseFilter struct {
	Department int64
	Instructor int64
	Semester   string
}

// Exam types and statuses accepted by the API.
const (
	ExamMidterm = "midterm"
	ExamFinal   = "final"
	ExamQuiz    = "quiz"
	ExamMakeup  = "makeup"

	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Exam is a scheduled exam session.
type Exam struct {
	ID              int64   `json:"id"`
	Course          *Course `json:"course"`
	ExamType        string  `json:"exam_type"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Room            *Room   `json:"room"`
	DurationMinutes int     `json:"duration_minutes"`
	MaxStudents     int     `json:"max_students"`
	Status          string  `json:"status"`
	Notes           string  `json:"notes,omitempty"`
	CreatedBy       *User   `json:"created_by"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
	IsPast          bool    `json:"is_past"`
}

// ExamInput is the JSON body for creating or replacing an exam. Course and
// Room are addressed by course code and room name.
type ExamInput struct {
	Course          string `json:"course"`
	ExamType        string `json:"exam_type"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Room            string `json:"room"`
	DurationMinutes int    `json:"duration_minutes"`
	MaxStudents     int    `json:"max_students"`
	Notes           string `json:"notes,omitempty"`
}

// ExamFilter narrows GET /exams/.
type ExamFilter struct {
	Department int64
	DateFrom   string
	DateTo     string
	Status     string
}

// ConflictCheck is the JSON body for POST /exams/check-conflicts/.
type ConflictCheck struct {
	Date          string `json:"date" validate:"required,isodate"`
	StartTime     string `json:"start_time" validate:"required,clocktime"`
	EndTime       string `json:"end_time" validate:"required,clocktime"`
	RoomID        int64  `json:"room_id" validate:"required"`
	ExcludeExamID int64  `json:"exclude_exam_id,omitempty"`
}

// Conflicts is the result of a conflict check.
type Conflicts struct {
	HasConflicts bool   `json:"has_conflicts"`
	Conflicts    []Exam `json:"conflicts"`
}

// DepartmentSchedule is returned by GET /exams/department/{id}/schedule/.
type DepartmentSchedule struct {
	DepartmentID int64  `json:"department_id"`
	Exams        []Exam `json:"exams"`
}

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification is a message addressed to the current user.
type Notification struct {
	ID               int64  `json:"id"`
	Sender           *User  `json:"sender"`
	NotificationType string `json:"notification_type"`
	Title            string `json:"title"`
	Message          string `json:"message"`
	Priority         string `json:"priority"`
	RelatedExam      *Exam  `json:"related_exam"`
	IsRead           bool   `json:"is_read"`
	IsEmailSent      bool   `json:"is_email_sent"`
	EmailSentAt      string `json:"email_sent_at,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// NotificationFilter narrows GET /notifications/.
type NotificationFilter struct {
	IsRead   *bool
	Type     string
	Priority string
}

// NotificationSummary is returned by GET /notifications/summary/.
type NotificationSummary struct {
	Summary struct {
		Total        int `json:"total"`
		Unread       int `json:"unread"`
		HighPriority int `json:"high_priority"`
		Urgent       int `json:"urgent"`
	} `json:"summary"`
	Recent []Notification `json:"recent_notifications"`
}

func normalizeUsername(s string) string {
	return strings.TrimSpace(util.Normalize(s))
}
