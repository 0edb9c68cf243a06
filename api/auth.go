package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jmcleod/examflow/internal/validate"
)

// AuthService covers /auth/ endpoints.
type AuthService struct {
	d Doer
}

// Login exchanges credentials for a token and identity. The username is
// NFKC-normalized and trimmed before sending.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Username = normalizeUsername(req.Username)
	var out AuthResponse
	if err := s.d.Do(ctx, http.MethodPost, "/auth/login/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its token and identity.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Username = normalizeUsername(req.Username)
	var out AuthResponse
	if err := s.d.Do(ctx, http.MethodPost, "/auth/register/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the current token on the server.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.d.Do(ctx, http.MethodPost, "/auth/logout/", nil, nil, nil)
}

// Profile fetches the identity behind the current token.
func (s *AuthService) Profile(ctx context.Context) (*User, error) {
	var out User
	if err := s.d.Do(ctx, http.MethodGet, "/auth/profile/", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile applies a partial update and returns the new identity.
func (s *AuthService) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*User, error) {
	var out User
	if err := s.d.Do(ctx, http.MethodPut, "/auth/profile/update/", nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword validates req locally, then asks the server to change the
// password. It returns the server's confirmation message.
func (s *AuthService) ChangePassword(ctx context.Context, req ChangePasswordRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	var out MessageResponse
	if err := s.d.Do(ctx, http.MethodPost, "/auth/change-password/", nil, req, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Departments lists all departments. The endpoint is public.
func (s *AuthService) Departments(ctx context.Context) ([]Department, error) {
	var out List[Department]
	if err := s.d.Do(ctx, http.MethodGet, "/auth/departments/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDepartment adds a department.
func (s *AuthService) CreateDepartment(ctx context.Context, in DepartmentInput) (*Department, error) {
	var out Department
	if err := s.d.Do(ctx, http.MethodPost, "/auth/departments/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users lists accounts, optionally narrowed by role and department.
func (s *AuthService) Users(ctx context.Context, f UserFilter) ([]User, error) {
	q := query{}
	q.set("role", string(f.Role))
	q.setInt("department", f.Department)

	var out List[User]
	if err := s.d.Do(ctx, http.MethodGet, "/auth/users/", url.Values(q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
