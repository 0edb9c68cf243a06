package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/examflow/api"
	"github.com/jmcleod/examflow/gateway"
	"github.com/jmcleod/examflow/internal/validate"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestReadLine(t *testing.T) {
	r := strings.NewReader("ada\r\nsecret\nlast")

	first, err := readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "ada", first)

	second, err := readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "secret", second)

	third, err := readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "last", third)

	_, err = readLine(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFailure(t *testing.T) {
	assert.EqualError(t, failure("Login failed", nil), "Login failed")
	assert.EqualError(t, failure("User account is disabled.", api.ErrorPayload(`{"detail":"User account is disabled."}`)),
		"User account is disabled.")
	assert.EqualError(t, failure("Registration failed", api.ErrorPayload(`{"username":["A user with that username already exists."]}`)),
		"Registration failed: username: A user with that username already exists.")
}

func TestDescribe(t *testing.T) {
	fe := validate.FieldErrors{"date": "this field is required"}
	assert.EqualError(t, describe("checking conflicts", fe), "checking conflicts: date: this field is required")

	se := &gateway.StatusError{StatusCode: http.StatusBadRequest, Body: []byte(`{"detail":"Room is closed."}`)}
	assert.EqualError(t, describe("scheduling exam", se), "scheduling exam: Room is closed.")

	plain := errors.New("connection refused")
	err := describe("listing rooms", plain)
	assert.ErrorIs(t, err, plain)
}

func TestExamTable(t *testing.T) {
	var buf bytes.Buffer
	examTable(&buf, []api.Exam{{
		ID: 7, ExamType: api.ExamFinal, Date: "2025-06-02", StartTime: "09:00:00", EndTime: "11:00:00",
		Course:      &api.Course{Code: "COMP101"},
		Room:        &api.Room{Name: "T312", Building: &api.Building{Code: "ENG"}},
		MaxStudents: 40, Status: api.StatusScheduled,
	}, {ID: 8, ExamType: api.ExamQuiz}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "7\tCOMP101\tfinal\t2025-06-02\t09:00-11:00\tENG-T312\t40\tscheduled", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "8\t-\tquiz"))
}

// ---------------------------------------------------------------------------
// Commands against a fake server
// ---------------------------------------------------------------------------

type fakeServer struct {
	mu     sync.Mutex
	tokens map[string]string // token -> username
}

func (f *fakeServer) router() http.Handler {
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	user := func(r *http.Request) (string, bool) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name, ok := f.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Token ")]
		return name, ok
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
			var req api.LoginRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "pw" {
				writeJSON(w, http.StatusBadRequest, map[string]any{"non_field_errors": []string{"Invalid username or password."}})
				return
			}
			f.mu.Lock()
			f.tokens["tok-"+req.Username] = req.Username
			f.mu.Unlock()
			writeJSON(w, http.StatusOK, api.AuthResponse{
				Token: "tok-" + req.Username,
				User:  &api.User{ID: 1, Username: req.Username, FirstName: "Ada", LastName: "Lovelace", Role: api.RoleInstructor},
			})
		})
		r.Post("/auth/logout/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"message": "Logout successful"})
		})
		r.Get("/auth/profile/", func(w http.ResponseWriter, r *http.Request) {
			name, ok := user(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid token."})
				return
			}
			writeJSON(w, http.StatusOK, api.User{ID: 1, Username: name, FirstName: "Ada", LastName: "Byron", Role: api.RoleInstructor})
		})
		r.Get("/exams/my-exams/", func(w http.ResponseWriter, r *http.Request) {
			if _, ok := user(r); !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid token."})
				return
			}
			writeJSON(w, http.StatusOK, []api.Exam{
				{ID: 1, Course: &api.Course{Code: "COMP101"}, ExamType: api.ExamMidterm, Date: "2000-01-10", StartTime: "09:00", EndTime: "11:00"},
				{ID: 2, Course: &api.Course{Code: "COMP202"}, ExamType: api.ExamFinal, Date: "2999-06-01", StartTime: "13:00", EndTime: "15:00"},
			})
		})
	})
	return r
}

func (f *fakeServer) revokeAll() {
	f.mu.Lock()
	f.tokens = make(map[string]string)
	f.mu.Unlock()
}

type cli struct {
	t       *testing.T
	globals []string
}

func newCLI(t *testing.T) (*cli, *fakeServer) {
	t.Helper()
	chdir(t, t.TempDir())

	fake := &fakeServer{tokens: make(map[string]string)}
	srv := httptest.NewServer(fake.router())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	return &cli{t: t, globals: []string{
		"--config-dir=" + dir,
		"--base-url=" + srv.URL + "/api",
		"--session-backend=bbolt",
		"--session-file=" + filepath.Join(dir, "session.db"),
	}}, fake
}

// run executes one invocation and releases its storage, as Execute does.
func (c *cli) run(args ...string) (stdout, stderr string, err error) {
	c.t.Helper()
	jsonOutput, whoamiRefresh = false, false
	loginUsername, loginPassword = "", ""

	var o, e bytes.Buffer
	rootCmd.SetOut(&o)
	rootCmd.SetErr(&e)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append(args, c.globals...))
	err = rootCmd.Execute()
	teardown()
	return o.String(), e.String(), err
}

func TestCLI_SessionSurvivesBetweenRuns(t *testing.T) {
	c, _ := newCLI(t)

	stdout, _, err := c.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", stdout)

	stdout, _, err = c.run("login", "-u", "ada", "-p", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Signed in as Ada Lovelace (ada), instructor\n", stdout)

	stdout, _, err = c.run("whoami", "--json")
	require.NoError(t, err)
	var u api.User
	require.NoError(t, json.Unmarshal([]byte(stdout), &u))
	assert.Equal(t, "ada", u.Username)

	stdout, _, err = c.run("exams", "mine")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Upcoming (1)")
	assert.Contains(t, stdout, "Past (1)")
	assert.Contains(t, stdout, "COMP202")

	stdout, _, err = c.run("logout")
	require.NoError(t, err)
	assert.Equal(t, "Signed out\n", stdout)

	stdout, _, err = c.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", stdout)
}

func TestCLI_PromptsForMissingCredentials(t *testing.T) {
	c, _ := newCLI(t)

	var o bytes.Buffer
	rootCmd.SetOut(&o)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader("ada\npw\n"))
	rootCmd.SetArgs(append([]string{"login"}, c.globals...))
	loginUsername, loginPassword = "", ""
	err := rootCmd.Execute()
	teardown()

	require.NoError(t, err)
	assert.Contains(t, o.String(), "Signed in as")
}

func TestCLI_LoginFailure(t *testing.T) {
	c, _ := newCLI(t)

	_, _, err := c.run("login", "-u", "ada", "-p", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Login failed: non_field_errors: Invalid username or password.", err.Error())

	stdout, _, err := c.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", stdout)
}

func TestCLI_SignedInGroupsRequireSession(t *testing.T) {
	c, _ := newCLI(t)

	for _, group := range [][]string{{"exams", "mine"}, {"rooms", "buildings"}, {"notifications", "unread"}} {
		_, _, err := c.run(group...)
		assert.ErrorIs(t, err, errNotSignedIn, "%v", group)
	}
}

func TestCLI_RejectedCredentialEndsSession(t *testing.T) {
	c, fake := newCLI(t)

	_, _, err := c.run("login", "-u", "ada", "-p", "pw")
	require.NoError(t, err)
	fake.revokeAll()

	_, stderr, err := c.run("whoami", "--refresh")
	require.Error(t, err)
	assert.Equal(t, "Invalid token.", err.Error())
	assert.Contains(t, stderr, `session expired; run "examflow login"`)

	stdout, _, err := c.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", stdout)
}

func TestCLI_VersionRunsOffline(t *testing.T) {
	var o bytes.Buffer
	rootCmd.SetOut(&o)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"version", "--base-url=not a url"})
	err := rootCmd.Execute()
	teardown()

	require.NoError(t, err)
	assert.Contains(t, o.String(), Version)
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
