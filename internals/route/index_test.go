package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	acm "schoolku_backend/internals/features/school/academics/model"
	"schoolku_backend/internals/features/school/exams/repository"
	helperOSS "schoolku_backend/internals/helpers/oss"
	schoolkuMiddleware "schoolku_backend/internals/middlewares/auth_school"
)

const secret = "route-test-secret"

type env struct {
	app    *fiber.App
	school uuid.UUID
	class  acm.ClassModel
	math   acm.SubjectModel
}

func setup(t *testing.T, ping func() error) *env {
	t.Helper()
	e := &env{school: uuid.New()}
	repo := repository.NewMemory()
	e.class = repo.AddClass(acm.ClassModel{ClassSchoolID: e.school, ClassName: "Class 5"})
	e.math = repo.AddSubject(acm.SubjectModel{SubjectSchoolID: e.school, SubjectName: "Math"})

	enf, err := schoolkuMiddleware.NewEnforcer(schoolkuMiddleware.DefaultRules(), schoolkuMiddleware.DefaultInherits())
	require.NoError(t, err)

	e.app = fiber.New()
	SetupRoutes(e.app, Deps{
		Repo:      repo,
		Publisher: helperOSS.NewMemoryPublisher(),
		Enforcer:  enf,
		JWTSecret: secret,
		Store:     "memory",
		Ping:      ping,
	})
	return e
}

func (e *env) token(t *testing.T, roles ...any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":           uuid.NewString(),
		"session":      "2024-2025",
		"exp":          time.Now().Add(time.Hour).Unix(),
		"school_roles": []any{map[string]any{"school_id": e.school.String(), "roles": roles}},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func (e *env) do(t *testing.T, method, path, tok string, body any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	e := setup(t, nil)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health", "", nil))

	down := setup(t, func() error { return errors.New("down") })
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/health", "", nil))
}

func TestAdminGroupGuards(t *testing.T) {
	e := setup(t, nil)
	body := map[string]any{
		"class_id": e.class.ClassID,
		"title":    "Mid Term",
		"entries": []map[string]any{
			{"subject_id": e.math.SubjectID, "exam_date": "2024-03-01", "start_time": "09:00", "end_time": "11:00"},
		},
	}

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/a/datesheets", "", nil))
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/api/a/datesheets", e.token(t, "student"), nil))

	teacher := e.token(t, "teacher")
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/a/datesheets", teacher, nil))
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/api/a/datesheets", teacher, body))

	assert.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/api/a/datesheets", e.token(t, "dkm"), body))
}

func TestUserGroupMine(t *testing.T) {
	e := setup(t, nil)
	// token tanpa student_id → 403 dari handler
	assert.Equal(t, http.StatusForbidden,
		e.do(t, http.MethodGet, "/api/u/exam-slips/mine?datesheet_id="+uuid.NewString(), e.token(t, "student"), nil))
}
