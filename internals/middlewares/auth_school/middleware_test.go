package middleware

import (
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

	"schoolku_backend/internals/constants"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

const testSecret = "rahasia-test"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

type seen struct {
	School string
	Role   string
	User   string
	Sess   string
}

func newApp(t *testing.T, rbac bool, got *seen) *fiber.App {
	t.Helper()
	app := fiber.New()
	hs := []fiber.Handler{AuthJWT(AuthJWTOpts{
		Secret:              testSecret,
		AllowCookieFallback: true,
		BlacklistChecker:    func(raw string) (bool, error) { return raw == "revoked", nil },
	}), UseSchoolScope()}
	if rbac {
		e, err := NewEnforcer(DefaultRules(), DefaultInherits())
		require.NoError(t, err)
		hs = append(hs, RBAC(e))
	}
	grp := app.Group("/api/a", hs...)
	record := func(c *fiber.Ctx) error {
		if got != nil {
			got.School, _ = c.Locals(helperAuth.LocActiveSchoolID).(string)
			got.Role = helperAuth.GetActiveRole(c)
			got.User, _ = c.Locals(helperAuth.LocUserID).(string)
			got.Sess = helperAuth.GetSession(c)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
	grp.Get("/datesheets", record)
	grp.Post("/datesheets", record)
	grp.Post("/datesheets/draft/add", record)
	grp.Post("/datesheets/draft/submit", record)
	grp.Delete("/datesheets/:id", record)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, hdr ...string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func schoolRoles(id uuid.UUID, roles ...any) []any {
	return []any{map[string]any{"school_id": id.String(), "roles": roles}}
}

func TestAuthJWTHydratesLocals(t *testing.T) {
	school, user := uuid.New(), uuid.New()
	var got seen
	app := newApp(t, false, &got)

	tok := sign(t, jwt.MapClaims{
		"id":           user.String(),
		"school_roles": schoolRoles(school, "teacher", "dkm"),
		"session":      "2024-2025",
	})
	assert.Equal(t, http.StatusNoContent, call(t, app, http.MethodGet, "/api/a/datesheets", tok))
	assert.Equal(t, school.String(), got.School)
	assert.Equal(t, "dkm", got.Role)
	assert.Equal(t, user.String(), got.User)
	assert.Equal(t, "2024-2025", got.Sess)
}

func TestAuthJWTRejects(t *testing.T) {
	app := newApp(t, false, nil)

	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/a/datesheets", ""))
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/a/datesheets", "revoked"))
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/a/datesheets", "bukan.jwt.valid"))

	expired := sign(t, jwt.MapClaims{"id": uuid.NewString(), "exp": time.Now().Add(-time.Hour).Unix()})
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/a/datesheets", expired))

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "x"}).SignedString([]byte("lain"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/a/datesheets", other))
}

func TestCookieFallback(t *testing.T) {
	school := uuid.New()
	app := newApp(t, false, nil)
	tok := sign(t, jwt.MapClaims{"id": uuid.NewString(), "school_id": school.String()})

	req := httptest.NewRequest(http.MethodGet, "/api/a/datesheets", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: tok})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSchoolScopeSelection(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	var got seen
	app := newApp(t, false, &got)
	tok := sign(t, jwt.MapClaims{
		"id": uuid.NewString(),
		"school_roles": append(schoolRoles(a, "teacher"),
			map[string]any{"school_id": b.String(), "roles": []any{"admin"}}),
	})

	// dua school, tanpa pilihan → tidak bisa menebak
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/a/datesheets", tok))

	assert.Equal(t, http.StatusNoContent, call(t, app, http.MethodGet, "/api/a/datesheets", tok, "X-School-ID", b.String()))
	assert.Equal(t, b.String(), got.School)
	assert.Equal(t, "admin", got.Role)

	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodGet, "/api/a/datesheets", tok, "X-School-ID", uuid.NewString()))
	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodGet, "/api/a/datesheets", tok, "X-School-ID", "abc"))
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodGet, "/api/a/datesheets", tok,
		"X-School-ID", a.String(), "X-Active-Role", "admin"))
}

func TestRBAC(t *testing.T) {
	school := uuid.New()
	app := newApp(t, true, nil)
	teacher := sign(t, jwt.MapClaims{"id": uuid.NewString(), "school_roles": schoolRoles(school, "teacher")})
	dkm := sign(t, jwt.MapClaims{"id": uuid.NewString(), "school_roles": schoolRoles(school, "dkm")})
	student := sign(t, jwt.MapClaims{"id": uuid.NewString(), "school_roles": schoolRoles(school, "student")})
	owner := sign(t, jwt.MapClaims{"id": uuid.NewString(), "is_owner": true, "school_id": school.String()})

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		want   int
	}{
		{"teacher baca", teacher, http.MethodGet, "/api/a/datesheets", http.StatusNoContent},
		{"teacher draft", teacher, http.MethodPost, "/api/a/datesheets/draft/add", http.StatusNoContent},
		{"teacher tidak boleh create", teacher, http.MethodPost, "/api/a/datesheets", http.StatusForbidden},
		{"teacher tidak boleh submit draft", teacher, http.MethodPost, "/api/a/datesheets/draft/submit", http.StatusForbidden},
		{"dkm submit draft", dkm, http.MethodPost, "/api/a/datesheets/draft/submit", http.StatusNoContent},
		{"dkm mewarisi admin", dkm, http.MethodDelete, "/api/a/datesheets/" + uuid.NewString(), http.StatusNoContent},
		{"dkm mewarisi teacher", dkm, http.MethodGet, "/api/a/datesheets", http.StatusNoContent},
		{"student ditolak", student, http.MethodGet, "/api/a/datesheets", http.StatusForbidden},
		{"owner global", owner, http.MethodPost, "/api/a/datesheets", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, call(t, app, tt.method, tt.path, tt.token))
		})
	}
}

func TestRequireSchoolRoles(t *testing.T) {
	school := uuid.New()
	app := fiber.New()
	hydrate := func(c *fiber.Ctx) error {
		c.Locals(helperAuth.LocSchoolRoles, []helperAuth.SchoolRolesEntry{{SchoolID: school, Roles: []string{c.Get("X-R")}}})
		return c.Next()
	}
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }
	app.Get("/admin", hydrate, RequireSchoolRoles(constants.AdminAndAbove...), ok)
	app.Get("/staff", hydrate, RequireSchoolRoles(constants.SchoolStaffRoles...), ok)

	get := func(path, role string) (int, string) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-R", role)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	for role, want := range map[string]int{"admin": 204, "dkm": 204, "teacher": 403} {
		code, _ := get("/admin", role)
		assert.Equal(t, want, code, role)
	}
	_, msg := get("/admin", "teacher")
	assert.Equal(t, constants.RoleErrorAdmin("ujian"), msg)

	code, msg := get("/staff", "student")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, constants.RoleErrorTeacher("ujian"), msg)
}

func TestRBACDeniedMessage(t *testing.T) {
	school := uuid.New()
	app := newApp(t, true, nil)
	teacher := sign(t, jwt.MapClaims{"id": uuid.NewString(), "school_roles": schoolRoles(school, "teacher")})

	req := httptest.NewRequest(http.MethodPost, "/api/a/datesheets", nil)
	req.Header.Set("Authorization", "Bearer "+teacher)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, constants.RoleErrorAdmin("ujian"), string(body))
}
