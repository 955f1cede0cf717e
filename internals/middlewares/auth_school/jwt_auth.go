package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	BlacklistChecker    func(rawToken string) (bool, error) // true = token dicabut
	AllowCookieFallback bool                                // pakai cookie access_token jika tidak ada Bearer
}

func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret wajib diisi")
	}

	return func(c *fiber.Ctx) error {
		// 1) Authorization: Bearer xxx (atau cookie jika diizinkan)
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw = strings.TrimSpace(c.Cookies("access_token"))
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		if o.BlacklistChecker != nil {
			if black, err := o.BlacklistChecker(raw); err == nil && black {
				return fiber.NewError(fiber.StatusUnauthorized, "Token revoked")
			}
		}

		// 2) Parse + verifikasi algoritma
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
		}
		c.Locals("jwt_claims", claims)

		// 3) Hydrate locals untuk helperAuth
		rc := rolesClaimFrom(claims)
		c.Locals(helperAuth.LocRolesGlobal, rc.RolesGlobal)
		c.Locals(helperAuth.LocSchoolRoles, rc.SchoolRoles)

		if isTruthy(claims["is_owner"]) {
			c.Locals(helperAuth.LocIsOwner, true)
		}
		if sid := strClaim(claims, "school_id"); sid != "" {
			c.Locals(helperAuth.LocActiveSchoolID, sid)
			c.Locals(helperAuth.LocSchoolID, sid)
		}
		if tid := strClaim(claims, "teacher_id"); tid != "" {
			c.Locals(helperAuth.LocTeacherID, tid)
		}
		if sid := strClaim(claims, "student_id"); sid != "" {
			c.Locals(helperAuth.LocStudentID, sid)
		}
		if s := strClaim(claims, "session"); s != "" {
			c.Locals(helperAuth.LocSession, s)
		}

		// user_id: id → sub → user_id
		for _, k := range []string{"id", "sub", "user_id"} {
			if v := strClaim(claims, k); v != "" {
				c.Locals(helperAuth.LocUserID, v)
				break
			}
		}

		EnsureLegacyRoleLocal(c, rc)
		return c.Next()
	}
}

func rolesClaimFrom(claims jwt.MapClaims) helperAuth.RolesClaim {
	rc := helperAuth.RolesClaim{
		RolesGlobal: readStringSlice(claims["roles_global"]),
		SchoolRoles: make([]helperAuth.SchoolRolesEntry, 0),
	}
	arr, _ := claims["school_roles"].([]any)
	for _, it := range arr {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		s, _ := m["school_id"].(string)
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		rc.SchoolRoles = append(rc.SchoolRoles, helperAuth.SchoolRolesEntry{
			SchoolID: id,
			Roles:    readStringSlice(m["roles"]),
		})
	}
	return rc
}

func strClaim(m jwt.MapClaims, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func isTruthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1" || s == "yes"
	}
	return false
}

// []string atau []any → []string (buang kosong)
func readStringSlice(v any) []string {
	out := make([]string, 0)
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// EnsureLegacyRoleLocal mengisi c.Locals("role") dari klaim modern.
// Prioritas mengikuti constants.RolePriority, fallback "user".
func EnsureLegacyRoleLocal(c *fiber.Ctx, rc helperAuth.RolesClaim) {
	if s, ok := c.Locals(helperAuth.LocRole).(string); ok && strings.TrimSpace(s) != "" {
		return
	}
	has := map[string]struct{}{}
	for _, r := range rc.RolesGlobal {
		has[strings.ToLower(r)] = struct{}{}
	}
	for _, e := range rc.SchoolRoles {
		for _, r := range e.Roles {
			has[strings.ToLower(r)] = struct{}{}
		}
	}
	c.Locals(helperAuth.LocRole, pickRole(has))
}

func pickRole(has map[string]struct{}) string {
	for _, r := range constants.RolePriority {
		if _, ok := has[r]; ok {
			return r
		}
	}
	return constants.RoleUser
}
