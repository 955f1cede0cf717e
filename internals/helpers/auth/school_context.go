package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

/* ============================================
   Locals Keys (diisi oleh middleware AuthJWT)
   ============================================ */

const (
	LocRole           = "role"             // legacy single role
	LocUserID         = "user_id"          // string UUID
	LocRolesGlobal    = "roles_global"     // []string
	LocSchoolRoles    = "school_roles"     // []SchoolRolesEntry
	LocIsOwner        = "is_owner"         // bool
	LocActiveSchoolID = "active_school_id" // string UUID
	LocSchoolID       = "school_id"        // string UUID
	LocStudentID      = "student_id"       // string UUID
	LocTeacherID      = "teacher_id"       // string UUID
	LocSession        = "session"          // label tahun ajaran, mis. "2024-2025"
	LocActiveRole     = "active_role"      // role terpilih di school aktif
)

type SchoolRolesEntry struct {
	SchoolID uuid.UUID `json:"school_id"`
	Roles    []string  `json:"roles"`
}

type RolesClaim struct {
	RolesGlobal []string           `json:"roles_global"`
	SchoolRoles []SchoolRolesEntry `json:"school_roles"`
}

/* ============================================
   Tiny shared helpers
   ============================================ */

func localString(c *fiber.Ctx, key string) string {
	switch v := c.Locals(key).(type) {
	case string:
		return strings.TrimSpace(v)
	case uuid.UUID:
		if v != uuid.Nil {
			return v.String()
		}
	}
	return ""
}

func parseUUIDLocal(c *fiber.Ctx, key string) (uuid.UUID, error) {
	s := localString(c, key)
	if s == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, key+" tidak ditemukan di token")
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Format "+key+" tidak valid di token")
	}
	return id, nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			out = append(out, r)
		}
	}
	return out
}

/* ============================================
   Identity
   ============================================ */

func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	return parseUUIDLocal(c, LocUserID)
}

func GetStudentIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := parseUUIDLocal(c, LocStudentID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "Token bukan milik siswa")
	}
	return id, nil
}

// GetActiveSchoolID: active_school_id → school_id → satu-satunya school di school_roles.
func GetActiveSchoolID(c *fiber.Ctx) (uuid.UUID, error) {
	if localString(c, LocActiveSchoolID) != "" {
		return parseUUIDLocal(c, LocActiveSchoolID)
	}
	if localString(c, LocSchoolID) != "" {
		return parseUUIDLocal(c, LocSchoolID)
	}
	entries := GetSchoolRoles(c)
	if len(entries) == 1 {
		return entries[0].SchoolID, nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "School scope tidak ditemukan di token")
}

// GetSession: ?session= → header X-Session → locals (claim).
func GetSession(c *fiber.Ctx) string {
	if s := strings.TrimSpace(c.Query("session")); s != "" {
		return s
	}
	if s := strings.TrimSpace(c.Get("X-Session")); s != "" {
		return s
	}
	return localString(c, LocSession)
}

/* ============================================
   Roles
   ============================================ */

func GetRolesGlobal(c *fiber.Ctx) []string {
	switch t := c.Locals(LocRolesGlobal).(type) {
	case []string:
		return lowerAll(t)
	case []any:
		raw := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok {
				raw = append(raw, s)
			}
		}
		return lowerAll(raw)
	}
	return nil
}

func GetSchoolRoles(c *fiber.Ctx) []SchoolRolesEntry {
	if t, ok := c.Locals(LocSchoolRoles).([]SchoolRolesEntry); ok {
		out := make([]SchoolRolesEntry, 0, len(t))
		for _, e := range t {
			if e.SchoolID != uuid.Nil && len(e.Roles) > 0 {
				out = append(out, SchoolRolesEntry{SchoolID: e.SchoolID, Roles: lowerAll(e.Roles)})
			}
		}
		return out
	}
	return nil
}

// RolesInSchool: roles untuk school tertentu + roles global.
func RolesInSchool(c *fiber.Ctx, schoolID uuid.UUID) []string {
	out := append([]string(nil), GetRolesGlobal(c)...)
	for _, e := range GetSchoolRoles(c) {
		if e.SchoolID == schoolID {
			out = append(out, e.Roles...)
		}
	}
	if IsOwner(c) {
		out = append(out, "owner")
	}
	return out
}

func HasRoleInSchool(c *fiber.Ctx, schoolID uuid.UUID, roles ...string) bool {
	have := map[string]struct{}{}
	for _, r := range RolesInSchool(c, schoolID) {
		have[r] = struct{}{}
	}
	for _, r := range roles {
		if _, ok := have[strings.ToLower(r)]; ok {
			return true
		}
	}
	return false
}

// GetActiveRole: role yang dipilih UseSchoolScope, fallback role legacy.
func GetActiveRole(c *fiber.Ctx) string {
	if r := localString(c, LocActiveRole); r != "" {
		return strings.ToLower(r)
	}
	return strings.ToLower(localString(c, LocRole))
}

func IsOwner(c *fiber.Ctx) bool {
	if b, ok := c.Locals(LocIsOwner).(bool); ok && b {
		return true
	}
	for _, r := range GetRolesGlobal(c) {
		if r == "owner" {
			return true
		}
	}
	return false
}
