package middleware

import (
	"log"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

/* ==========================
   School scope
========================== */

// requestedSchoolID: header X-School-ID → query school_id. Kosong kalau tidak dikirim.
func requestedSchoolID(c *fiber.Ctx) (uuid.UUID, bool, error) {
	raw := strings.TrimSpace(c.Get("X-School-ID"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("school_id"))
	}
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, true, fiber.NewError(fiber.StatusBadRequest, "school_id tidak valid")
	}
	return id, true, nil
}

func bestRoleFor(roles []string) string {
	has := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		has[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	for _, r := range constants.RolePriority {
		if _, ok := has[r]; ok {
			return r
		}
	}
	return ""
}

// UseSchoolScope memilih school aktif + role aktif untuk request ini.
//   - school: X-School-ID / ?school_id= (harus ada di token, kecuali owner),
//     fallback ke school dari token.
//   - role: X-Active-Role kalau dimiliki di school tsb, selain itu role prioritas tertinggi.
func UseSchoolScope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		schoolID, explicit, err := requestedSchoolID(c)
		if err != nil {
			return err
		}
		if !explicit {
			if schoolID, err = helperAuth.GetActiveSchoolID(c); err != nil {
				return err
			}
		}

		roles := helperAuth.RolesInSchool(c, schoolID)
		if explicit && len(roles) == 0 && !helperAuth.IsOwner(c) {
			log.Printf("[SCHOOL-SCOPE] ⛔ school %s tidak ada di token | path=%s", schoolID, c.Path())
			return fiber.NewError(fiber.StatusForbidden, "Anda tidak terdaftar di school ini")
		}

		active := bestRoleFor(roles)
		if want := strings.ToLower(strings.TrimSpace(c.Get("X-Active-Role"))); want != "" {
			if !helperAuth.HasRoleInSchool(c, schoolID, want) {
				return fiber.NewError(fiber.StatusForbidden, "Role "+want+" tidak dimiliki di school ini")
			}
			active = want
		}

		c.Locals(helperAuth.LocActiveSchoolID, schoolID.String())
		c.Locals(helperAuth.LocSchoolID, schoolID.String())
		c.Locals(helperAuth.LocActiveRole, active)
		return c.Next()
	}
}

// RequireSchoolRoles: salah satu role wajib dimiliki di school aktif (owner selalu lolos).
func RequireSchoolRoles(roles ...string) fiber.Handler {
	msg := constants.RoleErrorAdmin("ujian")
	if slices.Contains(roles, constants.RoleTeacher) {
		msg = constants.RoleErrorTeacher("ujian")
	}
	return func(c *fiber.Ctx) error {
		schoolID, err := helperAuth.GetActiveSchoolID(c)
		if err != nil {
			return err
		}
		if helperAuth.IsOwner(c) || helperAuth.HasRoleInSchool(c, schoolID, roles...) {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusForbidden, msg)
	}
}
