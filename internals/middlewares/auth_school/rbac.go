package middleware

import (
	"log"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"
	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/constants"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act, eft

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act
`

type Rule struct {
	Role   string
	Path   string
	Method string
}

func readRules(role string, paths ...string) []Rule {
	out := make([]Rule, 0, len(paths))
	for _, p := range paths {
		out = append(out, Rule{Role: role, Path: p, Method: fiber.MethodGet})
	}
	return out
}

func writeRules(role, path string, methods ...string) []Rule {
	out := make([]Rule, 0, len(methods))
	for _, m := range methods {
		out = append(out, Rule{Role: role, Path: path, Method: m})
	}
	return out
}

// DefaultRules: teacher hanya baca + draft + cetak slip; admin boleh semua di /api/a.
func DefaultRules() []Rule {
	rules := readRules(constants.RoleTeacher,
		"/api/a/datesheets",
		"/api/a/datesheets/*",
		"/api/a/datesheet-entries/*",
		"/api/a/exam-slips",
		"/api/a/exam-slips/*",
	)
	// teacher boleh menyusun draft, tapi submit (= create) tetap admin
	for _, p := range []string{"add", "edit", "cancel", "remove", "available-subjects"} {
		rules = append(rules, writeRules(constants.RoleTeacher, "/api/a/datesheets/draft/"+p, fiber.MethodPost)...)
	}
	rules = append(rules, writeRules(constants.RoleAdmin, "/api/a/*",
		fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete)...)
	return rules
}

// DefaultInherits: pasangan (role, mewarisi).
func DefaultInherits() [][2]string {
	return [][2]string{
		{constants.RoleOwner, constants.RoleAdmin},
		{constants.RoleDKM, constants.RoleAdmin},
		{constants.RoleAdmin, constants.RoleTeacher},
	}
}

func NewEnforcer(rules []Rule, inherits [][2]string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	e.AddFunction("keyMatch", util.KeyMatchFunc)

	for _, r := range rules {
		if _, err := e.AddPolicy(strings.ToLower(r.Role), r.Path, strings.ToUpper(r.Method), "allow"); err != nil {
			return nil, err
		}
	}
	for _, g := range inherits {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}
	policies, _ := e.GetPolicy()
	log.Printf("[RBAC] ✅ enforcer siap | policies=%d", len(policies))
	return e, nil
}

// RBAC: subject = role aktif (owner global selalu "owner"), object = path, action = method.
func RBAC(e *casbin.Enforcer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := helperAuth.GetActiveRole(c)
		if helperAuth.IsOwner(c) {
			role = constants.RoleOwner
		}
		if role == "" {
			return fiber.NewError(fiber.StatusForbidden, "Role tidak ditemukan")
		}
		obj, act := c.Path(), c.Method()
		if act == fiber.MethodHead {
			act = fiber.MethodGet
		}
		ok, err := e.Enforce(role, obj, act)
		if err != nil {
			log.Printf("[RBAC] ❌ enforce error: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "RBAC system error")
		}
		if !ok {
			log.Printf("[RBAC] ⛔ denied role=%s %s %s", role, act, obj)
			return fiber.NewError(fiber.StatusForbidden, constants.RoleErrorAdmin("ujian"))
		}
		return c.Next()
	}
}
