package helper

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ParseUUIDParam: path param wajib UUID (400 bila tidak valid).
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, name+" tidak valid")
	}
	return id, nil
}

// ParseUUIDQuery: query opsional; kosong → nil.
func ParseUUIDQuery(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, FieldError(name, "must be a valid UUID")
	}
	return &id, nil
}

// ParseUUIDList: "a,b,c" → []uuid. Elemen kosong diabaikan.
func ParseUUIDList(c *fiber.Ctx, name string) ([]uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query(name))
	out := make([]uuid.UUID, 0)
	if raw == "" {
		return out, nil
	}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, FieldError(name, "must be a comma separated list of UUIDs")
		}
		out = append(out, id)
	}
	return out, nil
}

// ParseDateQuery: query opsional YYYY-MM-DD.
func ParseDateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, FieldError(name, "must match format YYYY-MM-DD")
	}
	return &t, nil
}

// ParseBody: BodyParser dengan pesan standar.
func ParseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Body tidak valid: "+err.Error())
	}
	return nil
}
