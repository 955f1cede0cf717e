package helper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Mid Term 2024", 0, "mid-term-2024"},
		{"  Ujian Akhir   Semester!! ", 0, "ujian-akhir-semester"},
		{"Examen Café", 0, "examen-cafe"},
		{"###", 0, "item"},
		{"abcdef-ghij", 7, "abcdef"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in, tt.max))
		})
	}
	assert.Equal(t, "MID-TERM", CodeFrom("Mid  Term", 0))
	assert.Equal(t, "mid-term.pdf", SafeFilename("Mid Term", ".pdf"))
}

func TestValidationErrorOrNil(t *testing.T) {
	var ve *ValidationError
	assert.NoError(t, ve.OrNil())
	assert.NoError(t, NewValidationError().OrNil())

	err := FieldError("title", "is required").Add("title", "too short").OrNil()
	require.Error(t, err)
	assert.Equal(t, "validation failed: title: is required, too short", err.Error())
}

type sampleReq struct {
	Title   string   `json:"title" validate:"required"`
	ClassID string   `json:"class_id" validate:"required,uuid"`
	Items   []string `json:"items" validate:"min=1"`
}

func TestFromValidatorUsesJSONNames(t *testing.T) {
	v := NewValidator()
	err := FromValidator(v.Struct(sampleReq{ClassID: "nope"}))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"is required"}, ve.Fields["title"])
	assert.Equal(t, []string{"must be a valid UUID"}, ve.Fields["class_id"])
	assert.Contains(t, ve.Fields, "items")
}

func TestMapPGError(t *testing.T) {
	code, _ := MapPGError(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"}))
	assert.Equal(t, http.StatusConflict, code)

	code, _ = MapPGError(&pgconn.PgError{Code: "23503"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = MapPGError(errors.New("network down"))
	assert.Equal(t, http.StatusInternalServerError, code)
}

type conflictErr struct{}

func (conflictErr) Error() string   { return "slot occupied" }
func (conflictErr) StatusCode() int { return fiber.StatusConflict }
func (conflictErr) ErrorData() any  { return fiber.Map{"occupant": "x"} }

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", FieldError("title", "is required"), 422, "VALIDATION_ERROR"},
		{"fiber", fiber.NewError(fiber.StatusForbidden, "nope"), 403, "FORBIDDEN"},
		{"not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), 404, "NOT_FOUND"},
		{"data error", conflictErr{}, 409, "CONFLICT"},
		{"pg unique", &pgconn.PgError{Code: "23505"}, 409, "CONFLICT"},
		{"unknown", errors.New("boom"), 500, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return WriteError(c, tc.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var out ErrorResponse
			require.NoError(t, json.Unmarshal(body, &out))
			assert.False(t, out.Success)
			assert.Equal(t, tc.code, out.ErrorCode)
		})
	}
}

func TestResolvePagingAndBuild(t *testing.T) {
	app := fiber.New()
	var got Paging
	app.Get("/", func(c *fiber.Ctx) error {
		got = ResolvePaging(c, 20, 50)
		return c.SendStatus(fiber.StatusNoContent)
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/?page=3&per_page=500", nil))
	require.NoError(t, err)
	assert.Equal(t, Paging{Page: 3, PerPage: 50, Offset: 100, Limit: 50}, got)

	p := BuildPagination(101, got, 1)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrev)
}
