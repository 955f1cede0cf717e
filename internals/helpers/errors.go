package helper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

/* ===============================
   Validation error (field → messages)
=================================*/

type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// FieldError shortcut satu field.
func FieldError(field, msg string) *ValidationError {
	return NewValidationError().Add(field, msg)
}

func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// OrNil: nil kalau tidak ada field error (hindari typed-nil di interface error).
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if e.Empty() {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

/* ===============================
   validator/v10
=================================*/

// NewValidator: validator yang melaporkan nama field sesuai tag json.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// FromValidator mengubah validator.ValidationErrors → *ValidationError.
func FromValidator(err error) error {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	out := NewValidationError()
	for _, fe := range ves {
		out.Add(fieldPath(fe), tagMessage(fe))
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		return fmt.Sprintf("must have at least %s item(s)/character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s item(s)/character(s)", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "datetime":
		return "must match format " + fe.Param()
	case "dive":
		return "is invalid"
	default:
		return "failed on " + fe.Tag()
	}
}

/* ===============================
   PG error mapping
=================================*/

type pgSQLErr interface {
	SQLState() string
	Error() string
}

// MapPGError
// 23P01 = exclusion_violation
// 23503 = foreign_key_violation
// 23505 = unique_violation
// 23514 = check_violation
func MapPGError(err error) (int, string) {
	var pgErr *pgconn.PgError
	code := ""
	if errors.As(err, &pgErr) {
		code = pgErr.Code
	} else {
		var st pgSQLErr
		if errors.As(err, &st) {
			code = st.SQLState()
		}
	}
	switch code {
	case "23P01":
		return http.StatusConflict, "Bentrok jadwal (exclusion violation)."
	case "23503":
		return http.StatusBadRequest, "Referensi tidak ditemukan (FK violation)."
	case "23505":
		return http.StatusConflict, "Data duplikat (unique violation)."
	case "23514":
		return http.StatusBadRequest, "Data tidak valid (check violation)."
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return http.StatusConflict, "Data duplikat (unique violation)."
	}
	return http.StatusInternalServerError, "Terjadi kesalahan pada server."
}

/* ===============================
   Single error writer
=================================*/

// DataError: error yang membawa payload (status + data) ke response.
type DataError interface {
	error
	StatusCode() int
	ErrorData() any
}

func WriteError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return JsonValidationError(c, ve.Fields)
	}

	var de DataError
	if errors.As(err, &de) {
		return JsonErrorWithData(c, de.StatusCode(), de.Error(), de.ErrorData())
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return JsonError(c, fiber.StatusNotFound, "Data tidak ditemukan")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return JsonError(c, fiber.StatusGatewayTimeout, "Request timeout")
	}

	code, msg := MapPGError(err)
	if code >= 500 {
		log.Printf("[ERROR] %s %s: %v", c.Method(), c.OriginalURL(), err)
	}
	return JsonError(c, code, msg)
}
