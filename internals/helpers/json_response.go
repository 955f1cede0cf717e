package helper

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

/* ===============================
   Pagination type & defaults
=================================*/

type Pagination struct {
	Page           int   `json:"page"`
	PerPage        int   `json:"per_page"`
	Total          int64 `json:"total"`
	TotalPages     int   `json:"total_pages"`
	HasNext        bool  `json:"has_next"`
	HasPrev        bool  `json:"has_prev"`
	Count          int   `json:"count"`
	PerPageOptions []int `json:"per_page_options,omitempty"`
}

var defaultPerPageOptions = []int{10, 20, 30, 50, 100}

type Paging struct {
	Page    int
	PerPage int
	Offset  int
	Limit   int
}

// ResolvePaging membaca ?page= & ?per_page= (alias ?limit=) lalu normalisasi.
// maxPerPage 0 = tanpa batas.
func ResolvePaging(c *fiber.Ctx, defaultPerPage, maxPerPage int) Paging {
	page, _ := strconv.Atoi(strings.TrimSpace(c.Query("page", "1")))
	if page < 1 {
		page = 1
	}

	perPageStr := strings.TrimSpace(c.Query("per_page"))
	if perPageStr == "" {
		perPageStr = strings.TrimSpace(c.Query("limit", strconv.Itoa(defaultPerPage)))
	}
	perPage, _ := strconv.Atoi(perPageStr)
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}

	return Paging{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
		Limit:   perPage,
	}
}

func BuildPagination(total int64, p Paging, count int) Pagination {
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage)) // ceil
	if totalPages == 0 {
		totalPages = 1
	}
	return Pagination{
		Page:           page,
		PerPage:        perPage,
		Total:          total,
		TotalPages:     totalPages,
		HasNext:        page < totalPages,
		HasPrev:        page > 1,
		Count:          count,
		PerPageOptions: append([]int(nil), defaultPerPageOptions...),
	}
}

/* ===============================
   Error helpers (standard shape)
=================================*/

type ErrorResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
	Data      any                 `json:"data,omitempty"`
}

func statusToErrorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	case fiber.StatusServiceUnavailable:
		return "UNAVAILABLE"
	default:
		if status >= 500 {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}

// JsonError: error generic (bukan validasi)
func JsonError(c *fiber.Ctx, status int, message string) error {
	return JsonErrorWithData(c, status, message, nil)
}

// JsonErrorWithData: error + payload (mis. snapshot grid setelah rollback)
func JsonErrorWithData(c *fiber.Ctx, status int, message string, data any) error {
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	if strings.TrimSpace(message) == "" {
		message = utilsStatusMessage(status)
	}
	return c.Status(status).JSON(ErrorResponse{
		Success:   false,
		Message:   message,
		ErrorCode: statusToErrorCode(status),
		Data:      data,
	})
}

// JsonValidationError: khusus error validasi (422)
func JsonValidationError(c *fiber.Ctx, fieldErrors map[string][]string) error {
	if fieldErrors == nil {
		fieldErrors = map[string][]string{}
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
		Success:   false,
		Message:   "validation failed",
		ErrorCode: "VALIDATION_ERROR",
		Errors:    fieldErrors,
	})
}

func utilsStatusMessage(status int) string {
	if e := fiber.NewError(status); e.Message != "" {
		return e.Message
	}
	return "error"
}

/* ===============================
   JSON responses (standard success)
=================================*/

func JsonList(c *fiber.Ctx, message string, data any, pagination *Pagination) error {
	if strings.TrimSpace(message) == "" {
		message = "ok"
	}
	body := fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	}
	if pagination != nil {
		body["pagination"] = pagination
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

func JsonOK(c *fiber.Ctx, message string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = "ok"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// JsonWarning: kondisi kosong / not-found yang bukan error (soft warning)
func JsonWarning(c *fiber.Ctx, warning string, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "ok",
		"warning": warning,
		"data":    data,
	})
}

func JsonCreated(c *fiber.Ctx, message string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = "created"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JsonUpdated(c *fiber.Ctx, message string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = "updated"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JsonDeleted(c *fiber.Ctx, message string, data any) error {
	if strings.TrimSpace(message) == "" {
		message = "deleted"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}
