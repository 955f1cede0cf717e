package route

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	acm "schoolku_backend/internals/features/school/academics/model"
	m "schoolku_backend/internals/features/school/exams/model"
	"schoolku_backend/internals/features/school/exams/repository"
	helperAuth "schoolku_backend/internals/helpers/auth"
	"schoolku_backend/internals/helpers/dbtime"
)

type fixture struct {
	app     *fiber.App
	repo    *repository.MemoryRepository
	school  uuid.UUID
	class5  acm.ClassModel
	ds      m.DatesheetModel
	student acm.StudentModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{repo: repository.NewMemory(), school: uuid.New()}
	f.class5 = f.repo.AddClass(acm.ClassModel{ClassSchoolID: f.school, ClassName: "Class 5"})
	math := f.repo.AddSubject(acm.SubjectModel{SubjectSchoolID: f.school, SubjectName: "Math"})
	cid := f.class5.ClassID
	f.student = f.repo.AddStudent(acm.StudentModel{
		StudentSchoolID: f.school, StudentFullName: "Ali", StudentAdmissionNumber: "A001",
		StudentClassID: &cid, StudentIsActive: true,
	})
	f.repo.AddStudent(acm.StudentModel{
		StudentSchoolID: f.school, StudentFullName: "Citra", StudentAdmissionNumber: "A002",
		StudentClassID: &cid, StudentIsActive: true,
	})

	f.ds = m.DatesheetModel{
		DatesheetSchoolID:  f.school,
		DatesheetSession:   "2024",
		DatesheetTitle:     "Mid Term",
		DatesheetStartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	f.ds.SetClassIDs([]uuid.UUID{cid})
	require.NoError(t, f.repo.CreateDatesheet(ctx, &f.ds))
	sid := math.SubjectID
	require.NoError(t, f.repo.CreateEntries(ctx, []m.DatesheetEntryModel{{
		DatesheetEntrySchoolID:    f.school,
		DatesheetEntryDatesheetID: f.ds.DatesheetID,
		DatesheetEntryClassID:     cid,
		DatesheetEntrySubjectID:   &sid,
		DatesheetEntryExamDate:    f.ds.DatesheetStartDate,
		DatesheetEntryStartTime:   dbtime.MustTod("09:00"),
		DatesheetEntryEndTime:     dbtime.MustTod("11:00"),
	}}))

	f.app = fiber.New()
	scope := func(c *fiber.Ctx) error {
		c.Locals(helperAuth.LocActiveSchoolID, f.school.String())
		if sid := c.Get("X-Student"); sid != "" {
			c.Locals(helperAuth.LocStudentID, sid)
		}
		return c.Next()
	}
	ExamSlipAdminRoutes(f.app.Group("/api/a", scope), f.repo)
	ExamSlipUserRoutes(f.app.Group("/api/u", scope), f.repo)
	return f
}

type envelope struct {
	Success bool            `json:"success"`
	Warning string          `json:"warning"`
	Data    json.RawMessage `json:"data"`
}

func (f *fixture) do(t *testing.T, method, path string, body any, hdr ...string) (*http.Response, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp, env
}

func TestSingleThenReuse(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"datesheet_id": f.ds.DatesheetID, "student_id": f.student.StudentID, "slip_type": "admit_card"}

	resp, _ := f.do(t, http.MethodPost, "/api/a/exam-slips", body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := f.do(t, http.MethodPost, "/api/a/exam-slips", body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var res struct {
		Created bool `json:"created"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Created)
}

func TestBulkCounts(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"datesheet_id": f.ds.DatesheetID, "class_id": f.class5.ClassID, "slip_type": "roll_no_slip"}

	_, env := f.do(t, http.MethodPost, "/api/a/exam-slips/bulk", body)
	var res struct {
		Created int `json:"created"`
		Skipped int `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 2, res.Created)

	_, env = f.do(t, http.MethodPost, "/api/a/exam-slips/bulk", body)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Skipped)

	resp, _ := f.do(t, http.MethodGet, "/api/a/exam-slips/print?datesheet_id="+f.ds.DatesheetID.String()+
		"&class_id="+f.class5.ClassID.String()+"&slip_type=roll_no_slip", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	resp, _ = f.do(t, http.MethodGet, "/api/a/exam-slips/print", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMineSoftWarning(t *testing.T) {
	f := newFixture(t)
	path := "/api/u/exam-slips/mine?datesheet_id=" + f.ds.DatesheetID.String()

	resp, _ := f.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "token bukan milik siswa")

	resp, env := f.do(t, http.MethodGet, path, nil, "X-Student", f.student.StudentID.String())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, env.Warning)

	f.do(t, http.MethodPost, "/api/a/exam-slips", map[string]any{
		"datesheet_id": f.ds.DatesheetID, "student_id": f.student.StudentID, "slip_type": "admit_card",
	})
	resp, env = f.do(t, http.MethodGet, path, nil, "X-Student", f.student.StudentID.String())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, env.Warning)
	var v struct {
		Schedule []map[string]any `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Len(t, v.Schedule, 1)
}
