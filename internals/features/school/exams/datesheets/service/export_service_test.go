package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helperOSS "schoolku_backend/internals/helpers/oss"
)

func TestExportDocSkipsClearedEntries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)

	_, err := e.svc.ClearEntry(ctx, e.sc, ds.Entries[0].DatesheetEntryID)
	require.NoError(t, err)

	doc, err := e.svc.ExportDoc(ctx, e.sc, ds.Datesheet.DatesheetID)
	require.NoError(t, err)
	assert.Equal(t, "Mid Term", doc.Title)
	require.Len(t, doc.Rows, 2)
	for _, r := range doc.Rows {
		assert.Equal(t, "Class 5", r.ClassName)
		assert.Equal(t, "Main Hall", r.Room)
		assert.NotEmpty(t, r.SubjectName)
	}
}

func TestExportFiles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)

	pdf, err := e.svc.ExportPDF(ctx, e.sc, ds.Datesheet.DatesheetID)
	require.NoError(t, err)
	assert.Equal(t, "mid-term-2024.pdf", pdf.Name)
	assert.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF")))

	xlsx, err := e.svc.ExportXLSX(ctx, e.sc, ds.Datesheet.DatesheetID)
	require.NoError(t, err)
	assert.Equal(t, "mid-term-2024.xlsx", xlsx.Name)
	assert.NotEmpty(t, xlsx.Body)
}

func TestPublish(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ds := e.midTerm(t)

	_, err := e.svc.Publish(ctx, e.sc, ds.Datesheet.DatesheetID)
	var fe *fiber.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusServiceUnavailable, fe.Code)

	pub := helperOSS.NewMemoryPublisher()
	e.svc.Publisher = pub
	out, err := e.svc.Publish(ctx, e.sc, ds.Datesheet.DatesheetID)
	require.NoError(t, err)
	assert.Equal(t, "memory://"+out.Key, out.URL)
	assert.Contains(t, out.Key, e.sc.SchoolID.String()+"/datesheets/")
	assert.Len(t, pub.Objects[out.Key], out.Size)
}
