package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/focused-api/internal/models"
	appErrors "github.com/noah-isme/focused-api/pkg/errors"
	"github.com/noah-isme/focused-api/pkg/export"
	"github.com/noah-isme/focused-api/pkg/renderer"
)

type stubRemoteRenderer struct {
	calls int
	html  string
	err   error
}

func (r *stubRemoteRenderer) Render(_ context.Context, html string) (*renderer.Document, error) {
	r.calls++
	r.html = html
	if r.err != nil {
		return nil, r.err
	}
	body := "%PDF-1.4 remote"
	return &renderer.Document{Body: io.NopCloser(strings.NewReader(body)), Length: int64(len(body))}, nil
}

func newExportServiceForTest(remote remoteRenderer) (*ExportService, *memoryObservationRepo) {
	repo := newMemoryObservationRepo()
	return NewExportService(repo, ExportConfig{Remote: remote}, NewMetricsService(), nil), repo
}

func seedObservation(t *testing.T, repo *memoryObservationRepo) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), models.NewObservation{
		TeacherID: 1, DepartmentID: 1, FocusAreaID: 2, ClassName: "8D", Strengths: strRef("<b>routines</b>"),
	})
	require.NoError(t, err)
	return id
}

func TestExportServiceLocalPDF(t *testing.T) {
	svc, repo := newExportServiceForTest(nil)
	id := seedObservation(t, repo)
	assert.Equal(t, RenderStrategyLocal, svc.Strategy())

	doc, err := svc.ObservationPDF(context.Background(), id)
	require.NoError(t, err)
	defer doc.Body.Close()

	data, err := io.ReadAll(doc.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Equal(t, int64(len(data)), doc.Length)
	assert.Equal(t, fmt.Sprintf("observation_%d.pdf", id), doc.Filename)
}

func TestExportServiceRemotePDF(t *testing.T) {
	remote := &stubRemoteRenderer{}
	svc, repo := newExportServiceForTest(remote)
	id := seedObservation(t, repo)
	assert.Equal(t, RenderStrategyRemote, svc.Strategy())

	doc, err := svc.ObservationPDF(context.Background(), id)
	require.NoError(t, err)
	defer doc.Body.Close()

	assert.Equal(t, 1, remote.calls)
	assert.Contains(t, remote.html, "FocusEd Lesson Observation")
	assert.Contains(t, remote.html, "Chloe Chen")
	assert.Contains(t, remote.html, "&lt;b&gt;routines&lt;/b&gt;")
	assert.Equal(t, int64(len("%PDF-1.4 remote")), doc.Length)
}

func TestExportServiceMissingObservationSkipsRenderer(t *testing.T) {
	remote := &stubRemoteRenderer{}
	svc, _ := newExportServiceForTest(remote)

	_, err := svc.ObservationPDF(context.Background(), 41)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.Zero(t, remote.calls)
}

func TestExportServiceRendererFailures(t *testing.T) {
	cases := map[string]struct {
		err     error
		message string
	}{
		"unreachable": {err: fmt.Errorf("%w: dial tcp: connection refused", renderer.ErrUnreachable), message: "pdf renderer unreachable"},
		"bad response": {err: fmt.Errorf("%w: status 500", renderer.ErrBadResponse), message: "pdf renderer error"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, repo := newExportServiceForTest(&stubRemoteRenderer{err: tc.err})
			id := seedObservation(t, repo)

			_, err := svc.ObservationPDF(context.Background(), id)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, http.StatusBadGateway, appErr.Status)
			assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestObservationSheetDateIsUTC(t *testing.T) {
	obs := &models.Observation{
		ID:         4,
		ClassName:  "11A",
		ObservedAt: time.Date(2024, 9, 1, 1, 30, 0, 0, time.FixedZone("CEST", 2*60*60)),
	}

	var date string
	for _, f := range ObservationSheet(obs).Fields {
		if f.Label == "Date" {
			date = f.Value
		}
	}
	assert.Equal(t, "2024-08-31 23:30", date)
}

func TestObservationSheetPlaceholders(t *testing.T) {
	obs := &models.Observation{ID: 3, FocusAreaID: 9, ClassName: "7C"}

	sheet := ObservationSheet(obs)
	assert.Equal(t, "FocusEd Lesson Observation", sheet.Title)
	values := map[string]string{}
	for _, f := range sheet.Fields {
		values[f.Label] = f.Value
	}
	assert.Equal(t, export.Placeholder, values["Teacher"])
	assert.Equal(t, "7C", values["Class"])
	assert.Equal(t, "9", values["Focus Area"])
	assert.Equal(t, export.Placeholder, values["Strengths"])
	assert.Equal(t, export.Placeholder, values["Areas for Development"])
	assert.Equal(t, export.Placeholder, values["Other Comments"])
}

func TestExportServiceObservationsCSV(t *testing.T) {
	svc, repo := newExportServiceForTest(nil)
	seedObservation(t, repo)
	_, err := repo.Create(context.Background(), models.NewObservation{TeacherID: 2, DepartmentID: 2, FocusAreaID: 1, ClassName: "11A"})
	require.NoError(t, err)

	data, err := svc.ObservationsCSV(context.Background(), models.ObservationFilter{TeacherID: idRef(2)})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, observationCSVHeaders, records[0])
	assert.Equal(t, "Peter Robinson", records[1][2])
	assert.Equal(t, "11A", records[1][3])
	assert.Equal(t, "French", records[1][4])
	assert.Equal(t, "Feedback", records[1][5])
}
