package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSheet() Sheet {
	return Sheet{
		Title: "FocusEd Lesson Observation",
		Fields: []Field{
			{Label: "Teacher", Value: "Chloe Chen"},
			{Label: "Class", Value: "10B"},
			{Label: "Strengths", Value: ""},
		},
	}
}

func TestPDFExporterRender(t *testing.T) {
	data, err := NewPDFExporter().Render(sampleSheet())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestPDFExporterRequiresFields(t *testing.T) {
	_, err := NewPDFExporter().Render(Sheet{Title: "empty"})
	assert.Error(t, err)
}

func TestRenderHTMLEscapesAndDefaults(t *testing.T) {
	sheet := sampleSheet()
	sheet.Fields[2].Value = Valued(sheet.Fields[2].Value)
	sheet.Fields = append(sheet.Fields, Field{Label: "Other Comments", Value: "<script>x</script>"})

	html, err := RenderHTML(sheet)
	require.NoError(t, err)
	assert.Contains(t, html, `<h1 class="title">FocusEd Lesson Observation</h1>`)
	assert.Contains(t, html, "<p><strong>Teacher:</strong> Chloe Chen</p>")
	assert.Contains(t, html, "<p><strong>Strengths:</strong> —</p>")
	assert.NotContains(t, html, "<script>")
}

func TestCSVExporterRender(t *testing.T) {
	data, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"ID", "Class"},
		Rows: []map[string]string{
			{"ID": "2", "Class": "10B"},
			{"ID": "1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ID,Class\n2,10B\n1,\n", string(data))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}
