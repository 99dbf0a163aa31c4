package export

import (
	"bytes"
	"fmt"
	"html/template"
)

// Placeholder is printed for absent values.
const Placeholder = "—"

// Field is one labelled line of a sheet.
type Field struct {
	Label string
	Value string
}

// Sheet is a single-page document made of a title and labelled fields.
type Sheet struct {
	Title  string
	Fields []Field
}

// Valued returns v, or Placeholder when v is empty.
func Valued(v string) string {
	if v == "" {
		return Placeholder
	}
	return v
}

var sheetTemplate = template.Must(template.New("sheet").Parse(`<!DOCTYPE html>
<html>
    <head>
        <meta charset="utf-8">
        <style>
            body { font-family: Arial, sans-serif; }
            .title { font-size: 20px; }
            .content { margin: 20px; }
        </style>
    </head>
    <body>
        <h1 class="title">{{.Title}}</h1>
        <div class="content">
{{- range .Fields}}
            <p><strong>{{.Label}}:</strong> {{.Value}}</p>
{{- end}}
        </div>
    </body>
</html>
`))

// RenderHTML renders the sheet into the fixed HTML template. Values are
// escaped.
func RenderHTML(sheet Sheet) (string, error) {
	var buf bytes.Buffer
	if err := sheetTemplate.Execute(&buf, sheet); err != nil {
		return "", fmt.Errorf("render sheet html: %w", err)
	}
	return buf.String(), nil
}
