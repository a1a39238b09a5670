package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pidmr/internal/api"
)

var titler = cases.Title(language.English)

// headerLabel turns a field name like "created_by" into "Created By".
func headerLabel(field string) string {
	return titler.String(strings.ReplaceAll(field, "_", " "))
}

// renderTable writes rows under the given headers. On a terminal the table
// gets borders; piped output stays plain and tab-friendly.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	headerRow := make(table.Row, len(headers))
	for i, header := range headers {
		headerRow[i] = headerLabel(header)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tableRow := make(table.Row, len(row))
		for i, cell := range row {
			tableRow[i] = cell
		}
		t.AppendRow(tableRow)
	}

	if file, ok := w.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		t.SetStyle(table.StyleLight)
	} else {
		t.SetStyle(table.Style{
			Name:    "plain",
			Box:     table.StyleBoxDefault,
			Format:  table.FormatOptions{Header: 0},
			Options: table.OptionsNoBordersAndSeparators,
		})
	}
	t.Render()
}

// printJSON emits the payload as indented JSON.
func printJSON(w io.Writer, payload any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func actionIDs(actions []api.ActionPayload) string {
	ids := make([]string, len(actions))
	for i, action := range actions {
		ids[i] = action.ID
	}
	return strings.Join(ids, ",")
}
