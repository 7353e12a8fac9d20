// Package sheet reads institution records from Excel data templates and
// writes validation reports as Excel workbooks.
package sheet

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/naac-validator/internal/model"
)

// ReadOptions selects the sheet holding the template rows.
type ReadOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadRecords loads one record per data row. The first row names the fields;
// headers are lower-cased with spaces and dashes turned into underscores.
// Rows with no non-blank cell are skipped.
func ReadRecords(path string, opts ReadOptions) ([]model.Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "sheet: open file")
	}
	sh, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sh.Rows) == 0 {
		return nil, eris.Errorf("sheet: %q has no header row", sh.Name)
	}

	headers := make([]string, len(sh.Rows[0].Cells))
	for i, c := range sh.Rows[0].Cells {
		headers[i] = FieldName(c.String())
	}

	out := []model.Record{}
	for _, row := range sh.Rows[1:] {
		rec := model.NewRecord()
		blank := true
		for i, h := range headers {
			if h == "" {
				continue
			}
			var v model.Value
			if i < len(row.Cells) {
				v = cellValue(h, row.Cells[i])
			} else {
				v = model.Text("")
			}
			if !v.IsBlank() {
				blank = false
			}
			rec.Set(h, v)
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FieldName normalises a template header into a record field name.
func FieldName(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	return h
}

func cellValue(field string, c *xlsx.Cell) model.Value {
	if c.Type() == xlsx.CellTypeNumeric {
		if f, err := c.Float(); err == nil {
			return model.FromAny(field, f)
		}
	}
	return model.Text(strings.TrimSpace(c.String()))
}

func getSheet(f *xlsx.File, opts ReadOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sh, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("sheet: %q not found", opts.SheetName)
		}
		return sh, nil
	}
	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("sheet: index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}
