package main

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/naac-validator/internal/registry"
	"github.com/sells-group/naac-validator/internal/store"
)

func writeGrantTemplate(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sh, err := f.AddSheet("3.1.1")
	require.NoError(t, err)
	for _, vals := range rows {
		r := sh.AddRow()
		for _, v := range vals {
			r.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "grants.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestImportRecords(t *testing.T) {
	t.Parallel()

	header := []string{
		"Sl No", "Criteria Code", "Name of Project", "Name of Principal Investigator",
		"Name of Funding Agency", "Amount Sanctioned", "Year of Award",
	}

	tests := []struct {
		name     string
		rows     [][]string
		wantCode []string
	}{
		{
			name: "blank codes stamped with criterion",
			rows: [][]string{
				header,
				{"1", "", "Solar Cell Efficiency", "Dr. A. Sharma", "DST", "2.5", "2021"},
				{"2", "", "Water Purification", "Dr. B. Rao", "UGC", "1.2", "2022"},
			},
			wantCode: []string{"3.1.1", "3.1.1"},
		},
		{
			name: "existing code kept",
			rows: [][]string{
				header,
				{"1", "3.1.1-A", "Solar Cell Efficiency", "Dr. A. Sharma", "DST", "2.5", "2021"},
			},
			wantCode: []string{"3.1.1-A"},
		},
	}

	def, err := registry.NewDefault().Lookup("3.1.1")
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			st, err := store.NewSQLite(filepath.Join(t.TempDir(), "records.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = st.Close() })
			require.NoError(t, st.Migrate(ctx))

			n, err := importRecords(ctx, st, def, writeGrantTemplate(t, tt.rows), "")
			require.NoError(t, err)
			assert.Equal(t, len(tt.wantCode), n)

			for i, want := range tt.wantCode {
				rec, err := st.GetRecord(ctx, def.Table, strconv.Itoa(i+1))
				require.NoError(t, err)
				code, ok := rec.Get("criteria_code")
				require.True(t, ok)
				assert.Equal(t, want, code.String())
			}
		})
	}
}

func TestImportRecords_MissingFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	def, err := registry.NewDefault().Lookup("3.1.1")
	require.NoError(t, err)
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = importRecords(ctx, st, def, filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.Error(t, err)
}
