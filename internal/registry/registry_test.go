package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	t.Parallel()

	r := NewDefault()
	assert.Equal(t, len(Catalogue()), r.Len())

	d, err := r.Lookup("3.1.1")
	require.NoError(t, err)
	assert.Equal(t, "response_3_1_1", d.Table)
	assert.Len(t, d.CriticalFields, 5)
	assert.Equal(t, RulePositiveNumberCrores, d.Rules["amount_sanctioned"])
}

func TestLookupNotFound(t *testing.T) {
	t.Parallel()

	r := NewDefault()
	_, err := r.Lookup("9.9.9")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrCriterionNotFound))
}

func TestRegisterReplaces(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)

	require.NoError(t, r.Register(Definition{Code: "1.1.1", Name: "first", RequiredFields: []string{"a"}}))
	require.NoError(t, r.Register(Definition{Code: "1.1.1", Name: "second", RequiredFields: []string{"a"}}))

	d, err := r.Lookup("1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "second", d.Name)
	assert.Equal(t, 1, r.Len())
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		def  Definition
		want string
	}{
		{"empty code", Definition{Name: "x"}, "code is required"},
		{"critical not required", Definition{Code: "1.1", RequiredFields: []string{"a"}, CriticalFields: []string{"b"}}, "critical field b is not required"},
		{"bad table", Definition{Code: "1.1", Table: "drop table;"}, "not a valid identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, _ := New()
			err := r.Register(tt.def)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	t.Parallel()

	r := NewDefault()
	d, err := r.Lookup("3.1.1")
	require.NoError(t, err)
	d.RequiredFields[0] = "mutated"
	d.Rules["amount_sanctioned"] = "mutated"

	again, err := r.Lookup("3.1.1")
	require.NoError(t, err)
	assert.Equal(t, "name_of_project", again.RequiredFields[0])
	assert.Equal(t, RulePositiveNumberCrores, again.Rules["amount_sanctioned"])
}

func TestListSorted(t *testing.T) {
	t.Parallel()

	defs := NewDefault().List()
	require.NotEmpty(t, defs)
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Code, defs[i].Code)
	}
}

func TestConcurrentRegisterLookup(t *testing.T) {
	t.Parallel()

	r := NewDefault()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = r.Register(Definition{Code: fmt.Sprintf("9.%d", i), RequiredFields: []string{"a"}, CriticalFields: []string{"a"}})
		}(i)
		go func() {
			defer wg.Done()
			d, err := r.Lookup("3.1.1")
			assert.NoError(t, err)
			assert.Len(t, d.RequiredFields, 5)
		}()
	}
	wg.Wait()
	assert.Equal(t, len(Catalogue())+20, r.Len())
}

func TestInferKind(t *testing.T) {
	t.Parallel()

	tests := map[string]FieldKind{
		"amount_sanctioned":              FieldAmount,
		"student_count":                  FieldAmount,
		"no_of_students":                 FieldAmount,
		"participants":                   FieldAmount,
		"name_of_principal_investigator": FieldName,
		"author_names":                   FieldName,
		"department":                     FieldDepartment,
		"dept_name":                      FieldName,
		"name_of_department":             FieldName,
		"account_name":                   FieldName,
		"account_type":                   FieldClassification,
		"dept_code":                      FieldDepartment,
		"amount_type":                    FieldAmount,
		"agency_type":                    FieldClassification,
		"category":                       FieldClassification,
		"year_of_award":                  FieldYear,
		"duration":                       FieldText,
	}
	for field, want := range tests {
		assert.Equal(t, want, InferKind(field), field)
	}
}

func TestKindOfOverride(t *testing.T) {
	t.Parallel()

	d := Definition{
		Code:       "9.9.9",
		FieldKinds: map[string]FieldKind{"name_of_project": FieldText},
	}
	assert.Equal(t, FieldText, d.KindOf("name_of_project"))
	assert.Equal(t, FieldName, d.KindOf("name_of_principal_investigator"))
}

func TestCatalogueNameFieldsUseNameStrategy(t *testing.T) {
	t.Parallel()

	reg := NewDefault()
	tests := []struct {
		code  string
		field string
	}{
		{"3.1.1", "name_of_project"},
		{"3.1.2", "name_of_project"},
		{"3.1.3", "workshop_name"},
		{"3.2.1", "journal_name"},
		{"3.2.2", "publisher_name"},
		{"3.3.2", "award_name"},
		{"3.3.3", "scheme_name"},
		{"3.4.2", "institution_name"},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.field, func(t *testing.T) {
			t.Parallel()
			d, err := reg.Lookup(tt.code)
			require.NoError(t, err)
			assert.Equal(t, FieldName, d.KindOf(tt.field))
		})
	}
}

func TestRegisterFile(t *testing.T) {
	t.Parallel()

	yml := `
criteria:
  - code: "4.1.1"
    name: Infrastructure
    required_fields: [facility_name, year]
    critical_fields: [facility_name]
    rules:
      year: within_assessment_period
    field_kinds:
      facility_name: text
`
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	r := NewDefault()
	n, err := r.RegisterFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d, err := r.Lookup("4.1.1")
	require.NoError(t, err)
	assert.Equal(t, "response_4_1_1", d.Table)
	assert.Equal(t, RuleWithinAssessmentPeriod, d.Rules["year"])
	assert.Equal(t, FieldText, d.KindOf("facility_name"))
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFile("/nonexistent/criteria.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("criteria: [unclosed"), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
