package db

import (
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// CheckIdent rejects names that are not plain lower-case SQL identifiers.
// Table and column names reach queries from criterion definitions and
// search filters, so only this shape is allowed.
func CheckIdent(name string) error {
	if !identRe.MatchString(name) {
		return eris.Errorf("db: invalid identifier %q", name)
	}
	return nil
}

// Quote returns name as a double-quoted identifier, valid in both
// PostgreSQL and SQLite.
func Quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// QuoteAll quotes each name and joins them with commas.
func QuoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = Quote(n)
	}
	return strings.Join(quoted, ", ")
}
