package db

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
)

// Dialect builds PostgreSQL statements with $n placeholders for pgx.
var Dialect = goqu.Dialect("postgres")

// From starts a prepared select against table.
func From(table ...any) *goqu.SelectDataset {
	return Dialect.From(table...).Prepared(true)
}

// SQLer is implemented by every goqu dataset.
type SQLer interface {
	ToSQL() (string, []any, error)
}

// Build renders ds, wrapping builder errors with the statement name.
func Build(name string, ds SQLer) (string, []any, error) {
	sql, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build %s query: %w", name, err)
	}
	return sql, args, nil
}

// ContainsFold matches col case-insensitively against a substring.
func ContainsFold(col string, needle string) exp.BooleanExpression {
	return goqu.I(col).ILike("%" + needle + "%")
}
