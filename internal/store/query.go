package store

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Filter is an equality predicate on one column.
type Filter struct {
	Column string
	Value  any
}

// Join projects columns from a related table, matched by foreign key.
// Each projected column is exposed as "<As>" (or "<table>_<column>" when As
// is empty) so rows still decode into one flat record.
type Join struct {
	Table      string
	LocalKey   string
	ForeignKey string
	Columns    []string
	As         []string
}

// Query is a read against one table with optional related projections.
type Query struct {
	table      string
	columns    []string
	joins      []Join
	where      []Filter
	orderBy    string
	descending bool
	limit      int
}

// From starts a query on table selecting every column.
func From(table string) Query {
	return Query{table: table}
}

func (q Query) Table() string { return q.table }

// Select restricts the projection of the base table.
func (q Query) Select(columns ...string) Query {
	q.columns = append([]string(nil), columns...)
	return q
}

// Join adds a LEFT JOIN on table ON base.localKey = table.foreignKey.
func (q Query) Join(j Join) Query {
	q.joins = append(append([]Join(nil), q.joins...), j)
	return q
}

func (q Query) Eq(column string, value any) Query {
	q.where = append(append([]Filter(nil), q.where...), Filter{Column: column, Value: value})
	return q
}

func (q Query) Order(column string, descending bool) Query {
	q.orderBy = column
	q.descending = descending
	return q
}

func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

// ToSQL renders the query with positional arguments.
func (q Query) ToSQL() (string, []any, error) {
	if q.table == "" {
		return "", nil, fmt.Errorf("query has no table")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")

	base := ident(q.table)
	if len(q.columns) == 0 {
		sb.WriteString(base + ".*")
	} else {
		cols := make([]string, len(q.columns))
		for i, c := range q.columns {
			cols[i] = base + "." + ident(c)
		}
		sb.WriteString(strings.Join(cols, ", "))
	}

	for _, j := range q.joins {
		if len(j.As) != 0 && len(j.As) != len(j.Columns) {
			return "", nil, fmt.Errorf("join %s: %d aliases for %d columns", j.Table, len(j.As), len(j.Columns))
		}
		for i, c := range j.Columns {
			alias := j.Table + "_" + c
			if len(j.As) > 0 {
				alias = j.As[i]
			}
			fmt.Fprintf(&sb, ", %s.%s AS %s", ident(j.Table), ident(c), ident(alias))
		}
	}

	sb.WriteString(" FROM " + base)
	for _, j := range q.joins {
		fmt.Fprintf(&sb, " LEFT JOIN %s ON %s.%s = %s.%s",
			ident(j.Table), base, ident(j.LocalKey), ident(j.Table), ident(j.ForeignKey))
	}

	where, args := whereClause(q.table, q.where, 1)
	sb.WriteString(where)

	if q.orderBy != "" {
		sb.WriteString(" ORDER BY " + qualified(q.table, q.orderBy))
		if q.descending {
			sb.WriteString(" DESC")
		}
	}
	if q.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.limit)
	}
	return sb.String(), args, nil
}

// CountSQL renders SELECT count(*) with the query's filters. Projection,
// joins, ordering and limit are ignored.
func (q Query) CountSQL() (string, []any, error) {
	if q.table == "" {
		return "", nil, fmt.Errorf("query has no table")
	}
	where, args := whereClause(q.table, q.where, 1)
	return "SELECT count(*) FROM " + ident(q.table) + where, args, nil
}

func whereClause(table string, filters []Filter, start int) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	parts := make([]string, len(filters))
	args := make([]any, len(filters))
	for i, f := range filters {
		parts[i] = fmt.Sprintf("%s = $%d", qualified(table, f.Column), start+i)
		args[i] = f.Value
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// ident quotes a possibly dotted identifier.
func ident(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// qualified prefixes bare column names with the table.
func qualified(table, column string) string {
	if strings.Contains(column, ".") {
		return ident(column)
	}
	return ident(table) + "." + ident(column)
}
