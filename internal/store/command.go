package store

import (
	"fmt"
	"strings"
)

// Values is an ordered column to value set for inserts and updates.
type Values struct {
	cols []string
	vals []any
}

// Set returns a copy of v with column set to value. Setting a column twice
// keeps the position of the first and the latest value.
func (v Values) Set(column string, value any) Values {
	out := Values{cols: append([]string(nil), v.cols...), vals: append([]any(nil), v.vals...)}
	for i, c := range out.cols {
		if c == column {
			out.vals[i] = value
			return out
		}
	}
	out.cols = append(out.cols, column)
	out.vals = append(out.vals, value)
	return out
}

func (v Values) Len() int { return len(v.cols) }

// Command is a write against one table.
type Command interface {
	Op() string
	Table() string
	ToSQL() (string, []any, error)
}

// Insert adds one or many rows. Every row must set the same columns.
type Insert struct {
	Into string
	Rows []Values
}

func (i Insert) Op() string    { return "insert" }
func (i Insert) Table() string { return i.Into }

func (i Insert) ToSQL() (string, []any, error) {
	if len(i.Rows) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no rows", i.Into)
	}
	cols := i.Rows[0].cols
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no columns", i.Into)
	}

	quoted := make([]string, len(cols))
	for k, c := range cols {
		quoted[k] = ident(c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", ident(i.Into), strings.Join(quoted, ", "))

	args := make([]any, 0, len(cols)*len(i.Rows))
	for r, row := range i.Rows {
		if !sameColumns(cols, row.cols) {
			return "", nil, fmt.Errorf("insert into %s: row %d has different columns", i.Into, r)
		}
		if r > 0 {
			sb.WriteString(", ")
		}
		ph := make([]string, len(cols))
		for k := range cols {
			args = append(args, row.vals[k])
			ph[k] = fmt.Sprintf("$%d", len(args))
		}
		sb.WriteString("(" + strings.Join(ph, ", ") + ")")
	}
	sb.WriteString(" RETURNING *")
	return sb.String(), args, nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Update applies a partial field set to the rows matching Where.
type Update struct {
	In    string
	Set   Values
	Where []Filter
}

func (u Update) Op() string    { return "update" }
func (u Update) Table() string { return u.In }

func (u Update) ToSQL() (string, []any, error) {
	if u.Set.Len() == 0 {
		return "", nil, fmt.Errorf("update %s: nothing to set", u.In)
	}
	if len(u.Where) == 0 {
		return "", nil, fmt.Errorf("update %s: refusing to update without a filter", u.In)
	}

	sets := make([]string, u.Set.Len())
	args := make([]any, 0, u.Set.Len()+len(u.Where))
	for i, c := range u.Set.cols {
		args = append(args, u.Set.vals[i])
		sets[i] = fmt.Sprintf("%s = $%d", ident(c), len(args))
	}
	where, wargs := whereClause(u.In, u.Where, len(args)+1)
	args = append(args, wargs...)

	return fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", ident(u.In), strings.Join(sets, ", "), where), args, nil
}

// Delete removes the rows matching Where.
type Delete struct {
	From  string
	Where []Filter
}

func (d Delete) Op() string    { return "delete" }
func (d Delete) Table() string { return d.From }

func (d Delete) ToSQL() (string, []any, error) {
	if len(d.Where) == 0 {
		return "", nil, fmt.Errorf("delete from %s: refusing to delete without a filter", d.From)
	}
	where, args := whereClause(d.From, d.Where, 1)
	return fmt.Sprintf("DELETE FROM %s%s RETURNING *", ident(d.From), where), args, nil
}

// Eq builds a single-element filter list.
func Eq(column string, value any) []Filter {
	return []Filter{{Column: column, Value: value}}
}
