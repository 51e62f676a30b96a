package db

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicemr/api/internal/platform/apierror"
)

// FilterType says how a query-string filter is parsed and compared.
type FilterType int

const (
	FilterEqual    FilterType = iota // exact string match
	FilterUUID                       // exact match on a uuid column
	FilterBool                       // true/false/1/0
	FilterDateFrom                   // column >= date
	FilterDateTo                     // column < date + 1 day
)

// Filter maps a query parameter to its column.
type Filter struct {
	Type   FilterType
	Column string
}

// Query builds a filtered, paginated SELECT against one table. Clauses use
// "?" placeholders which are numbered in order of addition.
type Query struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	orderBy string
}

func NewQuery(table, cols string) *Query {
	return &Query{table: table, cols: cols}
}

// Where appends clause (without a leading AND).
func (q *Query) Where(clause string, args ...interface{}) *Query {
	var b strings.Builder
	n := len(q.args)
	for i := 0; i < len(clause); i++ {
		if clause[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(clause[i])
	}
	q.where += " AND " + b.String()
	q.args = append(q.args, args...)
	return q
}

// Search adds a case-insensitive substring match over cols. Empty terms are
// ignored.
func (q *Query) Search(term string, cols ...string) *Query {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return q
	}
	n := len(q.args) + 1
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, n)
	}
	q.where += " AND (" + strings.Join(parts, " OR ") + ")"
	q.args = append(q.args, "%"+escapeLike(term)+"%")
	return q
}

// Filter applies every configured filter present in values. Malformed
// values are reported as validation errors on the parameter name.
func (q *Query) Filter(values url.Values, filters map[string]Filter) error {
	fields := map[string][]string{}
	for name, f := range filters {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		switch f.Type {
		case FilterEqual:
			q.Where(f.Column+" = ?", raw)
		case FilterUUID:
			id, err := uuid.Parse(raw)
			if err != nil {
				fields[name] = append(fields[name], fmt.Sprintf("The %s must be a valid UUID.", label(name)))
				continue
			}
			q.Where(f.Column+" = ?", id)
		case FilterBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				fields[name] = append(fields[name], fmt.Sprintf("The %s field must be true or false.", label(name)))
				continue
			}
			q.Where(f.Column+" = ?", b)
		case FilterDateFrom, FilterDateTo:
			d, err := time.Parse("2006-01-02", raw)
			if err != nil {
				fields[name] = append(fields[name], fmt.Sprintf("The %s does not match the format 2006-01-02.", label(name)))
				continue
			}
			if f.Type == FilterDateFrom {
				q.Where(f.Column+" >= ?", d)
			} else {
				q.Where(f.Column+" < ?", d.AddDate(0, 0, 1))
			}
		}
	}
	if len(fields) > 0 {
		return apierror.Validation(fields)
	}
	return nil
}

// OrderBy sets the ORDER BY expression. It must never contain client input;
// see pagination.Params.OrderBy.
func (q *Query) OrderBy(expr string) *Query {
	q.orderBy = expr
	return q
}

func (q *Query) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.table, q.where)
}

func (q *Query) CountArgs() []interface{} {
	return q.args
}

func (q *Query) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	n := len(q.args)
	return sql + fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
}

func (q *Query) DataArgs(limit, offset int) []interface{} {
	out := make([]interface{}, len(q.args), len(q.args)+2)
	copy(out, q.args)
	return append(out, limit, offset)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func label(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}
