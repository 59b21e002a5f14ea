package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/curatai/curatai/internal/catalog/model"
	"github.com/curatai/curatai/internal/common/httpclient"
)

// ColumnQuery names a column, optionally scoped to a table. TableName may
// be bare ("orders") or qualified ("sales.orders", "1.sales.orders").
type ColumnQuery struct {
	TableName  string
	ColumnName string
}

// ColumnResult is the structured outcome of ResolveColumn.
type ColumnResult struct {
	Kind       Kind
	Query      ColumnQuery
	Column     *model.Column
	Candidates []Candidate
	// Unscoped counts catalog matches before table scoping was applied.
	Unscoped int
}

func (r *ColumnResult) Reference() model.ObjectReference {
	if r.Column == nil {
		return model.ObjectReference{}
	}
	return r.Column.Reference()
}

func (r *ColumnResult) Message() string {
	q := r.Query
	switch r.Kind {
	case Invalid:
		return "Please provide 'column_name' (and 'table_name' to scope the search)."
	case NotFound:
		if q.TableName != "" && r.Unscoped > 0 {
			return fmt.Sprintf("No column named '%s' found in table '%s'.", q.ColumnName, q.TableName)
		}
		return fmt.Sprintf("No column found with name '%s'.", q.ColumnName)
	case Ambiguous:
		var b strings.Builder
		fmt.Fprintf(&b, "Multiple columns found (%s):\n", pluralize(len(r.Candidates), "match", "matches"))
		for _, c := range r.Candidates {
			fmt.Fprintf(&b, "- id: %d, name: %s, fully qualified name: %s, key: %s\n", c.ID, c.Name, c.QualifiedName, c.Key)
		}
		b.WriteString("Please specify the table name or the fully qualified name to narrow down your search.")
		return b.String()
	default:
		return ""
	}
}

// inTable reports whether the column belongs to tableName, comparing the
// catalog's schema-qualified table_name against a bare or qualified name.
func inTable(c *model.Column, tableName string) bool {
	if c.TableName == "" {
		return false
	}
	return equalFold(c.TableName, tableName) ||
		hasSuffixFold(c.TableName, "."+tableName) ||
		hasSuffixFold(tableName, "."+c.TableName)
}

// ResolveColumn matches the column name case-insensitively and, when a
// table name is given, keeps only columns of that table.
func (r *Resolver) ResolveColumn(ctx context.Context, q ColumnQuery) (*ColumnResult, error) {
	res := &ColumnResult{Query: q}
	if q.ColumnName == "" {
		res.Kind = Invalid
		return res, nil
	}

	var columns []model.Column
	params := listQuery(map[string]string{"name__iexact": q.ColumnName})
	if err := httpclient.GetJSON(ctx, r.req, ColumnPath, params, &columns); err != nil {
		return nil, err
	}

	var matches []*model.Column
	for i := range columns {
		c := &columns[i]
		if !equalFold(c.Name, q.ColumnName) {
			continue
		}
		res.Unscoped++
		if q.TableName != "" && !inTable(c, q.TableName) {
			continue
		}
		matches = append(matches, c)
	}

	switch len(matches) {
	case 0:
		res.Kind = NotFound
	case 1:
		res.Kind = Resolved
		res.Column = matches[0]
	default:
		res.Kind = Ambiguous
		for _, c := range matches {
			res.Candidates = append(res.Candidates, Candidate{
				ID:            c.ID,
				Name:          c.Name,
				Key:           c.Key,
				QualifiedName: c.QualifiedName(),
			})
		}
	}
	return res, nil
}
