package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/curatai/curatai/internal/catalog/model"
	"github.com/curatai/curatai/internal/common/httpclient"
)

// TableQuery carries whatever the caller knows about a table.
type TableQuery struct {
	Name         string
	Key          string
	DatasourceID string
	Schema       string
}

// Level picks the most specific identifier present: the full
// (datasource, schema, name) triple, then key, then bare name.
func (q TableQuery) Level() Level {
	switch {
	case q.DatasourceID != "" && q.Schema != "" && q.Name != "":
		return LevelTriple
	case q.Key != "":
		return LevelKey
	case q.Name != "":
		return LevelName
	default:
		return LevelNone
	}
}

func (q TableQuery) params() map[string]string {
	switch q.Level() {
	case LevelTriple:
		return listQuery(map[string]string{
			"ds_id":               q.DatasourceID,
			"schema_name__iexact": q.Schema,
			"name__iexact":        q.Name,
		})
	case LevelKey:
		return listQuery(map[string]string{"key": q.Key})
	default:
		return listQuery(map[string]string{"name__iexact": q.Name})
	}
}

// TableResult is the structured outcome of ResolveTable.
type TableResult struct {
	Kind       Kind
	Level      Level
	Query      TableQuery
	Table      *model.Table
	Candidates []Candidate
}

// Reference is only meaningful when Kind is Resolved.
func (r *TableResult) Reference() model.ObjectReference {
	if r.Table == nil {
		return model.ObjectReference{}
	}
	return r.Table.Reference()
}

// Message renders the non-resolved outcomes as text for the assistant.
func (r *TableResult) Message() string {
	q := r.Query
	switch r.Kind {
	case Invalid:
		return "Please provide either 'table_name', 'key', or ('ds_id', 'schema_name', and 'table_name')."
	case NotFound:
		switch r.Level {
		case LevelTriple:
			return fmt.Sprintf("No table found with ds_id '%s', schema '%s', and name '%s'.", q.DatasourceID, q.Schema, q.Name)
		case LevelKey:
			return fmt.Sprintf("No table found with key '%s'.", q.Key)
		default:
			return fmt.Sprintf("No table found with name '%s'.", q.Name)
		}
	case Ambiguous:
		var b strings.Builder
		fmt.Fprintf(&b, "Multiple tables found (%s):\n", pluralize(len(r.Candidates), "match", "matches"))
		for _, c := range r.Candidates {
			fmt.Fprintf(&b, "- id: %d, name: %s, fully qualified name: %s, key: %s\n", c.ID, c.Name, c.QualifiedName, c.Key)
		}
		b.WriteString("Please specify the fully qualified name, use the 'key' parameter, or provide ds_id, schema_name, and table_name to narrow down your search.")
		return b.String()
	default:
		return ""
	}
}

// ResolveTable looks a table up at the most specific level the query allows.
// A returned error means the catalog could not be queried.
func (r *Resolver) ResolveTable(ctx context.Context, q TableQuery) (*TableResult, error) {
	res := &TableResult{Query: q, Level: q.Level()}
	if res.Level == LevelNone {
		res.Kind = Invalid
		return res, nil
	}

	var tables []model.Table
	if err := httpclient.GetJSON(ctx, r.req, TablePath, q.params(), &tables); err != nil {
		return nil, err
	}
	if res.Level == LevelName {
		tables = matchingName(tables, q.Name)
	}

	switch {
	case len(tables) == 0:
		res.Kind = NotFound
	case len(tables) == 1 || res.Level != LevelName:
		// key and the full triple are authoritative even if the catalog
		// returns more than one row
		res.Kind = Resolved
		res.Table = &tables[0]
	default:
		res.Kind = Ambiguous
		for i := range tables {
			t := &tables[i]
			res.Candidates = append(res.Candidates, Candidate{
				ID:            t.ID,
				Name:          t.Name,
				Key:           t.Key,
				QualifiedName: t.QualifiedName(),
			})
		}
	}
	return res, nil
}

// matchingName keeps the rows whose name folds to the queried name.
func matchingName(tables []model.Table, name string) []model.Table {
	kept := tables[:0]
	for _, t := range tables {
		if equalFold(t.Name, name) {
			kept = append(kept, t)
		}
	}
	return kept
}
