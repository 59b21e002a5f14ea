package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/curatai/curatai/internal/catalog/model"
	"github.com/curatai/curatai/internal/catalog/resolver"
	"github.com/curatai/curatai/internal/common/httpclient"
)

type GetTableInfoArgs struct {
	TableName  string `json:"table_name"`
	Key        string `json:"key"`
	DSID       string `json:"ds_id"`
	SchemaName string `json:"schema_name"`
}

func GetTableInfo(ctx context.Context, d *Deps, args GetTableInfoArgs) (string, error) {
	res, err := d.Resolver.ResolveTable(ctx, resolver.TableQuery{
		Name:         args.TableName,
		Key:          args.Key,
		DatasourceID: args.DSID,
		Schema:       args.SchemaName,
	})
	if err != nil {
		return failure("Error retrieving table", err), nil
	}
	if res.Kind != resolver.Resolved {
		return res.Message(), nil
	}
	return RenderTable(res.Table), nil
}

type GetColumnInfoArgs struct {
	TableName  string `json:"table_name"`
	ColumnName string `json:"column_name"`
}

func GetColumnInfo(ctx context.Context, d *Deps, args GetColumnInfoArgs) (string, error) {
	res, err := d.Resolver.ResolveColumn(ctx, resolver.ColumnQuery{
		TableName:  args.TableName,
		ColumnName: args.ColumnName,
	})
	if err != nil {
		return failure("Error retrieving column", err), nil
	}
	if res.Kind != resolver.Resolved {
		return res.Message(), nil
	}
	return RenderColumn(res.Column), nil
}

type GetAllFieldsArgs struct {
	OType string `json:"otype"`
	OID   string `json:"oid"`
}

// wireOType maps the assistant's object type to the catalog's spelling and
// passes unknown types through untouched.
func wireOType(otype string) string {
	if t, err := model.ParseObjectType(otype); err == nil {
		return t.CatalogOType()
	}
	return otype
}

// GetAllFieldsForObject lists the custom field definitions and current
// values for one object, ordered by field id.
func GetAllFieldsForObject(ctx context.Context, d *Deps, args GetAllFieldsArgs) (string, error) {
	if args.OType == "" || args.OID == "" {
		return "Both 'otype' (object type) and 'oid' (object id) must be provided.", nil
	}
	var fields model.FieldSet
	path := fmt.Sprintf(FieldsPath, wireOType(args.OType), args.OID)
	if err := httpclient.GetJSON(ctx, d.Catalog, path, nil, &fields); err != nil {
		if isNotFound(err) {
			return fmt.Sprintf("No custom fields found for %s with id '%s'.", args.OType, args.OID), nil
		}
		return failure("Error retrieving custom fields", err), nil
	}
	if len(fields.AllFields) == 0 {
		return fmt.Sprintf("No custom fields found for %s with id '%s'.", args.OType, args.OID), nil
	}

	all := make([]model.CustomField, 0, len(fields.AllFields))
	for _, f := range fields.AllFields {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FieldID < all[j].FieldID })

	var b strings.Builder
	fmt.Fprintf(&b, "Custom fields for %s (id: %s):\n", args.OType, args.OID)
	for _, f := range all {
		fmt.Fprintf(&b, "- Field ID: %d\n", f.FieldID)
		fmt.Fprintf(&b, "  Field Name: %s\n", f.Name)
		fmt.Fprintf(&b, "  Type: %s\n", f.Type)
		fmt.Fprintf(&b, "  Description: %s\n", f.Description)
		fmt.Fprintf(&b, "  Editable: %t\n", f.Editable)
		fmt.Fprintf(&b, "  Value: %s\n", text(f.Value))
	}
	return b.String(), nil
}
