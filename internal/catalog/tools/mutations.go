package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/catalog/model"
	"github.com/curatai/curatai/internal/catalog/propagation"
	"github.com/curatai/curatai/internal/catalog/resolver"
	"github.com/curatai/curatai/internal/common/httpclient"
)

type UpdateCustomFieldArgs struct {
	OType     string `json:"otype"`
	ObjectID  string `json:"object_id"`
	FieldID   int64  `json:"field_id"`
	Value     any    `json:"value"`
	Operation string `json:"operation"`
}

// scalarize submits a one-element list as its only element.
func scalarize(v any) any {
	if l, ok := v.([]any); ok && len(l) == 1 {
		return l[0]
	}
	return v
}

// UpdateCustomField commits a value to one custom field of one object. An
// unknown operation is rejected before anything is sent.
func UpdateCustomField(ctx context.Context, d *Deps, args UpdateCustomFieldArgs) (string, error) {
	op, err := propagation.ParseOperation(args.Operation)
	if err != nil {
		return fmt.Sprintf("Invalid operation '%s'. Must be one of: replace, add, remove.", args.Operation), nil
	}
	if args.OType == "" || args.ObjectID == "" || args.FieldID == 0 {
		return "Please provide 'otype', 'object_id' and 'field_id'.", nil
	}

	payload := map[string]any{
		"op":    string(op),
		"value": scalarize(args.Value),
	}
	path := fmt.Sprintf(CommitPath, wireOType(args.OType), args.ObjectID, args.FieldID)
	if _, err := httpclient.PostJSON(ctx, d.Catalog, path, payload); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("custom field commit failed")
		return failure("Error updating custom field", err), nil
	}
	return fmt.Sprintf("Custom field '%d' updated on %s '%s' with operation '%s'.",
		args.FieldID, args.OType, args.ObjectID, op), nil
}

// UpdateObjectArgs serves both the title and the description update.
type UpdateObjectArgs struct {
	OType      string `json:"otype"`
	ObjectName string `json:"object_name"`
	Key        string `json:"key"`
	Value      string `json:"value"`
}

func UpdateTitle(ctx context.Context, d *Deps, args UpdateObjectArgs) (string, error) {
	return updateAttribute(ctx, d, args, "title", "Title")
}

func UpdateDescription(ctx context.Context, d *Deps, args UpdateObjectArgs) (string, error) {
	return updateAttribute(ctx, d, args, "description", "Description")
}

// updateAttribute posts {key, <attr>: value} to the table or column
// endpoint. Without a key the object is resolved by name first, and any
// outcome other than a single match is relayed as is.
func updateAttribute(ctx context.Context, d *Deps, args UpdateObjectArgs, attr, label string) (string, error) {
	otype, err := model.ParseObjectType(args.OType)
	if err != nil || (otype != model.ObjectTypeTable && otype != model.ObjectTypeColumn) {
		return fmt.Sprintf("Updating the %s of '%s' objects is not supported. Use 'table' or 'column'.", attr, args.OType), nil
	}

	ref := model.ObjectReference{Type: otype, Key: args.Key, Name: args.ObjectName}
	if ref.Key == "" {
		if args.ObjectName == "" {
			return fmt.Sprintf("Please provide a %s name or key", otype), nil
		}
		var msg string
		ref, msg, err = resolveForUpdate(ctx, d, otype, args.ObjectName)
		if err != nil {
			return failure("Error updating "+attr, err), nil
		}
		if msg != "" {
			return msg, nil
		}
	}

	path := resolver.TablePath
	if otype == model.ObjectTypeColumn {
		path = resolver.ColumnPath
	}
	payload := map[string]any{"key": ref.Key, attr: args.Value}
	if _, err := httpclient.PostJSON(ctx, d.Catalog, path, payload); err != nil {
		return failure("Error updating "+attr, err), nil
	}

	name := args.ObjectName
	if name == "" {
		name = ref.Key
	}
	return fmt.Sprintf("%s is successfully updated for %s '%s'", label, otype, name), nil
}

// resolveForUpdate returns either a resolved reference or the resolver's
// message for the human. A dotted column name is split into table and
// column.
func resolveForUpdate(ctx context.Context, d *Deps, otype model.ObjectType, name string) (model.ObjectReference, string, error) {
	if otype == model.ObjectTypeTable {
		res, err := d.Resolver.ResolveTable(ctx, resolver.TableQuery{Name: name})
		if err != nil {
			return model.ObjectReference{}, "", err
		}
		if res.Kind != resolver.Resolved {
			return model.ObjectReference{}, res.Message(), nil
		}
		return res.Reference(), "", nil
	}
	q := resolver.ColumnQuery{ColumnName: name}
	if i := strings.LastIndex(name, "."); i > 0 && i < len(name)-1 {
		q = resolver.ColumnQuery{TableName: name[:i], ColumnName: name[i+1:]}
	}
	res, err := d.Resolver.ResolveColumn(ctx, q)
	if err != nil {
		return model.ObjectReference{}, "", err
	}
	if res.Kind != resolver.Resolved {
		return model.ObjectReference{}, res.Message(), nil
	}
	return res.Reference(), "", nil
}
