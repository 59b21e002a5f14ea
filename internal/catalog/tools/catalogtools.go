package tools

import (
	"context"

	"github.com/mitchellh/mapstructure"

	"github.com/curatai/curatai/internal/toolregistry"
)

// Func is the shape shared by every catalog operation.
type Func[A any] func(ctx context.Context, d *Deps, args A) (string, error)

type tool[A any] struct {
	spec toolregistry.ToolSpec
	deps *Deps
	fn   Func[A]
}

// NewTool adapts a typed operation to the registry. Arguments are decoded
// by their json names with weak typing, so "42" fills an int64 and 42
// fills a string.
func NewTool[A any](name, description string, schema map[string]any, deps *Deps, fn Func[A]) toolregistry.Tool {
	return &tool[A]{
		spec: toolregistry.ToolSpec{Name: name, Description: description, InputSchema: schema},
		deps: deps,
		fn:   fn,
	}
}

func (t *tool[A]) Spec() toolregistry.ToolSpec {
	return t.spec
}

func (t *tool[A]) Invoke(ctx context.Context, req toolregistry.ToolRequest) (toolregistry.ToolResponse, error) {
	var args A
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           &args,
	})
	if err != nil {
		return toolregistry.ToolResponse{}, err
	}
	if err := dec.Decode(req.Arguments); err != nil {
		return toolregistry.ToolResponse{}, toolregistry.ErrInvalidArguments.MsgErr(
			"invalid arguments for "+t.spec.Name+": "+err.Error(), err)
	}
	out, err := t.fn(ctx, t.deps, args)
	if err != nil {
		return toolregistry.ToolResponse{}, err
	}
	return toolregistry.ToolResponse{Content: out}, nil
}

func object(required []string, props map[string]any) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		req := make([]any, 0, len(required))
		for _, r := range required {
			req = append(req, r)
		}
		s["required"] = req
	}
	return s
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// id accepts numeric ids given either as numbers or as strings.
func id(description string) map[string]any {
	return map[string]any{"type": []any{"string", "integer"}, "description": description}
}

func boolean(description string, def bool) map[string]any {
	return map[string]any{"type": "boolean", "description": description, "default": def}
}

func anyValue(description string) map[string]any {
	return map[string]any{"description": description}
}

// Register adds the fixed catalog tool set to reg in a stable order.
func Register(reg *toolregistry.Registry, d *Deps) error {
	for _, t := range Tools(d) {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Tools returns the catalog tools bound to d. The descriptions are the
// only guidance the model gets when choosing a tool.
func Tools(d *Deps) []toolregistry.Tool {
	return []toolregistry.Tool{
		NewTool("search_data_products",
			"Search data products that match a specific search term. Returns a list of data products with their ID, name, description and owner, plus the total number of data products available.",
			object([]string{"search_term"}, map[string]any{
				"search_term": str("Search term to filter data products by name."),
				"limit":       map[string]any{"type": "integer", "description": "The maximum number of results to return. Limit can be no more than 100.", "default": 100},
			}), d, SearchDataProducts),
		NewTool("get_data_product_schema",
			"Get the model-friendly schema of a data product: every table of the product with its columns, types and descriptions.",
			object([]string{"product_id"}, map[string]any{
				"product_id": str("ID of the data product."),
			}), d, GetDataProductSchema),
		NewTool("get_table_info",
			"Get information about a table: id, key, name, schema, title, description, type, SQL, comment and custom fields. Identify the table by key, by name, or by ds_id together with schema_name and table_name. If several tables match, the candidates are listed and the user must narrow the search.",
			object(nil, map[string]any{
				"table_name":  str("Name of the table."),
				"key":         str("Fully qualified key of the table, for example 'ds_id.schema.table'."),
				"ds_id":       id("Datasource ID of the table."),
				"schema_name": str("Schema the table belongs to."),
			}), d, GetTableInfo),
		NewTool("get_column_info",
			"Get information about a column: id, key, name, type, nullability, default, description and custom fields. Give the table name (optionally schema qualified, for example 'schema.table') to pick the right column when the name exists in several tables.",
			object([]string{"column_name"}, map[string]any{
				"table_name":  str("Name of the table the column belongs to."),
				"column_name": str("Name of the column."),
			}), d, GetColumnInfo),
		NewTool("get_user_info",
			"Get information about a catalog user by email or by (partial) display name. Provide either 'user_name' or 'email'.",
			object(nil, map[string]any{
				"user_name": str("Display name, or part of it, of the user."),
				"email":     str("Email of the user."),
			}), d, GetUserInfo),
		NewTool("get_all_folders",
			"Get all folders, or get a folder by id, or get folders whose title contains a name.",
			object(nil, map[string]any{
				"folder_id": id("The ID of the folder."),
				"name":      str("Part of the folder title."),
			}), d, GetAllFolders),
		NewTool("get_document_info",
			"Get information about a document by its ID.",
			object([]string{"document_id"}, map[string]any{
				"document_id": id("The ID of the document."),
			}), d, GetDocumentInfo),
		NewTool("get_schema_info",
			"Get information about a schema by its ID.",
			object([]string{"schema_id"}, map[string]any{
				"schema_id": id("The ID of the schema."),
			}), d, GetSchemaInfo),
		NewTool("get_groupfile_info",
			"Get information about a group file by its ID.",
			object([]string{"groupfile_id"}, map[string]any{
				"groupfile_id": id("The ID of the group file."),
			}), d, GetGroupFileInfo),
		NewTool("get_all_datasources",
			"Get all datasources (data assets), or get a datasource by id, or get datasources whose title contains a name.",
			object(nil, map[string]any{
				"data_id": id("The ID of the datasource."),
				"name":    str("Part of the datasource title."),
			}), d, GetAllDatasources),
		NewTool("get_all_fields_for_otype_oid",
			"Get all custom fields that can be updated for an object type and id, with their current values. If the user asks for custom fields of a table or column, first run get_table_info or get_column_info to find its id.",
			object([]string{"otype", "oid"}, map[string]any{
				"otype": str("The object type, for example 'table' or 'column'."),
				"oid":   id("The object id."),
			}), d, GetAllFieldsForObject),
		NewTool("get_data_steward_info",
			"Return the data steward guide: steward domains with matching keywords, schemas and tags, and the rules for suggesting stewards. Use it to suggest the best-matching steward for a data asset. Always ask the user for consent before applying a steward.",
			object(nil, map[string]any{}), d, GetDataStewardInfo),
		NewTool("update_custom_field",
			"Update a custom field of one object. Operation 'replace' overwrites the existing value for any field type; 'add' and 'remove' add or remove values of object set or multi picker fields. A single value given as a one-element list is submitted as that value.",
			object([]string{"otype", "object_id", "field_id", "value", "operation"}, map[string]any{
				"otype":     str("The object type, for example 'table' or 'column'."),
				"object_id": id("The object ID."),
				"field_id":  map[string]any{"type": "integer", "description": "The custom field ID."},
				"value":     anyValue("The value to set, add or remove. A string, a number or a list depending on the field type."),
				"operation": str("One of 'replace', 'add' or 'remove'."),
			}), d, UpdateCustomField),
		NewTool("update_title",
			"Update the title of a table or column. Identify the object by key, or by name if the key is unknown.",
			object([]string{"otype", "value"}, map[string]any{
				"otype":       str("The object type: 'table' or 'column'."),
				"object_name": str("The object name. Columns may be given as 'table.column'."),
				"key":         str("The object key."),
				"value":       str("The new title."),
			}), d, UpdateTitle),
		NewTool("update_description",
			"Update the description of a table or column. Identify the object by key, or by name if the key is unknown.",
			object([]string{"otype", "value"}, map[string]any{
				"otype":       str("The object type: 'table' or 'column'."),
				"object_name": str("The object name. Columns may be given as 'table.column'."),
				"key":         str("The object key."),
				"value":       str("The new description."),
			}), d, UpdateDescription),
		NewTool("propagate_custom_field",
			"Propagate a custom field update from an object to its children (downstream) or parents (upstream), for example from a table to all its columns. The user must consent first: call without consent to get the confirmation text, and call again with consent=true only after the user agrees. Waits for the propagation job and returns its outcome with a job link.",
			object([]string{"object_type", "object_id", "field_id", "value"}, map[string]any{
				"object_type":  str("The object type to propagate from, for example 'table' or 'column'."),
				"object_id":    id("The object ID to propagate from."),
				"field_id":     map[string]any{"type": "integer", "description": "The custom field ID to update."},
				"value":        anyValue("The value to assign: a user name, a user ID or a string. Use {\"otype\": \"user\", \"oid\": user_id} when a user ID is given."),
				"operation":    map[string]any{"type": "string", "description": "One of 'replace', 'add' or 'remove'.", "default": "replace"},
				"consent":      boolean("Whether the user consented to the propagation.", false),
				"direction":    map[string]any{"type": "string", "description": "'downstream' (children) or 'upstream' (parents).", "default": "downstream"},
				"target_scope": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Target object types, for example ['attribute'] for columns or ['table'] for parent tables."},
			}), d, PropagateCustomField),
	}
}
