// Package model holds the catalog records the assistant reads and the
// structured references it resolves them to.
package model

import (
	"fmt"
	"strconv"
)

// ObjectReference identifies one catalog object after resolution.
type ObjectReference struct {
	Type ObjectType `json:"type"`
	ID   int64      `json:"id"`
	Key  string     `json:"key"`
	Name string     `json:"name"`
}

func (r ObjectReference) String() string {
	return fmt.Sprintf("%s %d (%s)", r.Type, r.ID, r.Key)
}

// CustomFieldValue is a custom field as embedded in table and column records.
type CustomFieldValue struct {
	FieldID   int64  `json:"field_id"`
	FieldName string `json:"field_name"`
	Value     any    `json:"value"`
}

// CustomField is a custom field definition together with its current value
// on one object.
type CustomField struct {
	FieldID     int64  `json:"field_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Editable    bool   `json:"is_editable"`
	Value       any    `json:"value"`
}

// FieldSet is the response of the per-object field definition endpoint.
type FieldSet struct {
	AllFields map[string]CustomField `json:"all_fields"`
}

type Table struct {
	ID                 int64              `json:"id"`
	Key                string             `json:"key"`
	Name               string             `json:"name"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	DatasourceID       int64              `json:"ds_id"`
	SchemaID           int64              `json:"schema_id"`
	SchemaName         string             `json:"schema_name"`
	FullyQualifiedName string             `json:"fully_qualified_name"`
	TableType          string             `json:"table_type"`
	SQL                string             `json:"sql"`
	Comment            string             `json:"table_comment"`
	CustomFields       []CustomFieldValue `json:"custom_fields"`
}

// QualifiedName is the server's fully qualified name, or schema.name.
func (t *Table) QualifiedName() string {
	if t.FullyQualifiedName != "" {
		return t.FullyQualifiedName
	}
	schema := t.SchemaName
	if schema == "" {
		schema = "N/A"
	}
	return schema + "." + t.Name
}

func (t *Table) Reference() ObjectReference {
	return ObjectReference{Type: ObjectTypeTable, ID: t.ID, Key: t.Key, Name: t.Name}
}

type Column struct {
	ID                 int64              `json:"id"`
	Key                string             `json:"key"`
	Name               string             `json:"name"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	DatasourceID       int64              `json:"ds_id"`
	Type               string             `json:"type"`
	ColumnType         string             `json:"column_type"`
	Comment            string             `json:"column_comment"`
	Nullable           *bool              `json:"nullable"`
	Default            any                `json:"default"`
	SchemaID           int64              `json:"schema_id"`
	SchemaName         string             `json:"schema_name"`
	TableID            int64              `json:"table_id"`
	TableName          string             `json:"table_name"`
	FullyQualifiedName string             `json:"fully_qualified_name"`
	Position           int                `json:"position"`
	CustomFields       []CustomFieldValue `json:"custom_fields"`
}

// DataType prefers the explicit type over the source column type.
func (c *Column) DataType() string {
	if c.Type != "" {
		return c.Type
	}
	return c.ColumnType
}

// QualifiedName is the server's fully qualified name, or table.name with
// whatever table path the catalog returned.
func (c *Column) QualifiedName() string {
	if c.FullyQualifiedName != "" {
		return c.FullyQualifiedName
	}
	table := c.TableName
	if table == "" {
		table = "N/A"
	}
	if c.SchemaName != "" {
		return c.SchemaName + "." + table + "." + c.Name
	}
	return table + "." + c.Name
}

func (c *Column) Reference() ObjectReference {
	return ObjectReference{Type: ObjectTypeColumn, ID: c.ID, Key: c.Key, Name: c.Name}
}

type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	IsActive    *bool  `json:"is_active"`
	Role        string `json:"role"`
}

func (u *User) Reference() ObjectReference {
	return ObjectReference{Type: ObjectTypeUser, ID: u.ID, Key: u.Email, Name: u.DisplayName}
}

type Folder struct {
	ID                  int64  `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	TemplateID          *int64 `json:"template_id"`
	DocumentHubID       *int64 `json:"document_hub_id"`
	ParentFolderID      *int64 `json:"parent_folder_id"`
	ChildFoldersCount   *int64 `json:"child_folders_count"`
	ChildDocumentsCount *int64 `json:"child_documents_count"`
	NavLinksCount       *int64 `json:"nav_links_count"`
	Created             string `json:"ts_created"`
	Updated             string `json:"ts_updated"`
	Deleted             *bool  `json:"deleted"`
}

// Document, Schema and GroupFile share the catalog's summary shape.
type Document struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Owner       any    `json:"owner"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type Schema struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       any    `json:"owner"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type GroupFile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       any    `json:"owner"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type Datasource struct {
	ID                int64   `json:"id"`
	Title             string  `json:"title"`
	DBType            string  `json:"dbtype"`
	IsVirtual         *bool   `json:"is_virtual"`
	Description       string  `json:"description"`
	EnabledInCompose  *bool   `json:"enabled_in_compose"`
	SupportsProfiling *bool   `json:"supports_profiling"`
	SupportsCompose   *bool   `json:"supports_compose"`
	OwnerIDs          []int64 `json:"owner_ids"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
	Deleted           *bool   `json:"deleted"`
}

// DataProduct is the flattened view of a data product's spec document.
type DataProduct struct {
	ID          string
	Name        string
	Description string
	Owner       string
	RecordSets  []RecordSet
}

type RecordSet struct {
	Name    string
	Columns []RecordColumn
}

type RecordColumn struct {
	Name        string
	Type        string
	Description string
}

// OrNA renders v for field-labelled text, substituting N/A for missing values.
func OrNA(v any) string {
	switch t := v.(type) {
	case nil:
		return "N/A"
	case *int64:
		if t == nil {
			return "N/A"
		}
		return strconv.FormatInt(*t, 10)
	case *bool:
		if t == nil {
			return "N/A"
		}
		return strconv.FormatBool(*t)
	case string:
		if t == "" {
			return "N/A"
		}
		return t
	default:
		return fmt.Sprint(t)
	}
}
