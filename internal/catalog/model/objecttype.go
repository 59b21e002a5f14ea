package model

import (
	"fmt"
	"strings"
)

// ObjectType names a kind of catalog object as the assistant refers to it.
type ObjectType string

const (
	ObjectTypeTable       ObjectType = "table"
	ObjectTypeColumn      ObjectType = "column"
	ObjectTypeDataProduct ObjectType = "data_product"
	ObjectTypeUser        ObjectType = "user"
	ObjectTypeFolder      ObjectType = "folder"
	ObjectTypeDocument    ObjectType = "document"
	ObjectTypeSchema      ObjectType = "schema"
	ObjectTypeDatasource  ObjectType = "datasource"
)

// catalog wire names that differ from the assistant's names
var wireNames = map[ObjectType]string{
	ObjectTypeColumn:     "attribute",
	ObjectTypeDatasource: "data",
}

var aliases = map[string]ObjectType{
	"table":        ObjectTypeTable,
	"tables":       ObjectTypeTable,
	"column":       ObjectTypeColumn,
	"columns":      ObjectTypeColumn,
	"attribute":    ObjectTypeColumn,
	"data_product": ObjectTypeDataProduct,
	"user":         ObjectTypeUser,
	"folder":       ObjectTypeFolder,
	"document":     ObjectTypeDocument,
	"schema":       ObjectTypeSchema,
	"schemas":      ObjectTypeSchema,
	"datasource":   ObjectTypeDatasource,
	"data":         ObjectTypeDatasource,
}

// ParseObjectType accepts both the assistant's names and the catalog's
// otype spellings, case-insensitively.
func ParseObjectType(s string) (ObjectType, error) {
	if t, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown object type %q", s)
}

// CatalogOType returns the otype the catalog API expects in paths and rules.
func (t ObjectType) CatalogOType() string {
	if w, ok := wireNames[t]; ok {
		return w
	}
	return string(t)
}

func (t ObjectType) String() string {
	return string(t)
}

// CatalogOTypes maps a scope list to wire otypes, rejecting unknown entries.
func CatalogOTypes(scope []string) ([]string, error) {
	out := make([]string, 0, len(scope))
	for _, s := range scope {
		t, err := ParseObjectType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t.CatalogOType())
	}
	return out, nil
}
