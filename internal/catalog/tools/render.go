package tools

import (
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/curatai/curatai/internal/catalog/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const descriptionCut = 100

// truncate cuts s to n runes after trimming and marks the cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(r[:n])) + " ..."
}

// text renders a catalog value inline: scalars as is, missing values as
// the empty string and composite values as compact JSON.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *bool:
		if t == nil {
			return ""
		}
		return strconv.FormatBool(*t)
	case bool, int, int64, float64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func ids(v []int64) string {
	parts := make([]string, 0, len(v))
	for _, id := range v {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func writeCustomFields(b *strings.Builder, fields []model.CustomFieldValue) {
	if len(fields) == 0 {
		return
	}
	b.WriteString("Custom Fields:\n")
	for _, f := range fields {
		fmt.Fprintf(b, "  - %s: %s\n", f.FieldName, text(f.Value))
	}
}

// RenderTable is the field-labelled block for one table.
func RenderTable(t *model.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table ID: %d\n", t.ID)
	fmt.Fprintf(&b, "Table Key: %s\n", t.Key)
	fmt.Fprintf(&b, "Table Name: %s\n", t.Name)
	fmt.Fprintf(&b, "Schema: %s\n", model.OrNA(t.SchemaName))
	fmt.Fprintf(&b, "Title: %s\n", t.Title)
	fmt.Fprintf(&b, "Description: %s\n", t.Description)
	fmt.Fprintf(&b, "Table Type: %s\n", t.TableType)
	fmt.Fprintf(&b, "SQL: %s\n", t.SQL)
	fmt.Fprintf(&b, "Comment: %s\n", t.Comment)
	writeCustomFields(&b, t.CustomFields)
	return b.String()
}

func RenderColumn(c *model.Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Column ID: %d\n", c.ID)
	fmt.Fprintf(&b, "Column Key: %s\n", c.Key)
	fmt.Fprintf(&b, "Column Name: %s\n", c.Name)
	fmt.Fprintf(&b, "Type: %s\n", c.DataType())
	fmt.Fprintf(&b, "Nullable: %s\n", text(c.Nullable))
	fmt.Fprintf(&b, "Default: %s\n", text(c.Default))
	fmt.Fprintf(&b, "Description: %s\n", c.Description)
	writeCustomFields(&b, c.CustomFields)
	return b.String()
}

func RenderUser(u *model.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User ID: %d\n", u.ID)
	fmt.Fprintf(&b, "Display Name: %s\n", model.OrNA(u.DisplayName))
	fmt.Fprintf(&b, "Email: %s\n", model.OrNA(u.Email))
	fmt.Fprintf(&b, "Username: %s\n", model.OrNA(u.Username))
	fmt.Fprintf(&b, "Active: %s\n", model.OrNA(u.IsActive))
	fmt.Fprintf(&b, "Role: %s\n", model.OrNA(u.Role))
	return b.String()
}

func RenderFolder(f *model.Folder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Folder ID: %d\n", f.ID)
	fmt.Fprintf(&b, "Title: %s\n", model.OrNA(f.Title))
	fmt.Fprintf(&b, "Description: %s\n", model.OrNA(f.Description))
	fmt.Fprintf(&b, "Template ID: %s\n", model.OrNA(f.TemplateID))
	fmt.Fprintf(&b, "Document Hub ID: %s\n", model.OrNA(f.DocumentHubID))
	fmt.Fprintf(&b, "Parent Folder ID: %s\n", model.OrNA(f.ParentFolderID))
	fmt.Fprintf(&b, "Child Folders Count: %s\n", model.OrNA(f.ChildFoldersCount))
	fmt.Fprintf(&b, "Child Documents Count: %s\n", model.OrNA(f.ChildDocumentsCount))
	fmt.Fprintf(&b, "Nav Links Count: %s\n", model.OrNA(f.NavLinksCount))
	fmt.Fprintf(&b, "Created At: %s\n", model.OrNA(f.Created))
	fmt.Fprintf(&b, "Updated At: %s\n", model.OrNA(f.Updated))
	fmt.Fprintf(&b, "Deleted: %s\n", model.OrNA(f.Deleted))
	return b.String()
}

func RenderDatasource(d *model.Datasource) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Data Asset ID: %d\n", d.ID)
	fmt.Fprintf(&b, "Title: %s\n", model.OrNA(d.Title))
	fmt.Fprintf(&b, "DB Type: %s\n", model.OrNA(d.DBType))
	fmt.Fprintf(&b, "Is Virtual: %s\n", model.OrNA(d.IsVirtual))
	fmt.Fprintf(&b, "Description: %s\n", model.OrNA(d.Description))
	fmt.Fprintf(&b, "Enabled in Compose: %s\n", model.OrNA(d.EnabledInCompose))
	fmt.Fprintf(&b, "Supports Profiling: %s\n", model.OrNA(d.SupportsProfiling))
	fmt.Fprintf(&b, "Supports Compose: %s\n", model.OrNA(d.SupportsCompose))
	fmt.Fprintf(&b, "Owner IDs: %s\n", ids(d.OwnerIDs))
	fmt.Fprintf(&b, "Created At: %s\n", model.OrNA(d.CreatedAt))
	fmt.Fprintf(&b, "Updated At: %s\n", model.OrNA(d.UpdatedAt))
	fmt.Fprintf(&b, "Deleted: %s\n", model.OrNA(d.Deleted))
	return b.String()
}

// summary renders the shared shape of documents, schemas and group files.
func summary(label, nameLabel string, id int64, name, description string, owner any, created, updated string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s ID: %d\n", label, id)
	fmt.Fprintf(&b, "%s: %s\n", nameLabel, model.OrNA(name))
	fmt.Fprintf(&b, "Description: %s\n", model.OrNA(description))
	fmt.Fprintf(&b, "Owner: %s\n", model.OrNA(owner))
	fmt.Fprintf(&b, "Created At: %s\n", model.OrNA(created))
	fmt.Fprintf(&b, "Updated At: %s\n", model.OrNA(updated))
	return b.String()
}

func RenderDocument(d *model.Document) string {
	return summary("Document", "Title", d.ID, d.Title, d.Description, d.Owner, d.CreatedAt, d.UpdatedAt)
}

func RenderSchema(s *model.Schema) string {
	return summary("Schema", "Name", s.ID, s.Name, s.Description, s.Owner, s.CreatedAt, s.UpdatedAt)
}

func RenderGroupFile(g *model.GroupFile) string {
	return summary("Group File", "Name", g.ID, g.Name, g.Description, g.Owner, g.CreatedAt, g.UpdatedAt)
}
