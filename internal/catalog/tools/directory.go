package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/curatai/curatai/internal/catalog/model"
	"github.com/curatai/curatai/internal/common/httpclient"
)

type GetUserInfoArgs struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
}

// GetUserInfo looks a user up by exact email, or by display name substring
// when no email is given.
func GetUserInfo(ctx context.Context, d *Deps, args GetUserInfoArgs) (string, error) {
	var params map[string]string
	switch {
	case args.Email != "":
		params = map[string]string{"email": args.Email}
	case args.UserName != "":
		params = map[string]string{"display_name__icontains": args.UserName}
	default:
		return "Please provide either 'user_name' or 'email' to fetch user information.", nil
	}

	var users []model.User
	if err := httpclient.GetJSON(ctx, d.Catalog, UserPath, params, &users); err != nil {
		return failure("Error retrieving user", err), nil
	}
	switch len(users) {
	case 0:
		return "No user found with the provided information.", nil
	case 1:
		return RenderUser(&users[0]), nil
	}
	var b strings.Builder
	b.WriteString("Multiple users found:\n")
	for _, u := range users {
		fmt.Fprintf(&b, "- id: %d, name: %s, email: %s\n", u.ID, model.OrNA(u.DisplayName), model.OrNA(u.Email))
	}
	b.WriteString("Please refine your search.")
	return b.String(), nil
}

type GetAllFoldersArgs struct {
	FolderID string `json:"folder_id"`
	Name     string `json:"name"`
}

// GetAllFolders lists folders, optionally filtered by id on the server and
// by a title substring locally.
func GetAllFolders(ctx context.Context, d *Deps, args GetAllFoldersArgs) (string, error) {
	var params map[string]string
	if args.FolderID != "" {
		params = map[string]string{"id": args.FolderID}
	}
	var folders []model.Folder
	if err := httpclient.GetJSON(ctx, d.Catalog, FolderPath, params, &folders); err != nil {
		return failure("Error retrieving folders", err), nil
	}

	name := strings.ToLower(args.Name)
	var results []string
	for i := range folders {
		if name != "" && !strings.Contains(strings.ToLower(folders[i].Title), name) {
			continue
		}
		results = append(results, RenderFolder(&folders[i]))
	}
	if len(results) == 0 {
		return notFound("folder", args.FolderID, args.Name, "No folders found."), nil
	}
	return strings.Join(results, "\n---\n"), nil
}

type GetAllDatasourcesArgs struct {
	DataID string `json:"data_id"`
	Name   string `json:"name"`
}

// GetAllDatasources lists datasources and filters them locally by id and
// title substring.
func GetAllDatasources(ctx context.Context, d *Deps, args GetAllDatasourcesArgs) (string, error) {
	var id int64
	if args.DataID != "" {
		var err error
		if id, err = strconv.ParseInt(strings.TrimSpace(args.DataID), 10, 64); err != nil {
			return fmt.Sprintf("Invalid 'data_id' '%s': must be a number.", args.DataID), nil
		}
	}

	var sources []model.Datasource
	if err := httpclient.GetJSON(ctx, d.Catalog, DatasourcePath, nil, &sources); err != nil {
		return failure("Error retrieving data assets", err), nil
	}
	if len(sources) == 0 {
		return "No data assets found.", nil
	}

	name := strings.ToLower(args.Name)
	var results []string
	for i := range sources {
		s := &sources[i]
		if args.DataID != "" && s.ID != id {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(s.Title), name) {
			continue
		}
		results = append(results, RenderDatasource(s))
	}
	if len(results) == 0 {
		return notFound("data asset", args.DataID, args.Name, "No data assets found."), nil
	}
	return strings.Join(results, "\n---\n"), nil
}

func notFound(kind, id, name, none string) string {
	switch {
	case id != "" && name != "":
		return fmt.Sprintf("No %s found with ID '%s' and name containing '%s'.", kind, id, name)
	case id != "":
		return fmt.Sprintf("No %s found with ID '%s'.", kind, id)
	case name != "":
		return fmt.Sprintf("No %s found with name containing '%s'.", kind, name)
	default:
		return none
	}
}

type GetDocumentInfoArgs struct {
	DocumentID string `json:"document_id"`
}

func GetDocumentInfo(ctx context.Context, d *Deps, args GetDocumentInfoArgs) (string, error) {
	var doc model.Document
	return getByID(ctx, d, "document", DocumentPath, args.DocumentID, &doc, func() (int64, string) {
		return doc.ID, RenderDocument(&doc)
	}), nil
}

type GetSchemaInfoArgs struct {
	SchemaID string `json:"schema_id"`
}

func GetSchemaInfo(ctx context.Context, d *Deps, args GetSchemaInfoArgs) (string, error) {
	var schema model.Schema
	return getByID(ctx, d, "schema", SchemaPath, args.SchemaID, &schema, func() (int64, string) {
		return schema.ID, RenderSchema(&schema)
	}), nil
}

type GetGroupFileInfoArgs struct {
	GroupFileID string `json:"groupfile_id"`
}

func GetGroupFileInfo(ctx context.Context, d *Deps, args GetGroupFileInfoArgs) (string, error) {
	var gf model.GroupFile
	return getByID(ctx, d, "group file", GroupFilePath, args.GroupFileID, &gf, func() (int64, string) {
		return gf.ID, RenderGroupFile(&gf)
	}), nil
}

// getByID fetches one object into out and renders it. A 404 or an empty
// record is reported as not found.
func getByID(ctx context.Context, d *Deps, kind, pathFmt, id string, out any, render func() (int64, string)) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Sprintf("Please provide the %s ID.", kind)
	}
	if err := httpclient.GetJSON(ctx, d.Catalog, fmt.Sprintf(pathFmt, id), nil, out); err != nil {
		if isNotFound(err) {
			return fmt.Sprintf("No %s found with ID '%s'.", kind, id)
		}
		return failure("Error retrieving "+kind, err)
	}
	gotID, rendered := render()
	if gotID == 0 {
		return fmt.Sprintf("No %s found with ID '%s'.", kind, id)
	}
	return rendered
}
