package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/curatai/curatai/internal/catalog/model"
)

type SearchDataProductsArgs struct {
	SearchTerm string `json:"search_term"`
	Limit      int    `json:"limit"`
}

// SearchDataProducts lists data products whose name contains the search
// term. The reported total counts every product in the catalog.
func SearchDataProducts(ctx context.Context, d *Deps, args SearchDataProductsArgs) (string, error) {
	limit := args.Limit
	if limit > MaxSearchLimit {
		return "", ErrLimitExceeded
	}
	if limit <= 0 {
		limit = MaxSearchLimit
	}

	body, err := d.Catalog.GetResource(ctx, DataProductPath, nil)
	if err != nil {
		return failure("Error retrieving data products", err), nil
	}
	products, err := model.ParseDataProducts(body)
	if err != nil {
		return failure("Error retrieving data products", err), nil
	}

	term := strings.ToLower(args.SearchTerm)
	var entries []string
	for _, p := range products {
		if term != "" && !strings.Contains(strings.ToLower(p.Name), term) {
			continue
		}
		entries = append(entries, fmt.Sprintf("- id: %s\n  name: %s\n  description: %s\n  owner: %s\n",
			p.ID, p.Name, truncate(p.Description, descriptionCut), p.Owner))
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return fmt.Sprintf("Total Products Available: %d\nLimit: %d\n--------\n\n%s",
		len(products), limit, strings.Join(entries, "\n")), nil
}

type GetDataProductSchemaArgs struct {
	ProductID string `json:"product_id"`
}

// GetDataProductSchema flattens a product's record sets into one block per
// column.
func GetDataProductSchema(ctx context.Context, d *Deps, args GetDataProductSchemaArgs) (string, error) {
	if args.ProductID == "" {
		return "Please provide 'product_id'.", nil
	}
	body, err := d.Catalog.GetResource(ctx, fmt.Sprintf(DataProductItemPath, args.ProductID), nil)
	if err != nil {
		if isNotFound(err) {
			return fmt.Sprintf("No data product found with ID '%s'.", args.ProductID), nil
		}
		return failure("Error retrieving data product", err), nil
	}
	product, err := model.ParseDataProduct(body)
	if err != nil {
		return failure("Error retrieving data product", err), nil
	}
	if len(product.RecordSets) == 0 {
		return fmt.Sprintf("Data product '%s' has no record sets.", args.ProductID), nil
	}

	var b strings.Builder
	for _, rs := range product.RecordSets {
		fmt.Fprintf(&b, "table: %s\n", rs.Name)
		for _, col := range rs.Columns {
			fmt.Fprintf(&b, "\tcolumn: %s\n\ttype: %s\n\tdescription: %s\n\n", col.Name, col.Type, col.Description)
		}
	}
	return b.String(), nil
}
