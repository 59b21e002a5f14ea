package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseDataProducts reads the data product listing, a JSON array of
// records each carrying a spec_json document.
func ParseDataProducts(body []byte) ([]DataProduct, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid data product listing")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("data product listing is not an array")
	}
	var products []DataProduct
	root.ForEach(func(_, v gjson.Result) bool {
		products = append(products, dataProductFrom(v))
		return true
	})
	return products, nil
}

// ParseDataProduct reads a single data product record.
func ParseDataProduct(body []byte) (DataProduct, error) {
	if !gjson.ValidBytes(body) {
		return DataProduct{}, fmt.Errorf("invalid data product")
	}
	root := gjson.ParseBytes(body)
	if !root.Get("spec_json.product").Exists() {
		return DataProduct{}, fmt.Errorf("data product has no spec_json.product")
	}
	return dataProductFrom(root), nil
}

func dataProductFrom(v gjson.Result) DataProduct {
	p := v.Get("spec_json.product")
	dp := DataProduct{
		ID:          p.Get("productId").String(),
		Name:        strings.TrimSpace(p.Get("en.name").String()),
		Description: p.Get("en.description").String(),
		Owner:       strings.TrimSpace(p.Get("contactName").String()),
	}
	p.Get("recordSets").ForEach(func(name, rs gjson.Result) bool {
		set := RecordSet{Name: name.String()}
		rs.Get("schema").ForEach(func(_, col gjson.Result) bool {
			set.Columns = append(set.Columns, RecordColumn{
				Name:        col.Get("name").String(),
				Type:        col.Get("type").String(),
				Description: col.Get("description").String(),
			})
			return true
		})
		dp.RecordSets = append(dp.RecordSets, set)
		return true
	})
	sort.SliceStable(dp.RecordSets, func(i, j int) bool {
		return dp.RecordSets[i].Name < dp.RecordSets[j].Name
	})
	return dp
}
