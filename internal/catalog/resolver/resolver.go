// Package resolver turns partial identifying information about tables and
// columns into catalog object references.
package resolver

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/curatai/curatai/internal/common/httpclient"
)

const (
	TablePath  = "/integration/v2/table/"
	ColumnPath = "/integration/v2/column/"

	pageLimit = "100"
)

// Kind classifies a resolution result.
type Kind int

const (
	// Resolved means exactly one object was selected.
	Resolved Kind = iota
	// Ambiguous means several candidates remain and the caller must narrow
	// the query; it is a request for more input, not an error.
	Ambiguous
	// NotFound means the catalog returned nothing at the level queried.
	NotFound
	// Invalid means the query carried no usable identifier.
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	case NotFound:
		return "not_found"
	default:
		return "invalid"
	}
}

// Level is the precedence level a table query was answered at.
type Level string

const (
	LevelTriple Level = "ds_id+schema+name"
	LevelKey    Level = "key"
	LevelName   Level = "name"
	LevelNone   Level = ""
)

// Candidate is one entry of a disambiguation list.
type Candidate struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Key           string `json:"key"`
	QualifiedName string `json:"qualified_name"`
}

// Resolver queries the catalog's table and column listings. It holds no
// cache; every call goes to the catalog.
type Resolver struct {
	req httpclient.Requester
}

func New(req httpclient.Requester) *Resolver {
	return &Resolver{req: req}
}

func equalFold(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}

func hasSuffixFold(s, suffix string) bool {
	fold := cases.Fold()
	return strings.HasSuffix(fold.String(s), fold.String(suffix))
}

func listQuery(params map[string]string) map[string]string {
	params["limit"] = pageLimit
	params["skip"] = "0"
	return params
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
