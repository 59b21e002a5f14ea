// Package propagation submits bulk field propagation rules to the catalog
// and follows the resulting job until it reaches a terminal state.
package propagation

import (
	"fmt"
	"strings"

	"github.com/curatai/curatai/internal/catalog/model"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusSucceeded      Status = "succeeded"
	StatusPartialSuccess Status = "partial_success"
	StatusFailed         Status = "failed"
	StatusDidNotStart    Status = "did_not_start"
	StatusSkipped        Status = "skipped"
)

type State string

const (
	StateRunning  State = "running"
	StateFinished State = "finished"
)

type Operation string

const (
	OperationReplace Operation = "replace"
	OperationAdd     Operation = "add"
	OperationRemove  Operation = "remove"
)

func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OperationReplace, OperationAdd, OperationRemove:
		return op, nil
	}
	return "", fmt.Errorf("invalid operation %q: must be one of replace, add, remove", s)
}

type Direction string

const (
	Downstream Direction = "downstream"
	Upstream   Direction = "upstream"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Downstream, Upstream:
		return d, nil
	}
	return "", fmt.Errorf("invalid direction %q: must be downstream or upstream", s)
}

// Relatives names the objects a direction reaches.
func (d Direction) Relatives() string {
	if d == Upstream {
		return "parents"
	}
	return "children"
}

// DefaultScope is the target scope used when none is given: a table's
// columns downstream, or a column's table, schema and datasource upstream.
func DefaultScope(t model.ObjectType, d Direction) ([]string, bool) {
	switch {
	case t == model.ObjectTypeTable && d == Downstream:
		return []string{model.ObjectTypeColumn.CatalogOType()}, true
	case t == model.ObjectTypeColumn && d == Upstream:
		return []string{
			model.ObjectTypeTable.CatalogOType(),
			model.ObjectTypeSchema.CatalogOType(),
			model.ObjectTypeDatasource.CatalogOType(),
		}, true
	}
	return nil, false
}

// JobStatus is one observation of a job.
type JobStatus struct {
	ID     int64
	Status Status
	State  State
}

// Terminal reports whether polling can stop and, if so, whether the job
// succeeded. Failure statuses are terminal in any state; success needs the
// job to be finished too.
func (s JobStatus) Terminal() (done bool, succeeded bool) {
	switch s.Status {
	case StatusFailed, StatusDidNotStart, StatusSkipped:
		return true, false
	case StatusSucceeded, StatusPartialSuccess:
		if s.State == StateFinished {
			return true, true
		}
	}
	return false, false
}
