package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/catalog/model"
	"github.com/curatai/curatai/internal/catalog/propagation"
)

type PropagateCustomFieldArgs struct {
	ObjectType  string   `json:"object_type"`
	ObjectID    string   `json:"object_id"`
	FieldID     int64    `json:"field_id"`
	Value       any      `json:"value"`
	Operation   string   `json:"operation"`
	Consent     bool     `json:"consent"`
	Direction   string   `json:"direction"`
	TargetScope []string `json:"target_scope"`
}

func (a *PropagateCustomFieldArgs) defaults() {
	if a.Operation == "" {
		a.Operation = string(propagation.OperationReplace)
	}
	if a.Direction == "" {
		a.Direction = string(propagation.Downstream)
	}
}

// wrapValue turns the argument into the list the rule expects.
func wrapValue(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	case string:
		if t == "" {
			return []any{}
		}
	}
	return []any{v}
}

// PropagateCustomField pushes a custom field update across the object
// hierarchy. Nothing is sent until the human has consented; once the rule
// is submitted the call blocks until the job is terminal or the poll
// budget runs out.
func PropagateCustomField(ctx context.Context, d *Deps, args PropagateCustomFieldArgs) (string, error) {
	args.defaults()
	relatives := "children"
	if strings.EqualFold(args.Direction, string(propagation.Upstream)) {
		relatives = "parents"
	}
	if !args.Consent {
		return fmt.Sprintf("This action will propagate the custom field update from the %s to its %s. "+
			"Please confirm your consent by setting 'consent=True'.", args.ObjectType, relatives), nil
	}

	op, err := propagation.ParseOperation(args.Operation)
	if err != nil {
		return "Invalid operation. Must be one of: add, replace, remove.", nil
	}
	dir, err := propagation.ParseDirection(args.Direction)
	if err != nil {
		return "Invalid direction. Must be 'downstream' or 'upstream'.", nil
	}
	otype, err := model.ParseObjectType(args.ObjectType)
	if err != nil {
		return fmt.Sprintf("Invalid object type '%s'.", args.ObjectType), nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args.ObjectID), 10, 64)
	if err != nil {
		return fmt.Sprintf("Invalid object_id '%s': must be a number.", args.ObjectID), nil
	}
	if args.FieldID == 0 {
		return "Please provide 'field_id'.", nil
	}

	scope := args.TargetScope
	if len(scope) == 0 {
		var ok bool
		if scope, ok = propagation.DefaultScope(otype, dir); !ok {
			return "Please specify 'target_scope' for this propagation.", nil
		}
	} else if scope, err = model.CatalogOTypes(scope); err != nil {
		return fmt.Sprintf("Invalid 'target_scope': %v.", err), nil
	}

	req := propagation.Request{
		Source:      model.ObjectReference{Type: otype, ID: id},
		FieldID:     args.FieldID,
		Value:       wrapValue(args.Value),
		Operation:   op,
		Direction:   dir,
		TargetScope: scope,
	}
	jobID, err := d.Propagation.Submit(ctx, req)
	if err != nil {
		var submitErr *propagation.SubmitError
		if errors.As(err, &submitErr) {
			return fmt.Sprintf("%s: %s", submitErr.Reason, submitErr.Body), nil
		}
		return failure("Error propagating field", err), nil
	}
	jobURL := d.Propagation.JobURL(jobID)
	log.Ctx(ctx).Info().Int64("job_id", jobID).Str("source", req.Source.String()).Msg("propagation submitted")

	res, err := d.Poller.Wait(ctx, jobID)
	if err != nil {
		return fmt.Sprintf("Error checking job status: %v. Job info: %s", err, jobURL), nil
	}
	switch res.Outcome {
	case propagation.Succeeded:
		return fmt.Sprintf("Propagation of field '%d' from %s '%d' to its %s completed successfully.\nJob info: %s",
			args.FieldID, args.ObjectType, id, dir.Relatives(), jobURL), nil
	case propagation.Failed:
		return "Propagation failed. Job info: " + jobURL, nil
	case propagation.Cancelled:
		return "Stopped waiting for the propagation job. Check job status at: " + jobURL, nil
	default:
		return "Propagation did not complete within timeout. Check job status at: " + jobURL, nil
	}
}
