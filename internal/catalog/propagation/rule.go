package propagation

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/curatai/curatai/internal/catalog/model"
	"github.com/curatai/curatai/internal/common/httpclient"
)

const (
	ActionPath = "/api/curation/assistant/v1/action/"
	JobPath    = "/api/job/%d/"

	DefaultSubmitTimeout = 10 * time.Second
	DefaultStatusTimeout = 5 * time.Second
)

// Request is a validated propagation submission.
type Request struct {
	Source      model.ObjectReference
	FieldID     int64
	Value       []any
	Operation   Operation
	Direction   Direction
	TargetScope []string
}

// BuildRule renders the hierarchy traversal rule. The span carries the
// scope under a key named after the direction.
func BuildRule(req Request) ([]byte, error) {
	value := req.Value
	if value == nil {
		value = []any{}
	}
	sets := []struct {
		path  string
		value any
	}{
		{"process_virtual_rule.condition.op", "assets-from-pivot-hierarchy"},
		{"process_virtual_rule.condition.operand", req.Source.Type.CatalogOType()},
		{"process_virtual_rule.condition.value", req.Source.ID},
		{"process_virtual_rule.condition.span.direction", string(req.Direction)},
		{"process_virtual_rule.condition.span." + string(req.Direction) + ".scope", req.TargetScope},
		{"process_virtual_rule.condition.extra.field_id", req.FieldID},
		{"process_virtual_rule.action.action", "update-field"},
		{"process_virtual_rule.action.params.field_id", req.FieldID},
		{"process_virtual_rule.action.params.value", value},
		{"process_virtual_rule.action.params.op", string(req.Operation)},
	}
	doc := []byte(`{}`)
	var err error
	for _, s := range sets {
		if doc, err = sjson.SetBytes(doc, s.path, s.value); err != nil {
			return nil, fmt.Errorf("building rule at %s: %w", s.path, err)
		}
	}
	return doc, nil
}

// Client talks to the catalog's action and job endpoints.
type Client struct {
	Req           httpclient.Requester
	SubmitTimeout time.Duration
	StatusTimeout time.Duration
}

func (c *Client) submitTimeout() time.Duration {
	if c.SubmitTimeout > 0 {
		return c.SubmitTimeout
	}
	return DefaultSubmitTimeout
}

func (c *Client) statusTimeout() time.Duration {
	if c.StatusTimeout > 0 {
		return c.StatusTimeout
	}
	return DefaultStatusTimeout
}

// SubmitError is returned when the catalog answered but without a job id.
type SubmitError struct {
	Reason string
	Body   string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Body)
}

// Submit posts the rule and returns the job id from task.id.
func (c *Client) Submit(ctx context.Context, req Request) (int64, error) {
	rule, err := BuildRule(req)
	if err != nil {
		return 0, err
	}
	body, err := c.Req.DoRequest(ctx, httpclient.RequestOptions{
		Method:  http.MethodPost,
		Path:    ActionPath,
		Body:    rule,
		Timeout: c.submitTimeout(),
	})
	if err != nil {
		return 0, err
	}
	if !gjson.ValidBytes(body) {
		return 0, &SubmitError{Reason: "Non-JSON response from server", Body: string(body)}
	}
	id := gjson.GetBytes(body, "task.id")
	if !id.Exists() || id.Int() == 0 {
		return 0, &SubmitError{Reason: "Unexpected response", Body: string(body)}
	}
	return id.Int(), nil
}

// JobURL is the tracking reference handed back to the human.
func (c *Client) JobURL(jobID int64) string {
	return c.Req.BaseURL() + fmt.Sprintf(JobPath, jobID)
}

// FetchStatus implements StatusFetcher against the job endpoint.
func (c *Client) FetchStatus(ctx context.Context, jobID int64) (JobStatus, error) {
	body, err := c.Req.DoRequest(ctx, httpclient.RequestOptions{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf(JobPath, jobID),
		Timeout: c.statusTimeout(),
	})
	if err != nil {
		return JobStatus{}, err
	}
	if !gjson.ValidBytes(body) {
		return JobStatus{}, fmt.Errorf("invalid job status response: %s", string(body))
	}
	return ParseJobStatus(jobID, body), nil
}

// ParseJobStatus reads status and state case-insensitively.
func ParseJobStatus(jobID int64, body []byte) JobStatus {
	res := gjson.ParseBytes(body)
	return JobStatus{
		ID:     jobID,
		Status: Status(lower(res.Get("status").String())),
		State:  State(lower(res.Get("state").String())),
	}
}
