package tools

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/curatai/curatai/internal/catalog/propagation"
)

const jobPath = "/api/job/991/"

func consented() PropagateCustomFieldArgs {
	return PropagateCustomFieldArgs{
		ObjectType: "table",
		ObjectID:   "556",
		FieldID:    10042,
		Value:      "Data Steward",
		Consent:    true,
	}
}

// jobAfter reports running until the nth poll, then the final status.
func jobAfter(n int32, final string) http.HandlerFunc {
	var polls int32
	return func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&polls, 1) < n {
			w.Write([]byte(`{"id":991,"status":"PENDING","state":"RUNNING"}`))
			return
		}
		w.Write([]byte(final))
	}
}

func TestPropagateWithoutConsent(t *testing.T) {
	f := newFakeCatalog(t)
	d, _ := f.deps()

	args := consented()
	args.Consent = false
	out, err := PropagateCustomField(bg, d, args)
	require.NoError(t, err)
	assert.Equal(t, "This action will propagate the custom field update from the table to its children. "+
		"Please confirm your consent by setting 'consent=True'.", out)
	assert.Empty(t, f.recorded())

	args.Direction = "upstream"
	out, _ = PropagateCustomField(bg, d, args)
	assert.Contains(t, out, "to its parents")
	assert.Empty(t, f.recorded())
}

func TestPropagateSucceedsOnThirdPoll(t *testing.T) {
	f := newFakeCatalog(t)
	f.json(http.MethodPost, propagation.ActionPath, `{"task":{"id":991}}`)
	f.handle(http.MethodGet, jobPath, jobAfter(3, `{"id":991,"status":"Succeeded","state":"Finished"}`))
	d, timer := f.deps()

	out, err := PropagateCustomField(bg, d, consented())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Propagation of field '10042' from table '556' to its children completed successfully.\nJob info: %s%s",
		f.srv.URL, jobPath), out)
	assert.Equal(t, 3, f.count(http.MethodGet, jobPath))
	assert.Equal(t, []time.Duration{time.Second, time.Second}, timer.delays)

	var body string
	for _, r := range f.recorded() {
		if r.Method == http.MethodPost {
			body = r.Body
		}
	}
	rule := gjson.Parse(body).Get("process_virtual_rule")
	assert.Equal(t, "table", rule.Get("condition.operand").String())
	assert.Equal(t, int64(556), rule.Get("condition.value").Int())
	assert.Equal(t, `["attribute"]`, rule.Get("condition.span.downstream.scope").Raw)
	assert.Equal(t, `["Data Steward"]`, rule.Get("action.params.value").Raw)
	assert.Equal(t, "replace", rule.Get("action.params.op").String())
}

func TestPropagateTimesOut(t *testing.T) {
	f := newFakeCatalog(t)
	f.json(http.MethodPost, propagation.ActionPath, `{"task":{"id":991}}`)
	f.json(http.MethodGet, jobPath, `{"id":991,"status":"pending","state":"running"}`)
	d, timer := f.deps()

	out, err := PropagateCustomField(bg, d, consented())
	require.NoError(t, err)
	assert.Equal(t, "Propagation did not complete within timeout. Check job status at: "+f.srv.URL+jobPath, out)
	assert.Equal(t, 60, f.count(http.MethodGet, jobPath))
	assert.Len(t, timer.delays, 59)
}

func TestPropagateFailedJob(t *testing.T) {
	f := newFakeCatalog(t)
	f.json(http.MethodPost, propagation.ActionPath, `{"task":{"id":991}}`)
	f.json(http.MethodGet, jobPath, `{"status":"did_not_start","state":"running"}`)
	d, _ := f.deps()

	out, err := PropagateCustomField(bg, d, consented())
	require.NoError(t, err)
	assert.Equal(t, "Propagation failed. Job info: "+f.srv.URL+jobPath, out)
	assert.Equal(t, 1, f.count(http.MethodGet, jobPath))
}

func TestPropagateStatusError(t *testing.T) {
	f := newFakeCatalog(t)
	f.json(http.MethodPost, propagation.ActionPath, `{"task":{"id":991}}`)
	f.status(http.MethodGet, jobPath, http.StatusBadGateway, "gateway")
	d, _ := f.deps()

	out, err := PropagateCustomField(bg, d, consented())
	require.NoError(t, err)
	assert.Contains(t, out, "Error checking job status: 502 - gateway")
	assert.Contains(t, out, f.srv.URL+jobPath)
}

func TestPropagateSubmitFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "http error", status: http.StatusInternalServerError, body: "down", want: "Error propagating field: 500 - down"},
		{name: "non json", status: http.StatusOK, body: "<html/>", want: "Non-JSON response from server: <html/>"},
		{name: "no task id", status: http.StatusOK, body: `{"task":null}`, want: `Unexpected response: {"task":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeCatalog(t)
			f.status(http.MethodPost, propagation.ActionPath, tt.status, tt.body)
			d, _ := f.deps()
			out, err := PropagateCustomField(bg, d, consented())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Zero(t, f.count(http.MethodGet, jobPath))
		})
	}
}

func TestPropagateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PropagateCustomFieldArgs)
		want   string
	}{
		{"bad operation", func(a *PropagateCustomFieldArgs) { a.Operation = "merge" }, "Invalid operation. Must be one of: add, replace, remove."},
		{"bad direction", func(a *PropagateCustomFieldArgs) { a.Direction = "sideways" }, "Invalid direction. Must be 'downstream' or 'upstream'."},
		{"no default scope", func(a *PropagateCustomFieldArgs) { a.Direction = "upstream" }, "Please specify 'target_scope' for this propagation."},
		{"bad scope", func(a *PropagateCustomFieldArgs) { a.TargetScope = []string{"galaxy"} }, "Invalid 'target_scope'"},
		{"bad object id", func(a *PropagateCustomFieldArgs) { a.ObjectID = "orders" }, "Invalid object_id 'orders'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeCatalog(t)
			d, _ := f.deps()
			args := consented()
			tt.mutate(&args)
			out, err := PropagateCustomField(bg, d, args)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
			assert.Empty(t, f.recorded())
		})
	}
}

func TestPropagateColumnUpstreamDefaults(t *testing.T) {
	f := newFakeCatalog(t)
	f.json(http.MethodPost, propagation.ActionPath, `{"task":{"id":991}}`)
	f.json(http.MethodGet, jobPath, `{"status":"partial_success","state":"finished"}`)
	d, _ := f.deps()

	args := consented()
	args.ObjectType = "column"
	args.Direction = "upstream"
	args.Value = []any{"a", "b"}
	out, err := PropagateCustomField(bg, d, args)
	require.NoError(t, err)
	assert.Contains(t, out, "from column '556' to its parents completed successfully")

	var body string
	for _, r := range f.recorded() {
		if r.Method == http.MethodPost {
			body = r.Body
		}
	}
	assert.Equal(t, "attribute", gjson.Get(body, "process_virtual_rule.condition.operand").String())
	assert.Equal(t, `["table","schema","data"]`, gjson.Get(body, "process_virtual_rule.condition.span.upstream.scope").Raw)
	assert.Equal(t, `["a","b"]`, gjson.Get(body, "process_virtual_rule.action.params.value").Raw)
}
