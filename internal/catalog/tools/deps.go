// Package tools implements the catalog operations exposed to the assistant.
// Every operation takes the shared Deps bundle plus its own arguments and
// returns text; the only error an operation returns is a retryable
// validation signal.
package tools

import (
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/curatai/curatai/internal/catalog/propagation"
	"github.com/curatai/curatai/internal/catalog/resolver"
	"github.com/curatai/curatai/internal/common/httpclient"
	"github.com/curatai/curatai/internal/metrics"
)

const (
	DataProductPath     = "/integration/data-products/v1/data-product/"
	DataProductItemPath = "/integration/data-products/v1/data-product/%s/"
	UserPath            = "/integration/v2/user/"
	FolderPath          = "/integration/v2/folder/"
	DocumentPath        = "/integration/v2/document/%s/"
	SchemaPath          = "/integration/v2/schema/%s/"
	GroupFilePath       = "/integration/v2/groupfile/%s/"
	DatasourcePath      = "/integration/v1/datasource/"
	FieldsPath          = "/api/field/object/%s/%s/"
	CommitPath          = "/api/field/object/%s/%s/%d/commit/"
)

// Deps is the dependency bundle shared by every operation. It is built once
// per process and never mutated afterwards, so one Deps may serve several
// conversations at once.
type Deps struct {
	Catalog     httpclient.Requester
	Resolver    *resolver.Resolver
	Propagation *propagation.Client
	Poller      *propagation.Poller
}

type depsOptions struct {
	pollInterval  time.Duration
	maxPolls      int
	submitTimeout time.Duration
	timer         retry.Timer
	metrics       *metrics.Metrics
}

type DepsOption func(*depsOptions)

func WithPollInterval(d time.Duration) DepsOption {
	return func(o *depsOptions) { o.pollInterval = d }
}

func WithMaxPolls(n int) DepsOption {
	return func(o *depsOptions) { o.maxPolls = n }
}

func WithSubmitTimeout(d time.Duration) DepsOption {
	return func(o *depsOptions) { o.submitTimeout = d }
}

// WithPollTimer replaces the real timer used between job status polls.
func WithPollTimer(t retry.Timer) DepsOption {
	return func(o *depsOptions) { o.timer = t }
}

func WithMetrics(m *metrics.Metrics) DepsOption {
	return func(o *depsOptions) { o.metrics = m }
}

// NewDeps wires the resolver and the propagation client and poller around
// an authenticated catalog requester.
func NewDeps(catalog httpclient.Requester, opts ...DepsOption) *Deps {
	o := depsOptions{
		pollInterval: propagation.DefaultInterval,
		maxPolls:     propagation.DefaultMaxPolls,
	}
	for _, opt := range opts {
		opt(&o)
	}
	client := &propagation.Client{
		Req:           catalog,
		SubmitTimeout: o.submitTimeout,
	}
	return &Deps{
		Catalog:     catalog,
		Resolver:    resolver.New(catalog),
		Propagation: client,
		Poller: &propagation.Poller{
			Fetch:    client,
			Interval: o.pollInterval,
			MaxPolls: o.maxPolls,
			Timer:    o.timer,
			Metrics:  o.metrics,
		},
	}
}

func (d *Deps) BaseURL() string {
	return d.Catalog.BaseURL()
}
