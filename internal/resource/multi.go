package resource

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the fan-out of a batch when the caller does not
// configure a limit.
const DefaultConcurrency = 10

// Multi fans a set of HTTP calls out concurrently with bounded parallelism.
// Results are positionally aligned with the input specs regardless of
// completion order, and a failing slot never cancels or blocks its
// siblings.
type Multi struct {
	resource *Resource
	limit    int
}

// NewMulti creates a batch dispatcher over the given resource. A limit of
// zero or less selects DefaultConcurrency.
func NewMulti(resource *Resource, limit int) *Multi {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Multi{
		resource: resource,
		limit:    limit,
	}
}

// Do dispatches every spec and returns once all slots have resolved. The
// returned slice has the same length and order as specs; slot i holds the
// outcome of specs[i], success or failure.
//
// The group is used only for its concurrency limit: worker funcs always
// return nil, so one slot's failure cannot cancel the rest. Each call
// carries its own timeout via the resource's policy.
func (m *Multi) Do(ctx context.Context, specs []Spec) []Result {
	results := make([]Result, len(specs))

	var group errgroup.Group
	group.SetLimit(m.limit)

	for i, spec := range specs {
		group.Go(func() error {
			results[i] = m.resource.Do(ctx, spec)
			return nil
		})
	}

	// Wait never returns an error here; it gates on every slot resolving.
	_ = group.Wait()

	return results
}
