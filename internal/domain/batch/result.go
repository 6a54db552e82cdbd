// Package batch describes per-role outcomes of multi-role publishing.
package batch

import "github.com/kailas-cloud/estemplate/internal/domain"

// ItemStatus is the processing outcome of a single role.
type ItemStatus string

// Batch item status values.
const (
	StatusPublished ItemStatus = "published"
	StatusUnchanged ItemStatus = "unchanged"
	StatusError     ItemStatus = "error"
)

// Result is the outcome of publishing one role.
type Result struct {
	role     string
	status   ItemStatus
	template domain.PublishedTemplate
	err      error
}

// NewPublished creates a result for a newly stored template.
func NewPublished(role string, t domain.PublishedTemplate) Result {
	return Result{role: role, status: StatusPublished, template: t}
}

// NewUnchanged creates a result for a template whose stored body already matched.
func NewUnchanged(role string, t domain.PublishedTemplate) Result {
	return Result{role: role, status: StatusUnchanged, template: t}
}

// NewError creates a failed result.
func NewError(role string, err error) Result { return Result{role: role, status: StatusError, err: err} }

// Role returns the role the template was rendered for.
func (r Result) Role() string { return r.role }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Template returns the stored record. It is empty for failed results.
func (r Result) Template() domain.PublishedTemplate { return r.template }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// OK reports whether the role ended with a stored template.
func (r Result) OK() bool { return r.status != StatusError }
