package gateway

import (
	"fmt"
	"sort"
	"strings"

	"github.com/containerd/errdefs"
)

// FetchError reports a failed read from the remote API: network failure,
// timeout (Status 0) or a non-2xx response. A failed fetch never touches the
// cache; stale entries stay authoritative until a successful refetch.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("fetch failed: %s", e.Message)
	}
	return fmt.Sprintf("fetch failed with status %d: %s", e.Status, e.Message)
}

func (e *FetchError) Unwrap() error {
	switch {
	case e.Status == 404:
		return errdefs.ErrNotFound
	case e.Status == 0 || e.Status >= 500:
		return errdefs.ErrUnavailable
	}
	return nil
}

// UnauthorizedError reports an HTTP 401 from the remote API. The broader
// application owns the login flow; this layer only surfaces the condition.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "remote API rejected credentials"
	}
	return fmt.Sprintf("remote API rejected credentials: %s", e.Message)
}

func (e *UnauthorizedError) Unwrap() error {
	return errdefs.ErrUnauthenticated
}

// ValidationError reports an HTTP 422 on a mutation, carrying the remote's
// per-field errors so the form can be corrected and resubmitted.
type ValidationError struct {
	Message     string
	FieldErrors map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed on %s: %s", strings.Join(fields, ", "), e.Message)
}

func (e *ValidationError) Unwrap() error {
	return errdefs.ErrInvalidArgument
}

// MutationError reports any other failed mutation. Cache and selection state
// are left intact by the caller so the operation can be retried.
type MutationError struct {
	Status  int
	Message string
}

func (e *MutationError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("mutation failed: %s", e.Message)
	}
	return fmt.Sprintf("mutation failed with status %d: %s", e.Status, e.Message)
}

func (e *MutationError) Unwrap() error {
	switch {
	case e.Status == 404:
		return errdefs.ErrNotFound
	case e.Status == 0 || e.Status >= 500:
		return errdefs.ErrUnavailable
	}
	return nil
}
