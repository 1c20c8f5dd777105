package environment

import (
	"errors"
	"fmt"
)

// ErrFetchFailed is wrapped by every error returned when the forecast source
// fails, times out, or returns unusable data.
var ErrFetchFailed = errors.New("environment fetch failed")

// CacheMiss records why the artifact for a day could not be used. The
// resolver handles it by fetching a forecast; callers of Resolve never see it.
type CacheMiss struct {
	Key string
	Err error
}

func (m *CacheMiss) Error() string {
	return fmt.Sprintf("cache miss for %s: %v", m.Key, m.Err)
}

func (m *CacheMiss) Unwrap() error { return m.Err }

// PersistError reports a fetched environment that could not be written back.
// It is carried in the Resolution and does not fail the resolve.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
