package okta

import (
	"errors"
	"fmt"
)

// ErrAuthFailed is returned when the session's identity probe fails at
// construction. The condition is terminal; a failed session must be
// discarded and a new one constructed.
var ErrAuthFailed = errors.New("authentication failed")

// InvalidGroupError reports that a group referenced by name does not
// exist. Lookups themselves return a nil result for no-match; only
// mutation helpers that require the group raise this.
type InvalidGroupError struct {
	Name string
}

func (e *InvalidGroupError) Error() string {
	return fmt.Sprintf("no such group: %s", e.Name)
}

// InvalidUserError reports that a user referenced by login does not exist.
type InvalidUserError struct {
	Login string
}

func (e *InvalidUserError) Error() string {
	return fmt.Sprintf("no such user: %s", e.Login)
}

// InvalidApplicationError reports that an application referenced by label
// does not exist.
type InvalidApplicationError struct {
	Label string
}

func (e *InvalidApplicationError) Error() string {
	return fmt.Sprintf("no such application: %s", e.Label)
}
