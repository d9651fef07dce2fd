package qa

import "fmt"

// StatusError reports a non-success HTTP status from a remote service or a
// fetched page. Client errors other than 429 are terminal; everything else
// is worth retrying.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// Retryable reports whether the status may succeed on a later attempt.
func (e *StatusError) Retryable() bool {
	if e.Code == 429 {
		return true
	}
	return e.Code >= 500 || e.Code < 400
}

// ConfigError marks a run that cannot be processed as configured, e.g. no
// resolvable URL list. Never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}
