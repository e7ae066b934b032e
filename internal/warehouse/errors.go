package warehouse

import "fmt"

// LoadError reports a schema mismatch or a failed warehouse write.
type LoadError struct {
	Table  string
	Key    string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load %s: %s", e.Table, e.Reason)
	if e.Key != "" {
		msg = fmt.Sprintf("load %s (%s): %s", e.Table, e.Key, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// AthenaError reports a query that did not succeed.
type AthenaError struct {
	State            string
	Reason           string
	QueryExecutionID string
}

func (e *AthenaError) Error() string {
	if e.QueryExecutionID != "" {
		return fmt.Sprintf("athena %s: %s (qid=%s)", e.State, e.Reason, e.QueryExecutionID)
	}
	return fmt.Sprintf("athena %s: %s", e.State, e.Reason)
}
