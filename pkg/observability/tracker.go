package observability

import (
	"strconv"
)

// Label names of the outbound request duration histogram.
const (
	LabelTarget     = "target"
	LabelMethod     = "method"
	LabelStatusCode = "statusCode"
	LabelError      = "error"
)

// LabelNames is the fixed label set, in the order used for label values.
var LabelNames = []string{LabelTarget, LabelMethod, LabelStatusCode, LabelError}

// DefaultBuckets are the histogram boundaries in seconds.
var DefaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Labels describe one tracked call. Target and Method are known up front;
// StatusCode (0 means none) and Error are filled in from the outcome.
type Labels struct {
	Target     string
	Method     string
	StatusCode int
	Error      string
}

func (l Labels) values() []string {
	status := ""
	if l.StatusCode > 0 {
		status = strconv.Itoa(l.StatusCode)
	}
	return []string{l.Target, l.Method, status, l.Error}
}

// Tracker times an action and records its duration under labels.
//
// Track runs action, measures its wall-clock duration, calls onResult (if
// non-nil) with the action's error so the caller can complete the labels, then
// records one observation under the final labels. The action's error is
// returned unchanged.
type Tracker interface {
	Track(labels Labels, action func() error, onResult func(err error, labels *Labels)) error
}
