package entities

// OutcomeStatus represents how an action ended
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFallback  OutcomeStatus = "fallback"
	OutcomeManual    OutcomeStatus = "manual"
	OutcomeFailed    OutcomeStatus = "failed"
)

// AttemptResult represents the result of a single strategy attempt
type AttemptResult string

const (
	AttemptSkipped   AttemptResult = "skipped"
	AttemptFailed    AttemptResult = "failed"
	AttemptSucceeded AttemptResult = "succeeded"
)

// Attempt records one strategy tried for an action
type Attempt struct {
	Strategy string        `json:"strategy"`
	Result   AttemptResult `json:"result"`
	Error    string        `json:"error,omitempty"`
}

// Outcome is the transient result of running an action against the page
type Outcome struct {
	Action   string        `json:"action"`
	Status   OutcomeStatus `json:"status"`
	Strategy string        `json:"strategy,omitempty"`
	Value    interface{}   `json:"-"`
	Attempts []Attempt     `json:"attempts,omitempty"`
	Err      error         `json:"-"`
}

// OK reports whether the action was performed automatically
func (o Outcome) OK() bool {
	return o.Status == OutcomeSucceeded || o.Status == OutcomeFallback
}

// Handled reports whether the action was performed, by the automation or by the operator
func (o Outcome) Handled() bool {
	return o.OK() || o.Status == OutcomeManual
}
