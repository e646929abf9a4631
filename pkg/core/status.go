package core

import "encoding/json"

// StepStatus represents the execution status of a step
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet evaluated
	StatusPassed                    // Expectation held
	StatusFailed                    // Query result did not match the expectation
	StatusErrored                   // Document could not be loaded or the tree broke a contract
	StatusSkipped                   // Flow stopped or cancelled before this step
	StatusWarned                    // Optional step failed (non-blocking)
)

var statusNames = map[StepStatus]string{
	StatusPending: "pending",
	StatusPassed:  "passed",
	StatusFailed:  "failed",
	StatusErrored: "errored",
	StatusSkipped: "skipped",
	StatusWarned:  "warned",
}

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON writes the status name.
func (s StepStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON reads a status name; unknown names decode to StatusPending.
func (s *StepStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = StatusPending
	for status, n := range statusNames {
		if n == name {
			*s = status
		}
	}
	return nil
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	return s != StatusPending && s.String() != "unknown"
}

// IsSuccess returns true if the status indicates success (passed or warned)
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusWarned
}

// ErrorCategory classifies the type of error for reporting
type ErrorCategory int

const (
	ErrCategoryNone        ErrorCategory = iota // No error
	ErrCategoryNotFound                         // Singular query matched nothing
	ErrCategoryMoreThanOne                      // Singular query matched several elements
	ErrCategoryExpectation                      // Result count or text did not match the step
	ErrCategoryContract                         // Host tree broke an engine contract
	ErrCategoryConfig                           // Invalid flow, config or document source
	ErrCategoryUnknown                          // Error not produced by domquery
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryNotFound:
		return "not_found"
	case ErrCategoryMoreThanOne:
		return "more_than_one"
	case ErrCategoryExpectation:
		return "expectation"
	case ErrCategoryContract:
		return "contract"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the category name.
func (c ErrorCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON reads a category name; unknown names decode to
// ErrCategoryUnknown.
func (c *ErrorCategory) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for cat := ErrCategoryNone; cat <= ErrCategoryUnknown; cat++ {
		if cat.String() == name {
			*c = cat
			return nil
		}
	}
	*c = ErrCategoryUnknown
	return nil
}
