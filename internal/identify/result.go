package identify

import "pidmr/internal/provider"

// Status is the classification assigned to an identified input.
type Status string

const (
	// StatusValid means the input fully matches a rule of an approved provider.
	StatusValid Status = "VALID"
	// StatusAmbiguous means the input is a viable prefix of a rule but not yet
	// a full match.
	StatusAmbiguous Status = "AMBIGUOUS"
	// StatusInvalid means no approved rule fully or partially matches.
	StatusInvalid Status = "INVALID"
)

// Result carries the outcome of an identification scan. Type, Example and
// Actions describe the single provider backing a VALID or AMBIGUOUS outcome
// and are empty for INVALID.
type Result struct {
	Status  Status
	Type    string
	Example string
	Actions []provider.Action
}

// Validity is the outcome of a binary full-match check.
type Validity struct {
	Valid bool
	Type  string
}
