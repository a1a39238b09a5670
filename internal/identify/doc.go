// Package identify classifies input strings against the ordered rules of
// approved providers. An input is VALID when a rule fully matches it,
// AMBIGUOUS when a rule could still accept it given more input, and INVALID
// otherwise. The scan stops at the first rule producing either non-INVALID
// outcome.
package identify
