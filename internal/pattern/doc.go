// Package pattern compiles provider regular-expression rules into matchers
// that distinguish a full match from a viable prefix. The distinction is
// computed by simulating the compiled NFA over the input: a thread reaching
// the match instruction at end of input is a full match, while a thread still
// waiting on more input is a viable prefix. Go's regexp package does not
// surface the second state, so the simulation runs directly over
// regexp/syntax programs.
package pattern
