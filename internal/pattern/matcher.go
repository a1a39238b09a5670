package pattern

import (
	"fmt"
	"regexp/syntax"
)

// Verdict is the outcome of applying a matcher to an input string.
type Verdict int

const (
	// NoMatch means the input can never be extended into a match.
	NoMatch Verdict = iota
	// Partial means the input is a valid prefix of a string the pattern
	// would accept, but is not itself a full match.
	Partial
	// Matched means the entire input conforms to the pattern.
	Matched
)

func (v Verdict) String() string {
	switch v {
	case Matched:
		return "matched"
	case Partial:
		return "partial"
	default:
		return "no match"
	}
}

// Matcher is an immutable compiled rule. It is safe for concurrent use.
type Matcher struct {
	expr string
	prog *syntax.Prog
}

// Compile parses and compiles a rule expression. Malformed expressions fail
// here; rules entering a registry snapshot are always fully compiled.
func Compile(expr string) (*Matcher, error) {
	re, err := syntax.Parse(expr, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("parse pattern %q: %w", expr, err)
	}
	prog, err := syntax.Compile(re.Simplify())
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return &Matcher{expr: expr, prog: prog}, nil
}

// Expr returns the source expression the matcher was compiled from.
func (m *Matcher) Expr() string {
	return m.expr
}

// Matches reports whether the entire input conforms to the pattern.
func (m *Matcher) Matches(input string) bool {
	return m.Match(input) == Matched
}

// Match applies the pattern anchored at both ends and classifies the input.
// Matching is a breadth-first walk of the NFA: every live alternative is
// advanced one rune at a time, so no backtracking state is needed and any
// input is a legal string to test.
func (m *Matcher) Match(input string) Verdict {
	runes := []rune(input)
	clist := newThreadList(len(m.prog.Inst))
	nlist := newThreadList(len(m.prog.Inst))

	m.add(clist, uint32(m.prog.Start), syntax.EmptyOpContext(-1, runeAt(runes, 0)))

	for i, r := range runes {
		if len(clist.dense) == 0 {
			// Every alternative was rejected before the input ran out.
			return NoMatch
		}
		cond := syntax.EmptyOpContext(r, runeAt(runes, i+1))
		nlist.clear()
		for _, pc := range clist.dense {
			inst := &m.prog.Inst[pc]
			if consumes(inst.Op) && instMatchRune(inst, r) {
				m.add(nlist, inst.Out, cond)
			}
		}
		clist, nlist = nlist, clist
	}

	alive := false
	for _, pc := range clist.dense {
		inst := &m.prog.Inst[pc]
		if inst.Op == syntax.InstMatch {
			return Matched
		}
		if consumes(inst.Op) {
			alive = true
		}
	}
	if alive {
		return Partial
	}
	return NoMatch
}

// add follows non-consuming instructions until the thread parks on a rune or
// match instruction. cond carries the empty-width assertions satisfied at the
// current boundary.
func (m *Matcher) add(l *threadList, pc uint32, cond syntax.EmptyOp) {
	if l.visited[pc] {
		return
	}
	l.visited[pc] = true

	inst := &m.prog.Inst[pc]
	switch inst.Op {
	case syntax.InstFail:
		// dead thread
	case syntax.InstAlt, syntax.InstAltMatch:
		m.add(l, inst.Out, cond)
		m.add(l, inst.Arg, cond)
	case syntax.InstCapture, syntax.InstNop:
		m.add(l, inst.Out, cond)
	case syntax.InstEmptyWidth:
		if syntax.EmptyOp(inst.Arg)&^cond == 0 {
			m.add(l, inst.Out, cond)
		}
	default:
		l.dense = append(l.dense, pc)
	}
}

func consumes(op syntax.InstOp) bool {
	switch op {
	case syntax.InstRune, syntax.InstRune1, syntax.InstRuneAny, syntax.InstRuneAnyNotNL:
		return true
	}
	return false
}

func instMatchRune(inst *syntax.Inst, r rune) bool {
	switch inst.Op {
	case syntax.InstRune:
		return inst.MatchRune(r)
	case syntax.InstRune1:
		return r == inst.Rune[0]
	case syntax.InstRuneAny:
		return true
	case syntax.InstRuneAnyNotNL:
		return r != '\n'
	}
	return false
}

func runeAt(runes []rune, i int) rune {
	if i < len(runes) {
		return runes[i]
	}
	return -1
}

type threadList struct {
	visited []bool
	dense   []uint32
}

func newThreadList(size int) *threadList {
	return &threadList{visited: make([]bool, size)}
}

func (l *threadList) clear() {
	for i := range l.visited {
		l.visited[i] = false
	}
	l.dense = l.dense[:0]
}
