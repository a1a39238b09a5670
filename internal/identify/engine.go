package identify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"pidmr/internal/logging"
	"pidmr/internal/pattern"
	"pidmr/internal/provider"
)

// RuleSource is the read-only view of the provider registry the engine
// consumes. Implementations must return internally consistent snapshots in a
// stable order: provider registration order, then rule insertion order.
type RuleSource interface {
	ApprovedRules(ctx context.Context) ([]provider.Rule, error)
	FindApprovedByType(ctx context.Context, providerType string) (*provider.Provider, error)
}

const (
	matcherTTL     = 30 * time.Minute
	matcherCleanup = 10 * time.Minute
)

// Engine identifies and validates PIDs against registry snapshots. It is
// stateless per call; the matcher cache is the only shared state and is keyed
// by expression text, so a changed rule never sees a stale matcher.
type Engine struct {
	source   RuleSource
	logger   *slog.Logger
	matchers *gocache.Cache
}

// New constructs an identification engine over the given rule source.
func New(source RuleSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		source:   source,
		logger:   logger.With(logging.String("component", "identify")),
		matchers: gocache.New(matcherTTL, matcherCleanup),
	}
}

// Identify classifies an input string against all approved rules in snapshot
// order. The scan stops at the first rule that fully matches (VALID) or that
// the input is a viable prefix of (AMBIGUOUS).
func (e *Engine) Identify(ctx context.Context, input string) (Result, error) {
	rules, err := e.source.ApprovedRules(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load approved rules: %w", err)
	}

	result := Result{Status: StatusInvalid}
	for _, rule := range rules {
		matcher, err := e.matcher(rule.Expr)
		if err != nil {
			return Result{}, err
		}

		verdict := matcher.Match(input)
		if verdict == pattern.NoMatch {
			continue
		}

		result.Type = rule.Owner.Type
		result.Example = rule.Owner.Example
		result.Actions = rule.Owner.Actions
		if verdict == pattern.Matched {
			result.Status = StatusValid
		} else {
			result.Status = StatusAmbiguous
		}
		break
	}

	e.logger.Debug("identified input",
		logging.String("status", string(result.Status)),
		logging.String("type", result.Type),
	)
	return result, nil
}

// Validate reports whether the input fully matches any approved rule, along
// with the owning provider's type.
func (e *Engine) Validate(ctx context.Context, input string) (Validity, error) {
	rules, err := e.source.ApprovedRules(ctx)
	if err != nil {
		return Validity{}, fmt.Errorf("load approved rules: %w", err)
	}

	for _, rule := range rules {
		matcher, err := e.matcher(rule.Expr)
		if err != nil {
			return Validity{}, err
		}
		if matcher.Matches(input) {
			return Validity{Valid: true, Type: rule.Owner.Type}, nil
		}
	}
	return Validity{}, nil
}

// ValidateForType checks the input against only the approved provider with
// the given type. A type with no approved provider is a caller error, not an
// identification outcome.
func (e *Engine) ValidateForType(ctx context.Context, input, providerType string) (Validity, error) {
	p, err := e.source.FindApprovedByType(ctx, providerType)
	if err != nil {
		return Validity{}, fmt.Errorf("find provider by type: %w", err)
	}
	if p == nil {
		return Validity{}, provider.Wrap(provider.ErrTypeNotSupported, "identify", "validate",
			fmt.Sprintf("this type %q is not supported", providerType), nil)
	}

	validity := Validity{Type: providerType}
	for _, expr := range p.Regexes {
		matcher, err := e.matcher(expr)
		if err != nil {
			return Validity{}, err
		}
		if matcher.Matches(input) {
			validity.Valid = true
			break
		}
	}
	return validity, nil
}

// Resolve returns the full metadata of the approved provider backing a PID.
func (e *Engine) Resolve(ctx context.Context, input string) (*provider.Provider, error) {
	validity, err := e.Validate(ctx, input)
	if err != nil {
		return nil, err
	}
	if !validity.Valid {
		return nil, provider.Wrap(provider.ErrNotAcceptable, "identify", "resolve",
			fmt.Sprintf("%s doesn't belong to any of the available types", input), nil)
	}
	p, err := e.source.FindApprovedByType(ctx, validity.Type)
	if err != nil {
		return nil, fmt.Errorf("find provider by type: %w", err)
	}
	if p == nil {
		return nil, provider.Wrap(provider.ErrInternal, "identify", "resolve",
			fmt.Sprintf("provider %q vanished between scan and lookup", validity.Type), nil)
	}
	return p, nil
}

// matcher returns a compiled matcher for the expression, reusing a cached one
// when available. A snapshot rule that fails to compile indicates a
// registration bug and is surfaced as an internal error, never as INVALID.
func (e *Engine) matcher(expr string) (*pattern.Matcher, error) {
	if cached, ok := e.matchers.Get(expr); ok {
		return cached.(*pattern.Matcher), nil
	}
	matcher, err := pattern.Compile(expr)
	if err != nil {
		return nil, provider.Wrap(provider.ErrInternal, "identify", "compile rule", expr, err)
	}
	e.matchers.Set(expr, matcher, gocache.DefaultExpiration)
	return matcher, nil
}
