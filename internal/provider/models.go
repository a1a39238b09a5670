package provider

import (
	"strings"
	"time"
)

// Status represents the review lifecycle of a provider registration.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusDeprecated Status = "deprecated"
)

var allStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusDeprecated,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus normalizes a user-supplied status string.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := statusSet[status]
	return status, ok
}

// Statuses returns every known provider status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// Action describes a resolution action a provider supports. Mode determines
// how the action resolves a PID (landing page redirect, metadata retrieval,
// raw resource access).
type Action struct {
	ID   string
	Name string
	Mode string
}

// Provider is a registered identifier scheme with its matching rules and
// descriptive metadata.
type Provider struct {
	ID          int64
	Type        string
	Name        string
	Description string
	Example     string
	Status      Status
	CreatedBy   string
	Actions     []Action
	Regexes     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RuleOwner carries the provider metadata returned alongside an
// identification outcome.
type RuleOwner struct {
	Type    string
	Example string
	Actions []Action
}

// Rule pairs one regular-expression pattern with its owning provider's
// metadata. Snapshot order is provider registration order, then rule
// insertion order within the provider.
type Rule struct {
	Expr  string
	Owner RuleOwner
}
