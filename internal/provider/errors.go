package provider

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input: bad regular expressions, unknown
	// statuses, missing required fields.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups for entities that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks attempts to register a provider type that already exists.
	ErrConflict = errors.New("conflict")
	// ErrTypeNotSupported marks type-scoped requests naming a type with no
	// approved provider. Distinct from an INVALID identification outcome.
	ErrTypeNotSupported = errors.New("type not supported")
	// ErrNotAcceptable marks PIDs that do not belong to any approved type.
	ErrNotAcceptable = errors.New("not acceptable")
	// ErrInternal marks internal-consistency violations, such as a snapshot
	// rule that fails to compile. These indicate a registration bug and are
	// never downgraded to an identification outcome.
	ErrInternal = errors.New("internal error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later status classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "provider failure"
	}
	return strings.Join(parts, ": ")
}
