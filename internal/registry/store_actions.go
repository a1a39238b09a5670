package registry

import (
	"context"
	"fmt"

	"pidmr/internal/provider"
)

// ListActions returns every resolution action the registry knows about.
func (s *Store) ListActions(ctx context.Context) ([]provider.Action, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, mode FROM actions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []provider.Action
	for rows.Next() {
		var action provider.Action
		if err := rows.Scan(&action.ID, &action.Name, &action.Mode); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

// ResolutionModes returns the distinct action modes in use.
func (s *Store) ResolutionModes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT mode FROM actions ORDER BY mode`)
	if err != nil {
		return nil, fmt.Errorf("list resolution modes: %w", err)
	}
	defer rows.Close()

	var modes []string
	for rows.Next() {
		var mode string
		if err := rows.Scan(&mode); err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	return modes, rows.Err()
}
