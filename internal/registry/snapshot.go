package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pidmr/internal/provider"
)

// ApprovedRules returns every rule belonging to an approved provider, ordered
// by provider registration order and then by rule position within the
// provider. The identification engine evaluates rules in exactly this order.
func (s *Store) ApprovedRules(ctx context.Context) ([]provider.Rule, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT p.id, p.type, p.example, r.pattern
         FROM providers p
         JOIN regexes r ON r.provider_id = p.id
         WHERE p.status = ?
         ORDER BY p.id, r.position`,
		provider.StatusApproved,
	)
	if err != nil {
		return nil, fmt.Errorf("load approved rules: %w", err)
	}
	defer rows.Close()

	var (
		rules   []provider.Rule
		actions = map[int64][]provider.Action{}
	)
	for rows.Next() {
		var (
			providerID int64
			typeStr    string
			example    sql.NullString
			expr       string
		)
		if err := rows.Scan(&providerID, &typeStr, &example, &expr); err != nil {
			return nil, err
		}

		owned, ok := actions[providerID]
		if !ok {
			owned, err = s.providerActions(ctx, providerID)
			if err != nil {
				return nil, err
			}
			actions[providerID] = owned
		}

		rules = append(rules, provider.Rule{
			Expr: expr,
			Owner: provider.RuleOwner{
				Type:    typeStr,
				Example: example.String,
				Actions: owned,
			},
		})
	}
	return rules, rows.Err()
}

// FindApprovedByType fetches the approved provider registered for a type, or
// nil when the type is unknown or its provider is not approved.
func (s *Store) FindApprovedByType(ctx context.Context, providerType string) (*provider.Provider, error) {
	var id int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id FROM providers WHERE type = ? AND status = ?`,
		providerType, provider.StatusApproved,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find provider by type: %w", err)
	}
	return loadProvider(ctx, s.db, id)
}

func (s *Store) providerActions(ctx context.Context, providerID int64) ([]provider.Action, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT a.id, a.name, a.mode FROM actions a
         JOIN provider_actions pa ON pa.action_id = a.id
         WHERE pa.provider_id = ? ORDER BY a.id`,
		providerID,
	)
	if err != nil {
		return nil, fmt.Errorf("load provider actions: %w", err)
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
