package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pidmr/internal/pattern"
	"pidmr/internal/provider"
)

// ProviderRequest carries the fields required to register a new provider.
type ProviderRequest struct {
	Type        string
	Name        string
	Description string
	Example     string
	CreatedBy   string
	Actions     []string
	Regexes     []string
}

// ProviderUpdate carries a partial update. Empty fields and nil slices leave
// the stored values unchanged. Any applied update resets the provider status
// to pending for re-review.
type ProviderUpdate struct {
	Type        string
	Name        string
	Description string
	Example     string
	Actions     []string
	Regexes     []string
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateProvider registers a new provider with pending status. The type must
// be unused, every action must be a known action, and every rule must
// compile.
func (s *Store) CreateProvider(ctx context.Context, req ProviderRequest) (*provider.Provider, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM providers WHERE type = ?`, req.Type).Scan(&existing)
	if err == nil {
		return nil, provider.Wrap(provider.ErrConflict, "registry", "create provider",
			fmt.Sprintf("this provider type %q exists", req.Type), nil)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check provider type: %w", err)
	}

	if err := actionsExist(ctx, tx, req.Actions); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO providers (type, name, description, example, status, created_by, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Type,
		req.Name,
		nullableString(req.Description),
		nullableString(req.Example),
		provider.StatusPending,
		nullableString(req.CreatedBy),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert provider: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertActions(ctx, tx, id, req.Actions); err != nil {
		return nil, err
	}
	if err := insertRegexes(ctx, tx, id, req.Regexes); err != nil {
		return nil, err
	}

	created, err := loadProvider(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	return created, nil
}

// GetProviderByID fetches a provider by identifier, or nil when absent.
func (s *Store) GetProviderByID(ctx context.Context, id int64) (*provider.Provider, error) {
	p, err := loadProvider(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProviders returns one page of providers in registration order along
// with the total provider count.
func (s *Store) ListProviders(ctx context.Context, offset, limit int) ([]*provider.Provider, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM providers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count providers: %w", err)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+providerColumns+` FROM providers ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var providers []*provider.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, 0, err
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, p := range providers {
		if err := attachDetails(ctx, s.db, p); err != nil {
			return nil, 0, err
		}
	}
	return providers, total, nil
}

// UpdateProvider applies a partial update and resets the provider to pending.
func (s *Store) UpdateProvider(ctx context.Context, id int64, update ProviderUpdate) (*provider.Provider, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := loadProvider(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, provider.Wrap(provider.ErrNotFound, "registry", "update provider",
			fmt.Sprintf("provider %d does not exist", id), nil)
	}

	if t := strings.TrimSpace(update.Type); t != "" && t != current.Type {
		var other int64
		err = tx.QueryRowContext(ctx, `SELECT id FROM providers WHERE type = ? AND id != ?`, t, id).Scan(&other)
		if err == nil {
			return nil, provider.Wrap(provider.ErrConflict, "registry", "update provider",
				fmt.Sprintf("this provider type %q exists", t), nil)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("check provider type: %w", err)
		}
		current.Type = t
	}
	if v := strings.TrimSpace(update.Name); v != "" {
		current.Name = v
	}
	if v := strings.TrimSpace(update.Description); v != "" {
		current.Description = v
	}
	if v := strings.TrimSpace(update.Example); v != "" {
		current.Example = v
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(
		ctx,
		`UPDATE providers SET type = ?, name = ?, description = ?, example = ?, status = ?, updated_at = ? WHERE id = ?`,
		current.Type,
		current.Name,
		nullableString(current.Description),
		nullableString(current.Example),
		provider.StatusPending,
		now,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update provider: %w", err)
	}

	if len(update.Actions) > 0 {
		if err := actionsExist(ctx, tx, update.Actions); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM provider_actions WHERE provider_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear provider actions: %w", err)
		}
		if err := insertActions(ctx, tx, id, update.Actions); err != nil {
			return nil, err
		}
	}

	if len(update.Regexes) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM regexes WHERE provider_id = ?`, id); err != nil {
			return nil, fmt.Errorf("clear provider regexes: %w", err)
		}
		if err := insertRegexes(ctx, tx, id, update.Regexes); err != nil {
			return nil, err
		}
	}

	updated, err := loadProvider(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

// DeleteProvider removes a provider and, via cascade, its actions and rules.
func (s *Store) DeleteProvider(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM providers WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete provider: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetProviderStatus moves a provider through its review lifecycle.
func (s *Store) SetProviderStatus(ctx context.Context, id int64, status provider.Status) (*provider.Provider, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE providers SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set provider status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, provider.Wrap(provider.ErrNotFound, "registry", "set status",
			fmt.Sprintf("provider %d does not exist", id), nil)
	}
	return loadProvider(ctx, s.db, id)
}

func validateRequest(req ProviderRequest) error {
	if strings.TrimSpace(req.Type) == "" {
		return provider.Wrap(provider.ErrValidation, "registry", "create provider", "type is required", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return provider.Wrap(provider.ErrValidation, "registry", "create provider", "name is required", nil)
	}
	if len(req.Regexes) == 0 {
		return provider.Wrap(provider.ErrValidation, "registry", "create provider", "at least one regex is required", nil)
	}
	return nil
}

// actionsExist verifies every requested action is a known action, reporting
// all unknown ones together.
func actionsExist(ctx context.Context, q dbtx, actionIDs []string) error {
	if len(actionIDs) == 0 {
		return nil
	}

	args := make([]any, len(actionIDs))
	for i, actionID := range actionIDs {
		args[i] = actionID
	}
	rows, err := q.QueryContext(
		ctx,
		`SELECT id FROM actions WHERE id IN (`+makePlaceholders(len(actionIDs))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("check actions: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{}, len(actionIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		known[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, actionID := range actionIDs {
		if _, ok := known[actionID]; !ok {
			missing = append(missing, actionID)
		}
	}
	if len(missing) > 0 {
		return provider.Wrap(provider.ErrNotFound, "registry", "check actions",
			fmt.Sprintf("unsupported actions: %s", strings.Join(missing, ", ")), nil)
	}
	return nil
}

func insertActions(ctx context.Context, q dbtx, providerID int64, actionIDs []string) error {
	for _, actionID := range actionIDs {
		if _, err := q.ExecContext(
			ctx,
			`INSERT INTO provider_actions (provider_id, action_id) VALUES (?, ?)`,
			providerID, actionID,
		); err != nil {
			return fmt.Errorf("insert provider action %q: %w", actionID, err)
		}
	}
	return nil
}

// insertRegexes compiles every rule before persisting; a rule that does not
// compile never enters the registry.
func insertRegexes(ctx context.Context, q dbtx, providerID int64, exprs []string) error {
	for position, expr := range exprs {
		if _, err := pattern.Compile(expr); err != nil {
			return provider.Wrap(provider.ErrValidation, "registry", "compile rule", expr, err)
		}
		if _, err := q.ExecContext(
			ctx,
			`INSERT INTO regexes (provider_id, pattern, position) VALUES (?, ?, ?)`,
			providerID, expr, position,
		); err != nil {
			return fmt.Errorf("insert regex: %w", err)
		}
	}
	return nil
}

const providerColumns = "id, type, name, description, example, status, created_by, created_at, updated_at"

func loadProvider(ctx context.Context, q dbtx, id int64) (*provider.Provider, error) {
	row := q.QueryRowContext(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = ?`, id)
	p, err := scanProvider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}
	if err := attachDetails(ctx, q, p); err != nil {
		return nil, err
	}
	return p, nil
}

func scanProvider(scanner interface{ Scan(dest ...any) error }) (*provider.Provider, error) {
	var (
		id          int64
		typeStr     string
		name        string
		description sql.NullString
		example     sql.NullString
		statusStr   string
		createdBy   sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&typeStr,
		&name,
		&description,
		&example,
		&statusStr,
		&createdBy,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	p := &provider.Provider{
		ID:          id,
		Type:        typeStr,
		Name:        name,
		Description: description.String,
		Example:     example.String,
		Status:      provider.Status(statusStr),
		CreatedBy:   createdBy.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		p.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		p.UpdatedAt = updated
	}
	return p, nil
}

// attachDetails loads the actions and rules belonging to a provider.
func attachDetails(ctx context.Context, q dbtx, p *provider.Provider) error {
	actionRows, err := q.QueryContext(
		ctx,
		`SELECT a.id, a.name, a.mode FROM actions a
         JOIN provider_actions pa ON pa.action_id = a.id
         WHERE pa.provider_id = ? ORDER BY a.id`,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("load provider actions: %w", err)
	}
	defer actionRows.Close()
	for actionRows.Next() {
		var action provider.Action
		if err := actionRows.Scan(&action.ID, &action.Name, &action.Mode); err != nil {
			return err
		}
		p.Actions = append(p.Actions, action)
	}
	if err := actionRows.Err(); err != nil {
		return err
	}

	regexRows, err := q.QueryContext(
		ctx,
		`SELECT pattern FROM regexes WHERE provider_id = ? ORDER BY position`,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("load provider regexes: %w", err)
	}
	defer regexRows.Close()
	for regexRows.Next() {
		var expr string
		if err := regexRows.Scan(&expr); err != nil {
			return err
		}
		p.Regexes = append(p.Regexes, expr)
	}
	return regexRows.Err()
}
