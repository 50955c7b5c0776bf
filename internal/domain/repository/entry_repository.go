package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense_tracker/internal/common"
	"expense_tracker/internal/domain/model"
	"expense_tracker/internal/platform/database"
)

type EntryRepository interface {
	Create(ctx context.Context, entry *model.Entry) error
	FindByID(ctx context.Context, id string) (*model.Entry, error)
	List(ctx context.Context, filter model.EntryFilter, limit, offset int) ([]model.Entry, int, error)
	Update(ctx context.Context, id string, patch model.EntryPatch) (*model.Entry, error)
	UpdateStatus(ctx context.Context, id string, status model.EntryStatus) (*model.Entry, error)
	Delete(ctx context.Context, id string) error
}

type sqlEntryRepository struct {
	db *database.DB
}

func NewEntryRepository(db *database.DB) EntryRepository {
	return &sqlEntryRepository{db: db}
}

const entryColumns = `id, title, description, amount, status, created_by, created_at, updated_at`

// entryJoinColumns selects an entry plus its creator; the creator columns are
// nullable because of the LEFT JOIN.
const entryJoinColumns = `e.id, e.title, e.description, e.amount, e.status, e.created_by, e.created_at, e.updated_at,
	u.id, u.email, u.role`

func scanEntryWithCreator(row rowScanner) (*model.Entry, error) {
	e := &model.Entry{}
	var uid, email, role sql.NullString
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Amount, &e.Status, &e.CreatedByID, &e.CreatedAt, &e.UpdatedAt,
		&uid, &email, &role)
	if err != nil {
		return nil, err
	}
	if uid.Valid {
		e.CreatedBy = &model.UserSummary{ID: uid.String, Email: email.String, Role: model.Role(role.String)}
	}
	return e, nil
}

func (r *sqlEntryRepository) Create(ctx context.Context, entry *model.Entry) error {
	query := r.db.Rebind(`INSERT INTO entries (` + entryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.Title, entry.Description, entry.Amount, entry.Status,
		entry.CreatedByID, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("entryRepository.Create: %w", database.Classify(err))
	}
	return r.attachCreator(ctx, entry)
}

func (r *sqlEntryRepository) FindByID(ctx context.Context, id string) (*model.Entry, error) {
	query := r.db.Rebind(`SELECT ` + entryJoinColumns + ` FROM entries e LEFT JOIN users u ON u.id = e.created_by WHERE e.id = ?`)
	entry, err := scanEntryWithCreator(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err = database.Classify(err); errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("entryRepository.FindByID: %w", err)
	}
	return entry, nil
}

// escapeLike neutralises LIKE wildcards so search terms match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *sqlEntryRepository) List(ctx context.Context, filter model.EntryFilter, limit, offset int) ([]model.Entry, int, error) {
	var conds []string
	var args []any
	if filter.CreatedByID != "" {
		conds = append(conds, "e.created_by = ?")
		args = append(args, filter.CreatedByID)
	}
	if filter.Status != "" {
		conds = append(conds, "e.status = ?")
		args = append(args, filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		conds = append(conds, `(LOWER(e.title) LIKE ? ESCAPE '\' OR LOWER(e.description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM entries e` + where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("entryRepository.List count: %w", database.Classify(err))
	}

	query := r.db.Rebind(`SELECT ` + entryJoinColumns + ` FROM entries e LEFT JOIN users u ON u.id = e.created_by` +
		where + ` ORDER BY e.created_at DESC, e.id LIMIT ? OFFSET ?`)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("entryRepository.List query: %w", database.Classify(err))
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		e, err := scanEntryWithCreator(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("entryRepository.List scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("entryRepository.List rows: %w", database.Classify(err))
	}
	return entries, total, nil
}

func (r *sqlEntryRepository) Update(ctx context.Context, id string, patch model.EntryPatch) (*model.Entry, error) {
	if patch.Empty() {
		return r.FindByID(ctx, id)
	}

	var sets []string
	var args []any
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	return r.update(ctx, id, sets, args, "entryRepository.Update")
}

func (r *sqlEntryRepository) UpdateStatus(ctx context.Context, id string, status model.EntryStatus) (*model.Entry, error) {
	return r.update(ctx, id, []string{"status = ?"}, []any{status}, "entryRepository.UpdateStatus")
}

func (r *sqlEntryRepository) update(ctx context.Context, id string, sets []string, args []any, op string) (*model.Entry, error) {
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := r.db.Rebind(`UPDATE entries SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, database.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return nil, common.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// attachCreator fills entry.CreatedBy. A missing creator is left nil.
func (r *sqlEntryRepository) attachCreator(ctx context.Context, entry *model.Entry) error {
	query := r.db.Rebind(`SELECT id, email, role FROM users WHERE id = ?`)
	summary := &model.UserSummary{}
	err := r.db.QueryRowContext(ctx, query, entry.CreatedByID).Scan(&summary.ID, &summary.Email, &summary.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("entryRepository.attachCreator: %w", database.Classify(err))
	}
	entry.CreatedBy = summary
	return nil
}

func (r *sqlEntryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM entries WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("entryRepository.Delete: %w", database.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("entryRepository.Delete rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
