package repository

import (
	"context"
	"database/sql"

	"github.com/ibra/centime/internal/database"
)

// TagRepo handles the tag registry.
type TagRepo struct {
	db database.DBTX
}

func NewTagRepo(db database.DBTX) *TagRepo { return &TagRepo{db: db} }

// UpsertID inserts the tag if absent and returns its id either way, as a
// single atomic statement.
func (r *TagRepo) UpsertID(ctx context.Context, name string) (int64, error) {
	row := r.db.QueryRowContext(ctx, `
	INSERT INTO tags(name) VALUES(?)
	ON CONFLICT(name) DO UPDATE SET name=excluded.name
	RETURNING id;
	`, name)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Create inserts a new tag and fails on a duplicate name.
func (r *TagRepo) Create(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO tags(name) VALUES(?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *TagRepo) ByName(ctx context.Context, name string) (*Tag, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE name = ?`, name)
	var t Tag
	if err := row.Scan(&t.ID, &t.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// DeleteByName removes the tag globally; link rows go with it. Keyword rules
// that still name the tag keep their serialized reference.
func (r *TagRepo) DeleteByName(ctx context.Context, name string) (int64, error) {
	if _, err := r.db.ExecContext(ctx, `
	DELETE FROM transaction_tags WHERE tag_id IN (SELECT id FROM tags WHERE name = ?)`, name); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE name = ?`, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TagRepo) List(ctx context.Context) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListWithStats returns every tag with usage count and summed amount.
func (r *TagRepo) ListWithStats(ctx context.Context) ([]TagStat, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT t.id, t.name, COUNT(tt.transaction_id), COALESCE(SUM(tr.amount), 0)
	FROM tags t
	LEFT JOIN transaction_tags tt ON tt.tag_id = t.id
	LEFT JOIN transactions tr ON tr.id = tt.transaction_id
	GROUP BY t.id, t.name
	ORDER BY t.name;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TagStat
	for rows.Next() {
		var s TagStat
		if err := rows.Scan(&s.ID, &s.Name, &s.TransactionCount, &s.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
