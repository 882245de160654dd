package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ibra/centime/internal/database"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	Category  string
	Tag       string
	Search    string
	StartDate string // inclusive, YYYY-MM-DD
	EndDate   string // inclusive, YYYY-MM-DD
}

// TransactionRepo handles transactions and their tag links.
type TransactionRepo struct {
	db database.DBTX
}

func NewTransactionRepo(db database.DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

// Insert persists the row and reads back the generated id and the stored
// created_at so callers report exactly what a later Get would.
func (r *TransactionRepo) Insert(ctx context.Context, t *Transaction) error {
	row := r.db.QueryRowContext(ctx, `
	INSERT INTO transactions(amount, description, card_type, date, time, bank, full_email, category)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id, created_at;
	`, t.Amount, t.Description, t.CardType, t.Date, t.Time, t.Bank, t.FullEmail, t.Category)
	return row.Scan(&t.ID, &t.CreatedAt)
}

func (r *TransactionRepo) Get(ctx context.Context, id int64) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	tags, err := r.TagsFor(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Tags = tagNames(tags)
	return &t, nil
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []any

	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Tag != "" {
		where = append(where, "id IN (SELECT tt.transaction_id FROM transaction_tags tt JOIN tags t ON t.id = tt.tag_id WHERE t.name = ?)")
		args = append(args, f.Tag)
	}
	if f.Search != "" {
		where = append(where, "instr(lower(description), lower(?)) > 0")
		args = append(args, f.Search)
	}
	if f.StartDate != "" {
		where = append(where, "date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		where = append(where, "date <= ?")
		args = append(args, f.EndDate)
	}

	query := selectColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		tags, err := r.TagsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tagNames(tags)
	}
	return out, nil
}

func (r *TransactionRepo) UpdateCategory(ctx context.Context, id int64, category string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET category = ? WHERE id = ?`, category, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TransactionRepo) UpdateAmount(ctx context.Context, id int64, amount float64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET amount = ? WHERE id = ?`, amount, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TransactionRepo) UpdateDescription(ctx context.Context, id int64, description string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET description = ? WHERE id = ?`, description, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes tag links first, then the row.
func (r *TransactionRepo) Delete(ctx context.Context, id int64) (int64, error) {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ?`, id); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AttachTag links a tag to a transaction. Inserting the same pair twice is a
// no-op thanks to the composite primary key.
func (r *TransactionRepo) AttachTag(ctx context.Context, transactionID, tagID int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO transaction_tags(transaction_id, tag_id) VALUES(?, ?)`, transactionID, tagID)
	return err
}

func (r *TransactionRepo) DetachTag(ctx context.Context, transactionID, tagID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transaction_tags WHERE transaction_id = ? AND tag_id = ?`, transactionID, tagID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *TransactionRepo) TagsFor(ctx context.Context, transactionID int64) ([]Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT t.id, t.name FROM tags t
	JOIN transaction_tags tt ON tt.tag_id = t.id
	WHERE tt.transaction_id = ? ORDER BY t.name`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// tagNames flattens registry rows to the names the transaction payload
// carries. Always non-nil so JSON shows an empty array, not null.
func tagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

// MatchingIDs returns ids of transactions whose description contains keyword,
// case-insensitively. instr avoids LIKE wildcard semantics in the keyword.
func (r *TransactionRepo) MatchingIDs(ctx context.Context, keyword string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM transactions WHERE instr(lower(description), lower(?)) > 0 ORDER BY id`, keyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateCategoryByKeyword applies category to every matching transaction in
// one statement and reports how many rows changed.
func (r *TransactionRepo) UpdateCategoryByKeyword(ctx context.Context, keyword, category string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET category = ? WHERE instr(lower(description), lower(?)) > 0`, category, keyword)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const selectColumns = `SELECT id, amount, description, card_type, date, time, bank, full_email, category, created_at`

// scanner handles both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var tm, email, category sql.NullString
	if err := row.Scan(&t.ID, &t.Amount, &t.Description, &t.CardType, &t.Date, &tm,
		&t.Bank, &email, &category, &t.CreatedAt); err != nil {
		return Transaction{}, err
	}
	if tm.Valid {
		t.Time = &tm.String
	}
	if email.Valid {
		t.FullEmail = email.String
	}
	if category.Valid {
		t.Category = category.String
	}
	return t, nil
}
