package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ibra/centime/internal/database"
)

// KeywordRuleRepo stores keyword categorization rules. The keyword is the
// natural key; tags are serialized as comma-joined text.
type KeywordRuleRepo struct {
	db database.DBTX
}

func NewKeywordRuleRepo(db database.DBTX) *KeywordRuleRepo { return &KeywordRuleRepo{db: db} }

// List returns all rules in insertion order. Matching iterates this order, so
// it is the tie-break for last-match-wins resolution.
func (r *KeywordRuleRepo) List(ctx context.Context) ([]KeywordRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, keyword, category, tags FROM keyword_rules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []KeywordRule
	for rows.Next() {
		kr, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, kr)
	}
	return out, rows.Err()
}

func (r *KeywordRuleRepo) Get(ctx context.Context, keyword string) (*KeywordRule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, keyword, category, tags FROM keyword_rules WHERE keyword = ?`, keyword)
	kr, err := scanRule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &kr, nil
}

// Create inserts a new rule and fails on a duplicate keyword.
func (r *KeywordRuleRepo) Create(ctx context.Context, kr KeywordRule) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO keyword_rules(keyword, category, tags) VALUES(?, ?, ?)`,
		kr.Keyword, kr.Category, joinTags(kr.Tags))
	return err
}

// UpdateCategory sets only the category of an existing rule.
func (r *KeywordRuleRepo) UpdateCategory(ctx context.Context, keyword, category string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE keyword_rules SET category = ? WHERE keyword = ?`, category, keyword)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateTags sets only the tag list of an existing rule.
func (r *KeywordRuleRepo) UpdateTags(ctx context.Context, keyword string, tags []string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE keyword_rules SET tags = ? WHERE keyword = ?`, joinTags(tags), keyword)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpsertCategory stores keyword -> category, preserving any existing tags.
func (r *KeywordRuleRepo) UpsertCategory(ctx context.Context, keyword, category string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO keyword_rules(keyword, category) VALUES(?, ?)
	ON CONFLICT(keyword) DO UPDATE SET category=excluded.category;
	`, keyword, category)
	return err
}

// UpsertTags stores keyword -> tags, preserving any existing category.
func (r *KeywordRuleRepo) UpsertTags(ctx context.Context, keyword string, tags []string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO keyword_rules(keyword, tags) VALUES(?, ?)
	ON CONFLICT(keyword) DO UPDATE SET tags=excluded.tags;
	`, keyword, joinTags(tags))
	return err
}

func (r *KeywordRuleRepo) Delete(ctx context.Context, keyword string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM keyword_rules WHERE keyword = ?`, keyword)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanRule(row scanner) (KeywordRule, error) {
	var kr KeywordRule
	var category, tags sql.NullString
	if err := row.Scan(&kr.ID, &kr.Keyword, &category, &tags); err != nil {
		return KeywordRule{}, err
	}
	if category.Valid && category.String != "" {
		kr.Category = &category.String
	}
	if tags.Valid {
		kr.Tags = splitTags(tags.String)
	}
	return kr, nil
}

func joinTags(tags []string) string {
	var clean []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, ",")
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
