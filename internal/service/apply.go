package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ibra/centime/internal/database"
	"github.com/ibra/centime/internal/database/repository"
)

// ApplyService retroactively applies a keyword's category or tags to every
// matching existing transaction and stores the rule for future ingestion.
type ApplyService struct {
	DB *sql.DB
}

func NewApplyService(db *sql.DB) *ApplyService { return &ApplyService{DB: db} }

// ApplyCategory updates the category of every transaction whose description
// contains keyword and upserts the corresponding rule, as one atomic unit.
// Zero matches is success; the rule is still stored.
func (s *ApplyService) ApplyCategory(ctx context.Context, keyword, category string) (int64, error) {
	keyword = strings.TrimSpace(keyword)
	category = strings.TrimSpace(category)
	if keyword == "" {
		return 0, validationf("keyword is required")
	}
	if category == "" {
		return 0, validationf("category is required")
	}

	var updated int64
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		txRepo := repository.NewTransactionRepo(tx)
		ruleRepo := repository.NewKeywordRuleRepo(tx)

		n, err := txRepo.UpdateCategoryByKeyword(ctx, keyword, category)
		if err != nil {
			return err
		}
		updated = n
		return ruleRepo.UpsertCategory(ctx, keyword, category)
	})
	if err != nil {
		return 0, &PersistenceError{Op: "apply keyword category", Err: err}
	}
	return updated, nil
}

// ApplyTags links every given tag to every transaction matching keyword, then
// upserts the rule (existing category untouched). Returns the number of
// distinct matched transactions.
func (s *ApplyService) ApplyTags(ctx context.Context, keyword string, tags []string) (int64, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return 0, validationf("keyword is required")
	}
	var clean []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return 0, validationf("at least one tag is required")
	}

	var updated int64
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		txRepo := repository.NewTransactionRepo(tx)
		tagRepo := repository.NewTagRepo(tx)
		ruleRepo := repository.NewKeywordRuleRepo(tx)

		ids, err := txRepo.MatchingIDs(ctx, keyword)
		if err != nil {
			return err
		}
		for _, name := range clean {
			tagID, err := tagRepo.UpsertID(ctx, name)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := txRepo.AttachTag(ctx, id, tagID); err != nil {
					return err
				}
			}
		}
		updated = int64(len(ids))
		return ruleRepo.UpsertTags(ctx, keyword, clean)
	})
	if err != nil {
		return 0, &PersistenceError{Op: "apply keyword tags", Err: err}
	}
	return updated, nil
}
