package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/ibra/centime/internal/database"
	"github.com/ibra/centime/internal/database/repository"
)

// TransactionService covers queries and single-row mutations that sit outside
// the ingestion pipeline.
type TransactionService struct {
	DB           *sql.DB
	Transactions *repository.TransactionRepo
	Tags         *repository.TagRepo
}

func NewTransactionService(db *sql.DB) *TransactionService {
	return &TransactionService{
		DB:           db,
		Transactions: repository.NewTransactionRepo(db),
		Tags:         repository.NewTagRepo(db),
	}
}

func (s *TransactionService) List(ctx context.Context, f repository.TransactionFilters) ([]repository.Transaction, error) {
	out, err := s.Transactions.List(ctx, f)
	if err != nil {
		return nil, &PersistenceError{Op: "list transactions", Err: err}
	}
	return out, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (*repository.Transaction, error) {
	t, err := s.Transactions.Get(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get transaction", Err: err}
	}
	if t == nil {
		return nil, &NotFoundError{Entity: "transaction", Key: strconv.FormatInt(id, 10)}
	}
	return t, nil
}

// Delete removes the transaction and its tag links in one transaction.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		n, err := repository.NewTransactionRepo(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{Entity: "transaction", Key: strconv.FormatInt(id, 10)}
		}
		return nil
	})
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf
	}
	if err != nil {
		return &PersistenceError{Op: "delete transaction", Err: err}
	}
	return nil
}

func (s *TransactionService) UpdateCategory(ctx context.Context, id int64, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return validationf("category is required")
	}
	n, err := s.Transactions.UpdateCategory(ctx, id, category)
	if err != nil {
		return &PersistenceError{Op: "update category", Err: err}
	}
	if n == 0 {
		return &NotFoundError{Entity: "transaction", Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (s *TransactionService) UpdateAmount(ctx context.Context, id int64, amount *float64) error {
	if amount == nil {
		return validationf("amount is required")
	}
	n, err := s.Transactions.UpdateAmount(ctx, id, *amount)
	if err != nil {
		return &PersistenceError{Op: "update amount", Err: err}
	}
	if n == 0 {
		return &NotFoundError{Entity: "transaction", Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (s *TransactionService) UpdateDescription(ctx context.Context, id int64, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return validationf("description is required")
	}
	n, err := s.Transactions.UpdateDescription(ctx, id, description)
	if err != nil {
		return &PersistenceError{Op: "update description", Err: err}
	}
	if n == 0 {
		return &NotFoundError{Entity: "transaction", Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (s *TransactionService) TagsFor(ctx context.Context, id int64) ([]repository.Tag, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	tags, err := s.Transactions.TagsFor(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "list transaction tags", Err: err}
	}
	return tags, nil
}

// AddTag upserts the tag and links it to the transaction; linking twice is a
// no-op.
func (s *TransactionService) AddTag(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationf("tag is required")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		tagID, err := repository.NewTagRepo(tx).UpsertID(ctx, name)
		if err != nil {
			return err
		}
		return repository.NewTransactionRepo(tx).AttachTag(ctx, id, tagID)
	})
	if err != nil {
		return &PersistenceError{Op: "add tag", Err: err}
	}
	return nil
}

func (s *TransactionService) RemoveTag(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationf("tag is required")
	}
	tag, err := s.Tags.ByName(ctx, name)
	if err != nil {
		return &PersistenceError{Op: "remove tag", Err: err}
	}
	if tag == nil {
		return &NotFoundError{Entity: "tag", Key: name}
	}
	n, err := s.Transactions.DetachTag(ctx, id, tag.ID)
	if err != nil {
		return &PersistenceError{Op: "remove tag", Err: err}
	}
	if n == 0 {
		return &NotFoundError{Entity: "transaction tag", Key: name}
	}
	return nil
}

func (s *TransactionService) Stats(ctx context.Context) (repository.DashboardStats, error) {
	st, err := s.Transactions.Stats(ctx)
	if err != nil {
		return repository.DashboardStats{}, &PersistenceError{Op: "dashboard stats", Err: err}
	}
	return st, nil
}

func (s *TransactionService) MonthlySpending(ctx context.Context) ([]repository.MonthlyTotal, error) {
	out, err := s.Transactions.MonthlySpending(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "monthly spending", Err: err}
	}
	return out, nil
}

func (s *TransactionService) CategoryBreakdown(ctx context.Context, startDate, endDate string) ([]repository.CategoryStat, error) {
	out, err := s.Transactions.CategoryBreakdown(ctx, startDate, endDate)
	if err != nil {
		return nil, &PersistenceError{Op: "category breakdown", Err: err}
	}
	return out, nil
}

func (s *TransactionService) Categories(ctx context.Context) ([]repository.CategoryStat, error) {
	out, err := s.Transactions.Categories(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list categories", Err: err}
	}
	return out, nil
}
