package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ibra/centime/internal/database"
	"github.com/ibra/centime/internal/database/repository"
)

// TagService manages the tag registry itself.
type TagService struct {
	DB   *sql.DB
	Tags *repository.TagRepo
}

func NewTagService(db *sql.DB) *TagService {
	return &TagService{DB: db, Tags: repository.NewTagRepo(db)}
}

func (s *TagService) ListWithStats(ctx context.Context) ([]repository.TagStat, error) {
	out, err := s.Tags.ListWithStats(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list tags", Err: err}
	}
	return out, nil
}

func (s *TagService) Create(ctx context.Context, name string) (repository.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repository.Tag{}, validationf("name is required")
	}
	id, err := s.Tags.Create(ctx, name)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.Tag{}, &DuplicateError{Entity: "tag", Key: name}
		}
		return repository.Tag{}, &PersistenceError{Op: "create tag", Err: err}
	}
	return repository.Tag{ID: id, Name: name}, nil
}

// Delete removes the tag globally together with its links. Keyword rules that
// still reference the name keep it; the tag is recreated on next application.
func (s *TagService) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationf("name is required")
	}
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		n, err := repository.NewTagRepo(tx).DeleteByName(ctx, name)
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{Entity: "tag", Key: name}
		}
		return nil
	})
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf
	}
	if err != nil {
		return &PersistenceError{Op: "delete tag", Err: err}
	}
	return nil
}
