package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ibra/centime/internal/database"
	"github.com/ibra/centime/internal/database/repository"
)

// IngestPayload is a candidate transaction from manual entry or the email
// extraction path. Amount is a pointer so a missing field is distinguishable
// from zero.
type IngestPayload struct {
	Amount      *float64 `json:"amount"`
	Description string   `json:"description"`
	CardType    string   `json:"card_type"`
	Date        string   `json:"date"`
	Time        *string  `json:"time"`
	Bank        string   `json:"bank"`
	FullEmail   string   `json:"full_email"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// IngestService runs the transaction ingestion pipeline: match rules, resolve
// category and tags, persist the row plus its tag links as one unit.
type IngestService struct {
	DB    *sql.DB
	Rules *RuleService
}

func NewIngestService(db *sql.DB, rules *RuleService) *IngestService {
	return &IngestService{DB: db, Rules: rules}
}

func (p IngestPayload) validate() error {
	if p.Amount == nil {
		return validationf("amount is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return validationf("description is required")
	}
	if strings.TrimSpace(p.Date) == "" {
		return validationf("date is required")
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(p.Date)); err != nil {
		return validationf("date must be YYYY-MM-DD")
	}
	return nil
}

// Ingest validates the payload, resolves category and tags against the stored
// keyword rules, and persists everything atomically. The returned transaction
// carries its final tag list; applied rules are reported separately.
func (s *IngestService) Ingest(ctx context.Context, p IngestPayload) (*repository.Transaction, []RuleApplication, error) {
	if err := p.validate(); err != nil {
		return nil, nil, err
	}

	matched, err := s.Rules.FindMatching(ctx, p.Description)
	if err != nil {
		return nil, nil, err
	}
	res := Resolve(p.Category, p.Tags, matched)

	t := repository.Transaction{
		Amount:      *p.Amount,
		Description: strings.TrimSpace(p.Description),
		CardType:    strings.TrimSpace(p.CardType),
		Date:        strings.TrimSpace(p.Date),
		Time:        p.Time,
		Bank:        strings.TrimSpace(p.Bank),
		FullEmail:   p.FullEmail,
		Category:    res.Category,
	}
	if t.FullEmail == "" {
		t.FullEmail = "No email content"
	}

	err = database.WithTx(s.DB, func(tx *sql.Tx) error {
		txRepo := repository.NewTransactionRepo(tx)
		tagRepo := repository.NewTagRepo(tx)

		if err := txRepo.Insert(ctx, &t); err != nil {
			return err
		}
		for _, name := range res.Tags {
			tagID, err := tagRepo.UpsertID(ctx, name)
			if err != nil {
				return err
			}
			if err := txRepo.AttachTag(ctx, t.ID, tagID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, &PersistenceError{Op: "ingest transaction", Err: err}
	}
	t.Tags = append([]string{}, res.Tags...)
	return &t, res.Applied, nil
}
