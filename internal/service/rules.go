package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ibra/centime/internal/database"
	"github.com/ibra/centime/internal/database/repository"
)

// DefaultCategory is applied when neither payload nor rules provide one.
const DefaultCategory = "Uncategorized"

// RuleApplication records one matched rule for caller visibility. It plays no
// part in resolution.
type RuleApplication struct {
	Keyword  string   `json:"keyword"`
	Category *string  `json:"category"`
	Tags     []string `json:"tags"`
}

// Resolution is the outcome of folding matched rules over the defaults.
type Resolution struct {
	Category string
	Tags     []string
	Applied  []RuleApplication
}

// RuleService owns keyword rules: CRUD plus matching and resolution.
type RuleService struct {
	DB    *sql.DB
	Rules *repository.KeywordRuleRepo
}

func NewRuleService(db *sql.DB) *RuleService {
	return &RuleService{DB: db, Rules: repository.NewKeywordRuleRepo(db)}
}

// FindMatching returns every rule whose keyword appears in description,
// case-insensitively, in rule insertion order. An empty result is normal.
func (s *RuleService) FindMatching(ctx context.Context, description string) ([]repository.KeywordRule, error) {
	rules, err := s.Rules.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load keyword rules", Err: err}
	}
	return matchRules(rules, description), nil
}

func matchRules(rules []repository.KeywordRule, description string) []repository.KeywordRule {
	desc := lowerASCII(description)
	var matched []repository.KeywordRule
	for _, r := range rules {
		kw := lowerASCII(strings.TrimSpace(r.Keyword))
		if kw == "" {
			continue
		}
		if strings.Contains(desc, kw) {
			matched = append(matched, r)
		}
	}
	return matched
}

// lowerASCII folds A-Z only, mirroring sqlite's lower(). Ingest-time matching
// and the SQL-side bulk apply paths must agree on case policy.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// Resolve folds matched rules over the defaults: the last matched rule with a
// category wins; tags accumulate as a union that preserves first-seen order.
// With no matches it is the identity on the defaults.
func Resolve(defaultCategory string, defaultTags []string, matched []repository.KeywordRule) Resolution {
	res := Resolution{Category: strings.TrimSpace(defaultCategory)}
	if res.Category == "" {
		res.Category = DefaultCategory
	}

	seen := make(map[string]struct{})
	addTag := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		res.Tags = append(res.Tags, name)
	}
	for _, t := range defaultTags {
		addTag(t)
	}

	for _, r := range matched {
		if r.Category != nil && strings.TrimSpace(*r.Category) != "" {
			res.Category = strings.TrimSpace(*r.Category)
		}
		for _, t := range r.Tags {
			addTag(t)
		}
		res.Applied = append(res.Applied, RuleApplication{
			Keyword:  r.Keyword,
			Category: r.Category,
			Tags:     r.Tags,
		})
	}
	return res
}

// ListRules returns all stored rules.
func (s *RuleService) ListRules(ctx context.Context) ([]repository.KeywordRule, error) {
	rules, err := s.Rules.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list keyword rules", Err: err}
	}
	return rules, nil
}

// CreateRule inserts a rule; the keyword must be new.
func (s *RuleService) CreateRule(ctx context.Context, keyword string, category *string, tags []string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return validationf("keyword is required")
	}
	err := s.Rules.Create(ctx, repository.KeywordRule{Keyword: keyword, Category: category, Tags: tags})
	if err != nil {
		if isUniqueViolation(err) {
			return &DuplicateError{Entity: "keyword rule", Key: keyword}
		}
		return &PersistenceError{Op: "create keyword rule", Err: err}
	}
	return nil
}

// UpdateRule updates category and/or tags of an existing rule. At least one
// field must be provided.
func (s *RuleService) UpdateRule(ctx context.Context, keyword string, category *string, tags []string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return validationf("keyword is required")
	}
	if category == nil && tags == nil {
		return validationf("at least one of category or tags must be provided")
	}
	err := database.WithTx(s.DB, func(tx *sql.Tx) error {
		rules := repository.NewKeywordRuleRepo(tx)
		if category != nil {
			n, err := rules.UpdateCategory(ctx, keyword, *category)
			if err != nil {
				return err
			}
			if n == 0 {
				return &NotFoundError{Entity: "keyword rule", Key: keyword}
			}
		}
		if tags != nil {
			n, err := rules.UpdateTags(ctx, keyword, tags)
			if err != nil {
				return err
			}
			if n == 0 {
				return &NotFoundError{Entity: "keyword rule", Key: keyword}
			}
		}
		return nil
	})
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nf
		}
		return &PersistenceError{Op: "update keyword rule", Err: err}
	}
	return nil
}

// DeleteRule removes a rule, reporting absence so callers can distinguish
// "already gone" from "deleted".
func (s *RuleService) DeleteRule(ctx context.Context, keyword string) error {
	n, err := s.Rules.Delete(ctx, strings.TrimSpace(keyword))
	if err != nil {
		return &PersistenceError{Op: "delete keyword rule", Err: err}
	}
	if n == 0 {
		return &NotFoundError{Entity: "keyword rule", Key: keyword}
	}
	return nil
}

// sqlite reports constraint violations only through the error text when going
// through database/sql.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}
