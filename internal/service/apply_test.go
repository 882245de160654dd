package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedTransactions(t *testing.T, svc *IngestService, descriptions ...string) {
	t.Helper()
	ctx := context.Background()
	for _, d := range descriptions {
		_, _, err := svc.Ingest(ctx, IngestPayload{
			Amount:      floatptr(-10),
			Description: d,
			CardType:    "Credit",
			Date:        "2024-03-15",
			Bank:        "TD",
		})
		require.NoError(t, err)
	}
}

func TestApplyCategory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	rules := NewRuleService(db)
	ingest := NewIngestService(db, rules)
	apply := NewApplyService(db)

	seedTransactions(t, ingest, "NETFLIX.COM 123", "Netflix Monthly", "GROCERY MART")

	updated, err := apply.ApplyCategory(ctx, "netflix", "Entertainment")
	require.NoError(t, err)
	require.EqualValues(t, 2, updated)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM transactions WHERE category = 'Entertainment'").Scan(&count))
	require.Equal(t, 2, count)

	// rule stored for future ingestion
	stored, err := rules.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "netflix", stored[0].Keyword)
	require.Equal(t, "Entertainment", *stored[0].Category)

	tx, applied, err := ingest.Ingest(ctx, IngestPayload{
		Amount:      floatptr(-15.99),
		Description: "NETFLIX RENEWAL",
		CardType:    "Credit",
		Date:        "2024-04-01",
		Bank:        "TD",
	})
	require.NoError(t, err)
	require.Equal(t, "Entertainment", tx.Category)
	require.Len(t, applied, 1)
}

func TestApplyCategoryZeroMatchesStillStoresRule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	apply := NewApplyService(db)

	updated, err := apply.ApplyCategory(ctx, "spotify", "Music")
	require.NoError(t, err)
	require.Zero(t, updated)

	rule, err := NewRuleService(db).Rules.Get(ctx, "spotify")
	require.NoError(t, err)
	require.NotNil(t, rule)
	require.Equal(t, "Music", *rule.Category)
}

func TestApplyTags(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	rules := NewRuleService(db)
	ingest := NewIngestService(db, rules)
	apply := NewApplyService(db)

	seedTransactions(t, ingest, "NETFLIX.COM 1", "netflix again", "NETFLIX third", "OTHER SHOP")

	updated, err := apply.ApplyTags(ctx, "netflix", []string{"subscription", "entertainment"})
	require.NoError(t, err)
	require.EqualValues(t, 3, updated)

	var links int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM transaction_tags").Scan(&links))
	require.Equal(t, 6, links)

	stored, err := rules.Rules.Get(ctx, "netflix")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Nil(t, stored.Category)
	require.Equal(t, []string{"subscription", "entertainment"}, stored.Tags)

	// applying twice must not duplicate links
	updated, err = apply.ApplyTags(ctx, "netflix", []string{"subscription", "entertainment"})
	require.NoError(t, err)
	require.EqualValues(t, 3, updated)
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM transaction_tags").Scan(&links))
	require.Equal(t, 6, links)
}

func TestApplyUpsertPreservesOtherField(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	rules := NewRuleService(db)
	apply := NewApplyService(db)

	_, err := apply.ApplyCategory(ctx, "uber", "Transport")
	require.NoError(t, err)
	_, err = apply.ApplyTags(ctx, "uber", []string{"ride"})
	require.NoError(t, err)

	rule, err := rules.Rules.Get(ctx, "uber")
	require.NoError(t, err)
	require.Equal(t, "Transport", *rule.Category)
	require.Equal(t, []string{"ride"}, rule.Tags)

	// category overwrite keeps tags
	_, err = apply.ApplyCategory(ctx, "uber", "Travel")
	require.NoError(t, err)
	rule, err = rules.Rules.Get(ctx, "uber")
	require.NoError(t, err)
	require.Equal(t, "Travel", *rule.Category)
	require.Equal(t, []string{"ride"}, rule.Tags)
}

func TestApplyValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	apply := NewApplyService(db)

	var ve *ValidationError
	_, err := apply.ApplyCategory(ctx, "", "X")
	require.ErrorAs(t, err, &ve)
	_, err = apply.ApplyCategory(ctx, "x", "")
	require.ErrorAs(t, err, &ve)
	_, err = apply.ApplyTags(ctx, "x", nil)
	require.ErrorAs(t, err, &ve)
	_, err = apply.ApplyTags(ctx, "x", []string{"  "})
	require.ErrorAs(t, err, &ve)
}
