package service

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/ibra/centime/internal/database/repository"
)

const duplicateSimilarityThreshold = 0.6

// Extractor drives the companion Python scripts that pull transaction
// candidates out of emails. Both scripts speak JSON on stdout; the process
// queue script additionally reads the email batch on stdin.
type Extractor struct {
	Python        string
	ExtractScript string
	ProcessScript string
	Timeout       time.Duration

	Ingest       *IngestService
	Transactions *repository.TransactionRepo
}

// ExtractedEmail pairs a raw email with the candidate transaction pulled out
// of it.
type ExtractedEmail struct {
	Email       json.RawMessage `json:"email"`
	Transaction json.RawMessage `json:"transaction"`
}

// ProcessResult summarises one queue run. Failed candidates never leave
// partial writes; duplicates are skipped, not inserted.
type ProcessResult struct {
	Ingested   []repository.Transaction `json:"ingested"`
	Duplicates int                      `json:"duplicates"`
	Errors     []string                 `json:"errors"`
}

// ExtractEmails runs the extraction script for the given date window.
func (e *Extractor) ExtractEmails(ctx context.Context, startDate, endDate string) ([]ExtractedEmail, error) {
	if strings.TrimSpace(startDate) == "" || strings.TrimSpace(endDate) == "" {
		return nil, validationf("startDate and endDate are required")
	}
	out, err := e.run(ctx, e.ExtractScript, nil, startDate, endDate)
	if err != nil {
		return nil, err
	}
	var results []ExtractedEmail
	if err := json.Unmarshal(out, &results); err != nil {
		return nil, &ExternalProcessError{Script: e.ExtractScript, Err: err}
	}
	return results, nil
}

// ProcessQueue feeds the email batch to the processing script and ingests
// each returned candidate through the regular pipeline, one SQLite
// transaction per candidate. Near-duplicates of recent rows are skipped.
func (e *Extractor) ProcessQueue(ctx context.Context, emails []json.RawMessage) (ProcessResult, error) {
	var res ProcessResult
	if len(emails) == 0 {
		return res, validationf("emails are required")
	}
	stdin, err := json.Marshal(emails)
	if err != nil {
		return res, validationf("emails are not valid JSON: %v", err)
	}
	out, err := e.run(ctx, e.ProcessScript, stdin)
	if err != nil {
		return res, err
	}
	var candidates []IngestPayload
	if err := json.Unmarshal(out, &candidates); err != nil {
		return res, &ExternalProcessError{Script: e.ProcessScript, Err: err}
	}

	existing, err := e.Transactions.List(ctx, repository.TransactionFilters{})
	if err != nil {
		return res, &PersistenceError{Op: "load transactions for dedup", Err: err}
	}

	for _, c := range candidates {
		if isNearDuplicate(c, existing) {
			res.Duplicates++
			continue
		}
		t, _, err := e.Ingest.Ingest(ctx, c)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		res.Ingested = append(res.Ingested, *t)
		existing = append(existing, *t)
	}
	return res, nil
}

func (e *Extractor) run(ctx context.Context, script string, stdin []byte, args ...string) ([]byte, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.Python, append([]string{script}, args...)...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ExternalProcessError{
			Script: script,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// isNearDuplicate flags a candidate whose amount and date match an existing
// row and whose description is close by edit distance.
func isNearDuplicate(c IngestPayload, existing []repository.Transaction) bool {
	if c.Amount == nil {
		return false
	}
	for _, t := range existing {
		if t.Amount != *c.Amount || t.Date != strings.TrimSpace(c.Date) {
			continue
		}
		if descSimilarity(t.Description, c.Description) >= duplicateSimilarityThreshold {
			return true
		}
	}
	return false
}

func descSimilarity(a, b string) float64 {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1
	}
	maxlen := len(a)
	if len(b) > maxlen {
		maxlen = len(b)
	}
	if maxlen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxlen)
}
