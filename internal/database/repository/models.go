package repository

import "time"

// Transaction represents a transaction row. Date is stored as ISO text
// (YYYY-MM-DD) to match the SQLite schema. Tags carries plain tag names on the
// wire; the tag registry rows themselves live behind TagRepo.
type Transaction struct {
	ID          int64     `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	CardType    string    `json:"card_type"`
	Date        string    `json:"date"`
	Time        *string   `json:"time,omitempty"`
	Bank        string    `json:"bank"`
	FullEmail   string    `json:"full_email,omitempty"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	Tags        []string  `json:"tags"`
}

// Tag represents a tag row.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TagStat is a tag with usage statistics.
type TagStat struct {
	Tag
	TransactionCount int     `json:"transaction_count"`
	TotalAmount      float64 `json:"total_amount"`
}

// KeywordRule maps a keyword to a category and/or tag names. Tags are
// persisted as comma-joined text; the repository splits and joins.
type KeywordRule struct {
	ID       int64    `json:"-"`
	Keyword  string   `json:"keyword"`
	Category *string  `json:"category"`
	Tags     []string `json:"tags"`
}

// CategoryStat is a derived category with usage statistics; categories exist
// only as text on transaction rows.
type CategoryStat struct {
	Name             string  `json:"name"`
	TransactionCount int     `json:"transaction_count"`
	TotalAmount      float64 `json:"total_amount"`
}

// MonthlyTotal is one month's summed amount (month is YYYY-MM).
type MonthlyTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

// DashboardStats summarises the whole store.
type DashboardStats struct {
	TotalTransactions int     `json:"total_transactions"`
	TotalSpent        float64 `json:"total_spent"`
	Uncategorized     int     `json:"uncategorized"`
	TagCount          int     `json:"tag_count"`
}
