package repository

import "context"

// Stats returns whole-store dashboard numbers. Spending counts only negative
// amounts (charges).
func (r *TransactionRepo) Stats(ctx context.Context) (DashboardStats, error) {
	var s DashboardStats
	row := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*),
	       COALESCE(SUM(CASE WHEN amount < 0 THEN amount ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN category IS NULL OR category = '' OR category = 'Uncategorized' THEN 1 ELSE 0 END), 0)
	FROM transactions;
	`)
	if err := row.Scan(&s.TotalTransactions, &s.TotalSpent, &s.Uncategorized); err != nil {
		return DashboardStats{}, err
	}
	row = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`)
	if err := row.Scan(&s.TagCount); err != nil {
		return DashboardStats{}, err
	}
	return s, nil
}

// MonthlySpending groups amounts by calendar month of the ISO date text.
func (r *TransactionRepo) MonthlySpending(ctx context.Context) ([]MonthlyTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT substr(date, 1, 7) AS month, SUM(amount)
	FROM transactions
	GROUP BY month
	ORDER BY month;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthlyTotal
	for rows.Next() {
		var m MonthlyTotal
		if err := rows.Scan(&m.Month, &m.Total); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CategoryBreakdown sums per category within an optional inclusive date
// window. Empty bounds mean unbounded.
func (r *TransactionRepo) CategoryBreakdown(ctx context.Context, startDate, endDate string) ([]CategoryStat, error) {
	query := `
	SELECT COALESCE(NULLIF(category, ''), 'Uncategorized'), COUNT(*), SUM(amount)
	FROM transactions`
	var where []string
	var args []any
	if startDate != "" {
		where = append(where, "date >= ?")
		args = append(args, startDate)
	}
	if endDate != "" {
		where = append(where, "date <= ?")
		args = append(args, endDate)
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += " GROUP BY 1 ORDER BY 3 ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryStat
	for rows.Next() {
		var c CategoryStat
		if err := rows.Scan(&c.Name, &c.TransactionCount, &c.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Categories lists distinct categories with counts, for the settings view.
func (r *TransactionRepo) Categories(ctx context.Context) ([]CategoryStat, error) {
	return r.CategoryBreakdown(ctx, "", "")
}
