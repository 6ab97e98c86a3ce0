package search

import (
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true; if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs plainto_tsquery over document titles and content, scoped to one
// organization, ranked by ts_rank with ts_headline snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	const tsQuery = "plainto_tsquery('english', $1)"
	where := fmt.Sprintf(
		"d.organization_id = $2 AND to_tsvector('english', d.title || ' ' || d.content) @@ %s",
		tsQuery,
	)

	countSQL := fmt.Sprintf(`SELECT count(*) FROM documents d WHERE %s`, where)
	var total int
	if err := p.db.QueryRow(countSQL, q.Text, q.OrganizationID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT d.id, d.title,
			ts_headline('english', d.content, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
			d.organization_id
		FROM documents d
		WHERE %s
		ORDER BY ts_rank(to_tsvector('english', d.title || ' ' || d.content), %s) DESC
		LIMIT %d`, tsQuery, where, tsQuery, limit)

	rows, err := p.db.Query(dataSQL, q.Text, q.OrganizationID)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.OrganizationID); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}
