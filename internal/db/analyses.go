package db

import "fmt"

type Analysis struct {
	ID             int64  `json:"id"`
	ConversationID string `json:"conversation_id"`
	Summary        string `json:"summary"`
	CreatedAt      string `json:"created_at"`
}

// SaveAnalysis stores the final answer of a conversation.
func (d *DB) SaveAnalysis(conversationID, summary string) (int64, error) {
	res, err := d.conn.Exec(
		"INSERT INTO analyses (conversation_id, summary) VALUES (?, ?)",
		conversationID, summary,
	)
	if err != nil {
		return 0, fmt.Errorf("saving analysis: %w", err)
	}
	return res.LastInsertId()
}

// ListAnalyses returns the newest analyses first. A limit of zero or less means 20.
func (d *DB) ListAnalyses(limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(
		"SELECT id, conversation_id, summary, created_at FROM analyses ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.ConversationID, &a.Summary, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
