package triviaquiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// HistoryDB stores finished rounds. With the default ":memory:" path the
// history lives only as long as the process.
type HistoryDB struct {
	db *sql.DB
}

// OpenHistoryDB opens the database and creates its table
func OpenHistoryDB(dbPath string) (*HistoryDB, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	h := &HistoryDB{db: db}
	if err := h.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

// Close closes the database connection
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			category TEXT NOT NULL,
			text TEXT NOT NULL,
			options TEXT NOT NULL,
			correct_answer TEXT NOT NULL,
			user_answer TEXT NOT NULL,
			outcome TEXT NOT NULL,
			answered_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds (session_id, answered_at)`,
	}

	for _, query := range queries {
		if _, err := h.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// RecordRound appends a finished round and returns its id
func (h *HistoryDB) RecordRound(ctx context.Context, round Round) (int64, error) {
	optionsJSON, err := OptionsToJSON(round.Options)
	if err != nil {
		return 0, err
	}

	res, err := h.db.ExecContext(ctx,
		`INSERT INTO rounds (session_id, question_id, category, text, options, correct_answer, user_answer, outcome, answered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		round.SessionID, round.QuestionID, string(round.Category), round.Text, optionsJSON,
		round.CorrectAnswer, round.UserAnswer, string(round.Outcome), round.AnsweredAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record round: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read round id: %w", err)
	}
	return id, nil
}

// ListRounds returns a session's rounds, most recent first. limit <= 0 returns all.
func (h *HistoryDB) ListRounds(ctx context.Context, sessionID string, limit int) ([]Round, error) {
	query := `SELECT id, session_id, question_id, category, text, options, correct_answer, user_answer, outcome, answered_at
		FROM rounds WHERE session_id = ? ORDER BY answered_at DESC, id DESC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var (
			round       Round
			category    string
			outcome     string
			optionsJSON string
		)
		err := rows.Scan(&round.ID, &round.SessionID, &round.QuestionID, &category, &round.Text, &optionsJSON,
			&round.CorrectAnswer, &round.UserAnswer, &outcome, &round.AnsweredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		round.Category = Category(category)
		round.Outcome = Outcome(outcome)
		if round.Options, err = JSONToOptions(optionsJSON); err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}
	return rounds, nil
}

// SessionStats summarises a session's stored rounds
type SessionStats struct {
	Rounds  int `json:"rounds"`
	Correct int `json:"correct"`
}

// Stats counts rounds and correct answers of a session
func (h *HistoryDB) Stats(ctx context.Context, sessionID string) (SessionStats, error) {
	var stats SessionStats
	err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0) FROM rounds WHERE session_id = ?`,
		string(OutcomeCorrect), sessionID,
	).Scan(&stats.Rounds, &stats.Correct)
	if err != nil {
		return SessionStats{}, fmt.Errorf("failed to get session stats: %w", err)
	}
	return stats, nil
}

// OptionsToJSON converts options to a JSON array string
func OptionsToJSON(options []string) (string, error) {
	if options == nil {
		options = []string{}
	}
	data, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("failed to marshal options: %w", err)
	}
	return string(data), nil
}

// JSONToOptions converts a JSON array string back to options
func JSONToOptions(optionsJSON string) ([]string, error) {
	var options []string
	if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return options, nil
}
