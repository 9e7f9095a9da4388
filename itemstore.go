package questionforge

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ItemStore is the persistent content store for accepted items. The pipeline
// core never touches it; batch callers write accepted items here and the
// review surface reads them back.
type ItemStore struct {
	db *sql.DB
}

// StoredItem is an accepted question as persisted, with its review state.
type StoredItem struct {
	ID            string    `json:"id"`
	Product       string    `json:"product"`
	SubSkill      string    `json:"sub_skill"`
	Difficulty    int       `json:"difficulty"`
	Text          string    `json:"text"`
	Options       string    `json:"options"` // JSON array of strings
	CorrectAnswer string    `json:"correct_answer"`
	Solution      string    `json:"solution"`
	PassageTopic  string    `json:"passage_topic,omitempty"`
	PassageText   string    `json:"passage_text,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ReviewStatus  string    `json:"review_status"` // "pending", "approved", "rejected"
}

// BatchRecord is the telemetry row for one generation batch.
type BatchRecord struct {
	ID          string     `json:"id"`
	Product     string     `json:"product"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Requested   int        `json:"requested"`
	Accepted    int        `json:"accepted"`
	Failed      int        `json:"failed"`
	Cost        float64    `json:"cost"`
}

// OpenItemStore opens (or creates) the sqlite item database.
func OpenItemStore(path string) (*ItemStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open item store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping item store: %w", err)
	}
	return &ItemStore{db: db}, nil
}

// Close closes the database connection.
func (s *ItemStore) Close() error {
	return s.db.Close()
}

// InitSchema creates the tables if they don't exist.
func (s *ItemStore) InitSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			product TEXT NOT NULL,
			sub_skill TEXT NOT NULL,
			difficulty INTEGER NOT NULL,
			text TEXT NOT NULL,
			options TEXT NOT NULL,
			correct_answer TEXT NOT NULL,
			solution TEXT NOT NULL,
			passage_topic TEXT,
			passage_text TEXT,
			created_at DATETIME NOT NULL,
			review_status TEXT NOT NULL DEFAULT 'pending'
		)`,
		`CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			product TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			completed_at DATETIME,
			requested INTEGER NOT NULL,
			accepted INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			cost REAL NOT NULL DEFAULT 0
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// InsertItem persists an accepted question with review status "pending".
func (s *ItemStore) InsertItem(q *Question) error {
	options, err := OptionsToJSON(q.Options)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO items (id, product, sub_skill, difficulty, text, options, correct_answer, solution, passage_topic, passage_text, created_at, review_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')`,
		q.ID, q.Product, q.SubSkill, q.Difficulty, q.Text, options,
		q.CorrectAnswer, q.Solution, q.PassageTopic, q.PassageText, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

const itemColumns = `id, product, sub_skill, difficulty, text, options, correct_answer, solution, passage_topic, passage_text, created_at, review_status`

// GetItem retrieves one item by ID.
func (s *ItemStore) GetItem(id string) (*StoredItem, error) {
	row := s.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListItems returns items with the given review status, newest first.
// An empty status returns all items.
func (s *ItemStore) ListItems(status string, limit int) ([]StoredItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []interface{}
	if status != "" {
		query += ` WHERE review_status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []StoredItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

// ListTopics returns the distinct passage topics already in the store.
func (s *ItemStore) ListTopics() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT passage_topic FROM items WHERE passage_topic != '' ORDER BY passage_topic`)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topics: %w", err)
	}
	return topics, nil
}

// SetReviewStatus updates an item's review state.
func (s *ItemStore) SetReviewStatus(id, status string) error {
	res, err := s.db.Exec(`UPDATE items SET review_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update review status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item not found: %s", id)
	}
	return nil
}

// CountByStatus returns the number of items with the given review status.
func (s *ItemStore) CountByStatus(status string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM items WHERE review_status = ?`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// CreateBatch records the start of a generation batch.
func (s *ItemStore) CreateBatch(b *BatchRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO batches (id, product, started_at, requested) VALUES (?, ?, ?, ?)`,
		b.ID, b.Product, b.StartedAt, b.Requested,
	)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

// FinishBatch records a batch's final telemetry.
func (s *ItemStore) FinishBatch(id string, accepted, failed int, cost float64) error {
	_, err := s.db.Exec(
		`UPDATE batches SET completed_at = ?, accepted = ?, failed = ?, cost = ? WHERE id = ?`,
		time.Now(), accepted, failed, cost, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish batch: %w", err)
	}
	return nil
}

func scanItem(row interface{ Scan(...interface{}) error }) (*StoredItem, error) {
	var item StoredItem
	err := row.Scan(
		&item.ID, &item.Product, &item.SubSkill, &item.Difficulty,
		&item.Text, &item.Options, &item.CorrectAnswer, &item.Solution,
		&item.PassageTopic, &item.PassageText, &item.CreatedAt, &item.ReviewStatus,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// OptionsToJSON serializes an option list for storage.
func OptionsToJSON(options []string) (string, error) {
	data, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("failed to marshal options: %w", err)
	}
	return string(data), nil
}

// JSONToOptions deserializes a stored option list.
func JSONToOptions(optionsJSON string) ([]string, error) {
	var options []string
	if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return options, nil
}
