// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists papers, enrichments, profiles, feedback, scores,
// and briefings in a SQLite database under the data directory.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const dbFile = "digest.db"

// Typed not-found errors for the data-integrity taxonomy.
var (
	ErrProfileNotFound  = errors.New("store: profile not found")
	ErrBriefingNotFound = errors.New("store: briefing not found")
)

// Store wraps the digest SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at dataDir/digest.db, creating the
// schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			title TEXT,
			abstract TEXT,
			authors TEXT,
			categories TEXT,
			pdf_url TEXT,
			published TEXT,
			updated TEXT,
			status TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_status ON papers(status)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS enrichments (
			paper_id TEXT PRIMARY KEY REFERENCES papers(id),
			topics TEXT,
			facets TEXT,
			embedding TEXT,
			math_depth REAL,
			has_code INTEGER,
			has_data INTEGER,
			has_baselines INTEGER,
			has_ablations INTEGER,
			has_multiple_evals INTEGER,
			enriched_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			paper_id TEXT NOT NULL,
			action TEXT NOT NULL,
			weight REAL NOT NULL,
			context TEXT,
			created_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_user ON feedback(user_id)`,
		`CREATE TABLE IF NOT EXISTS scores (
			user_id TEXT NOT NULL,
			paper_id TEXT NOT NULL,
			run_id TEXT NOT NULL,
			signals TEXT,
			final REAL NOT NULL,
			why_shown TEXT,
			created_at TEXT,
			PRIMARY KEY (user_id, paper_id, run_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_run ON scores(user_id, run_id)`,
		`CREATE TABLE IF NOT EXISTS briefings (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			run_id TEXT,
			paper_ids TEXT,
			paper_count INTEGER,
			avg_score REAL,
			status TEXT,
			created_at TEXT,
			PRIMARY KEY (user_id, date)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// --- papers ---

// UpsertPaper creates or replaces a paper record keyed by base ID.
func (s *Store) UpsertPaper(ctx context.Context, p *types.Paper) error {
	authorsJSON, _ := json.Marshal(p.Authors)
	categoriesJSON, _ := json.Marshal(p.Categories)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (id, version, title, abstract, authors, categories, pdf_url, published, updated, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			version=excluded.version, title=excluded.title, abstract=excluded.abstract,
			authors=excluded.authors, categories=excluded.categories,
			pdf_url=excluded.pdf_url, published=excluded.published,
			updated=excluded.updated, status=excluded.status`,
		p.ID, p.Version, p.Title, p.Abstract, string(authorsJSON), string(categoriesJSON),
		p.PDFURL, formatTime(p.Published), formatTime(p.Updated), string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", p.ID, err)
	}
	return nil
}

// GetPaper returns the stored paper, or nil when no record exists.
func (s *Store) GetPaper(ctx context.Context, id string) (*types.Paper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, version, title, abstract, authors, categories, pdf_url, published, updated, status
		 FROM papers WHERE id = ?`, id)
	p, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading paper %s: %w", id, err)
	}
	return p, nil
}

// ListPapersByStatus returns all papers in the given lifecycle state, newest
// first.
func (s *Store) ListPapersByStatus(ctx context.Context, status types.PaperStatus) ([]*types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version, title, abstract, authors, categories, pdf_url, published, updated, status
		 FROM papers WHERE status = ? ORDER BY published DESC, id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing papers by status %s: %w", status, err)
	}
	defer rows.Close()

	var papers []*types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// SetPaperStatus transitions one paper's lifecycle state.
func (s *Store) SetPaperStatus(ctx context.Context, id string, status types.PaperStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE papers SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("updating status of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("updating status of %s: no such paper", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (*types.Paper, error) {
	var p types.Paper
	var authorsJSON, categoriesJSON, published, updated, status string
	if err := row.Scan(&p.ID, &p.Version, &p.Title, &p.Abstract, &authorsJSON,
		&categoriesJSON, &p.PDFURL, &published, &updated, &status); err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(authorsJSON), &p.Authors)
	json.Unmarshal([]byte(categoriesJSON), &p.Categories)
	p.Published = parseTime(published)
	p.Updated = parseTime(updated)
	p.Status = types.PaperStatus(status)
	return &p, nil
}

// --- categories ---

// UpsertCategory creates or refreshes one taxonomy entry.
func (s *Store) UpsertCategory(ctx context.Context, c types.Category) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, description=excluded.description`,
		c.ID, c.Name, c.Description)
	if err != nil {
		return fmt.Errorf("upserting category %s: %w", c.ID, err)
	}
	return nil
}

// ListCategories returns the stored taxonomy ordered by identifier.
func (s *Store) ListCategories(ctx context.Context) ([]*types.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []*types.Category
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// --- enrichments ---

// PutEnrichment creates or overwrites the enrichment record for a paper.
func (s *Store) PutEnrichment(ctx context.Context, e *types.Enrichment) error {
	topicsJSON, _ := json.Marshal(e.Topics)
	facetsJSON, _ := json.Marshal(e.Facets)
	embeddingJSON, _ := json.Marshal(e.Embedding)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichments (paper_id, topics, facets, embedding, math_depth,
			has_code, has_data, has_baselines, has_ablations, has_multiple_evals, enriched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
			topics=excluded.topics, facets=excluded.facets, embedding=excluded.embedding,
			math_depth=excluded.math_depth, has_code=excluded.has_code,
			has_data=excluded.has_data, has_baselines=excluded.has_baselines,
			has_ablations=excluded.has_ablations,
			has_multiple_evals=excluded.has_multiple_evals, enriched_at=excluded.enriched_at`,
		e.PaperID, string(topicsJSON), string(facetsJSON), string(embeddingJSON), e.MathDepth,
		e.Evidence.HasCode, e.Evidence.HasData, e.Evidence.HasBaselines,
		e.Evidence.HasAblations, e.Evidence.HasMultipleEvals,
		formatTime(e.EnrichedAt))
	if err != nil {
		return fmt.Errorf("upserting enrichment %s: %w", e.PaperID, err)
	}
	return nil
}

// GetEnrichment returns the enrichment record, or nil when the paper has not
// been enriched.
func (s *Store) GetEnrichment(ctx context.Context, paperID string) (*types.Enrichment, error) {
	var e types.Enrichment
	var topicsJSON, facetsJSON, embeddingJSON, enrichedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT paper_id, topics, facets, embedding, math_depth,
			has_code, has_data, has_baselines, has_ablations, has_multiple_evals, enriched_at
		 FROM enrichments WHERE paper_id = ?`, paperID).
		Scan(&e.PaperID, &topicsJSON, &facetsJSON, &embeddingJSON, &e.MathDepth,
			&e.Evidence.HasCode, &e.Evidence.HasData, &e.Evidence.HasBaselines,
			&e.Evidence.HasAblations, &e.Evidence.HasMultipleEvals, &enrichedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading enrichment %s: %w", paperID, err)
	}
	json.Unmarshal([]byte(topicsJSON), &e.Topics)
	json.Unmarshal([]byte(facetsJSON), &e.Facets)
	json.Unmarshal([]byte(embeddingJSON), &e.Embedding)
	e.EnrichedAt = parseTime(enrichedAt)
	return &e, nil
}

// --- profiles ---

// PutProfile creates or replaces a user profile. The record is stored as one
// JSON document keyed by user ID.
func (s *Store) PutProfile(ctx context.Context, p *types.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile %s: %w", p.UserID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
		p.UserID, string(data), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting profile %s: %w", p.UserID, err)
	}
	return nil
}

// GetProfile returns the stored profile or ErrProfileNotFound.
func (s *Store) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM profiles WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", userID, err)
	}
	var p types.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", userID, err)
	}
	return &p, nil
}

// --- feedback ---

// AppendFeedback adds one entry to the append-only feedback log.
func (s *Store) AppendFeedback(ctx context.Context, fb *types.Feedback) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (user_id, paper_id, action, weight, context, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		fb.UserID, fb.PaperID, string(fb.Action), fb.Weight, fb.Context,
		formatTime(fb.CreatedAt))
	if err != nil {
		return fmt.Errorf("appending feedback: %w", err)
	}
	return nil
}

// ListFeedback returns a user's feedback log in submission order.
func (s *Store) ListFeedback(ctx context.Context, userID string) ([]*types.Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, paper_id, action, weight, context, created_at
		 FROM feedback WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing feedback for %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []*types.Feedback
	for rows.Next() {
		var fb types.Feedback
		var action, createdAt string
		if err := rows.Scan(&fb.UserID, &fb.PaperID, &action, &fb.Weight,
			&fb.Context, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		fb.Action = types.FeedbackAction(action)
		fb.CreatedAt = parseTime(createdAt)
		entries = append(entries, &fb)
	}
	return entries, rows.Err()
}

// --- scores ---

// PutScores writes one ranking run's scores in a single transaction.
func (s *Store) PutScores(ctx context.Context, scores []*types.Score) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO scores (user_id, paper_id, run_id, signals, final, why_shown, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, score := range scores {
		signalsJSON, _ := json.Marshal(score.Signals)
		whyJSON, _ := json.Marshal(score.WhyShown)
		if _, err := stmt.ExecContext(ctx,
			score.UserID, score.PaperID, score.RunID, string(signalsJSON),
			score.Final, string(whyJSON), formatTime(score.CreatedAt)); err != nil {
			return fmt.Errorf("inserting score for %s: %w", score.PaperID, err)
		}
	}
	return tx.Commit()
}

// ListScores returns one run's scores for a user, best first.
func (s *Store) ListScores(ctx context.Context, userID, runID string) ([]*types.Score, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, paper_id, run_id, signals, final, why_shown, created_at
		 FROM scores WHERE user_id = ? AND run_id = ?
		 ORDER BY final DESC, paper_id`, userID, runID)
	if err != nil {
		return nil, fmt.Errorf("listing scores for %s run %s: %w", userID, runID, err)
	}
	defer rows.Close()

	var scores []*types.Score
	for rows.Next() {
		var score types.Score
		var signalsJSON, whyJSON, createdAt string
		if err := rows.Scan(&score.UserID, &score.PaperID, &score.RunID,
			&signalsJSON, &score.Final, &whyJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		json.Unmarshal([]byte(signalsJSON), &score.Signals)
		json.Unmarshal([]byte(whyJSON), &score.WhyShown)
		score.CreatedAt = parseTime(createdAt)
		scores = append(scores, &score)
	}
	return scores, rows.Err()
}

// --- briefings ---

// PutBriefing creates or replaces the briefing for a (user, date) pair.
func (s *Store) PutBriefing(ctx context.Context, b *types.Briefing) error {
	idsJSON, _ := json.Marshal(b.PaperIDs)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO briefings (user_id, date, run_id, paper_ids, paper_count, avg_score, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, date) DO UPDATE SET
			run_id=excluded.run_id, paper_ids=excluded.paper_ids,
			paper_count=excluded.paper_count, avg_score=excluded.avg_score,
			status=excluded.status, created_at=excluded.created_at`,
		b.UserID, b.Date, b.RunID, string(idsJSON), b.PaperCount, b.AvgScore,
		string(b.Status), formatTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("upserting briefing %s/%s: %w", b.UserID, b.Date, err)
	}
	return nil
}

// GetBriefing returns the briefing for a (user, date) pair or
// ErrBriefingNotFound.
func (s *Store) GetBriefing(ctx context.Context, userID, date string) (*types.Briefing, error) {
	var b types.Briefing
	var idsJSON, status, createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, date, run_id, paper_ids, paper_count, avg_score, status, created_at
		 FROM briefings WHERE user_id = ? AND date = ?`, userID, date).
		Scan(&b.UserID, &b.Date, &b.RunID, &idsJSON, &b.PaperCount, &b.AvgScore,
			&status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("briefing %s/%s: %w", userID, date, ErrBriefingNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading briefing %s/%s: %w", userID, date, err)
	}
	json.Unmarshal([]byte(idsJSON), &b.PaperIDs)
	b.Status = types.BriefingStatus(status)
	b.CreatedAt = parseTime(createdAt)
	return &b, nil
}

// SetBriefingStatus transitions a briefing's lifecycle state.
func (s *Store) SetBriefingStatus(ctx context.Context, userID, date string, status types.BriefingStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE briefings SET status = ? WHERE user_id = ? AND date = ?`,
		string(status), userID, date)
	if err != nil {
		return fmt.Errorf("updating briefing %s/%s: %w", userID, date, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("briefing %s/%s: %w", userID, date, ErrBriefingNotFound)
	}
	return nil
}

// --- time helpers ---

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
