package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a local SQLite snapshot of the blog content. It implements
// Source so builds can run without reaching the backend.
type Store struct {
	db *sql.DB
}

var _ Source = (*Store)(nil)

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets builds read while sync writes; busy_timeout makes writers
	// wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS home (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    company_title TEXT NOT NULL,
    company_thumbnail TEXT,
    about_url TEXT NOT NULL DEFAULT '',
    contact_url TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS topics (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    renditions TEXT
);
CREATE TABLE IF NOT EXISTS articles (
    id TEXT PRIMARY KEY,
    topic_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    published_date TEXT NOT NULL,
    content TEXT NOT NULL,
    image_caption TEXT NOT NULL DEFAULT '',
    renditions TEXT,
    author_renditions TEXT
);
CREATE INDEX IF NOT EXISTS articles_topic_date ON articles (topic_id, published_date DESC);
`)
	return err
}

// TopicIDs returns topic ids in home page order.
func (s *Store) TopicIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM topics ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TopicName returns the name of a topic, or ErrNotFound.
func (s *Store) TopicName(ctx context.Context, topicID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM topics WHERE id = ?`, topicID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("topic %q: %w", topicID, ErrNotFound)
	}
	return name, err
}

// TopicArticles lists a topic's articles ordered by date descending. An
// unknown topic has no articles.
func (s *Store) TopicArticles(ctx context.Context, topicID string) (TopicArticles, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, published_date, renditions FROM articles WHERE topic_id = ? ORDER BY published_date DESC, id`, topicID)
	if err != nil {
		return TopicArticles{}, err
	}
	defer rows.Close()

	var out TopicArticles
	for rows.Next() {
		var a Article
		var date string
		var renditions sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &date, &renditions); err != nil {
			return TopicArticles{}, err
		}
		a.PublishedDate = parseStoredTime(date)
		if a.Renditions, err = unmarshalRenditions(renditions); err != nil {
			return TopicArticles{}, fmt.Errorf("article %s: %w", a.ID, err)
		}
		out.Articles = append(out.Articles, a)
	}
	return out, rows.Err()
}

// AllArticles returns every article id, newest first.
func (s *Store) AllArticles(ctx context.Context) ([]ArticleRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM articles ORDER BY published_date DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ArticleRef
	for rows.Next() {
		var r ArticleRef
		if err := rows.Scan(&r.ID); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// ArticleDetails returns one article. TopicName is empty when the stored
// topic id no longer resolves.
func (s *Store) ArticleDetails(ctx context.Context, articleID string) (ArticleDetail, error) {
	var d ArticleDetail
	var date string
	var topicName sql.NullString
	var renditions, avatar sql.NullString
	err := s.db.QueryRowContext(ctx, `
SELECT a.id, a.name, a.author, a.published_date, a.content, a.image_caption,
       a.renditions, a.author_renditions, a.topic_id, t.name
FROM articles a LEFT JOIN topics t ON t.id = a.topic_id
WHERE a.id = ?`, articleID).
		Scan(&d.ID, &d.Name, &d.Title, &date, &d.Content, &d.ImageCaption,
			&renditions, &avatar, &d.TopicID, &topicName)
	if errors.Is(err, sql.ErrNoRows) {
		return ArticleDetail{}, fmt.Errorf("article %q: %w", articleID, ErrNotFound)
	}
	if err != nil {
		return ArticleDetail{}, err
	}
	d.Date = parseStoredTime(date)
	d.TopicName = topicName.String
	if d.Renditions, err = unmarshalRenditions(renditions); err != nil {
		return ArticleDetail{}, fmt.Errorf("article %s: %w", d.ID, err)
	}
	if d.AuthorRenditions, err = unmarshalRenditions(avatar); err != nil {
		return ArticleDetail{}, fmt.Errorf("article %s: %w", d.ID, err)
	}
	return d, nil
}

// HomePage returns the stored home page, or ErrNotFound before the first
// import.
func (s *Store) HomePage(ctx context.Context) (HomePage, error) {
	var h HomePage
	var thumb sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT company_title, company_thumbnail, about_url, contact_url FROM home WHERE id = 1`).
		Scan(&h.CompanyTitle, &thumb, &h.AboutURL, &h.ContactURL)
	if errors.Is(err, sql.ErrNoRows) {
		return HomePage{}, fmt.Errorf("home page: %w", ErrNotFound)
	}
	if err != nil {
		return HomePage{}, err
	}
	if h.CompanyThumbnail, err = unmarshalRenditions(thumb); err != nil {
		return HomePage{}, fmt.Errorf("home page: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, renditions FROM topics ORDER BY position, id`)
	if err != nil {
		return HomePage{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var t Topic
		var renditions sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &renditions); err != nil {
			return HomePage{}, err
		}
		if t.Renditions, err = unmarshalRenditions(renditions); err != nil {
			return HomePage{}, fmt.Errorf("topic %s: %w", t.ID, err)
		}
		h.Topics = append(h.Topics, t)
	}
	return h, rows.Err()
}

// Import replaces the stored content with snap in one transaction.
func (s *Store) Import(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"articles", "topics", "home"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}

	thumb, err := marshalRenditions(snap.Home.CompanyThumbnail)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO home (id, company_title, company_thumbnail, about_url, contact_url) VALUES (1, ?, ?, ?, ?)`,
		snap.Home.CompanyTitle, thumb, snap.Home.AboutURL, snap.Home.ContactURL); err != nil {
		return err
	}

	for i, t := range snap.Topics {
		r, err := marshalRenditions(t.Renditions)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO topics (id, position, name, description, renditions) VALUES (?, ?, ?, ?, ?)`,
			t.ID, i, t.Name, t.Description, r); err != nil {
			return fmt.Errorf("topic %s: %w", t.ID, err)
		}
	}

	for _, a := range snap.Articles {
		r, err := marshalRenditions(a.Renditions)
		if err != nil {
			return err
		}
		avatar, err := marshalRenditions(a.AuthorRenditions)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO articles (id, topic_id, name, description, author, published_date, content, image_caption, renditions, author_renditions) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.TopicID, a.Name, a.Description, a.Author, a.Date.UTC().Format(time.RFC3339), a.Content, a.ImageCaption, r, avatar); err != nil {
			return fmt.Errorf("article %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

func marshalRenditions(r *Renditions) (any, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalRenditions(s sql.NullString) (*Renditions, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var r Renditions
	if err := json.Unmarshal([]byte(s.String), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
