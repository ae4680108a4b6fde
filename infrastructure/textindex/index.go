// Package textindex stores message documents in an on-disk SQLite FTS5 index kept apart from the
// relational store.
package textindex

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/domain/repository"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const fileName = "index.db"

type Index struct {
	db  *sql.DB
	log *zap.Logger

	// writes are serialized; readers use WAL snapshots
	mu sync.Mutex
}

var _ repository.TextIndex = (*Index)(nil)

// Open opens or creates the index under dir.
func Open(ctx context.Context, dir string, log *zap.Logger) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create index directory")
	}

	dsn := "file:" + filepath.Join(dir, fileName) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open index")
	}
	db.SetMaxOpenConns(4)

	idx := &Index{db: db, log: log}
	if err := idx.prepare(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("Text index opened", zap.String("path", filepath.Join(dir, fileName)))
	return idx, nil
}

func (i *Index) prepare(ctx context.Context) error {
	var fts5 bool
	err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) > 0 FROM pragma_compile_options WHERE compile_options = 'ENABLE_FTS5'").Scan(&fts5)
	if err != nil {
		return errors.Wrap(err, "verify fts5")
	}
	if !fts5 {
		return errors.New("fts5 is not enabled in this sqlite build")
	}

	version, err := i.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("index schema version %d is newer than supported version %d", version, schemaVersion)
	}
	if version == schemaVersion {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin schema")
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "create index schema")
		}
	}
	if _, err := tx.ExecContext(ctx, seedState, uuid.NewString()); err != nil {
		return errors.Wrap(err, "seed index state")
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return errors.Wrap(err, "set schema version")
	}
	return errors.Wrap(tx.Commit(), "commit schema")
}

func (i *Index) schemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := i.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, errors.Wrap(err, "read schema version")
	}
	return v, nil
}

// Index upserts doc and advances the generation in the same transaction. Re-indexing the same
// message id replaces the previous document.
func (i *Index) Index(ctx context.Context, doc model.IndexDocument) error {
	if doc.MessageID > math.MaxInt64 {
		return fmt.Errorf("message id %d out of range", doc.MessageID)
	}
	if doc.AuthorID > math.MaxInt64 {
		return fmt.Errorf("author id %d out of range", doc.AuthorID)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin index write")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, upsertDocument,
		int64(doc.MessageID),
		doc.Content,
		int64(doc.AuthorID),
		doc.ChannelID,
		doc.GuildID,
		normalizeCreatedAt(doc.CreatedAt),
	)
	if err != nil {
		return errors.Wrap(err, "upsert document")
	}
	if _, err := tx.ExecContext(ctx, bumpGeneration); err != nil {
		return errors.Wrap(err, "advance generation")
	}
	return errors.Wrap(tx.Commit(), "commit index write")
}

// Generation reads the persisted generation, which is shared by every process opening the same
// directory.
func (i *Index) Generation(ctx context.Context) (repository.IndexGeneration, error) {
	var (
		gen repository.IndexGeneration
		seq int64
	)
	if err := i.db.QueryRowContext(ctx, selectGeneration).Scan(&gen.ID, &seq); err != nil {
		return gen, errors.Wrap(err, "read generation")
	}
	gen.Seq = uint64(seq)
	return gen, nil
}

func normalizeCreatedAt(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.FormatTimestamp(time.Now())
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return model.FormatTimestamp(t)
	}
	return s
}

func filterClause(q filter.MessageQuery) (string, []any) {
	f := q.Filter.Normalize()

	var clauses []string
	var args []any
	if f.ChannelID != "" {
		clauses = append(clauses, "d.channel_id = ?")
		args = append(args, f.ChannelID)
	}
	if f.GuildID != "" {
		clauses = append(clauses, "d.guild_id = ?")
		args = append(args, f.GuildID)
	}
	if f.AuthorID != "" {
		clauses = append(clauses, "CAST(d.author_id AS TEXT) = ?")
		args = append(args, f.AuthorID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

// Search returns one ranked window plus the number of documents matching the query and filters.
func (i *Index) Search(ctx context.Context, q filter.MessageQuery) (model.SearchPage, error) {
	page := model.SearchPage{Results: []model.SearchResult{}, Ranked: true}

	match := matchExpression(q.Text)
	if match == "" {
		return page, nil
	}

	where, filterArgs := filterClause(q)
	args := append([]any{match}, filterArgs...)

	// the page and the total come from one snapshot
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return page, errors.Wrap(err, "begin index read")
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT d.message_id, d.content, d.author_id, d.channel_id, d.guild_id, d.created_at, bm25(documents_fts) AS bm25_rank`+
			matchFrom+where+
			` ORDER BY bm25_rank ASC, d.created_at DESC, d.message_id DESC LIMIT ? OFFSET ?`,
		append(args, q.Window.Limit, q.Window.Offset)...,
	)
	if err != nil {
		return page, errors.Wrap(err, "query index")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, author int64
			res        model.SearchResult
			rank       float64
		)
		if err := rows.Scan(&id, &res.Content, &author, &res.ChannelID, &res.GuildID, &res.CreatedAt, &rank); err != nil {
			return page, errors.Wrap(err, "scan index row")
		}
		res.MessageID = uint64(id)
		res.AuthorID = uint64(author)
		res.Score = relevance(rank)
		page.Results = append(page.Results, res)
	}
	if err := rows.Err(); err != nil {
		return page, errors.Wrap(err, "iterate index rows")
	}
	rows.Close()

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*)`+matchFrom+where, args...).Scan(&page.TotalHits); err != nil {
		return page, errors.Wrap(err, "count index matches")
	}

	return page, nil
}

func (i *Index) Stats(ctx context.Context) (repository.IndexStats, error) {
	var stats repository.IndexStats
	if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&stats.Documents); err != nil {
		return stats, errors.Wrap(err, "count documents")
	}
	v, err := i.schemaVersion(ctx)
	if err != nil {
		return stats, err
	}
	stats.SchemaVersion = v
	return stats, nil
}

func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.db.Close()
}
