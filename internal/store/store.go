// Package store persists FileRecords in a crash-safe, WAL-mode SQLite
// database via modernc.org/sqlite (pure Go, no cgo), grounded on
// original_source's storage/{schema,migrations,database}.rs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/standardbeagle/filedex/internal/errs"
	"github.com/standardbeagle/filedex/internal/types"
)

// Store is a Store implementation backed by SQLite. Writes go through
// a *sql.DB limited to one open connection, which serializes them
// whichever goroutine issues them (the indexer's writer, Reconcile's
// deletes, the searcher's access and history rows); reads use a
// separate pooled connection so Search never blocks behind the
// indexer (spec.md §5).
type Store struct {
	path      string
	writeConn *sql.DB
	readConn  *sql.DB
}

// Open creates or opens the database at path, applying pragmas and
// running migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.WithPath(errs.KindStoreInit, path, "creating store directory", err)
		}
	}

	writeConn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.WithPath(errs.KindStoreInit, path, "opening store", err)
	}
	writeConn.SetMaxOpenConns(1)

	readConn, err := sql.Open("sqlite", path)
	if err != nil {
		writeConn.Close()
		return nil, errs.WithPath(errs.KindStoreInit, path, "opening store read pool", err)
	}
	readConn.SetMaxOpenConns(4)

	s := &Store{path: path, writeConn: writeConn, readConn: readConn}

	for _, p := range pragmas {
		if _, err := s.writeConn.ExecContext(ctx, p); err != nil {
			s.Close()
			return nil, errs.WithPath(errs.KindStoreInit, path, "applying pragma "+p, err)
		}
		if _, err := s.readConn.ExecContext(ctx, p); err != nil {
			s.Close()
			return nil, errs.WithPath(errs.KindStoreInit, path, "applying read pragma "+p, err)
		}
	}

	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	var first error
	if err := s.writeConn.Close(); err != nil {
		first = err
	}
	if err := s.readConn.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	row := s.writeConn.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1")
	err := row.Scan(&version)
	if err == sql.ErrNoRows || err != nil {
		// fresh database: apply the initial schema in one transaction.
		tx, err := s.writeConn.BeginTx(ctx, nil)
		if err != nil {
			return errs.New(errs.KindStoreMigration, "starting initial schema transaction", err)
		}
		for _, stmt := range strings.Split(initialSchema, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return errs.New(errs.KindStoreMigration, "applying initial schema", err)
			}
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES (?)", currentSchemaVersion); err != nil {
			tx.Rollback()
			return errs.New(errs.KindStoreMigration, "recording schema version", err)
		}
		return tx.Commit()
	}

	if version > currentSchemaVersion {
		return errs.New(errs.KindStoreMigration, fmt.Sprintf("database schema version %d is newer than supported %d; downgrades are not supported", version, currentSchemaVersion), nil)
	}

	for v := version; v < currentSchemaVersion; v++ {
		stmt, ok := migrations[v]
		if !ok {
			return errs.New(errs.KindStoreMigration, fmt.Sprintf("no migration registered from version %d", v), nil)
		}
		tx, err := s.writeConn.BeginTx(ctx, nil)
		if err != nil {
			return errs.New(errs.KindStoreMigration, "starting migration transaction", err)
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return errs.New(errs.KindStoreMigration, fmt.Sprintf("applying migration from version %d", v), err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE schema_version SET version = ?", v+1); err != nil {
			tx.Rollback()
			return errs.New(errs.KindStoreMigration, "recording migrated schema version", err)
		}
		if err := tx.Commit(); err != nil {
			return errs.New(errs.KindStoreMigration, "committing migration", err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UpsertBatch inserts or updates every record in one transaction,
// keyed by Path (P1: re-upserting an existing path updates in place).
func (s *Store) UpsertBatch(ctx context.Context, records []types.FileRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.writeConn.BeginTx(ctx, nil)
	if err != nil {
		return errs.New(errs.KindStoreIo, "starting upsert transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files(path, parent_path, name, extension, size, mode, modified_at,
			indexed_at, is_dir, is_symlink, is_hidden, content_digest, mime_type, last_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			parent_path = excluded.parent_path,
			name = excluded.name,
			extension = excluded.extension,
			size = excluded.size,
			mode = excluded.mode,
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at,
			is_dir = excluded.is_dir,
			is_symlink = excluded.is_symlink,
			is_hidden = excluded.is_hidden,
			content_digest = excluded.content_digest,
			mime_type = excluded.mime_type,
			last_verified = excluded.last_verified
	`)
	if err != nil {
		return errs.New(errs.KindStoreIo, "preparing upsert statement", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Path, r.ParentPath, r.Name, r.Extension, r.Size, r.Mode,
			r.ModifiedAt.Unix(), r.IndexedAt.Unix(), boolToInt(r.IsDir), boolToInt(r.IsSymlink),
			boolToInt(r.IsHidden), r.ContentDigest, r.MimeType, r.LastVerified.Unix()); err != nil {
			return errs.WithPath(errs.KindStoreIo, r.Path, "upserting file record", err)
		}
		if len(r.ContentTokens) > 0 {
			var id int64
			if err := tx.QueryRowContext(ctx, "SELECT id FROM files WHERE path = ?", r.Path).Scan(&id); err != nil {
				return errs.WithPath(errs.KindStoreIo, r.Path, "resolving file id for content tokens", err)
			}
			tokens := strings.Join(r.ContentTokens, " ")
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO file_contents(file_id, tokens) VALUES (?, ?)
				ON CONFLICT(file_id) DO UPDATE SET tokens = excluded.tokens
			`, id, tokens); err != nil {
				return errs.WithPath(errs.KindStoreIo, r.Path, "upserting content tokens", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.New(errs.KindStoreIo, "committing upsert batch", err)
	}
	return nil
}

// DeleteByPrefix removes every record whose path is prefix or lies
// beneath it, returning the number of rows removed.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	res, err := s.writeConn.ExecContext(ctx, "DELETE FROM files WHERE path = ? OR path LIKE ?", prefix, prefix+string(filepath.Separator)+"%")
	if err != nil {
		return 0, errs.WithPath(errs.KindStoreIo, prefix, "deleting by prefix", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanRecord(scan func(dest ...any) error) (types.FileRecord, error) {
	var r types.FileRecord
	var modifiedAt, indexedAt, lastVerified int64
	var accessedAt sql.NullInt64
	var isDir, isSymlink, isHidden int
	if err := scan(&r.ID, &r.Path, &r.ParentPath, &r.Name, &r.Extension, &r.Size, &r.Mode,
		&modifiedAt, &indexedAt, &accessedAt, &r.AccessCount, &isDir, &isSymlink, &isHidden,
		&r.ContentDigest, &r.MimeType, &lastVerified); err != nil {
		return r, err
	}
	r.ModifiedAt = time.Unix(modifiedAt, 0).UTC()
	r.IndexedAt = time.Unix(indexedAt, 0).UTC()
	r.LastVerified = time.Unix(lastVerified, 0).UTC()
	if accessedAt.Valid {
		t := time.Unix(accessedAt.Int64, 0).UTC()
		r.AccessedAt = &t
	}
	r.IsDir = isDir != 0
	r.IsSymlink = isSymlink != 0
	r.IsHidden = isHidden != 0
	return r, nil
}

const recordColumns = `id, path, parent_path, name, extension, size, mode, modified_at,
	indexed_at, accessed_at, access_count, is_dir, is_symlink, is_hidden, content_digest,
	mime_type, last_verified`

// FindByPath returns the record for path if one exists.
func (s *Store) FindByPath(ctx context.Context, path string) (*types.FileRecord, bool, error) {
	row := s.readConn.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM files WHERE path = ?", path)
	r, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.WithPath(errs.KindStoreIo, path, "finding file by path", err)
	}
	return &r, true, nil
}

// QueryCandidates returns records matching q's structural narrowing,
// choosing the narrowest available index (extension, then parent path
// prefix, else a full scan), grounded on original_source's
// SearchExecutor::get_candidates.
func (s *Store) QueryCandidates(ctx context.Context, root string, q types.Query) ([]types.FileRecord, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + recordColumns + ", COALESCE(file_contents.tokens, '') FROM files" +
		" LEFT JOIN file_contents ON file_contents.file_id = files.id WHERE (path = ? OR path LIKE ?)")
	args := []any{root, root + string(filepath.Separator) + "%"}

	if len(q.Extensions) > 0 {
		placeholders := make([]string, len(q.Extensions))
		for i, e := range q.Extensions {
			placeholders[i] = "?"
			args = append(args, e)
		}
		sb.WriteString(" AND extension IN (" + strings.Join(placeholders, ",") + ")")
	}
	if q.Scope == types.ScopeContent {
		sb.WriteString(" AND content_digest != ''")
	}

	rows, err := s.readConn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, errs.New(errs.KindStoreIo, "querying candidates", err)
	}
	defer rows.Close()

	var out []types.FileRecord
	for rows.Next() {
		select {
		case <-ctx.Done():
			return out, errs.New(errs.KindDeadlineExceeded, "candidate scan interrupted", ctx.Err())
		default:
		}
		var tokens string
		r, err := scanRecord(func(dest ...any) error { return rows.Scan(append(dest, &tokens)...) })
		if err != nil {
			return nil, errs.New(errs.KindStoreIo, "scanning candidate row", err)
		}
		if tokens != "" {
			r.ContentTokens = strings.Fields(tokens)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllPaths returns every indexed path beneath root, used to rebuild
// the bloom filter and to compute Reconcile's diff set.
func (s *Store) AllPaths(root string) ([]string, error) {
	rows, err := s.readConn.Query("SELECT path FROM files WHERE path = ? OR path LIKE ?", root, root+string(filepath.Separator)+"%")
	if err != nil {
		return nil, errs.New(errs.KindStoreIo, "listing all paths", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errs.New(errs.KindStoreIo, "scanning path row", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Stats summarizes the store's content.
func (s *Store) Stats(ctx context.Context) (types.StoreStats, error) {
	var stats types.StoreStats
	row := s.readConn.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(size),0) FROM files WHERE is_dir = 0")
	if err := row.Scan(&stats.TotalFiles, &stats.TotalBytes); err != nil {
		return stats, errs.New(errs.KindStoreIo, "computing file stats", err)
	}
	row = s.readConn.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE is_dir = 1")
	if err := row.Scan(&stats.TotalDirs); err != nil {
		return stats, errs.New(errs.KindStoreIo, "computing dir stats", err)
	}
	stats.SchemaVersion = currentSchemaVersion
	return stats, nil
}

// Vacuum reclaims space freed by deletes; safe to run periodically per
// Config.Store.VacuumIntervalMinutes.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.writeConn.ExecContext(ctx, "VACUUM"); err != nil {
		return errs.New(errs.KindStoreIo, "vacuuming store", err)
	}
	return nil
}

// RecordAccess increments access_count, stamps accessed_at for path,
// and appends an access_log row, all in one transaction (§9 Open
// Question 2).
func (s *Store) RecordAccess(ctx context.Context, path string, at time.Time) error {
	tx, err := s.writeConn.BeginTx(ctx, nil)
	if err != nil {
		return errs.New(errs.KindStoreIo, "starting access-record transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE files SET access_count = access_count + 1, accessed_at = ? WHERE path = ?", at.Unix(), path); err != nil {
		return errs.WithPath(errs.KindStoreIo, path, "recording access", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO access_log(path, accessed_at) VALUES (?, ?)", path, at.Unix()); err != nil {
		return errs.WithPath(errs.KindStoreIo, path, "appending access log", err)
	}
	return tx.Commit()
}

// RecordSearch appends one row to the persisted search history.
func (s *Store) RecordSearch(ctx context.Context, fingerprint uint64, pattern string, resultCount int, at time.Time) error {
	if _, err := s.writeConn.ExecContext(ctx, "INSERT INTO search_history(fingerprint, pattern, result_count, executed_at) VALUES (?, ?, ?, ?)",
		int64(fingerprint), pattern, resultCount, at.Unix()); err != nil {
		return errs.New(errs.KindStoreIo, "recording search history", err)
	}
	return nil
}

// RecentQueries returns the most recent persisted search history
// entries, newest first.
func (s *Store) RecentQueries(ctx context.Context, limit int) ([]types.QueryHistoryEntry, error) {
	rows, err := s.readConn.QueryContext(ctx, "SELECT fingerprint, pattern, result_count, executed_at FROM search_history ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, errs.New(errs.KindStoreIo, "reading search history", err)
	}
	defer rows.Close()
	var out []types.QueryHistoryEntry
	for rows.Next() {
		var e types.QueryHistoryEntry
		var fp int64
		var at int64
		if err := rows.Scan(&fp, &e.Pattern, &e.ResultCount, &at); err != nil {
			return nil, errs.New(errs.KindStoreIo, "scanning search history row", err)
		}
		e.Fingerprint = uint64(fp)
		e.ExecutedAt = time.Unix(at, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClearAll truncates every table, used by Engine.ClearIndex.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.writeConn.BeginTx(ctx, nil)
	if err != nil {
		return errs.New(errs.KindStoreIo, "starting clear transaction", err)
	}
	defer tx.Rollback()
	for _, table := range []string{"file_contents", "files", "search_history", "access_log"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errs.New(errs.KindStoreIo, "clearing table "+table, err)
		}
	}
	return tx.Commit()
}
