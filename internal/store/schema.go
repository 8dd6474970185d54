package store

const currentSchemaVersion = 1

// pragmas mirror original_source's OPTIMIZE_PRAGMAS, adapted to
// modernc.org/sqlite.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA busy_timeout = 5000",
}

const initialSchema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT UNIQUE NOT NULL,
	parent_path TEXT NOT NULL,
	name TEXT NOT NULL,
	extension TEXT NOT NULL DEFAULT '',
	size INTEGER NOT NULL DEFAULT 0,
	mode INTEGER NOT NULL DEFAULT 0,
	modified_at INTEGER NOT NULL DEFAULT 0,
	indexed_at INTEGER NOT NULL DEFAULT 0,
	accessed_at INTEGER,
	access_count INTEGER NOT NULL DEFAULT 0,
	is_dir INTEGER NOT NULL DEFAULT 0,
	is_symlink INTEGER NOT NULL DEFAULT 0,
	is_hidden INTEGER NOT NULL DEFAULT 0,
	content_digest TEXT NOT NULL DEFAULT '',
	mime_type TEXT NOT NULL DEFAULT '',
	last_verified INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_files_extension ON files(extension);
CREATE INDEX IF NOT EXISTS idx_files_parent_path ON files(parent_path);
CREATE INDEX IF NOT EXISTS idx_files_name ON files(name);
CREATE INDEX IF NOT EXISTS idx_files_modified_at ON files(modified_at);

CREATE TABLE IF NOT EXISTS file_contents (
	file_id INTEGER PRIMARY KEY REFERENCES files(id) ON DELETE CASCADE,
	tokens TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS search_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	fingerprint INTEGER NOT NULL,
	pattern TEXT NOT NULL,
	result_count INTEGER NOT NULL,
	executed_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS access_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	accessed_at INTEGER NOT NULL
);
`

// migrations holds forward-only migration steps keyed by the version
// they migrate *from*. Downgrades (a stored version newer than
// currentSchemaVersion) are rejected in migrate, matching
// original_source's migrations.rs.
var migrations = map[int]string{
	// no migrations beyond the initial schema yet; future steps are
	// added here as "ALTER TABLE ..." strings keyed by their from-version.
}
