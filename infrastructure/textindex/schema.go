package textindex

const schemaVersion = 2

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		message_id INTEGER PRIMARY KEY,
		content    TEXT NOT NULL,
		author_id  INTEGER NOT NULL DEFAULT 0,
		channel_id TEXT NOT NULL DEFAULT '',
		guild_id   TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
		content,
		content='documents',
		content_rowid='message_id',
		tokenize='porter unicode61'
	)`,
	`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
		INSERT INTO documents_fts(rowid, content) VALUES (new.message_id, new.content);
	END`,
	`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
		INSERT INTO documents_fts(documents_fts, rowid, content) VALUES ('delete', old.message_id, old.content);
	END`,
	`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
		INSERT INTO documents_fts(documents_fts, rowid, content) VALUES ('delete', old.message_id, old.content);
		INSERT INTO documents_fts(rowid, content) VALUES (new.message_id, new.content);
	END`,
	`CREATE TABLE IF NOT EXISTS index_state (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		instance   TEXT NOT NULL,
		generation INTEGER NOT NULL DEFAULT 0
	)`,
}

const seedState = `INSERT OR IGNORE INTO index_state (id, instance, generation) VALUES (1, ?, 0)`

const bumpGeneration = `UPDATE index_state SET generation = generation + 1 WHERE id = 1`

const selectGeneration = `SELECT instance, generation FROM index_state WHERE id = 1`

const upsertDocument = `
	INSERT INTO documents (message_id, content, author_id, channel_id, guild_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(message_id) DO UPDATE SET
		content    = excluded.content,
		author_id  = excluded.author_id,
		channel_id = excluded.channel_id,
		guild_id   = excluded.guild_id,
		created_at = excluded.created_at`

const matchFrom = `
	FROM documents_fts
	JOIN documents d ON d.message_id = documents_fts.rowid
	WHERE documents_fts MATCH ?`
