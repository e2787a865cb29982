package store

// lexicalSchema creates the chunk/snippet/file tables and their FTS5
// mirrors. chunks_fts and snippets_fts are ordinary (not external-content)
// FTS5 tables: they hold their own copy of the searchable text, and the
// store keeps them in step with chunks and info_snippets by id.
const lexicalSchema = `
CREATE TABLE IF NOT EXISTS config (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	indexed_at   INTEGER NOT NULL,
	chunk_count  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id                     TEXT PRIMARY KEY,
	path                   TEXT NOT NULL,
	start_line             INTEGER NOT NULL,
	end_line               INTEGER NOT NULL,
	kind                   TEXT NOT NULL,
	symbols_json           TEXT NOT NULL,
	references_json        TEXT NOT NULL,
	imports_json           TEXT NOT NULL,
	conformances_json      TEXT NOT NULL,
	signature              TEXT NOT NULL,
	doc_comment            TEXT NOT NULL,
	breadcrumb             TEXT NOT NULL,
	language               TEXT NOT NULL,
	token_count            INTEGER NOT NULL,
	content_hash           TEXT NOT NULL,
	content                TEXT NOT NULL,
	generated_description  TEXT NOT NULL,
	is_type_declaration    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);
CREATE INDEX IF NOT EXISTS idx_chunks_content_hash ON chunks(content_hash);

-- Seven-column FTS coverage: content, symbols, doc_comment, signature,
-- breadcrumb, generated_description, conformances.
CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	id UNINDEXED,
	content,
	symbols,
	doc_comment,
	signature,
	breadcrumb,
	generated_description,
	conformances,
	tokenize='unicode61'
);

CREATE TABLE IF NOT EXISTS conformances (
	chunk_id      TEXT NOT NULL,
	protocol_name TEXT NOT NULL,
	PRIMARY KEY (chunk_id, protocol_name)
);
CREATE INDEX IF NOT EXISTS idx_conformances_protocol ON conformances(protocol_name);

CREATE TABLE IF NOT EXISTS info_snippets (
	id          TEXT PRIMARY KEY,
	chunk_id    TEXT,
	path        TEXT NOT NULL,
	start_line  INTEGER NOT NULL,
	end_line    INTEGER NOT NULL,
	breadcrumb  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	content     TEXT NOT NULL,
	token_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_info_snippets_chunk_id ON info_snippets(chunk_id);

CREATE VIRTUAL TABLE IF NOT EXISTS snippets_fts USING fts5(
	id UNINDEXED,
	content,
	breadcrumb,
	tokenize='unicode61'
);
`
