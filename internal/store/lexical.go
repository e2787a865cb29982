package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/swift-index/core/internal/chunk"

	_ "modernc.org/sqlite" // pure Go SQLite driver (no CGO)
)

// hexDecode32 decodes a hex string into a fixed [32]byte content hash.
func hexDecode32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return out, fmt.Errorf("invalid content hash %q", s)
	}
	copy(out[:], b)
	return out, nil
}

// SQLiteLexicalStore implements LexicalStore using SQLite FTS5. It is
// actor-serialized: every exported method takes the store's mutex, so
// callers never need their own locking.
type SQLiteLexicalStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ LexicalStore = (*SQLiteLexicalStore)(nil)

// validateLexicalIntegrity checks an existing database file before it is
// opened for real use, mirroring the corruption-detection behavior the
// teacher applies to its own SQLite index before a WAL-mode open.
func validateLexicalIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("chunks_fts table missing")
	}
	return nil
}

// NewSQLiteLexicalStore opens (or creates) the lexical store at path.
// An empty path opens an in-memory database, used by tests. A corrupt
// on-disk database is detected and cleared rather than left to fail
// opaquely later — indexing reconstructs it on the next pass.
func NewSQLiteLexicalStore(path string) (*SQLiteLexicalStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}

		if validErr := validateLexicalIntegrity(path); validErr != nil {
			slog.Warn("lexical_store_corrupted", slog.String("path", path), slog.String("error", validErr.Error()))
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("lexical store corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
			slog.Info("lexical_store_cleared", slog.String("path", path), slog.String("reason", "corruption detected, reindex required"))
		}

		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer: the lexical store is actor-serialized in process,
	// and a single connection keeps SQLite's own locking out of the way.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = OFF",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	s := &SQLiteLexicalStore{db: db, path: path}
	if _, err := db.Exec(lexicalSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func joinJSON(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalJSONArray(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// InsertChunks writes chunks, their FTS rows, and their conformance
// rows in one transaction. A chunk already present by ID is replaced.
func (s *SQLiteLexicalStore) InsertChunks(ctx context.Context, chunks []*chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("lexical store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, path, start_line, end_line, kind, symbols_json, references_json,
			imports_json, conformances_json, signature, doc_comment, breadcrumb, language,
			token_count, content_hash, content, generated_description, is_type_declaration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path=excluded.path, start_line=excluded.start_line, end_line=excluded.end_line,
			kind=excluded.kind, symbols_json=excluded.symbols_json, references_json=excluded.references_json,
			imports_json=excluded.imports_json, conformances_json=excluded.conformances_json,
			signature=excluded.signature, doc_comment=excluded.doc_comment, breadcrumb=excluded.breadcrumb,
			language=excluded.language, token_count=excluded.token_count, content_hash=excluded.content_hash,
			content=excluded.content, generated_description=excluded.generated_description,
			is_type_declaration=excluded.is_type_declaration`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	ftsDeleteStmt, err := tx.PrepareContext(ctx, `DELETE FROM chunks_fts WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare fts delete: %w", err)
	}
	defer ftsDeleteStmt.Close()

	ftsInsertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks_fts (id, content, symbols, doc_comment, signature, breadcrumb, generated_description, conformances)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare fts insert: %w", err)
	}
	defer ftsInsertStmt.Close()

	conformDeleteStmt, err := tx.PrepareContext(ctx, `DELETE FROM conformances WHERE chunk_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare conformance delete: %w", err)
	}
	defer conformDeleteStmt.Close()

	conformInsertStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO conformances (chunk_id, protocol_name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare conformance insert: %w", err)
	}
	defer conformInsertStmt.Close()

	for _, c := range chunks {
		symbolsJSON := joinJSON(c.Symbols)
		refsJSON := joinJSON(c.References)
		importsJSON := joinJSON(c.Imports)
		conformJSON := joinJSON(c.Conformances)

		if _, err := chunkStmt.ExecContext(ctx, c.ID, c.Path, c.StartLine, c.EndLine, string(c.Kind),
			symbolsJSON, refsJSON, importsJSON, conformJSON, c.Signature, c.DocComment, c.Breadcrumb,
			c.Language, c.TokenCount, c.ContentHashHex(), c.Content, c.GeneratedDescription,
			boolToInt(c.IsTypeDeclaration)); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}

		if _, err := ftsDeleteStmt.ExecContext(ctx, c.ID); err != nil {
			return fmt.Errorf("delete stale fts row %s: %w", c.ID, err)
		}
		if _, err := ftsInsertStmt.ExecContext(ctx, c.ID, c.Content, strings.Join(c.Symbols, " "),
			c.DocComment, c.Signature, c.Breadcrumb, c.GeneratedDescription, strings.Join(c.Conformances, " ")); err != nil {
			return fmt.Errorf("insert fts row %s: %w", c.ID, err)
		}

		if _, err := conformDeleteStmt.ExecContext(ctx, c.ID); err != nil {
			return fmt.Errorf("delete stale conformances %s: %w", c.ID, err)
		}
		for _, p := range c.Conformances {
			if _, err := conformInsertStmt.ExecContext(ctx, c.ID, p); err != nil {
				return fmt.Errorf("insert conformance %s/%s: %w", c.ID, p, err)
			}
		}
	}

	return tx.Commit()
}

// InsertSnippets writes info snippets and their FTS mirror rows.
func (s *SQLiteLexicalStore) InsertSnippets(ctx context.Context, snippets []*chunk.InfoSnippet) error {
	if len(snippets) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("lexical store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO info_snippets (id, chunk_id, path, start_line, end_line, breadcrumb, kind, content, token_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET chunk_id=excluded.chunk_id, path=excluded.path,
			start_line=excluded.start_line, end_line=excluded.end_line, breadcrumb=excluded.breadcrumb,
			kind=excluded.kind, content=excluded.content, token_count=excluded.token_count`)
	if err != nil {
		return fmt.Errorf("prepare snippet insert: %w", err)
	}
	defer insertStmt.Close()

	ftsDeleteStmt, err := tx.PrepareContext(ctx, `DELETE FROM snippets_fts WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare snippet fts delete: %w", err)
	}
	defer ftsDeleteStmt.Close()

	ftsInsertStmt, err := tx.PrepareContext(ctx, `INSERT INTO snippets_fts (id, content, breadcrumb) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snippet fts insert: %w", err)
	}
	defer ftsInsertStmt.Close()

	for _, sn := range snippets {
		var chunkID sql.NullString
		if sn.ChunkID != "" {
			chunkID = sql.NullString{String: sn.ChunkID, Valid: true}
		}
		if _, err := insertStmt.ExecContext(ctx, sn.ID, chunkID, sn.Path, sn.StartLine, sn.EndLine,
			sn.Breadcrumb, string(sn.Kind), sn.Content, sn.TokenCount); err != nil {
			return fmt.Errorf("insert snippet %s: %w", sn.ID, err)
		}
		if _, err := ftsDeleteStmt.ExecContext(ctx, sn.ID); err != nil {
			return fmt.Errorf("delete stale snippet fts row %s: %w", sn.ID, err)
		}
		if _, err := ftsInsertStmt.ExecContext(ctx, sn.ID, sn.Content, sn.Breadcrumb); err != nil {
			return fmt.Errorf("insert snippet fts row %s: %w", sn.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteChunksForPath removes every chunk, fts row, and conformance row
// belonging to path, cascading manually since chunks_fts is a virtual
// table with no foreign key support.
func (s *SQLiteLexicalStore) DeleteChunksForPath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("lexical store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM chunks WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("select chunk ids for %s: %w", path, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks_fts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete fts row %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM conformances WHERE chunk_id = ?`, id); err != nil {
			return fmt.Errorf("delete conformances %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM snippets_fts WHERE id IN (SELECT id FROM info_snippets WHERE chunk_id = ?)`, id); err != nil {
			return fmt.Errorf("delete snippet fts rows for %s: %w", id, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM info_snippets WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete snippets for %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete chunks for %s: %w", path, err)
	}

	return tx.Commit()
}

const chunkColumns = `id, path, start_line, end_line, kind, symbols_json, references_json,
	imports_json, conformances_json, signature, doc_comment, breadcrumb, language,
	token_count, content_hash, content, generated_description, is_type_declaration`

func scanChunkRow(rows *sql.Rows) (*chunk.Chunk, error) {
	var c chunk.Chunk
	var kind, symbolsJSON, refsJSON, importsJSON, conformJSON, contentHashHex string
	var isTypeDecl int
	if err := rows.Scan(&c.ID, &c.Path, &c.StartLine, &c.EndLine, &kind, &symbolsJSON, &refsJSON,
		&importsJSON, &conformJSON, &c.Signature, &c.DocComment, &c.Breadcrumb, &c.Language,
		&c.TokenCount, &contentHashHex, &c.Content, &c.GeneratedDescription, &isTypeDecl); err != nil {
		return nil, err
	}
	c.Kind = chunk.Kind(kind)
	c.Symbols = unmarshalJSONArray(symbolsJSON)
	c.References = unmarshalJSONArray(refsJSON)
	c.Imports = unmarshalJSONArray(importsJSON)
	c.Conformances = unmarshalJSONArray(conformJSON)
	c.IsTypeDeclaration = isTypeDecl != 0
	if decoded, err := hexDecode32(contentHashHex); err == nil {
		c.ContentHash = decoded
	}
	return &c, nil
}

func scanChunkRowWithTrailingScore(rows *sql.Rows, score *float64) (*chunk.Chunk, error) {
	var c chunk.Chunk
	var kind, symbolsJSON, refsJSON, importsJSON, conformJSON, contentHashHex string
	var isTypeDecl int
	if err := rows.Scan(&c.ID, &c.Path, &c.StartLine, &c.EndLine, &kind, &symbolsJSON, &refsJSON,
		&importsJSON, &conformJSON, &c.Signature, &c.DocComment, &c.Breadcrumb, &c.Language,
		&c.TokenCount, &contentHashHex, &c.Content, &c.GeneratedDescription, &isTypeDecl, score); err != nil {
		return nil, err
	}
	c.Kind = chunk.Kind(kind)
	c.Symbols = unmarshalJSONArray(symbolsJSON)
	c.References = unmarshalJSONArray(refsJSON)
	c.Imports = unmarshalJSONArray(importsJSON)
	c.Conformances = unmarshalJSONArray(conformJSON)
	c.IsTypeDeclaration = isTypeDecl != 0
	if decoded, err := hexDecode32(contentHashHex); err == nil {
		c.ContentHash = decoded
	}
	return &c, nil
}

// GetChunksByIDs fetches chunks in one round trip, keyed by ID. IDs
// that don't exist are simply absent from the result map.
func (s *SQLiteLexicalStore) GetChunksByIDs(ctx context.Context, ids []string) (map[string]*chunk.Chunk, error) {
	out := make(map[string]*chunk.Chunk, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("lexical store is closed")
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM chunks WHERE id IN (%s)`, chunkColumns, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanChunkRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

// GetChunkIDsForPath lists the ids of every chunk currently stored for
// path. The indexer calls this before DeleteChunksForPath so it can also
// drop the corresponding rows from the (separately owned) vector store.
func (s *SQLiteLexicalStore) GetChunkIDsForPath(ctx context.Context, path string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("lexical store is closed")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chunks WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("query chunk ids for %s: %w", path, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetChunksByContentHashes fetches chunks keyed by content hash, used by
// the indexer to decide which parsed chunks can reuse a prior embedding
// rather than re-embedding unchanged content.
func (s *SQLiteLexicalStore) GetChunksByContentHashes(ctx context.Context, hashes []string) (map[string]*chunk.Chunk, error) {
	out := make(map[string]*chunk.Chunk, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("lexical store is closed")
	}

	placeholders := make([]string, len(hashes))
	args := make([]any, len(hashes))
	for i, h := range hashes {
		placeholders[i] = "?"
		args[i] = h
	}
	query := fmt.Sprintf(`SELECT %s FROM chunks WHERE content_hash IN (%s)`, chunkColumns, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks by content hash: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanChunkRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out[c.ContentHashHex()] = c
	}
	return out, rows.Err()
}

// SearchFTS runs preparedQuery (already built by PrepareFTSQuery)
// against chunks_fts, returning results ordered by BM25 with the
// engine's lower-is-better raw score negated to higher-is-better.
func (s *SQLiteLexicalStore) SearchFTS(ctx context.Context, preparedQuery string, limit int) ([]FTSResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("lexical store is closed")
	}
	if strings.TrimSpace(preparedQuery) == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s, bm25(chunks_fts, 1.0, 0.5, 0.75, 0.5, 0.75, 0.25, 0.5) AS score
		FROM chunks
		JOIN chunks_fts ON chunks_fts.id = chunks.id
		WHERE chunks_fts MATCH ?
		ORDER BY score
		LIMIT ?`, chunkColumns)

	rows, err := s.db.QueryContext(ctx, query, preparedQuery, limit)
	if err != nil {
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return nil, nil
		}
		return nil, fmt.Errorf("search fts: %w", err)
	}
	defer rows.Close()

	var results []FTSResult
	for rows.Next() {
		var score float64
		c, err := scanChunkRowWithTrailingScore(rows, &score)
		if err != nil {
			return nil, fmt.Errorf("scan fts result: %w", err)
		}
		results = append(results, FTSResult{Chunk: c, Score: -score})
	}
	return results, rows.Err()
}

// SearchSnippetsFTS searches the docs-only surface (info_snippets),
// used by the orchestrator's SearchDocs entry point.
func (s *SQLiteLexicalStore) SearchSnippetsFTS(ctx context.Context, preparedQuery string, limit int) ([]*chunk.InfoSnippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("lexical store is closed")
	}
	if strings.TrimSpace(preparedQuery) == "" {
		return nil, nil
	}

	query := `
		SELECT s.id, s.chunk_id, s.path, s.start_line, s.end_line, s.breadcrumb, s.kind, s.content, s.token_count
		FROM info_snippets s
		JOIN snippets_fts ON snippets_fts.id = s.id
		WHERE snippets_fts MATCH ?
		ORDER BY bm25(snippets_fts)
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, preparedQuery, limit)
	if err != nil {
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return nil, nil
		}
		return nil, fmt.Errorf("search snippets fts: %w", err)
	}
	defer rows.Close()

	var out []*chunk.InfoSnippet
	for rows.Next() {
		var sn chunk.InfoSnippet
		var chunkID sql.NullString
		var kind string
		if err := rows.Scan(&sn.ID, &chunkID, &sn.Path, &sn.StartLine, &sn.EndLine, &sn.Breadcrumb,
			&kind, &sn.Content, &sn.TokenCount); err != nil {
			return nil, fmt.Errorf("scan snippet: %w", err)
		}
		sn.Kind = chunk.InfoSnippetKind(kind)
		if chunkID.Valid {
			sn.ChunkID = chunkID.String
		}
		out = append(out, &sn)
	}
	return out, rows.Err()
}

// GetFileHash returns the tracked content hash for path, if any.
func (s *SQLiteLexicalStore) GetFileHash(ctx context.Context, path string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, fmt.Errorf("lexical store is closed")
	}

	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT content_hash FROM files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get file hash: %w", err)
	}
	return hash, true, nil
}

// SetFileHash upserts a file's tracked hash, indexed-at timestamp, and
// chunk count. The key is the path, not the hash, so identical content
// duplicated across two paths is tracked independently.
func (s *SQLiteLexicalStore) SetFileHash(ctx context.Context, rec chunk.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("lexical store is closed")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (path, content_hash, indexed_at, chunk_count) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET content_hash=excluded.content_hash, indexed_at=excluded.indexed_at,
			chunk_count=excluded.chunk_count`,
		rec.Path, rec.ContentHash, rec.IndexedAt, rec.ChunkCount)
	if err != nil {
		return fmt.Errorf("set file hash: %w", err)
	}
	return nil
}

// DeleteFile removes a path's file-hash row, used when a watched file
// is deleted outright rather than re-indexed.
func (s *SQLiteLexicalStore) DeleteFile(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("lexical store is closed")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	return nil
}

// CountTerm returns an approximate document frequency for term, by
// issuing the same exact-phrase MATCH the query preparer would emit
// for a CamelCase identifier and counting matches. Used by the
// re-ranking pipeline's rare-term-exact-symbol boost.
func (s *SQLiteLexicalStore) CountTerm(ctx context.Context, term string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, fmt.Errorf("lexical store is closed")
	}
	if strings.TrimSpace(term) == "" {
		return 0, nil
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks_fts WHERE chunks_fts MATCH ?`, `"`+term+`"`).Scan(&count)
	if err != nil {
		if strings.Contains(err.Error(), "fts5") || strings.Contains(err.Error(), "syntax error") {
			return 0, nil
		}
		return 0, fmt.Errorf("count term %q: %w", term, err)
	}
	return count, nil
}

// Config reads the schema version, embedding dimension, embedder tag and
// tokenizer tag from the config table. An unset schema version reads as
// chunk.CurrentSchemaVersion; the other unset fields stay zero.
func (s *SQLiteLexicalStore) Config() (chunk.IndexConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return chunk.IndexConfig{}, fmt.Errorf("lexical store is closed")
	}

	cfg := chunk.IndexConfig{SchemaVersion: chunk.CurrentSchemaVersion}
	rows, err := s.db.Query(`SELECT key, value FROM config`)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return cfg, fmt.Errorf("scan config row: %w", err)
		}
		values[k] = v
	}
	if v, ok := values["schema_version"]; ok {
		fmt.Sscanf(v, "%d", &cfg.SchemaVersion)
	}
	if v, ok := values["embedding_dim"]; ok {
		fmt.Sscanf(v, "%d", &cfg.EmbeddingDim)
	}
	cfg.EmbedderTag = values["embedder_tag"]
	cfg.TokenizerTag = values["tokenizer_tag"]
	return cfg, rows.Err()
}

// SetConfig persists cfg's fields to the config table.
func (s *SQLiteLexicalStore) SetConfig(cfg chunk.IndexConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("lexical store is closed")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	set := func(key, value string) error {
		_, err := tx.Exec(`INSERT INTO config (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
		return err
	}
	if err := set("schema_version", fmt.Sprintf("%d", cfg.SchemaVersion)); err != nil {
		return err
	}
	if err := set("embedding_dim", fmt.Sprintf("%d", cfg.EmbeddingDim)); err != nil {
		return err
	}
	if err := set("embedder_tag", cfg.EmbedderTag); err != nil {
		return err
	}
	if err := set("tokenizer_tag", cfg.TokenizerTag); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the underlying database, checkpointing WAL first so the
// main database file is consistent without the WAL segment present.
func (s *SQLiteLexicalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}
