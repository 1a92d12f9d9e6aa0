package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/folio/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// DatabaseName is the file created inside the data directory.
const DatabaseName = "folio.db"

// Store is a unified SQLite-based storage that provides the version store
// and the vector index through wrapper types sharing one connection.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time

	locksMu sync.Mutex
	locks   map[string]*chapterLock
}

// chapterLock serialises writes to one chapter.
type chapterLock struct {
	mu   sync.Mutex
	refs int
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.folio/data/folio.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".folio", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseName)

	// WAL lets readers proceed while a chapter commits.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:    db,
		path:  dbPath,
		now:   func() time.Time { return time.Now().UTC() },
		locks: make(map[string]*chapterLock),
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VersionStore returns a VersionStore interface backed by this store.
func (s *Store) VersionStore() driven.VersionStore {
	return &versionStore{store: s}
}

// VectorIndex returns a VectorIndex interface backed by this store.
// Closing the index does not close the store.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// lockChapter blocks until the caller owns the chapter's write lock.
func (s *Store) lockChapter(chapterID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[chapterID]
	if !ok {
		l = &chapterLock{}
		s.locks[chapterID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, chapterID)
		}
		s.locksMu.Unlock()
	}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Version Store ====================

// versionStore implements driven.VersionStore.
type versionStore struct {
	store *Store
}

var _ driven.VersionStore = (*versionStore)(nil)

const chapterColumns = `id, title, source_ref, snapshot_ref, head_version_id, status, status_reason, created_at`

const versionColumns = `v.id, v.chapter_id, v.seq, v.stage, v.content, v.parent_id, v.iteration,
	v.critique, v.embedding_ref, v.created_at, d.kind, d.content, d.decided_at`

const versionFrom = `FROM versions v LEFT JOIN decisions d ON d.version_id = v.id`

// CreateChapter stores a new chapter.
func (s *versionStore) CreateChapter(ctx context.Context, chapter *domain.Chapter) error {
	if chapter == nil || chapter.ID == "" {
		return fmt.Errorf("%w: chapter requires an ID", domain.ErrInvalidInput)
	}
	c := *chapter
	if c.Status == "" {
		c.Status = domain.ChapterActive
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, c.Status)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.store.now()
	}
	c.HeadVersionID = ""

	if _, err := getChapter(ctx, s.store.db, c.ID); err == nil {
		return fmt.Errorf("%w: chapter %s exists", domain.ErrConflict, c.ID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chapters (id, title, source_ref, snapshot_ref, head_version_id, status, status_reason, created_at)
		VALUES (?, ?, ?, ?, NULL, ?, ?, ?)
	`, c.ID, c.Title, c.SourceRef, c.SnapshotRef, string(c.Status), c.StatusReason, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating chapter: %w", err)
	}

	*chapter = c
	return nil
}

// GetChapter retrieves a chapter by ID.
func (s *versionStore) GetChapter(ctx context.Context, id string) (*domain.Chapter, error) {
	return getChapter(ctx, s.store.db, id)
}

// ListChapters returns all chapters in creation order.
func (s *versionStore) ListChapters(ctx context.Context) ([]domain.Chapter, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+chapterColumns+` FROM chapters ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying chapters: %w", err)
	}
	defer rows.Close()

	chapters := []domain.Chapter{}
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapters: %w", err)
	}
	return chapters, nil
}

// SetChapterStatus records a chapter's pipeline status.
func (s *versionStore) SetChapterStatus(
	ctx context.Context, id string, status domain.ChapterStatus, reason string,
) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	res, err := s.store.db.ExecContext(ctx,
		`UPDATE chapters SET status = ?, status_reason = ? WHERE id = ?`, string(status), reason, id)
	if err != nil {
		return fmt.Errorf("updating chapter status: %w", err)
	}
	return requireRow(res)
}

// SetChapterSource records the title and snapshot found by acquisition.
// Empty values leave the stored fields unchanged.
func (s *versionStore) SetChapterSource(ctx context.Context, id, title, snapshotRef string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE chapters SET
			title = CASE WHEN ? = '' THEN title ELSE ? END,
			snapshot_ref = CASE WHEN ? = '' THEN snapshot_ref ELSE ? END
		WHERE id = ?
	`, title, title, snapshotRef, snapshotRef, id)
	if err != nil {
		return fmt.Errorf("updating chapter source: %w", err)
	}
	return requireRow(res)
}

// Put commits a new version and advances the chapter head in one transaction.
func (s *versionStore) Put(ctx context.Context, version *domain.Version) (string, error) {
	if version == nil {
		return "", fmt.Errorf("%w: nil version", domain.ErrInvalidInput)
	}
	unlock := s.store.lockChapter(version.ChapterID)
	defer unlock()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	chapter, err := getChapter(ctx, tx, version.ChapterID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: chapter %s", domain.ErrNotFound, version.ChapterID)
		}
		return "", err
	}

	state, count, err := lineageState(ctx, tx, chapter)
	if err != nil {
		return "", err
	}

	var parent *domain.Version
	if version.ParentID != nil {
		parent, err = getVersion(ctx, tx, *version.ParentID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
	}
	if err := domain.ValidateAppend(state, parent, version); err != nil {
		return "", err
	}

	v := *version
	if v.ID == "" {
		v.ID = uuid.New().String()
	} else if _, err := getVersion(ctx, tx, v.ID); err == nil {
		return "", fmt.Errorf("%w: version %s exists", domain.ErrConflict, v.ID)
	}
	v.Sequence = count + 1
	v.CreatedAt = s.store.now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO versions (id, chapter_id, seq, stage, content, parent_id, iteration, critique, embedding_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ID, v.ChapterID, v.Sequence, string(v.Stage), v.Content, nullStringPtr(v.ParentID),
		v.Iteration, nullStringPtr(v.Critique), v.EmbeddingRef, v.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("inserting version: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE chapters SET head_version_id = ? WHERE id = ?`, v.ID, v.ChapterID); err != nil {
		return "", fmt.Errorf("advancing head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}

	version.ID = v.ID
	version.Sequence = v.Sequence
	version.CreatedAt = v.CreatedAt
	return v.ID, nil
}

// Get retrieves a version by ID.
func (s *versionStore) Get(ctx context.Context, versionID string) (*domain.Version, error) {
	return getVersion(ctx, s.store.db, versionID)
}

// Lineage returns the chain from RAW to the current head.
func (s *versionStore) Lineage(ctx context.Context, chapterID string) ([]domain.Version, error) {
	if _, err := getChapter(ctx, s.store.db, chapterID); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		WITH RECURSIVE chain(id, depth) AS (
			SELECT head_version_id, 0 FROM chapters WHERE id = ? AND head_version_id IS NOT NULL
			UNION ALL
			SELECT p.parent_id, chain.depth + 1
			FROM versions p JOIN chain ON p.id = chain.id
			WHERE p.parent_id IS NOT NULL
		)
		SELECT `+versionColumns+`
		FROM chain JOIN versions v ON v.id = chain.id
		LEFT JOIN decisions d ON d.version_id = v.id
		ORDER BY chain.depth DESC
	`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("querying lineage: %w", err)
	}
	return collectVersions(rows)
}

// Head returns the chapter's current head version.
func (s *versionStore) Head(ctx context.Context, chapterID string) (*domain.Version, error) {
	chapter, err := getChapter(ctx, s.store.db, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter.HeadVersionID == "" {
		return nil, domain.ErrNotFound
	}
	return getVersion(ctx, s.store.db, chapter.HeadVersionID)
}

// History returns every committed version in sequence order.
func (s *versionStore) History(ctx context.Context, chapterID string) ([]domain.Version, error) {
	if _, err := getChapter(ctx, s.store.db, chapterID); err != nil {
		return nil, err
	}
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+versionColumns+` `+versionFrom+` WHERE v.chapter_id = ? ORDER BY v.seq`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	return collectVersions(rows)
}

// RecordDecision records a decision on the head version.
// A rejection rewinds the head in the same transaction.
func (s *versionStore) RecordDecision(ctx context.Context, versionID string, decision domain.Decision) error {
	v, err := getVersion(ctx, s.store.db, versionID)
	if err != nil {
		return err
	}
	unlock := s.store.lockChapter(v.ChapterID)
	defer unlock()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	v, err = getVersion(ctx, tx, versionID)
	if err != nil {
		return err
	}
	chapter, err := getChapter(ctx, tx, v.ChapterID)
	if err != nil {
		return err
	}
	if err := domain.ValidateDecisionTarget(chapter.HeadVersionID, v, decision); err != nil {
		return err
	}

	newHead := chapter.HeadVersionID
	if decision.Kind == domain.DecisionReject {
		newHead, err = domain.RewindTarget(v, func(id string) (*domain.Version, error) {
			return getVersion(ctx, tx, id)
		})
		if err != nil {
			return err
		}
	}

	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = s.store.now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO decisions (version_id, kind, content, decided_at) VALUES (?, ?, ?, ?)`,
		versionID, string(decision.Kind), decision.Content, decision.DecidedAt); err != nil {
		return fmt.Errorf("inserting decision: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chapters SET head_version_id = ? WHERE id = ?`, nullString(newHead), chapter.ID); err != nil {
		return fmt.Errorf("moving head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListVersions returns versions across chapters matching the filter, in commit order.
func (s *versionStore) ListVersions(ctx context.Context, filter domain.VersionFilter) ([]domain.Version, error) {
	query := `SELECT ` + versionColumns + ` ` + versionFrom
	var args []any
	if filter.ChapterID != "" {
		query += ` WHERE v.chapter_id = ?`
		args = append(args, filter.ChapterID)
	}
	query += ` ORDER BY v.commit_order`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	all, err := collectVersions(rows)
	if err != nil {
		return nil, err
	}

	result := all[:0]
	for _, v := range all {
		if filter.Matches(v.ChapterID, v.Stage) {
			result = append(result, v)
		}
	}
	return result, nil
}

// lineageState summarises a chapter and returns its version count.
func lineageState(ctx context.Context, q queryer, chapter *domain.Chapter) (domain.LineageState, int, error) {
	state := domain.LineageState{HeadID: chapter.HeadVersionID}
	var count, raw, final int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN stage = 'RAW' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN stage = 'FINAL' THEN 1 ELSE 0 END), 0)
		FROM versions WHERE chapter_id = ?
	`, chapter.ID).Scan(&count, &raw, &final)
	if err != nil {
		return state, 0, fmt.Errorf("reading lineage state: %w", err)
	}
	state.HasRaw = raw > 0
	state.HasFinal = final > 0
	return state, count, nil
}

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex over the embeddings table.
// Search is a brute-force cosine scan.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add stores or replaces an embedding entry.
func (i *vectorIndex) Add(ctx context.Context, entry driven.VectorEntry) error {
	if entry.Ref == "" || len(entry.Embedding) == 0 {
		return domain.ErrInvalidInput
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = i.store.now()
	}
	_, err := i.store.db.ExecContext(ctx, `
		INSERT INTO embeddings (ref, version_id, chapter_id, stage, created_at, dims, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			version_id = excluded.version_id,
			chapter_id = excluded.chapter_id,
			stage = excluded.stage,
			created_at = excluded.created_at,
			dims = excluded.dims,
			vector = excluded.vector
	`, entry.Ref, entry.VersionID, entry.ChapterID, string(entry.Stage), createdAt,
		len(entry.Embedding), float32SliceToBytes(entry.Embedding))
	if err != nil {
		return fmt.Errorf("%w: saving embedding: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Search returns the k most similar entries passing the filter.
func (i *vectorIndex) Search(
	ctx context.Context, query []float32, k int, filter domain.VersionFilter,
) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	sqlQuery := `SELECT ref, version_id, chapter_id, stage, created_at, vector FROM embeddings WHERE dims = ?`
	args := []any{len(query)}
	if filter.ChapterID != "" {
		sqlQuery += ` AND chapter_id = ?`
		args = append(args, filter.ChapterID)
	}

	rows, err := i.store.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying embeddings: %w", domain.ErrVectorIndexUnavailable, err)
	}
	defer rows.Close()

	hits := []driven.VectorHit{}
	for rows.Next() {
		var (
			ref, versionID, chapterID, stage string
			createdAt                        time.Time
			blob                             []byte
		)
		if err := rows.Scan(&ref, &versionID, &chapterID, &stage, &createdAt, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		if !filter.Matches(chapterID, domain.Stage(stage)) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			Ref:        ref,
			VersionID:  versionID,
			Similarity: domain.CosineSimilarity(query, bytesToFloat32Slice(blob)),
			CreatedAt:  createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	driven.SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Has reports whether an entry exists for the ref.
func (i *vectorIndex) Has(ctx context.Context, ref string) (bool, error) {
	var one int
	err := i.store.db.QueryRowContext(ctx, `SELECT 1 FROM embeddings WHERE ref = ?`, ref).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking embedding: %w", err)
	}
	return true, nil
}

// Count returns the number of stored entries.
func (i *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := i.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the connection.
func (i *vectorIndex) Close() error {
	return nil
}

// ==================== Helpers ====================

type scanner interface {
	Scan(dest ...any) error
}

func getChapter(ctx context.Context, q queryer, id string) (*domain.Chapter, error) {
	row := q.QueryRowContext(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE id = ?`, id)
	return scanChapter(row)
}

func scanChapter(row scanner) (*domain.Chapter, error) {
	var c domain.Chapter
	var head sql.NullString
	var status string
	if err := row.Scan(&c.ID, &c.Title, &c.SourceRef, &c.SnapshotRef, &head,
		&status, &c.StatusReason, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chapter: %w", err)
	}
	c.HeadVersionID = head.String
	c.Status = domain.ChapterStatus(status)
	return &c, nil
}

func getVersion(ctx context.Context, q queryer, id string) (*domain.Version, error) {
	row := q.QueryRowContext(ctx, `SELECT `+versionColumns+` `+versionFrom+` WHERE v.id = ?`, id)
	return scanVersion(row)
}

func scanVersion(row scanner) (*domain.Version, error) {
	var (
		v                     domain.Version
		stage                 string
		parentID, critique    sql.NullString
		kind, decisionContent sql.NullString
		decidedAt             sql.NullTime
	)
	if err := row.Scan(&v.ID, &v.ChapterID, &v.Sequence, &stage, &v.Content, &parentID,
		&v.Iteration, &critique, &v.EmbeddingRef, &v.CreatedAt,
		&kind, &decisionContent, &decidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning version: %w", err)
	}
	v.Stage = domain.Stage(stage)
	if parentID.Valid {
		v.ParentID = &parentID.String
	}
	if critique.Valid {
		v.Critique = &critique.String
	}
	if kind.Valid {
		v.Decision = &domain.Decision{
			Kind:      domain.DecisionKind(kind.String),
			Content:   decisionContent.String,
			DecidedAt: decidedAt.Time,
		}
	}
	return &v, nil
}

func collectVersions(rows *sql.Rows) ([]domain.Version, error) {
	defer rows.Close()
	versions := []domain.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}
	return versions, nil
}

// requireRow maps an update that touched nothing to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// nullString returns nil for empty strings so the column stores NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullStringPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
