// Package session persists the signed-in session and interrupted auth flows
// in a small SQLite database under the hiredesk home directory.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"hiredesk/internal/authflow"
	"hiredesk/internal/logging"
)

var (
	// ErrNoSession is returned when nobody is signed in.
	ErrNoSession = errors.New("no stored session")
	// ErrNoPending is returned when a flow has nothing to resume.
	ErrNoPending = errors.New("no pending flow")
)

// Session is the signed-in user.
type Session struct {
	Email     string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token carries no expiry
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Pending is an interrupted flow: where it was and for whom.
type Pending struct {
	Flow      authflow.Flow
	Cursor    int
	Identity  string
	UpdatedAt time.Time
}

// State rebuilds the flow state. Unknown cursors and verify/reset cursors
// without an identity come back at the entry step.
func (p Pending) State() authflow.State {
	return authflow.Restore(p.Flow, p.Cursor, p.Identity)
}

// Store manages the session database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
	now    func() time.Time
}

// Open creates or opens <dir>/session.db.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "session.db")

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single connection: busy_timeout below is per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: dbPath, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.SessionDebug("opened %s", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS session (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		email TEXT NOT NULL,
		token TEXT NOT NULL,
		issued_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS pending_flows (
		flow TEXT PRIMARY KEY,
		cursor INTEGER NOT NULL,
		identity TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0)
}

// SaveSession replaces the stored session. IssuedAt defaults to now and
// ExpiresAt to the token's exp claim when it has one. A session without a
// token records only who signed in; the server keeps it in cookies.
func (s *Store) SaveSession(sess Session) error {
	if sess.Token == "" && sess.Email == "" {
		return fmt.Errorf("session needs a token or an email")
	}
	if sess.IssuedAt.IsZero() {
		sess.IssuedAt = s.now()
	}
	if sess.Token != "" {
		if claims, err := ParseClaims(sess.Token); err == nil {
			if sess.ExpiresAt.IsZero() {
				sess.ExpiresAt = claims.ExpiresAt
			}
			if sess.Email == "" {
				sess.Email = claims.Email
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO session (id, email, token, issued_at, expires_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			token = excluded.token,
			issued_at = excluded.issued_at,
			expires_at = excluded.expires_at
	`, sess.Email, sess.Token, unix(sess.IssuedAt), unix(sess.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	logging.Session("session saved for %s", logging.MaskEmail(sess.Email))
	logging.Audit().Log(logging.AuditEvent{EventType: logging.AuditSessionSaved, Identity: sess.Email, Success: true})
	return nil
}

// LoadSession returns the stored session or ErrNoSession.
func (s *Store) LoadSession() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sess              Session
		issued, expiresAt int64
	)
	err := s.db.QueryRow(`SELECT email, token, issued_at, expires_at FROM session WHERE id = 1`).
		Scan(&sess.Email, &sess.Token, &issued, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	sess.IssuedAt = fromUnix(issued)
	sess.ExpiresAt = fromUnix(expiresAt)
	return &sess, nil
}

// ClearSession removes the stored session. Clearing an empty store is not an error.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	logging.Session("session cleared")
	logging.Audit().Log(logging.AuditEvent{EventType: logging.AuditSessionCleared, Success: true})
	return nil
}

// SavePending records where a flow was interrupted. A flow at the entry step
// has nothing worth resuming, so saving it clears the record instead.
func (s *Store) SavePending(p Pending) error {
	if authflow.StepFromCursor(p.Cursor) == authflow.StepEntry || p.Identity == "" {
		return s.ClearPending(p.Flow)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO pending_flows (flow, cursor, identity, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(flow) DO UPDATE SET
			cursor = excluded.cursor,
			identity = excluded.identity,
			updated_at = excluded.updated_at
	`, p.Flow.String(), p.Cursor, p.Identity, unix(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save pending %s flow: %w", p.Flow, err)
	}
	logging.SessionDebug("pending %s flow saved at cursor %d", p.Flow, p.Cursor)
	return nil
}

// LoadPending returns the interrupted flow or ErrNoPending.
func (s *Store) LoadPending(flow authflow.Flow) (*Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := Pending{Flow: flow}
	var updated int64
	err := s.db.QueryRow(`SELECT cursor, identity, updated_at FROM pending_flows WHERE flow = ?`, flow.String()).
		Scan(&p.Cursor, &p.Identity, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending %s flow: %w", flow, err)
	}
	p.UpdatedAt = fromUnix(updated)
	return &p, nil
}

// ClearPending forgets an interrupted flow.
func (s *Store) ClearPending(flow authflow.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM pending_flows WHERE flow = ?`, flow.String()); err != nil {
		return fmt.Errorf("failed to clear pending %s flow: %w", flow, err)
	}
	return nil
}

// ClearAllPending forgets every interrupted flow.
func (s *Store) ClearAllPending() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM pending_flows`); err != nil {
		return fmt.Errorf("failed to clear pending flows: %w", err)
	}
	return nil
}
