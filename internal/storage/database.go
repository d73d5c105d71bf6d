package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// Storage handles database operations
type Storage struct {
	db       *sqlx.DB
	mu       sync.Mutex // serializes read-modify-write sequences
	closed   bool
	closedMu sync.RWMutex
}

// NewStorage creates a new storage instance
func NewStorage(dbPath string) (*Storage, error) {
	// Enable WAL mode for better concurrent writes
	db, err := sqlx.Connect("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection in WAL mode
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	// Run migrations
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.closedMu.Lock()
	defer s.closedMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	logger.Log.Debug().Msg("Closing storage")
	return s.db.Close()
}

func (s *Storage) checkOpen() error {
	s.closedMu.RLock()
	defer s.closedMu.RUnlock()
	if s.closed {
		return fmt.Errorf("storage is closed")
	}
	return nil
}

// UpsertServer stores url if it is new, otherwise bumps its activation time.
// The returned bool is true when a new row was created.
func (s *Storage) UpsertServer(url string) (*Server, bool, error) {
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	existing, err := s.getServer(url)
	switch {
	case err == nil:
		if _, err := s.db.Exec("UPDATE servers SET last_activated_at = ? WHERE id = ?", now, existing.ID); err != nil {
			return nil, false, fmt.Errorf("failed to activate server: %w", err)
		}
		existing.LastActivatedAt = &now
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return nil, false, err
	}

	server := &Server{
		URL:             url,
		Title:           titleFromURL(url),
		CreatedAt:       now,
		LastActivatedAt: &now,
	}
	query := `INSERT INTO servers (url, title, created_at, last_activated_at)
	          VALUES (:url, :title, :created_at, :last_activated_at)`
	result, err := s.db.NamedExec(query, server)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create server: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get server ID: %w", err)
	}
	server.ID = id
	return server, true, nil
}

// GetServer retrieves a server by URL
func (s *Storage) GetServer(url string) (*Server, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.getServer(url)
}

// GetServerByID retrieves a server by its id
func (s *Storage) GetServerByID(id int64) (*Server, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var server Server
	err := s.db.Get(&server, "SELECT * FROM servers WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return &server, nil
}

func (s *Storage) getServer(url string) (*Server, error) {
	var server Server
	err := s.db.Get(&server, "SELECT * FROM servers WHERE url = ?", url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return &server, nil
}

// GetServers retrieves all servers in the order they were added
func (s *Storage) GetServers() ([]Server, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	servers := []Server{}
	if err := s.db.Select(&servers, "SELECT * FROM servers ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get servers: %w", err)
	}
	return servers, nil
}

// SetServerTitle renames a server
func (s *Storage) SetServerTitle(url, title string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	result, err := s.db.Exec("UPDATE servers SET title = ? WHERE url = ?", title, url)
	if err != nil {
		return fmt.Errorf("failed to update server title: %w", err)
	}
	return requireAffected(result)
}

// DeleteServer removes a server
func (s *Storage) DeleteServer(url string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	result, err := s.db.Exec("DELETE FROM servers WHERE url = ?", url)
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}
	return requireAffected(result)
}

// GetTrustedCertificate retrieves the certificate trusted for host
func (s *Storage) GetTrustedCertificate(host string) (*TrustedCertificate, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var cert TrustedCertificate
	err := s.db.Get(&cert, "SELECT * FROM trusted_certificates WHERE host = ?", host)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trusted certificate: %w", err)
	}
	return &cert, nil
}

// TrustCertificate stores cert for its host, replacing any previous one
func (s *Storage) TrustCertificate(cert *TrustedCertificate) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO trusted_certificates (host, fingerprint, subject, issuer, created_at)
	          VALUES (:host, :fingerprint, :subject, :issuer, :created_at)
	          ON CONFLICT(host) DO UPDATE SET
	              fingerprint = excluded.fingerprint,
	              subject = excluded.subject,
	              issuer = excluded.issuer,
	              created_at = excluded.created_at`
	if _, err := s.db.NamedExec(query, cert); err != nil {
		return fmt.Errorf("failed to trust certificate: %w", err)
	}
	return nil
}

// RemoveTrustedCertificate forgets the certificate trusted for host
func (s *Storage) RemoveTrustedCertificate(host string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	result, err := s.db.Exec("DELETE FROM trusted_certificates WHERE host = ?", host)
	if err != nil {
		return fmt.Errorf("failed to remove trusted certificate: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// titleFromURL derives a default display title: the host without scheme or path
func titleFromURL(url string) string {
	title := url
	if i := strings.Index(title, "://"); i >= 0 {
		title = title[i+3:]
	}
	if i := strings.IndexByte(title, '/'); i >= 0 {
		title = title[:i]
	}
	return title
}
