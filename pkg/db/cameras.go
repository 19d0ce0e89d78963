package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrCameraNotFound = errors.New("camera not found")
	ErrCameraExists   = errors.New("camera already exists")
)

// Camera is a stored camera configuration.
type Camera struct {
	ID           string
	ProfileID    int64
	Name         string
	URL          string
	Username     string
	Password     string
	AuthMode     string
	VerifySSL    bool
	PollInterval int // seconds
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CameraStore provides camera CRUD operations.
type CameraStore interface {
	Get(ctx context.Context, id string) (*Camera, error)
	GetByURL(ctx context.Context, profileID int64, url string) (*Camera, error)
	List(ctx context.Context, profileID int64) ([]*Camera, error)
	Create(ctx context.Context, c *Camera) error
	Update(ctx context.Context, c *Camera) error
	Delete(ctx context.Context, id string) error
}

func (db *DB) Cameras() CameraStore {
	return &cameraStore{db: db}
}

type cameraStore struct {
	db *DB
}

const cameraColumns = `id, profile_id, name, url, username, password, auth_mode, verify_ssl, poll_interval, created_at, updated_at`

func scanCamera(row rowScanner) (*Camera, error) {
	c := &Camera{}
	var createdAt, updatedAt string
	err := row.Scan(&c.ID, &c.ProfileID, &c.Name, &c.URL, &c.Username, &c.Password,
		&c.AuthMode, &c.VerifySSL, &c.PollInterval, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCameraNotFound
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	c.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return c, nil
}

func (s *cameraStore) Get(ctx context.Context, id string) (*Camera, error) {
	return scanCamera(s.db.QueryRowContext(ctx,
		`SELECT `+cameraColumns+` FROM cameras WHERE id = ?`, id))
}

func (s *cameraStore) GetByURL(ctx context.Context, profileID int64, url string) (*Camera, error) {
	return scanCamera(s.db.QueryRowContext(ctx,
		`SELECT `+cameraColumns+` FROM cameras WHERE profile_id = ? AND url = ?`, profileID, url))
}

func (s *cameraStore) List(ctx context.Context, profileID int64) ([]*Camera, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cameraColumns+` FROM cameras WHERE profile_id = ? ORDER BY name, id`, profileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cameras []*Camera
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}
		cameras = append(cameras, c)
	}
	return cameras, rows.Err()
}

func (s *cameraStore) Create(ctx context.Context, c *Camera) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cameras (id, profile_id, name, url, username, password, auth_mode, verify_ssl, poll_interval)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.ProfileID, c.Name, c.URL, c.Username, c.Password, c.AuthMode, c.VerifySSL, c.PollInterval)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCameraExists
		}
		return fmt.Errorf("failed to create camera: %w", err)
	}
	return nil
}

func (s *cameraStore) Update(ctx context.Context, c *Camera) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE cameras
		SET name = ?, url = ?, username = ?, password = ?, auth_mode = ?, verify_ssl = ?, poll_interval = ?,
		    updated_at = datetime('now')
		WHERE id = ?
	`, c.Name, c.URL, c.Username, c.Password, c.AuthMode, c.VerifySSL, c.PollInterval, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCameraExists
		}
		return fmt.Errorf("failed to update camera: %w", err)
	}
	return expectOne(result, ErrCameraNotFound)
}

func (s *cameraStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cameras WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result, ErrCameraNotFound)
}

func expectOne(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// isUniqueViolation matches SQLite's constraint message without importing
// driver internals.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
