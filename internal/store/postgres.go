package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prowe12/plantswap/internal/models"
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore handles users, shares and requests against PostgreSQL.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ConnectPostgres opens a pgx pool and checks connectivity.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate creates the tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			username      VARCHAR(50)  UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS shares (
			id               BIGSERIAL PRIMARY KEY,
			plant_name       TEXT             NOT NULL,
			shared_by        TEXT             NOT NULL,
			amount           DOUBLE PRECISION NOT NULL,
			description      TEXT             NOT NULL DEFAULT '',
			is_available_now BOOLEAN          NOT NULL DEFAULT FALSE,
			date             TEXT             NOT NULL DEFAULT '',
			photo_key        TEXT             NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS requests (
			id           BIGSERIAL PRIMARY KEY,
			plant_name   TEXT             NOT NULL,
			requested_by TEXT             NOT NULL,
			amount       DOUBLE PRECISION NOT NULL,
			notes        TEXT             NOT NULL DEFAULT '',
			date         TEXT             NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ── users ────────────────────────────────────────────────────

func (s *PostgresStore) Insert(ctx context.Context, username, passwordHash string) (*models.User, error) {
	u := models.User{PasswordHash: passwordHash}
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, username, is_active, created_at`,
		username, passwordHash,
	).Scan(&u.ID, &u.Username, &u.IsActive, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, password_hash, is_active, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) SetActive(ctx context.Context, username string, active bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET is_active = $2 WHERE username = $1`, username, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ── shares ───────────────────────────────────────────────────

const shareColumns = `id, plant_name, shared_by, amount, description, is_available_now, date, photo_key`

func (s *PostgresStore) CreateShare(ctx context.Context, sh *models.Share) (*models.Share, error) {
	out := *sh
	err := s.db.QueryRow(ctx,
		`INSERT INTO shares (plant_name, shared_by, amount, description, is_available_now, date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		sh.PlantName, sh.SharedBy, sh.Amount, sh.Description, sh.IsAvailableNow, sh.Date,
	).Scan(&out.ID)
	if err != nil {
		return nil, fmt.Errorf("insert share: %w", err)
	}
	out.PhotoKey = ""
	return &out, nil
}

func (s *PostgresStore) ListShares(ctx context.Context) ([]models.Share, error) {
	rows, err := s.db.Query(ctx, `SELECT `+shareColumns+` FROM shares ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	shares := []models.Share{}
	for rows.Next() {
		var sh models.Share
		if err := rows.Scan(&sh.ID, &sh.PlantName, &sh.SharedBy, &sh.Amount,
			&sh.Description, &sh.IsAvailableNow, &sh.Date, &sh.PhotoKey); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, sh)
	}
	return shares, rows.Err()
}

func (s *PostgresStore) GetShare(ctx context.Context, id int64) (*models.Share, error) {
	var sh models.Share
	err := s.db.QueryRow(ctx, `SELECT `+shareColumns+` FROM shares WHERE id = $1`, id).
		Scan(&sh.ID, &sh.PlantName, &sh.SharedBy, &sh.Amount,
			&sh.Description, &sh.IsAvailableNow, &sh.Date, &sh.PhotoKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get share: %w", err)
	}
	return &sh, nil
}

func (s *PostgresStore) DeleteShare(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "shares", id)
}

func (s *PostgresStore) SetSharePhoto(ctx context.Context, id int64, key string) error {
	tag, err := s.db.Exec(ctx, `UPDATE shares SET photo_key = $2 WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("set share photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ── requests ─────────────────────────────────────────────────

func (s *PostgresStore) CreateRequest(ctx context.Context, rq *models.Request) (*models.Request, error) {
	out := *rq
	err := s.db.QueryRow(ctx,
		`INSERT INTO requests (plant_name, requested_by, amount, notes, date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		rq.PlantName, rq.RequestedBy, rq.Amount, rq.Notes, rq.Date,
	).Scan(&out.ID)
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}
	return &out, nil
}

func (s *PostgresStore) ListRequests(ctx context.Context) ([]models.Request, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, plant_name, requested_by, amount, notes, date FROM requests ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	requests := []models.Request{}
	for rows.Next() {
		var rq models.Request
		if err := rows.Scan(&rq.ID, &rq.PlantName, &rq.RequestedBy, &rq.Amount, &rq.Notes, &rq.Date); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, rq)
	}
	return requests, rows.Err()
}

func (s *PostgresStore) DeleteRequest(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "requests", id)
}

// table is always one of the constant names above.
func (s *PostgresStore) deleteByID(ctx context.Context, table string, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
