package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertRecord writes a new attendance record.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, usuario, tipo, fecha, hora, localidad)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, rec.ID, rec.Actor, rec.Kind, rec.Date, rec.Time, rec.Place)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// RecentRecord returns the actor's latest record of the given kind inside
// the window, or nil when none exists.
func (r *Repository) RecentRecord(ctx context.Context, actor string, kind ActionKind, window time.Duration) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, usuario, tipo, fecha, hora, localidad
		FROM attendance_records
		WHERE usuario = $1 AND tipo = $2 AND created_at >= NOW() - ($3 * interval '1 second')
		ORDER BY created_at DESC
		LIMIT 1
	`, actor, kind, window.Seconds())
	var rec Record
	if err := row.Scan(&rec.ID, &rec.Actor, &rec.Kind, &rec.Date, &rec.Time, &rec.Place); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListRecords returns records newest first, optionally filtered by actor and
// an inclusive day range. The range is evaluated server side.
func (r *Repository) ListRecords(ctx context.Context, actor string, from, to *time.Time, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT id, usuario, tipo, fecha, hora, localidad FROM attendance_records`
	args := []any{}
	clauses := []string{}
	if actor != "" {
		args = append(args, actor)
		clauses = append(clauses, "usuario = $"+strconv.Itoa(len(args)))
	}
	if from != nil {
		args = append(args, *from)
		clauses = append(clauses, "created_at::date >= $"+strconv.Itoa(len(args))+"::date")
	}
	if to != nil {
		args = append(args, *to)
		clauses = append(clauses, "created_at::date <= $"+strconv.Itoa(len(args))+"::date")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Actor, &rec.Kind, &rec.Date, &rec.Time, &rec.Place); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// PurgeRange batch-deletes records whose day falls inside the inclusive
// range and returns the number removed.
func (r *Repository) PurgeRange(ctx context.Context, from, to time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM attendance_records
		WHERE created_at::date >= $1::date AND created_at::date <= $2::date
	`, from, to)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Employee is a roster entry.
type Employee struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListEmployees returns the active roster ordered by email.
func (r *Repository) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM employees
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Email, &e.PasswordHash, &e.CreatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// GetEmployeeByEmail returns an active employee, or nil when unknown.
func (r *Repository) GetEmployeeByEmail(ctx context.Context, email string) (*Employee, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM employees WHERE email = $1
	`, email)
	var e Employee
	if err := row.Scan(&e.ID, &e.Email, &e.PasswordHash, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// CreateEmployee inserts a roster entry.
func (r *Repository) CreateEmployee(ctx context.Context, email, passwordHash string) (Employee, error) {
	e := Employee{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO employees (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, e.ID, e.Email, e.PasswordHash)
	if err := row.Scan(&e.CreatedAt); err != nil {
		return Employee{}, err
	}
	return e, nil
}

// QueueEntry is a soft-deleted employee awaiting final removal.
type QueueEntry struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FechaBaja   time.Time  `json:"fechaBaja"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// MoveToDeletionQueue removes the employee from the active roster and
// records it in the deletion queue inside one transaction.
func (r *Repository) MoveToDeletionQueue(ctx context.Context, employeeID string) (*QueueEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `DELETE FROM employees WHERE id = $1 RETURNING email`, employeeID)
	var email string
	if err := row.Scan(&email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	entry := QueueEntry{ID: employeeID, Email: email}
	row = tx.QueryRowContext(ctx, `
		INSERT INTO deletion_queue (id, email, fecha_baja)
		VALUES ($1, $2, NOW())
		RETURNING fecha_baja
	`, entry.ID, entry.Email)
	if err := row.Scan(&entry.FechaBaja); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListDeletionQueue returns queued removals newest first.
func (r *Repository) ListDeletionQueue(ctx context.Context) ([]QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, fecha_baja, processed_at
		FROM deletion_queue
		ORDER BY fecha_baja DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []QueueEntry
	for rows.Next() {
		var e QueueEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.FechaBaja, &e.ProcessedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkDeletionProcessed stamps a queue entry as finalized by the worker.
func (r *Repository) MarkDeletionProcessed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE deletion_queue SET processed_at = NOW() WHERE id = $1 AND processed_at IS NULL
	`, id)
	return err
}

// AdminPassphrase returns the stored admin gate passphrase, seeding the
// default on first use.
func (r *Repository) AdminPassphrase(ctx context.Context) (string, error) {
	row := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'admin_passphrase'`)
	var value string
	err := row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		value = "admin123"
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES ('admin_passphrase', $1)
			ON CONFLICT (key) DO NOTHING
		`, value)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
