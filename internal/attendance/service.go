package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmployeeExists     = errors.New("employee already exists")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrBadPassphrase      = errors.New("wrong admin passphrase")
)

// Service coordinates attendance writes, roster management and the admin
// gate.
type Service struct {
	repo          *Repository
	dedupWindow   time.Duration
	companyDomain string
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository, dedupWindow time.Duration, companyDomain string) *Service {
	if dedupWindow <= 0 {
		dedupWindow = 5 * time.Minute
	}
	return &Service{repo: repo, dedupWindow: dedupWindow, companyDomain: companyDomain}
}

// CheckIn persists an assembled record. A record of the same actor and kind
// inside the dedup window is returned as-is instead of inserting a
// duplicate.
func (s *Service) CheckIn(ctx context.Context, rec Record) (Record, error) {
	if rec.Actor == "" {
		return Record{}, errors.New("actor required")
	}
	if !rec.Kind.Valid() {
		return Record{}, errors.New("invalid action kind")
	}
	if rec.Date == "" || rec.Time == "" {
		return Record{}, errors.New("record not assembled")
	}
	if recent, err := s.repo.RecentRecord(ctx, rec.Actor, rec.Kind, s.dedupWindow); err != nil {
		return Record{}, err
	} else if recent != nil {
		return *recent, nil
	}
	return s.repo.InsertRecord(ctx, rec)
}

// Records lists persisted records with optional actor and day-range filters.
func (s *Service) Records(ctx context.Context, actor string, from, to *time.Time, limit, offset int) ([]Record, error) {
	return s.repo.ListRecords(ctx, actor, from, to, limit, offset)
}

// Purge batch-deletes records in the inclusive day range. An unbounded purge
// is refused.
func (s *Service) Purge(ctx context.Context, from, to time.Time) (int64, error) {
	if from.IsZero() || to.IsZero() {
		return 0, errors.New("date range required")
	}
	if to.Before(from) {
		return 0, errors.New("end date before start date")
	}
	return s.repo.PurgeRange(ctx, from, to)
}

// RegisterEmployee creates a roster entry with a bcrypt-hashed password.
// Bare usernames get the company domain appended.
func (s *Service) RegisterEmployee(ctx context.Context, email, password string) (Employee, error) {
	email = NormalizeEmail(email, s.companyDomain)
	if email == "" {
		return Employee{}, errors.New("email required")
	}
	if len(password) < 6 {
		return Employee{}, ErrWeakPassword
	}
	if existing, err := s.repo.GetEmployeeByEmail(ctx, email); err != nil {
		return Employee{}, err
	} else if existing != nil {
		return Employee{}, ErrEmployeeExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Employee{}, err
	}
	return s.repo.CreateEmployee(ctx, email, string(hash))
}

// VerifyLogin checks a credential pair against the roster.
func (s *Service) VerifyLogin(ctx context.Context, email, password string) (*Employee, error) {
	email = NormalizeEmail(email, s.companyDomain)
	emp, err := s.repo.GetEmployeeByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return emp, nil
}

// VerifyAdminGate checks the shared admin passphrase stored in the settings
// table. Callers exchange a successful check for an admin-role token.
func (s *Service) VerifyAdminGate(ctx context.Context, passphrase string) error {
	stored, err := s.repo.AdminPassphrase(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(passphrase) != strings.TrimSpace(stored) {
		return ErrBadPassphrase
	}
	return nil
}

// Deactivate moves an employee to the deletion queue. Returns nil when the
// employee does not exist.
func (s *Service) Deactivate(ctx context.Context, employeeID string) (*QueueEntry, error) {
	return s.repo.MoveToDeletionQueue(ctx, employeeID)
}

// Roster returns the active roster.
func (s *Service) Roster(ctx context.Context) ([]Employee, error) {
	return s.repo.ListEmployees(ctx)
}

// DeletionQueue returns the soft-deletion queue.
func (s *Service) DeletionQueue(ctx context.Context) ([]QueueEntry, error) {
	return s.repo.ListDeletionQueue(ctx)
}

// NormalizeEmail lowercases and trims the identifier, appending the company
// domain when no domain was given.
func NormalizeEmail(email, domain string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	if !strings.Contains(email, "@") && domain != "" {
		email += "@" + domain
	}
	return email
}
