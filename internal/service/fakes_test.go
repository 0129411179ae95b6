package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/repository"
)

// In-memory repository fakes. They mirror the error contracts of the real
// PostgreSQL implementations so the services under test cannot tell the
// difference.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) MarkVerified(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.IsVerified = true
	user.OTPCode = nil
	user.OTPExpiresAt = nil
	return nil
}

func (r *fakeUserRepo) UpdateLastLogin(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, userID)
	return nil
}

func (r *fakeUserRepo) ListExcept(ctx context.Context, excludeUserID string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []*domain.User
	for _, user := range r.users {
		if user.ID == excludeUserID {
			continue
		}
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken // keyed by token hash
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *fakeTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[token.TokenHash]; exists {
		return repository.ErrDuplicateToken
	}

	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	copied := *token
	r.tokens[token.TokenHash] = &copied
	return nil
}

func (r *fakeTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *fakeTokenRepo) GetByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tokens []*domain.RefreshToken
	for _, token := range r.tokens {
		if token.UserID == userID {
			copied := *token
			tokens = append(tokens, &copied)
		}
	}
	return tokens, nil
}

func (r *fakeTokenRepo) Rotate(ctx context.Context, oldHash string, replacement *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.tokens[oldHash]
	if !ok || old.RevokedAt != nil {
		return repository.ErrTokenNotRotatable
	}

	if replacement.ID == "" {
		replacement.ID = uuid.New().String()
	}
	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = time.Now()
	}

	now := time.Now()
	old.RevokedAt = &now
	old.ReplacedBy = &replacement.ID

	copied := *replacement
	r.tokens[replacement.TokenHash] = &copied
	return nil
}

func (r *fakeTokenRepo) Revoke(ctx context.Context, tokenHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenHash]
	if !ok || token.RevokedAt != nil {
		return repository.ErrNotFound
	}
	token.RevokedAt = &at
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	now := time.Now()
	for hash, token := range r.tokens {
		if token.ExpiresAt.Before(now) {
			delete(r.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]bool // keyed by user id
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]bool)}
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *domain.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = true
	return nil
}

func (r *fakeProfileRepo) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profiles[userID], nil
}

type fakeMetricRepo struct {
	mu      sync.Mutex
	metrics []*domain.HealthMetric
}

func newFakeMetricRepo() *fakeMetricRepo {
	return &fakeMetricRepo{}
}

func (r *fakeMetricRepo) Create(ctx context.Context, metric *domain.HealthMetric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if metric.ID == "" {
		metric.ID = uuid.New().String()
	}
	if metric.RecordedAt.IsZero() {
		metric.RecordedAt = time.Now()
	}

	copied := *metric
	r.metrics = append(r.metrics, &copied)
	return nil
}

func (r *fakeMetricRepo) ListByPatient(ctx context.Context, patientID string, filter repository.MetricFilter) ([]*domain.HealthMetric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.HealthMetric
	for _, metric := range r.metrics {
		if metric.PatientID != patientID {
			continue
		}
		if filter.MetricType != nil && metric.MetricType != *filter.MetricType {
			continue
		}
		if filter.From != nil && metric.RecordedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && metric.RecordedAt.After(*filter.To) {
			continue
		}
		copied := *metric
		out = append(out, &copied)
	}
	return out, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *fakeAuditRepo) byAction(action string) []*domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.AuditEntry
	for _, entry := range r.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failErr error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return m.failErr
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{tokens: make(map[string]time.Time)}
}

func (b *fakeBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ttl <= 0 {
		return fmt.Errorf("non-positive ttl %v", ttl)
	}
	b.tokens[token] = time.Now().Add(ttl)
	return nil
}

func (b *fakeBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, ok := b.tokens[token]
	return ok && time.Now().Before(expiry), nil
}
