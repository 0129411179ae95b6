package repository

import (
	"github.com/carebridge/telehealth-api/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Token   TokenRepository
	Profile ProfileRepository
	Metric  MetricRepository
	Audit   AuditRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Token:   NewTokenRepository(db),
		Profile: NewProfileRepository(db),
		Metric:  NewMetricRepository(db),
		Audit:   NewAuditRepository(db),
	}
}
