package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/pkg/database"
)

// metricRepository implements MetricRepository over PostgreSQL
type metricRepository struct {
	db *database.Postgres
}

// NewMetricRepository creates a new health metric repository
func NewMetricRepository(db *database.Postgres) MetricRepository {
	return &metricRepository{db: db}
}

// Create inserts a health metric. Value and note arrive already encrypted.
func (r *metricRepository) Create(ctx context.Context, metric *domain.HealthMetric) error {
	query := `
		INSERT INTO health_metrics (id, patient_id, metric_type, value, note, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if metric.ID == "" {
		metric.ID = uuid.New().String()
	}
	if metric.RecordedAt.IsZero() {
		metric.RecordedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		metric.ID,
		metric.PatientID,
		string(metric.MetricType),
		metric.EncryptedValue,
		metric.EncryptedNote,
		metric.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create health metric: %w", err)
	}

	return nil
}

// ListByPatient retrieves a patient's readings, oldest first for charting
func (r *metricRepository) ListByPatient(ctx context.Context, patientID string, filter MetricFilter) ([]*domain.HealthMetric, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, patient_id, metric_type, value, note, recorded_at FROM health_metrics WHERE patient_id = $1`)

	args := []any{patientID}

	if filter.MetricType != nil {
		args = append(args, string(*filter.MetricType))
		sb.WriteString(` AND metric_type = $` + strconv.Itoa(len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		sb.WriteString(` AND recorded_at >= $` + strconv.Itoa(len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		sb.WriteString(` AND recorded_at <= $` + strconv.Itoa(len(args)))
	}

	sb.WriteString(` ORDER BY recorded_at ASC`)

	rows, err := r.db.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list health metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*domain.HealthMetric
	for rows.Next() {
		metric := &domain.HealthMetric{}
		var metricType string
		var note sql.NullString

		err := rows.Scan(
			&metric.ID,
			&metric.PatientID,
			&metricType,
			&metric.EncryptedValue,
			&note,
			&metric.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan health metric: %w", err)
		}

		metric.MetricType = domain.MetricType(metricType)
		if note.Valid {
			metric.EncryptedNote = &note.String
		}

		metrics = append(metrics, metric)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate health metrics: %w", err)
	}

	return metrics, nil
}
