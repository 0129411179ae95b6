package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carebridge/telehealth-api/internal/apperr"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/dto"
	"github.com/carebridge/telehealth-api/internal/repository"
	"github.com/carebridge/telehealth-api/internal/utils"
	"go.uber.org/zap"
)

// metricService implements MetricService. Values are encrypted before they
// reach the repository and decrypted on the way out; abnormality is always
// computed on plaintext.
type metricService struct {
	metricRepo repository.MetricRepository
	cipher     *utils.ValueCipher
	logger     *zap.Logger
}

// NewMetricService creates the health metric service
func NewMetricService(metricRepo repository.MetricRepository, cipher *utils.ValueCipher, logger *zap.Logger) MetricService {
	return &metricService{
		metricRepo: metricRepo,
		cipher:     cipher,
		logger:     logger,
	}
}

// Log validates, encrypts and stores a reading, echoing the plaintext back
// with its abnormality flag
func (s *metricService) Log(ctx context.Context, patientID string, req *dto.LogMetricRequest) (*dto.MetricResponse, error) {
	metricType, ok := domain.ParseMetricType(req.MetricType)
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "unknown metric type")
	}

	if err := validateValue(metricType, req.Value); err != nil {
		return nil, err
	}

	plaintext, err := json.Marshal(req.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metric value: %w", err)
	}

	encryptedValue, err := s.cipher.Encrypt(string(plaintext))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt metric value: %w", err)
	}

	metric := &domain.HealthMetric{
		PatientID:      patientID,
		MetricType:     metricType,
		EncryptedValue: encryptedValue,
	}

	if req.Note != "" {
		encryptedNote, err := s.cipher.Encrypt(req.Note)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt metric note: %w", err)
		}
		metric.EncryptedNote = &encryptedNote
	}

	if err := s.metricRepo.Create(ctx, metric); err != nil {
		return nil, fmt.Errorf("failed to store metric: %w", err)
	}

	return &dto.MetricResponse{
		ID:         metric.ID,
		MetricType: metricType,
		Value:      req.Value,
		Note:       req.Note,
		RecordedAt: metric.RecordedAt,
		IsAbnormal: req.Value.IsAbnormal(metricType),
	}, nil
}

// History returns a patient's readings, decrypted and flagged, oldest first
func (s *metricService) History(ctx context.Context, patientID string, metricType string, from, to *time.Time) ([]dto.MetricResponse, error) {
	filter := repository.MetricFilter{From: from, To: to}

	if metricType != "" {
		parsed, ok := domain.ParseMetricType(metricType)
		if !ok {
			return nil, apperr.New(apperr.KindValidation, "unknown metric type")
		}
		filter.MetricType = &parsed
	}

	metrics, err := s.metricRepo.ListByPatient(ctx, patientID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load metric history: %w", err)
	}

	responses := make([]dto.MetricResponse, 0, len(metrics))
	for _, metric := range metrics {
		var value domain.MetricValue
		decrypted := s.cipher.Decrypt(metric.EncryptedValue)
		if err := json.Unmarshal([]byte(decrypted), &value); err != nil {
			// unreadable rows are skipped rather than poisoning the chart
			s.logger.Warn("failed to decode stored metric value",
				zap.String("metric_id", metric.ID),
				zap.Error(err),
			)
			continue
		}

		var note string
		if metric.EncryptedNote != nil {
			note = s.cipher.Decrypt(*metric.EncryptedNote)
		}

		responses = append(responses, dto.MetricResponse{
			ID:         metric.ID,
			MetricType: metric.MetricType,
			Value:      value,
			Note:       note,
			RecordedAt: metric.RecordedAt,
			IsAbnormal: value.IsAbnormal(metric.MetricType),
		})
	}

	return responses, nil
}

func validateValue(t domain.MetricType, v domain.MetricValue) error {
	if t == domain.MetricBloodPressure {
		if v.Systolic <= 0 || v.Diastolic <= 0 {
			return apperr.New(apperr.KindValidation, "blood pressure requires systolic and diastolic values")
		}
		return nil
	}

	if v.Amount <= 0 {
		return apperr.New(apperr.KindValidation, "metric value must be positive")
	}
	return nil
}
