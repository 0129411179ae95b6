package service

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carebridge/telehealth-api/internal/apperr"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/dto"
	"github.com/carebridge/telehealth-api/internal/utils"
)

func newMetricFixture(t *testing.T) (MetricService, *fakeMetricRepo) {
	t.Helper()

	key, _ := hex.DecodeString("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	cipher, err := utils.NewValueCipher(key)
	require.NoError(t, err)

	repo := newFakeMetricRepo()
	return NewMetricService(repo, cipher, zap.NewNop()), repo
}

func TestLogMetric(t *testing.T) {
	service, repo := newMetricFixture(t)

	resp, err := service.Log(context.Background(), "patient-1", &dto.LogMetricRequest{
		MetricType: "GLUCOSE",
		Value:      domain.MetricValue{Amount: 120},
		Note:       "after lunch",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MetricGlucose, resp.MetricType)
	assert.Equal(t, float64(120), resp.Value.Amount)
	assert.Equal(t, "after lunch", resp.Note)
	assert.False(t, resp.IsAbnormal)
	assert.NotEmpty(t, resp.ID)

	// stored value is ciphertext, never the reading itself
	require.Len(t, repo.metrics, 1)
	stored := repo.metrics[0]
	assert.NotContains(t, stored.EncryptedValue, "120")
	assert.True(t, strings.Contains(stored.EncryptedValue, ":"))
	require.NotNil(t, stored.EncryptedNote)
	assert.NotContains(t, *stored.EncryptedNote, "lunch")
}

func TestLogMetric_AbnormalFlag(t *testing.T) {
	service, _ := newMetricFixture(t)

	resp, err := service.Log(context.Background(), "patient-1", &dto.LogMetricRequest{
		MetricType: "BLOOD_PRESSURE",
		Value:      domain.MetricValue{Systolic: 150, Diastolic: 95},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsAbnormal)
}

func TestLogMetric_Validation(t *testing.T) {
	service, _ := newMetricFixture(t)

	cases := []struct {
		name string
		req  dto.LogMetricRequest
	}{
		{"unknown type", dto.LogMetricRequest{MetricType: "TEMPERATURE", Value: domain.MetricValue{Amount: 37}}},
		{"zero amount", dto.LogMetricRequest{MetricType: "GLUCOSE", Value: domain.MetricValue{}}},
		{"bp missing diastolic", dto.LogMetricRequest{MetricType: "BLOOD_PRESSURE", Value: domain.MetricValue{Systolic: 120}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Log(context.Background(), "patient-1", &tc.req)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestMetricHistory(t *testing.T) {
	service, _ := newMetricFixture(t)

	for _, amount := range []float64{95, 200} {
		_, err := service.Log(context.Background(), "patient-1", &dto.LogMetricRequest{
			MetricType: "GLUCOSE",
			Value:      domain.MetricValue{Amount: amount},
		})
		require.NoError(t, err)
	}
	_, err := service.Log(context.Background(), "patient-1", &dto.LogMetricRequest{
		MetricType: "HEART_RATE",
		Value:      domain.MetricValue{Amount: 72},
	})
	require.NoError(t, err)
	_, err = service.Log(context.Background(), "patient-2", &dto.LogMetricRequest{
		MetricType: "GLUCOSE",
		Value:      domain.MetricValue{Amount: 110},
	})
	require.NoError(t, err)

	all, err := service.History(context.Background(), "patient-1", "", nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	glucose, err := service.History(context.Background(), "patient-1", "GLUCOSE", nil, nil)
	require.NoError(t, err)
	require.Len(t, glucose, 2)
	assert.False(t, glucose[0].IsAbnormal)
	assert.True(t, glucose[1].IsAbnormal)

	_, err = service.History(context.Background(), "patient-1", "TEMPERATURE", nil, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestMetricHistory_DateFilter(t *testing.T) {
	service, repo := newMetricFixture(t)

	_, err := service.Log(context.Background(), "patient-1", &dto.LogMetricRequest{
		MetricType: "WEIGHT",
		Value:      domain.MetricValue{Amount: 80},
	})
	require.NoError(t, err)

	// push the reading into last week
	repo.mu.Lock()
	repo.metrics[0].RecordedAt = time.Now().AddDate(0, 0, -7)
	repo.mu.Unlock()

	yesterday := time.Now().AddDate(0, 0, -1)
	recent, err := service.History(context.Background(), "patient-1", "", &yesterday, nil)
	require.NoError(t, err)
	assert.Empty(t, recent)

	lastMonth := time.Now().AddDate(0, -1, 0)
	older, err := service.History(context.Background(), "patient-1", "", &lastMonth, &yesterday)
	require.NoError(t, err)
	assert.Len(t, older, 1)
}

func TestMetricHistory_SkipsUndecodableRows(t *testing.T) {
	service, repo := newMetricFixture(t)

	_, err := service.Log(context.Background(), "patient-1", &dto.LogMetricRequest{
		MetricType: "GLUCOSE",
		Value:      domain.MetricValue{Amount: 100},
	})
	require.NoError(t, err)

	// a row whose stored value is not JSON at all
	repo.mu.Lock()
	repo.metrics = append(repo.metrics, &domain.HealthMetric{
		ID:             "corrupt-row",
		PatientID:      "patient-1",
		MetricType:     domain.MetricGlucose,
		EncryptedValue: "not json and not ciphertext",
		RecordedAt:     time.Now(),
	})
	repo.mu.Unlock()

	history, err := service.History(context.Background(), "patient-1", "", nil, nil)
	require.NoError(t, err)
	assert.Len(t, history, 1, "corrupt rows are skipped, not fatal")
}
