package domain

import "time"

// MetricType is the closed set of tracked health metric kinds
type MetricType string

const (
	MetricGlucose       MetricType = "GLUCOSE"
	MetricBloodPressure MetricType = "BLOOD_PRESSURE"
	MetricWeight        MetricType = "WEIGHT"
	MetricHeartRate     MetricType = "HEART_RATE"
)

// ParseMetricType maps a string to a known metric type, reporting whether it matched
func ParseMetricType(s string) (MetricType, bool) {
	switch MetricType(s) {
	case MetricGlucose, MetricBloodPressure, MetricWeight, MetricHeartRate:
		return MetricType(s), true
	}
	return "", false
}

// MetricValue is a recorded reading. Scalar metrics use Amount; blood pressure
// uses Systolic/Diastolic.
type MetricValue struct {
	Amount    float64 `json:"amount,omitempty"`
	Systolic  float64 `json:"systolic,omitempty"`
	Diastolic float64 `json:"diastolic,omitempty"`
}

// IsAbnormal applies the clinical threshold for the metric type to the value.
// Weight is trend-based and never flagged on a single reading.
func (v MetricValue) IsAbnormal(t MetricType) bool {
	switch t {
	case MetricGlucose:
		// hypoglycemia below 70, hyperglycemia above 180
		return v.Amount < 70 || v.Amount > 180
	case MetricBloodPressure:
		return v.Systolic > 140 || v.Diastolic > 90
	case MetricHeartRate:
		// generic resting-rate bounds
		return v.Amount < 50 || v.Amount > 110
	default:
		return false
	}
}

// HealthMetric represents a stored reading. EncryptedValue and EncryptedNote
// hold the AES ciphertext; plaintext never reaches the database.
type HealthMetric struct {
	ID             string     `json:"id" db:"id"`
	PatientID      string     `json:"patient_id" db:"patient_id"`
	MetricType     MetricType `json:"metric_type" db:"metric_type"`
	EncryptedValue string     `json:"-" db:"value"`
	EncryptedNote  *string    `json:"-" db:"note"`
	RecordedAt     time.Time  `json:"recorded_at" db:"recorded_at"`
}
