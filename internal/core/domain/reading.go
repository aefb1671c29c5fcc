package domain

import "time"

type ReadingKind string

const (
	ReadingBloodPressure ReadingKind = "bp"
	ReadingGlucose       ReadingKind = "glucose"
)

type BloodPressureReading struct {
	ID        string    `json:"reading_id" bson:"id"`
	Systolic  int       `json:"systolic" bson:"systolic"`
	Diastolic int       `json:"diastolic" bson:"diastolic"`
	Date      time.Time `json:"date" bson:"date"`
}

type GlucoseReading struct {
	ID    string    `json:"reading_id" bson:"id"`
	Value float64   `json:"value" bson:"value"`
	Date  time.Time `json:"date" bson:"date"`
}

// Readings is the per-user readings document.
type Readings struct {
	UserID        string                 `json:"user_id" bson:"user_id"`
	BloodPressure []BloodPressureReading `json:"blood_pressure_readings" bson:"blood_pressure_readings"`
	Glucose       []GlucoseReading       `json:"glucose_readings" bson:"glucose_readings"`
}
