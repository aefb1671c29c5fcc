package domain

import "time"

type LabReport struct {
	ID             string         `json:"id" bson:"_id"`
	UserID         string         `json:"user_id,omitempty" bson:"user_id,omitempty"`
	BasicInfo      BasicInfo      `json:"basicInfo" bson:"basic_info"`
	HealthcareInfo HealthcareInfo `json:"healthcareInfo" bson:"healthcare_info"`
	VitalSigns     VitalSigns     `json:"vitalSigns" bson:"vital_signs"`
	AdditionalInfo AdditionalInfo `json:"additionalInfo" bson:"additional_info"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" bson:"updated_at"`
}

type BasicInfo struct {
	Title       string `json:"title" bson:"title"`
	Type        string `json:"type" bson:"type"`
	Description string `json:"description" bson:"description"`
}

type HealthcareInfo struct {
	DoctorName   string `json:"doctorName" bson:"doctor_name"`
	HospitalName string `json:"hospitalName" bson:"hospital_name"`
}

type VitalSigns struct {
	BloodPressure string `json:"bloodPressure" bson:"blood_pressure"`
	HeartRate     string `json:"heartRate" bson:"heart_rate"`
	GlucoseLevel  string `json:"GlucoseLevel" bson:"glucose_level"`
	Weight        string `json:"weight" bson:"weight"`
}

type AdditionalInfo struct {
	Medications string `json:"medications" bson:"medications"`
	Diagnosis   string `json:"diagnosis" bson:"diagnosis"`
}
