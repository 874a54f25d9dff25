package patient

import "github.com/CareMeds-Health/medication-service/internal/model"

type CreatePatientRequest struct {
	Name              string   `json:"name"`
	Age               int      `json:"age"`
	Photo             string   `json:"photo,omitempty"`
	MedicalConditions []string `json:"medical_conditions,omitempty"`
	Allergies         []string `json:"allergies,omitempty"`
	CaregiverName     string   `json:"caregiver_name,omitempty"`
}

// UpdatePatientRequest uses pointers so absent fields are left unchanged.
type UpdatePatientRequest struct {
	Name              *string   `json:"name,omitempty"`
	Age               *int      `json:"age,omitempty"`
	Photo             *string   `json:"photo,omitempty"`
	MedicalConditions *[]string `json:"medical_conditions,omitempty"`
	Allergies         *[]string `json:"allergies,omitempty"`
	CaregiverName     *string   `json:"caregiver_name,omitempty"`
}

type ListResponse struct {
	Patients []model.Patient `json:"patients"`
	Count    int             `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationResponse struct {
	Errors model.ValidationErrors `json:"errors"`
}
