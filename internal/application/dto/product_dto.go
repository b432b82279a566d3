package dto

import "time"

// CreateProductRequest entrada para registrar un medicamento en el catálogo.
type CreateProductRequest struct {
	Name                  string `json:"name"`
	GenericName           string `json:"generic_name"`
	Strength              string `json:"strength"`
	DosageForm            string `json:"dosage_form"`
	DrugSchedule          string `json:"drug_schedule"` // schedule_1, schedule_2, prescription, pharmacy, otc
	PPBRegistrationNumber string `json:"ppb_registration_number"`
}

// ProductResponse salida de un medicamento.
type ProductResponse struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	GenericName           string    `json:"generic_name,omitempty"`
	Strength              string    `json:"strength,omitempty"`
	DosageForm            string    `json:"dosage_form,omitempty"`
	DrugSchedule          string    `json:"drug_schedule"`
	PPBRegistrationNumber string    `json:"ppb_registration_number,omitempty"`
	IsControlledSubstance bool      `json:"is_controlled_substance"`
	RequiresPrescription  bool      `json:"requires_prescription"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ProductListResponse lista paginada de medicamentos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
