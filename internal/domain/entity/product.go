package entity

import "time"

// Clasificación PPB (Pharmacy and Poisons Board) del medicamento.
const (
	ScheduleOne          = "schedule_1"   // controlado, alto riesgo
	ScheduleTwo          = "schedule_2"   // controlado, riesgo moderado
	SchedulePrescription = "prescription" // POM
	SchedulePharmacy     = "pharmacy"     // P
	ScheduleOTC          = "otc"          // venta libre
)

// ValidSchedule indica si el valor pertenece a la clasificación PPB.
func ValidSchedule(s string) bool {
	switch s {
	case ScheduleOne, ScheduleTwo, SchedulePrescription, SchedulePharmacy, ScheduleOTC:
		return true
	}
	return false
}

// Product representa un medicamento del catálogo. Solo el schedule importa al registro de controlados.
type Product struct {
	ID                    string
	Name                  string
	GenericName           string
	Strength              string // ej. 10mg, 250mg/5ml
	DosageForm            string
	DrugSchedule          string
	PPBRegistrationNumber string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsControlledSubstance: schedule 1 o 2 exigen el registro especial.
func (p *Product) IsControlledSubstance() bool {
	return p.DrugSchedule == ScheduleOne || p.DrugSchedule == ScheduleTwo
}

// RequiresPrescription: controlados y POM.
func (p *Product) RequiresPrescription() bool {
	return p.IsControlledSubstance() || p.DrugSchedule == SchedulePrescription
}
