package domain

import "time"

// BusStatus é o estado operacional de um ônibus da frota.
type BusStatus string

const (
	BusActive           BusStatus = "ACTIVE"
	BusUnderMaintenance BusStatus = "UNDER_MAINTENANCE"
	BusDisposed         BusStatus = "DISPOSED"
)

// Bus representa um veículo da frota da transportadora.
type Bus struct {
	ID           int64     `json:"id"`
	BusNumber    string    `json:"bus_number"`
	PlateNumber  string    `json:"plate_number"`
	BodyBuilder  string    `json:"body_builder,omitempty"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	YearModel    int       `json:"year_model,omitempty"`
	Status       BusStatus `json:"status"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
