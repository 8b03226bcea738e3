package model

import "time"

// Project is a construction project that transactions are routed to.
// Projects are owned by the wider product; the engine only reads them.
type Project struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
}
