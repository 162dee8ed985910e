package models

import "time"

// SalonService is one bookable service in the tenant's catalog.
type SalonService struct {
	ID          string  `json:"id" gorm:"primaryKey"`
	TenantID    string  `json:"tenant_id" gorm:"index"`
	Name        string  `json:"name"`
	Aliases     string  `json:"aliases"` // comma-separated alternate names for fuzzy matching
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	DurationMin int     `json:"duration_min"`
	Active      bool    `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Professional is a staff member customers can request by name.
type Professional struct {
	ID       string `json:"id" gorm:"primaryKey"`
	TenantID string `json:"tenant_id" gorm:"index"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a retail item the salon sells.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey"`
	TenantID    string  `json:"tenant_id" gorm:"index"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	InStock     bool    `json:"in_stock"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServicePackage is a multi-session bundle.
type ServicePackage struct {
	ID       string  `json:"id" gorm:"primaryKey"`
	TenantID string  `json:"tenant_id" gorm:"index"`
	Name     string  `json:"name"`
	Sessions int     `json:"sessions"`
	Price    float64 `json:"price"`
	Active   bool    `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Catalog is the read-only per-call snapshot handed to the flows. The core
// never mutates it.
type Catalog struct {
	TenantID      string
	SalonName     string
	BusinessHours string
	Services      []*SalonService
	Professionals []*Professional
	Products      []*Product
	Packages      []*ServicePackage
}
