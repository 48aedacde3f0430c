package models

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents an organization-scoped partition of data. Tenants are
// addressed via subdomain: a tenant with schema name "acme" lives at
// acme.localhost during development.
type Tenant struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"not null"`
	SchemaName string    `json:"schema_name" gorm:"uniqueIndex;not null"`
	CreatedOn  time.Time `json:"created_on" gorm:"autoCreateTime"`
}

// ExpectedDomain returns the development domain the tenant is served on.
func (t *Tenant) ExpectedDomain() string {
	return t.SchemaName + ".localhost"
}

// User represents an account, optionally bound to a tenant. Users created
// through registration always carry a tenant; the password hash never
// leaves the server.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"not null"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-" gorm:"not null"`
	TenantID     *uint     `json:"-"`
	Tenant       *Tenant   `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	CreatedAt    time.Time `json:"-" gorm:"autoCreateTime"`
}

// Project is the unit of work users manage, scoped to a tenant.
type Project struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    uint      `json:"-" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Tasks       []Task    `json:"tasks" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// Task belongs to a project. The wire format carries the project ID under
// the "project" key, matching the upstream API contract.
type Task struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ProjectID   uint      `json:"project" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Tenant{}, &User{}, &Project{}, &Task{})
}
