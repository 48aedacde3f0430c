package server

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/taskdeck-dev/taskdeck/internal/auth"
	"github.com/taskdeck-dev/taskdeck/internal/models"
)

// Seed describes a YAML development fixture. Example:
//
//	tenants:
//	  - name: Acme Corp
//	    schema_name: acme
//	users:
//	  - username: alice
//	    email: alice@acme.test
//	    password: secret
//	    organization: acme
//	projects:
//	  - organization: acme
//	    name: Website relaunch
//	    tasks:
//	      - name: Draft copy
type Seed struct {
	Tenants  []SeedTenant  `yaml:"tenants"`
	Users    []SeedUser    `yaml:"users"`
	Projects []SeedProject `yaml:"projects"`
}

// SeedTenant declares a tenant fixture
type SeedTenant struct {
	Name       string `yaml:"name"`
	SchemaName string `yaml:"schema_name"`
}

// SeedUser declares a user fixture; organization refers to a tenant's
// schema name
type SeedUser struct {
	Username     string `yaml:"username"`
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	Organization string `yaml:"organization"`
}

// SeedProject declares a project fixture with optional tasks
type SeedProject struct {
	Organization string     `yaml:"organization"`
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description"`
	IsCompleted  bool       `yaml:"is_completed"`
	Tasks        []SeedTask `yaml:"tasks"`
}

// SeedTask declares a task fixture
type SeedTask struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// SeedFromFile loads a YAML fixture and applies it. Existing records
// (matched by schema name / username / project name) are left alone, so
// re-running against the same database is safe.
func SeedFromFile(db *gorm.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	return Apply(db, &seed)
}

// Apply writes a seed fixture to the database.
func Apply(db *gorm.DB, seed *Seed) error {
	tenants := make(map[string]*models.Tenant)

	for _, st := range seed.Tenants {
		var tenant models.Tenant
		err := db.Where("schema_name = ?", st.SchemaName).First(&tenant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tenant = models.Tenant{Name: st.Name, SchemaName: st.SchemaName}
			if err := db.Create(&tenant).Error; err != nil {
				return fmt.Errorf("failed to seed tenant %s: %w", st.SchemaName, err)
			}
		} else if err != nil {
			return err
		}
		tenants[st.SchemaName] = &tenant
	}

	for _, su := range seed.Users {
		tenant, ok := tenants[su.Organization]
		if !ok {
			return fmt.Errorf("seed user %s references unknown organization %q", su.Username, su.Organization)
		}

		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", su.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		hash, err := auth.HashPassword(su.Password)
		if err != nil {
			return err
		}
		user := models.User{
			Username:     su.Username,
			Email:        su.Email,
			FirstName:    su.FirstName,
			LastName:     su.LastName,
			PasswordHash: hash,
			TenantID:     &tenant.ID,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", su.Username, err)
		}
	}

	for _, sp := range seed.Projects {
		tenant, ok := tenants[sp.Organization]
		if !ok {
			return fmt.Errorf("seed project %q references unknown organization %q", sp.Name, sp.Organization)
		}

		var count int64
		if err := db.Model(&models.Project{}).
			Where("tenant_id = ? AND name = ?", tenant.ID, sp.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		project := models.Project{
			TenantID:    tenant.ID,
			Name:        sp.Name,
			Description: sp.Description,
			IsCompleted: sp.IsCompleted,
		}
		for _, st := range sp.Tasks {
			project.Tasks = append(project.Tasks, models.Task{
				Name:        st.Name,
				Description: st.Description,
			})
		}
		if err := db.Create(&project).Error; err != nil {
			return fmt.Errorf("failed to seed project %q: %w", sp.Name, err)
		}
	}

	return nil
}
