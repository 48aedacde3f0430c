package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/taskdeck-dev/taskdeck/internal/models"
)

// ProjectInput is the project creation request body.
type ProjectInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
}

// ProjectUpdate carries partial updates; nil fields are left unchanged.
type ProjectUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// ListProjects returns all projects in the caller's tenant.
func (g *Gateway) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := g.doAuthed(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches a single project with its tasks.
func (g *Gateway) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := g.doAuthed(ctx, http.MethodGet, fmt.Sprintf("/projects/%d", id), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project in the caller's tenant.
func (g *Gateway) CreateProject(ctx context.Context, input ProjectInput) (*models.Project, error) {
	if err := g.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid project input: %w", err)
	}

	var project models.Project
	if err := g.doAuthed(ctx, http.MethodPost, "/projects", input, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject applies a partial update to a project.
func (g *Gateway) UpdateProject(ctx context.Context, id uint, update ProjectUpdate) (*models.Project, error) {
	var project models.Project
	if err := g.doAuthed(ctx, http.MethodPut, fmt.Sprintf("/projects/%d", id), update, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject deletes a project and its tasks.
func (g *Gateway) DeleteProject(ctx context.Context, id uint) error {
	return g.doAuthed(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d", id), nil, nil)
}

// ListTasks returns the tasks of a project.
func (g *Gateway) ListTasks(ctx context.Context, projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	if err := g.doAuthed(ctx, http.MethodGet, fmt.Sprintf("/projects/%d/tasks", projectID), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
