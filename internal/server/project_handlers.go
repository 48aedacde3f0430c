package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskdeck-dev/taskdeck/internal/models"
)

// CreateProjectRequest represents a project creation request
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
}

// UpdateProjectRequest carries a partial update; nil fields are ignored
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsCompleted *bool   `json:"is_completed"`
}

// tenantScope narrows a query to the caller's tenant. Every project
// handler goes through this; a user without a tenant sees nothing.
func (s *Server) tenantScope(c *gin.Context) (*gorm.DB, bool) {
	user, ok := sessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	if user.TenantID == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account is not bound to an organization"})
		return nil, false
	}
	return s.db.Where("tenant_id = ?", *user.TenantID), true
}

func parseProjectID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid project id"})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) listProjects(c *gin.Context) {
	scope, ok := s.tenantScope(c)
	if !ok {
		return
	}

	var projects []models.Project
	if err := scope.Preload("Tasks").Order("created_at DESC").Find(&projects).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list projects")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if projects == nil {
		projects = []models.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) getProject(c *gin.Context) {
	scope, ok := s.tenantScope(c)
	if !ok {
		return
	}
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var project models.Project
	if err := scope.Preload("Tasks").Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load project")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, project)
}

func (s *Server) createProject(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if user.TenantID == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account is not bound to an organization"})
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	project := &models.Project{
		TenantID:    *user.TenantID,
		Name:        req.Name,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
		Tasks:       []models.Task{},
	}
	if err := s.db.Create(project).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create project")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	s.logger.Info().
		Uint("project_id", project.ID).
		Str("created_by", user.Username).
		Msg("Project created")

	c.JSON(http.StatusCreated, project)
}

func (s *Server) updateProject(c *gin.Context) {
	scope, ok := s.tenantScope(c)
	if !ok {
		return
	}
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var project models.Project
	if err := scope.Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load project")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.IsCompleted != nil {
		project.IsCompleted = *req.IsCompleted
	}

	if err := s.db.Save(&project).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update project")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	if err := s.db.Preload("Tasks").First(&project, project.ID).Error; err == nil {
		c.JSON(http.StatusOK, project)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) deleteProject(c *gin.Context) {
	scope, ok := s.tenantScope(c)
	if !ok {
		return
	}
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var project models.Project
	if err := scope.Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load project")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Select("Tasks").Delete(&project).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete project")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) listProjectTasks(c *gin.Context) {
	scope, ok := s.tenantScope(c)
	if !ok {
		return
	}
	id, ok := parseProjectID(c)
	if !ok {
		return
	}

	var project models.Project
	if err := scope.Where("id = ?", id).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load project")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var tasks []models.Task
	if err := s.db.Where("project_id = ?", project.ID).Order("created_at").Find(&tasks).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tasks")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}
