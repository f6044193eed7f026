package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"task_manager/internal/domain"
	"task_manager/internal/logger"
	"task_manager/internal/repository"

	"github.com/gin-gonic/gin"
)

type CreateLabelRequest struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type UpdateLabelRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (h *Handler) CreateLabel(c *gin.Context) {
	var req CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []fieldError{{Field: "body", Message: "Invalid request body"}})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	var errs []fieldError
	if req.Name == "" {
		errs = append(errs, fieldError{Field: "name", Message: "Name is required"})
	}
	color := domain.DefaultColor
	if req.Color != nil {
		if !domain.ValidColor(*req.Color) {
			errs = append(errs, fieldError{Field: "color", Message: "Color must match #RRGGBB"})
		} else {
			color = *req.Color
		}
	}
	if len(errs) > 0 {
		badRequest(c, errs)
		return
	}

	label := &domain.Label{Name: req.Name, Color: color}
	if err := h.Labels.Create(c.Request.Context(), label); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Label already exists"})
			return
		}
		logger.Error("create label failed", "error", err)
		serverError(c)
		return
	}

	c.JSON(http.StatusCreated, label)
}

func (h *Handler) GetLabels(c *gin.Context) {
	labels, err := h.Labels.List(c.Request.Context())
	if err != nil {
		logger.Error("list labels failed", "error", err)
		serverError(c)
		return
	}
	if labels == nil {
		labels = []*domain.Label{}
	}
	c.JSON(http.StatusOK, labels)
}

func (h *Handler) UpdateLabel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Label not found"})
		return
	}

	var req UpdateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []fieldError{{Field: "body", Message: "Invalid request body"}})
		return
	}

	var errs []fieldError
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			errs = append(errs, fieldError{Field: "name", Message: "Name must not be empty"})
		}
		req.Name = &trimmed
	}
	if req.Color != nil && !domain.ValidColor(*req.Color) {
		errs = append(errs, fieldError{Field: "color", Message: "Color must match #RRGGBB"})
	}
	if len(errs) > 0 {
		badRequest(c, errs)
		return
	}

	label, err := h.Labels.Update(c.Request.Context(), id, req.Name, req.Color)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Label not found"})
		case errors.Is(err, repository.ErrDuplicate):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Label already exists"})
		default:
			logger.Error("update label failed", "error", err)
			serverError(c)
		}
		return
	}

	c.JSON(http.StatusOK, label)
}

func (h *Handler) DeleteLabel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Label not found"})
		return
	}

	if err := h.Labels.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Label not found"})
			return
		}
		logger.Error("delete label failed", "error", err)
		serverError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Label deleted"})
}
