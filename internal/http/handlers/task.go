package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"task_manager/internal/domain"
	"task_manager/internal/logger"
	"task_manager/internal/repository"

	"github.com/gin-gonic/gin"
)

// dueDateLayout is the calendar-date format accepted for due_date.
const dueDateLayout = "2006-01-02"

type TaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
	Labels      []int64 `json:"labels"`
}

// validate checks the supplied fields and returns the parsed due date.
// requireTitle distinguishes create from partial update.
func (req *TaskRequest) validate(requireTitle bool) (*time.Time, []fieldError) {
	var errs []fieldError

	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			errs = append(errs, fieldError{Field: "title", Message: "Title must not be empty"})
		}
		req.Title = &trimmed
	} else if requireTitle {
		errs = append(errs, fieldError{Field: "title", Message: "Title is required"})
	}

	if req.Status != nil && !domain.ValidStatus(*req.Status) {
		errs = append(errs, fieldError{Field: "status", Message: "Status must be pending, in-progress or completed"})
	}
	if req.Priority != nil && !domain.ValidPriority(*req.Priority) {
		errs = append(errs, fieldError{Field: "priority", Message: "Priority must be low, medium or high"})
	}

	var due *time.Time
	if req.DueDate != nil {
		d, err := time.Parse(dueDateLayout, *req.DueDate)
		if err != nil {
			errs = append(errs, fieldError{Field: "due_date", Message: "Due date must be a date like 2025-01-31"})
		} else {
			due = &d
		}
	}

	return due, errs
}

func (h *Handler) CreateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid/expired token"})
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []fieldError{{Field: "body", Message: "Invalid request body"}})
		return
	}

	due, errs := req.validate(true)
	if len(errs) > 0 {
		badRequest(c, errs)
		return
	}

	task := &domain.Task{
		UserID:   userID,
		Title:    *req.Title,
		Status:   domain.StatusPending,
		Priority: domain.PriorityMedium,
		DueDate:  due,
		LabelIDs: req.Labels,
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}

	// referenced labels are not checked for existence, a dangling id is
	// tolerated and dropped at resolution time
	if err := h.Tasks.Create(c.Request.Context(), task); err != nil {
		logger.Error("create task failed", "error", err)
		serverError(c)
		return
	}

	c.JSON(http.StatusCreated, task)
}

func (h *Handler) ListTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid/expired token"})
		return
	}

	var errs []fieldError

	status := c.Query("status")
	if status != "" && !domain.ValidStatus(status) {
		errs = append(errs, fieldError{Field: "status", Message: "Status must be pending, in-progress or completed"})
	}
	priority := c.Query("priority")
	if priority != "" && !domain.ValidPriority(priority) {
		errs = append(errs, fieldError{Field: "priority", Message: "Priority must be low, medium or high"})
	}

	sort := c.DefaultQuery("sort", "asc")
	if sort != "asc" && sort != "desc" {
		errs = append(errs, fieldError{Field: "sort", Message: "Sort must be asc or desc"})
	}

	page := 1
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, fieldError{Field: "page", Message: "Page must be a positive integer"})
		} else {
			page = n
		}
	}

	if len(errs) > 0 {
		badRequest(c, errs)
		return
	}

	tasks, total, err := h.Tasks.List(c.Request.Context(), repository.TaskFilter{
		UserID:   userID,
		Status:   status,
		Priority: priority,
		SortDesc: sort == "desc",
		Page:     page,
	})
	if err != nil {
		logger.Error("list tasks failed", "error", err)
		serverError(c)
		return
	}
	if tasks == nil {
		tasks = []*domain.TaskWithLabels{}
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": total,
		"page":  page,
		"pages": pageCount(total),
	})
}

func (h *Handler) UpdateTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid/expired token"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
		return
	}

	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []fieldError{{Field: "body", Message: "Invalid request body"}})
		return
	}

	due, errs := req.validate(false)
	if len(errs) > 0 {
		badRequest(c, errs)
		return
	}

	task, err := h.Tasks.Update(c.Request.Context(), id, userID, repository.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     due,
		LabelIDs:    req.Labels,
	})
	if err != nil {
		// a task owned by another user looks exactly like a missing one
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
			return
		}
		logger.Error("update task failed", "error", err)
		serverError(c)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid/expired token"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
		return
	}

	if err := h.Tasks.Delete(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
			return
		}
		logger.Error("delete task failed", "error", err)
		serverError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func pageCount(total int64) int {
	return int((total + repository.PageSize - 1) / repository.PageSize)
}
