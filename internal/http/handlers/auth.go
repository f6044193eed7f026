package handlers

import (
	"errors"
	"net/http"
	"strings"

	"task_manager/internal/domain"
	"task_manager/internal/logger"
	"task_manager/internal/repository"
	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []fieldError{{Field: "body", Message: "Invalid request body"}})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	var errs []fieldError
	if req.Username == "" {
		errs = append(errs, fieldError{Field: "username", Message: "Username is required"})
	}
	if !validEmail(req.Email) {
		errs = append(errs, fieldError{Field: "email", Message: "Invalid email"})
	}
	if len(req.Password) < 8 {
		errs = append(errs, fieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if len(errs) > 0 {
		badRequest(c, errs)
		return
	}

	ctx := c.Request.Context()

	if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		serverError(c)
		return
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		serverError(c)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		// unique index is the backstop for concurrent signups
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
			return
		}
		logger.Error("create user failed", "error", err)
		serverError(c)
		return
	}

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		serverError(c)
		return
	}

	logger.Info("user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, []fieldError{{Field: "body", Message: "Invalid request body"}})
		return
	}

	var errs []fieldError
	if !validEmail(req.Email) {
		errs = append(errs, fieldError{Field: "email", Message: "Invalid email"})
	}
	if req.Password == "" {
		errs = append(errs, fieldError{Field: "password", Message: "Password is required"})
	}
	if len(errs) > 0 {
		badRequest(c, errs)
		return
	}

	ctx := c.Request.Context()

	// unknown email and wrong password produce the identical response,
	// no account enumeration signal
	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
			return
		}
		serverError(c)
		return
	}

	if !service.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		serverError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"username": user.Username},
	})
}
