package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// fieldError is one entry of the 400 {"errors": [...]} validation response.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func badRequest(c *gin.Context, errs []fieldError) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
}

func serverError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
}
