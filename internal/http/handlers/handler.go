package handlers

import (
	"task_manager/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB     *pgxpool.Pool
	Users  *repository.UserRepository
	Labels *repository.LabelRepository
	Tasks  *repository.TaskRepository
}

func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{
		DB:     db,
		Users:  repository.NewUserRepository(db),
		Labels: repository.NewLabelRepository(db),
		Tasks:  repository.NewTaskRepository(db),
	}
}

// getUserID reads the authenticated user id set by the JWT middleware.
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	uid, ok := uidVal.(int64)
	return uid, ok
}
