package handlers

import (
	"errors"
	"net/http"

	"todo-manager/internal/middleware"
	"todo-manager/internal/models"
	"todo-manager/internal/services"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	todoService services.TodoService
}

func NewTodoHandler(todoService services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

func (h *TodoHandler) ListTodos(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}
	todos, err := h.todoService.ListTodos(c.Request.Context(), user.Email)
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

func (h *TodoHandler) CreateTodo(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}
	var input services.CreateTodoRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	todo, err := h.todoService.CreateTodo(c.Request.Context(), user.Email, input)
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}
	var patch models.TodoPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	todo, err := h.todoService.UpdateTodo(c.Request.Context(), c.Param("id"), user.Email, patch)
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}
	if err := h.todoService.DeleteTodo(c.Request.Context(), c.Param("id"), user.Email); err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted successfully"})
}

func (h *TodoHandler) ToggleTodo(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}
	todo, err := h.todoService.ToggleTodo(c.Request.Context(), c.Param("id"), user.Email)
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) GetStats(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}
	stats, err := h.todoService.GetStats(c.Request.Context(), user.Email)
	if err != nil {
		handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func handleTodoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
	case errors.Is(err, models.ErrTitleRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process todo request"})
	}
}
