// Package handlers はGinのHTTPハンドラーを提供します。
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go-react-todo/backend/internal/models"
	"go-react-todo/backend/internal/repositories"
	"go-react-todo/backend/internal/services"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// currentUserID は認証ミドルウェアが設定したユーザーIDをコンテキストから取り出します。
// 取り出せない場合はレスポンスを書き込み、false を返します。
func currentUserID(c *gin.Context) (int, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return 0, false
	}
	userID, ok := userIDVal.(int)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID type in context"})
		return 0, false
	}
	return userID, true
}

// writeTodoError はサービス層のエラーをHTTPステータスに変換します。
// 💡 「見つからない」と「他人のTODO」は同じ404で返します。
func writeTodoError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repositories.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found or unauthorized"})
	case errors.Is(err, services.ErrInvalidTitle), errors.Is(err, services.ErrInvalidPriority):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// CreateTodoHandler は新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	var req models.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	createdTodo, err := h.todoService.CreateTodo(&req, userID)
	if err != nil {
		writeTodoError(c, err, "Failed to save todo to database")
		return
	}
	c.JSON(http.StatusCreated, createdTodo)
}

// GetTodosHandler は自分のTodoリストを新しい順に取得します。
// active/completed での絞り込みはフロント側で行うため、常に全件を返します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	todos, err := h.todoService.GetTodos(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch todos"})
		return
	}
	if todos == nil {
		todos = []*models.Todo{} // nilではなく空配列を返す
	}
	c.JSON(http.StatusOK, todos)
}

// GetTodoByIDHandler は指定IDのTodoを取得します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	todo, err := h.todoService.GetTodoByID(id, userID)
	if err != nil {
		writeTodoError(c, err, "Failed to fetch todo")
		return
	}
	c.JSON(http.StatusOK, todo)
}

// UpdateTodoHandler はTodoを部分更新します。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	updatedTodo, err := h.todoService.UpdateTodo(id, &req, userID)
	if err != nil {
		writeTodoError(c, err, "Failed to update todo")
		return
	}
	c.JSON(http.StatusOK, updatedTodo)
}

// ToggleTodoHandler は完了状態を反転します。
func (h *TodoHandler) ToggleTodoHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	toggledTodo, err := h.todoService.ToggleTodo(id, userID)
	if err != nil {
		writeTodoError(c, err, "Failed to toggle todo")
		return
	}
	c.JSON(http.StatusOK, toggledTodo)
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.todoService.DeleteTodo(id, userID); err != nil {
		writeTodoError(c, err, "Failed to delete todo")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetStatsHandler はダッシュボード用の集計を返します。
func (h *TodoHandler) GetStatsHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.todoService.GetStats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SeedTodosHandler は新規ユーザー向けの初期データを投入します。
func (h *TodoHandler) SeedTodosHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	message, err := h.todoService.SeedTodos(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to seed todos"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
