// Package testutil はハンドラーテスト用のセットアップヘルパーを提供します。
package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"go-react-todo/backend/internal/models"
	"go-react-todo/backend/internal/repositories"
	"go-react-todo/backend/internal/routes"
)

// SetupTestApp はインメモリリポジトリでルーターを構築し、テストユーザーを投入します。
// MySQLは不要です。各テストが独立したストアを持ちます。
func SetupTestApp(t *testing.T) (*gin.Engine, repositories.TodoRepository, repositories.UserRepository) {
	gin.SetMode(gin.TestMode)

	// NewJWTService は JWT_SECRET が未設定だと起動しない
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "test_very_secret_jwt_key_here")
	}

	todoRepo := repositories.NewMemoryTodoRepo()
	userRepo := repositories.NewMemoryUserRepo()
	resetRepo := repositories.NewMemoryResetTokenRepo()

	router := routes.SetupRouterWithRepos(todoRepo, userRepo, resetRepo)

	// テストユーザーの投入
	CreateTestUser(t, userRepo, "normal_user", "normal_user@example.com", "password123", "user")
	CreateTestUser(t, userRepo, "second_user", "second_user@example.com", "password456", "user")

	return router, todoRepo, userRepo
}

// CreateTestUser はテスト用のユーザーを作成し、リポジトリに保存します。
func CreateTestUser(t *testing.T, userRepo repositories.UserRepository, username, email, password, role string) *models.User {
	hashedPassword, err := repositories.HashPassword(password)
	require.NoError(t, err)

	newUser := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	createdUser, err := userRepo.Create(&newUser)
	require.NoError(t, err)
	require.NotNil(t, createdUser)
	require.NotEqual(t, 0, createdUser.ID)
	return createdUser
}

// LoginAndGetToken はログインAPIを呼び出してJWTトークンを取得します。
func LoginAndGetToken(t *testing.T, router *gin.Engine, email, password string) (string, error) {
	loginPayload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, _ := json.Marshal(loginPayload)

	req, _ := http.NewRequest(http.MethodPost, "/api/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d: %s", resp.Code, resp.Body.String())
	}

	var loginRes map[string]interface{}
	err := json.Unmarshal(resp.Body.Bytes(), &loginRes)
	if err != nil {
		return "", fmt.Errorf("failed to unmarshal login response: %w", err)
	}

	token, ok := loginRes["token"].(string)
	if !ok {
		return "", errors.New("token not found in login response")
	}
	return token, nil
}

// CreateTestTodo はAPI経由でテスト用のTODOを作成します。
func CreateTestTodo(t *testing.T, router *gin.Engine, token, title string, priority models.Priority) *models.Todo {
	todoPayload := map[string]interface{}{
		"title":    title,
		"priority": priority,
	}
	body, _ := json.Marshal(todoPayload)

	req, _ := http.NewRequest(http.MethodPost, "/api/todos", bytes.NewBuffer(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, "TODO作成に失敗しました: %s", resp.Body.String())

	var createdTodo models.Todo
	err := json.Unmarshal(resp.Body.Bytes(), &createdTodo)
	require.NoError(t, err)
	return &createdTodo
}
