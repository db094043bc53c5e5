package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-react-todo/backend/internal/models"
	"go-react-todo/backend/testutil"
)

func doJSON(router http.Handler, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateTodo_Success(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	token, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)

	payload := map[string]interface{}{
		"title":       "Test Todo",
		"description": "something to do",
		"priority":    "high",
	}
	resp := doJSON(router, http.MethodPost, "/api/todos", token, payload)

	assert.Equal(t, http.StatusCreated, resp.Code, "Expected HTTP Status Code 201 Created")

	var createdTodo models.Todo
	err = json.Unmarshal(resp.Body.Bytes(), &createdTodo)
	assert.NoError(t, err, "Response should be a valid JSON todo object")

	assert.NotZero(t, createdTodo.ID, "Expected a non-zero Todo ID")
	assert.Equal(t, "Test Todo", createdTodo.Title)
	assert.Equal(t, "something to do", createdTodo.Description)
	assert.Equal(t, models.PriorityHigh, createdTodo.Priority)
	assert.False(t, createdTodo.Completed, "Expected completed to be false at creation")
	assert.Equal(t, 1, createdTodo.UserID, "Expected UserID to be the caller's")
	require.WithinDuration(t, time.Now(), createdTodo.CreatedAt, 5*time.Second)
}

func TestCreateTodo_WhitespaceTitle(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	token, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)

	// binding:"required" は空白のみの文字列を通すため、サービス層で弾く
	payload := map[string]interface{}{
		"title":    "   ",
		"priority": "medium",
	}
	resp := doJSON(router, http.MethodPost, "/api/todos", token, payload)

	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// 作成されていないことを確認
	listResp := doJSON(router, http.MethodGet, "/api/todos", token, nil)
	require.Equal(t, http.StatusOK, listResp.Code)
	var todos []*models.Todo
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &todos))
	assert.Len(t, todos, 0)
}

func TestCreateTodo_InvalidPriority(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	token, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)

	for _, priority := range []string{"urgent", "", "HIGH"} {
		payload := map[string]interface{}{
			"title":    "Some Todo",
			"priority": priority,
		}
		resp := doJSON(router, http.MethodPost, "/api/todos", token, payload)
		assert.Equal(t, http.StatusBadRequest, resp.Code, "priority %q should be rejected", priority)
	}
}

func TestGetTodos_OwnerScopedAndNewestFirst(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	tokenA, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)
	tokenB, err := testutil.LoginAndGetToken(t, router, "second_user@example.com", "password456")
	require.NoError(t, err)

	todo1 := testutil.CreateTestTodo(t, router, tokenA, "First Todo", models.PriorityLow)
	todo2 := testutil.CreateTestTodo(t, router, tokenA, "Second Todo", models.PriorityMedium)
	_ = testutil.CreateTestTodo(t, router, tokenB, "Other User Todo", models.PriorityHigh)

	resp := doJSON(router, http.MethodGet, "/api/todos", tokenA, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var todos []*models.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &todos))
	require.Len(t, todos, 2, "他ユーザーのTODOが混ざってはいけない")

	// 新しい順 (後に作成したものが先頭)
	assert.Equal(t, todo2.ID, todos[0].ID)
	assert.Equal(t, todo1.ID, todos[1].ID)
	for _, todo := range todos {
		assert.Equal(t, 1, todo.UserID)
	}
}

func TestGetTodos_EmptyList(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	token, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)

	resp := doJSON(router, http.MethodGet, "/api/todos", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body.String(), "空でもnullではなく空配列を返す")
}

func TestGetTodoByID_OtherUsersTodo(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	tokenA, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)
	tokenB, err := testutil.LoginAndGetToken(t, router, "second_user@example.com", "password456")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, router, tokenA, "Private Todo", models.PriorityMedium)

	// 所有者は取得できる
	resp := doJSON(router, http.MethodGet, fmt.Sprintf("/api/todos/%d", created.ID), tokenA, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	// 他ユーザーには「存在しない」のと同じ404が返る
	resp = doJSON(router, http.MethodGet, fmt.Sprintf("/api/todos/%d", created.ID), tokenB, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Todo not found or unauthorized", response["error"])
}

func TestUpdateTodo_PartialUpdate(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	token, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, router, token, "Original Title", models.PriorityHigh)

	// title だけを更新。description / completed / priority は送らない
	resp := doJSON(router, http.MethodPut, fmt.Sprintf("/api/todos/%d", created.ID), token, map[string]interface{}{
		"title": "Updated Title",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var updated models.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "Updated Title", updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority, "送っていないフィールドは変更されない")
	assert.False(t, updated.Completed)
	assert.Equal(t, created.UserID, updated.UserID, "所有者は変わらない")

	// completed だけを更新
	resp = doJSON(router, http.MethodPut, fmt.Sprintf("/api/todos/%d", created.ID), token, map[string]interface{}{
		"completed": true,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.True(t, updated.Completed)
	assert.Equal(t, "Updated Title", updated.Title, "前の更新結果が保持される")
}

func TestUpdateTodo_EmptyTitleRejected(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	token, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, router, token, "Keep Me", models.PriorityLow)

	resp := doJSON(router, http.MethodPut, fmt.Sprintf("/api/todos/%d", created.ID), token, map[string]interface{}{
		"title": "  ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// タイトルが変わっていないことを確認
	getResp := doJSON(router, http.MethodGet, fmt.Sprintf("/api/todos/%d", created.ID), token, nil)
	require.Equal(t, http.StatusOK, getResp.Code)
	var unchanged models.Todo
	require.NoError(t, json.Unmarshal(getResp.Body.Bytes(), &unchanged))
	assert.Equal(t, "Keep Me", unchanged.Title)
}

func TestUpdateTodo_OtherUserAndMissing(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	tokenA, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)
	tokenB, err := testutil.LoginAndGetToken(t, router, "second_user@example.com", "password456")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, router, tokenA, "Mine", models.PriorityMedium)

	// 他ユーザーによる更新
	resp := doJSON(router, http.MethodPut, fmt.Sprintf("/api/todos/%d", created.ID), tokenB, map[string]interface{}{
		"title": "hack",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code, "他人のTODOは存在しない扱い")

	// 存在しないID
	resp = doJSON(router, http.MethodPut, "/api/todos/99999", tokenA, map[string]interface{}{
		"title": "ghost",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// どちらも同じメッセージが返ること (存在が漏れない)
	var response map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Todo not found or unauthorized", response["error"])
}

func TestToggleTodo_Involution(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	token, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, router, token, "Toggle Me", models.PriorityMedium)
	require.False(t, created.Completed)

	// 1回目: true になる
	resp := doJSON(router, http.MethodPatch, fmt.Sprintf("/api/todos/%d/toggle", created.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var toggled models.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &toggled))
	assert.True(t, toggled.Completed)
	assert.Equal(t, created.Title, toggled.Title, "completed 以外は変更されない")
	assert.Equal(t, created.Priority, toggled.Priority)

	// 2回目: 元に戻る
	resp = doJSON(router, http.MethodPatch, fmt.Sprintf("/api/todos/%d/toggle", created.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &toggled))
	assert.False(t, toggled.Completed)
}

func TestToggleTodo_OtherUsersTodo(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	tokenA, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)
	tokenB, err := testutil.LoginAndGetToken(t, router, "second_user@example.com", "password456")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, router, tokenA, "Not Yours", models.PriorityLow)

	resp := doJSON(router, http.MethodPatch, fmt.Sprintf("/api/todos/%d/toggle", created.ID), tokenB, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteTodo_TwiceFails(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	token, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, router, token, "Delete Me", models.PriorityHigh)

	resp := doJSON(router, http.MethodDelete, fmt.Sprintf("/api/todos/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	// 2回目の削除は404。静かに成功してはいけない
	resp = doJSON(router, http.MethodDelete, fmt.Sprintf("/api/todos/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteTodo_OtherUsersTodo(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	tokenA, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)
	tokenB, err := testutil.LoginAndGetToken(t, router, "second_user@example.com", "password456")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, router, tokenA, "Protected", models.PriorityMedium)

	resp := doJSON(router, http.MethodDelete, fmt.Sprintf("/api/todos/%d", created.ID), tokenB, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// 所有者からはまだ見える
	getResp := doJSON(router, http.MethodGet, fmt.Sprintf("/api/todos/%d", created.ID), tokenA, nil)
	assert.Equal(t, http.StatusOK, getResp.Code)
}

func TestGetStats_Identity(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	token, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)

	todo1 := testutil.CreateTestTodo(t, router, token, "Stats One", models.PriorityLow)
	_ = testutil.CreateTestTodo(t, router, token, "Stats Two", models.PriorityMedium)
	_ = testutil.CreateTestTodo(t, router, token, "Stats Three", models.PriorityHigh)

	// 1件だけ完了にする
	resp := doJSON(router, http.MethodPatch, fmt.Sprintf("/api/todos/%d/toggle", todo1.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	statsResp := doJSON(router, http.MethodGet, "/api/todos/stats", token, nil)
	require.Equal(t, http.StatusOK, statsResp.Code)

	var stats models.TodoStats
	require.NoError(t, json.Unmarshal(statsResp.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, stats.Total, stats.Completed+stats.Active)

	// total == len(list) が成り立つこと
	listResp := doJSON(router, http.MethodGet, "/api/todos", token, nil)
	require.Equal(t, http.StatusOK, listResp.Code)
	var todos []*models.Todo
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &todos))
	assert.Equal(t, stats.Total, len(todos))
}

func TestSeedTodos_OnceOnly(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	token, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)

	// 1回目: 3件投入される
	resp := doJSON(router, http.MethodPost, "/api/todos/seed", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var seedRes map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &seedRes))
	assert.Equal(t, "Sample todos created successfully", seedRes["message"])

	listResp := doJSON(router, http.MethodGet, "/api/todos", token, nil)
	require.Equal(t, http.StatusOK, listResp.Code)
	var todos []*models.Todo
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &todos))
	require.Len(t, todos, 3)

	// high/medium/low が1件ずつ、すべて未完了
	counts := map[models.Priority]int{}
	for _, todo := range todos {
		counts[todo.Priority]++
		assert.False(t, todo.Completed)
		assert.Equal(t, 1, todo.UserID)
	}
	assert.Equal(t, 1, counts[models.PriorityHigh])
	assert.Equal(t, 1, counts[models.PriorityMedium])
	assert.Equal(t, 1, counts[models.PriorityLow])

	// 2回目: 何も追加されない
	resp = doJSON(router, http.MethodPost, "/api/todos/seed", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &seedRes))
	assert.Equal(t, "User already has todos", seedRes["message"])

	listResp = doJSON(router, http.MethodGet, "/api/todos", token, nil)
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &todos))
	assert.Len(t, todos, 3)
}

// TestTodoLifecycle_EndToEnd は2ユーザーにまたがる一連のシナリオです。
func TestTodoLifecycle_EndToEnd(t *testing.T) {
	router, _, _ := testutil.SetupTestApp(t)

	tokenA, err := testutil.LoginAndGetToken(t, router, "normal_user@example.com", "password123")
	require.NoError(t, err)
	tokenB, err := testutil.LoginAndGetToken(t, router, "second_user@example.com", "password456")
	require.NoError(t, err)

	// A がTODOを作成
	resp := doJSON(router, http.MethodPost, "/api/todos", tokenA, map[string]interface{}{
		"title":    "Write report",
		"priority": "high",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var created models.Todo
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	// A のリストには1件だけ、入力どおり + completed=false
	listResp := doJSON(router, http.MethodGet, "/api/todos", tokenA, nil)
	require.Equal(t, http.StatusOK, listResp.Code)
	var todos []*models.Todo
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &todos))
	require.Len(t, todos, 1)
	assert.Equal(t, "Write report", todos[0].Title)
	assert.Equal(t, models.PriorityHigh, todos[0].Priority)
	assert.False(t, todos[0].Completed)

	// B による更新は404で失敗
	resp = doJSON(router, http.MethodPut, fmt.Sprintf("/api/todos/%d", created.ID), tokenB, map[string]interface{}{
		"title": "hack",
	})
	require.Equal(t, http.StatusNotFound, resp.Code)

	// A がトグルして統計を確認
	resp = doJSON(router, http.MethodPatch, fmt.Sprintf("/api/todos/%d/toggle", created.ID), tokenA, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	statsResp := doJSON(router, http.MethodGet, "/api/todos/stats", tokenA, nil)
	require.Equal(t, http.StatusOK, statsResp.Code)
	var stats models.TodoStats
	require.NoError(t, json.Unmarshal(statsResp.Body.Bytes(), &stats))
	assert.Equal(t, models.TodoStats{Total: 1, Completed: 1, Active: 0}, stats)
}
