// Package modelsはTodoを定義します。
package models

import (
	"time"
)

// Priority はタスクの優先度です。low / medium / high の3値のみを許可します。
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid は優先度が3値のいずれかであるかを判定します。
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Todo struct {
	ID          int       `json:"id,omitempty"`          // 主キー
	UserID      int       `json:"user_id"`               // 所有者のユーザーID (作成後は不変)
	Title       string    `json:"title"`                 // タスクのタイトル（必須）
	Description string    `json:"description,omitempty"` // 説明 (任意。空文字は「なし」として扱う)
	Completed   bool      `json:"completed"`             // 完了状態
	Priority    Priority  `json:"priority"`              // 優先度 (low/medium/high)
	CreatedAt   time.Time `json:"created_at"`            // 作成日時
	UpdatedAt   time.Time `json:"updated_at,omitempty"`  // 更新日時
}

// CreateTodoRequest はTodo作成リクエストの構造体です。
// 💡 user_id はリクエストボディからは受け取らず、必ず認証コンテキストから設定します。
type CreateTodoRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority" binding:"required,oneof=low medium high"`
}

// UpdateTodoRequest はTodo更新リクエストの構造体です。
// ポインタにすることで「送られてこなかったフィールド」とゼロ値を区別し、
// 送られたフィールドだけを更新します（部分更新）。
type UpdateTodoRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Completed   *bool     `json:"completed"`
	Priority    *Priority `json:"priority" binding:"omitempty,oneof=low medium high"`
}

// TodoStats はダッシュボード用の集計結果です。常に Total = Completed + Active。
type TodoStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
}
