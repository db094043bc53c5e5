// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"go-react-todo/backend/internal/models"
)

// ErrTodoNotFound はTODOが見つからない場合のエラーです。
// 💡 所有者でないユーザーからのアクセスも同じエラーで返します
// (他ユーザーのTODOの存在を漏らさないため)。
var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository はTodoの永続化操作のインターフェースです。
// 本番はMySQL実装、テストはインメモリ実装を使用します。
type TodoRepository interface {
	Create(t *models.Todo) (*models.Todo, error)
	FindByID(id int) (*models.Todo, error)
	FindByUserID(userID int) ([]*models.Todo, error)
	Update(id int, t *models.Todo) (*models.Todo, error)
	Delete(id int) error
}

// MySQLTodoRepo はTodoRepositoryのMySQL実装です。
type MySQLTodoRepo struct {
	DB *sql.DB
}

// NewMySQLTodoRepo は新しいMySQLTodoRepoインスタンスを作成します。
func NewMySQLTodoRepo(db *sql.DB) *MySQLTodoRepo {
	return &MySQLTodoRepo{DB: db}
}

// Create は新しいTodoタスクをデータベースに挿入します。
func (r *MySQLTodoRepo) Create(t *models.Todo) (*models.Todo, error) {
	query := "INSERT INTO todos (user_id, title, description, completed, priority) VALUES (?, ?, ?, ?, ?)"

	result, err := r.DB.Exec(query, t.UserID, t.Title, toNullString(t.Description), t.Completed, t.Priority)
	if err != nil {
		log.Printf("Failed to insert todo: %v", err)
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}

	// DBが設定した created_at / updated_at を含めて返すため、挿入後に取得し直す
	return r.FindByID(int(id))
}

// FindByID は指定されたIDのTodoタスクをデータベースから取得します。
func (r *MySQLTodoRepo) FindByID(id int) (*models.Todo, error) {
	query := "SELECT id, user_id, title, description, completed, priority, created_at, updated_at FROM todos WHERE id = ?"

	var t models.Todo
	var description sql.NullString
	err := r.DB.QueryRow(query, id).Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&description,
		&t.Completed,
		&t.Priority,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		log.Printf("Failed to query todo by ID: %v", err)
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	t.Description = description.String

	return &t, nil
}

// FindByUserID は指定されたユーザーのTodoタスクを新しい順に取得します。
// user_id が一致するレコードだけを返します。
func (r *MySQLTodoRepo) FindByUserID(userID int) ([]*models.Todo, error) {
	// created_at が同一秒でも順序が安定するよう id を第二キーにする
	query := "SELECT id, user_id, title, description, completed, priority, created_at, updated_at FROM todos WHERE user_id = ? ORDER BY created_at DESC, id DESC"

	rows, err := r.DB.Query(query, userID)
	if err != nil {
		log.Printf("Failed to query todos: %v", err)
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		var t models.Todo
		var description sql.NullString
		err := rows.Scan(&t.ID, &t.UserID, &t.Title, &description, &t.Completed, &t.Priority, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			log.Printf("Failed to scan todo: %v", err)
			return nil, fmt.Errorf("could not scan todo: %w", err)
		}
		t.Description = description.String
		todos = append(todos, &t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

// Update は指定されたIDのTodoタスクを更新します。
// user_id は更新対象に含めません (所有者は作成後に変わらない)。
func (r *MySQLTodoRepo) Update(id int, t *models.Todo) (*models.Todo, error) {
	query := "UPDATE todos SET title = ?, description = ?, completed = ?, priority = ? WHERE id = ?"

	_, err := r.DB.Exec(query, t.Title, toNullString(t.Description), t.Completed, t.Priority, id)
	if err != nil {
		log.Printf("Failed to update todo: %v", err)
		return nil, fmt.Errorf("could not update todo: %w", err)
	}

	// 💡 RowsAffected では「存在するが値が変わらなかった」場合と
	// 「存在しない」場合を区別できないため、取得し直して確認する
	return r.FindByID(id)
}

// Delete は指定されたIDのTodoタスクを削除します。
func (r *MySQLTodoRepo) Delete(id int) error {
	query := "DELETE FROM todos WHERE id = ?"

	result, err := r.DB.Exec(query, id)
	if err != nil {
		log.Printf("Failed to delete todo: %v", err)
		return fmt.Errorf("could not delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrTodoNotFound
	}

	return nil
}

// toNullString は空文字を NULL として保存するための変換です。
func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
