package services

import (
	"errors"
	"strings"

	"go-react-todo/backend/internal/models"
	"go-react-todo/backend/internal/repositories"
)

var (
	// ErrInvalidTitle はトリム後のタイトルが空の場合のエラーです。
	ErrInvalidTitle = errors.New("title must not be empty")
	// ErrInvalidPriority は優先度が low/medium/high 以外の場合のエラーです。
	ErrInvalidPriority = errors.New("priority must be one of low, medium, high")
)

// seedTodos は新規ユーザー向けの初期データです。優先度 high/medium/low を1件ずつ含みます。
var seedTodos = []models.Todo{
	{
		Title:       "Welcome to your Todo App!",
		Description: "This is your first todo. Click the checkbox to mark it as complete.",
		Completed:   false,
		Priority:    models.PriorityHigh,
	},
	{
		Title:       "Create your first custom todo",
		Description: "Click the + button to add a new todo item.",
		Completed:   false,
		Priority:    models.PriorityMedium,
	},
	{
		Title:       "Explore the features",
		Description: "Try filtering todos, editing them, and marking them as complete.",
		Completed:   false,
		Priority:    models.PriorityLow,
	},
}

// TodoService はTodo関連のビジネスロジックを扱います。
// すべての操作は認証済みユーザーのIDを受け取り、所有者チェックを行います。
// 💡 他ユーザーのTODOへのアクセスは「存在しない」場合と同じ
// repositories.ErrTodoNotFound を返します (存在を漏らさないため)。
type TodoService struct {
	todoRepo repositories.TodoRepository
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo repositories.TodoRepository) *TodoService {
	return &TodoService{todoRepo: todoRepo}
}

// CreateTodo は新しいTodoを作成します。所有者は必ず呼び出し元のuserIDになります。
func (s *TodoService) CreateTodo(req *models.CreateTodoRequest, userID int) (*models.Todo, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}
	if !req.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	newTodo := &models.Todo{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(req.Description), // 空は「説明なし」
		Completed:   false,                              // 作成時は常に未完了
		Priority:    req.Priority,
	}
	return s.todoRepo.Create(newTodo)
}

// GetTodos はユーザー自身のTodoを新しい順に取得します。
func (s *TodoService) GetTodos(userID int) ([]*models.Todo, error) {
	return s.todoRepo.FindByUserID(userID)
}

// GetTodoByID は指定IDのTodoを取得し、所有者チェックを行います。
func (s *TodoService) GetTodoByID(id, userID int) (*models.Todo, error) {
	todo, err := s.todoRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if todo.UserID != userID {
		return nil, repositories.ErrTodoNotFound // アクセス拒否も同じエラー
	}
	return todo, nil
}

// UpdateTodo はTodoを部分更新します。リクエストに含まれるフィールドだけを変更し、
// 含まれないフィールドはそのまま保持します。所有者は変更されません。
func (s *TodoService) UpdateTodo(id int, req *models.UpdateTodoRequest, userID int) (*models.Todo, error) {
	existingTodo, err := s.todoRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if existingTodo.UserID != userID {
		return nil, repositories.ErrTodoNotFound
	}

	updated := *existingTodo
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrInvalidTitle
		}
		updated.Title = title
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Completed != nil {
		updated.Completed = *req.Completed
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		updated.Priority = *req.Priority
	}

	return s.todoRepo.Update(id, &updated)
}

// ToggleTodo は完了状態を反転します。他のフィールドは変更しません。
func (s *TodoService) ToggleTodo(id, userID int) (*models.Todo, error) {
	existingTodo, err := s.todoRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if existingTodo.UserID != userID {
		return nil, repositories.ErrTodoNotFound
	}

	updated := *existingTodo
	updated.Completed = !existingTodo.Completed
	return s.todoRepo.Update(id, &updated)
}

// DeleteTodo はTodoを完全に削除します。
// 削除済みのIDへの再削除は他人のTODOと同様に ErrTodoNotFound になります。
func (s *TodoService) DeleteTodo(id, userID int) error {
	existingTodo, err := s.todoRepo.FindByID(id)
	if err != nil {
		return err
	}
	if existingTodo.UserID != userID {
		return repositories.ErrTodoNotFound
	}
	return s.todoRepo.Delete(id)
}

// GetStats はユーザーのTodo集計を返します。
// インクリメンタルなカウンタは持たず、毎回スコープ内の全件から計算します。
func (s *TodoService) GetStats(userID int) (*models.TodoStats, error) {
	todos, err := s.todoRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, t := range todos {
		if t.Completed {
			completed++
		}
	}

	return &models.TodoStats{
		Total:     len(todos),
		Completed: completed,
		Active:    len(todos) - completed,
	}, nil
}

// SeedTodos はユーザーのTodoが空の場合に初期データを投入します。
// 💡 件数確認と挿入の間にトランザクションガードはありません。
// 同じ新規ユーザーからの同時リクエストが両方「空」を観測すると
// 二重に投入される可能性がありますが、既知の許容リスクとしています。
func (s *TodoService) SeedTodos(userID int) (string, error) {
	existing, err := s.todoRepo.FindByUserID(userID)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 {
		return "User already has todos", nil
	}

	for _, seed := range seedTodos {
		t := seed
		t.UserID = userID
		if _, err := s.todoRepo.Create(&t); err != nil {
			return "", err
		}
	}

	return "Sample todos created successfully", nil
}
