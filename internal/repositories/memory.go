// Package repositories はデータベース操作を行うリポジトリを提供します。
// このファイルはテストおよびDBなし起動用のインメモリ実装です。
package repositories

import (
	"sort"
	"sync"
	"time"

	"go-react-todo/backend/internal/models"
)

// MemoryTodoRepo はTodoRepositoryのインメモリ実装です。
// MySQL実装と同じ契約 (ID採番・所有者一致・新しい順) を満たします。
type MemoryTodoRepo struct {
	mu     sync.RWMutex
	todos  map[int]models.Todo
	nextID int
}

// NewMemoryTodoRepo は新しいMemoryTodoRepoインスタンスを作成します。
func NewMemoryTodoRepo() *MemoryTodoRepo {
	return &MemoryTodoRepo{
		todos:  make(map[int]models.Todo),
		nextID: 1,
	}
}

func (r *MemoryTodoRepo) Create(t *models.Todo) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := *t
	stored.ID = r.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.nextID++
	r.todos[stored.ID] = stored

	result := stored
	return &result, nil
}

func (r *MemoryTodoRepo) FindByID(id int) (*models.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.todos[id]
	if !exists {
		return nil, ErrTodoNotFound
	}

	result := t
	return &result, nil
}

func (r *MemoryTodoRepo) FindByUserID(userID int) ([]*models.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var todos []*models.Todo
	for _, t := range r.todos {
		if t.UserID == userID {
			result := t
			todos = append(todos, &result)
		}
	}

	// MySQL実装の ORDER BY created_at DESC, id DESC と同じ並び
	sort.Slice(todos, func(i, j int) bool {
		if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].CreatedAt.After(todos[j].CreatedAt)
		}
		return todos[i].ID > todos[j].ID
	})

	return todos, nil
}

func (r *MemoryTodoRepo) Update(id int, t *models.Todo) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.todos[id]
	if !exists {
		return nil, ErrTodoNotFound
	}

	updated := existing
	updated.Title = t.Title
	updated.Description = t.Description
	updated.Completed = t.Completed
	updated.Priority = t.Priority
	updated.UpdatedAt = time.Now()
	r.todos[id] = updated

	result := updated
	return &result, nil
}

func (r *MemoryTodoRepo) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.todos[id]; !exists {
		return ErrTodoNotFound
	}

	delete(r.todos, id)
	return nil
}

// MemoryUserRepo はUserRepositoryのインメモリ実装です。
type MemoryUserRepo struct {
	mu     sync.RWMutex
	users  map[int]models.User
	nextID int
}

// NewMemoryUserRepo は新しいMemoryUserRepoインスタンスを作成します。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		users:  make(map[int]models.User),
		nextID: 1,
	}
}

func (r *MemoryUserRepo) Create(u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// users テーブルの UNIQUE 制約と同じ扱い
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return nil, ErrDuplicateEmail
		}
	}

	now := time.Now()
	stored := *u
	stored.ID = r.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.nextID++
	r.users[stored.ID] = stored

	u.ID = stored.ID
	result := stored
	return &result, nil
}

func (r *MemoryUserRepo) FindByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			result := u
			return &result, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemoryUserRepo) UpdatePassword(userID uint, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[int(userID)]
	if !exists {
		return ErrUserNotFound
	}
	u.PasswordHash = newHash
	u.UpdatedAt = time.Now()
	r.users[int(userID)] = u
	return nil
}

// MemoryResetTokenRepo はResetTokenRepositoryのインメモリ実装です。
type MemoryResetTokenRepo struct {
	mu     sync.Mutex
	tokens map[uint]models.PasswordResetToken
	nextID uint
}

// NewMemoryResetTokenRepo は新しいMemoryResetTokenRepoインスタンスを作成します。
func NewMemoryResetTokenRepo() *MemoryResetTokenRepo {
	return &MemoryResetTokenRepo{
		tokens: make(map[uint]models.PasswordResetToken),
		nextID: 1,
	}
}

func (r *MemoryResetTokenRepo) Save(t *models.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *t
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.nextID++
	r.tokens[stored.ID] = stored
	t.ID = stored.ID
	return nil
}

func (r *MemoryResetTokenRepo) FindByToken(token string) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.Token == token {
			result := t
			return &result, nil
		}
	}
	return nil, ErrResetTokenNotFound
}

func (r *MemoryResetTokenRepo) MarkUsed(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.tokens[id]
	if !exists {
		return ErrResetTokenNotFound
	}
	now := time.Now()
	t.UsedAt = &now
	r.tokens[id] = t
	return nil
}

func (r *MemoryResetTokenRepo) CleanupExpired() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.tokens {
		if t.UsedAt != nil || t.ExpiresAt.Before(time.Now()) {
			delete(r.tokens, id)
		}
	}
	return nil
}
