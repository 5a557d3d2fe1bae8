package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"aura/internal/domain/errors"
	"aura/internal/domain/models"

	"github.com/google/uuid"
)

type taskEntry struct {
	task    models.Task
	created uint64
	updated uint64
}

// Storage keeps users and tasks in process memory. It is used when the
// database is unreachable and in tests.
type Storage struct {
	mu    sync.RWMutex
	users map[string]models.User
	tasks map[string]*taskEntry
	seq   uint64
	now   func() time.Time
}

func NewStorage() *Storage {
	return &Storage{
		users: make(map[string]models.User),
		tasks: make(map[string]*taskEntry),
		now:   time.Now,
	}
}

func (s *Storage) Close() {}

func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = models.NormalizeEmail(user.Email)
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return errors.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = s.now().UTC()
	s.users[user.ID] = *user
	return nil
}

func (s *Storage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, errors.ErrUserNotFound
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = models.NormalizeEmail(email)
	for _, user := range s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = uuid.New().String()
	now := s.now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.seq++
	s.tasks[task.ID] = &taskEntry{task: cloneTask(*task), created: s.seq, updated: s.seq}
	return nil
}

func (s *Storage) GetTaskByID(_ context.Context, userID, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	task := cloneTask(e.task)
	return &task, nil
}

// GetTasks returns the user's tasks, newest first.
func (s *Storage) GetTasks(_ context.Context, userID string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entriesOf(userID)
	sort.Slice(entries, func(i, j int) bool { return entries[i].created > entries[j].created })

	tasks := make([]models.Task, 0, len(entries))
	for _, e := range entries {
		tasks = append(tasks, cloneTask(e.task))
	}
	return tasks, nil
}

func (s *Storage) UpdateTask(_ context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(&e.task)
	e.task.UpdatedAt = s.now().UTC()
	s.seq++
	e.updated = s.seq
	task := cloneTask(e.task)
	return &task, nil
}

func (s *Storage) DeleteTask(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(userID, id); err != nil {
		return err
	}
	delete(s.tasks, id)
	return nil
}

// FindTaskByTitle returns the most recently updated task whose title contains
// query, ignoring case.
func (s *Storage) FindTaskByTitle(_ context.Context, userID, query string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, errors.ErrNotFound
	}

	var best *taskEntry
	for _, e := range s.entriesOf(userID) {
		if !strings.Contains(strings.ToLower(e.task.Title), needle) {
			continue
		}
		if best == nil || e.updated > best.updated {
			best = e
		}
	}
	if best == nil {
		return nil, errors.ErrNotFound
	}
	task := cloneTask(best.task)
	return &task, nil
}

// cloneTask copies t so callers never share the stored due date.
func cloneTask(t models.Task) models.Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

func (s *Storage) owned(userID, id string) (*taskEntry, error) {
	e, exists := s.tasks[id]
	if !exists || e.task.UserID != userID {
		return nil, errors.ErrNotFound
	}
	return e, nil
}

func (s *Storage) entriesOf(userID string) []*taskEntry {
	var entries []*taskEntry
	for _, e := range s.tasks {
		if e.task.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries
}
