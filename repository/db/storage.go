package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aura/internal/domain/errors"
	"aura/internal/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	queryTimeout      = 15 * time.Second
	uniqueViolation   = "23505"
	taskColumns       = `id, user_id, title, description, priority, status, due_date, created_at, updated_at`
	defaultMaxConns   = 10
	defaultConnectTTL = 15 * time.Second
)

// Storage is the PostgreSQL-backed user and task store. Every task query is
// filtered by the owning user.
type Storage struct {
	pool              *pgxpool.Pool
	prepCreateTask    string
	prepGetTaskByID   string
	prepGetTasks      string
	prepUpdateTask    string
	prepDeleteTask    string
	prepFindByTitle   string
	prepCreateUser    string
	prepGetUserByID   string
	prepGetUserByMail string
}

func NewStorage(connStr string) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	if cfg.MaxConns < defaultMaxConns {
		cfg.MaxConns = defaultMaxConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTTL)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Storage{
		pool:           pool,
		prepCreateTask: `INSERT INTO tasks (id, user_id, title, description, priority, status, due_date) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`,
		prepGetTaskByID: `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`,
		prepGetTasks:    `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		prepUpdateTask: `UPDATE tasks SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			priority = COALESCE($5, priority),
			status = COALESCE($6, status),
			due_date = CASE WHEN $8::boolean THEN NULL ELSE COALESCE($7, due_date) END,
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns,
		prepDeleteTask:    `DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		prepFindByTitle:   `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND strpos(lower(title), lower($2)) > 0 ORDER BY updated_at DESC, created_at DESC, id DESC LIMIT 1`,
		prepCreateUser:    `INSERT INTO users (id, email, password) VALUES ($1, $2, $3) RETURNING created_at`,
		prepGetUserByID:   `SELECT id, email, password, created_at FROM users WHERE id = $1`,
		prepGetUserByMail: `SELECT id, email, password, created_at FROM users WHERE email = $1`,
	}
	slog.Info("database connection established", "max_conns", cfg.MaxConns)
	return s, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task.ID = uuid.New().String()
	row := s.pool.QueryRow(ctx, s.prepCreateTask,
		task.ID, task.UserID, task.Title, task.Description, string(task.Priority), string(task.Status), task.DueDate)
	if err := row.Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		slog.Error("create task", "user_id", task.UserID, "err", err)
		return fmt.Errorf("create task: %w", err)
	}
	slog.Debug("task created", "task_id", task.ID)
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, userID, id string) (*models.Task, error) {
	if !validID(userID) || !validID(id) {
		return nil, errors.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task, err := scanTask(s.pool.QueryRow(ctx, s.prepGetTaskByID, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		slog.Error("get task", "task_id", id, "err", err)
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (s *Storage) GetTasks(ctx context.Context, userID string) ([]models.Task, error) {
	tasks := []models.Task{}
	if !validID(userID) {
		return tasks, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, s.prepGetTasks, userID)
	if err != nil {
		slog.Error("list tasks", "user_id", userID, "err", err)
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *Storage) UpdateTask(ctx context.Context, userID, id string, patch models.TaskPatch) (*models.Task, error) {
	if !validID(userID) || !validID(id) {
		return nil, errors.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx, s.prepUpdateTask, id, userID,
		patch.Title, patch.Description, enumPtr(patch.Priority), enumPtr(patch.Status),
		patch.DueDate, patch.ClearDueDate)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		slog.Error("update task", "task_id", id, "err", err)
		return nil, fmt.Errorf("update task: %w", err)
	}
	slog.Debug("task updated", "task_id", id)
	return task, nil
}

func (s *Storage) DeleteTask(ctx context.Context, userID, id string) error {
	if !validID(userID) || !validID(id) {
		return errors.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, s.prepDeleteTask, id, userID)
	if err != nil {
		slog.Error("delete task", "task_id", id, "err", err)
		return fmt.Errorf("delete task: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrNotFound
	}
	slog.Debug("task deleted", "task_id", id)
	return nil
}

// FindTaskByTitle returns the most recently updated task of the user whose
// title contains query, ignoring case.
func (s *Storage) FindTaskByTitle(ctx context.Context, userID, query string) (*models.Task, error) {
	if !validID(userID) || query == "" {
		return nil, errors.ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task, err := scanTask(s.pool.QueryRow(ctx, s.prepFindByTitle, userID, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		slog.Error("find task by title", "query", query, "err", err)
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = models.NormalizeEmail(user.Email)
	err := s.pool.QueryRow(ctx, s.prepCreateUser, user.ID, user.Email, user.Password).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errors.ErrUserAlreadyExists
		}
		slog.Error("create user", "err", err)
		return fmt.Errorf("create user: %w", err)
	}
	slog.Info("user created", "user_id", user.ID)
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, errors.ErrUserNotFound
	}
	return s.getUser(ctx, s.prepGetUserByID, id)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, s.prepGetUserByMail, models.NormalizeEmail(email))
}

func (s *Storage) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user := &models.User{}
	err := s.pool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var (
		task             models.Task
		priority, status string
	)
	err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description,
		&priority, &status, &task.DueDate, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	task.Priority = models.Priority(priority)
	task.Status = models.Status(status)
	return &task, nil
}

func enumPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
