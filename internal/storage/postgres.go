package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/apperrors"
	"github.com/avelencia/todo-chat/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

// PostgresStore is the durable TodoService backed by PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(config DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	store := &PostgresStore{db: db, logger: logger}

	if err := store.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return store, nil
}

var _ TodoService = (*PostgresStore)(nil)

func (s *PostgresStore) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

const todoColumns = "id, user_id, title, description, completed, due_date, priority, category, created_at, updated_at"

func (s *PostgresStore) CreateTodo(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	query := `
		INSERT INTO todos (user_id, title, description, completed, due_date, priority, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + todoColumns

	row := s.db.QueryRowContext(ctx, query,
		todo.UserID,
		todo.Title,
		todo.Description,
		todo.Completed,
		nullTime(todo.DueDate),
		todo.Priority,
		todo.Category,
	)
	created, err := scanTodo(row)
	if err != nil {
		return nil, fmt.Errorf("error creating todo: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetTodo(ctx context.Context, userID, id int64) (*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`

	todo, err := scanTodo(s.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Resource: "todo", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("error querying todo: %w", err)
	}
	return todo, nil
}

var updatableColumns = map[string]string{
	"title":       "title",
	"description": "description",
	"completed":   "completed",
	"due_date":    "due_date",
	"priority":    "priority",
	"category":    "category",
}

func (s *PostgresStore) UpdateTodo(ctx context.Context, userID, id int64, fields map[string]any) (*models.Todo, error) {
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+3)

	for name, value := range fields {
		column, ok := updatableColumns[name]
		if !ok {
			continue
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if len(sets) == 0 {
		return s.GetTodo(ctx, userID, id)
	}

	args = append(args, time.Now())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, id, userID)
	query := fmt.Sprintf("UPDATE todos SET %s WHERE id = $%d AND user_id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args)-1, len(args), todoColumns)

	todo, err := scanTodo(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Resource: "todo", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("error updating todo: %w", err)
	}
	return todo, nil
}

func (s *PostgresStore) CompleteTodo(ctx context.Context, userID, id int64) (*models.Todo, error) {
	query := `
		UPDATE todos SET completed = TRUE, updated_at = $1
		WHERE id = $2 AND user_id = $3
		RETURNING ` + todoColumns

	todo, err := scanTodo(s.db.QueryRowContext(ctx, query, time.Now(), id, userID))
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Resource: "todo", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("error completing todo: %w", err)
	}
	return todo, nil
}

func (s *PostgresStore) DeleteTodo(ctx context.Context, userID, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting todo: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if affected == 0 {
		return &apperrors.NotFoundError{Resource: "todo", ID: id}
	}
	return nil
}

func (s *PostgresStore) ListTodos(ctx context.Context, userID int64) ([]*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning todo: %w", err)
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var todo models.Todo
	var due sql.NullTime
	err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&todo.Description,
		&todo.Completed,
		&due,
		&todo.Priority,
		&todo.Category,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if due.Valid {
		todo.DueDate = &due.Time
	}
	return &todo, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
