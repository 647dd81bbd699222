package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"agency-crm-backend/pkg/models"

	_ "github.com/lib/pq"
)

// PostgresStore PostgreSQL存储实现
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore 创建PostgreSQL存储实例
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// ensureSchema 创建表结构（如不存在）
func (s *PostgresStore) ensureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			email TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			organization_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			client_state TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			user_id TEXT NOT NULL,
			organization_id TEXT NOT NULL,
			archived BOOLEAN NOT NULL DEFAULT false,
			demo BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TIMESTAMPTZ NOT NULL,
			client_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			organization_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			activity_status TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL,
			organization_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_org ON clients(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_org ON activities(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_client ON activities(client_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// CreateUser 创建用户
func (s *PostgresStore) CreateUser(user *models.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (email, username, password_hash, role, organization_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.Email, user.Username, user.PasswordHash, user.Role, user.OrganizationID, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *PostgresStore) GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(`
		SELECT email, username, password_hash, role, organization_id, created_at
		FROM users WHERE lower(email) = lower($1)`, email).Scan(
		&user.Email, &user.Username, &user.PasswordHash, &user.Role, &user.OrganizationID, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsersByOrganization 列出组织内所有用户
func (s *PostgresStore) ListUsersByOrganization(orgID string) ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT email, username, password_hash, role, organization_id, created_at
		FROM users WHERE organization_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.OrganizationID, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListOrganizationIDs 列出所有组织ID（从用户表推导）
func (s *PostgresStore) ListOrganizationIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT organization_id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		orgIDs = append(orgIDs, id)
	}
	return orgIDs, rows.Err()
}

// UpdateUser 更新用户
func (s *PostgresStore) UpdateUser(user *models.User) error {
	result, err := s.db.Exec(`
		UPDATE users SET username = $2, password_hash = $3, role = $4, organization_id = $5
		WHERE lower(email) = lower($1)`,
		user.Email, user.Username, user.PasswordHash, user.Role, user.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffected(result)
}

// CreateClient 创建客户
func (s *PostgresStore) CreateClient(client *models.Client) error {
	_, err := s.db.Exec(`
		INSERT INTO clients (id, name, email, client_state, created_at, user_id, organization_id, archived, demo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		client.ID, client.Name, client.Email, client.ClientState, client.CreatedAt,
		client.UserID, client.OrganizationID, client.Archived, client.Demo)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetClient 根据ID获取客户
func (s *PostgresStore) GetClient(id string) (*models.Client, error) {
	client := &models.Client{}
	err := s.db.QueryRow(`
		SELECT id, name, email, client_state, created_at, user_id, organization_id, archived, demo
		FROM clients WHERE id = $1`, id).Scan(
		&client.ID, &client.Name, &client.Email, &client.ClientState, &client.CreatedAt,
		&client.UserID, &client.OrganizationID, &client.Archived, &client.Demo)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// ListClientsByOrganization 列出组织内所有客户
func (s *PostgresStore) ListClientsByOrganization(orgID string) ([]models.Client, error) {
	rows, err := s.db.Query(`
		SELECT id, name, email, client_state, created_at, user_id, organization_id, archived, demo
		FROM clients WHERE organization_id = $1`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.ClientState, &c.CreatedAt,
			&c.UserID, &c.OrganizationID, &c.Archived, &c.Demo); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// UpdateClient 更新客户
func (s *PostgresStore) UpdateClient(client *models.Client) error {
	result, err := s.db.Exec(`
		UPDATE clients SET name = $2, email = $3, client_state = $4, user_id = $5, archived = $6, demo = $7
		WHERE id = $1`,
		client.ID, client.Name, client.Email, client.ClientState, client.UserID, client.Archived, client.Demo)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return checkAffected(result)
}

// DeleteClient 删除客户
func (s *PostgresStore) DeleteClient(id string) error {
	result, err := s.db.Exec(`DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return checkAffected(result)
}

// CreateActivity 创建活动
func (s *PostgresStore) CreateActivity(activity *models.Activity) error {
	_, err := s.db.Exec(`
		INSERT INTO activities (id, type, description, date, client_id, user_id, organization_id, created_at, activity_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		activity.ID, activity.Type, activity.Description, activity.Date, activity.ClientID,
		activity.UserID, activity.OrganizationID, activity.CreatedAt, activity.ActivityStatus)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// GetActivity 根据ID获取活动
func (s *PostgresStore) GetActivity(id string) (*models.Activity, error) {
	activity := &models.Activity{}
	err := s.db.QueryRow(`
		SELECT id, type, description, date, client_id, user_id, organization_id, created_at, activity_status
		FROM activities WHERE id = $1`, id).Scan(
		&activity.ID, &activity.Type, &activity.Description, &activity.Date, &activity.ClientID,
		&activity.UserID, &activity.OrganizationID, &activity.CreatedAt, &activity.ActivityStatus)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

func (s *PostgresStore) listActivities(where string, arg interface{}) ([]models.Activity, error) {
	rows, err := s.db.Query(`
		SELECT id, type, description, date, client_id, user_id, organization_id, created_at, activity_status
		FROM activities WHERE `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Type, &a.Description, &a.Date, &a.ClientID,
			&a.UserID, &a.OrganizationID, &a.CreatedAt, &a.ActivityStatus); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListActivitiesByOrganization 列出组织内所有活动
func (s *PostgresStore) ListActivitiesByOrganization(orgID string) ([]models.Activity, error) {
	return s.listActivities("organization_id = $1", orgID)
}

// ListActivitiesByClient 列出某客户的所有活动
func (s *PostgresStore) ListActivitiesByClient(clientID string) ([]models.Activity, error) {
	return s.listActivities("client_id = $1", clientID)
}

// UpdateActivity 更新活动
func (s *PostgresStore) UpdateActivity(activity *models.Activity) error {
	result, err := s.db.Exec(`
		UPDATE activities SET type = $2, description = $3, date = $4, client_id = $5, activity_status = $6
		WHERE id = $1`,
		activity.ID, activity.Type, activity.Description, activity.Date, activity.ClientID, activity.ActivityStatus)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return checkAffected(result)
}

// DeleteActivity 删除活动
func (s *PostgresStore) DeleteActivity(id string) error {
	result, err := s.db.Exec(`DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return checkAffected(result)
}

// ReconcileActivityStatuses 单条UPDATE完成所有过期scheduled活动的状态翻转
func (s *PostgresStore) ReconcileActivityStatuses(now time.Time) (int, error) {
	result, err := s.db.Exec(`
		UPDATE activities SET activity_status = $1
		WHERE activity_status = $2 AND date < $3`,
		models.ActivityCompleted, models.ActivityScheduled, now)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile activity statuses: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// CreateNote 创建笔记
func (s *PostgresStore) CreateNote(note *models.Note) error {
	_, err := s.db.Exec(`
		INSERT INTO notes (id, title, body, user_id, organization_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		note.ID, note.Title, note.Body, note.UserID, note.OrganizationID, note.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// GetNote 根据ID获取笔记
func (s *PostgresStore) GetNote(id string) (*models.Note, error) {
	note := &models.Note{}
	err := s.db.QueryRow(`
		SELECT id, title, body, user_id, organization_id, created_at
		FROM notes WHERE id = $1`, id).Scan(
		&note.ID, &note.Title, &note.Body, &note.UserID, &note.OrganizationID, &note.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return note, nil
}

// ListNotesByOrganization 列出组织内所有笔记
func (s *PostgresStore) ListNotesByOrganization(orgID string) ([]models.Note, error) {
	rows, err := s.db.Query(`
		SELECT id, title, body, user_id, organization_id, created_at
		FROM notes WHERE organization_id = $1 ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.UserID, &n.OrganizationID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// DeleteNote 删除笔记
func (s *PostgresStore) DeleteNote(id string) error {
	result, err := s.db.Exec(`DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return checkAffected(result)
}

// HealthCheck 检查数据库连接
func (s *PostgresStore) HealthCheck() error {
	return s.db.Ping()
}

// Close 关闭数据库连接
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
