package store

import (
	"errors"
	"fmt"
	"time"

	"agency-crm-backend/pkg/models"
)

// ErrNotFound 表示请求的记录不存在
var ErrNotFound = errors.New("record not found")

// StoreInterface 定义存储访问接口
type StoreInterface interface {
	// 用户管理（以邮箱为主键）
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	ListUsersByOrganization(orgID string) ([]models.User, error)
	UpdateUser(user *models.User) error

	// 组织集合从用户表推导，不单独持久化
	ListOrganizationIDs() ([]string, error)

	// 客户管理
	CreateClient(client *models.Client) error
	GetClient(id string) (*models.Client, error)
	ListClientsByOrganization(orgID string) ([]models.Client, error)
	UpdateClient(client *models.Client) error
	DeleteClient(id string) error

	// 活动管理
	CreateActivity(activity *models.Activity) error
	GetActivity(id string) (*models.Activity, error)
	ListActivitiesByOrganization(orgID string) ([]models.Activity, error)
	ListActivitiesByClient(clientID string) ([]models.Activity, error)
	UpdateActivity(activity *models.Activity) error
	DeleteActivity(id string) error

	// ReconcileActivityStatuses flips scheduled activities whose date is
	// strictly before now to completed, persists the change, and returns
	// how many were flipped. Idempotent; called at the start of every
	// read path that depends on status freshness.
	ReconcileActivityStatuses(now time.Time) (int, error)

	// 笔记管理
	CreateNote(note *models.Note) error
	GetNote(id string) (*models.Note, error)
	ListNotesByOrganization(orgID string) ([]models.Note, error)
	DeleteNote(id string) error

	// 健康检查
	HealthCheck() error

	// 关闭连接
	Close() error
}

// StoreConfig 存储配置
type StoreConfig struct {
	DataDir     string
	PostgresDSN string
	Debug       bool
}

// NewStore 根据配置选择存储实现：配置了PostgreSQL则使用PostgreSQL，
// 否则回退到本地JSON文件存储
func NewStore(config StoreConfig) (StoreInterface, error) {
	if config.PostgresDSN != "" {
		fmt.Printf("store: using PostgreSQL backend\n")
		return NewPostgresStore(config.PostgresDSN)
	}

	fmt.Printf("store: using local JSON file backend (dir=%s)\n", config.DataDir)
	return NewLocalStore(config.DataDir), nil
}
