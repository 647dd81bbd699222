package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"agency-crm-backend/pkg/models"
)

// LocalStore 本地JSON文件存储实现。每种实体一个文件，读取时整体加载，
// 每次变更后整体重写。写入失败只记录日志，不中断请求。
type LocalStore struct {
	dataDir string

	// 文件整体读写不做部分更新，用互斥锁串行化访问
	mu sync.Mutex
}

// NewLocalStore 创建本地存储实例
func NewLocalStore(dataDir string) *LocalStore {
	if dataDir == "" {
		dataDir = "./data"
	}

	// 尝试创建数据目录，只读文件系统时回退到临时目录
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Printf("store: failed to create data directory %s: %v\n", dataDir, err)
		dataDir = filepath.Join(os.TempDir(), "agency-crm-data")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			fmt.Printf("store: failed to create temp data directory: %v\n", err)
			dataDir = "."
		}
	}

	return &LocalStore{dataDir: dataDir}
}

// loadJSON 从文件加载集合。文件缺失或损坏时返回默认值，读失败不报错。
func (s *LocalStore) loadJSON(file string, out interface{}) bool {
	fp := filepath.Join(s.dataDir, file)
	raw, err := os.ReadFile(fp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("store: failed to read %s: %v\n", file, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		fmt.Printf("store: failed to parse %s: %v\n", file, err)
		return false
	}
	return true
}

// saveJSON 整体序列化集合并覆盖写入。失败只记录日志。
func (s *LocalStore) saveJSON(file string, data interface{}) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Printf("store: failed to marshal %s: %v\n", file, err)
		return
	}
	fp := filepath.Join(s.dataDir, file)
	if err := os.WriteFile(fp, raw, 0644); err != nil {
		fmt.Printf("store: failed to write %s: %v\n", file, err)
	}
}

func (s *LocalStore) loadUsers() []models.User {
	var users []models.User
	if !s.loadJSON("users.json", &users) || len(users) == 0 {
		users = defaultUsers()
		s.saveJSON("users.json", users)
	}
	return users
}

func (s *LocalStore) loadClients() []models.Client {
	var clients []models.Client
	if !s.loadJSON("clients.json", &clients) || len(clients) == 0 {
		clients = defaultClients()
		s.saveJSON("clients.json", clients)
	}
	return clients
}

func (s *LocalStore) loadActivities() []models.Activity {
	var activities []models.Activity
	if !s.loadJSON("activities.json", &activities) || len(activities) == 0 {
		activities = defaultActivities()
		s.saveJSON("activities.json", activities)
	}
	return activities
}

func (s *LocalStore) loadNotes() []models.Note {
	var notes []models.Note
	s.loadJSON("notes.json", &notes)
	return notes
}

// CreateUser 创建用户
func (s *LocalStore) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.loadUsers()
	for _, u := range users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("user already exists: %s", user.Email)
		}
	}
	users = append(users, *user)
	s.saveJSON("users.json", users)
	return nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *LocalStore) GetUserByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.loadUsers() {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// ListUsersByOrganization 列出组织内所有用户
func (s *LocalStore) ListUsersByOrganization(orgID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.User
	for _, u := range s.loadUsers() {
		if u.OrganizationID == orgID {
			result = append(result, u)
		}
	}
	return result, nil
}

// ListOrganizationIDs 列出所有组织ID（从用户表推导）
func (s *LocalStore) ListOrganizationIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	var orgIDs []string
	for _, u := range s.loadUsers() {
		if !seen[u.OrganizationID] {
			seen[u.OrganizationID] = true
			orgIDs = append(orgIDs, u.OrganizationID)
		}
	}
	return orgIDs, nil
}

// UpdateUser 更新用户
func (s *LocalStore) UpdateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.loadUsers()
	for i, u := range users {
		if strings.EqualFold(u.Email, user.Email) {
			users[i] = *user
			s.saveJSON("users.json", users)
			return nil
		}
	}
	return ErrNotFound
}

// CreateClient 创建客户
func (s *LocalStore) CreateClient(client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.loadClients()
	clients = append(clients, *client)
	s.saveJSON("clients.json", clients)
	return nil
}

// GetClient 根据ID获取客户
func (s *LocalStore) GetClient(id string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.loadClients() {
		if c.ID == id {
			client := c
			return &client, nil
		}
	}
	return nil, ErrNotFound
}

// ListClientsByOrganization 列出组织内所有客户
func (s *LocalStore) ListClientsByOrganization(orgID string) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Client
	for _, c := range s.loadClients() {
		if c.OrganizationID == orgID {
			result = append(result, c)
		}
	}
	return result, nil
}

// UpdateClient 更新客户
func (s *LocalStore) UpdateClient(client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.loadClients()
	for i, c := range clients {
		if c.ID == client.ID {
			clients[i] = *client
			s.saveJSON("clients.json", clients)
			return nil
		}
	}
	return ErrNotFound
}

// DeleteClient 删除客户
func (s *LocalStore) DeleteClient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.loadClients()
	for i, c := range clients {
		if c.ID == id {
			clients = append(clients[:i], clients[i+1:]...)
			s.saveJSON("clients.json", clients)
			return nil
		}
	}
	return ErrNotFound
}

// CreateActivity 创建活动
func (s *LocalStore) CreateActivity(activity *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities := s.loadActivities()
	activities = append(activities, *activity)
	s.saveJSON("activities.json", activities)
	return nil
}

// GetActivity 根据ID获取活动
func (s *LocalStore) GetActivity(id string) (*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.loadActivities() {
		if a.ID == id {
			activity := a
			return &activity, nil
		}
	}
	return nil, ErrNotFound
}

// ListActivitiesByOrganization 列出组织内所有活动
func (s *LocalStore) ListActivitiesByOrganization(orgID string) ([]models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Activity
	for _, a := range s.loadActivities() {
		if a.OrganizationID == orgID {
			result = append(result, a)
		}
	}
	return result, nil
}

// ListActivitiesByClient 列出某客户的所有活动
func (s *LocalStore) ListActivitiesByClient(clientID string) ([]models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Activity
	for _, a := range s.loadActivities() {
		if a.ClientID == clientID {
			result = append(result, a)
		}
	}
	return result, nil
}

// UpdateActivity 更新活动
func (s *LocalStore) UpdateActivity(activity *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities := s.loadActivities()
	for i, a := range activities {
		if a.ID == activity.ID {
			activities[i] = *activity
			s.saveJSON("activities.json", activities)
			return nil
		}
	}
	return ErrNotFound
}

// DeleteActivity 删除活动
func (s *LocalStore) DeleteActivity(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities := s.loadActivities()
	for i, a := range activities {
		if a.ID == id {
			activities = append(activities[:i], activities[i+1:]...)
			s.saveJSON("activities.json", activities)
			return nil
		}
	}
	return ErrNotFound
}

// ReconcileActivityStatuses 将日期严格早于now的scheduled活动置为completed
func (s *LocalStore) ReconcileActivityStatuses(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	activities := s.loadActivities()
	changed := 0
	for i, a := range activities {
		if a.ActivityStatus == models.ActivityScheduled && a.Date.Before(now) {
			activities[i].ActivityStatus = models.ActivityCompleted
			changed++
		}
	}
	if changed > 0 {
		s.saveJSON("activities.json", activities)
	}
	return changed, nil
}

// CreateNote 创建笔记
func (s *LocalStore) CreateNote(note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := s.loadNotes()
	notes = append(notes, *note)
	s.saveJSON("notes.json", notes)
	return nil
}

// GetNote 根据ID获取笔记
func (s *LocalStore) GetNote(id string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.loadNotes() {
		if n.ID == id {
			note := n
			return &note, nil
		}
	}
	return nil, ErrNotFound
}

// ListNotesByOrganization 列出组织内所有笔记
func (s *LocalStore) ListNotesByOrganization(orgID string) ([]models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Note
	for _, n := range s.loadNotes() {
		if n.OrganizationID == orgID {
			result = append(result, n)
		}
	}
	return result, nil
}

// DeleteNote 删除笔记
func (s *LocalStore) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := s.loadNotes()
	for i, n := range notes {
		if n.ID == id {
			notes = append(notes[:i], notes[i+1:]...)
			s.saveJSON("notes.json", notes)
			return nil
		}
	}
	return ErrNotFound
}

// HealthCheck 检查数据目录可写
func (s *LocalStore) HealthCheck() error {
	fp := filepath.Join(s.dataDir, ".healthcheck")
	if err := os.WriteFile(fp, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	os.Remove(fp)
	return nil
}

// Close 本地存储无需关闭连接
func (s *LocalStore) Close() error {
	return nil
}

func mustTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(fmt.Sprintf("invalid fixture timestamp %q: %v", value, err))
	}
	return t
}

// defaultUsers 开发环境示例用户（密码哈希为dev fixture）
func defaultUsers() []models.User {
	return []models.User{
		{Username: "Alice Owner", Email: "alice@agency.test", Role: models.RoleOwner, OrganizationID: "org-1", PasswordHash: "$2a$10$tQsBjet8GQqHEDXir2O/fO4Q8feV99INzbbkI0G2oef89goGBVpiS"},
		{Username: "Bob Manager", Email: "bob@agency.test", Role: models.RoleManager, OrganizationID: "org-1", PasswordHash: "$2a$10$evTy319FuJAyFmmZPUWBxekb.f2GGhItsquFiWElnOxEdfZbQOLxa"},
		{Username: "Carla Rep", Email: "carla@agency.test", Role: models.RoleStaff, OrganizationID: "org-1", PasswordHash: "$2a$10$hL7uICe107YwKgMGto189Oj5IG3k1t99zvPrLtBLplvLk4yvpWOSK"},
		{Username: "Dan Rep", Email: "dan@agency.test", Role: models.RoleStaff, OrganizationID: "org-1", PasswordHash: "$2a$10$HlM5eLRMq7Fwd8Zf0FUO3.2KTEnZrXm/V37S91OkaoVkmpO8VhQDm"},
		{Username: "Emma Rep", Email: "emma@agency.test", Role: models.RoleStaff, OrganizationID: "org-1", PasswordHash: "$2a$10$b6OFN0JTSwoaREooUPZTVuB4P/HR.657zLlamFtGhc8l/p5F7cW7W"},
	}
}

// defaultClients 开发环境示例客户
func defaultClients() []models.Client {
	return []models.Client{
		{ID: "cli-1", Name: "BrightCo", Email: "hello@brightco.com", ClientState: models.ClientActive, CreatedAt: mustTime("2024-11-01T09:00:00Z"), UserID: "carla@agency.test", OrganizationID: "org-1"},
		{ID: "cli-2", Name: "Nova Retail", Email: "contact@novaretail.com", ClientState: models.ClientActive, CreatedAt: mustTime("2025-06-01T08:30:00Z"), UserID: "bob@agency.test", OrganizationID: "org-1"},
		{ID: "cli-3", Name: "OldTown LLC", Email: "info@oldtown.com", ClientState: models.ClientActive, CreatedAt: mustTime("2023-03-01T10:00:00Z"), UserID: "dan@agency.test", OrganizationID: "org-1"},
		{ID: "cli-4", Name: "Churned Corp", Email: "accounts@churnedcorp.com", ClientState: models.ClientChurned, CreatedAt: mustTime("2022-01-10T12:00:00Z"), UserID: "carla@agency.test", OrganizationID: "org-1"},
		{ID: "cli-5", Name: "QuickStart", Email: "team@quickstart.io", ClientState: models.ClientActive, CreatedAt: mustTime("2025-02-14T09:30:00Z"), UserID: "emma@agency.test", OrganizationID: "org-1"},
		{ID: "cli-6", Name: "Holiday Homes", Email: "bookings@holidayhomes.com", ClientState: models.ClientActive, CreatedAt: mustTime("2024-09-20T11:00:00Z"), UserID: "carla@agency.test", OrganizationID: "org-1"},
		{ID: "cli-7", Name: "Solo Venture", Email: "founder@soloventure.com", ClientState: models.ClientLead, CreatedAt: mustTime("2025-07-05T16:00:00Z"), UserID: "dan@agency.test", OrganizationID: "org-1"},
	}
}

// defaultActivities 开发环境示例活动
func defaultActivities() []models.Activity {
	return []models.Activity{
		{ID: "act-1", Type: models.ActivityCall, Description: "Intro discovery call", Date: mustTime("2025-11-15T10:00:00Z"), ClientID: "cli-1", UserID: "carla@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-11-15T10:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-2", Type: models.ActivityMeeting, Description: "Project scoping", Date: mustTime("2025-11-22T14:00:00Z"), ClientID: "cli-1", UserID: "carla@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-11-22T14:10:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-3", Type: models.ActivityCall, Description: "Status check", Date: mustTime("2025-12-01T09:30:00Z"), ClientID: "cli-1", UserID: "carla@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-12-01T09:35:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-4", Type: models.ActivityProposal, Description: "Sent proposal and pricing", Date: mustTime("2025-12-10T12:00:00Z"), ClientID: "cli-1", UserID: "carla@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-12-10T12:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-5", Type: models.ActivityCall, Description: "Follow-up call", Date: mustTime("2025-12-20T11:00:00Z"), ClientID: "cli-1", UserID: "carla@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-12-20T11:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-6", Type: models.ActivityMeeting, Description: "Wrap-up meeting", Date: mustTime("2025-12-26T15:00:00Z"), ClientID: "cli-1", UserID: "carla@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-12-26T15:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-7", Type: models.ActivityCall, Description: "Check-in", Date: mustTime("2025-11-01T10:00:00Z"), ClientID: "cli-2", UserID: "bob@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-11-01T10:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-8", Type: models.ActivityCall, Description: "Follow-up", Date: mustTime("2025-12-07T09:00:00Z"), ClientID: "cli-2", UserID: "bob@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-12-07T09:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-9", Type: models.ActivityCall, Description: "Initial discovery", Date: mustTime("2025-06-01T10:00:00Z"), ClientID: "cli-3", UserID: "dan@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-06-01T10:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-10", Type: models.ActivityMeeting, Description: "Re-engagement", Date: mustTime("2025-10-15T13:00:00Z"), ClientID: "cli-3", UserID: "dan@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-10-15T13:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-11", Type: models.ActivityCall, Description: "Ad-hoc support (irregular)", Date: mustTime("2025-12-12T11:00:00Z"), ClientID: "cli-3", UserID: "dan@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-12-12T11:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-12", Type: models.ActivityCall, Description: "Account check", Date: mustTime("2025-04-02T09:00:00Z"), ClientID: "cli-4", UserID: "carla@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-04-02T09:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-13", Type: models.ActivityCall, Description: "Kickoff", Date: mustTime("2025-12-05T10:00:00Z"), ClientID: "cli-5", UserID: "emma@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-12-05T10:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-14", Type: models.ActivityMeeting, Description: "Product review", Date: mustTime("2025-12-15T14:00:00Z"), ClientID: "cli-5", UserID: "emma@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-12-15T14:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-15", Type: models.ActivityMeeting, Description: "Holiday Homes site visit", Date: mustTime("2026-01-03T09:00:00Z"), ClientID: "cli-6", UserID: "carla@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-12-01T12:00:00Z"), ActivityStatus: models.ActivityScheduled},
		{ID: "act-16", Type: models.ActivityTask, Description: "Prepare onboarding checklist", Date: mustTime("2025-11-20T08:00:00Z"), ClientID: "cli-7", UserID: "dan@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-11-20T08:05:00Z"), ActivityStatus: models.ActivityCompleted},
		{ID: "act-17", Type: models.ActivityCall, Description: "Missed follow-up", Date: mustTime("2025-11-30T10:00:00Z"), ClientID: "cli-2", UserID: "bob@agency.test", OrganizationID: "org-1", CreatedAt: mustTime("2025-11-30T10:05:00Z"), ActivityStatus: models.ActivityMissed},
	}
}
