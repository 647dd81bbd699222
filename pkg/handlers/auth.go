package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"agency-crm-backend/pkg/config"
	"agency-crm-backend/pkg/models"
	"agency-crm-backend/pkg/store"
	"agency-crm-backend/pkg/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost 密码哈希成本
const bcryptCost = 10

// AuthHandler 认证处理器
type AuthHandler struct {
	config *config.Config
	store  store.StoreInterface
	jwt    *utils.JWTService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, s store.StoreInterface) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		store:  s,
		jwt:    utils.NewJWTService(cfg.JWTSecret),
	}
}

// Register 用户注册。系统首个用户成为owner并获得新组织，
// 后续用户以staff角色加入owner的组织。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.UserRegisterRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid JSON body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		utils.WriteBadRequestResponse(w, "Missing fields")
		return
	}

	if _, err := h.store.GetUserByEmail(req.Email); err == nil {
		utils.WriteConflictResponse(w, "User already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to hash password")
		return
	}

	role, orgID, err := h.resolveRegistration()
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to resolve organization")
		return
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   string(hash),
		Role:           role,
		OrganizationID: orgID,
		CreatedAt:      time.Now(),
	}
	if err := h.store.CreateUser(user); err != nil {
		utils.WriteConflictResponse(w, "User already exists")
		return
	}

	fmt.Printf("auth: registered user=%s role=%s organization=%s\n", user.Email, user.Role, user.OrganizationID)

	token, err := h.jwt.GenerateToken(user)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to generate token")
		return
	}

	utils.WriteCreatedResponse(w, models.AuthResponse{Token: token, User: user.View()})
}

// resolveRegistration 决定新用户的角色和组织归属
func (h *AuthHandler) resolveRegistration() (models.Role, string, error) {
	orgIDs, err := h.store.ListOrganizationIDs()
	if err != nil {
		return "", "", err
	}
	if len(orgIDs) == 0 {
		return models.RoleOwner, uuid.New().String(), nil
	}

	// 后续用户加入owner的组织
	for _, orgID := range orgIDs {
		users, err := h.store.ListUsersByOrganization(orgID)
		if err != nil {
			return "", "", err
		}
		for _, u := range users {
			if u.Role == models.RoleOwner {
				return models.RoleStaff, u.OrganizationID, nil
			}
		}
	}
	return models.RoleStaff, uuid.New().String(), nil
}

// Login 用户登录
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.UserLoginRequest
	if err := utils.ParseJSONBody(r, &req); err != nil {
		utils.WriteBadRequestResponse(w, "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.WriteBadRequestResponse(w, "Missing fields")
		return
	}

	user, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		fmt.Printf("auth: failed login, user not found: %s\n", req.Email)
		utils.WriteUnauthorizedResponse(w, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		fmt.Printf("auth: failed login, bad password for %s\n", req.Email)
		utils.WriteUnauthorizedResponse(w, "Invalid credentials")
		return
	}

	token, err := h.jwt.GenerateToken(user)
	if err != nil {
		utils.WriteInternalServerErrorResponse(w, "Failed to generate token")
		return
	}

	fmt.Printf("auth: login success user=%s role=%s organization=%s\n", user.Email, user.Role, user.OrganizationID)

	utils.WriteSuccessResponse(w, models.AuthResponse{Token: token, User: user.View()})
}
