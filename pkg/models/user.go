package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role 组织内的用户角色
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// ValidRole 检查角色是否合法
func ValidRole(r Role) bool {
	switch r {
	case RoleOwner, RoleManager, RoleStaff:
		return true
	}
	return false
}

// User represents a team member inside an organization.
// Users are keyed by email; the first registrant of an organization
// becomes its owner.
type User struct {
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"passwordHash,omitempty" db:"password_hash"`
	Role           Role      `json:"role" db:"role"`
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	CreatedAt      time.Time `json:"createdAt,omitempty" db:"created_at"`
}

// UserView is the API-facing projection of a User. The flat store
// persists the password hash, so responses never marshal User directly.
type UserView struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organizationId"`
}

// View 返回用户的公开视图
func (u *User) View() UserView {
	return UserView{
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
	}
}

// UserRegisterRequest represents the request payload for registration
type UserRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest represents the request payload for login
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the response payload for register/login
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// TokenClaims represents the JWT token claims
type TokenClaims struct {
	Email          string `json:"email"`
	Username       string `json:"username"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organizationId"`
	Exp            int64  `json:"exp"`
	Iat            int64  `json:"iat"`
}

// GetExpirationTime implements jwt.Claims interface
func (c *TokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

// GetIssuedAt implements jwt.Claims interface
func (c *TokenClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Iat, 0)), nil
}

// GetNotBefore implements jwt.Claims interface
func (c *TokenClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

// GetIssuer implements jwt.Claims interface
func (c *TokenClaims) GetIssuer() (string, error) {
	return "", nil
}

// GetSubject implements jwt.Claims interface
func (c *TokenClaims) GetSubject() (string, error) {
	return c.Email, nil
}

// GetAudience implements jwt.Claims interface
func (c *TokenClaims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}

// AuthUser 认证中间件放入请求context的用户信息
type AuthUser struct {
	Email          string
	Username       string
	Role           Role
	OrganizationID string
}
