package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role separates storefront customers from console administrators.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Department is the closed set of admin departments. Capabilities are
// attached to departments, never matched against free-form strings.
type Department string

const (
	DeptAnalyze       Department = "ANALYZE"
	DeptOrderManage   Department = "ORDER_MANAGE"
	DeptProductManage Department = "PRODUCT_MANAGE"
	DeptUserManage    Department = "USER_MANAGE"
)

// Capability is a single named permission granted through a department.
type Capability string

const (
	CapAnalyticsView Capability = "ANALYTICS_VIEW"
	CapReportsExport Capability = "REPORTS_EXPORT"
	CapOrderView     Capability = "ORDER_VIEW"
	CapOrderUpdate   Capability = "ORDER_UPDATE"
	CapProductView   Capability = "PRODUCT_VIEW"
	CapProductCreate Capability = "PRODUCT_CREATE"
	CapUserView      Capability = "USER_VIEW"
	CapUserActivate  Capability = "USER_ACTIVATE"
)

// User is a console or storefront account.
type User struct {
	UserID       uuid.UUID  `json:"userId" gorm:"primaryKey;type:uuid"`
	Email        string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	Role         Role       `json:"role" gorm:"type:varchar(20);not null"`
	Department   Department `json:"department,omitempty" gorm:"type:varchar(30)"`
	IsActive     bool       `json:"isActive" gorm:"not null;default:true"`
	CreatedAt    time.Time  `json:"createdAt"`

	Profile *CustomerProfile `json:"profile,omitempty" gorm:"foreignKey:UserID"`
}

// CustomerProfile carries the demographic attributes the aggregation engine
// slices by. Gender is M, F or N; DateOfBirth may be absent.
type CustomerProfile struct {
	UserID      uuid.UUID  `json:"userId" gorm:"primaryKey;type:uuid"`
	FirstName   string     `json:"firstName" gorm:"type:varchar(50);not null"`
	LastName    string     `json:"lastName" gorm:"type:varchar(50);not null"`
	PhoneNumber string     `json:"phoneNumber" gorm:"type:varchar(20)"`
	Gender      string     `json:"gender" gorm:"type:varchar(1)"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	CityID      *int       `json:"cityId"`
}

// LoginLog records a successful authentication; it feeds the login-by-hour
// analytics view.
type LoginLog struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID   uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	LoggedAt time.Time `json:"loggedAt" gorm:"not null;index"`
	Source   string    `json:"source" gorm:"type:varchar(30)"`
}

// Actor is the explicit identity passed into the engines. Engines never read
// identity from ambient state; the transport layer builds an Actor from the
// validated token and hands it down.
type Actor struct {
	UserID     uuid.UUID  `json:"userId"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Department Department `json:"department,omitempty"`
}

// JWTClaims is the token payload issued at login.
type JWTClaims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the signed token together with the account.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
