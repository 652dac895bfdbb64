package domain

import "time"

const (
	RoleUser     = "user"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

type User struct {
	UserID        string    `json:"id" dynamodbav:"user_id"`
	Username      string    `json:"username" dynamodbav:"username"`
	Email         string    `json:"email" dynamodbav:"email"`
	Phone         *string   `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	Role          string    `json:"role" dynamodbav:"role"`
	FirstName     string    `json:"first_name" dynamodbav:"first_name"`
	LastName      string    `json:"last_name" dynamodbav:"last_name"`
	EmailVerified bool      `json:"email_verified" dynamodbav:"email_verified"`
	Enable        int       `json:"enable" dynamodbav:"enable"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateUserRequest struct {
	Username  string  `json:"username" validate:"required"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Provider  bool    `json:"provider"` // register as a service provider
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
