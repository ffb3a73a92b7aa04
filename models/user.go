package models

import (
	"context"
	"errors"

	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

type User struct {
	Username     string   `gorm:"primaryKey;size:100" json:"username"`
	PasswordHash string   `gorm:"size:100;not null" json:"-"`
	Role         UserRole `gorm:"type:enum('admin','user');default:user" json:"role"`
	CreatedAt    string   `gorm:"size:40" json:"created_at"`
}

type NewUser struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token    string   `json:"token"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
}

func RegisterUser(ctx context.Context, input *NewUser) (*User, error) {
	if len(input.Password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}
	if existing, err := storage.Get[User](ctx, input.Username); err == nil && existing != nil {
		return nil, errors.New("username already exist")
	}
	role := UserRoleUser
	if input.Role == string(UserRoleAdmin) {
		role = UserRoleAdmin
	}
	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := User{
		Username:     input.Username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    utils.NowISTString(),
	}
	if err := storage.Create(ctx, &user); err != nil {
		if storage.IsDuplicateKey(err) {
			return nil, errors.New("username already exist")
		}
		return nil, err
	}
	return &user, nil
}

func LoginUser(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	user, err := storage.Get[User](ctx, input.Username)
	if err != nil {
		return nil, errors.New("invalid username or password")
	}
	if err := utils.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, errors.New("invalid username or password")
	}
	token, err := utils.JwtGenerate(user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Username: user.Username, Role: user.Role}, nil
}

func AdminViewUsers(ctx context.Context) ([]*User, error) {
	return storage.Scan[User](ctx, "")
}

type UpdateUserInput struct {
	Username string  `json:"username" binding:"required"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// AdminUpdateUser resets a user's role and/or password.
func AdminUpdateUser(ctx context.Context, input *UpdateUserInput) (*User, error) {
	user, err := storage.Get[User](ctx, input.Username)
	if err != nil {
		return nil, errors.New("user not found")
	}
	values := map[string]interface{}{}
	if input.Role != nil {
		if *input.Role != string(UserRoleAdmin) && *input.Role != string(UserRoleUser) {
			return nil, errors.New("invalid role")
		}
		values["role"] = *input.Role
	}
	if input.Password != nil {
		if len(*input.Password) < 6 {
			return nil, errors.New("password must be at least 6 characters")
		}
		hash, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		values["password_hash"] = hash
	}
	if len(values) == 0 {
		return user, nil
	}
	if err := storage.Update[User](ctx, input.Username, values); err != nil {
		return nil, err
	}
	return storage.Get[User](ctx, input.Username)
}
