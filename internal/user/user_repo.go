package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmpID(ctx context.Context, empID string) (*User, error)
	ListAdmins(ctx context.Context) ([]User, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Role = strings.ToUpper(strings.TrimSpace(u.Role))
	if u.Role == "" {
		u.Role = RoleUser
	}
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_active", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) GetByEmpID(ctx context.Context, empID string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, "emp_id = ?", empID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) ListAdmins(ctx context.Context) ([]User, error) {
	var admins []User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active", RoleAdmin).
		Order("name ASC").
		Find(&admins).Error
	return admins, err
}
