package repository

import (
	"context"
	"time"

	"github.com/IMRiesen/avitolike/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	// Create stores the user with the named role and default settings in a
	// single transaction. The role row is created if it does not exist yet.
	Create(ctx context.Context, user *entity.User, roleName string) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	RoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	FindSetting(ctx context.Context, userID uuid.UUID) (*entity.UserSetting, error)
	SaveSetting(ctx context.Context, setting *entity.UserSetting) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User, roleName string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Roles", "Setting").Create(user).Error; err != nil {
			return err
		}

		var role entity.Role
		if err := tx.Where(entity.Role{Name: roleName}).FirstOrCreate(&role).Error; err != nil {
			return err
		}

		if err := tx.Create(&entity.UserRole{UserID: user.ID, RoleID: role.ID}).Error; err != nil {
			return err
		}

		setting := entity.DefaultSetting(user.ID)
		if err := tx.Create(setting).Error; err != nil {
			return err
		}

		user.Roles = []entity.Role{role}
		user.Setting = setting
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) RoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id").
		Pluck("roles.name", &names).Error
	return names, err
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
}

func (r *userRepository) FindSetting(ctx context.Context, userID uuid.UUID) (*entity.UserSetting, error) {
	var setting entity.UserSetting
	if err := r.db.WithContext(ctx).First(&setting, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *userRepository) SaveSetting(ctx context.Context, setting *entity.UserSetting) error {
	return r.db.WithContext(ctx).Save(setting).Error
}
