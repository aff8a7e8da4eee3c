package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsersRepository struct {
	db *gorm.DB
}

// UserFilters narrows the admin user listing. Empty fields are ignored.
type UserFilters struct {
	Email    string
	LastName string
	Search   string
}

// ProfileFilters narrows the admin profile listing.
type ProfileFilters struct {
	UserID           *uint
	RegisteredAfter  *time.Time
	RegisteredBefore *time.Time
}

func NewUsersRepository(db *gorm.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

func errDuplicateEmail() error {
	return &ValidationError{Field: "email", Message: "User with this Email already exists."}
}

func errDuplicateProfile() error {
	return &ValidationError{Field: "user", Message: "User profile with this User already exists."}
}

// CreateUser validates and inserts u. Duplicate emails, whether caught here
// or by the unique index, are reported as a ValidationError on email.
func (r *UsersRepository) CreateUser(ctx context.Context, u *User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertUser(tx, u)
	})
	if isUniqueViolation(err) {
		return errDuplicateEmail()
	}
	return err
}

// Register inserts u and its profile in one transaction. If either insert
// fails neither row is kept.
func (r *UsersRepository) Register(ctx context.Context, u *User, p *UserProfile) error {
	if err := u.Validate(); err != nil {
		return err
	}
	var userInserted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertUser(tx, u); err != nil {
			return err
		}
		userInserted = true
		p.UserID = u.ID
		return insertProfile(tx, p)
	})
	if err != nil {
		u.ID = 0
		if isUniqueViolation(err) {
			if userInserted {
				return errDuplicateProfile()
			}
			return errDuplicateEmail()
		}
	}
	return err
}

// CreateAdmin creates an active superuser with the admin role.
func (r *UsersRepository) CreateAdmin(ctx context.Context, email, password string) (*User, error) {
	if password == "" {
		return nil, &ValidationError{Field: "password", Message: "This field is required."}
	}
	user := &User{
		FirstName:   "Admin",
		LastName:    "Root",
		Phone:       "+70001234567",
		Email:       email,
		Avatar:      DefaultAvatar,
		Role:        RoleAdmin,
		IsSuperuser: true,
		IsStaff:     true,
		IsActive:    true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := r.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UsersRepository) GetByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UsersRepository) ListUsers(ctx context.Context, filters UserFilters) ([]User, error) {
	query := r.db.WithContext(ctx).Model(&User{})
	if filters.Email != "" {
		query = query.Where("email = ?", NormalizeEmail(filters.Email))
	}
	if filters.LastName != "" {
		query = query.Where("last_name = ?", filters.LastName)
	}
	if filters.Search != "" {
		query = query.Where("email LIKE ?", "%"+NormalizeEmail(filters.Search)+"%")
	}

	var users []User
	if err := query.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CreateProfile attaches a profile to an existing user that has none.
func (r *UsersRepository) CreateProfile(ctx context.Context, p *UserProfile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, p.UserID); err != nil {
			return err
		}
		return insertProfile(tx, p)
	})
	if isUniqueViolation(err) {
		return errDuplicateProfile()
	}
	return err
}

func (r *UsersRepository) ListProfiles(ctx context.Context, filters ProfileFilters) ([]UserProfile, error) {
	query := r.db.WithContext(ctx).Model(&UserProfile{}).Preload("User")
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.RegisteredAfter != nil {
		query = query.Where("registration_date >= ?", *filters.RegisteredAfter)
	}
	if filters.RegisteredBefore != nil {
		query = query.Where("registration_date < ?", *filters.RegisteredBefore)
	}

	var profiles []UserProfile
	if err := query.Order("id").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func requireUser(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func insertUser(tx *gorm.DB, u *User) error {
	var count int64
	if err := tx.Model(&User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errDuplicateEmail()
	}
	return tx.Omit(clause.Associations).Create(u).Error
}

func insertProfile(tx *gorm.DB, p *UserProfile) error {
	var count int64
	if err := tx.Model(&UserProfile{}).Where("user_id = ?", p.UserID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errDuplicateProfile()
	}
	return tx.Omit(clause.Associations).Create(p).Error
}
