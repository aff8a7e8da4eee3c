package models

import (
	"database/sql/driver"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultAvatar is stored for users registered without an avatar.
const DefaultAvatar = "users/no_avatar.png"

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", &ValidationError{Field: "role", Message: fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", s)}
	}
	return r, nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	return nil
}

// User is an account. The email address is the login identity.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	FirstName    string `gorm:"size:50;not null"`
	LastName     string `gorm:"size:50;not null"`
	Phone        string `gorm:"size:15;not null"`
	Email        string `gorm:"size:30;not null;uniqueIndex"`
	Avatar       string `gorm:"size:255"`
	Role         Role   `gorm:"size:10;not null"`
	PasswordHash string `gorm:"size:255"`
	IsSuperuser  bool   `gorm:"not null"`
	IsStaff      bool   `gorm:"not null"`
	IsActive     bool   `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Orders       []Order `gorm:"foreignKey:UserID"`
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) String() string {
	return fmt.Sprintf("%s, %s", u.Email, u.Role)
}

// NormalizeEmail trims and lower-cases an address so that uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the user fields before it is written. It normalizes
// the email and fills in the default role.
func (u *User) Validate() error {
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if err := requireText("first_name", u.FirstName, 50); err != nil {
		return err
	}
	if err := requireText("last_name", u.LastName, 50); err != nil {
		return err
	}
	if err := requireText("phone", u.Phone, 15); err != nil {
		return err
	}
	if err := requireText("email", u.Email, 30); err != nil {
		return err
	}
	if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
		return &ValidationError{Field: "email", Message: "Enter a valid email address."}
	}
	if !u.Role.Valid() {
		_, err := ParseRole(string(u.Role))
		return err
	}
	return nil
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	return u.Validate()
}

// SetPassword stores a bcrypt hash of password. An empty password leaves
// the account without a usable password.
func (u *User) SetPassword(password string) error {
	if password == "" {
		u.PasswordHash = ""
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// UserProfile holds optional personal details, one per user.
// A profile's orders are the user's orders.
type UserProfile struct {
	ID               uint       `gorm:"primaryKey"`
	UserID           uint       `gorm:"not null;uniqueIndex"`
	User             User       `gorm:"foreignKey:UserID"`
	DateOfBirth      *time.Time `gorm:"type:date"`
	RegistrationDate time.Time  `gorm:"autoCreateTime"`
}

func (p *UserProfile) TableName() string {
	return "user_profiles"
}
