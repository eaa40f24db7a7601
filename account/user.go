package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/logger"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8

	// bcrypt ignores bytes past 72
	maxPasswordLength = 72
)

var _ logger.LogUser = User{}

// A User is the core entity that interacts with a portfolio application.
//
// Requests are authenticated by access tokens issued to a User
// after a login matching their email or username and password.
//
// Removing a User soft deletes it; deleted Users cannot log in or use tokens issued earlier.
type User struct {
	portfolio.Model
	portfolio.SoftDelete
	Email       string     `gorm:"not null;uniqueIndex" json:"email"`
	Username    string     `gorm:"not null;uniqueIndex" json:"username"`
	FirstName   string     `gorm:"not null" json:"firstName"`
	LastName    string     `gorm:"not null" json:"lastName"`
	PhoneNumber string     `gorm:"not null" json:"phoneNumber"`
	Password    []byte     `gorm:"not null" json:"-"`
	IsActive    bool       `gorm:"not null" json:"isActive"`
	IsStaff     bool       `gorm:"not null" json:"isStaff"`
	IsSuperuser bool       `gorm:"not null" json:"isSuperuser"`
	LastLogin   *time.Time `json:"lastLogin"`

	// Avatar is the key of the User's picture in media storage.
	Avatar string `gorm:"not null" json:"-"`
}

// FullName joins the first and last name of the User.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// GetEmail implements logger.LogUser.
func (u User) GetEmail() string { return u.Email }

// GetID implements logger.LogUser.
func (u User) GetID() uint { return u.ID }

// HasAccess asserts whether the User's properties give it general
// access to the portfolio application.
func (u User) HasAccess() bool { return u.IsActive && u.Active() }

// HasStaffAccess asserts whether the User can manage other Users.
func (u User) HasStaffAccess() bool { return u.HasAccess() && (u.IsStaff || u.IsSuperuser) }

// CanManage asserts whether the User may change other, either by being other or by being staff.
// Only superusers manage other superusers.
func (u User) CanManage(other User) bool {
	if u.ID == other.ID {
		return true
	}

	if !u.HasStaffAccess() {
		return false
	}

	return !other.IsSuperuser || u.IsSuperuser
}

// SetPassword hashes password with bcrypt and sets it on the User.
func (u *User) SetPassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be %d to %d characters", portfolio.ErrNotValid, MinPasswordLength, maxPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: failed hashing password: %s", portfolio.ErrUnexpected, err)
	}

	u.Password = hash
	return nil
}

// CheckPassword asserts whether password matches the User's.
func (u User) CheckPassword(password string) bool {
	if len(u.Password) == 0 {
		return false
	}

	return bcrypt.CompareHashAndPassword(u.Password, []byte(password)) == nil
}

// NormalizeEmail lower cases the domain of an email address.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	return email[:at] + strings.ToLower(email[at:])
}

// NormalizePhoneNumber formats a phone number in E.164.
// Numbers without a leading + are read as numbers from region, as in "US".
//
// An empty number stays empty.
func NormalizePhoneNumber(number, region string) (string, error) {
	if number == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(number, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: %q is not a phone number", portfolio.ErrNotValid, number)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
