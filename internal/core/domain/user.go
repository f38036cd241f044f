package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// UserType decides whether a user may hold company-scoped role grants.
type UserType int

const (
	UserTypeRegular UserType = iota
	UserTypeEnterprise
)

var userTypeNames = map[UserType]string{
	UserTypeRegular:    "regular",
	UserTypeEnterprise: "enterprise",
}

var userTypesByName = map[string]UserType{
	"regular":    UserTypeRegular,
	"enterprise": UserTypeEnterprise,
}

// ParseUserType maps a stored or submitted string to a UserType.
// Unknown strings are an error; they are never coerced to regular.
func ParseUserType(s string) (UserType, error) {
	t, ok := userTypesByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUserType, s)
	}
	return t, nil
}

func (t UserType) String() string {
	if s, ok := userTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("UserType(%d)", int(t))
}

func (t UserType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *UserType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseUserType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// User is the identity record owned by relational storage.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    *string    `json:"first_name"`
	LastName     *string    `json:"last_name"`
	Country      *string    `json:"country"`
	BirthDate    *time.Time `json:"birth_date"`
	Confirmed    bool       `json:"-"`
	UserType     UserType   `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsEnterprise reports whether the user may hold company-scoped grants.
func (u *User) IsEnterprise() bool {
	return u.UserType == UserTypeEnterprise
}

// NewUser carries the fields written when an account is created.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	Confirmed    bool
	UserType     UserType
}

// ProfileUpdate carries the optional profile fields. A nil field keeps
// the stored value.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Country   *string
	BirthDate *time.Time
}
