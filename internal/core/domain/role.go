package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// RoleCode is the closed catalog of capabilities.
type RoleCode int

const (
	RoleAdmin RoleCode = iota + 1
	RoleEditor
	RoleViewer
)

// roleCodeNames is the single code <-> string table used for parsing,
// JSON and storage encoding.
var roleCodeNames = map[RoleCode]string{
	RoleAdmin:  "admin",
	RoleEditor: "editor",
	RoleViewer: "viewer",
}

var roleCodesByName = map[string]RoleCode{
	"admin":  RoleAdmin,
	"editor": RoleEditor,
	"viewer": RoleViewer,
}

// DefaultRoles are granted at signup.
var DefaultRoles = []RoleCode{RoleViewer}

// ParseRoleCode maps a string to a RoleCode or fails with ErrInvalidRoleCode.
func ParseRoleCode(s string) (RoleCode, error) {
	c, ok := roleCodesByName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRoleCode, s)
	}
	return c, nil
}

// ParseRoleCodes parses every entry before returning, so a single bad
// code rejects the whole set. Duplicates are collapsed, order is kept.
func ParseRoleCodes(ss []string) ([]RoleCode, error) {
	out := make([]RoleCode, 0, len(ss))
	seen := make(map[RoleCode]struct{}, len(ss))
	for _, s := range ss {
		c, err := ParseRoleCode(s)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func (c RoleCode) String() string {
	if s, ok := roleCodeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("RoleCode(%d)", int(c))
}

// Valid reports whether c belongs to the catalog.
func (c RoleCode) Valid() bool {
	_, ok := roleCodeNames[c]
	return ok
}

func (c RoleCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *RoleCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRoleCode(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Role is a catalog row. Rows are created lazily from RoleCode constants.
type Role struct {
	ID        int64     `json:"id"`
	Code      RoleCode  `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// HasAnyRole reports whether roles contains at least one of codes.
func HasAnyRole(roles []Role, codes ...RoleCode) bool {
	for _, r := range roles {
		for _, c := range codes {
			if r.Code == c {
				return true
			}
		}
	}
	return false
}
