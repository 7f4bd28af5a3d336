package models

import "slices"

// User is an account as exposed to callers (persistent fields only; the
// password hash lives in the account storage wrapper).
type User struct {
	ID       string   `json:"id" jsonschema:"description=Unique account identifier"`
	Email    string   `json:"email" jsonschema:"description=Account email address"`
	Username string   `json:"username" jsonschema:"description=Unique account username"`
	IsAdmin  bool     `json:"isAdmin" jsonschema:"description=Whether the account can administer badges"`
	Badges   []string `json:"badges" jsonschema:"description=Badges granted at the account level"`
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	c := *u
	c.Badges = slices.Clone(u.Badges)
	return &c
}
