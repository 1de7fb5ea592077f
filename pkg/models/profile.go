package models

import "time"

// Profile is the public identity of a user, used for display and for
// picking share recipients.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  *string   `json:"username"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName prefers the username and falls back to the email.
func (p Profile) DisplayName() string {
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	return p.Email
}

type ProfilePatch struct {
	Username  *string `json:"username,omitempty" validate:"omitnil,min=3,max=50"`
	FullName  *string `json:"full_name,omitempty" validate:"omitnil,max=255"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitnil,max=2048"`
}

func (p ProfilePatch) Validate() error { return check(p) }

// Session is returned by sign-in.
type Session struct {
	UserID  string  `json:"user_id"`
	Profile Profile `json:"profile"`
}
