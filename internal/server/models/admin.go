package models

import "time"

// Admin is a dashboard administrator as stored in the admin table.
type Admin struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	LoginTime    *time.Time
	CreatedAt    time.Time
}

// PublicProfile is the admin shape returned by login.
type PublicProfile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionProfile is the admin shape returned by session verification.
// login_time is always present and null for an admin who never signed in.
type SessionProfile struct {
	PublicProfile
	LoginTime *time.Time `json:"login_time"`
}

// Profile returns the public view of a, leaving out the password hash.
func (a *Admin) Profile() PublicProfile {
	return PublicProfile{ID: a.ID, Name: a.Name, Email: a.Email}
}

// SessionProfile returns the public view of a together with its last login.
func (a *Admin) SessionProfile() SessionProfile {
	return SessionProfile{PublicProfile: a.Profile(), LoginTime: a.LoginTime}
}
