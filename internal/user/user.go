package user

import "github.com/spintom/inserf/internal/auth"

// User is a login account. Client users buy on behalf of ClientID.
type User struct {
	ID           int       `json:"userId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         auth.Role `json:"role"`
	ClientID     *int      `json:"clientId,omitempty"`
	Active       bool      `json:"isActive"`
}

// Identity is the token subject for u.
func (u User) Identity() auth.Identity {
	id := auth.Identity{UserID: u.ID, Role: u.Role}
	if u.ClientID != nil {
		id.ClientID = *u.ClientID
	}
	return id
}
