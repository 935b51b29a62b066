package model

// User is the authenticated CRM account, as returned by /auth/me.
// Tasks are assigned by Name, which is the CRM username.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
