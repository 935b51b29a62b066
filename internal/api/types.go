package api

// PendingNotification is a server-authoritative reminder waiting to be
// surfaced, as returned by GET /tasks/notifications/pending.
type PendingNotification struct {
	ReminderID string `json:"reminderId"`
	TaskID     string `json:"taskId,omitempty"`
	Title      string `json:"title"`
	Message    string `json:"message"`
}

// loginRequest is the body of POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse carries the bearer token issued on successful login.
type loginResponse struct {
	Token string `json:"token"`
}
