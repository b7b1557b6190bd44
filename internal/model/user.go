package model

// Role distinguishes the two kinds of portal users.
type Role string

const (
	RoleTrainer     Role = "trainer"
	RoleParticipant Role = "participant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleTrainer || r == RoleParticipant
}

// Session is the authenticated identity carried through the portal.
// Exactly one session exists per user; it is persisted in Redis for the
// lifetime of the issued token and destroyed on logout.
type Session struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// LoginRequest is the payload for authenticating against the portal.
type LoginRequest struct {
	UserID   string `json:"user_id" binding:"required,min=2,max=64"`
	Password string `json:"password" binding:"required,min=4,max=128"`
	Role     Role   `json:"role" binding:"required,oneof=trainer participant"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string  `json:"token"`
	User  Session `json:"user"`
}

// RegisterRequest is the payload for creating a new account upstream.
type RegisterRequest struct {
	FullName string `json:"full_name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	UserID   string `json:"user_id" binding:"required,min=2,max=64"`
	Password string `json:"password" binding:"required,min=4,max=128"`
	Role     Role   `json:"role" binding:"required,oneof=trainer participant"`
}
