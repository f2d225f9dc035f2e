package entity

// Session is the client-held claim minted at login. The server never trusts it
// beyond its signature: every protected request re-derives validity from storage.
type Session struct {
	UserID   int    `json:"userId"`
	ShiftID  int    `json:"shiftId"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
}

// AuthResult is the outcome of validating a session.
type AuthResult struct {
	IsAuthenticated bool          `json:"isAuthenticated"`
	User            *UserProfile  `json:"user,omitempty"`
	Shift           *ShiftSummary `json:"shift,omitempty"`
}
