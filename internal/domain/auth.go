package domain

// Principal is the identity carried by a verified session token. It is trusted
// for the token's lifetime without a database lookup.
type Principal struct {
	UserID string
	Role   Role
}
