package entity

// User is the minimal slice of the accounts table this engine reads: enough
// to attribute an approved review to a reviewer name.
type User struct {
	Base
	Name    string `db:"name"`
	Email   string `db:"email"`
	Picture string `db:"picture"`
	Role    string `db:"role"`
}
