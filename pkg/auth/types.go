package auth

import "time"

// Role is a capability a user may hold on the platform
type Role string

const (
	RoleAuthor     Role = "author"     // Publishes works
	RoleTranslator Role = "translator" // Takes on translation requests
	RoleEditor     Role = "editor"     // Requests and reviews translations
	RoleReader     Role = "reader"     // Read-only account
	RoleAdmin      Role = "admin"      // Platform operator
)

// RegistrableRoles are the roles a user may pick at self-registration
var RegistrableRoles = []Role{RoleAuthor, RoleTranslator, RoleEditor}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAuthor, RoleTranslator, RoleEditor, RoleReader, RoleAdmin:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of a user account
type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountDeleted   AccountStatus = "deleted"
)

// User is the public view of an account. The password hash never appears
// here; see Credentials.
type User struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	PenName      *string       `json:"penName"`
	Country      *string       `json:"country,omitempty"`
	Bio          *string       `json:"bio,omitempty"`
	ProfileImage *string       `json:"profileImage,omitempty"`
	Verified     bool          `json:"verified"`
	Status       AccountStatus `json:"-"`

	// Role is the role assumed for the current session
	Role Role `json:"role,omitempty"`
	// Roles lists every active role, populated by profile reads
	Roles []Role `json:"roles,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Identity is the claim set carried by a session token
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// HasRole reports whether the identity's session role is one of roles
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// Credentials is what login needs to authenticate an email
type Credentials struct {
	User         User
	PasswordHash string
	// ActiveRoles is ordered most recently activated first
	ActiveRoles []Role
}

// NewUser is the input to CredentialStore.CreateUser
type NewUser struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PenName      *string
	Country      *string
	Role         Role
}

// Session is the result of a successful register or login
type Session struct {
	User  *User
	Token string
}
