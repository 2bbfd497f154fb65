package domain

import "time"

// Role governs what a principal may do.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleAgent           Role = "AGENT"
	RoleBuyer           Role = "BUYER"
	RoleSeller          Role = "SELLER"
	RolePropertyManager Role = "PROPERTY_MANAGER"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleAgent, RoleBuyer, RoleSeller, RolePropertyManager}

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Tier is an ordered subscription level.
type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// Tiers is the canonical order, lowest first.
var Tiers = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}

// Rank returns the ordinal position of t in Tiers, or -1 when t is unknown.
func (t Tier) Rank() int {
	for i, known := range Tiers {
		if t == known {
			return i
		}
	}
	return -1
}

// Valid reports whether t is one of the fixed tiers.
func (t Tier) Valid() bool { return t.Rank() >= 0 }

// Profile holds the display details of a principal.
type Profile struct {
	FirstName string `json:"firstName" bson:"first_name"`
	LastName  string `json:"lastName" bson:"last_name"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Bio       string `json:"bio,omitempty" bson:"bio,omitempty"`
}

// Preferences holds notification and locale settings.
type Preferences struct {
	Language           string `json:"language" bson:"language"`
	Currency           string `json:"currency" bson:"currency"`
	EmailNotifications bool   `json:"emailNotifications" bson:"email_notifications"`
	SMSNotifications   bool   `json:"smsNotifications" bson:"sms_notifications"`
}

// DefaultPreferences is applied to newly registered principals.
func DefaultPreferences() Preferences {
	return Preferences{Language: "en", Currency: "USD", EmailNotifications: true}
}

// User is the full principal record. Only the persistence layer owns it;
// requests carry Claims.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	Tier         Tier        `json:"tier"`
	Verified     bool        `json:"verified"`
	Profile      Profile     `json:"profile"`
	Preferences  Preferences `json:"preferences"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Claims projects the identity a signed access token asserts.
type Claims struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Tier      Tier      `json:"tier"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// ClaimsFor builds the claim set for u. Timestamps are filled at signing.
func ClaimsFor(u *User) Claims {
	return Claims{UserID: u.ID, Email: u.Email, Role: u.Role, Tier: u.Tier}
}

// AccountExport is the privacy data export of a principal.
type AccountExport struct {
	User       *User     `json:"user"`
	ExportedAt time.Time `json:"exportedAt"`
}
