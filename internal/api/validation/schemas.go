package validation

import "github.com/realtyhub/marketplace-api/internal/core/domain"

// RegisterRequest is the self-registration payload.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email" sanitize:"email"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	FirstName       string `json:"firstName" validate:"required,min=2,max=50" sanitize:"text"`
	LastName        string `json:"lastName" validate:"required,min=2,max=50" sanitize:"text"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,e164" sanitize:"trim"`
	Role            string `json:"role" validate:"required,selfrole" sanitize:"trim"`
}

func (r *RegisterRequest) Refine() []string {
	if r.Password != r.ConfirmPassword {
		return []string{"confirmPassword: Passwords don't match"}
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" sanitize:"email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required" sanitize:"trim"`
}

// ProfileUpdateRequest is a partial update: nil fields are left untouched.
type ProfileUpdateRequest struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=2,max=50" sanitize:"text"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=2,max=50" sanitize:"text"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,e164" sanitize:"trim"`
	Avatar    *string `json:"avatar,omitempty" validate:"omitempty,max=2048,http_url|eq=" sanitize:"trim"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=500" sanitize:"text"`
}

func (r *ProfileUpdateRequest) Refine() []string {
	if r.FirstName == nil && r.LastName == nil && r.Phone == nil && r.Avatar == nil && r.Bio == nil {
		return []string{"profile: at least one field must be provided"}
	}
	return nil
}

// Apply merges the provided fields into p.
func (r *ProfileUpdateRequest) Apply(p domain.Profile) domain.Profile {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.FirstName, r.FirstName)
	set(&p.LastName, r.LastName)
	set(&p.Phone, r.Phone)
	set(&p.Avatar, r.Avatar)
	set(&p.Bio, r.Bio)
	return p
}

type NotificationSettings struct {
	Email *bool `json:"email" validate:"required"`
	SMS   *bool `json:"sms" validate:"required"`
}

type PreferencesRequest struct {
	Language      string                `json:"language" validate:"required,oneof=en es pt fr de" sanitize:"trim"`
	Currency      string                `json:"currency" validate:"required,iso4217" sanitize:"trim"`
	Notifications *NotificationSettings `json:"notifications" validate:"required"`
}

func (r *PreferencesRequest) Preferences() domain.Preferences {
	return domain.Preferences{
		Language:           r.Language,
		Currency:           r.Currency,
		EmailNotifications: *r.Notifications.Email,
		SMSNotifications:   *r.Notifications.SMS,
	}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func (r *ChangePasswordRequest) Refine() []string {
	var errs []string
	if r.NewPassword != r.ConfirmPassword {
		errs = append(errs, "confirmPassword: Passwords don't match")
	}
	if r.NewPassword == r.CurrentPassword {
		errs = append(errs, "newPassword: must differ from the current password")
	}
	return errs
}

type DeleteAccountRequest struct {
	Password     string `json:"password" validate:"required"`
	Confirmation string `json:"confirmation" validate:"required,eq=DELETE" sanitize:"trim"`
}

type TierRequest struct {
	Tier string `json:"tier" validate:"required,tier" sanitize:"trim"`
}

type VerificationRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}

var (
	RegisterSchema       = For[RegisterRequest]("register")
	LoginSchema          = For[LoginRequest]("login")
	RefreshSchema        = For[RefreshRequest]("refresh")
	ProfileUpdateSchema  = For[ProfileUpdateRequest]("profileUpdate")
	PreferencesSchema    = For[PreferencesRequest]("preferences")
	ChangePasswordSchema = For[ChangePasswordRequest]("changePassword")
	DeleteAccountSchema  = For[DeleteAccountRequest]("deleteAccount")
	TierSchema           = For[TierRequest]("tier")
	VerificationSchema   = For[VerificationRequest]("verification")
)
