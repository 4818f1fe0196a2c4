package models

type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Telegram string `json:"telegram,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type RegisterResponse struct {
	ID int64 `json:"id"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Telegram *string `json:"telegram,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

type NotificationSettings struct {
	EmailNotifications    bool `json:"emailNotifications"`
	SMSNotifications      bool `json:"smsNotifications"`
	TelegramNotifications bool `json:"telegramNotifications"`
}

// DefaultNotificationSettings is used until the user saves their own.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		EmailNotifications:    true,
		SMSNotifications:      false,
		TelegramNotifications: true,
	}
}

// Merge applies the non-nil fields of req on top of u.
func (u User) Merge(req UpdateProfileRequest) User {
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}
	if req.Telegram != nil {
		u.Telegram = *req.Telegram
	}
	return u
}
