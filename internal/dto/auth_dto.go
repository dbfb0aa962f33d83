package dto

type SendCodeRequest struct {
	Email string `json:"email"`
}

type SendCodeResponse struct {
	Message     string `json:"message"`
	CodeForDemo string `json:"code_for_demo,omitempty"`
}

type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifyCodeResponse struct {
	Message           string `json:"message"`
	Email             string `json:"email"`
	VerificationToken string `json:"verification_token"`
}

// RegisterRequest carries the verification_token returned by verify-code.
type RegisterRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	Name              string `json:"name"`
	VerificationToken string `json:"verification_token"`
}

type LoginURLResponse struct {
	RedirectURL string `json:"redirect_url"`
	State       string `json:"state"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     *string `json:"email,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
