package auth

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	DateOfBirth     string `json:"date_of_birth"`
}

func (r *RegisterRequest) Validate() error {
	var errs validator.ValidationErrors

	// Username validation
	if validator.IsEmpty(r.Username) {
		errs.Add("username", "username is required")
	} else if !validator.IsValidUsername(r.Username) {
		errs.Add("username", "username must be 3-50 characters of letters, digits, '.', '_' or '-'")
	}

	// Email validation
	if validator.IsEmpty(r.Email) {
		errs.Add("email", "email is required")
	} else if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "invalid email format")
	}

	// Phone validation
	if validator.IsEmpty(r.Phone) {
		errs.Add("phone", "phone is required")
	} else if !validator.IsValidPhoneNumber(r.Phone) {
		errs.Add("phone", "Kindly enter valid phone numbers")
	}

	// Password validation
	if validator.IsEmpty(r.Password) {
		errs.Add("password", "password is required")
	} else if len(r.Password) < 8 {
		errs.Add("password", "password must be at least 8 characters")
	}
	if validator.IsEmpty(r.PasswordConfirm) {
		errs.Add("password_confirm", "password_confirm is required")
	} else if r.Password != r.PasswordConfirm {
		errs.Add("password", "passwords do not match")
	}

	// Date of birth format; the not-in-future rule needs a clock and is checked by the service
	if validator.IsEmpty(r.DateOfBirth) {
		errs.Add("date_of_birth", "date_of_birth is required")
	} else if _, ok := validator.IsValidDate(r.DateOfBirth); !ok {
		errs.Add("date_of_birth", "date_of_birth must be YYYY-MM-DD")
	}

	return errs.OrNil()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Email) {
		errs.Add("email", "email is required")
	} else if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "invalid email format")
	}
	if validator.IsEmpty(r.Password) {
		errs.Add("password", "password is required")
	}

	return errs.OrNil()
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.RefreshToken) {
		errs.Add("refresh_token", "refresh_token is required")
	}
	return errs.OrNil()
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

func (r *VerifyEmailRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Token) {
		errs.Add("token", "token is required")
	}
	return errs.OrNil()
}

type RegisterResponse struct {
	UserID     string `json:"user_id"`
	EmployeeID string `json:"employee_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
}

type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	AccessTokenExpiresIn  int64  `json:"access_token_expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	Username              string `json:"username"`
	Role                  string `json:"role"`
}

type AccessTokenResponse struct {
	AccessToken          string `json:"access_token"`
	AccessTokenExpiresIn int64  `json:"access_token_expires_in"`
}
