package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/email"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	employeeservice "github.com/cmlabs-hris/hris-attendance-go/internal/service/employee"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	tx database.Transactor
	user.UserRepository
	employee.EmployeeRepository
	jwt.Service
	emailService email.EmailService
	cache        cache.Cache
	baseURL      string
	loc          *time.Location
	now          func() time.Time
	// dispatch runs work that must not hold up the response.
	dispatch func(func())
}

func NewAuthService(
	tx database.Transactor,
	userRepository user.UserRepository,
	employeeRepository employee.EmployeeRepository,
	jwtService jwt.Service,
	emailService email.EmailService,
	c cache.Cache,
	baseURL string,
	loc *time.Location,
) auth.AuthService {
	if loc == nil {
		loc = time.UTC
	}
	return &AuthServiceImpl{
		tx:                 tx,
		UserRepository:     userRepository,
		EmployeeRepository: employeeRepository,
		Service:            jwtService,
		emailService:       emailService,
		cache:              c,
		baseURL:            baseURL,
		loc:                loc,
		now:                time.Now,
		dispatch:           func(f func()) { go f() },
	}
}

func (a *AuthServiceImpl) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register implements auth.AuthService.
func (a *AuthServiceImpl) Register(ctx context.Context, req auth.RegisterRequest) (auth.RegisterResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.RegisterResponse{}, err
	}

	var errs validator.ValidationErrors

	dob, ok := validator.IsValidDate(req.DateOfBirth)
	if !ok {
		errs.Add("date_of_birth", "date_of_birth must be YYYY-MM-DD")
	} else if dob.After(civil.DateOf(a.now().In(a.loc))) {
		errs.Add("date_of_birth", "date_of_birth cannot be in the future")
	}

	emailTaken, err := a.UserRepository.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return auth.RegisterResponse{}, err
	}
	if emailTaken {
		errs.Add("email", "email already exists")
	}
	usernameTaken, err := a.UserRepository.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return auth.RegisterResponse{}, err
	}
	if usernameTaken {
		errs.Add("username", "username already exists")
	}
	phoneTaken, err := a.EmployeeRepository.ExistsByPhone(ctx, req.Phone)
	if err != nil {
		return auth.RegisterResponse{}, err
	}
	if phoneTaken {
		errs.Add("phone", "phone number already exists")
	}

	if len(errs) > 0 {
		return auth.RegisterResponse{}, errs
	}

	passwordHash, err := a.hashPassword(req.Password)
	if err != nil {
		return auth.RegisterResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var (
		newUser     user.User
		newEmployee employee.Employee
	)
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		newUser, err = a.UserRepository.Create(ctx, user.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: passwordHash,
		})
		if err != nil {
			return err
		}

		newEmployee, err = a.EmployeeRepository.Create(ctx, employee.Employee{
			UserID:         newUser.ID,
			Role:           user.RoleEmployee,
			Phone:          req.Phone,
			DateOfBirth:    dob,
			EmploymentType: employee.EmploymentFullTime,
			IsActive:       true,
		})
		return err
	})
	if err != nil {
		return auth.RegisterResponse{}, err
	}

	if err := a.cache.Delete(ctx, employeeservice.AllEmployeesCacheKey); err != nil {
		slog.Warn("Failed to invalidate employee cache", "error", err)
	}

	if err := a.sendVerification(newUser); err != nil {
		// The account exists; the user can ask support for a new link
		slog.Error("Failed to issue verification token", "user_id", newUser.ID, "error", err)
	}

	slog.Info("User registered", "user_id", newUser.ID, "employee_id", newEmployee.ID)

	return auth.RegisterResponse{
		UserID:     newUser.ID,
		EmployeeID: newEmployee.ID,
		Username:   newUser.Username,
		Email:      newUser.Email,
	}, nil
}

func (a *AuthServiceImpl) sendVerification(u user.User) error {
	token, expiresAt, err := a.Service.GenerateVerificationToken(u.ID)
	if err != nil {
		return err
	}

	link := a.baseURL + "/api/v1/auth/verify/" + token
	expires := time.Unix(expiresAt, 0).In(a.loc).Format("2006-01-02 15:04 MST")

	a.dispatch(func() {
		if err := a.emailService.SendVerification(u.Email, u.Username, link, expires); err != nil {
			slog.Error("Failed to send verification email", "user_id", u.ID, "error", err)
		}
	})
	return nil
}

// VerifyEmail implements auth.AuthService.
func (a *AuthServiceImpl) VerifyEmail(ctx context.Context, req auth.VerifyEmailRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	userID, err := a.Service.ParseToken(req.Token, jwt.TokenTypeVerification)
	if err != nil {
		return auth.ErrInvalidToken
	}

	u, err := a.UserRepository.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.ErrInvalidToken
		}
		return err
	}
	if u.IsVerified {
		return auth.ErrAlreadyVerified
	}

	if err := a.UserRepository.MarkVerified(ctx, u.ID); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}

	slog.Info("User verified", "user_id", u.ID)
	return nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	u, err := a.UserRepository.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if !u.CanLogin() {
		return auth.TokenResponse{}, auth.ErrEmailNotVerified
	}

	claims := accessClaims(u)

	var resp auth.TokenResponse
	resp.AccessToken, resp.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(claims)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	resp.RefreshToken, resp.RefreshTokenExpiresIn, err = a.Service.GenerateRefreshToken(u.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create refresh token: %w", err)
	}
	resp.Username = u.Username
	resp.Role = string(claims.Role)

	return resp, nil
}

// RefreshToken implements auth.AuthService.
func (a *AuthServiceImpl) RefreshToken(ctx context.Context, req auth.RefreshTokenRequest) (auth.AccessTokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.AccessTokenResponse{}, err
	}
	if a.Service.IsTokenRevoked(req.RefreshToken) {
		return auth.AccessTokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	userID, err := a.Service.ParseToken(req.RefreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		return auth.AccessTokenResponse{}, auth.ErrInvalidToken
	}

	u, err := a.UserRepository.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.AccessTokenResponse{}, auth.ErrInvalidToken
		}
		return auth.AccessTokenResponse{}, err
	}
	if !u.CanLogin() {
		return auth.AccessTokenResponse{}, auth.ErrEmailNotVerified
	}

	var resp auth.AccessTokenResponse
	resp.AccessToken, resp.AccessTokenExpiresIn, err = a.Service.GenerateAccessToken(accessClaims(u))
	if err != nil {
		return auth.AccessTokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	return resp, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return auth.ErrInvalidToken
	}
	if _, err := a.Service.ParseToken(refreshToken, jwt.TokenTypeRefresh); err != nil {
		return auth.ErrInvalidToken
	}
	a.Service.RevokeToken(refreshToken)
	return nil
}

func accessClaims(u user.User) jwt.AccessClaims {
	c := jwt.AccessClaims{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     user.RoleEmployee,
	}
	if u.EmployeeID != nil {
		c.EmployeeID = *u.EmployeeID
	}
	if u.Role != nil {
		c.Role = *u.Role
	}
	return c
}
