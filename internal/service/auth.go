package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
)

// TokenIssuer signs access tokens for authenticated identities.
type TokenIssuer interface {
	Issue(userID string, role domain.Role) (token, tokenID string, err error)
}

// AuthService handles account registration, login, and profiles. Identity
// resolution order is canonical: the role claim picks the table (users for
// riders, drivers for drivers); absence in the claimed table is a hard
// not-found, never a fallthrough to the other table.
type AuthService struct {
	userRepo   repository.UserRepository
	driverRepo repository.DriverRepository
	tokens     TokenIssuer
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, driverRepo repository.DriverRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		driverRepo: driverRepo,
		tokens:     tokens,
	}
}

// Profile is the role-independent view of an account.
type Profile struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         domain.Role
	IsActive     bool
	VehicleNo    string
	VehicleModel string
	CreatedAt    time.Time
}

// SignupRequest contains the parameters for registration.
type SignupRequest struct {
	Name     string
	Email    string
	Phone    string
	Role     domain.Role
	Password string
}

// Signup registers a rider or driver account. Drivers start inactive and
// opt in to accepting rides via profile update.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*Profile, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return nil, ErrMissingSignupFields
	}

	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}

	if taken, err := s.emailTaken(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now()

	if req.Role == domain.RoleDriver {
		driver := &domain.Driver{
			ID:           id,
			Name:         req.Name,
			Email:        req.Email,
			Phone:        req.Phone,
			Role:         domain.RoleDriver,
			PasswordHash: string(hash),
			CreatedAt:    now,
		}
		if err := s.driverRepo.Create(ctx, driver); err != nil {
			return nil, err
		}
		return driverProfile(driver), nil
	}

	user := &domain.User{
		ID:           id,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         domain.RoleRider,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return userProfile(user), nil
}

// LoginResult contains the issued token and the authenticated profile.
type LoginResult struct {
	Token   string
	TokenID string
	Profile *Profile
}

// Login authenticates by email and password. Riders are checked first, then
// drivers; a wrong password in either table is indistinguishable from an
// unknown email.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	profile, hash, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, tokenID, err := s.tokens.Issue(profile.ID, profile.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, TokenID: tokenID, Profile: profile}, nil
}

// GetProfile returns the caller's profile from the table its role claims.
func (s *AuthService) GetProfile(ctx context.Context, callerID string, role domain.Role) (*Profile, error) {
	if role == domain.RoleDriver {
		driver, err := s.driverRepo.GetByID(ctx, callerID)
		if err != nil {
			return nil, err
		}
		return driverProfile(driver), nil
	}

	user, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return userProfile(user), nil
}

// UpdateProfileRequest contains the mutable profile fields. Nil pointers
// leave the stored value unchanged; the driver-only fields are ignored for
// riders.
type UpdateProfileRequest struct {
	Name         string
	Phone        string
	IsActive     *bool
	VehicleNo    *string
	VehicleModel *string
}

// UpdateProfile updates the caller's profile and returns the stored state.
func (s *AuthService) UpdateProfile(ctx context.Context, callerID string, role domain.Role, req UpdateProfileRequest) (*Profile, error) {
	if role == domain.RoleDriver {
		err := s.driverRepo.UpdateProfile(ctx, callerID, repository.DriverProfileUpdate{
			Name:         req.Name,
			Phone:        req.Phone,
			IsActive:     req.IsActive,
			VehicleNo:    req.VehicleNo,
			VehicleModel: req.VehicleModel,
		})
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.userRepo.UpdateProfile(ctx, callerID, req.Name, req.Phone); err != nil {
			return nil, err
		}
	}

	return s.GetProfile(ctx, callerID, role)
}

func (s *AuthService) emailTaken(ctx context.Context, email string) (bool, error) {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	if _, err := s.driverRepo.GetByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	return false, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*Profile, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return userProfile(user), user.PasswordHash, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	driver, err := s.driverRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	return driverProfile(driver), driver.PasswordHash, nil
}

func userProfile(u *domain.User) *Profile {
	return &Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func driverProfile(d *domain.Driver) *Profile {
	return &Profile{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		Phone:        d.Phone,
		Role:         d.Role,
		IsActive:     d.IsActive,
		VehicleNo:    d.VehicleNo,
		VehicleModel: d.VehicleModel,
		CreatedAt:    d.CreatedAt,
	}
}
