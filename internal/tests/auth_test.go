package tests

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// ──────────────────────────────────────────────
// ACCOUNTS AND SESSIONS
// ──────────────────────────────────────────────

// stubTokenIssuer issues predictable tokens for assertions.
type stubTokenIssuer struct {
	IssueError error
}

func (s *stubTokenIssuer) Issue(userID string, role domain.Role) (string, string, error) {
	if s.IssueError != nil {
		return "", "", s.IssueError
	}
	return "token-" + userID, "jti-" + userID, nil
}

func newAuthFixture() (*service.AuthService, *MockUserRepository, *MockDriverRepository) {
	userRepo := NewMockUserRepository()
	driverRepo := NewMockDriverRepository()
	svc := service.NewAuthService(userRepo, driverRepo, &stubTokenIssuer{})
	return svc, userRepo, driverRepo
}

func TestAuth_SignupAndLoginRider(t *testing.T) {
	t.Parallel()

	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	profile, err := svc.Signup(ctx, service.SignupRequest{
		Name:     "Asha",
		Email:    "asha@example.com",
		Phone:    "9999900001",
		Role:     domain.RoleRider,
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Role != domain.RoleRider {
		t.Errorf("expected role %s, got %s", domain.RoleRider, profile.Role)
	}

	result, err := svc.Login(ctx, "asha@example.com", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token == "" || result.TokenID == "" {
		t.Error("expected an issued token")
	}
	if result.Profile.ID != profile.ID {
		t.Errorf("expected profile %s, got %s", profile.ID, result.Profile.ID)
	}

	_, err = svc.Login(ctx, "asha@example.com", "wrong")
	if !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuth_SignupDriverStartsInactive(t *testing.T) {
	t.Parallel()

	svc, _, driverRepo := newAuthFixture()
	ctx := context.Background()

	profile, err := svc.Signup(ctx, service.SignupRequest{
		Name:     "Ravi",
		Email:    "ravi@example.com",
		Role:     domain.RoleDriver,
		Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.IsActive {
		t.Error("new drivers must start inactive")
	}

	stored, err := driverRepo.GetByID(ctx, profile.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")) != nil {
		t.Error("stored hash must verify against the signup password")
	}
}

func TestAuth_SignupRejectsDuplicateEmailAcrossRoles(t *testing.T) {
	t.Parallel()

	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, service.SignupRequest{
		Name:     "Asha",
		Email:    "asha@example.com",
		Role:     domain.RoleRider,
		Password: "s3cret",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same email as a driver is still taken.
	_, err := svc.Signup(ctx, service.SignupRequest{
		Name:     "Asha",
		Email:    "asha@example.com",
		Role:     domain.RoleDriver,
		Password: "s3cret",
	})
	if !errors.Is(err, service.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuth_SignupValidation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Signup(ctx, service.SignupRequest{Email: "x@example.com", Role: domain.RoleRider, Password: "p"})
	if !errors.Is(err, service.ErrMissingSignupFields) {
		t.Errorf("expected ErrMissingSignupFields, got %v", err)
	}

	_, err = svc.Signup(ctx, service.SignupRequest{Name: "X", Email: "x@example.com", Role: "admin", Password: "p"})
	if !errors.Is(err, service.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAuth_UpdateDriverProfileActivates(t *testing.T) {
	t.Parallel()

	svc, _, driverRepo := newAuthFixture()
	ctx := context.Background()

	driverRepo.AddDriver(&domain.Driver{
		ID:    "driver-1",
		Name:  "Ravi",
		Email: "ravi@example.com",
		Role:  domain.RoleDriver,
	})

	active := true
	vehicle := "KA01AB1234"
	profile, err := svc.UpdateProfile(ctx, "driver-1", domain.RoleDriver, service.UpdateProfileRequest{
		Name:      "Ravi K",
		Phone:     "9999900002",
		IsActive:  &active,
		VehicleNo: &vehicle,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !profile.IsActive {
		t.Error("expected driver to be active after opting in")
	}
	if profile.VehicleNo != vehicle {
		t.Errorf("expected vehicle %q, got %q", vehicle, profile.VehicleNo)
	}
}

func TestAuth_ProfileLookupRespectsRoleClaim(t *testing.T) {
	t.Parallel()

	svc, userRepo, _ := newAuthFixture()
	ctx := context.Background()

	userRepo.AddUser(&domain.User{
		ID:    "acct-1",
		Name:  "Asha",
		Email: "asha@example.com",
		Role:  domain.RoleRider,
	})

	// A driver claim for a rider-only ID must not fall through to users.
	if _, err := svc.GetProfile(ctx, "acct-1", domain.RoleDriver); err == nil {
		t.Error("expected lookup to fail for the wrong role claim")
	}

	profile, err := svc.GetProfile(ctx, "acct-1", domain.RoleRider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "Asha" {
		t.Errorf("expected profile Asha, got %q", profile.Name)
	}
}
