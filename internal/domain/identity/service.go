package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hostelcare/hostelcare/internal/platform/apperr"
	"github.com/hostelcare/hostelcare/internal/platform/auth"
)

const (
	invalidCredentials = "Invalid credentials"
	invalidRefresh     = "Invalid refresh token"
)

// assignableRoles is the default user listing: everyone who can be handed a
// complaint.
var assignableRoles = []auth.Role{auth.RoleAdmin, auth.RoleFacilityManager, auth.RoleMedicalStaff}

type Service struct {
	users      UserRepository
	tokens     *auth.TokenIssuer
	revoked    auth.RevocationStore
	bcryptCost int

	dummyOnce sync.Once
	dummyHash string
}

func NewService(users UserRepository, tokens *auth.TokenIssuer, revoked auth.RevocationStore, bcryptCost int) *Service {
	return &Service{users: users, tokens: tokens, revoked: revoked, bcryptCost: bcryptCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new account without issuing tokens.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict(emailConflict)
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	role := in.Role
	if role == "" {
		role = auth.RoleResident
	}
	u := &User{Email: email, PasswordHash: hash, Name: in.Name, Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Register creates an account and signs the caller in.
func (s *Service) Register(ctx context.Context, in NewUser) (*AuthResult, error) {
	u, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Login checks credentials. Unknown emails and wrong passwords fail the same
// way and take comparable time.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			auth.CheckPassword(s.dummy(), password)
			return nil, apperr.Unauthorized(invalidCredentials)
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Unauthorized(invalidCredentials)
	}
	return s.issue(u)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked so it cannot be replayed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperr.Unauthorized(invalidRefresh)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized(invalidRefresh)
		}
		return nil, err
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, apperr.Internal("revoke refresh token", err)
	}
	return s.issue(u)
}

// Logout revokes the presented refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Internal("revoke refresh token", err)
	}
	return nil
}

func (s *Service) checkRefresh(ctx context.Context, token string) (*auth.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Unauthorized("Refresh token required")
	}
	claims, err := s.tokens.ParseRefresh(token)
	if err != nil {
		return nil, apperr.Unauthorized(invalidRefresh)
	}
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Internal("check revocation", err)
	}
	if revoked {
		return nil, apperr.Unauthorized(invalidRefresh)
	}
	return claims, nil
}

func (s *Service) issue(u *User) (*AuthResult, error) {
	pair, err := s.tokens.Issue(u.Principal())
	if err != nil {
		return nil, apperr.Internal("issue tokens", err)
	}
	return &AuthResult{User: u, TokenPair: pair}, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("not-a-real-password", s.bcryptCost)
	})
	return s.dummyHash
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns assignable staff unless roles narrows the listing. An
// admin asking for all gets every account.
func (s *Service) ListUsers(ctx context.Context, caller auth.Principal, roles string, all bool) ([]*User, error) {
	if all && auth.Can(caller.Role, auth.CapListAllUsers) {
		return s.users.List(ctx, UserFilter{})
	}
	if strings.TrimSpace(roles) == "" {
		return s.users.List(ctx, UserFilter{Roles: assignableRoles})
	}
	var f UserFilter
	for _, r := range strings.Split(roles, ",") {
		role, ok := auth.ParseRole(strings.TrimSpace(r))
		if !ok {
			return nil, apperr.Validation("Invalid role filter", strings.TrimSpace(r))
		}
		f.Roles = append(f.Roles, role)
	}
	return s.users.List(ctx, f)
}

// UpdateUser changes a user's name and role. Only admins may do this.
func (s *Service) UpdateUser(ctx context.Context, caller auth.Principal, id uuid.UUID, in UpdateUserRequest) (*User, error) {
	if !auth.Can(caller.Role, auth.CapManageUsers) {
		return nil, apperr.Forbidden("Only Admin can update user details.")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Role != nil {
		role, ok := auth.ParseRole(*in.Role)
		if !ok {
			return nil, apperr.Validation("Invalid role specified. Must be one of: admin, facility_manager, medical_staff, resident")
		}
		u.Role = role
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperr.Validation("Validation failed", "name must not be empty")
		}
		u.Name = *in.Name
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// NotifyRecipients returns the ids of every user holding role.
func (s *Service) NotifyRecipients(ctx context.Context, role auth.Role) ([]uuid.UUID, error) {
	return s.users.IDsByRole(ctx, role)
}
