package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"charitydesk/internal/access"
	"charitydesk/internal/middleware"
	"charitydesk/internal/models"
	"charitydesk/internal/repository"
	"charitydesk/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	users      repository.UserRepository
	bcryptCost int
	now        func() time.Time
}

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileInput struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

type ListUsersInput struct {
	Role   string
	Query  string
	Limit  int
	Offset int
}

// UserPage is one page of a user listing.
type UserPage struct {
	Items  []models.User `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{
		users:      users,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// HashPassword hashes a plain-text password with bcrypt.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hashed), nil
}

func newVerificationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Signup registers a guest account with an unverified email address.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	fields := map[string]string{}
	if err := validation.ValidateName(in.Name); err != nil {
		fields["name"] = err.Error()
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		fields["email"] = err.Error()
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	hashed, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:              strings.TrimSpace(in.Name),
		Email:             email,
		Password:          hashed,
		Role:              models.RoleNameGuest,
		VerificationToken: newVerificationToken(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user signed up", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// ConfirmEmail verifies the account that was issued token.
func (s *UserService) ConfirmEmail(ctx context.Context, token string) (*models.User, error) {
	user, err := s.users.GetByVerificationToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if err := s.users.MarkEmailVerified(ctx, user.ID, s.now()); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, user.ID)
}

// Me returns the principal's own account.
func (s *UserService) Me(ctx context.Context, p access.Principal) (*models.User, error) {
	if !p.Authenticated() {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.users.GetByID(ctx, p.ID)
}

// UpdateOwnProfile changes the principal's name and/or password.
func (s *UserService) UpdateOwnProfile(ctx context.Context, p access.Principal, in UpdateProfileInput) (*models.User, error) {
	if err := access.Require(p, access.ManageOwnGuestProfile); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	updates := map[string]interface{}{}
	if in.Name != nil {
		if err := validation.ValidateName(*in.Name); err != nil {
			fields["name"] = err.Error()
		} else {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
	}
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			fields["password"] = err.Error()
		} else {
			hashed, err := HashPassword(*in.Password, s.bcryptCost)
			if err != nil {
				return nil, err
			}
			updates["password"] = hashed
		}
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	if err := s.users.UpdateProfile(ctx, p.ID, updates); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, p.ID)
}

func (s *UserService) List(ctx context.Context, p access.Principal, in ListUsersInput) (*UserPage, error) {
	if err := access.Require(p, access.ModerateUsers); err != nil {
		return nil, err
	}
	filter := repository.UserFilter{Query: in.Query}
	if in.Role != "" {
		role, ok := access.ParseAssignableRole(in.Role)
		if !ok {
			return nil, models.NewFieldValidationError(map[string]string{"role": "Unknown role"})
		}
		filter.Role = role.String()
	}
	filter.Limit, filter.Offset = normalizePage(in.Limit, in.Offset)

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &UserPage{Items: users, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// ListStaff returns every admin and editor account.
func (s *UserService) ListStaff(ctx context.Context, p access.Principal) ([]models.User, error) {
	if err := access.Require(p, access.ModerateUsers); err != nil {
		return nil, err
	}
	return s.users.ListStaff(ctx)
}

// AssignRole changes a user's role. Staff roles require a verified email,
// and admins cannot demote themselves.
func (s *UserService) AssignRole(ctx context.Context, p access.Principal, targetID uint, roleName string) (*models.User, error) {
	if err := access.Require(p, access.ModerateUsers); err != nil {
		return nil, err
	}
	role, ok := access.ParseAssignableRole(roleName)
	if !ok {
		return nil, models.NewFieldValidationError(map[string]string{"role": "Role must be admin, editor or guest"})
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if role.IsStaff() && !target.EmailVerified() {
		return nil, models.NewFieldValidationError(map[string]string{
			"role": "Email must be verified before assigning a staff role",
		})
	}
	if target.ID == p.ID && role != access.RoleAdmin {
		return nil, models.NewFieldValidationError(map[string]string{"role": "You cannot demote yourself"})
	}

	if err := s.users.UpdateRole(ctx, target.ID, role.String()); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "role changed",
		slog.Uint64("user_id", uint64(target.ID)),
		slog.String("from", target.Role),
		slog.String("to", role.String()),
		slog.Uint64("actor_id", uint64(p.ID)),
	)
	return s.users.GetByID(ctx, target.ID)
}

// VerifyEmail marks a user's email verified on an administrator's behalf.
func (s *UserService) VerifyEmail(ctx context.Context, p access.Principal, targetID uint) (*models.User, error) {
	if err := access.Require(p, access.ModerateUsers); err != nil {
		return nil, err
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.EmailVerified() {
		return target, nil
	}
	if err := s.users.MarkEmailVerified(ctx, target.ID, s.now()); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, target.ID)
}

// DeleteUser removes an account. Authored content and comments are kept
// without an author.
func (s *UserService) DeleteUser(ctx context.Context, p access.Principal, targetID uint) error {
	if err := access.Require(p, access.ModerateUsers); err != nil {
		return err
	}
	if targetID == p.ID {
		return models.NewValidationError("You cannot delete your own account")
	}
	if err := s.users.DeleteOrphaning(ctx, targetID); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "user deleted",
		slog.Uint64("user_id", uint64(targetID)),
		slog.Uint64("actor_id", uint64(p.ID)),
	)
	return nil
}
