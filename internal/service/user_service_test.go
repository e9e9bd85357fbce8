package service

import (
	"context"
	"testing"

	"charitydesk/internal/access"
	"charitydesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Sunflower-Fund-2024"

func TestUserService_Signup_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newStack(t, nil).users

	tests := []struct {
		name   string
		in     SignupInput
		fields []string
	}{
		{"everything missing", SignupInput{}, []string{"name", "email", "password"}},
		{"bad email", SignupInput{Name: "Ada", Email: "ada@", Password: strongPassword}, []string{"email"}},
		{"weak password", SignupInput{Name: "Ada", Email: "ada@example.org", Password: "password"}, []string{"password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.in)
			assertValidationError(t, err)
			fields := fieldErrors(t, err)
			for _, f := range tt.fields {
				assert.Contains(t, fields, f)
			}
			assert.Len(t, fields, len(tt.fields))
		})
	}
}

func TestUserService_SignupLoginVerify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newStack(t, nil).users

	user, err := svc.Signup(ctx, SignupInput{Name: " Ada ", Email: "Ada@Example.org", Password: strongPassword})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.org", user.Email)
	assert.Equal(t, models.RoleNameGuest, user.Role)
	assert.False(t, user.EmailVerified())
	assert.Len(t, user.VerificationToken, 32)
	assert.NotEqual(t, strongPassword, user.Password)

	_, err = svc.Signup(ctx, SignupInput{Name: "Ada", Email: "ada@example.org", Password: strongPassword})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	t.Run("login", func(t *testing.T) {
		got, err := svc.Login(ctx, "ADA@example.org", strongPassword)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = svc.Login(ctx, "ada@example.org", "wrong")
		assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
		_, err = svc.Login(ctx, "nobody@example.org", strongPassword)
		assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
	})

	t.Run("confirm email", func(t *testing.T) {
		verified, err := svc.ConfirmEmail(ctx, user.VerificationToken)
		require.NoError(t, err)
		assert.True(t, verified.EmailVerified())

		_, err = svc.ConfirmEmail(ctx, user.VerificationToken)
		assertNotFound(t, err)
	})
}

func TestUserService_UpdateOwnProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStack(t, nil)
	ed, _, gu := s.cast(t)

	_, err := s.users.UpdateOwnProfile(ctx, ed, UpdateProfileInput{})
	assertDenied(t, err)

	name := "Renamed Guest"
	password := "Another-Strong-Pass1"
	updated, err := s.users.UpdateOwnProfile(ctx, gu, UpdateProfileInput{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, err = s.users.Login(ctx, updated.Email, password)
	require.NoError(t, err)

	short := "short"
	_, err = s.users.UpdateOwnProfile(ctx, gu, UpdateProfileInput{Password: &short})
	assertValidationError(t, err)
}

func TestUserService_AssignRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStack(t, nil)
	ed, ad, gu := s.cast(t)

	t.Run("only moderators", func(t *testing.T) {
		_, err := s.users.AssignRole(ctx, ed, gu.ID, "editor")
		assertDenied(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := s.users.AssignRole(ctx, ad, gu.ID, "superuser")
		assertValidationError(t, err)
		assert.Contains(t, fieldErrors(t, err), "role")
	})

	t.Run("unverified cannot become staff", func(t *testing.T) {
		_, err := s.users.AssignRole(ctx, ad, gu.ID, "editor")
		assertValidationError(t, err)

		u, err := s.users.Me(ctx, gu)
		require.NoError(t, err)
		assert.Equal(t, models.RoleNameGuest, u.Role)
		assert.False(t, u.EmailVerified())
	})

	t.Run("verified guest promoted", func(t *testing.T) {
		_, err := s.users.VerifyEmail(ctx, ad, gu.ID)
		require.NoError(t, err)
		u, err := s.users.AssignRole(ctx, ad, gu.ID, "Editor")
		require.NoError(t, err)
		assert.Equal(t, models.RoleNameEditor, u.Role)

		staff, err := s.users.ListStaff(ctx, ad)
		require.NoError(t, err)
		assert.Len(t, staff, 3)
	})

	t.Run("admin cannot demote self", func(t *testing.T) {
		_, err := s.users.AssignRole(ctx, ad, ad.ID, "guest")
		assertValidationError(t, err)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.users.AssignRole(ctx, ad, 4242, "guest")
		assertNotFound(t, err)
	})
}

func TestUserService_ListAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStack(t, nil)
	ed, ad, gu := s.cast(t)

	page, err := s.users.List(ctx, ad, ListUsersInput{Role: "guest"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	_, err = s.users.List(ctx, ad, ListUsersInput{Role: "none"})
	assertValidationError(t, err)

	story, err := s.stories.Create(ctx, ed, ContentInput{Title: "Kept", Body: "Survives its author"})
	require.NoError(t, err)
	_, err = s.interactions.ToggleLike(ctx, ed, ToggleLikeInput{Kind: models.ContentKindStory, ItemID: story.ID})
	require.NoError(t, err)

	assertDenied(t, s.users.DeleteUser(ctx, gu, ed.ID))
	assertValidationError(t, s.users.DeleteUser(ctx, ad, ad.ID))
	require.NoError(t, s.users.DeleteUser(ctx, ad, ed.ID))

	kept, err := s.stories.Show(ctx, access.Anonymous, story.ID)
	require.NoError(t, err)
	assert.Nil(t, kept.AuthorID)
	assert.Zero(t, kept.LikesCount)

	assertNotFound(t, s.users.DeleteUser(ctx, ad, ed.ID))
}
