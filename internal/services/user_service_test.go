package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
)

func TestUserServiceRegisterSealsSignature(t *testing.T) {
	h := newHarness(t)
	svc := h.users(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterUserInput{
		Email:     "Abebe@Example.com",
		Phone:     "0911223344",
		Name:      "Abebe",
		Signature: sigHello,
	})
	require.NoError(t, err)
	require.Equal(t, "abebe@example.com", user.Email)
	require.Equal(t, "251911223344", user.Phone)
	require.True(t, user.IsActive)
	require.NotEqual(t, sigHello, user.Signature)

	opened, err := h.sealer.Open(user.Signature)
	require.NoError(t, err)
	require.Equal(t, sigHello, opened)

	_, err = svc.Register(ctx, RegisterUserInput{
		Email:     "abebe@example.com",
		Phone:     "0911000000",
		Signature: sigHello,
	})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(ctx, RegisterUserInput{
		Email:     "other@example.com",
		Phone:     "+251 911 223 344",
		Signature: sigHello,
	})
	require.ErrorIs(t, err, ErrPhoneTaken)

	_, err = svc.Register(ctx, RegisterUserInput{
		Email:     "bad@example.com",
		Phone:     "0911556677",
		Signature: "not-an-image",
	})
	require.True(t, apperrors.IsValidation(err))
}

func TestNormalisePhone(t *testing.T) {
	cases := map[string]string{
		"0911223344":     "251911223344",
		"911223344":      "251911223344",
		"251911223344":   "251911223344",
		"+251-911-22334": "25191122334",
	}
	for input, want := range cases {
		got, err := NormalisePhone(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}

	_, err := NormalisePhone("1234")
	require.True(t, apperrors.IsValidation(err))
}

func TestUserServiceBanLifecycle(t *testing.T) {
	h := newHarness(t)
	svc := h.users(t)
	ctx := context.Background()

	staff := h.staff(t)
	target := h.user(t, nil)

	banned, err := svc.Ban(ctx, staff.ID, target.ID)
	require.NoError(t, err)
	require.False(t, banned.IsActive)
	require.Equal(t, staff.ID, *banned.Banned.By)
	require.True(t, h.now.Equal(*banned.Banned.At))

	_, err = svc.Ban(ctx, staff.ID, target.Email)
	require.ErrorIs(t, err, ErrUserAlreadyBanned)

	// A banned actor is refused before any permission evaluation.
	_, err = svc.Ban(ctx, target.ID, staff.ID)
	require.ErrorIs(t, err, ErrActorBanned)
	require.True(t, apperrors.IsForbidden(err))

	unbanned, err := svc.Unban(ctx, staff.ID, target.ID)
	require.NoError(t, err)
	require.True(t, unbanned.IsActive)
	require.True(t, unbanned.Banned.IsSet(), "ban stamp is history and survives unban")
	require.True(t, unbanned.Unbanned.IsSet())

	_, err = svc.Unban(ctx, staff.ID, target.ID)
	require.ErrorIs(t, err, ErrUserNotBanned)
}

func TestUserServiceBanRequiresStaff(t *testing.T) {
	h := newHarness(t)
	svc := h.users(t)

	actor := h.user(t, nil)
	target := h.user(t, nil)

	_, err := svc.Ban(context.Background(), actor.ID, target.ID)
	require.True(t, apperrors.IsForbidden(err))

	_, err = svc.Ban(context.Background(), "", target.ID)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUserServiceProtectsSuperusers(t *testing.T) {
	h := newHarness(t)
	svc := h.users(t)

	staff := h.staff(t)
	root := h.user(t, func(u *models.User) { u.IsSuperuser = true })

	_, err := svc.Ban(context.Background(), staff.ID, root.ID)
	require.ErrorIs(t, err, ErrProtectedAccount)
}

func TestUserServiceAssignStaffToBannedUserConflicts(t *testing.T) {
	h := newHarness(t)
	svc := h.users(t)

	granter := h.user(t, func(u *models.User) {
		u.IsStaff = true
		u.CanAddStaff = true
	})
	banned := h.user(t, func(u *models.User) { u.IsActive = false })

	_, err := svc.AssignStaff(context.Background(), granter.ID, banned.ID)
	require.ErrorIs(t, err, ErrUserBanned)
	require.True(t, apperrors.IsConflict(err))
	require.Equal(t, "User is banned.", err.Error())
}

func TestUserServiceBannedUserTargetingSelfConflicts(t *testing.T) {
	h := newHarness(t)
	svc := h.users(t)
	ctx := context.Background()

	banned := h.user(t, func(u *models.User) {
		u.IsActive = false
		u.IsStaff = true
		u.CanAddStaff = true
		u.CanRevokeStaff = true
	})

	_, err := svc.AssignStaff(ctx, banned.ID, banned.ID)
	require.ErrorIs(t, err, ErrUserBanned)
	require.True(t, apperrors.IsConflict(err))
	require.Equal(t, "User is banned.", err.Error())

	_, err = svc.RevokeOrganizationCreator(ctx, banned.ID, banned.Email)
	require.ErrorIs(t, err, ErrUserBanned)

	// Without authority over anyone the answer is still the target's ban.
	outsider := h.user(t, nil)
	_, err = svc.AssignOrganizationCreator(ctx, outsider.ID, banned.ID)
	require.ErrorIs(t, err, ErrUserBanned)

	// Acting on someone else while banned stays Forbidden.
	_, err = svc.AssignStaff(ctx, banned.ID, outsider.ID)
	require.ErrorIs(t, err, ErrActorBanned)
	require.True(t, apperrors.IsForbidden(err))
}

func TestUserServiceStaffFlagsAreFinal(t *testing.T) {
	h := newHarness(t)
	svc := h.users(t)
	ctx := context.Background()

	plainStaff := h.staff(t)
	granter := h.user(t, func(u *models.User) {
		u.IsStaff = true
		u.CanAddStaff = true
		u.CanRevokeStaff = true
	})
	target := h.user(t, nil)

	_, err := svc.AssignStaff(ctx, plainStaff.ID, target.ID)
	require.True(t, apperrors.IsForbidden(err), "staff without can_add_staff cannot grant staff")

	promoted, err := svc.AssignStaff(ctx, granter.ID, target.ID)
	require.NoError(t, err)
	require.True(t, promoted.IsStaff)

	_, err = svc.AssignStaff(ctx, granter.ID, target.ID)
	require.ErrorIs(t, err, ErrStaffAlreadyGranted)

	demoted, err := svc.RevokeStaff(ctx, granter.ID, target.ID)
	require.NoError(t, err)
	require.False(t, demoted.IsStaff)
	require.True(t, demoted.StaffGranted.IsSet())

	_, err = svc.RevokeStaff(ctx, granter.ID, target.ID)
	require.ErrorIs(t, err, ErrStaffAlreadyRevoked)

	_, err = svc.AssignStaff(ctx, granter.ID, target.ID)
	require.ErrorIs(t, err, ErrStaffRevokedBefore)
}

func TestUserServiceOrganizationCreatorFlag(t *testing.T) {
	h := newHarness(t)
	svc := h.users(t)
	ctx := context.Background()

	staff := h.staff(t)
	target := h.user(t, nil)

	_, err := svc.RevokeOrganizationCreator(ctx, staff.ID, target.ID)
	require.ErrorIs(t, err, ErrUserNotOrganizationCreator)

	granted, err := svc.AssignOrganizationCreator(ctx, staff.ID, target.ID)
	require.NoError(t, err)
	require.True(t, granted.CanCreateOrganizations)

	revoked, err := svc.RevokeOrganizationCreator(ctx, staff.ID, target.ID)
	require.NoError(t, err)
	require.False(t, revoked.CanCreateOrganizations)

	_, err = svc.AssignOrganizationCreator(ctx, staff.ID, target.ID)
	require.ErrorIs(t, err, ErrOrganizationCreatorRevokedBefore)
}

func TestUserServiceListFiltersAndPaginates(t *testing.T) {
	h := newHarness(t)
	svc := h.users(t)

	staff := h.staff(t)
	for i := 0; i < 3; i++ {
		h.user(t, nil)
	}
	h.user(t, func(u *models.User) { u.IsActive = false })

	active := true
	users, total, err := svc.List(context.Background(), staff.ID, ListUsersOptions{
		Pagination: Pagination{Page: 1, PerPage: 2},
		Filters:    UserFilters{IsActive: &active},
	})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Len(t, users, 2)

	outsider := h.user(t, nil)
	_, _, err = svc.List(context.Background(), outsider.ID, ListUsersOptions{})
	require.True(t, apperrors.IsForbidden(err))
}
