package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
)

type inviteFixture struct {
	h        *harness
	svc      *InviteService
	host     *models.User
	hostOrg  *models.Organization
	program  *models.Program
	guest    *models.User
	guestOrg *models.Organization
}

func newInviteFixture(t *testing.T, policy InvitePolicy) *inviteFixture {
	t.Helper()
	h := newHarness(t)
	host := h.user(t, nil)
	hostOrg := h.organization(t, host)
	guest := h.user(t, nil)
	return &inviteFixture{
		h:        h,
		svc:      h.invites(t, policy),
		host:     host,
		hostOrg:  hostOrg,
		program:  h.program(t, hostOrg, host),
		guest:    guest,
		guestOrg: h.organization(t, guest),
	}
}

func (f *inviteFixture) memberships(t *testing.T) []models.InvitedOrganizationProgram {
	t.Helper()
	var rows []models.InvitedOrganizationProgram
	require.NoError(t, f.h.db.Where("program_id = ?", f.program.ID).Find(&rows).Error)
	return rows
}

func TestInviteAcceptTwiceConflicts(t *testing.T) {
	f := newInviteFixture(t, DefaultInvitePolicy())
	ctx := context.Background()

	invite, err := f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
	require.NoError(t, err)
	require.True(t, invite.IsActive)

	_, err = f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
	require.ErrorIs(t, err, ErrOrganizationAlreadyInvited)

	accepted, err := f.svc.Accept(ctx, f.guest.ID, invite.ID)
	require.NoError(t, err)
	require.Equal(t, f.guest.ID, *accepted.Accepted.By)

	rows := f.memberships(t)
	require.Len(t, rows, 1)
	require.True(t, rows[0].IsActive)
	require.Equal(t, invite.ID, rows[0].InviteID)

	_, err = f.svc.Accept(ctx, f.guest.ID, invite.ID)
	require.ErrorIs(t, err, ErrInviteAlreadyAccepted)
	require.True(t, apperrors.IsConflict(err))
	require.Len(t, f.memberships(t), 1)

	_, err = f.svc.Reject(ctx, f.guest.ID, invite.ID)
	require.ErrorIs(t, err, ErrInviteAlreadyAccepted)
}

func TestInviteAcceptAfterUndoConflicts(t *testing.T) {
	f := newInviteFixture(t, DefaultInvitePolicy())
	ctx := context.Background()

	invite, err := f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
	require.NoError(t, err)

	undone, err := f.svc.Undo(ctx, f.host.ID, invite.ID)
	require.NoError(t, err)
	require.False(t, undone.IsActive)
	require.Equal(t, f.host.ID, *undone.Removed.By)

	_, err = f.svc.Accept(ctx, f.guest.ID, invite.ID)
	require.ErrorIs(t, err, ErrInviteUndone)

	_, err = f.svc.Undo(ctx, f.host.ID, invite.ID)
	require.ErrorIs(t, err, ErrInviteAlreadyUndone)

	_, err = f.svc.Reject(ctx, f.guest.ID, invite.ID)
	require.ErrorIs(t, err, ErrInviteUndone)

	again, err := f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
	require.NoError(t, err, "an undone invite no longer blocks a new one")
	require.NotEqual(t, invite.ID, again.ID)
}

func TestInviteUndoCascadesToMembership(t *testing.T) {
	f := newInviteFixture(t, DefaultInvitePolicy())
	ctx := context.Background()

	invite, err := f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, f.guest.ID, invite.ID)
	require.NoError(t, err)

	_, err = f.svc.Undo(ctx, f.host.ID, invite.ID)
	require.NoError(t, err)

	rows := f.memberships(t)
	require.Len(t, rows, 1)
	require.False(t, rows[0].IsActive)
	require.Equal(t, f.host.ID, *rows[0].Removed.By)
	require.True(t, rows[0].Accepted.IsSet())
}

func TestInviteRejectCascades(t *testing.T) {
	f := newInviteFixture(t, DefaultInvitePolicy())
	ctx := context.Background()

	invite, err := f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, f.guest.ID, invite.ID)
	require.NoError(t, err)
	require.Equal(t, f.guest.ID, *rejected.Rejected.By)

	_, err = f.svc.Reject(ctx, f.guest.ID, invite.ID)
	require.ErrorIs(t, err, ErrInviteAlreadyRejected)
	_, err = f.svc.Accept(ctx, f.guest.ID, invite.ID)
	require.ErrorIs(t, err, ErrInviteAlreadyRejected)
	require.Empty(t, f.memberships(t))
}

func TestInviteAuthority(t *testing.T) {
	f := newInviteFixture(t, DefaultInvitePolicy())
	ctx := context.Background()

	_, err := f.svc.Invite(ctx, f.guest.ID, f.program.ID, f.guestOrg.Code)
	require.True(t, apperrors.IsForbidden(err), "only the program's organization invites")

	planner := f.h.user(t, nil)
	f.h.organizationGrant(t, planner, f.hostOrg, models.OrganizationCapabilities{CanCreatePrograms: true})
	invite, err := f.svc.Invite(ctx, planner.ID, f.program.ID, f.guestOrg.Code)
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, f.host.ID, invite.ID)
	require.True(t, apperrors.IsForbidden(err), "only the invited organization accepts")

	guestAdmin := f.h.user(t, nil)
	f.h.organizationGrant(t, guestAdmin, f.guestOrg, models.OrganizationCapabilities{})
	_, err = f.svc.Accept(ctx, guestAdmin.ID, invite.ID)
	require.True(t, apperrors.IsForbidden(err))

	guestPlanner := f.h.user(t, nil)
	f.h.organizationGrant(t, guestPlanner, f.guestOrg, models.OrganizationCapabilities{CanCreatePrograms: true})
	_, err = f.svc.Accept(ctx, guestPlanner.ID, invite.ID)
	require.NoError(t, err)

	_, err = f.svc.Invite(ctx, f.host.ID, f.program.ID, "no-such-org")
	require.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestInviteRefusesArchivedScopes(t *testing.T) {
	f := newInviteFixture(t, DefaultInvitePolicy())
	programs := f.h.programs(t)
	orgs := f.h.organizations(t)
	ctx := context.Background()

	third := f.h.user(t, nil)
	thirdOrg := f.h.organization(t, third)
	_, err := orgs.Archive(ctx, third.ID, thirdOrg.ID)
	require.NoError(t, err)
	_, err = f.svc.Invite(ctx, f.host.ID, f.program.ID, thirdOrg.Code)
	require.ErrorIs(t, err, ErrOrganizationArchived)

	_, err = programs.Archive(ctx, f.host.ID, f.program.ID)
	require.NoError(t, err)
	_, err = f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
	require.ErrorIs(t, err, ErrProgramArchived)
}

func TestInviteSingleMembershipPolicy(t *testing.T) {
	for _, tc := range []struct {
		name       string
		policy     InvitePolicy
		secondFail bool
	}{
		{name: "single", policy: InvitePolicy{SingleMembershipPerProgram: true}, secondFail: true},
		{name: "many", policy: InvitePolicy{SingleMembershipPerProgram: false}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newInviteFixture(t, tc.policy)
			ctx := context.Background()

			other := f.h.user(t, nil)
			otherOrg := f.h.organization(t, other)

			first, err := f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
			require.NoError(t, err)
			second, err := f.svc.Invite(ctx, f.host.ID, f.program.ID, otherOrg.Code)
			require.NoError(t, err)

			_, err = f.svc.Accept(ctx, f.guest.ID, first.ID)
			require.NoError(t, err)

			_, err = f.svc.Accept(ctx, other.ID, second.ID)
			if tc.secondFail {
				require.ErrorIs(t, err, ErrOrganizationAlreadyMember)
				require.Len(t, f.memberships(t), 1)
				return
			}
			require.NoError(t, err)
			require.Len(t, f.memberships(t), 2)
		})
	}
}

func TestMembershipLeave(t *testing.T) {
	f := newInviteFixture(t, DefaultInvitePolicy())
	ctx := context.Background()

	invite, err := f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, f.guest.ID, invite.ID)
	require.NoError(t, err)

	memberships, err := f.svc.ListMemberships(ctx, f.guest.ID, f.guestOrg.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	membership := memberships[0]

	_, err = f.svc.Leave(ctx, f.host.ID, membership.ID)
	require.True(t, apperrors.IsForbidden(err))

	guestAdmin := f.h.user(t, nil)
	f.h.organizationGrant(t, guestAdmin, f.guestOrg, models.OrganizationCapabilities{})
	left, err := f.svc.Leave(ctx, guestAdmin.ID, membership.ID)
	require.NoError(t, err)
	require.False(t, left.IsActive)
	require.Equal(t, guestAdmin.ID, *left.Removed.By)

	_, err = f.svc.Leave(ctx, f.guest.ID, membership.ID)
	require.ErrorIs(t, err, ErrMembershipAlreadyLeft)

	stored, err := f.svc.Get(ctx, invite.ID)
	require.NoError(t, err)
	require.True(t, stored.IsActive, "leaving does not touch the invite")

	received, err := f.svc.ListByOrganization(ctx, f.guest.ID, f.guestOrg.ID)
	require.NoError(t, err)
	require.Len(t, received, 1)

	sent, err := f.svc.ListByProgram(ctx, f.host.ID, f.program.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
}

func TestInviteWritesClaimProgramRow(t *testing.T) {
	f := newInviteFixture(t, DefaultInvitePolicy())
	ctx := context.Background()

	programVersion := func() int64 {
		var p models.Program
		require.NoError(t, f.h.db.Take(&p, "id = ?", f.program.ID).Error)
		return p.Version
	}
	start := programVersion()

	invite, err := f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
	require.NoError(t, err)
	require.Equal(t, start+1, programVersion())

	_, err = f.svc.Accept(ctx, f.guest.ID, invite.ID)
	require.NoError(t, err)
	require.Equal(t, start+2, programVersion())

	_, err = f.svc.Invite(ctx, f.host.ID, f.program.ID, f.guestOrg.Code)
	require.ErrorIs(t, err, ErrOrganizationAlreadyInvited)
	require.Equal(t, start+2, programVersion(), "a refused invite rolls its claim back")
}

func TestClaimProgramFailsWhenAnotherWriterCommitsFirst(t *testing.T) {
	f := newInviteFixture(t, DefaultInvitePolicy())

	interleaved := false
	callbacks := f.h.db.Callback().Query()
	require.NoError(t, callbacks.After("gorm:query").Register("interleave_program_write", func(db *gorm.DB) {
		if interleaved || db.Statement.Table != "programs" {
			return
		}
		interleaved = true
		db.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE programs SET version = version + 1 WHERE id = ?", f.program.ID)
	}))
	t.Cleanup(func() { _ = callbacks.Remove("interleave_program_write") })

	err := f.h.db.Transaction(func(tx *gorm.DB) error {
		return claimProgram(tx, f.program.ID)
	})
	require.True(t, interleaved)
	require.ErrorIs(t, err, apperrors.ErrConcurrentUpdate)
	require.True(t, apperrors.IsConflict(err))
}
