package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
	apperrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
)

func TestProgramServiceCreate(t *testing.T) {
	h := newHarness(t)
	svc := h.programs(t)
	orgs := h.organizations(t)
	ctx := context.Background()

	creator := h.user(t, nil)
	org := h.organization(t, creator)

	program, err := svc.Create(ctx, creator.ID, org.Code, CreateProgramInput{Name: "  Evening classes "})
	require.NoError(t, err)
	require.Equal(t, "Evening classes", program.Name)
	require.True(t, program.IsActive)
	require.Equal(t, org.ID, program.OrganizationID)

	planner := h.user(t, nil)
	h.organizationGrant(t, planner, org, models.OrganizationCapabilities{CanCreatePrograms: true})
	_, err = svc.Create(ctx, planner.ID, org.Code, CreateProgramInput{Name: "Weekend"})
	require.NoError(t, err)

	viewer := h.user(t, nil)
	h.organizationGrant(t, viewer, org, models.OrganizationCapabilities{})
	_, err = svc.Create(ctx, viewer.ID, org.Code, CreateProgramInput{Name: "Nope"})
	require.True(t, apperrors.IsForbidden(err))

	_, err = svc.Create(ctx, creator.ID, "missing-org", CreateProgramInput{Name: "Nope"})
	require.ErrorIs(t, err, ErrOrganizationNotFound)

	_, err = svc.Create(ctx, creator.ID, org.Code, CreateProgramInput{Name: " "})
	require.True(t, apperrors.IsValidation(err))

	_, err = orgs.Archive(ctx, creator.ID, org.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, creator.ID, org.Code, CreateProgramInput{Name: "Late"})
	require.ErrorIs(t, err, ErrOrganizationBanned)

	programs, err := svc.ListByOrganization(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, programs, 2)
}

func TestProgramServiceArchiveAuthority(t *testing.T) {
	h := newHarness(t)
	svc := h.programs(t)
	ctx := context.Background()

	creator := h.user(t, nil)
	org := h.organization(t, creator)
	program := h.program(t, org, creator)

	organizer := h.user(t, nil)
	h.programGrant(t, organizer, program, models.ProgramCapabilities{CanCreateEvents: true})
	_, err := svc.Archive(ctx, organizer.ID, program.ID)
	require.True(t, apperrors.IsForbidden(err))

	archivist := h.user(t, nil)
	h.programGrant(t, archivist, program, models.ProgramCapabilities{CanArchiveProgram: true})
	archived, err := svc.Archive(ctx, archivist.ID, program.ID)
	require.NoError(t, err)
	require.False(t, archived.IsActive)
	require.Equal(t, archivist.ID, *archived.Archived.By)

	_, err = svc.Archive(ctx, creator.ID, program.ID)
	require.ErrorIs(t, err, ErrProgramAlreadyArchived)

	restored, err := svc.Reactivate(ctx, h.staff(t).ID, program.ID)
	require.NoError(t, err)
	require.True(t, restored.IsActive)
	require.False(t, restored.Archived.IsSet())

	_, err = svc.Reactivate(ctx, creator.ID, program.ID)
	require.ErrorIs(t, err, ErrProgramNotArchived)
}

func TestProgramServiceListAssociated(t *testing.T) {
	h := newHarness(t)
	svc := h.programs(t)
	invites := h.invites(t, DefaultInvitePolicy())
	orgs := h.organizations(t)
	ctx := context.Background()

	host := h.user(t, nil)
	hostOrg := h.organization(t, host)
	program := h.program(t, hostOrg, host)

	guest := h.user(t, nil)
	guestOrg := h.organization(t, guest)

	invite, err := invites.Invite(ctx, host.ID, program.ID, guestOrg.Code)
	require.NoError(t, err)
	_, err = invites.Accept(ctx, guest.ID, invite.ID)
	require.NoError(t, err)

	associated, err := svc.ListAssociated(ctx, guestOrg.ID)
	require.NoError(t, err)
	require.Len(t, associated, 1)
	require.Equal(t, program.ID, associated[0].ID)

	_, err = orgs.Archive(ctx, guest.ID, guestOrg.ID)
	require.NoError(t, err)
	_, err = svc.ListAssociated(ctx, guestOrg.ID)
	require.ErrorIs(t, err, ErrOrganizationBanned)
}
