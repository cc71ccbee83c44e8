package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/handlers/testutil"
	"github.com/Natan-Asrat/digital-attendance-backend/internal/models"
)

type idPayload struct {
	ID        string `json:"id"`
	ShortCode string `json:"short_code"`
	IsActive  bool   `json:"is_active"`
	Valid     bool   `json:"valid"`
}

func canCreateOrganizations(u *models.User) { u.CanCreateOrganizations = true }

func mustCreate(t *testing.T, env *testutil.Env, path string, body any, token string) idPayload {
	t.Helper()
	w := env.Request(http.MethodPost, path, body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out idPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &out)
	require.NotEmpty(t, out.ID)
	return out
}

func TestOrganizationHandler_CreateRequiresCreatorFlag(t *testing.T) {
	env := testutil.NewEnv(t)
	member := env.Register(nil)

	w := env.Request(http.MethodPost, "/api/v1/organizations", map[string]string{
		"code": "acme",
		"name": "Acme",
	}, env.Token(member.ID))
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	require.Equal(t, "FORBIDDEN", testutil.DecodeResponse(t, w).Error.Code)
}

func TestOrganizationHandler_Lifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Register(canCreateOrganizations)
	token := env.Token(creator.ID)

	org := mustCreate(t, env, "/api/v1/organizations", map[string]string{"code": "acme", "name": "Acme"}, token)
	require.True(t, org.IsActive)

	dup := env.Request(http.MethodPost, "/api/v1/organizations", map[string]string{"code": "acme", "name": "Other"}, token)
	require.Equal(t, http.StatusConflict, dup.Code, dup.Body.String())

	archive := env.Request(http.MethodPost, "/api/v1/organizations/"+org.ID+"/archive", nil, token)
	require.Equal(t, http.StatusOK, archive.Code, archive.Body.String())

	again := env.Request(http.MethodPost, "/api/v1/organizations/"+org.ID+"/archive", nil, token)
	require.Equal(t, http.StatusConflict, again.Code, again.Body.String())

	list := env.Request(http.MethodGet, "/api/v1/organizations?status=archived", nil, token)
	require.Equal(t, http.StatusOK, list.Code, list.Body.String())
	var archived []idPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &archived)
	require.Len(t, archived, 1)
	require.Equal(t, org.ID, archived[0].ID)

	reactivate := env.Request(http.MethodPost, "/api/v1/organizations/"+org.ID+"/reactivate", nil, token)
	require.Equal(t, http.StatusOK, reactivate.Code, reactivate.Body.String())
}

func TestEventHandler_LookupAndCheckIn(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Register(canCreateOrganizations)
	attendee := env.Register(nil)
	creatorToken := env.Token(creator.ID)
	attendeeToken := env.Token(attendee.ID)

	mustCreate(t, env, "/api/v1/organizations", map[string]string{"code": "acme", "name": "Acme"}, creatorToken)
	program := mustCreate(t, env, "/api/v1/programs", map[string]string{"organization_code": "acme", "name": "Weekly"}, creatorToken)
	event := mustCreate(t, env, "/api/v1/programs/"+program.ID+"/events", map[string]string{"title": "Kickoff"}, creatorToken)
	require.Len(t, event.ShortCode, models.ShortCodeLength)

	lookup := env.Request(http.MethodPost, "/api/v1/events/lookup", map[string]string{"short_code": event.ShortCode}, "")
	require.Equal(t, http.StatusOK, lookup.Code, lookup.Body.String())
	var found idPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, lookup).Data, &found)
	require.Equal(t, event.ID, found.ID)

	missing := env.Request(http.MethodPost, "/api/v1/events/lookup", map[string]string{"short_code": "zzzzzzzz"}, "")
	require.Equal(t, http.StatusNotFound, missing.Code)

	mismatch := env.Request(http.MethodPost, "/api/v1/events/"+event.ID+"/check-in", map[string]string{"signature": testutil.SignatureWorld}, attendeeToken)
	require.Equal(t, http.StatusUnprocessableEntity, mismatch.Code, mismatch.Body.String())

	attendance := mustCreate(t, env, "/api/v1/events/"+event.ID+"/check-in", map[string]string{"signature": testutil.SignatureHello}, attendeeToken)
	require.True(t, attendance.Valid)

	duplicate := env.Request(http.MethodPost, "/api/v1/events/"+event.ID+"/check-in", map[string]string{"signature": testutil.SignatureHello}, attendeeToken)
	require.Equal(t, http.StatusConflict, duplicate.Code, duplicate.Body.String())

	list := env.Request(http.MethodGet, "/api/v1/events/"+event.ID+"/attendances", nil, creatorToken)
	require.Equal(t, http.StatusOK, list.Code, list.Body.String())
	var rows []idPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &rows)
	require.Len(t, rows, 1)

	invalidate := env.Request(http.MethodPost, "/api/v1/attendances/"+attendance.ID+"/invalidate", nil, creatorToken)
	require.Equal(t, http.StatusOK, invalidate.Code, invalidate.Body.String())
	var updated idPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, invalidate).Data, &updated)
	require.False(t, updated.Valid)

	denied := env.Request(http.MethodPost, "/api/v1/attendances/"+attendance.ID+"/revalidate", nil, attendeeToken)
	require.Equal(t, http.StatusForbidden, denied.Code, denied.Body.String())

	mine := env.Request(http.MethodGet, "/api/v1/me/attendances", nil, attendeeToken)
	require.Equal(t, http.StatusOK, mine.Code, mine.Body.String())
	var own []idPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, mine).Data, &own)
	require.Len(t, own, 1)
}

func TestInviteHandler_AcceptCreatesMembership(t *testing.T) {
	env := testutil.NewEnv(t)
	host := env.Register(canCreateOrganizations)
	guest := env.Register(canCreateOrganizations)
	hostToken := env.Token(host.ID)
	guestToken := env.Token(guest.ID)

	mustCreate(t, env, "/api/v1/organizations", map[string]string{"code": "host", "name": "Host"}, hostToken)
	guestOrg := mustCreate(t, env, "/api/v1/organizations", map[string]string{"code": "guest", "name": "Guest"}, guestToken)
	program := mustCreate(t, env, "/api/v1/programs", map[string]string{"organization_code": "host", "name": "Summit"}, hostToken)

	invite := mustCreate(t, env, "/api/v1/programs/"+program.ID+"/invites", map[string]string{"organization_code": "guest"}, hostToken)

	forbidden := env.Request(http.MethodPost, "/api/v1/invites/"+invite.ID+"/accept", nil, hostToken)
	require.Equal(t, http.StatusForbidden, forbidden.Code, forbidden.Body.String())

	accept := env.Request(http.MethodPost, "/api/v1/invites/"+invite.ID+"/accept", nil, guestToken)
	require.Equal(t, http.StatusOK, accept.Code, accept.Body.String())

	memberships := env.Request(http.MethodGet, "/api/v1/organizations/"+guestOrg.ID+"/memberships", nil, guestToken)
	require.Equal(t, http.StatusOK, memberships.Code, memberships.Body.String())
	var rows []idPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, memberships).Data, &rows)
	require.Len(t, rows, 1)
	require.True(t, rows[0].IsActive)

	associated := env.Request(http.MethodGet, "/api/v1/organizations/"+guestOrg.ID+"/associated-programs", nil, guestToken)
	require.Equal(t, http.StatusOK, associated.Code, associated.Body.String())
	var programs []idPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, associated).Data, &programs)
	require.Len(t, programs, 1)
	require.Equal(t, program.ID, programs[0].ID)

	leave := env.Request(http.MethodPost, "/api/v1/memberships/"+rows[0].ID+"/leave", nil, guestToken)
	require.Equal(t, http.StatusOK, leave.Code, leave.Body.String())
}

func TestProgramHandler_Subscriptions(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Register(canCreateOrganizations)
	fan := env.Register(nil)
	creatorToken := env.Token(creator.ID)
	fanToken := env.Token(fan.ID)

	mustCreate(t, env, "/api/v1/organizations", map[string]string{"code": "acme", "name": "Acme"}, creatorToken)
	program := mustCreate(t, env, "/api/v1/programs", map[string]string{"organization_code": "acme", "name": "Weekly"}, creatorToken)

	sub := env.Request(http.MethodPost, "/api/v1/programs/"+program.ID+"/subscription", nil, fanToken)
	require.Equal(t, http.StatusOK, sub.Code, sub.Body.String())

	subscribers := env.Request(http.MethodGet, "/api/v1/programs/"+program.ID+"/subscribers", nil, creatorToken)
	require.Equal(t, http.StatusOK, subscribers.Code, subscribers.Body.String())

	mine := env.Request(http.MethodGet, "/api/v1/me/subscriptions", nil, fanToken)
	require.Equal(t, http.StatusOK, mine.Code, mine.Body.String())
	var rows []idPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, mine).Data, &rows)
	require.Len(t, rows, 1)

	unsub := env.Request(http.MethodDelete, "/api/v1/programs/"+program.ID+"/subscription", nil, fanToken)
	require.Equal(t, http.StatusOK, unsub.Code, unsub.Body.String())
}
