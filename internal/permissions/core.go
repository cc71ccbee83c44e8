package permissions

// Registered actions.
const (
	UserList                      Action = "user.list"
	UserBan                       Action = "user.ban"
	UserUnban                     Action = "user.unban"
	UserAssignStaff               Action = "user.assign_staff"
	UserRevokeStaff               Action = "user.revoke_staff"
	UserAssignOrganizationCreator Action = "user.assign_organization_creator"
	UserRevokeOrganizationCreator Action = "user.revoke_organization_creator"
	UserListOrganizations         Action = "user.list_organizations"
	UserViewRoles                 Action = "user.view_roles"

	OrganizationCreate     Action = "organization.create"
	OrganizationView       Action = "organization.view"
	OrganizationArchive    Action = "organization.archive"
	OrganizationReactivate Action = "organization.reactivate"

	OrganizationAdminAssign    Action = "organization_admin.assign"
	OrganizationAdminRevoke    Action = "organization_admin.revoke"
	OrganizationAdminUpdate    Action = "organization_admin.update"
	OrganizationAdminReinstate Action = "organization_admin.reinstate"
	OrganizationAdminList      Action = "organization_admin.list"

	ProgramCreate             Action = "program.create"
	ProgramArchive            Action = "program.archive"
	ProgramReactivate         Action = "program.reactivate"
	ProgramInviteOrganization Action = "program.invite_organization"
	ProgramSubscribe          Action = "program.subscribe"
	ProgramListSubscribers    Action = "program.list_subscribers"

	InviteAccept    Action = "invite.accept"
	InviteReject    Action = "invite.reject"
	InviteUndo      Action = "invite.undo"
	InviteList      Action = "invite.list"
	MembershipLeave Action = "membership.leave"

	ProgramEventAdminAssign    Action = "program_event_admin.assign"
	ProgramEventAdminRevoke    Action = "program_event_admin.revoke"
	ProgramEventAdminUpdate    Action = "program_event_admin.update"
	ProgramEventAdminReinstate Action = "program_event_admin.reinstate"
	ProgramEventAdminList      Action = "program_event_admin.list"

	EventCreate     Action = "event.create"
	EventArchive    Action = "event.archive"
	EventReactivate Action = "event.reactivate"
	EventConclude   Action = "event.conclude"

	AttendanceCheckIn           Action = "attendance.check_in"
	AttendanceList              Action = "attendance.list"
	AttendanceChangeValidity    Action = "attendance.change_validity"
	AttendanceUpdateDisplayName Action = "attendance.update_display_name"

	AuditView Action = "audit.view"
)

func init() {
	rules := []*Rule{
		{Action: UserList, Module: "users", Superuser: true, Staff: true, Description: "List users"},
		{Action: UserBan, Module: "users", Superuser: true, Staff: true, Description: "Ban a user"},
		{Action: UserUnban, Module: "users", Superuser: true, Staff: true, Description: "Lift a user ban"},
		{Action: UserAssignStaff, Module: "users", Superuser: true, Staff: true, StaffRequires: StaffFlagAddStaff, Description: "Grant platform staff"},
		{Action: UserRevokeStaff, Module: "users", Superuser: true, Staff: true, StaffRequires: StaffFlagRevokeStaff, Description: "Revoke platform staff"},
		{Action: UserAssignOrganizationCreator, Module: "users", Superuser: true, Staff: true, Description: "Allow a user to create organizations"},
		{Action: UserRevokeOrganizationCreator, Module: "users", Superuser: true, Staff: true, Description: "Stop a user from creating organizations"},
		{Action: UserListOrganizations, Module: "users", Superuser: true, Staff: true, Description: "List organizations a user administers"},
		{Action: UserViewRoles, Module: "users", Superuser: true, Staff: true, Subject: true, Description: "View a user's delegated roles"},

		{Action: OrganizationCreate, Module: "organizations", OrganizationCreatorFlag: true, Description: "Create organizations"},
		{Action: OrganizationView, Module: "organizations", Superuser: true, Staff: true, Creator: true, AnyOrganizationAdmin: true, Description: "View an organization"},
		{Action: OrganizationArchive, Module: "organizations", Superuser: true, Staff: true, Creator: true, OrganizationCapability: CapArchiveOrganization, Description: "Archive an organization"},
		{Action: OrganizationReactivate, Module: "organizations", Superuser: true, Staff: true, Creator: true, OrganizationCapability: CapArchiveOrganization, Description: "Reactivate an archived organization"},

		{Action: OrganizationAdminAssign, Module: "organizations", Superuser: true, Staff: true, Creator: true, OrganizationCapability: CapAddAnotherAdmin, Description: "Assign an organization admin"},
		{Action: OrganizationAdminRevoke, Module: "organizations", Creator: true, Description: "Revoke an organization admin"},
		{Action: OrganizationAdminUpdate, Module: "organizations", Creator: true, Description: "Change an organization admin's capabilities"},
		{Action: OrganizationAdminReinstate, Module: "organizations", Creator: true, Description: "Reinstate a revoked organization admin"},
		{Action: OrganizationAdminList, Module: "organizations", Superuser: true, Staff: true, Creator: true, AnyOrganizationAdmin: true, Description: "List organization admins"},

		{Action: ProgramCreate, Module: "programs", Creator: true, OrganizationCapability: CapCreatePrograms, Description: "Create programs"},
		{Action: ProgramArchive, Module: "programs", Superuser: true, Staff: true, Creator: true, OrganizationCapability: CapCreatePrograms, ProgramCapability: CapArchiveProgram, Description: "Archive a program"},
		{Action: ProgramReactivate, Module: "programs", Superuser: true, Staff: true, Creator: true, OrganizationCapability: CapCreatePrograms, ProgramCapability: CapArchiveProgram, Description: "Reactivate an archived program"},
		{Action: ProgramInviteOrganization, Module: "programs", Creator: true, OrganizationCapability: CapCreatePrograms, Description: "Invite an organization into a program"},
		{Action: ProgramSubscribe, Module: "programs", Anyone: true, Description: "Subscribe to a program"},
		{Action: ProgramListSubscribers, Module: "programs", Superuser: true, Staff: true, Creator: true, AnyOrganizationAdmin: true, AnyProgramAdmin: true, Description: "List program subscribers"},

		{Action: InviteAccept, Module: "invites", Creator: true, OrganizationCapability: CapCreatePrograms, Description: "Accept a program invite"},
		{Action: InviteReject, Module: "invites", Creator: true, OrganizationCapability: CapCreatePrograms, Description: "Reject a program invite"},
		{Action: InviteUndo, Module: "invites", Creator: true, OrganizationCapability: CapCreatePrograms, Description: "Withdraw a program invite"},
		{Action: InviteList, Module: "invites", Superuser: true, Staff: true, Creator: true, AnyOrganizationAdmin: true, Description: "List invites and memberships"},
		{Action: MembershipLeave, Module: "invites", Creator: true, AnyOrganizationAdmin: true, Description: "Leave a program membership"},

		{Action: ProgramEventAdminAssign, Module: "programs", Creator: true, AnyOrganizationAdmin: true, ProgramCapability: CapAddAnotherAdmin, Description: "Assign a program event admin"},
		{Action: ProgramEventAdminRevoke, Module: "programs", Creator: true, AnyOrganizationAdmin: true, ProgramCapability: CapAddAnotherAdmin, Description: "Revoke a program event admin"},
		{Action: ProgramEventAdminUpdate, Module: "programs", Creator: true, AnyOrganizationAdmin: true, ProgramCapability: CapAddAnotherAdmin, Description: "Change a program event admin's capabilities"},
		{Action: ProgramEventAdminReinstate, Module: "programs", Creator: true, AnyOrganizationAdmin: true, ProgramCapability: CapAddAnotherAdmin, Description: "Reinstate a revoked program event admin"},
		{Action: ProgramEventAdminList, Module: "programs", Superuser: true, Staff: true, Creator: true, AnyOrganizationAdmin: true, AnyProgramAdmin: true, Description: "List program event admins"},

		{Action: EventCreate, Module: "events", Creator: true, AnyOrganizationAdmin: true, ProgramCapability: CapCreateEvents, Description: "Create events"},
		{Action: EventArchive, Module: "events", Creator: true, AnyOrganizationAdmin: true, ProgramCapability: CapArchiveEvent, Description: "Archive an event"},
		{Action: EventReactivate, Module: "events", Creator: true, AnyOrganizationAdmin: true, ProgramCapability: CapArchiveEvent, Description: "Reactivate an archived event"},
		{Action: EventConclude, Module: "events", Creator: true, AnyOrganizationAdmin: true, ProgramCapability: CapConcludeEvents, Description: "Conclude an event"},

		{Action: AttendanceCheckIn, Module: "attendance", Anyone: true, Description: "Check in to an event"},
		{Action: AttendanceList, Module: "attendance", Superuser: true, Staff: true, Creator: true, AnyOrganizationAdmin: true, AnyProgramAdmin: true, Description: "List event attendance"},
		{Action: AttendanceChangeValidity, Module: "attendance", Creator: true, OrganizationCapability: CapChangeAttendanceValidity, ProgramCapability: CapChangeAttendanceValidity, Description: "Invalidate or revalidate attendance"},
		{Action: AttendanceUpdateDisplayName, Module: "attendance", Subject: true, Description: "Rename an attendance entry"},

		{Action: AuditView, Module: "audit", Superuser: true, Staff: true, Description: "Read the audit log"},
	}

	for _, rule := range rules {
		if err := Register(rule); err != nil {
			panic(err)
		}
	}
}
