package auth

// Platform role names as assigned by the API.
const (
	RoleGuest            = "guest"
	RoleBaseUser         = "base_user"
	RoleApplicant        = "applicant"
	RolePoolOperator     = "pool_operator"
	RoleRequestResponder = "request_responder"
	RoleCommunityManager = "community_manager"
	RolePlatformAdmin    = "platform_admin"
)

// AdminRoles may open the admin area.
var AdminRoles = []string{RolePlatformAdmin, RoleCommunityManager, RolePoolOperator}
