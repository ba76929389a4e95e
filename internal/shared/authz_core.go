package shared

// Permission actions granted to roles. Actions are compared case-insensitively.
const (
	PermCreatePost  = "create:post"
	PermUpdatePost  = "update:post"
	PermPublishPost = "publish:post"
	PermDeletePost  = "delete:post"

	PermManageCategories = "manage:categories"
	PermManageTags       = "manage:tags"
	PermManageMenus      = "manage:menus"

	PermReadUser    = "read:user"
	PermManageUsers = "manage:users"

	PermManageRoles       = "manage:roles"
	PermManagePermissions = "manage:permissions"

	PermReadAudit = "read:audit"

	PermViewResource   = "view:resource"
	PermCreateResource = "create:resource"
	PermUpdateResource = "update:resource"
	PermDeleteResource = "delete:resource"
)

// ContentScopes lists permissions related to editorial content.
func ContentScopes() []string {
	return []string{
		PermCreatePost,
		PermUpdatePost,
		PermPublishPost,
		PermDeletePost,
		PermManageCategories,
		PermManageTags,
	}
}

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermManageMenus,
		PermReadUser,
		PermManageUsers,
		PermManageRoles,
		PermManagePermissions,
		PermReadAudit,
		PermViewResource,
		PermCreateResource,
		PermUpdateResource,
		PermDeleteResource,
	}
}

// AllScopes returns every permission known to the application.
func AllScopes() []string {
	return append(ContentScopes(), CoreScopes()...)
}
