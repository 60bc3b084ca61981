package entities

// Role representa o papel de um usuário, derivado das flags is_staff/is_superuser
type Role string

const (
	RoleSuperuser Role = "superuser"
	RoleStaff     Role = "staff"
	RoleMember    Role = "member"
)

// Permission representa uma permissão específica (app.acao_modelo)
type Permission string

const (
	PermissionUserView   Permission = "users.view_user"
	PermissionUserAdd    Permission = "users.add_user"
	PermissionUserChange Permission = "users.change_user"
	PermissionUserDelete Permission = "users.delete_user"
)

// AllPermissions lista todas as permissões conhecidas
var AllPermissions = []Permission{
	PermissionUserView,
	PermissionUserAdd,
	PermissionUserChange,
	PermissionUserDelete,
}

// RolePermissions mapeia roles para suas permissões
var RolePermissions = map[Role][]Permission{
	RoleSuperuser: AllPermissions,
	RoleStaff: {
		PermissionUserView,
		PermissionUserChange,
	},
	RoleMember: {},
}

// GetPermissions retorna permissões de um role
func (r Role) GetPermissions() []Permission {
	return RolePermissions[r]
}

// HasPermission verifica se role tem permissão
func (r Role) HasPermission(permission Permission) bool {
	for _, p := range RolePermissions[r] {
		if p == permission {
			return true
		}
	}
	return false
}
