// Package scrum holds the client-facing state layer: the per-session project
// state cache, the identity holder with role gating, and the burndown engine.
package scrum

import (
	"github.com/localnerve/scrumdb/internal/services"
)

// Role is a collaborator role on a project. The empty value means the viewer
// holds no role.
type Role string

const (
	RoleNone         Role = ""
	RoleProductOwner Role = services.RoleProductOwner
	RoleTeamMember   Role = services.RoleTeamMember
	RoleScrumMaster  Role = services.RoleScrumMaster
)

// Access is the derived (isOwner, role) pair for the currently viewed
// project. The owner implicitly holds every privilege of the highest role.
type Access struct {
	IsOwner bool `json:"isOwner"`
	Role    Role `json:"role"`
}

// CanView reports whether the viewer may read the project at all.
func (a Access) CanView() bool {
	return a.IsOwner || a.Role != RoleNone
}

// CanManageProject gates project edit and delete. Owner only.
func (a Access) CanManageProject() bool {
	return a.IsOwner
}

// CanManageSprints gates sprint create, edit and delete. A team member works
// the board but does not shape iterations.
func (a Access) CanManageSprints() bool {
	return a.IsOwner || a.Role == RoleProductOwner || a.Role == RoleScrumMaster
}

// CanManageTasks gates task create, edit, move and delete.
func (a Access) CanManageTasks() bool {
	return a.IsOwner || a.Role != RoleNone
}

// CanManageCollaborators gates granting and revoking roles. Owner only.
func (a Access) CanManageCollaborators() bool {
	return a.IsOwner
}
