// session.go
//
// A scalable, high performance drop-in replacement for the scrumflow nodejs data layer
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of scrumdb.
// scrumdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// scrumdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with scrumdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package scrum

import (
	"context"
	"errors"
	"sync"

	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/services"
	"github.com/localnerve/scrumdb/internal/types"
	"gorm.io/gorm"
)

// Session holds one authenticated user's identity, their loaded project
// cache, and the access derived for the project they are currently viewing.
// Every mutation is gated here, before any store write is attempted.
type Session struct {
	mu    sync.RWMutex
	db    *gorm.DB
	user  *models.User
	cache *Cache

	viewedProjectID string
	access          Access
}

// NewSession creates an unauthenticated session over the store connection.
func NewSession(db *gorm.DB) *Session {
	return &Session{
		db:    db,
		cache: NewCache(db),
	}
}

// Login verifies the credentials and, on success, bulk-loads the user's
// visible world into the cache. The user identity is set only after both
// steps complete.
func (s *Session) Login(ctx context.Context, identifier, secret string) (*models.User, error) {
	user, err := services.VerifyLogin(ctx, s.db, identifier, secret)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Load(ctx, user.ID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.viewedProjectID = ""
	s.access = Access{}
	s.mu.Unlock()

	return user, nil
}

// Logout clears the identity and every cached collection.
func (s *Session) Logout() {
	s.mu.Lock()
	s.user = nil
	s.viewedProjectID = ""
	s.access = Access{}
	s.mu.Unlock()

	s.cache.Reset()
}

// User returns the authenticated user, or nil before login.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Cache exposes the session's project state mirror for readers.
func (s *Session) Cache() *Cache {
	return s.cache
}

// ViewProject switches the session to a project and derives the viewer's
// access for it: the owner holds every privilege, otherwise the collaborator
// role decides. An invisible project yields the not-found sentinel.
func (s *Session) ViewProject(ctx context.Context, projectID string) (Access, error) {
	s.mu.RLock()
	user := s.user
	s.mu.RUnlock()
	if user == nil {
		return Access{}, types.ErrForbidden
	}

	project, ok := s.cache.Project(projectID)
	if !ok {
		return Access{}, types.ErrNotFound
	}

	access := Access{}
	if project.OwnerID == user.ID {
		access.IsOwner = true
	} else {
		role, err := services.FetchCollaboratorRole(ctx, s.db, projectID, user.ID)
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return Access{}, err
		}
		access.Role = Role(role)
	}

	if !access.CanView() {
		return Access{}, types.ErrForbidden
	}

	s.mu.Lock()
	s.viewedProjectID = projectID
	s.access = access
	s.mu.Unlock()

	return access, nil
}

// ViewedProject returns the id of the project the session is looking at and
// the access derived for it.
func (s *Session) ViewedProject() (string, Access) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewedProjectID, s.access
}

func (s *Session) currentAccess(projectID string) (Access, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return Access{}, types.ErrForbidden
	}
	if s.viewedProjectID != projectID {
		return Access{}, types.ErrForbidden
	}
	return s.access, nil
}

// --- gated mutations ---

// CreateProject creates a project owned by the session user. Any
// authenticated user may create projects.
func (s *Session) CreateProject(ctx context.Context, input services.ProjectInput) (*models.Project, error) {
	if s.User() == nil {
		return nil, types.ErrForbidden
	}
	return s.cache.CreateProject(ctx, input)
}

// UpdateProject applies partial project changes, owner only.
func (s *Session) UpdateProject(ctx context.Context, projectID string, changes map[string]interface{}) (*models.Project, error) {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageProject() {
		return nil, types.ErrForbidden
	}
	return s.cache.UpdateProject(ctx, projectID, changes)
}

// DeleteProject removes the project and everything under it, owner only. The
// session stops viewing the project on success.
func (s *Session) DeleteProject(ctx context.Context, projectID string) error {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return err
	}
	if !access.CanManageProject() {
		return types.ErrForbidden
	}
	if err := s.cache.DeleteProject(ctx, projectID); err != nil {
		return err
	}

	s.mu.Lock()
	if s.viewedProjectID == projectID {
		s.viewedProjectID = ""
		s.access = Access{}
	}
	s.mu.Unlock()
	return nil
}

// CreateSprint adds a sprint to the viewed project.
func (s *Session) CreateSprint(ctx context.Context, projectID string, input services.SprintInput) (*models.Sprint, error) {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageSprints() {
		return nil, types.ErrForbidden
	}
	return s.cache.CreateSprint(ctx, projectID, input)
}

// gatedSprint resolves a sprint against the project the role check ran on.
// The role was derived for projectID only, so a sprint mirrored under any
// other project is a cross-project write and is rejected before the store
// sees it.
func (s *Session) gatedSprint(projectID, sprintID string) error {
	sprint, ok := s.cache.Sprint(sprintID)
	if !ok {
		return types.ErrNotFound
	}
	if sprint.ProjectID != projectID {
		return types.ErrForbidden
	}
	return nil
}

// gatedTask is the task counterpart of gatedSprint.
func (s *Session) gatedTask(projectID, taskID string) error {
	task, ok := s.cache.Task(taskID)
	if !ok {
		return types.ErrNotFound
	}
	if task.ProjectID != projectID {
		return types.ErrForbidden
	}
	return nil
}

// UpdateSprint applies partial sprint changes.
func (s *Session) UpdateSprint(ctx context.Context, projectID, sprintID string, input services.SprintInput) (*models.Sprint, error) {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageSprints() {
		return nil, types.ErrForbidden
	}
	if err := s.gatedSprint(projectID, sprintID); err != nil {
		return nil, err
	}
	return s.cache.UpdateSprint(ctx, sprintID, input)
}

// DeleteSprint removes a sprint, returning its tasks to the backlog.
func (s *Session) DeleteSprint(ctx context.Context, projectID, sprintID string) error {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return err
	}
	if !access.CanManageSprints() {
		return types.ErrForbidden
	}
	if err := s.gatedSprint(projectID, sprintID); err != nil {
		return err
	}
	return s.cache.DeleteSprint(ctx, projectID, sprintID)
}

// CreateTask adds a task to the viewed project.
func (s *Session) CreateTask(ctx context.Context, projectID string, input services.TaskInput) (*models.Task, error) {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageTasks() {
		return nil, types.ErrForbidden
	}
	return s.cache.CreateTask(ctx, projectID, input)
}

// UpdateTask applies a partial task patch.
func (s *Session) UpdateTask(ctx context.Context, projectID, taskID string, patch services.TaskPatch) (*models.Task, error) {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageTasks() {
		return nil, types.ErrForbidden
	}
	if err := s.gatedTask(projectID, taskID); err != nil {
		return nil, err
	}
	return s.cache.UpdateTask(ctx, taskID, patch)
}

// DeleteTask removes a task.
func (s *Session) DeleteTask(ctx context.Context, projectID, taskID string) error {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return err
	}
	if !access.CanManageTasks() {
		return types.ErrForbidden
	}
	if err := s.gatedTask(projectID, taskID); err != nil {
		return err
	}
	return s.cache.DeleteTask(ctx, projectID, taskID)
}

// Collaborators lists the viewed project's collaborators with user detail.
func (s *Session) Collaborators(ctx context.Context, projectID string) ([]models.CollaboratorWithUser, error) {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return nil, err
	}
	if !access.CanView() {
		return nil, types.ErrForbidden
	}
	return services.FetchCollaborators(ctx, s.db, projectID)
}

// AddCollaborator grants a user a role on the viewed project, owner only.
func (s *Session) AddCollaborator(ctx context.Context, projectID string, input services.CollaboratorInput) (*models.Collaborator, error) {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageCollaborators() {
		return nil, types.ErrForbidden
	}
	return services.AddCollaborator(ctx, s.db, s.User().ID, projectID, input)
}

// UpdateCollaboratorRole changes a collaborator's role, owner only.
func (s *Session) UpdateCollaboratorRole(ctx context.Context, projectID, collaboratorID, role string) (*models.Collaborator, error) {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageCollaborators() {
		return nil, types.ErrForbidden
	}
	return services.UpdateCollaboratorRole(ctx, s.db, s.User().ID, collaboratorID, role)
}

// RemoveCollaborator revokes a collaborator, owner only.
func (s *Session) RemoveCollaborator(ctx context.Context, projectID, collaboratorID string) error {
	access, err := s.currentAccess(projectID)
	if err != nil {
		return err
	}
	if !access.CanManageCollaborators() {
		return types.ErrForbidden
	}
	return services.RemoveCollaborator(ctx, s.db, s.User().ID, collaboratorID)
}
