// Package services implements the entity repositories: per-entity CRUD over
// the relational store, each write scoped by a viewer predicate inside the
// WHERE clause itself so there is no check-then-act window.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/types"
	"gorm.io/gorm"
)

// ownedProjectIDs returns a subquery selecting ids of projects the viewer owns.
func ownedProjectIDs(db *gorm.DB, viewerID string) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Project{}).Select("id").Where("owner_id = ?", viewerID)
}

// collaboratorProjectIDs returns a subquery selecting ids of projects where
// the viewer holds a collaborator role. When roles are given, only those
// roles qualify.
func collaboratorProjectIDs(db *gorm.DB, viewerID string, roles ...string) *gorm.DB {
	q := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Collaborator{}).Select("project_id").Where("user_id = ?", viewerID)
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	return q
}

// classify maps driver errors onto the shared sentinel failure classes while
// keeping the original message in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", types.ErrDuplicate, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") {
		return fmt.Errorf("%w: %v", types.ErrDuplicate, err)
	}

	return err
}
