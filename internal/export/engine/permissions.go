package engine

import (
	"fmt"

	e "github.com/gartstein/cafexport/internal/export/errors"
	"github.com/gartstein/cafexport/internal/export/models"
)

var knownResources = map[models.Resource]bool{
	models.ResourceContracts: true,
	models.ResourcePartidas:  true,
	models.ResourceDocuments: true,
	models.ResourceShipments: true,
	models.ResourceRoles:     true,
	models.ResourceAlerts:    true,
}

var knownActions = map[models.Action]bool{
	models.ActionView:   true,
	models.ActionCreate: true,
	models.ActionEdit:   true,
	models.ActionDelete: true,
}

// HasPermission reports whether role grants action on resource. A nil role
// grants nothing.
func HasPermission(role *models.Role, resource models.Resource, action models.Action) bool {
	if role == nil {
		return false
	}
	for _, p := range role.Permissions {
		if p.Resource != resource {
			continue
		}
		for _, a := range p.Actions {
			if a == action {
				return true
			}
		}
	}
	return false
}

// UserCan resolves the role of user in roles and evaluates it. Unknown users
// and dangling role references evaluate to false.
func UserCan(user *models.User, roles []models.Role, resource models.Resource, action models.Action) bool {
	if user == nil {
		return false
	}
	for i := range roles {
		if roles[i].ID == user.RoleID {
			return HasPermission(&roles[i], resource, action)
		}
	}
	return false
}

// ValidatePermissions rejects unknown resources and actions.
func ValidatePermissions(perms []models.Permission) error {
	for _, p := range perms {
		if !knownResources[p.Resource] {
			return fmt.Errorf("%w: unknown resource %q", e.ErrInvalidInput, p.Resource)
		}
		for _, a := range p.Actions {
			if !knownActions[a] {
				return fmt.Errorf("%w: unknown action %q", e.ErrInvalidInput, a)
			}
		}
	}
	return nil
}

// Grant returns a copy of role with actions added on resource.
func Grant(role models.Role, resource models.Resource, actions ...models.Action) models.Role {
	out := cloneRole(role)
	for i := range out.Permissions {
		p := &out.Permissions[i]
		if p.Resource != resource {
			continue
		}
		for _, a := range actions {
			if !containsAction(p.Actions, a) {
				p.Actions = append(p.Actions, a)
			}
		}
		return out
	}
	out.Permissions = append(out.Permissions, models.Permission{
		Resource: resource,
		Actions:  append([]models.Action(nil), actions...),
	})
	return out
}

// Revoke returns a copy of role without actions on resource. With no actions
// the whole resource entry is removed.
func Revoke(role models.Role, resource models.Resource, actions ...models.Action) models.Role {
	out := cloneRole(role)
	perms := out.Permissions[:0]
	for _, p := range out.Permissions {
		if p.Resource == resource {
			if len(actions) == 0 {
				continue
			}
			kept := p.Actions[:0]
			for _, a := range p.Actions {
				if !containsAction(actions, a) {
					kept = append(kept, a)
				}
			}
			if len(kept) == 0 {
				continue
			}
			p.Actions = kept
		}
		perms = append(perms, p)
	}
	out.Permissions = perms
	return out
}

func cloneRole(role models.Role) models.Role {
	out := role
	out.Permissions = make([]models.Permission, len(role.Permissions))
	for i, p := range role.Permissions {
		out.Permissions[i] = models.Permission{
			Resource: p.Resource,
			Actions:  append([]models.Action(nil), p.Actions...),
		}
	}
	return out
}

func containsAction(actions []models.Action, a models.Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}
