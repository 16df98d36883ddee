package auth

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Role string

const (
	RoleAdmin            Role = "admin"
	RoleCoordinator      Role = "coordinator"
	RoleJournalist       Role = "journalist"
	RolePhotographer     Role = "photographer"
	RoleDesigner         Role = "designer"
	RoleCommunityManager Role = "community_manager"
)

// Roles enumerates every assignable role, in a shape fit for ozzo's In rule.
var Roles = []interface{}{RoleAdmin, RoleCoordinator, RoleJournalist, RolePhotographer, RoleDesigner, RoleCommunityManager}

// Actor identifies the authenticated user throughout a request's lifetime.
// CountryID is zero for users without an assigned country.
type Actor struct {
	ID        int64
	Role      Role
	CountryID int64
}

// Action enumerates the gated operations; the gate below is the single place deciding who may do what.
type Action int

const (
	ManageCountries Action = iota
	ManageUsers
	ListUsers
	ManageEditions
	ManageArticles
	ManageEvents
	ManageEmbassies
	ManageManuals
)

// Allowed decides whether the actor may perform the action on a resource belonging to the given country.
// A zero resourceCountry means the operation isn't bound to one specific country, such as listings.
//
// Rules, uniform across entities:
//   - admins act on anything, anywhere;
//   - coordinators manage editions, events and embassy lists, and list users, within their own country only;
//   - every other role manages articles within their own country's editions, country wide rather than
//     author only, matching the historic behaviour.
func Allowed(actor Actor, action Action, resourceCountry int64) bool {

	if actor.Role == RoleAdmin {
		return true
	}

	switch action {
	case ListUsers, ManageEditions, ManageEvents, ManageEmbassies:
		if actor.Role != RoleCoordinator || actor.CountryID == 0 {
			return false
		}
		return resourceCountry == 0 || resourceCountry == actor.CountryID

	case ManageArticles:
		return actor.CountryID != 0 && resourceCountry == actor.CountryID
	}

	// countries, user management and manuals remain admin territory
	return false
}

type LoginData struct {
	Username string
	Password string
}

func (data LoginData) Validate() error {
	return validation.ValidateStruct(&data,
		validation.Field(&data.Username, validation.Required),
		validation.Field(&data.Password, validation.Required),
	)
}
