package fanout

import "github.com/caris2020/AssuranceProject/internal/users/models"

// Policy selects the recipients of one fanned-out event from the directory.
type Policy struct {
	name string
	keep func(*models.User) bool
}

// Name identifies the policy in logs.
func (p Policy) Name() string { return p.name }

// Select filters the directory listing down to the recipient set.
func (p Policy) Select(users []*models.User) []*models.User {
	var out []*models.User
	for _, u := range users {
		if p.keep(u) {
			out = append(out, u)
		}
	}
	return out
}

// AllActive selects every active user that has logged in at least once.
func AllActive() Policy {
	return Policy{
		name: "all-active",
		keep: func(u *models.User) bool {
			return u.Active && u.LastLoginAt != nil
		},
	}
}

// AllActiveExcluding is AllActive minus one named actor, so the user who
// caused a change does not notify themselves. An empty actor excludes nobody.
func AllActiveExcluding(actor string) Policy {
	base := AllActive()
	return Policy{
		name: "all-active-excluding",
		keep: func(u *models.User) bool {
			return base.keep(u) && (actor == "" || u.Username != actor)
		},
	}
}

// ActiveRegisteredOrAdminExcluding selects active users that are fully
// registered or hold the admin role, skipping deleted accounts and one named
// actor.
func ActiveRegisteredOrAdminExcluding(actor string) Policy {
	return Policy{
		name: "active-registered-or-admin-excluding",
		keep: func(u *models.User) bool {
			if !u.Active || u.Status == models.StatusDeleted {
				return false
			}
			if u.Status != models.StatusRegistered && u.Role != models.RoleAdmin {
				return false
			}
			return actor == "" || u.Username != actor
		},
	}
}
