// Package perms decides whether a member may run a command. Tiers are
// declared per command as an explicit set; there is no implied hierarchy
// between them.
package perms

// Tier is a bit set of authorization levels a command accepts.
type Tier uint8

const (
	Everyone Tier = 1 << iota
	Moderator
	Administrator
)

// Actor is the requesting member: the roles they hold plus whether the
// platform grants them the native administrator permission.
type Actor struct {
	RoleIDs []string
	IsAdmin bool
}

// RoleSets are the configured role IDs for each tier. Servicer roles bypass
// tier checks entirely.
type RoleSets struct {
	Moderator []string
	Admin     []string
	Servicer  []string
}

// Resolve reports whether actor may run a command requiring the given tiers.
// Precedence, first match wins: servicer role, native admin flag, admin tier
// with admin role, moderator tier with moderator role, everyone tier.
// Missing role configuration simply yields denial.
func Resolve(actor Actor, required Tier, roles RoleSets) bool {
	switch {
	case hasAny(actor.RoleIDs, roles.Servicer):
		return true
	case actor.IsAdmin:
		return true
	case required&Administrator != 0 && hasAny(actor.RoleIDs, roles.Admin):
		return true
	case required&Moderator != 0 && hasAny(actor.RoleIDs, roles.Moderator):
		return true
	case required&Everyone != 0:
		return true
	}
	return false
}

func hasAny(held, wanted []string) bool {
	if len(held) == 0 || len(wanted) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(wanted))
	for _, id := range wanted {
		set[id] = struct{}{}
	}
	for _, id := range held {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
