package perms

import "testing"

var testRoles = RoleSets{
	Moderator: []string{"mod"},
	Admin:     []string{"adm"},
	Servicer:  []string{"svc"},
}

func TestResolvePrecedenceTable(t *testing.T) {
	tiers := []struct {
		name string
		tier Tier
	}{
		{"everyone", Everyone},
		{"moderator", Moderator},
		{"administrator", Administrator},
		{"mod_or_admin", Moderator | Administrator},
	}

	bools := []bool{false, true}
	for _, tier := range tiers {
		for _, servicer := range bools {
			for _, native := range bools {
				for _, adminRole := range bools {
					for _, modRole := range bools {
						var roleIDs []string
						if servicer {
							roleIDs = append(roleIDs, "svc")
						}
						if adminRole {
							roleIDs = append(roleIDs, "adm")
						}
						if modRole {
							roleIDs = append(roleIDs, "mod")
						}
						actor := Actor{RoleIDs: roleIDs, IsAdmin: native}

						want := servicer ||
							native ||
							(tier.tier&Administrator != 0 && adminRole) ||
							(tier.tier&Moderator != 0 && modRole) ||
							tier.tier&Everyone != 0

						got := Resolve(actor, tier.tier, testRoles)
						if got != want {
							t.Errorf("tier=%s servicer=%t native=%t adminRole=%t modRole=%t: got %t want %t",
								tier.name, servicer, native, adminRole, modRole, got, want)
						}
					}
				}
			}
		}
	}
}

func TestModeratorDeniedAdminCommand(t *testing.T) {
	actor := Actor{RoleIDs: []string{"mod"}}
	if Resolve(actor, Administrator, testRoles) {
		t.Fatalf("moderator must be denied an administrator-only command")
	}
}

func TestServicerBypassesTier(t *testing.T) {
	actor := Actor{RoleIDs: []string{"svc"}}
	if !Resolve(actor, Administrator, testRoles) {
		t.Fatalf("servicer must bypass tier checks")
	}
}

func TestAdminRoleDoesNotImplyModeratorTierOnly(t *testing.T) {
	// Tier sets are declared, not ordered: a moderator-only command does not
	// admit an admin role holder unless they also carry the native flag.
	actor := Actor{RoleIDs: []string{"adm"}}
	if Resolve(actor, Moderator, testRoles) {
		t.Fatalf("admin role must not satisfy a moderator-only requirement")
	}
}

func TestEmptyConfigurationDenies(t *testing.T) {
	actor := Actor{RoleIDs: []string{"anything"}}
	if Resolve(actor, Moderator, RoleSets{}) {
		t.Fatalf("missing role configuration must deny")
	}
	if !Resolve(actor, Everyone, RoleSets{}) {
		t.Fatalf("everyone tier must pass without configuration")
	}
}
