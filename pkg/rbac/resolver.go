package rbac

// Grant is one permission row reachable from a user through an active
// role assignment
type Grant struct {
	Module string
	Level  Level
}

// Resolve folds grant rows into the effective per-module level map.
// When a module is granted more than once, the highest level wins, so
// the result does not depend on row order. Levels above Administer are
// clamped; levels at or below None are ignored.
func Resolve(grants []Grant) map[string]Level {
	perms := make(map[string]Level, len(grants))
	for _, g := range grants {
		level := g.Level
		if level > LevelAdminister {
			level = LevelAdminister
		}
		if level <= LevelNone {
			continue
		}
		if current, ok := perms[g.Module]; !ok || level > current {
			perms[g.Module] = level
		}
	}
	return perms
}
