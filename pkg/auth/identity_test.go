package auth

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pjecz/hercules-api/pkg/rbac"
)

func TestIdentityPermissionsMemoized(t *testing.T) {
	identity := &Identity{ID: 1, Email: "actuario@pjecz.gob.mx"}
	identity.SetGrants([]rbac.Grant{
		{Module: rbac.ModuleSentencias, Level: rbac.LevelView},
		{Module: rbac.ModuleSentencias, Level: rbac.LevelEdit},
	})

	first := identity.Permissions()
	assert.Equal(t, rbac.LevelEdit, first[rbac.ModuleSentencias])

	// later grant changes are invisible: the memo is never invalidated
	identity.SetGrants([]rbac.Grant{
		{Module: rbac.ModuleSentencias, Level: rbac.LevelAdminister},
	})
	second := identity.Permissions()
	assert.Equal(t, rbac.LevelEdit, second[rbac.ModuleSentencias])
}

func TestIdentityCan(t *testing.T) {
	identity := &Identity{ID: 1, Email: "actuario@pjecz.gob.mx"}
	identity.SetGrants([]rbac.Grant{
		{Module: rbac.ModuleSentencias, Level: rbac.LevelEdit},
		{Module: rbac.ModuleDistritos, Level: rbac.LevelView},
	})

	assert.True(t, identity.Can(rbac.ModuleSentencias, rbac.LevelView))
	assert.True(t, identity.Can(rbac.ModuleSentencias, rbac.LevelEdit))
	assert.False(t, identity.Can(rbac.ModuleSentencias, rbac.LevelAdminister))
	assert.False(t, identity.Can(rbac.ModuleDistritos, rbac.LevelCreate))

	// absent module is level none, never an error
	assert.False(t, identity.Can(rbac.ModuleUsuarios, rbac.LevelView))
	assert.True(t, identity.Can(rbac.ModuleUsuarios, rbac.LevelNone))
}

func TestIdentityPermissionsConcurrent(t *testing.T) {
	identity := &Identity{ID: 1, Email: "actuario@pjecz.gob.mx"}
	identity.SetGrants([]rbac.Grant{
		{Module: rbac.ModuleEdictos, Level: rbac.LevelCreate},
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, identity.Can(rbac.ModuleEdictos, rbac.LevelView))
		}()
	}
	wg.Wait()
}
