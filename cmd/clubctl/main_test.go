package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexussuite/clubcore/internal/identity"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("CLUBCORE_CONFIG", "")

	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// TestPurpose: Validates operator token issuance.
// Scope: Unit Test
// Expected: The issued token resolves to the requested user, tenant and operator flag.
// Test Case ID: CLI-01
func TestTokenIssue(t *testing.T) {
	out, err := runCLI(t, "token", "issue", "--user", "u-1", "--tenant", "t-1", "--platform-operator", "--ttl", "5m")
	require.NoError(t, err)

	tokens := identity.NewTokenResolver([]byte(testSecret), "clubcore", "clubcore-api")
	p, err := tokens.Resolve(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)
	assert.Equal(t, "t-1", p.TenantID)
	assert.True(t, p.Operator)
}

func TestTokenIssue_RequiresUser(t *testing.T) {
	_, err := runCLI(t, "token", "issue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user")
}

func TestTenantsList_EmptyStore(t *testing.T) {
	out, err := runCLI(t, "--operator", "op-1", "tenants", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "STATUS")
}

// TestPurpose: Validates that tenant administration is attributed.
// Scope: Unit Test
// Security: Operator actions always carry an operator ID for the audit trail
// Expected: Commands fail without --operator.
// Test Case ID: CLI-02
func TestTenantsList_RequiresOperator(t *testing.T) {
	t.Setenv("CLUBCORE_OPERATOR_ID", "")
	_, err := runCLI(t, "tenants", "list")
	require.Error(t, err)
}

func TestTenantsDelete_RequiresConfirmation(t *testing.T) {
	_, err := runCLI(t, "--operator", "op-1", "tenants", "delete", "t-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestTenantsSuspend_UnknownTenant(t *testing.T) {
	_, err := runCLI(t, "--operator", "op-1", "tenants", "suspend", "missing", "--reason", "chargeback", "--output", "json")
	require.Error(t, err)
}
