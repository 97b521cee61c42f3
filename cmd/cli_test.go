package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/planctl/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionSkipsWiring(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, "[state]\nbackend = \"postgres\"\n"))

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)
}

func TestInvalidConfigFailsCommands(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, "[state]\nbackend = \"postgres\"\n"))

	_, _, err := executeCLI(t, home, "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown state backend \"postgres\"")
}

func TestLoginThenStatus(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "login", "Ana@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "logged in as ana@example.com (free)\n", stdout)

	stdout, _, err = executeCLI(t, home, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com\n", stdout)

	stdout, _, err = executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Account: ana@example.com (Free)")
	assert.Contains(t, stdout, "150 / 150 left")
	assert.Contains(t, stdout, "No invoices yet.")

	_, err = os.Stat(filepath.Join(home, ".planctl", "state.toml"))
	assert.NoError(t, err)
}

func TestStatusJSONOutput(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "login", "ana@example.com")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"email\": \"ana@example.com\"")
	assert.Contains(t, stdout, "\"remaining_credits\": 150")
}

func TestStatusRequiresLogin(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no current user")
}

func TestProLifecycle(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "login", "ana@example.com")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "plan", "pro", "subscribe", "--tier", "growth")
	require.NoError(t, err)
	assert.Equal(t, "subscribed to Pro Growth (monthly) for $45.00\n", stdout)

	stdout, _, err = executeCLI(t, home, "invoices")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pro Growth subscription (monthly)")

	_, _, err = executeCLI(t, home, "plan", "process")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot process billing cycle: wrong plan status")

	_, _, err = executeCLI(t, home, "plan", "pro", "cancel")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[cancelled]")

	_, _, err = executeCLI(t, home, "plan", "process")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Account: ana@example.com (Free)")

	stdout, _, err = executeCLI(t, home, "transactions")
	require.NoError(t, err)
	assert.Contains(t, stdout, "expired")
	assert.Contains(t, stdout, "rollover")
}

func TestPreconditionErrorsNameTheOperation(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "login", "ana@example.com")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "plan", "pro", "cancel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot cancel pro plan: wrong plan")

	_, _, err = executeCLI(t, home, "credits", "extra", "--bundle", "1000=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong plan")
}

func TestTeamCommands(t *testing.T) {
	home := t.TempDir()
	for _, email := range []string{"finance@example.com", "bob@example.com", "owner@example.com"} {
		_, _, err := executeCLI(t, home, "login", email)
		require.NoError(t, err)
	}

	stdout, _, err := executeCLI(t, home, "plan", "teams", "subscribe", "--tier", "starter", "--seats", "2", "--team", "Acme")
	require.NoError(t, err)
	assert.Contains(t, stdout, "subscribed to Teams Starter with 2 seats")

	_, _, err = executeCLI(t, home, "team", "add", "bob@example.com", "--credit-limit", "500")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "team", "add", "carol@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot add team member: no free seat")

	_, _, err = executeCLI(t, home, "team", "admin", "invite", "finance@example.com")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "team", "admin", "accept", "finance@example.com")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "view-as", "finance@example.com")
	require.NoError(t, err)
	assert.Contains(t, stdout, "logged in as owner@example.com, billing admin for finance@example.com")
	assert.Contains(t, stdout, "team: Acme (2/2 seats)")

	stdout, _, err = executeCLI(t, home, "view-as", "bob@example.com", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\"email\": \"bob@example.com\"")

	_, _, err = executeCLI(t, home, "view-as", "ghost@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account not found")

	stdout, _, err = executeCLI(t, home, "accounts")
	require.NoError(t, err)
	assert.Contains(t, stdout, "* owner@example.com")
	assert.Contains(t, stdout, "teams")

	_, _, err = executeCLI(t, home, "team", "remove", "owner@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot remove team member: account holds the team")
}

func TestCreditsCommands(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "login", "ana@example.com")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "credits", "buy", "500")
	require.NoError(t, err)
	assert.Equal(t, "bought 500 credits for $15.00\n", stdout)

	_, _, err = executeCLI(t, home, "credits", "buy", "123")
	require.Error(t, err)

	stdout, _, err = executeCLI(t, home, "credits", "burn", "10000")
	require.NoError(t, err)
	assert.Equal(t, "0 credits left\n", stdout)

	_, _, err = executeCLI(t, home, "credits", "burn", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestPlanQuote(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "plan", "quote", "teams", "--tier", "starter", "--seats", "10")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Teams Starter, 10 seats: $200.00/month, 500 credits per seat")
	assert.Contains(t, stdout, "warning: below the recommended 1000 credits per seat")

	stdout, _, err = executeCLI(t, home, "plan", "quote", "pro")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Pro Growth")
	assert.Contains(t, stdout, "$450.00")
}

func TestResetRequiresForce(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "login", "ana@example.com")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "reset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, _, err = executeCLI(t, home, "reset", "--force")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "whoami")
	require.Error(t, err)
}

func TestSQLiteBackendFromEnvironment(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PLANCTL_STATE_BACKEND", "sqlite")

	_, _, err := executeCLI(t, home, "login", "ana@example.com")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "login", "bob@example.com")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "accounts")
	require.NoError(t, err)
	assert.Contains(t, stdout, "  ana@example.com")
	assert.Contains(t, stdout, "* bob@example.com")

	_, err = os.Stat(filepath.Join(home, ".planctl", "state.db"))
	assert.NoError(t, err)
}

func TestRemovedCommandIsUnknown(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "usage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command \"usage\"")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfigFixture(home, contents string) error {
	configDir := filepath.Join(home, ".planctl")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(contents), 0o644)
}
