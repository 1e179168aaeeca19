//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"studio-booking/internal/pkg/authtoken"
	"studio-booking/internal/pkg/config"

	"github.com/stretchr/testify/require"
)

// IssueToken mints a bearer token the way the API expects, signed with the
// test config's secret.
func IssueToken(t *testing.T, cfg config.Config, clientID string) string {
	t.Helper()

	validator := authtoken.NewValidator(cfg.JWT)
	token, err := validator.Issue(clientID, time.Now())
	require.NoError(t, err)
	return token
}
