package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/beacondash/internal/cli/pagination"
	"github.com/rshade/beacondash/internal/tavern"
)

func TestHostsPlain(t *testing.T) {
	isolate(t)
	srv := newTavernServer(t, 3)

	out, errOut, err := execute(t, "hosts", "--plain", "--tavern-url", srv.URL, "--sort", "last_seen_at:asc")
	require.NoError(t, err)

	assert.Contains(t, out, "Host")
	assert.Contains(t, out, "name-h0")
	assert.Contains(t, out, "name-h2")
	assert.Contains(t, out, "linux")
	assert.Contains(t, errOut, "Showing 3 of 3 hosts")

	assert.Equal(t, 1, srv.count("GetHostIds"))
	assert.Equal(t, 1, srv.count("GetHostsByIds"))
	assert.Equal(t, []any{map[string]any{"field": "LAST_SEEN_AT", "direction": "ASC"}},
		srv.lastVars("GetHostIds")["orderBy"])
}

func TestHostsPlain_LimitAndFilter(t *testing.T) {
	isolate(t)
	srv := newTavernServer(t, 10)

	out, errOut, err := execute(t, "hosts", "--plain", "--tavern-url", srv.URL,
		"--limit", "4", "--page-size", "2", "--filter", "web")
	require.NoError(t, err)

	assert.Contains(t, out, "name-h3")
	assert.NotContains(t, out, "name-h4")
	assert.Contains(t, errOut, "Showing 4 of 10 hosts (6 more, raise --limit to see them)")
	assert.Equal(t, 2, srv.count("GetHostIds"))
	assert.Equal(t, map[string]any{"nameContains": "web"}, srv.lastVars("GetHostIds")["where"])
}

func TestHostsPlain_PageSizeFromConfig(t *testing.T) {
	isolate(t)
	srv := newTavernServer(t, 5)
	t.Setenv("BEACONDASH_PAGE_SIZE", "2")

	_, _, err := execute(t, "hosts", "--plain", "--tavern-url", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 3, srv.count("GetHostIds"))
}

func TestResourceCmd_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown sort field", []string{"hosts", "--sort", "size"}, tavern.ErrUnknownOrderField},
		{"bad sort order", []string{"tasks", "--sort", "created_at:up"}, pagination.ErrInvalidSortOrder},
		{"page size", []string{"quests", "--page-size", "0"}, pagination.ErrInvalidPageSize},
		{"negative limit", []string{"assets", "--limit", "-1"}, pagination.ErrInvalidLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			srv := newTavernServer(t, 1)
			_, _, err := execute(t, append(tt.args, "--plain", "--tavern-url", srv.URL)...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, srv.count("GetHostIds"), "no request with invalid flags")
		})
	}
}

func TestResourceCmd_ServerError(t *testing.T) {
	isolate(t)
	srv := newTavernServer(t, 1)

	_, _, err := execute(t, "tasks", "--plain", "--tavern-url", srv.URL)
	require.Error(t, err)
	var gqlErr *tavern.GraphQLError
	assert.ErrorAs(t, err, &gqlErr)
	assert.Contains(t, err.Error(), "listing tasks")
}

func TestResourceCmd_MalformedConfig(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("tavern: [\n"), 0o600))

	_, _, err := execute(t, "hosts", "--plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading configuration")
}

func TestResourceCmd_InvalidConfig(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "hosts", "--plain", "--tavern-url", "ftp://tavern")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tavern.url must be http or https")
}
