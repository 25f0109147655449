package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/beacondash/internal/tavern"
)

func TestRenderPlain_KeepsListOrder(t *testing.T) {
	f := newFakeTavern(7)
	f.gone = map[string]bool{"h3": true}

	var buf bytes.Buffer
	res, err := RenderPlain(context.Background(), &buf, f, PlainOptions{
		Kind:      tavern.KindHosts,
		Query:     tavern.PageQuery{First: 3},
		BatchSize: 2,
		Now:       func() time.Time { return testNow },
	})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Shown, "vanished ids are skipped")
	assert.Equal(t, 7, res.Total)
	assert.False(t, res.HasMore)
	assert.Equal(t, 3+4, res.Requests, "three id pages and four batches")
	assert.Equal(t, 3, f.count("GetHostIds"))
	assert.Equal(t, 4, f.count("GetHostsByIds"))

	out := buf.String()
	assert.Contains(t, out, "Host")
	assert.NotContains(t, out, "name-h3")
	last := -1
	for _, id := range []string{"h0", "h1", "h2", "h4", "h5", "h6"} {
		i := strings.Index(out, "name-"+id)
		require.GreaterOrEqual(t, i, 0, id)
		assert.Greater(t, i, last, "%s out of order", id)
		last = i
	}
}

func TestRenderPlain_Limit(t *testing.T) {
	f := newFakeTavern(500)

	var buf bytes.Buffer
	res, err := RenderPlain(context.Background(), &buf, f, PlainOptions{
		Kind:  tavern.KindAssets,
		Query: tavern.PageQuery{First: 50},
		Limit: 75,
		Now:   func() time.Time { return testNow },
	})
	require.NoError(t, err)
	assert.Equal(t, 75, res.Shown)
	assert.True(t, res.HasMore)
	assert.Equal(t, 25, f.lastVars("GetAssetIds")["first"], "second page is capped by the limit")
	assert.Contains(t, buf.String(), "name-a74")
	assert.NotContains(t, buf.String(), "name-a75")
}

func TestRenderPlain_Empty(t *testing.T) {
	var buf bytes.Buffer
	res, err := RenderPlain(context.Background(), &buf, newFakeTavern(0), PlainOptions{Kind: tavern.KindQuests})
	require.NoError(t, err)
	assert.Zero(t, res.Shown)
	assert.Equal(t, 1, res.Requests)
	assert.Equal(t, "No quests match.\n", buf.String())
}

func TestRenderPlain_Errors(t *testing.T) {
	f := newFakeTavern(3)
	f.setFail(errors.New("boom"))

	_, err := RenderPlain(context.Background(), &bytes.Buffer{}, f, PlainOptions{Kind: tavern.KindTasks})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing tasks")

	_, err = RenderPlain(context.Background(), &bytes.Buffer{}, f, PlainOptions{Kind: "beacons"})
	assert.ErrorIs(t, err, tavern.ErrUnknownResource)
}
