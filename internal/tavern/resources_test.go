package tavern_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/beacondash/internal/tavern"
)

func TestResources_TabOrder(t *testing.T) {
	var kinds []tavern.Kind
	for _, r := range tavern.Resources() {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []tavern.Kind{tavern.KindHosts, tavern.KindTasks, tavern.KindQuests, tavern.KindAssets}, kinds)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := tavern.Lookup("beacons")
	require.ErrorIs(t, err, tavern.ErrUnknownResource)
}

func TestResource_Queries(t *testing.T) {
	quests, err := tavern.Lookup(tavern.KindQuests)
	require.NoError(t, err)

	assert.Equal(t, "GetQuestIds", quests.IDQuery.Name)
	assert.Contains(t, quests.IDQuery.Query, "$where: QuestWhereInput")
	assert.Contains(t, quests.IDQuery.Query, "[QuestOrder!]")
	assert.Contains(t, quests.IDQuery.Query, "pageInfo { hasNextPage endCursor }")

	assert.Equal(t, "GetQuestDetail", quests.DetailQuery.Name)
	assert.Contains(t, quests.DetailQuery.Query, "tasksFinished: tasks(where: {execFinishedAtNotNil: true})")

	assert.Equal(t, "GetQuestsByIds", quests.BatchQuery.Name)
	assert.Contains(t, quests.BatchQuery.Query, "where: {idIn: $ids}")

	tasks, err := tavern.Lookup(tavern.KindTasks)
	require.NoError(t, err)
	assert.NotContains(t, tasks.DetailQuery.Query, "output\n")
	assert.Contains(t, tasks.InspectQuery.Query, "output")
}

func TestResource_PageVariables(t *testing.T) {
	hosts, err := tavern.Lookup(tavern.KindHosts)
	require.NoError(t, err)

	vars := hosts.PageVariables(tavern.PageQuery{})
	assert.Equal(t, map[string]any{}, vars["where"])
	assert.Equal(t, []tavern.Order{{Field: "LAST_SEEN_AT", Direction: tavern.Desc}}, vars["orderBy"])
	assert.NotContains(t, vars, "first")
	assert.NotContains(t, vars, "after")

	order := tavern.Order{Field: "CREATED_AT", Direction: tavern.Asc}
	vars = hosts.PageVariables(tavern.PageQuery{First: 25, After: "cur", Filter: "  web ", Order: &order})
	assert.Equal(t, map[string]any{"nameContains": "web"}, vars["where"])
	assert.Equal(t, []tavern.Order{order}, vars["orderBy"])
	assert.Equal(t, 25, vars["first"])
	assert.Equal(t, "cur", vars["after"])
}

func TestResource_ParseOrderField(t *testing.T) {
	hosts, err := tavern.Lookup(tavern.KindHosts)
	require.NoError(t, err)

	for _, in := range []string{"last_seen_at", "lastSeenAt", "LAST_SEEN_AT", "last-seen-at"} {
		f, parseErr := hosts.ParseOrderField(in)
		require.NoError(t, parseErr, in)
		assert.Equal(t, "LAST_SEEN_AT", f)
	}

	_, err = hosts.ParseOrderField("size")
	require.ErrorIs(t, err, tavern.ErrUnknownOrderField)
	assert.Contains(t, err.Error(), "last_seen_at")
}

func TestResource_NextOrder(t *testing.T) {
	assets, err := tavern.Lookup(tavern.KindAssets)
	require.NoError(t, err)

	o := assets.DefaultOrder
	var seen []string
	for range 2 * len(assets.OrderFields) {
		seen = append(seen, o.String())
		o = assets.NextOrder(o)
	}
	assert.Equal(t, []string{
		"created_at:desc", "created_at:asc",
		"last_modified_at:desc", "last_modified_at:asc",
		"name:desc", "name:asc",
		"size:desc", "size:asc",
	}, seen)
	assert.Equal(t, assets.DefaultOrder, o)
}

func TestOrder_JSON(t *testing.T) {
	b, err := json.Marshal(tavern.Order{Field: "NAME", Direction: tavern.Asc})
	require.NoError(t, err)
	assert.JSONEq(t, `{"field":"NAME","direction":"ASC"}`, string(b))
}

func TestExtractors_EmptyConnection(t *testing.T) {
	assert.Nil(t, tavern.ExtractHost(tavern.HostsResponse{}, "h1"))
	assert.Nil(t, tavern.ExtractTask(tavern.TasksResponse{}, "t1"))
	assert.Nil(t, tavern.ExtractQuest(tavern.QuestsResponse{}, "q1"))
	assert.Nil(t, tavern.ExtractAsset(tavern.AssetsResponse{}, "a1"))
}

func TestQuest_Decode(t *testing.T) {
	var resp tavern.QuestsResponse
	require.NoError(t, json.Unmarshal([]byte(`{"quests":{"edges":[{"node":{
		"id":"q1","name":"recon","tome":{"id":"t","name":"netstat"},
		"tasksTotal":{"totalCount":10},"tasksFinished":{"totalCount":7},
		"tasksOutput":{"totalCount":5},"tasksError":{"totalCount":1},
		"lastUpdatedTask":{"edges":[{"node":{"lastModifiedAt":"2026-10-01T12:00:00Z"}}]}}}]}}`), &resp))

	q := tavern.ExtractQuest(resp, "q1")
	require.NotNil(t, q)
	assert.Equal(t, "netstat", q.Tome.Name)
	assert.Equal(t, 7, q.TasksFinished.TotalCount)
	assert.Equal(t, 10, q.TasksTotal.TotalCount)
	require.NotNil(t, q.LastUpdated())
	assert.Equal(t, time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC), q.LastUpdated().UTC())

	assert.Nil(t, tavern.Quest{}.LastUpdated())
}
