package tavern

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Kind names a listable resource. It doubles as the GraphQL query field.
type Kind string

// Resource kinds.
const (
	KindHosts  Kind = "hosts"
	KindTasks  Kind = "tasks"
	KindQuests Kind = "quests"
	KindAssets Kind = "assets"
)

// Direction is a GraphQL OrderDirection.
type Direction string

// Order directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order is one orderBy entry.
type Order struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

func (o Order) String() string {
	return strings.ToLower(o.Field) + ":" + strings.ToLower(string(o.Direction))
}

// PageQuery selects one page of ids.
type PageQuery struct {
	First  int
	After  string
	Filter string
	Order  *Order
}

// IDPage is one page of an id list.
type IDPage struct {
	IDs         []string
	HasNextPage bool
	EndCursor   string
	TotalCount  int
}

// Resource describes how one kind is listed and fetched.
type Resource struct {
	Kind  Kind
	Title string

	// OrderFields are the accepted orderBy fields, in cycling order.
	OrderFields  []string
	DefaultOrder Order

	IDQuery      Operation
	DetailQuery  Operation
	InspectQuery Operation
	BatchQuery   Operation

	// filter wraps a substring into the resource's where input.
	filter func(substr string) map[string]any
}

// Node fields per resource.
const (
	hostFields = `id name identifier primaryIP platform lastSeenAt
tags { edges { node { id name kind } } }
beacons { edges { node { id name principal interval lastSeenAt } } }`

	taskFields = `id createdAt lastModifiedAt claimedAt execStartedAt execFinishedAt outputSize error
quest { id name tome { id name } }
beacon { id name principal host { id name } }`

	questFields = `id name createdAt
tome { id name }
creator { id name isAdmin }
tasksTotal: tasks { totalCount }
tasksFinished: tasks(where: {execFinishedAtNotNil: true}) { totalCount }
tasksOutput: tasks(where: {outputSizeGT: 0}) { totalCount }
tasksError: tasks(where: {errorNotNil: true}) { totalCount }
lastUpdatedTask: tasks(first: 1, orderBy: [{direction: DESC, field: LAST_MODIFIED_AT}]) { edges { node { lastModifiedAt } } }`

	assetFields = `id name size hash createdAt lastModifiedAt
creator { id name isAdmin }
tomes { totalCount }
links { totalCount edges { node { id path expiresAt downloadsRemaining } } }`
)

func nameContains(substr string) map[string]any {
	return map[string]any{"nameContains": substr}
}

//nolint:gochecknoglobals // Static resource table.
var resources = []Resource{
	newResource(KindHosts, "Hosts", "Host", hostFields, hostFields,
		[]string{"LAST_SEEN_AT", "CREATED_AT", "LAST_MODIFIED_AT"},
		Order{Field: "LAST_SEEN_AT", Direction: Desc},
		nameContains),
	newResource(KindTasks, "Tasks", "Task", taskFields, taskFields+"\noutput",
		[]string{"LAST_MODIFIED_AT", "CREATED_AT", "EXEC_STARTED_AT", "EXEC_FINISHED_AT", "CLAIMED_AT"},
		Order{Field: "LAST_MODIFIED_AT", Direction: Desc},
		func(substr string) map[string]any {
			return map[string]any{"hasQuestWith": []map[string]any{nameContains(substr)}}
		}),
	newResource(KindQuests, "Quests", "Quest", questFields, questFields,
		[]string{"CREATED_AT", "LAST_MODIFIED_AT", "NAME"},
		Order{Field: "CREATED_AT", Direction: Desc},
		nameContains),
	newResource(KindAssets, "Assets", "Asset", assetFields, assetFields,
		[]string{"CREATED_AT", "LAST_MODIFIED_AT", "NAME", "SIZE"},
		Order{Field: "CREATED_AT", Direction: Desc},
		nameContains),
}

// newResource builds the operations for one kind. typeName is the GraphQL
// node type ("Host"); its where and order inputs follow the ent naming.
func newResource(
	kind Kind, title, typeName, fields, inspectFields string,
	orderFields []string, defaultOrder Order,
	filter func(string) map[string]any,
) Resource {
	field := string(kind)
	return Resource{
		Kind:         kind,
		Title:        title,
		OrderFields:  orderFields,
		DefaultOrder: defaultOrder,
		IDQuery: Operation{
			Name: "Get" + typeName + "Ids",
			Query: fmt.Sprintf(`query Get%[1]sIds($where: %[1]sWhereInput, $first: Int, $after: Cursor, $orderBy: [%[1]sOrder!]) {
  %[2]s(where: $where, first: $first, after: $after, orderBy: $orderBy) {
    pageInfo { hasNextPage endCursor }
    totalCount
    edges { node { id } }
  }
}`, typeName, field),
		},
		DetailQuery:  detailOperation("Get"+typeName+"Detail", field, fields),
		InspectQuery: detailOperation("Inspect"+typeName, field, inspectFields),
		BatchQuery: Operation{
			Name: "Get" + typeName + "sByIds",
			Query: fmt.Sprintf(`query Get%[1]ssByIds($ids: [ID!], $first: Int) {
  %[2]s(where: {idIn: $ids}, first: $first) {
    edges { node { %[3]s } }
  }
}`, typeName, field, fields),
		},
		filter: filter,
	}
}

func detailOperation(name, field, fields string) Operation {
	return Operation{
		Name: name,
		Query: fmt.Sprintf(`query %s($id: ID!) {
  %s(where: {id: $id}) {
    edges { node { %s } }
  }
}`, name, field, fields),
	}
}

// Resources returns every listable resource in tab order.
func Resources() []Resource {
	out := make([]Resource, len(resources))
	copy(out, resources)
	return out
}

// Lookup returns the resource for kind.
func Lookup(kind Kind) (Resource, error) {
	for _, r := range resources {
		if r.Kind == kind {
			return r, nil
		}
	}
	return Resource{}, fmt.Errorf("%w: %q", ErrUnknownResource, kind)
}

// Where builds the where input for a name filter. An empty filter yields an
// empty input.
func (r Resource) Where(filter string) map[string]any {
	filter = strings.TrimSpace(filter)
	if filter == "" || r.filter == nil {
		return map[string]any{}
	}
	return r.filter(filter)
}

// PageVariables builds the variables of IDQuery.
func (r Resource) PageVariables(q PageQuery) map[string]any {
	order := r.DefaultOrder
	if q.Order != nil {
		order = *q.Order
	}
	vars := map[string]any{
		"where":   r.Where(q.Filter),
		"orderBy": []Order{order},
	}
	if q.First > 0 {
		vars["first"] = q.First
	}
	if q.After != "" {
		vars["after"] = q.After
	}
	return vars
}

// DetailVariables builds the variables of DetailQuery and InspectQuery.
func (r Resource) DetailVariables(id string) map[string]any {
	return map[string]any{"id": id}
}

// BatchVariables builds the variables of BatchQuery.
func (r Resource) BatchVariables(ids []string) map[string]any {
	return map[string]any{"ids": ids, "first": len(ids)}
}

// ParseOrderField maps "last_seen_at", "lastSeenAt" or "LAST_SEEN_AT" to a
// supported order field.
func (r Resource) ParseOrderField(name string) (string, error) {
	want := normalizeField(name)
	for _, f := range r.OrderFields {
		if normalizeField(f) == want {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q for %s (supported: %s)",
		ErrUnknownOrderField, name, r.Kind, strings.ToLower(strings.Join(r.OrderFields, ", ")))
}

// NextOrder cycles through the order fields: each field descending, then
// ascending, then the next field.
func (r Resource) NextOrder(cur Order) Order {
	if len(r.OrderFields) == 0 {
		return cur
	}
	if cur.Direction == Desc {
		return Order{Field: cur.Field, Direction: Asc}
	}
	for i, f := range r.OrderFields {
		if f == cur.Field {
			return Order{Field: r.OrderFields[(i+1)%len(r.OrderFields)], Direction: Desc}
		}
	}
	return Order{Field: r.OrderFields[0], Direction: Desc}
}

func normalizeField(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c == '_' || c == '-' || unicode.IsSpace(c) {
			continue
		}
		b.WriteRune(unicode.ToLower(c))
	}
	return b.String()
}

// FetchIDPage fetches one page of ids for r.
func FetchIDPage(ctx context.Context, f Fetcher, r Resource, q PageQuery) (IDPage, error) {
	data, err := Query[map[string]Connection[IDNode]](ctx, f, r.IDQuery, r.PageVariables(q))
	if err != nil {
		return IDPage{}, err
	}
	conn := data[string(r.Kind)]
	page := IDPage{
		IDs:         make([]string, 0, len(conn.Edges)),
		HasNextPage: conn.PageInfo.HasNextPage,
		EndCursor:   conn.PageInfo.EndCursor,
		TotalCount:  conn.TotalCount,
	}
	for _, e := range conn.Edges {
		page.IDs = append(page.IDs, e.Node.ID)
	}
	return page, nil
}

// FetchBatch fetches the details of ids in one request. Nodes come back in
// server order; ids that no longer exist are simply absent.
func FetchBatch[N any](ctx context.Context, f Fetcher, r Resource, ids []string) ([]N, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	data, err := Query[map[string]Connection[N]](ctx, f, r.BatchQuery, r.BatchVariables(ids))
	if err != nil {
		return nil, err
	}
	return data[string(r.Kind)].Nodes(), nil
}

// Extractors for detail responses. Each returns nil when the item is gone.

// ExtractHost returns the host of a detail response.
func ExtractHost(resp HostsResponse, _ string) *Host { return resp.Hosts.First() }

// ExtractTask returns the task of a detail response.
func ExtractTask(resp TasksResponse, _ string) *Task { return resp.Tasks.First() }

// ExtractQuest returns the quest of a detail response.
func ExtractQuest(resp QuestsResponse, _ string) *Quest { return resp.Quests.First() }

// ExtractAsset returns the asset of a detail response.
func ExtractAsset(resp AssetsResponse, _ string) *Asset { return resp.Assets.First() }
