package tavern

import "time"

// PageInfo is the relay page info of a connection.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// Edge wraps one connection node.
type Edge[N any] struct {
	Node N `json:"node"`
}

// Connection is a relay connection. Fields the query did not select stay
// zero.
type Connection[N any] struct {
	PageInfo   PageInfo  `json:"pageInfo"`
	TotalCount int       `json:"totalCount"`
	Edges      []Edge[N] `json:"edges"`
}

// Nodes returns the nodes in edge order.
func (c Connection[N]) Nodes() []N {
	nodes := make([]N, 0, len(c.Edges))
	for _, e := range c.Edges {
		nodes = append(nodes, e.Node)
	}
	return nodes
}

// First returns the first node, or nil for an empty connection.
func (c Connection[N]) First() *N {
	if len(c.Edges) == 0 {
		return nil
	}
	n := c.Edges[0].Node
	return &n
}

// Count is a connection where only totalCount was selected.
type Count struct {
	TotalCount int `json:"totalCount"`
}

// IDNode is the node shape of id page queries.
type IDNode struct {
	ID string `json:"id"`
}

// User is a Tavern operator.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsAdmin  bool   `json:"isAdmin"`
	PhotoURL string `json:"photoURL,omitempty"`
}

// Beacon is an implant callback on a host.
type Beacon struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Principal  string     `json:"principal"`
	Interval   int        `json:"interval"`
	LastSeenAt *time.Time `json:"lastSeenAt"`
}

// Host is a machine with one or more beacons.
type Host struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Identifier string             `json:"identifier"`
	PrimaryIP  string             `json:"primaryIP"`
	Platform   string             `json:"platform"`
	LastSeenAt *time.Time         `json:"lastSeenAt"`
	Tags       Connection[Tag]    `json:"tags"`
	Beacons    Connection[Beacon] `json:"beacons"`
}

// Tag is a host group or service label.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Tome is a quest template.
type Tome struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QuestRef is the quest summary embedded in a task.
type QuestRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tome *Tome  `json:"tome"`
}

// TaskBeacon is the beacon summary embedded in a task.
type TaskBeacon struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Principal string `json:"principal"`
	Host      *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"host"`
}

// Task is one quest execution on one beacon.
type Task struct {
	ID             string      `json:"id"`
	CreatedAt      time.Time   `json:"createdAt"`
	LastModifiedAt time.Time   `json:"lastModifiedAt"`
	ClaimedAt      *time.Time  `json:"claimedAt"`
	ExecStartedAt  *time.Time  `json:"execStartedAt"`
	ExecFinishedAt *time.Time  `json:"execFinishedAt"`
	OutputSize     int         `json:"outputSize"`
	Output         string      `json:"output,omitempty"`
	Error          string      `json:"error,omitempty"`
	Quest          *QuestRef   `json:"quest"`
	Beacon         *TaskBeacon `json:"beacon"`
}

// Quest is a tome run against a set of beacons.
type Quest struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	CreatedAt       time.Time              `json:"createdAt"`
	Tome            *Tome                  `json:"tome"`
	Creator         *User                  `json:"creator"`
	TasksTotal      Count                  `json:"tasksTotal"`
	TasksFinished   Count                  `json:"tasksFinished"`
	TasksOutput     Count                  `json:"tasksOutput"`
	TasksError      Count                  `json:"tasksError"`
	LastUpdatedTask Connection[TaskUpdate] `json:"lastUpdatedTask"`
}

// TaskUpdate is the task shape used for a quest's last activity.
type TaskUpdate struct {
	LastModifiedAt time.Time `json:"lastModifiedAt"`
}

// LastUpdated returns the most recent task modification, if any.
func (q Quest) LastUpdated() *time.Time {
	if t := q.LastUpdatedTask.First(); t != nil {
		return &t.LastModifiedAt
	}
	return nil
}

// Link is a download link for an asset.
type Link struct {
	ID                 string     `json:"id"`
	Path               string     `json:"path"`
	ExpiresAt          *time.Time `json:"expiresAt"`
	DownloadsRemaining int        `json:"downloadsRemaining"`
}

// Asset is a file stored by Tavern.
type Asset struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Size           int64            `json:"size"`
	Hash           string           `json:"hash"`
	CreatedAt      time.Time        `json:"createdAt"`
	LastModifiedAt time.Time        `json:"lastModifiedAt"`
	Creator        *User            `json:"creator"`
	Tomes          Count            `json:"tomes"`
	Links          Connection[Link] `json:"links"`
}

// Detail responses: one connection per resource, keyed by the query field.
type (
	HostsResponse  struct{ Hosts Connection[Host] `json:"hosts"` }
	TasksResponse  struct{ Tasks Connection[Task] `json:"tasks"` }
	QuestsResponse struct{ Quests Connection[Quest] `json:"quests"` }
	AssetsResponse struct{ Assets Connection[Asset] `json:"assets"` }
)
