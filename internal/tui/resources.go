package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rshade/beacondash/internal/tavern"
	"github.com/rshade/beacondash/internal/tui/detail"
	listview "github.com/rshade/beacondash/internal/tui/list"
)

// resourceSpec binds a Tavern resource to its row type T and the detail
// response R a row fetch decodes.
type resourceSpec[T, R any] struct {
	resource tavern.Resource
	extract  detail.ExtractFunc[T, R]
	id       func(item T) string

	// columns builds the table columns; now drives relative times.
	columns func(now func() time.Time) []listview.Column[T]

	// expand, when set, renders the expanded content of a row.
	expand func(item T, now time.Time) string

	// expandable reports whether a row has expanded content.
	expandable func(item T) bool

	// title names an item in the detail pane header.
	title func(item T) string

	// describe renders the detail pane.
	describe func(item T, now time.Time) string

	emptyText string
}

func mustLookup(kind tavern.Kind) tavern.Resource {
	r, err := tavern.Lookup(kind)
	if err != nil {
		panic(err)
	}
	return r
}

func hostSpec() resourceSpec[tavern.Host, tavern.HostsResponse] {
	return resourceSpec[tavern.Host, tavern.HostsResponse]{
		resource: mustLookup(tavern.KindHosts),
		extract:  tavern.ExtractHost,
		id:       func(h tavern.Host) string { return h.ID },
		columns: func(now func() time.Time) []listview.Column[tavern.Host] {
			return []listview.Column[tavern.Host]{
				{Key: "name", Label: "Host", Width: "minmax(12,2fr)", Render: func(h tavern.Host) string { return h.Name }},
				{Key: "ip", Label: "Primary IP", Width: "16", Render: func(h tavern.Host) string { return orDash(h.PrimaryIP) }},
				{Key: "platform", Label: "Platform", Width: "12", Render: func(h tavern.Host) string { return platformLabel(h.Platform) }},
				{Key: "beacons", Label: "Beacons", Width: "10", Render: func(h tavern.Host) string {
					online, offline := h.BeaconStatus(now())
					return beaconBadge(online, online+offline)
				}},
				{Key: "principals", Label: "Principals", Width: "minmax(10,1fr)", Render: func(h tavern.Host) string {
					return orDash(strings.Join(h.Principals(), ", "))
				}},
				{Key: "last_seen", Label: "Last seen", Width: "10", Render: func(h tavern.Host) string {
					return FormatRelative(now(), h.LastSeenAt)
				}},
			}
		},
		expandable: func(h tavern.Host) bool { return len(h.Beacons.Edges) > 0 },
		expand:     renderHostBeacons,
		title:      func(h tavern.Host) string { return h.Name },
		describe:   describeHost,
		emptyText:  "No hosts match.",
	}
}

func taskSpec() resourceSpec[tavern.Task, tavern.TasksResponse] {
	return resourceSpec[tavern.Task, tavern.TasksResponse]{
		resource: mustLookup(tavern.KindTasks),
		extract:  tavern.ExtractTask,
		id:       func(t tavern.Task) string { return t.ID },
		columns: func(now func() time.Time) []listview.Column[tavern.Task] {
			return []listview.Column[tavern.Task]{
				{Key: "quest", Label: "Quest", Width: "minmax(12,2fr)", Render: func(t tavern.Task) string {
					if t.Quest == nil {
						return placeholder
					}
					return t.Quest.Name
				}},
				{Key: "tome", Label: "Tome", Width: "minmax(10,1fr)", Render: taskTome},
				{Key: "beacon", Label: "Beacon", Width: "minmax(10,1fr)", Render: taskBeacon},
				{Key: "status", Label: "Status", Width: "9", Render: func(t tavern.Task) string { return statusBadge(t.Status()) }},
				{Key: "output", Label: "Output", Width: "10", Render: func(t tavern.Task) string {
					return FormatBytes(int64(t.OutputSize))
				}},
				{Key: "modified", Label: "Modified", Width: "10", Render: func(t tavern.Task) string {
					return FormatRelative(now(), &t.LastModifiedAt)
				}},
			}
		},
		title: func(t tavern.Task) string {
			if t.Quest != nil {
				return t.Quest.Name + " / " + taskBeacon(t)
			}
			return "Task " + t.ID
		},
		describe:  describeTask,
		emptyText: "No tasks match.",
	}
}

func questSpec() resourceSpec[tavern.Quest, tavern.QuestsResponse] {
	return resourceSpec[tavern.Quest, tavern.QuestsResponse]{
		resource: mustLookup(tavern.KindQuests),
		extract:  tavern.ExtractQuest,
		id:       func(q tavern.Quest) string { return q.ID },
		columns: func(now func() time.Time) []listview.Column[tavern.Quest] {
			return []listview.Column[tavern.Quest]{
				{Key: "name", Label: "Quest", Width: "minmax(12,2fr)", Render: func(q tavern.Quest) string { return q.Name }},
				{Key: "tome", Label: "Tome", Width: "minmax(10,1fr)", Render: func(q tavern.Quest) string {
					if q.Tome == nil {
						return placeholder
					}
					return q.Tome.Name
				}},
				{Key: "creator", Label: "Creator", Width: "12", Render: func(q tavern.Quest) string { return userName(q.Creator) }},
				{Key: "finished", Label: "Finished", Width: "11", Render: func(q tavern.Quest) string {
					return FormatRatio(q.TasksFinished.TotalCount, q.TasksTotal.TotalCount)
				}},
				{Key: "output", Label: "Output", Width: "7", Render: func(q tavern.Quest) string {
					return FormatNumber(int64(q.TasksOutput.TotalCount))
				}},
				{Key: "errors", Label: "Errors", Width: "7", Render: func(q tavern.Quest) string {
					if q.TasksError.TotalCount > 0 {
						return ErrorStyle.Render(FormatNumber(int64(q.TasksError.TotalCount)))
					}
					return "0"
				}},
				{Key: "updated", Label: "Updated", Width: "10", Render: func(q tavern.Quest) string {
					if t := q.LastUpdated(); t != nil {
						return FormatRelative(now(), t)
					}
					return FormatRelative(now(), &q.CreatedAt)
				}},
			}
		},
		title:     func(q tavern.Quest) string { return q.Name },
		describe:  describeQuest,
		emptyText: "No quests match.",
	}
}

func assetSpec() resourceSpec[tavern.Asset, tavern.AssetsResponse] {
	return resourceSpec[tavern.Asset, tavern.AssetsResponse]{
		resource: mustLookup(tavern.KindAssets),
		extract:  tavern.ExtractAsset,
		id:       func(a tavern.Asset) string { return a.ID },
		columns: func(now func() time.Time) []listview.Column[tavern.Asset] {
			return []listview.Column[tavern.Asset]{
				{Key: "name", Label: "Asset", Width: "minmax(12,2fr)", Render: func(a tavern.Asset) string { return a.Name }},
				{Key: "size", Label: "Size", Width: "10", Render: func(a tavern.Asset) string { return FormatBytes(a.Size) }},
				{Key: "hash", Label: "Hash", Width: "12", Render: func(a tavern.Asset) string { return shortHash(a.Hash) }},
				{Key: "tomes", Label: "Tomes", Width: "6", Render: func(a tavern.Asset) string {
					return FormatNumber(int64(a.Tomes.TotalCount))
				}},
				{Key: "links", Label: "Links", Width: "6", Render: func(a tavern.Asset) string {
					return FormatNumber(int64(a.Links.TotalCount))
				}},
				{Key: "creator", Label: "Creator", Width: "12", Render: func(a tavern.Asset) string { return userName(a.Creator) }},
				{Key: "created", Label: "Created", Width: "10", Render: func(a tavern.Asset) string {
					return FormatRelative(now(), &a.CreatedAt)
				}},
			}
		},
		expandable: func(a tavern.Asset) bool { return len(a.Links.Edges) > 0 },
		expand:     renderAssetLinks,
		title:      func(a tavern.Asset) string { return a.Name },
		describe:   describeAsset,
		emptyText:  "No assets match.",
	}
}

func platformLabel(p string) string {
	p = strings.TrimPrefix(p, "PLATFORM_")
	if p == "" || p == "UNSPECIFIED" {
		return placeholder
	}
	return strings.ToLower(p)
}

func beaconBadge(online, total int) string {
	s := fmt.Sprintf("%d/%d", online, total)
	switch {
	case total == 0:
		return SubtleStyle.Render(s)
	case online == 0:
		return ErrorStyle.Render(s)
	case online < total:
		return WarnStyle.Render(s)
	default:
		return OKStyle.Render(s)
	}
}

func statusBadge(s tavern.TaskStatus) string {
	switch s {
	case tavern.TaskFinished:
		return OKStyle.Render(string(s))
	case tavern.TaskFailed:
		return ErrorStyle.Render(string(s))
	case tavern.TaskRunning, tavern.TaskClaimed:
		return WarnStyle.Render(string(s))
	default:
		return SubtleStyle.Render(string(s))
	}
}

func taskTome(t tavern.Task) string {
	if t.Quest == nil || t.Quest.Tome == nil {
		return placeholder
	}
	return t.Quest.Tome.Name
}

func taskBeacon(t tavern.Task) string {
	if t.Beacon == nil {
		return placeholder
	}
	if t.Beacon.Host != nil {
		return t.Beacon.Name + "@" + t.Beacon.Host.Name
	}
	return t.Beacon.Name
}

func userName(u *tavern.User) string {
	if u == nil {
		return placeholder
	}
	return orDash(u.Name)
}

func renderHostBeacons(h tavern.Host, now time.Time) string {
	var b strings.Builder
	for _, beacon := range h.Beacons.Nodes() {
		state := OKStyle.Render("online ")
		if !beacon.Online(now) {
			state = ErrorStyle.Render("offline")
		}
		fmt.Fprintf(&b, "%s  %-24s %-12s every %-6s seen %s\n",
			state, beacon.Name, orDash(beacon.Principal),
			(time.Duration(beacon.Interval) * time.Second).String(),
			FormatRelative(now, beacon.LastSeenAt))
	}
	return b.String()
}

func renderAssetLinks(a tavern.Asset, now time.Time) string {
	var b strings.Builder
	for _, l := range a.Links.Nodes() {
		expires := "never expires"
		if l.ExpiresAt != nil {
			expires = "expires " + FormatRelative(now, l.ExpiresAt)
		}
		fmt.Fprintf(&b, "/%s  %s downloads left, %s\n",
			strings.TrimPrefix(l.Path, "/"), strconv.Itoa(l.DownloadsRemaining), expires)
	}
	return b.String()
}

// fieldList writes aligned label/value lines.
type fieldList struct {
	b strings.Builder
}

func (f *fieldList) add(label, value string) {
	f.b.WriteString(LabelStyle.Render(fmt.Sprintf("%-14s", label)))
	f.b.WriteString(ValueStyle.Render(orDash(value)))
	f.b.WriteString("\n")
}

func (f *fieldList) section(title string) {
	f.b.WriteString("\n")
	f.b.WriteString(HeaderStyle.Render(title))
	f.b.WriteString("\n")
}

func (f *fieldList) raw(s string) {
	f.b.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		f.b.WriteString("\n")
	}
}

func (f *fieldList) String() string { return f.b.String() }

func describeHost(h tavern.Host, now time.Time) string {
	var f fieldList
	f.add("Name", h.Name)
	f.add("ID", h.ID)
	f.add("Identifier", h.Identifier)
	f.add("Primary IP", h.PrimaryIP)
	f.add("Platform", platformLabel(h.Platform))
	f.add("Last seen", FormatTimestamp(h.LastSeenAt)+" ("+FormatRelative(now, h.LastSeenAt)+")")

	tags := make([]string, 0, len(h.Tags.Edges))
	for _, t := range h.Tags.Nodes() {
		tags = append(tags, t.Name+" ("+strings.ToLower(t.Kind)+")")
	}
	f.add("Tags", strings.Join(tags, ", "))

	online, offline := h.BeaconStatus(now)
	f.section(fmt.Sprintf("Beacons (%d online, %d offline)", online, offline))
	f.raw(renderHostBeacons(h, now))
	return f.String()
}

func describeTask(t tavern.Task, now time.Time) string {
	var f fieldList
	f.add("ID", t.ID)
	if t.Quest != nil {
		f.add("Quest", t.Quest.Name)
	}
	f.add("Tome", taskTome(t))
	f.add("Beacon", taskBeacon(t))
	if t.Beacon != nil {
		f.add("Principal", t.Beacon.Principal)
	}
	f.add("Status", string(t.Status()))
	f.add("Created", FormatTimestamp(&t.CreatedAt))
	f.add("Claimed", FormatTimestamp(t.ClaimedAt))
	f.add("Started", FormatTimestamp(t.ExecStartedAt))
	f.add("Finished", FormatTimestamp(t.ExecFinishedAt))
	f.add("Modified", FormatRelative(now, &t.LastModifiedAt))
	f.add("Output size", FormatBytes(int64(t.OutputSize)))

	if t.Error != "" {
		f.section("Error")
		f.raw(ErrorStyle.Render(t.Error))
	}
	if t.Output != "" {
		f.section("Output")
		f.raw(t.Output)
	}
	return f.String()
}

func describeQuest(q tavern.Quest, now time.Time) string {
	var f fieldList
	f.add("Name", q.Name)
	f.add("ID", q.ID)
	if q.Tome != nil {
		f.add("Tome", q.Tome.Name)
	}
	f.add("Creator", userName(q.Creator))
	f.add("Created", FormatTimestamp(&q.CreatedAt)+" ("+FormatRelative(now, &q.CreatedAt)+")")
	f.add("Last update", FormatRelative(now, q.LastUpdated()))

	f.section("Tasks")
	f.add("Total", FormatNumber(int64(q.TasksTotal.TotalCount)))
	f.add("Finished", FormatRatio(q.TasksFinished.TotalCount, q.TasksTotal.TotalCount))
	f.add("With output", FormatNumber(int64(q.TasksOutput.TotalCount)))
	f.add("With errors", FormatNumber(int64(q.TasksError.TotalCount)))
	return f.String()
}

func describeAsset(a tavern.Asset, now time.Time) string {
	var f fieldList
	f.add("Name", a.Name)
	f.add("ID", a.ID)
	f.add("Size", FormatBytes(a.Size)+" ("+FormatNumber(a.Size)+" bytes)")
	f.add("Hash", a.Hash)
	f.add("Creator", userName(a.Creator))
	f.add("Created", FormatTimestamp(&a.CreatedAt))
	f.add("Modified", FormatRelative(now, &a.LastModifiedAt))
	f.add("Tomes", FormatNumber(int64(a.Tomes.TotalCount)))

	f.section(fmt.Sprintf("Links (%d)", a.Links.TotalCount))
	f.raw(renderAssetLinks(a, now))
	return f.String()
}
