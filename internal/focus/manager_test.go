package focus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentide/internal/notify"
)

func exampleFrame() Frame {
	return Frame{
		Seq:    1,
		Width:  20,
		Height: 10,
		Regions: []Region{
			{Target: FileExplorer, X: 0, Y: 0, Width: 10, Height: 5},
			{Target: Editor, X: 10, Y: 0, Width: 10, Height: 5},
			{Target: Notifications, X: 0, Y: 5, Width: 20, Height: 5},
		},
	}
}

func TestAssignByPoint(t *testing.T) {
	cases := []struct {
		name   string
		x, y   int
		want   Target
		wantOK bool
	}{
		{name: "explorer", x: 5, y: 2, want: FileExplorer, wantOK: true},
		{name: "editor", x: 15, y: 2, want: Editor, wantOK: true},
		{name: "notifications", x: 5, y: 6, want: Notifications, wantOK: true},
		{name: "outside", x: 25, y: 25, want: Chat, wantOK: false},
		{name: "right edge is exclusive", x: 20, y: 2, want: Chat, wantOK: false},
		{name: "left edge is inclusive", x: 10, y: 0, want: Editor, wantOK: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := notify.NewSink(10)
			m := NewManager(Chat, sink)
			m.Commit(exampleFrame())
			// Chat has no region in this frame, so Commit repairs focus first.
			require.Equal(t, FileExplorer, m.Current())
			m.current = Chat

			got, ok := m.AssignByPoint(tc.x, tc.y)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want, m.Current())
		})
	}
}

func TestAssignByPointEmitsClickNotification(t *testing.T) {
	sink := notify.NewSink(10)
	m := NewManager(FileExplorer, sink)
	m.Commit(exampleFrame())

	_, ok := m.AssignByPoint(15, 2)
	require.True(t, ok)

	latest := sink.Latest(1)
	require.Len(t, latest, 1)
	assert.Equal(t, notify.KindMouseClick, latest[0].Kind)
	assert.Contains(t, latest[0].Message, "Editor")
	assert.Contains(t, latest[0].Message, "(15, 2)")

	before := sink.Len()
	_, ok = m.AssignByPoint(99, 99)
	assert.False(t, ok)
	assert.Equal(t, before, sink.Len(), "a miss must not notify")
}

func TestHitTestUsesOnlyLatestFrame(t *testing.T) {
	m := NewManager(FileExplorer, nil)
	m.Commit(exampleFrame())

	next := Frame{Seq: 2, Regions: []Region{
		{Target: FileExplorer, X: 0, Y: 0, Width: 4, Height: 10},
		{Target: Editor, X: 4, Y: 0, Width: 16, Height: 10},
	}}
	m.Commit(next)

	got, ok := m.TargetAt(5, 6)
	require.True(t, ok)
	assert.Equal(t, Editor, got, "stale notifications region must not be consulted")
}

func TestCommitCopiesRegions(t *testing.T) {
	m := NewManager(FileExplorer, nil)
	f := exampleFrame()
	m.Commit(f)
	f.Regions[0].Width = 0

	assert.True(t, m.Visible(FileExplorer))
}

func TestCycleSkipsHiddenPanels(t *testing.T) {
	m := NewManager(FileExplorer, nil)
	m.Commit(Frame{Regions: []Region{
		{Target: FileExplorer, X: 0, Y: 0, Width: 10, Height: 10},
		{Target: Editor, X: 10, Y: 0, Width: 10, Height: 10},
		{Target: Chat, X: 0, Y: 10, Width: 10, Height: 5},
	}})

	assert.Equal(t, Editor, m.Cycle())
	assert.Equal(t, Chat, m.Cycle())
	assert.Equal(t, FileExplorer, m.Cycle(), "cycle wraps and skips hidden notifications")
}

func TestCommitResetsHiddenFocus(t *testing.T) {
	sink := notify.NewSink(10)
	m := NewManager(Notifications, sink)
	m.Commit(exampleFrame())
	require.Equal(t, Notifications, m.Current())

	m.Commit(Frame{Regions: []Region{
		{Target: FileExplorer, X: 0, Y: 0, Width: 10, Height: 10},
		{Target: Editor, X: 10, Y: 0, Width: 10, Height: 10},
	}})

	assert.Equal(t, FileExplorer, m.Current())
	latest := sink.Latest(1)
	require.Len(t, latest, 1)
	assert.Equal(t, notify.KindDebug, latest[0].Kind)
}

func TestFocusRejectsHiddenTarget(t *testing.T) {
	m := NewManager(FileExplorer, nil)
	m.Commit(exampleFrame())

	assert.False(t, m.Focus(Chat))
	assert.Equal(t, FileExplorer, m.Current())
	assert.True(t, m.Focus(Editor))
	assert.Equal(t, Editor, m.Current())
}

func TestNoFrameMeansNoHits(t *testing.T) {
	m := NewManager(Editor, nil)
	_, ok := m.TargetAt(0, 0)
	assert.False(t, ok)
	assert.Equal(t, Editor, m.Cycle())
}
