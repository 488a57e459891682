package ide

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"agentide/internal/config"
	"agentide/internal/focus"
)

func TestComputeLayout(t *testing.T) {
	cases := []struct {
		name string
		in   layoutInput
		want []focus.Region
	}{
		{
			name: "full layout without notifications",
			in:   layoutInput{width: 120, height: 40, sidebarWidth: 30, chatHeight: 12},
			want: []focus.Region{
				{Target: focus.FileExplorer, X: 0, Y: 1, Width: 30, Height: 26},
				{Target: focus.Editor, X: 30, Y: 1, Width: 90, Height: 26},
				{Target: focus.Chat, X: 0, Y: 27, Width: 120, Height: 12},
			},
		},
		{
			name: "notifications strip above chat",
			in:   layoutInput{width: 120, height: 40, sidebarWidth: 30, chatHeight: 12, notifications: 2},
			want: []focus.Region{
				{Target: focus.FileExplorer, X: 0, Y: 1, Width: 30, Height: 21},
				{Target: focus.Editor, X: 30, Y: 1, Width: 90, Height: 21},
				{Target: focus.Notifications, X: 0, Y: 22, Width: 120, Height: 5},
				{Target: focus.Chat, X: 0, Y: 27, Width: 120, Height: 12},
			},
		},
		{
			name: "notification rows are capped",
			in:   layoutInput{width: 120, height: 40, sidebarWidth: 30, chatHeight: 12, notifications: 50},
			want: []focus.Region{
				{Target: focus.FileExplorer, X: 0, Y: 1, Width: 30, Height: 19},
				{Target: focus.Editor, X: 30, Y: 1, Width: 90, Height: 19},
				{Target: focus.Notifications, X: 0, Y: 20, Width: 120, Height: 7},
				{Target: focus.Chat, X: 0, Y: 27, Width: 120, Height: 12},
			},
		},
		{
			name: "narrow terminal hides the explorer",
			in:   layoutInput{width: 45, height: 40, sidebarWidth: 30, chatHeight: 12},
			want: []focus.Region{
				{Target: focus.Editor, X: 0, Y: 1, Width: 45, Height: 26},
				{Target: focus.Chat, X: 0, Y: 27, Width: 45, Height: 12},
			},
		},
		{
			name: "short terminal shrinks chat",
			in:   layoutInput{width: 80, height: 10, sidebarWidth: 30, chatHeight: 12, notifications: 3},
			want: []focus.Region{
				{Target: focus.FileExplorer, X: 0, Y: 1, Width: 30, Height: 3},
				{Target: focus.Editor, X: 30, Y: 1, Width: 50, Height: 3},
				{Target: focus.Chat, X: 0, Y: 4, Width: 80, Height: 5},
			},
		},
		{
			name: "tiny terminal shows chat only",
			in:   layoutInput{width: 80, height: 6, sidebarWidth: 30, chatHeight: 12},
			want: []focus.Region{
				{Target: focus.Chat, X: 0, Y: 1, Width: 80, Height: 4},
			},
		},
		{
			name: "no size yet",
			in:   layoutInput{sidebarWidth: 30, chatHeight: 12},
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := computeLayout(tc.in)
			if diff := cmp.Diff(tc.want, got.Regions); diff != "" {
				t.Fatalf("regions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputeLayoutRegionsNeverOverlap(t *testing.T) {
	for w := 1; w <= 200; w += 7 {
		for h := 1; h <= 60; h += 3 {
			for n := 0; n <= 6; n += 3 {
				in := layoutInput{width: w, height: h, sidebarWidth: config.DefaultSidebarWidth, chatHeight: config.DefaultChatHeight, notifications: n}
				f := computeLayout(in)
				for i, a := range f.Regions {
					assert.False(t, a.Empty(), "%+v: empty region %v", in, a)
					assert.GreaterOrEqual(t, a.X, 0)
					assert.GreaterOrEqual(t, a.Y, headerHeight)
					assert.LessOrEqual(t, a.X+a.Width, w, "%+v: %v exceeds width", in, a)
					assert.LessOrEqual(t, a.Y+a.Height, h-statusHeight, "%+v: %v exceeds height", in, a)
					for _, b := range f.Regions[i+1:] {
						overlap := a.X < b.X+b.Width && b.X < a.X+a.Width && a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
						assert.False(t, overlap, "%+v: %v overlaps %v", in, a, b)
					}
				}
				if h > headerHeight+statusHeight {
					assert.True(t, f.Visible(focus.Chat), "%+v: chat hidden", in)
				}
			}
		}
	}
}

func TestComputeLayoutClampsInputs(t *testing.T) {
	f := computeLayout(layoutInput{width: 200, height: 60, sidebarWidth: 500, chatHeight: 1})
	explorer, ok := f.Region(focus.FileExplorer)
	assert.True(t, ok)
	assert.Equal(t, config.MaxSidebarWidth, explorer.Width)
	chat, ok := f.Region(focus.Chat)
	assert.True(t, ok)
	assert.Equal(t, config.MinChatHeight, chat.Height)
}

func TestSameRegions(t *testing.T) {
	a := computeLayout(layoutInput{width: 100, height: 30, sidebarWidth: 30, chatHeight: 10})
	b := computeLayout(layoutInput{width: 100, height: 30, sidebarWidth: 30, chatHeight: 10})
	b.Seq = 7
	assert.True(t, sameRegions(a, b))

	c := computeLayout(layoutInput{width: 100, height: 30, sidebarWidth: 32, chatHeight: 10})
	assert.False(t, sameRegions(a, c))
}
