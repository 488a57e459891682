package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentide/internal/focus"
	"agentide/internal/notify"
)

func TestControllerTransitions(t *testing.T) {
	cases := []struct {
		name    string
		start   Mode
		req     Request
		focused focus.Target
		want    Mode
		changed bool
	}{
		{"toggle normal to agentic", Normal, ToggleAgentic, focus.Chat, Agentic, true},
		{"toggle agentic to normal", Agentic, ToggleAgentic, focus.FileExplorer, Normal, true},
		{"toggle from notifications", Normal, ToggleAgentic, focus.Notifications, Agentic, true},
		{"insert needs editor", Normal, EnterInsert, focus.Chat, Normal, false},
		{"insert from editor", Normal, EnterInsert, focus.Editor, Insert, true},
		{"insert from agentic ignored", Agentic, EnterInsert, focus.Editor, Agentic, false},
		{"cancel insert", Insert, Cancel, focus.Editor, Normal, true},
		{"cancel in normal ignored", Normal, Cancel, focus.Editor, Normal, false},
		{"cancel in agentic ignored", Agentic, Cancel, focus.Editor, Agentic, false},
		{"toggle from insert ignored", Insert, ToggleAgentic, focus.Editor, Insert, false},
		{"unknown request ignored", Normal, Request(42), focus.Editor, Normal, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := notify.NewSink(10)
			c := NewController(sink)
			c.current = tc.start

			changed := c.Apply(tc.req, tc.focused)
			assert.Equal(t, tc.changed, changed)
			assert.Equal(t, tc.want, c.Current())
			if tc.changed {
				require.Equal(t, 1, sink.Len())
				entry := sink.Snapshot()[0]
				assert.Equal(t, notify.KindInfo, entry.Kind)
				assert.Contains(t, entry.Message, tc.want.String())
			} else {
				assert.Equal(t, 0, sink.Len(), "no-op transitions must not notify")
			}
		})
	}
}

func TestControllerStartsNormal(t *testing.T) {
	assert.Equal(t, Normal, NewController(nil).Current())
}

func TestControllerToggleRepeatedly(t *testing.T) {
	c := NewController(nil)
	for i := 0; i < 5; i++ {
		require.True(t, c.ToggleAgentic(focus.Editor))
	}
	assert.Equal(t, Agentic, c.Current())
}

func TestControllerReset(t *testing.T) {
	sink := notify.NewSink(10)
	c := NewController(sink)
	require.True(t, c.EnterInsert(focus.Editor))
	c.Reset()
	assert.Equal(t, Normal, c.Current())
	assert.Equal(t, 2, sink.Len())

	c.Reset()
	assert.Equal(t, 2, sink.Len())
}
