package ide

import (
	"agentide/internal/config"
	"agentide/internal/focus"
)

const (
	headerHeight        = 1
	statusHeight        = 1
	minPanelHeight      = 3
	minEditorWidth      = 20
	maxNotificationRows = 4

	// panelChrome is the border plus the title row of every panel box.
	panelChrome = 3
)

// layoutInput is everything panel geometry depends on. Layout is a pure
// function of it, so the frame committed in Update is exactly what View draws.
type layoutInput struct {
	width         int
	height        int
	sidebarWidth  int
	chatHeight    int
	notifications int
}

// computeLayout places the panels:
//
//	header
//	explorer | editor
//	notifications (hidden while empty)
//	chat
//	status
func computeLayout(in layoutInput) focus.Frame {
	f := focus.Frame{Width: in.width, Height: in.height}
	bodyH := in.height - headerHeight - statusHeight
	if in.width <= 0 || bodyH <= 0 {
		return f
	}
	top := headerHeight

	notifH := 0
	if in.notifications > 0 {
		notifH = min(in.notifications, maxNotificationRows) + panelChrome
	}
	chatH := clamp(config.MinChatHeight, in.chatHeight, config.MaxChatHeight)

	// Shrink from the bottom up until the editor row fits.
	if bodyH-notifH-chatH < minPanelHeight {
		notifH = 0
	}
	if bodyH-chatH < minPanelHeight {
		chatH = bodyH - minPanelHeight
	}
	if chatH < minPanelHeight {
		f.Regions = []focus.Region{{Target: focus.Chat, X: 0, Y: top, Width: in.width, Height: bodyH}}
		return f
	}
	rowH := bodyH - notifH - chatH

	sidebar := clamp(config.MinSidebarWidth, in.sidebarWidth, config.MaxSidebarWidth)
	if in.width-sidebar < minEditorWidth {
		sidebar = 0
	}
	if sidebar > 0 {
		f.Regions = append(f.Regions, focus.Region{Target: focus.FileExplorer, X: 0, Y: top, Width: sidebar, Height: rowH})
	}
	f.Regions = append(f.Regions, focus.Region{Target: focus.Editor, X: sidebar, Y: top, Width: in.width - sidebar, Height: rowH})
	if notifH > 0 {
		f.Regions = append(f.Regions, focus.Region{Target: focus.Notifications, X: 0, Y: top + rowH, Width: in.width, Height: notifH})
	}
	f.Regions = append(f.Regions, focus.Region{Target: focus.Chat, X: 0, Y: top + rowH + notifH, Width: in.width, Height: chatH})
	return f
}

func sameRegions(a, b focus.Frame) bool {
	if a.Width != b.Width || a.Height != b.Height || len(a.Regions) != len(b.Regions) {
		return false
	}
	for i := range a.Regions {
		if a.Regions[i] != b.Regions[i] {
			return false
		}
	}
	return true
}
