package focus

// Target identifies a focusable panel. The set is closed.
type Target int

const (
	FileExplorer Target = iota
	Editor
	Chat
	Notifications
)

var targetNames = map[Target]string{
	FileExplorer:  "File Explorer",
	Editor:        "Editor",
	Chat:          "AI Chat",
	Notifications: "Notifications",
}

func (t Target) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}
	return "unknown"
}

// CycleOrder is the fixed order used when cycling focus.
var CycleOrder = []Target{FileExplorer, Editor, Chat, Notifications}

// HitOrder is the priority in which regions are tested for a pointer.
var HitOrder = []Target{FileExplorer, Editor, Notifications, Chat}

// Region is the rectangle a visible panel occupied in one rendered frame.
type Region struct {
	Target Target
	X      int
	Y      int
	Width  int
	Height int
}

func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Frame is the geometry produced by one layout pass.
type Frame struct {
	Seq     uint64
	Width   int
	Height  int
	Regions []Region
}

func (f Frame) Region(t Target) (Region, bool) {
	for _, r := range f.Regions {
		if r.Target == t {
			return r, true
		}
	}
	return Region{}, false
}

func (f Frame) Visible(t Target) bool {
	r, ok := f.Region(t)
	return ok && !r.Empty()
}

func (f Frame) clone() Frame {
	out := f
	out.Regions = append([]Region(nil), f.Regions...)
	return out
}
