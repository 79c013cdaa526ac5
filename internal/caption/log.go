package caption

// Speaker labels shown in the interview UI.
const (
	RoleAssistant = "assistant"
	RoleUser      = "user"

	DefaultAssistantLabel = "Sophie"
	DefaultUserLabel      = "Alex"
)

// Labeler maps speaker roles to display names. Any role other than the
// assistant is shown with the user label.
type Labeler struct {
	Assistant string
	User      string
}

// DefaultLabeler returns the labels used by the interview page.
func DefaultLabeler() Labeler {
	return Labeler{Assistant: DefaultAssistantLabel, User: DefaultUserLabel}
}

// Label returns the display name for role.
func (l Labeler) Label(role string) string {
	if role == RoleAssistant {
		return l.Assistant
	}
	return l.User
}

// Entry is one rendered line of the display log.
type Entry struct {
	Speaker string `json:"speaker"`
	Line
}

// Log is an ordered display log driven by Stabilizer mutations.
// Like the Stabilizer it has a single owner.
type Log struct {
	labels  Labeler
	entries []Entry
}

// NewLog creates an empty log.
func NewLog(labels Labeler) *Log {
	return &Log{labels: labels}
}

// Apply mutates the log and reports whether anything changed. A Replace that
// points outside the log is treated as an Append.
func (l *Log) Apply(m Mutation) bool {
	switch m.Kind {
	case Append:
		l.entries = append(l.entries, l.entry(m.Line))
		return true
	case Replace:
		if m.Index >= 0 && m.Index < len(l.entries) {
			l.entries[m.Index] = l.entry(m.Line)
			return true
		}
		l.entries = append(l.entries, l.entry(m.Line))
		return true
	default:
		return false
	}
}

// Entries returns a copy of the log.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of lines.
func (l *Log) Len() int {
	return len(l.entries)
}

func (l *Log) entry(line Line) Entry {
	return Entry{Speaker: l.labels.Label(line.Role), Line: line}
}
