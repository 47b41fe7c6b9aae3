// Package events implements the EventClassifier (spec §4.3): it maps
// one decoded JSON value from a host session line into a closed
// tagged union of semantically meaningful event kinds, with a single
// explicit Skipped arm absorbing everything the core does not model.
package events

// Kind identifies which arm of the tagged union an Event carries.
type Kind string

const (
	KindUser       Kind = "user"
	KindAssistant  Kind = "assistant"
	KindToolUse    Kind = "tool_use"
	KindToolResult Kind = "tool_result"
	KindSummary    Kind = "summary"
	KindSystem     Kind = "system"
	KindSkipped    Kind = "skipped"
)

// kindsRequiringSkip are host event types that carry no extractable
// semantic content for this core and are always classified Skipped.
// Spec §4.3 lists these verbatim.
var kindsRequiringSkip = map[string]bool{
	"progress":             true,
	"agent_progress":       true,
	"bash_progress":        true,
	"mcp_progress":         true,
	"hook_progress":        true,
	"base64":               true,
	"image":                true,
	"file-history-snapshot": true,
	"waiting_for_task":     true,
	"create":               true,
	"update":               true,
	"queue-operation":      true,
}

// User is produced from a host "user" event. Content is the literal
// message content, or — when the content is an array of tool_result
// blocks — the newline-joined concatenation of their string content
// (non-string blocks are JSON-stringified first).
type User struct {
	UUID      string
	Content   string
	Timestamp any
	Cwd       string
	GitBranch string
}

// ContentBlock is one block of an assistant message's content array.
// Only Text and ToolUse blocks are kept; Thinking blocks are
// signature-protected and not searchable, so the classifier discards
// them entirely rather than storing a placeholder.
type ContentBlock struct {
	Type    string // "text" or "tool_use"
	Text    string
	ToolUse *ToolUseBlock
}

// ToolUseBlock is the tool_use payload embedded in an Assistant
// content block.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input map[string]any
}

// Assistant is produced from a host "assistant" event.
type Assistant struct {
	UUID          string
	ContentBlocks []ContentBlock
	Model         string
	Usage         map[string]any
	Timestamp     any
}

// ToolUse is derived from each tool_use block inside an assistant
// event, extracted separately so it can be persisted into its own
// tool_uses row.
type ToolUse struct {
	ID        string
	Name      string
	Input     map[string]any
	Timestamp any
}

// ToolResult is derived from each tool_result block inside a user
// event.
type ToolResult struct {
	ToolUseID string
	Content   string
	IsError   bool
	Timestamp any
}

// Summary is produced from a host "summary" event.
type Summary struct {
	Content   string
	LeafUUID  string
	Timestamp any
}

// System is produced from a host "system" event.
type System struct {
	Subtype   string
	Data      map[string]any
	Timestamp any
}

// Skipped marks an event the classifier deliberately did not model:
// an unknown type, a non-object line, a known-but-incomplete event,
// or one of the fixed non-semantic kinds in spec §4.3.
type Skipped struct {
	Reason string
}

// Event is the closed tagged union produced by Classify. Exactly one
// of the typed fields is non-nil, selected by Kind.
type Event struct {
	Kind       Kind
	User       *User
	Assistant  *Assistant
	ToolUse    *ToolUse
	ToolResult *ToolResult
	Summary    *Summary
	System     *System
	Skipped    *Skipped
}

func skip(reason string) Event {
	return Event{Kind: KindSkipped, Skipped: &Skipped{Reason: reason}}
}
