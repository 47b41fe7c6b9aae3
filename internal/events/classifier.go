package events

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Classify maps one decoded JSON line to a ClassifiedEvent. line must
// already be valid JSON (StreamingParser is responsible for the
// malformed-JSON case, which never reaches here). Classify never
// returns an error: every input maps to some Event, with Skipped
// absorbing anything that doesn't fit the known kinds.
func Classify(line string) Event {
	if !gjson.Valid(line) {
		return skip("non-object input")
	}
	root := gjson.Parse(line)
	if !root.IsObject() {
		return skip("non-object input")
	}

	typ := root.Get("type").String()
	if typ == "" {
		return skip("missing type")
	}
	if kindsRequiringSkip[typ] {
		return skip("non-semantic kind: " + typ)
	}

	switch typ {
	case "user":
		return classifyUser(root)
	case "assistant":
		return classifyAssistant(root)
	case "summary":
		return classifySummary(root)
	case "system":
		return classifySystem(root)
	default:
		return skip("unknown type: " + typ)
	}
}

func classifyUser(root gjson.Result) Event {
	uuid := root.Get("uuid").String()
	ts := root.Get("timestamp")
	message := root.Get("message")
	if uuid == "" || !ts.Exists() || !message.Exists() {
		return skip("user event missing uuid/timestamp/message")
	}

	content := message.Get("content")
	var text string
	if content.IsArray() {
		text = joinToolResultBlocks(content)
	} else {
		text = content.String()
	}

	return Event{
		Kind: KindUser,
		User: &User{
			UUID:      uuid,
			Content:   text,
			Timestamp: ts.Value(),
			Cwd:       root.Get("cwd").String(),
			GitBranch: root.Get("gitBranch").String(),
		},
	}
}

// joinToolResultBlocks concatenates the string content of tool_result
// blocks found in a user message's content array with newlines. Blocks
// whose content is not already a string are JSON-stringified first.
func joinToolResultBlocks(content gjson.Result) string {
	var parts []string
	for _, block := range content.Array() {
		if block.Get("type").String() != "tool_result" {
			continue
		}
		blockContent := block.Get("content")
		if blockContent.Type == gjson.String {
			parts = append(parts, blockContent.String())
			continue
		}
		if raw, err := json.Marshal(blockContent.Value()); err == nil {
			parts = append(parts, string(raw))
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n"
		}
		out += p
	}
	return out
}

func classifyAssistant(root gjson.Result) Event {
	uuid := root.Get("uuid").String()
	ts := root.Get("timestamp")
	message := root.Get("message")
	if uuid == "" || !ts.Exists() || !message.Exists() {
		return skip("assistant event missing uuid/timestamp/message")
	}

	var blocks []ContentBlock
	for _, b := range message.Get("content").Array() {
		switch b.Get("type").String() {
		case "text":
			blocks = append(blocks, ContentBlock{
				Type: "text",
				Text: b.Get("text").String(),
			})
		case "tool_use":
			input := map[string]any{}
			if m, ok := b.Get("input").Value().(map[string]any); ok {
				input = m
			}
			blocks = append(blocks, ContentBlock{
				Type: "tool_use",
				ToolUse: &ToolUseBlock{
					ID:    b.Get("id").String(),
					Name:  b.Get("name").String(),
					Input: input,
				},
			})
		case "thinking":
			// Signature-protected and not searchable; discarded.
		}
	}

	var usage map[string]any
	if m, ok := message.Get("usage").Value().(map[string]any); ok {
		usage = m
	}

	return Event{
		Kind: KindAssistant,
		Assistant: &Assistant{
			UUID:          uuid,
			ContentBlocks: blocks,
			Model:         message.Get("model").String(),
			Usage:         usage,
			Timestamp:     ts.Value(),
		},
	}
}

func classifySummary(root gjson.Result) Event {
	summary := root.Get("summary")
	ts := root.Get("timestamp")
	if !summary.Exists() || !ts.Exists() {
		return skip("summary event missing summary/timestamp")
	}
	return Event{
		Kind: KindSummary,
		Summary: &Summary{
			Content:   summary.String(),
			LeafUUID:  root.Get("leafUuid").String(),
			Timestamp: ts.Value(),
		},
	}
}

func classifySystem(root gjson.Result) Event {
	subtype := root.Get("subtype")
	ts := root.Get("timestamp")
	if !subtype.Exists() || !ts.Exists() {
		return skip("system event missing subtype/timestamp")
	}
	var data map[string]any
	if m, ok := root.Get("data").Value().(map[string]any); ok {
		data = m
	}
	return Event{
		Kind: KindSystem,
		System: &System{
			Subtype:   subtype.String(),
			Data:      data,
			Timestamp: ts.Value(),
		},
	}
}

// ExtractToolUses pulls each tool_use block out of an already
// classified Assistant event, producing the standalone ToolUse events
// spec §4.3 says are "derived from each tool_use block inside an
// assistant event (extracted separately for tool_uses table)".
func ExtractToolUses(a *Assistant) []ToolUse {
	var out []ToolUse
	for _, b := range a.ContentBlocks {
		if b.Type != "tool_use" || b.ToolUse == nil {
			continue
		}
		out = append(out, ToolUse{
			ID:        b.ToolUse.ID,
			Name:      b.ToolUse.Name,
			Input:     b.ToolUse.Input,
			Timestamp: a.Timestamp,
		})
	}
	return out
}

// ExtractToolResults pulls each tool_result block out of the raw user
// event line, producing the standalone ToolResult events spec §4.3
// describes. Unlike User.Content (which concatenates tool_result
// blocks into a single searchable string), this preserves each
// result's own tool_use_id and error flag for tool_uses status
// transitions.
func ExtractToolResults(line string) []ToolResult {
	root := gjson.Parse(line)
	ts := root.Get("timestamp").Value()
	content := root.Get("message.content")
	if !content.IsArray() {
		return nil
	}

	var out []ToolResult
	for _, block := range content.Array() {
		if block.Get("type").String() != "tool_result" {
			continue
		}
		blockContent := block.Get("content")
		var text string
		if blockContent.Type == gjson.String {
			text = blockContent.String()
		} else if raw, err := json.Marshal(blockContent.Value()); err == nil {
			text = string(raw)
		}
		out = append(out, ToolResult{
			ToolUseID: block.Get("tool_use_id").String(),
			Content:   text,
			IsError:   block.Get("is_error").Bool(),
			Timestamp: ts,
		})
	}
	return out
}
