package action

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParseError describes one malformed action block. Offset is the byte offset
// of the block's opening fence.
type ParseError struct {
	Offset int
	Line   int
	Name   string
	Reason string
}

func (e ParseError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Name, e.Reason)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Parsed holds the outcome of parsing one AI response.
type Parsed struct {
	Actions []*Action
	Errors  []ParseError
}

// Item is either an action or a parse error, used to walk both in text order.
type Item struct {
	Offset int
	Action *Action
	Err    *ParseError
}

// Items merges actions and errors back into their original textual order.
func (p Parsed) Items() []Item {
	items := make([]Item, 0, len(p.Actions)+len(p.Errors))
	for _, a := range p.Actions {
		items = append(items, Item{Offset: a.Offset, Action: a})
	}
	for i := range p.Errors {
		items = append(items, Item{Offset: p.Errors[i].Offset, Err: &p.Errors[i]})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Offset < items[j].Offset })
	return items
}

type line struct {
	text   string
	offset int
	number int
}

func splitLines(text string) []line {
	var out []line
	offset := 0
	number := 1
	for offset <= len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		if end < 0 {
			if offset < len(text) {
				out = append(out, line{text: strings.TrimSuffix(text[offset:], "\r"), offset: offset, number: number})
			}
			break
		}
		out = append(out, line{text: strings.TrimSuffix(text[offset:offset+end], "\r"), offset: offset, number: number})
		offset += end + 1
		number++
	}
	return out
}

// fence reports the backtick run and info string of a fence line.
func fence(s string) (ticks int, info string, ok bool) {
	t := strings.TrimSpace(s)
	for ticks < len(t) && t[ticks] == '`' {
		ticks++
	}
	if ticks < 3 {
		return 0, "", false
	}
	return ticks, strings.ToLower(strings.TrimSpace(t[ticks:])), true
}

func isActionInfo(info string) bool {
	return info == "action" || info == "agent"
}

// Parse scans text for fenced action blocks. Prose and unrelated code fences
// are ignored; every malformed action block becomes a ParseError and parsing
// continues with the next block.
func Parse(text string) Parsed {
	var out Parsed
	lines := splitLines(text)
	for i := 0; i < len(lines); i++ {
		ticks, info, ok := fence(lines[i].text)
		if !ok {
			continue
		}
		open := lines[i]
		end := closingFence(lines, i+1, ticks, isActionInfo(info))
		if end < 0 {
			if isActionInfo(info) || info == "json" {
				out.Errors = append(out.Errors, ParseError{
					Offset: open.offset,
					Line:   open.number,
					Reason: "unterminated " + info + " block",
				})
			}
			break
		}
		body := lines[i+1 : end]
		switch {
		case isActionInfo(info):
			a, perr := parseBlock(body)
			if perr != nil {
				perr.Offset = open.offset
				perr.Line = open.number
				out.Errors = append(out.Errors, *perr)
			} else if a != nil {
				a.Offset = open.offset
				out.Actions = append(out.Actions, a)
			}
		case info == "json":
			actions, perrs := parseJSONBlock(body)
			for _, perr := range perrs {
				perr.Offset = open.offset
				perr.Line = open.number
				out.Errors = append(out.Errors, perr)
			}
			for _, a := range actions {
				a.Offset = open.offset
				out.Actions = append(out.Actions, a)
			}
		}
		i = end
	}
	return out
}

// closingFence returns the index of the fence that closes a block opened with
// ticks backticks, or -1. In action blocks a heredoc body is opaque, so a
// Markdown sample inside content<<TAG ... TAG does not end the block. A
// heredoc whose tag never appears is scanned like ordinary lines.
func closingFence(lines []line, from, ticks int, heredocs bool) int {
	for j := from; j < len(lines); j++ {
		if heredocs {
			if _, tag, ok := heredocStart(lines[j].text); ok {
				if k := findTag(lines, j+1, tag); k >= 0 {
					j = k
					continue
				}
			}
		}
		closeTicks, closeInfo, isFence := fence(lines[j].text)
		if isFence && closeInfo == "" && closeTicks >= ticks {
			return j
		}
	}
	return -1
}

// heredocStart recognizes a key<<TAG parameter line.
func heredocStart(raw string) (key, tag string, ok bool) {
	key, tag, ok = strings.Cut(raw, "<<")
	key = strings.TrimSpace(key)
	if !ok || !validKey(key) {
		return "", "", false
	}
	return key, strings.TrimSpace(tag), true
}

func findTag(lines []line, from int, tag string) int {
	if tag == "" {
		return -1
	}
	for k := from; k < len(lines); k++ {
		if strings.TrimSpace(lines[k].text) == tag {
			return k
		}
	}
	return -1
}

func parseBlock(body []line) (*Action, *ParseError) {
	start := 0
	for start < len(body) && strings.TrimSpace(body[start].text) == "" {
		start++
	}
	if start == len(body) {
		return nil, &ParseError{Reason: "empty action block"}
	}
	head, err := SplitWords(strings.TrimSpace(body[start].text))
	if err != nil {
		return nil, &ParseError{Reason: "header: " + err.Error()}
	}
	if len(head) == 0 {
		return nil, &ParseError{Reason: "missing action name"}
	}
	name := head[0]
	params := map[string]string{}
	for _, tok := range head[1:] {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || key == "" {
			return nil, &ParseError{Name: name, Reason: fmt.Sprintf("invalid parameter %q", tok)}
		}
		params[key] = value
	}

	for i := start + 1; i < len(body); i++ {
		raw := body[i].text
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if key, tag, ok := heredocStart(raw); ok {
			if tag == "" {
				return nil, &ParseError{Name: name, Reason: "heredoc without terminator tag"}
			}
			var content []string
			closed := false
			for i++; i < len(body); i++ {
				if strings.TrimSpace(body[i].text) == tag {
					closed = true
					break
				}
				content = append(content, body[i].text)
			}
			if !closed {
				return nil, &ParseError{Name: name, Reason: fmt.Sprintf("heredoc %q not terminated", tag)}
			}
			params[key] = strings.Join(content, "\n")
			continue
		}
		key, value, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok || !validKey(key) {
			return nil, &ParseError{Name: name, Reason: fmt.Sprintf("invalid parameter line %q", strings.TrimSpace(raw))}
		}
		value, err := unquoteValue(strings.TrimSpace(value))
		if err != nil {
			return nil, &ParseError{Name: name, Reason: key + ": " + err.Error()}
		}
		params[key] = value
	}

	a, err := build(name, params)
	if err != nil {
		return nil, &ParseError{Name: name, Reason: err.Error()}
	}
	return a, nil
}

func validKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// parseJSONBlock decodes one object or an array of objects. A malformed
// object in an array is reported and the remaining objects still parse.
func parseJSONBlock(body []line) ([]*Action, []ParseError) {
	parts := make([]string, 0, len(body))
	for _, l := range body {
		parts = append(parts, l.text)
	}
	raw := strings.TrimSpace(strings.Join(parts, "\n"))
	if raw == "" {
		return nil, nil
	}

	var objects []map[string]any
	if strings.HasPrefix(raw, "[") {
		var elems []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &elems); err != nil {
			return nil, jsonError(raw, err)
		}
		var errs []ParseError
		for i, elem := range elems {
			var obj map[string]any
			if err := json.Unmarshal(elem, &obj); err != nil {
				if perrs := jsonError(string(elem), fmt.Errorf("element %d: %w", i, err)); perrs != nil {
					errs = append(errs, perrs...)
				}
				objects = append(objects, nil)
				continue
			}
			objects = append(objects, obj)
		}
		actions, buildErrs := buildJSON(objects)
		return actions, append(errs, buildErrs...)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, jsonError(raw, err)
	}
	return buildJSON([]map[string]any{obj})
}

func buildJSON(objects []map[string]any) ([]*Action, []ParseError) {
	var (
		actions []*Action
		errs    []ParseError
	)
	for _, obj := range objects {
		if obj == nil {
			continue
		}
		name, params, ok := jsonParams(obj)
		if !ok {
			continue
		}
		a, err := build(name, params)
		if err != nil {
			errs = append(errs, ParseError{Name: name, Reason: err.Error()})
			continue
		}
		actions = append(actions, a)
	}
	return actions, errs
}

// jsonError reports invalid JSON only for blocks that look like actions; any
// other json fence is ordinary example code.
func jsonError(raw string, err error) []ParseError {
	if !strings.Contains(raw, `"action"`) {
		return nil
	}
	return []ParseError{{Reason: "invalid json: " + err.Error()}}
}

// jsonParams accepts both {"action": "write_file", "path": ...} and the
// externally tagged form {"WriteFile": {"path": ...}}.
func jsonParams(obj map[string]any) (string, map[string]string, bool) {
	if name, ok := obj["action"].(string); ok {
		params := map[string]string{}
		for k, v := range obj {
			if k != "action" {
				params[k] = jsonString(v)
			}
		}
		return name, params, true
	}
	if len(obj) != 1 {
		return "", nil, false
	}
	for name, v := range obj {
		inner, ok := v.(map[string]any)
		if !ok {
			return "", nil, false
		}
		if _, known := lookupKind(name); !known {
			return "", nil, false
		}
		params := map[string]string{}
		for k, iv := range inner {
			params[k] = jsonString(iv)
		}
		return name, params, true
	}
	return "", nil, false
}

func jsonString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case []any:
		words := make([]string, 0, len(t))
		for _, w := range t {
			words = append(words, quoteWord(jsonString(w)))
		}
		return strings.Join(words, " ")
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func quoteWord(w string) string {
	if w != "" && !strings.ContainsAny(w, " \t\n'\"\\") {
		return w
	}
	return "'" + strings.ReplaceAll(w, "'", `'\''`) + "'"
}
