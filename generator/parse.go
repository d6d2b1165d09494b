package generator

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	errEmpty     = errors.New("no subtasks in response")
	errMalformed = errors.New("response is not a subtask list")
)

// listMarker matches "- ", "* ", "• ", "1. " and "1) " prefixes.
var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

type subtaskPayload struct {
	Subtasks []string `json:"subtasks"`
}

// ParseSubtasks extracts subtask titles from a model reply. It accepts the
// {"subtasks": [...]} object, a bare JSON array, either wrapped in a code
// fence, or a plain bulleted or numbered list. Titles are trimmed and blank
// entries dropped; an empty result is an error.
func ParseSubtasks(content string) ([]string, error) {
	body := stripFence(strings.TrimSpace(content))
	if body == "" {
		return nil, errEmpty
	}

	var items []string
	switch body[0] {
	case '{':
		var payload subtaskPayload
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			return nil, errors.Join(errMalformed, err)
		}
		items = payload.Subtasks
	case '[':
		if err := json.Unmarshal([]byte(body), &items); err != nil {
			return nil, errors.Join(errMalformed, err)
		}
	default:
		items = parseList(body)
		if items == nil {
			return nil, errMalformed
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, errEmpty
	}
	return out, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line, which may carry a language tag.
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return ""
	}
	s = s[nl+1:]
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// parseList returns the marked lines of s, or nil when no line is a list item.
func parseList(s string) []string {
	var items []string
	for line := range strings.SplitSeq(s, "\n") {
		loc := listMarker.FindStringIndex(line)
		if loc == nil {
			continue
		}
		items = append(items, line[loc[1]:])
	}
	return items
}
