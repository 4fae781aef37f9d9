package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/avelencia/todo-chat/internal/models"
)

// Parameter extraction pulls tool arguments out of the raw text once the
// intent is known: task ids, titles, priorities, categories, due dates and
// list filters.

var (
	explicitIDRe = regexp.MustCompile(`(?i)(?:#|\b(?:task|todo|number)\s+#?)(\d+)`)
	bareNumberRe = regexp.MustCompile(`\b(\d+)\b`)

	highPriorityRe = regexp.MustCompile(`(?i)\b(?:urgent|asap|critical|important|high priority)\b`)
	lowPriorityRe  = regexp.MustCompile(`(?i)\b(?:low priority|whenever|someday|not urgent)\b`)
	priorityTailRe = regexp.MustCompile(`(?i)\s*\b(?:with\s+)?(?:high|medium|low)\s+priority\b`)

	categoryRe   = regexp.MustCompile(`(?i)\b(?:in|under)\s+(?:the\s+)?([a-z][a-z0-9_-]*)\s+category\b|\bcategory\s+([a-z][a-z0-9_-]*)\b`)
	renameVerbRe = regexp.MustCompile(`(?i)\b(?:rename|change|retitle)\b`)
	renameToRe   = regexp.MustCompile(`(?i)\b(?:to|into)\s+["']?(.+?)["']?\s*$`)
	createLeadRe = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:(?:add|create|make)\s+(?:a\s+|another\s+)?(?:new\s+)?(?:task|todo|item|reminder)?|remind me to|remember to|note down)\s*(?:to|called|named|for|:)?\s*`)
	completedFilterRe = regexp.MustCompile(`(?i)\b(?:completed|done|finished)\b`)
	openFilterRe      = regexp.MustCompile(`(?i)\b(?:open|pending|unfinished|incomplete|outstanding|remaining)\b`)
)

func (c *KeywordClassifier) extractParameters(intent models.IntentType, text string, conv Context) map[string]any {
	switch intent {
	case models.IntentCreate:
		return c.extractCreate(text)
	case models.IntentUpdate:
		return c.extractUpdate(text, conv)
	case models.IntentComplete, models.IntentDelete:
		params := map[string]any{}
		if id, ok := extractID(text, conv); ok {
			params["todo_id"] = float64(id)
		}
		return params
	case models.IntentList:
		return c.extractList(text)
	}
	return nil
}

// extractID looks for an explicit task number first, then a bare number, and
// finally falls back to the task referenced earlier in the conversation when
// the user used a pronoun.
func extractID(text string, conv Context) (int64, bool) {
	if m := explicitIDRe.FindStringSubmatch(text); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return id, true
		}
	}
	if m := bareNumberRe.FindStringSubmatch(text); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return id, true
		}
	}
	if conv.LastTodoID > 0 && pronounRe.MatchString(text) {
		return conv.LastTodoID, true
	}
	return 0, false
}

func (c *KeywordClassifier) extractCreate(text string) map[string]any {
	params := map[string]any{}
	title := text

	if due, start, end, ok := ParseDueDate(text, c.now()); ok {
		params["due_date"] = due
		title = title[:start] + title[end:]
	}
	if highPriorityRe.MatchString(text) {
		params["priority"] = models.PriorityHigh
	} else if lowPriorityRe.MatchString(text) {
		params["priority"] = models.PriorityLow
	}
	if cat, ok := extractCategory(text); ok {
		params["category"] = cat
	}

	title = priorityTailRe.ReplaceAllString(title, "")
	title = categoryRe.ReplaceAllString(title, "")
	title = createLeadRe.ReplaceAllString(title, "")
	title = strings.Trim(strings.TrimSpace(title), `"'.,!`)
	if title != "" {
		params["title"] = title
	}
	return params
}

func (c *KeywordClassifier) extractUpdate(text string, conv Context) map[string]any {
	params := map[string]any{}
	if id, ok := extractID(text, conv); ok {
		params["todo_id"] = float64(id)
	}

	rest := text
	if due, start, end, ok := ParseDueDate(text, c.now()); ok {
		params["due_date"] = due
		rest = rest[:start] + rest[end:]
	}
	if highPriorityRe.MatchString(text) {
		params["priority"] = models.PriorityHigh
	} else if lowPriorityRe.MatchString(text) {
		params["priority"] = models.PriorityLow
	}
	if cat, ok := extractCategory(text); ok {
		params["category"] = cat
	}

	// "rename task 2 to water the plants" carries the new title after "to".
	if renameVerbRe.MatchString(text) {
		if m := renameToRe.FindStringSubmatch(rest); m != nil {
			title := strings.Trim(strings.TrimSpace(m[1]), `"'.,!`)
			if title != "" {
				params["title"] = title
			}
		}
	}
	return params
}

func (c *KeywordClassifier) extractList(text string) map[string]any {
	params := map[string]any{}
	if completedFilterRe.MatchString(text) {
		params["completed"] = true
	} else if openFilterRe.MatchString(text) {
		params["completed"] = false
	}
	if highPriorityRe.MatchString(text) {
		params["priority"] = models.PriorityHigh
	} else if lowPriorityRe.MatchString(text) {
		params["priority"] = models.PriorityLow
	}
	if cat, ok := extractCategory(text); ok {
		params["category"] = cat
	}
	if due, _, _, ok := ParseDueDate(text, c.now()); ok {
		params["due"] = due.Format("2006-01-02")
	}
	return params
}

func extractCategory(text string) (string, bool) {
	m := categoryRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return strings.ToLower(m[1]), true
	}
	if m[2] != "" {
		return strings.ToLower(m[2]), true
	}
	return "", false
}
