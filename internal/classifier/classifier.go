// Package classifier maps free-text user input to a todo intent with a
// confidence score, decides whether clarification is needed, and extracts
// tool parameters from the text.
package classifier

import (
	"context"
	"regexp"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/models"
)

// Context carries conversational state the classifier may need to resolve
// referential pronouns ("delete it") against a previously mentioned task.
type Context struct {
	LastTodoID int64
}

// Classifier is the pluggable classification strategy. The keyword
// implementation is the default; a GPT-backed one can be swapped in without
// touching the rest of the pipeline.
type Classifier interface {
	Classify(ctx context.Context, text string, conv Context) models.Intent
}

// Options holds the ambiguity thresholds. They are tunables, not business
// rules, and come from configuration.
type Options struct {
	// ConfidenceGap is the margin below which the top two candidates are
	// considered too close to call.
	ConfidenceGap float64
	// MinConfidence is the floor the top score must clear before the gap
	// rule applies at all.
	MinConfidence float64
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		ConfidenceGap: 0.2,
		MinConfidence: 0.3,
	}
}

// KeywordClassifier scores intents by keyword group matches. Each intent has
// several groups of synonymous patterns; the more distinct groups match, the
// higher the confidence.
type KeywordClassifier struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func NewKeywordClassifier(opts Options, logger *zap.Logger) *KeywordClassifier {
	if opts.ConfidenceGap <= 0 {
		opts.ConfidenceGap = DefaultOptions().ConfidenceGap
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultOptions().MinConfidence
	}
	return &KeywordClassifier{
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

var _ Classifier = (*KeywordClassifier)(nil)

// intentGroups holds the keyword groups per intent. Patterns are matched
// case-insensitively on word boundaries.
var intentGroups = map[models.IntentType][]*regexp.Regexp{
	models.IntentCreate: {
		regexp.MustCompile(`(?i)\b(?:add|create|make)\b`),
		regexp.MustCompile(`(?i)\bnew\s+(?:task|todo|item|reminder)\b`),
		regexp.MustCompile(`(?i)\b(?:remind me to|remember to|note down)\b`),
	},
	models.IntentUpdate: {
		regexp.MustCompile(`(?i)\b(?:update|change|modify|edit)\b`),
		regexp.MustCompile(`(?i)\b(?:rename|reschedule|postpone)\b`),
		regexp.MustCompile(`(?i)\bset\s+(?:the\s+)?(?:priority|due date|title)\b`),
	},
	models.IntentComplete: {
		regexp.MustCompile(`(?i)\b(?:mark|check off|tick off)\b`),
		regexp.MustCompile(`(?i)\b(?:complete|finish|finished)\b`),
		regexp.MustCompile(`(?i)\bdone\b`),
	},
	models.IntentDelete: {
		regexp.MustCompile(`(?i)\b(?:delete|remove|erase)\b`),
		regexp.MustCompile(`(?i)\b(?:cancel|discard|get rid of)\b`),
	},
	models.IntentList: {
		regexp.MustCompile(`(?i)\b(?:list|show|display|view)\b`),
		regexp.MustCompile(`(?i)\bwhat(?:'s| is| do i have| are)\b`),
		regexp.MustCompile(`(?i)\b(?:my (?:tasks|todos|list)|everything)\b`),
	},
	models.IntentHelp: {
		regexp.MustCompile(`(?i)\bhelp\b`),
		regexp.MustCompile(`(?i)\b(?:how do i|what can you do|commands)\b`),
	},
	models.IntentGreeting: {
		regexp.MustCompile(`(?i)\b(?:hello|hi|hey|howdy)\b`),
		regexp.MustCompile(`(?i)\bgood (?:morning|afternoon|evening)\b`),
		regexp.MustCompile(`(?i)\b(?:thanks|thank you)\b`),
	},
}

// intentOrder gives deterministic ranking when confidence and group counts tie.
var intentOrder = []models.IntentType{
	models.IntentCreate,
	models.IntentComplete,
	models.IntentUpdate,
	models.IntentDelete,
	models.IntentList,
	models.IntentHelp,
	models.IntentGreeting,
}

var (
	pronounRe    = regexp.MustCompile(`(?i)\b(?:it|that|this|them)\b`)
	identifierRe = regexp.MustCompile(`(?i)(?:#\d+|\b(?:task|todo|number)\s+\d+\b|\b\d+\b)`)
)

type candidate struct {
	intent     models.IntentType
	groups     int
	confidence float64
}

// Classify scores every intent and applies the three ambiguity rules:
// (a) the top two candidates are within the confidence gap and the top one
// clears the minimum, (b) a referential pronoun has no identifier and no
// context to resolve against, (c) keyword groups from more than one action
// intent appear in the same message.
func (c *KeywordClassifier) Classify(_ context.Context, text string, conv Context) models.Intent {
	if !hasContent(text) {
		// Whitespace-only input is a no-op, not an error.
		return models.Intent{Type: models.IntentUnknown}
	}

	cands := scoreIntents(text)
	if len(cands) == 0 {
		return models.Intent{Type: models.IntentUnknown}
	}

	top := cands[0]
	intent := models.Intent{
		Type:       top.intent,
		Confidence: top.confidence,
	}

	actions := actionCandidates(cands)
	refUnclear := c.referenceUnclear(top.intent, text, conv)
	multiAction := len(actions) > 1
	tooClose := len(cands) > 1 &&
		top.confidence-cands[1].confidence < c.opts.ConfidenceGap &&
		top.confidence > c.opts.MinConfidence

	if refUnclear || multiAction || tooClose {
		intent.RequiresClarification = true
		intent.Clarification = clarificationQuestion(refUnclear, multiAction, actions, top.intent)
		intent.Suggestions = suggestionsFor(refUnclear, multiAction, actions, top.intent)
	}

	intent.Parameters = c.extractParameters(top.intent, text, conv)

	if c.logger != nil {
		c.logger.Debug("classified message",
			zap.String("intent", string(intent.Type)),
			zap.Float64("confidence", intent.Confidence),
			zap.Bool("requires_clarification", intent.RequiresClarification))
	}

	return intent
}

func scoreIntents(text string) []candidate {
	var cands []candidate
	for _, intent := range intentOrder {
		matched := 0
		for _, group := range intentGroups[intent] {
			if group.MatchString(text) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		cands = append(cands, candidate{
			intent:     intent,
			groups:     matched,
			confidence: confidenceFor(matched),
		})
	}

	// Highest confidence first; ties broken by the intent with the most
	// distinct matching keyword groups, then by declaration order.
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].confidence != cands[j].confidence {
			return cands[i].confidence > cands[j].confidence
		}
		return cands[i].groups > cands[j].groups
	})
	return cands
}

// confidenceFor maps matched group counts to a score: one group is a solid
// but not certain match, each extra group raises it, capped below 1.
func confidenceFor(groups int) float64 {
	conf := 0.6 + 0.15*float64(groups-1)
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

func actionCandidates(cands []candidate) []candidate {
	var out []candidate
	for _, c := range cands {
		if c.intent.IsAction() {
			out = append(out, c)
		}
	}
	return out
}

// referenceUnclear fires for targeting intents when the user says "it"/"that"
// without a task number and the conversation has no task to resolve against.
func (c *KeywordClassifier) referenceUnclear(intent models.IntentType, text string, conv Context) bool {
	switch intent {
	case models.IntentUpdate, models.IntentComplete, models.IntentDelete:
	default:
		return false
	}
	if !pronounRe.MatchString(text) {
		return false
	}
	if identifierRe.MatchString(text) {
		return false
	}
	return conv.LastTodoID == 0
}

var actionPhrases = map[models.IntentType]string{
	models.IntentCreate:   "add a task",
	models.IntentUpdate:   "update a task",
	models.IntentComplete: "complete a task",
	models.IntentDelete:   "delete a task",
	models.IntentList:     "see your tasks",
}

// clarificationQuestion picks one deterministic question by priority:
// unclear reference, then multiple actions, then an intent-specific question,
// then the generic fallback.
func clarificationQuestion(refUnclear, multiAction bool, actions []candidate, top models.IntentType) string {
	if refUnclear {
		return `Which task are you referring to? Please include the task number, for example "task 3".`
	}
	if multiAction && len(actions) >= 2 {
		return "I can only do one thing at a time. Would you like to " +
			actionPhrases[actions[0].intent] + " or " + actionPhrases[actions[1].intent] + " first?"
	}
	switch top {
	case models.IntentComplete:
		return "Which task would you like to mark as done?"
	case models.IntentCreate:
		return "What should the new task be called?"
	case models.IntentUpdate:
		return "Which task should I update, and what should change?"
	case models.IntentList:
		return "Do you want to see all your tasks, or only the open ones?"
	}
	return `Could you rephrase that? For example: "add buy milk" or "show my tasks".`
}

// suggestionsFor returns at most two concrete rephrasings.
func suggestionsFor(refUnclear, multiAction bool, actions []candidate, top models.IntentType) []string {
	if refUnclear {
		verb := "complete"
		switch top {
		case models.IntentDelete:
			verb = "delete"
		case models.IntentUpdate:
			verb = "update"
		}
		return []string{verb + " task 2", "show my tasks"}
	}
	if multiAction && len(actions) >= 2 {
		return []string{
			exampleFor(actions[0].intent),
			exampleFor(actions[1].intent),
		}
	}
	return []string{exampleFor(top), "show my tasks"}
}

func exampleFor(intent models.IntentType) string {
	switch intent {
	case models.IntentCreate:
		return "add buy milk"
	case models.IntentUpdate:
		return "change task 2 to call mom"
	case models.IntentComplete:
		return "mark task 2 as done"
	case models.IntentDelete:
		return "delete task 2"
	case models.IntentList:
		return "show my tasks"
	}
	return "show my tasks"
}

func hasContent(text string) bool {
	for _, r := range text {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}
