// Package classify holds the keyword heuristics the session relies on. Every
// heuristic is an ordered lookup table; the first matching entry wins.
package classify

import (
	"strings"

	"github.com/PabloGalante/onestep/internal/domain"
)

// CompletionMarker is the literal token a generated reply carries when the
// user has confirmed the task is finished.
const CompletionMarker = "[SESSION_COMPLETE]"

// QuestionStarters are interrogative words that, followed by a space, make a
// message read as a question.
var QuestionStarters = []string{
	"what", "how", "why", "where", "when", "who", "should", "can", "is", "are",
}

// MoodRule maps keywords to a mood. Rules are checked in order.
type MoodRule struct {
	Mood     domain.Mood
	Keywords []string
}

// MoodRules checks celebrating before concerned.
var MoodRules = []MoodRule{
	{
		Mood: domain.MoodCelebrating,
		Keywords: []string{
			"done", "finished", "started", "did it", "completed", "submitted",
			"progress", "finally", "nailed", "crushed",
		},
	},
	{
		Mood: domain.MoodConcerned,
		Keywords: []string{
			"stuck", "frustrated", "blocked", "confused", "overwhelmed",
			"can't", "hard", "ugh",
		},
	},
}

// WrapupPhrases mark a reply that asked whether the user is done for today.
var WrapupPhrases = []string{
	"feel like that's enough",
	"enough for today",
	"you good?",
}

// QuestionLike reports whether text reads as a question rather than a task.
func QuestionLike(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if strings.HasSuffix(lowered, "?") {
		return true
	}
	for _, w := range QuestionStarters {
		if strings.HasPrefix(lowered, w+" ") {
			return true
		}
	}
	return false
}

// InferMood derives a display mood from user text. Defaults to idle.
func InferMood(text string) domain.Mood {
	lowered := strings.ToLower(text)
	for _, rule := range MoodRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				return rule.Mood
			}
		}
	}
	return domain.MoodIdle
}

// AsksWrapup reports whether a generated reply asked the wrap-up question.
func AsksWrapup(reply string) bool {
	lowered := strings.ToLower(reply)
	for _, p := range WrapupPhrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// StripCompletion removes the completion marker from reply. found reports
// whether the marker was present; cleaned is trimmed either way.
func StripCompletion(reply string) (cleaned string, found bool) {
	if !strings.Contains(reply, CompletionMarker) {
		return strings.TrimSpace(reply), false
	}
	return strings.TrimSpace(strings.ReplaceAll(reply, CompletionMarker, "")), true
}

// QuestionRejection is shown when a first message reads as a question.
const QuestionRejection = "hmm, that sounds like a question! try telling me what you want to do instead, like a task or goal 😊"
