package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PabloGalante/onestep/internal/app/classify"
	"github.com/PabloGalante/onestep/internal/domain"
)

// MockLLM answers from the prompt text alone so the whole flow, including
// wrap-up and completion, works offline.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

var quotedUser = regexp.MustCompile(`They (?:replied|just said): ("(?:[^"\\]|\\.)*")`)

var (
	mockYes  = []string{"yes", "yep", "yeah", "done", "enough", "finished", "that's it"}
	mockDone = []string{"done for today", "i'm done", "im done", "enough", "calling it", "finished"}
)

func (m *MockLLM) GenerateReply(ctx context.Context, p domain.Prompt) (string, error) {
	user := p.User
	said := strings.ToLower(extractQuoted(user))

	switch {
	case strings.Contains(user, "Generate TWO things as JSON"):
		return `sure! here you go: {"step": "open the file and read the first line", "why": "a tiny start gives your brain a quick dopamine win"}`, nil
	case strings.Contains(user, "I just asked if they're done"):
		if containsAny(said, mockYes) && !strings.Contains(said, "not") {
			return "look at you, that's a real win 💛\n" + classify.CompletionMarker, nil
		}
		return "love it, what are you tackling next?", nil
	case strings.Contains(user, "checking in on"):
		return "hey, how's it going? still at it? 👀", nil
	case strings.Contains(user, "Someone is stuck on"):
		return "totally normal. just open it and stare at it for two minutes, that's the whole step.", nil
	case strings.Contains(user, "just told me they want to"):
		return "ok! first tiny step: stand up and put one thing where it belongs. I'll check back in soon.", nil
	case containsAny(said, mockDone):
		return "nice work! you good? feel like that's enough for today? 😊", nil
	default:
		return "nice, keep going 💪 what's the next tiny bit?", nil
	}
}

func extractQuoted(prompt string) string {
	m := quotedUser.FindStringSubmatch(prompt)
	if m == nil {
		return ""
	}
	s, err := strconv.Unquote(m[1])
	if err != nil {
		return m[1]
	}
	return s
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
