package llm

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/onestep/internal/app/classify"
	"github.com/PabloGalante/onestep/internal/domain"
)

const (
	defaultMaxTokens   = int32(256)
	defaultTemperature = float32(0.7)
)

const baseSystemPrompt = `You are OneStep, a warm, casual companion helping someone with ADHD get through their tasks.

You sound like a close friend who happens to be really good at helping people get unstuck. Not a coach, not a therapist, not a productivity app.

Tone rules (never break these):
- Short responses only. 1-3 sentences max. This is a chat, not an essay.
- Casual language. Contractions, lowercase is fine, natural phrasing.
- Warm but not over the top.
- Use emojis sparingly, maybe once per message.
- Never use bullet points, numbered lists, or headers.
- Never lecture about ADHD or give unsolicited advice.
- Never be preachy or corporate.

What you know about ADHD (use it, don't quote it):
- Starting is the hardest part, not the doing
- Tiny concrete actions work better than big vague ones
- Shame and guilt make things worse, never use them
- Time blindness is real, vague timelines don't help
- A specific first step removes the "where do I even begin" paralysis`

// Prompt building per turn mode. The system prompt carries who the companion
// is; these carry what it needs to do right now.

func buildStartPrompt(task string) string {
	return fmt.Sprintf(`The person just told me they want to: %q

Give them one specific, concrete first step to start right now.
Make it so small it almost feels too easy.
End by saying you'll check back in soon. Keep it to 2 sentences max.
Don't ask any questions. Just give them the step and go.`, task)
}

func buildCheckinPrompt(task string, recent []domain.RecentMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I'm checking in on someone working on: %q\n", task)
	if len(recent) > 0 {
		b.WriteString("Recent conversation:\n")
		b.WriteString(renderRecent(recent))
		b.WriteString("\n")
	}
	b.WriteString(`
Send a casual check-in. Ask how it's going: are they still at it or have they hit a wall?
One sentence, feels like a friend checking in, not a productivity app.`)
	return b.String()
}

func buildRoadblockPrompt(task, userMessage string, recent []domain.RecentMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Someone is stuck on: %q\nThey just said: %q\n", task, userMessage)
	if len(recent) > 0 {
		b.WriteString("What they've said recently:\n")
		b.WriteString(renderRecent(recent))
		b.WriteString("\n")
	}
	b.WriteString(`
Help them get unstuck with ONE specific small action.
Be warm and practical. Don't make them feel bad for being stuck, it's normal.
2 sentences max.`)
	return b.String()
}

func buildConversationPrompt(task, userMessage string, recent []domain.RecentMessage, awaitingWrapup bool) string {
	if awaitingWrapup {
		return fmt.Sprintf(`I just asked if they're done for today. They replied: %q
Their task was: %q

If they're saying yes/done/enough, celebrate briefly (1-2 sentences, warm not over the top)
and end your response with exactly this on its own line: %s

If they're saying no/not yet/keep going, encourage them to continue
and ask what they're working on next.`, userMessage, task, classify.CompletionMarker)
	}

	return fmt.Sprintf(`We're mid-conversation. The person is working on: %q
Recent chat:
%s

They just said: %q

Respond naturally as their companion. Figure out from context what they need:
- Celebrating progress? Acknowledge it warmly and stay alongside them.
- Asking a question? Answer it briefly and bring it back to their task.
- Sounds stuck or frustrated? Give one small concrete action to get unstuck.
- Mentioning a new task entirely? Roll with it and give a micro-step for the new thing.
- Saying they're done or it's enough for today? Ask: "you good? feel like that's enough for today? 😊"

Always respond. Never leave them without a reply. 2-3 sentences max.`, task, renderRecent(recent), userMessage)
}

// BuildPrompt builds the system prompt and the user content for a turn.
func BuildPrompt(req domain.TurnRequest) domain.Prompt {
	var user string
	switch req.Mode {
	case domain.ModeStart:
		user = buildStartPrompt(req.Task)
	case domain.ModeCheckIn:
		user = buildCheckinPrompt(req.Task, req.RecentMessages)
	case domain.ModeRoadblock:
		user = buildRoadblockPrompt(req.Task, req.UserMessage, req.RecentMessages)
	case domain.ModeConversation:
		fallthrough
	default:
		user = buildConversationPrompt(req.Task, req.UserMessage, req.RecentMessages, req.AwaitingWrapup)
	}

	return domain.Prompt{
		System:      baseSystemPrompt,
		User:        user,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
}

func renderRecent(recent []domain.RecentMessage) string {
	lines := make([]string, 0, len(recent))
	for _, m := range recent {
		who := "me"
		if m.Role == domain.RoleUser {
			who = "them"
		}
		lines = append(lines, who+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
