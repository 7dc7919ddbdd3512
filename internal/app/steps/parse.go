package steps

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/PabloGalante/onestep/internal/domain"
)

var objectFragment = regexp.MustCompile(`\{[\s\S]*?\}`)

// Parse extracts a Step from model output. The whole text is tried first,
// then each {...} fragment in order; the first one that is valid JSON and
// carries both "step" and "why" wins.
func Parse(text string) (*Step, error) {
	trimmed := strings.TrimSpace(text)
	if step, ok := stepFrom(trimmed); ok {
		return step, nil
	}

	for _, candidate := range objectFragment.FindAllString(trimmed, -1) {
		if step, ok := stepFrom(candidate); ok {
			return step, nil
		}
	}
	return nil, &domain.MalformedOutputError{Raw: text}
}

func stepFrom(raw string) (*Step, bool) {
	if !gjson.Valid(raw) {
		return nil, false
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return nil, false
	}

	step, why := doc.Get("step"), doc.Get("why")
	if !step.Exists() || !why.Exists() {
		return nil, false
	}
	return &Step{Step: step.String(), Why: why.String()}, true
}
