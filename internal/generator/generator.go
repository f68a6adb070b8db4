// Package generator produces one bounded, well-formed paragraph per agent
// turn. It wraps the llm.Provider backend and applies the post-processing
// and fallback rules that keep degenerate model output off the wire.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"dev.helix.deliberation/internal/llm"
	"dev.helix.deliberation/internal/metrics"
	"dev.helix.deliberation/internal/models"
)

// Outcome tags why a generation result was or was not used verbatim.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeDegenerate   Outcome = "degenerate"
	OutcomeBackendError Outcome = "backend_error"
	OutcomeNoBackend    Outcome = "no_backend"
)

const (
	minWords = 10
	maxWords = 100

	// closingClause finishes accepted output that carries no sentence-ending
	// punctuation at all.
	closingClause = " This is my perspective on the matter."
)

// rejectMarker in the output means the model echoed the instruction scaffold.
const rejectMarker = "Your response:"

// denylist catches informal, out-of-character output. Matched as
// case-insensitive substrings; kept literally for behavior compatibility,
// false positives included.
var denylist = []string{"thanks", "email", "reach out", "hope this helps", "lmfao"}

// Generator turns a persona, rolling context, and topic into one paragraph.
// A nil provider degrades every call to the fallback path.
type Generator struct {
	provider llm.Provider
	params   llm.GenerationParams
	log      *logrus.Logger
}

// New creates a Generator. provider may be nil when the backend failed to
// initialize; generation then falls back permanently.
func New(provider llm.Provider, log *logrus.Logger) *Generator {
	if log == nil {
		log = logrus.New()
	}
	return &Generator{
		provider: provider,
		params:   llm.DebateParams(),
		log:      log,
	}
}

// Generate returns the agent's next statement. It never fails: degenerate or
// errored generations are replaced by deterministic fallback text.
func (g *Generator) Generate(ctx context.Context, agent models.Persona, history []models.Message, topic string) string {
	text, outcome := g.attempt(ctx, agent, history, topic)
	switch outcome {
	case OutcomeOK:
		return text
	case OutcomeDegenerate:
		metrics.Fallbacks.WithLabelValues(string(outcome)).Inc()
		g.log.WithFields(logrus.Fields{
			"agent": agent.Name,
			"topic": topic,
		}).Warn("Degenerate model output, using fallback response")
		return fallbackFor(agent, topic)
	case OutcomeNoBackend:
		metrics.Fallbacks.WithLabelValues(string(outcome)).Inc()
		return genericFallback(agent, topic)
	default:
		metrics.Fallbacks.WithLabelValues(string(outcome)).Inc()
		g.log.WithFields(logrus.Fields{
			"agent": agent.Name,
			"topic": topic,
		}).Warn("Generation failed, using apology fallback")
		return apologyFallback(agent, topic)
	}
}

// attempt runs the backend and post-processing, tagging the result instead
// of signalling through errors so the caller selects fallbacks explicitly.
func (g *Generator) attempt(ctx context.Context, agent models.Persona, history []models.Message, topic string) (string, Outcome) {
	if g.provider == nil {
		return "", OutcomeNoBackend
	}

	prompt := BuildPrompt(agent, history, topic)

	raw, err := g.provider.Generate(ctx, prompt, g.params)
	if err != nil {
		g.log.WithError(err).WithField("agent", agent.Name).Error("Backend generation failed")
		return "", OutcomeBackendError
	}

	text := stripPromptEcho(raw, prompt)
	if isDegenerate(text) {
		return "", OutcomeDegenerate
	}

	text = repairSentenceEnd(text)
	text = capWords(text)
	return text, OutcomeOK
}

// BuildPrompt renders the structured instruction prompt for one turn. Only
// the last five context messages are embedded, as "sender: content" lines.
func BuildPrompt(agent models.Persona, history []models.Message, topic string) string {
	recent := history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	lines := make([]string, 0, len(recent))
	for _, msg := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Sender, msg.Content))
	}

	return fmt.Sprintf(`You are %s, a %s participating in a formal debate about: %s

Your expertise and perspective: %s

Previous discussion:
%s

Provide a focused analysis (maximum 100 words) that:
1. Directly addresses the topic of %s
2. Incorporates your expertise as %s
3. Considers economic, social, and ethical implications
4. Maintains a formal, academic tone
5. Concludes with a clear, final thought

Your response should be a complete paragraph with a proper conclusion. Do not end mid-sentence or mid-thought.`,
		agent.Name, agent.Role, topic, agent.Bias, strings.Join(lines, "\n"), topic, agent.Role)
}

// stripPromptEcho removes the echoed prompt and leading chat-role markers
// from raw model output.
func stripPromptEcho(raw, prompt string) string {
	text := strings.TrimSpace(strings.ReplaceAll(raw, prompt, ""))
	if strings.HasPrefix(text, "Assistant:") {
		text = strings.TrimSpace(text[len("Assistant:"):])
	}
	if strings.HasPrefix(text, "Human:") {
		text = strings.TrimSpace(text[len("Human:"):])
	}
	return text
}

// isDegenerate applies the quality gate: too short, instruction scaffold
// echoed, or an out-of-character phrase present.
func isDegenerate(text string) bool {
	if len(strings.Fields(text)) < minWords {
		return true
	}
	if strings.Contains(text, rejectMarker) {
		return true
	}
	lower := strings.ToLower(text)
	for _, phrase := range denylist {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// repairSentenceEnd truncates output to its last complete sentence, or
// appends a fixed closing clause when no sentence boundary exists.
func repairSentenceEnd(text string) string {
	if endsWithTerminal(text) {
		return text
	}
	if end := lastTerminal(text); end > 0 {
		return text[:end+1]
	}
	return text + closingClause
}

// capWords enforces the 100-word limit, truncating to the last complete
// sentence within the window or ending on an ellipsis when there is none.
func capWords(text string) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	truncated := strings.Join(words[:maxWords], " ")
	if end := lastTerminal(truncated); end > 0 {
		return truncated[:end+1]
	}
	return truncated + "..."
}

func endsWithTerminal(text string) bool {
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?")
}

func lastTerminal(text string) int {
	end := strings.LastIndex(text, ".")
	if i := strings.LastIndex(text, "!"); i > end {
		end = i
	}
	if i := strings.LastIndex(text, "?"); i > end {
		end = i
	}
	return end
}
