package generator

import (
	"fmt"

	"dev.helix.deliberation/internal/models"
)

// cannedFallbacks are the deterministic persona responses substituted for
// degenerate output, keyed by persona name.
var cannedFallbacks = map[string]string{
	"Economist":        "As an Economist, I believe eliminating standardized tests would impact university admissions by reducing objective metrics. This could lead to increased reliance on subjective criteria, potentially affecting economic efficiency in higher education. However, the current system may not accurately predict student success, suggesting a need for reform rather than elimination.",
	"Ethicist":         "As an Ethicist, I question whether standardized tests fairly evaluate diverse student backgrounds. These tests may perpetuate systemic inequalities, as they often favor students with access to test preparation resources. A more equitable approach would consider multiple factors that better reflect a student's potential and character.",
	"Environmentalist": "As an Environmentalist, I see little direct environmental impact from standardized tests themselves. However, the broader education system they support has significant environmental implications. If eliminating these tests leads to more holistic admissions that value environmental activism and sustainability initiatives, this could positively influence campus culture and practices.",
	"Social Worker":    "As a Social Worker, I'm concerned about how standardized tests affect vulnerable student populations. These tests often create barriers for students from disadvantaged backgrounds, limiting their access to higher education. Eliminating this requirement could open doors for many qualified students who excel in ways not measured by standardized tests.",
}

// fallbackFor returns the canned paragraph for a known persona, or the
// generic template for anyone else.
func fallbackFor(agent models.Persona, topic string) string {
	if text, ok := cannedFallbacks[agent.Name]; ok {
		return text
	}
	return genericFallback(agent, topic)
}

// genericFallback builds a templated response from the persona fields. Also
// used whenever the backend was never initialized.
func genericFallback(agent models.Persona, topic string) string {
	return fmt.Sprintf("As %s, I believe that %s requires careful consideration from my perspective as %s. %s. This is a complex issue that needs to be addressed thoughtfully, taking into account various factors and potential impacts.",
		agent.Name, topic, agent.Role, agent.Bias)
}

// apologyFallback is returned when a generation attempt failed outright. It
// still names the agent, role, and topic so the turn reads in character.
func apologyFallback(agent models.Persona, topic string) string {
	return fmt.Sprintf("I apologize, but I encountered an error while generating my response. As %s, I would normally analyze %s from my perspective as %s, focusing on %s. Please try again in a moment.",
		agent.Name, topic, agent.Role, agent.Bias)
}
