package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.helix.deliberation/internal/agents"
	"dev.helix.deliberation/internal/llm"
	"dev.helix.deliberation/internal/models"
)

type stubProvider struct {
	output    string
	err       error
	echo      bool
	gotPrompt string
	gotParams llm.GenerationParams
}

func (s *stubProvider) Generate(_ context.Context, prompt string, params llm.GenerationParams) (string, error) {
	s.gotPrompt = prompt
	s.gotParams = params
	if s.err != nil {
		return "", s.err
	}
	if s.echo {
		return prompt + "\n" + s.output, nil
	}
	return s.output, nil
}

func (s *stubProvider) HealthCheck() error { return nil }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testAgent() models.Persona {
	return agents.First()
}

const goodOutput = "Standardized testing shapes admission incentives in measurable ways. Removing it would shift weight onto subjective criteria and alter market signals across higher education."

func TestGenerate_NoBackendReturnsPersonaFallback(t *testing.T) {
	gen := New(nil, testLogger())

	for _, agent := range agents.Roster() {
		out := gen.Generate(context.Background(), agent, nil, "universal basic income")
		require.NotEmpty(t, out)
		assert.Contains(t, out, agent.Name)
		assert.Contains(t, out, agent.Role)
	}
}

func TestGenerate_BackendErrorReturnsApology(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	gen := New(provider, testLogger())
	agent := testAgent()

	out := gen.Generate(context.Background(), agent, nil, "carbon taxes")

	assert.Contains(t, out, "I apologize")
	assert.Contains(t, out, agent.Name)
	assert.Contains(t, out, agent.Role)
	assert.Contains(t, out, "carbon taxes")
}

func TestGenerate_ShortOutputUsesFallback(t *testing.T) {
	provider := &stubProvider{output: "Too short to keep."}
	gen := New(provider, testLogger())
	agent := testAgent()

	out := gen.Generate(context.Background(), agent, nil, "tariffs")

	assert.Equal(t, cannedFallbacks[agent.Name], out)
	assert.NotContains(t, out, "Too short")
}

func TestGenerate_DenylistedPhrasesUseFallback(t *testing.T) {
	phrases := []string{"thanks", "Email", "reach out", "Hope This Helps", "LMFAO"}
	for _, phrase := range phrases {
		t.Run(phrase, func(t *testing.T) {
			provider := &stubProvider{
				output: fmt.Sprintf("This is a sufficiently long answer that unfortunately says %s somewhere in the middle of it.", phrase),
			}
			gen := New(provider, testLogger())
			agent := testAgent()

			out := gen.Generate(context.Background(), agent, nil, "tariffs")

			assert.Equal(t, cannedFallbacks[agent.Name], out)
		})
	}
}

func TestGenerate_RejectMarkerUsesFallback(t *testing.T) {
	provider := &stubProvider{
		output: "Here is a long enough piece of text that still contains Your response: as a scaffold echo.",
	}
	gen := New(provider, testLogger())
	agent := testAgent()

	out := gen.Generate(context.Background(), agent, nil, "tariffs")

	assert.Equal(t, cannedFallbacks[agent.Name], out)
}

func TestGenerate_UnknownPersonaGetsGenericFallback(t *testing.T) {
	provider := &stubProvider{output: "short"}
	gen := New(provider, testLogger())
	agent := models.Persona{Name: "Historian", Role: "History expert", Bias: "Focused on precedent"}

	out := gen.Generate(context.Background(), agent, nil, "tariffs")

	assert.Contains(t, out, "Historian")
	assert.Contains(t, out, "History expert")
	assert.Contains(t, out, "tariffs")
	assert.Contains(t, out, "Focused on precedent")
}

func TestGenerate_TruncatesToLastSentence(t *testing.T) {
	provider := &stubProvider{
		output: "The first complete sentence covers enough ground to pass the gate easily. trailing fragment without any end",
	}
	gen := New(provider, testLogger())

	out := gen.Generate(context.Background(), testAgent(), nil, "tariffs")

	assert.Equal(t, "The first complete sentence covers enough ground to pass the gate easily.", out)
}

func TestGenerate_AppendsClosingClauseWhenNoSentenceEnd(t *testing.T) {
	text := "This answer has no terminal punctuation at all yet is comfortably long enough"
	provider := &stubProvider{output: text}
	gen := New(provider, testLogger())

	out := gen.Generate(context.Background(), testAgent(), nil, "tariffs")

	assert.Equal(t, text+" This is my perspective on the matter.", out)
}

func TestGenerate_CapsAtHundredWordsWithEllipsis(t *testing.T) {
	words := make([]string, 120)
	for i := range words {
		words[i] = "word"
	}
	provider := &stubProvider{output: strings.Join(words, " ")}
	gen := New(provider, testLogger())

	out := gen.Generate(context.Background(), testAgent(), nil, "tariffs")

	want := strings.Join(words[:100], " ") + "..."
	assert.Equal(t, want, out)
}

func TestGenerate_CapsAtLastSentenceWithinWindow(t *testing.T) {
	head := make([]string, 49)
	for i := range head {
		head[i] = "alpha"
	}
	tail := make([]string, 80)
	for i := range tail {
		tail[i] = "beta"
	}
	text := strings.Join(head, " ") + " alpha. " + strings.Join(tail, " ") + " beta."
	provider := &stubProvider{output: text}
	gen := New(provider, testLogger())

	out := gen.Generate(context.Background(), testAgent(), nil, "tariffs")

	assert.Equal(t, strings.Join(head, " ")+" alpha.", out)
}

func TestGenerate_StripsPromptEchoAndRoleMarkers(t *testing.T) {
	provider := &stubProvider{output: "Assistant: " + goodOutput, echo: true}
	gen := New(provider, testLogger())

	out := gen.Generate(context.Background(), testAgent(), nil, "standardized testing")

	assert.Equal(t, goodOutput, out)
}

func TestGenerate_UsesFixedDecodingParams(t *testing.T) {
	provider := &stubProvider{output: goodOutput}
	gen := New(provider, testLogger())

	gen.Generate(context.Background(), testAgent(), nil, "tariffs")

	assert.Equal(t, 150, provider.gotParams.MaxNewTokens)
	assert.InDelta(t, 0.7, provider.gotParams.Temperature, 1e-9)
	assert.InDelta(t, 0.9, provider.gotParams.TopP, 1e-9)
	assert.InDelta(t, 1.2, provider.gotParams.RepetitionPenalty, 1e-9)
	assert.Equal(t, 3, provider.gotParams.NoRepeatNGramSize)
	assert.Equal(t, 1, provider.gotParams.NumReturnSequences)
	assert.True(t, provider.gotParams.DoSample)
}

func TestBuildPrompt_EmbedsPersonaTopicAndContext(t *testing.T) {
	agent := testAgent()
	history := []models.Message{
		{Sender: "user", Content: "opening remark"},
		{Sender: "Ethicist", Content: "ethical point"},
	}

	prompt := BuildPrompt(agent, history, "rent control")

	assert.Contains(t, prompt, agent.Name)
	assert.Contains(t, prompt, agent.Role)
	assert.Contains(t, prompt, agent.Bias)
	assert.Contains(t, prompt, "rent control")
	assert.Contains(t, prompt, "user: opening remark")
	assert.Contains(t, prompt, "Ethicist: ethical point")
}

func TestBuildPrompt_UsesOnlyLastFiveMessages(t *testing.T) {
	history := make([]models.Message, 0, 7)
	for i := 0; i < 7; i++ {
		history = append(history, models.Message{
			Sender:  "user",
			Content: fmt.Sprintf("message-%d", i),
		})
	}

	prompt := BuildPrompt(testAgent(), history, "rent control")

	assert.NotContains(t, prompt, "message-0")
	assert.NotContains(t, prompt, "message-1")
	for i := 2; i < 7; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("message-%d", i))
	}
}

func TestGenerate_AcceptsExactlyTenWords(t *testing.T) {
	text := "One two three four five six seven eight nine ten."
	provider := &stubProvider{output: text}
	gen := New(provider, testLogger())

	out := gen.Generate(context.Background(), testAgent(), nil, "tariffs")

	assert.Equal(t, text, out)
}
