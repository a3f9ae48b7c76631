package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemPromptDefaultPersona(t *testing.T) {
	prompt := SystemPrompt(DefaultPersona(), "")

	assert.True(t, strings.HasPrefix(prompt, "Você é a Aurora, Consultora Estratégica da Make IA."))
	assert.Contains(t, prompt, "SERVIÇOS MAKE IA:")
	assert.Contains(t, prompt, "- Sites de Alta Conversão")
	assert.Contains(t, prompt, "2. Falar com o Rubens (fundador)")
	assert.Contains(t, prompt, "Descubra o nome do cliente naturalmente.")
	assert.NotContains(t, prompt, "Cliente:")
}

func TestSystemPromptKnownName(t *testing.T) {
	prompt := SystemPrompt(DefaultPersona(), " Ana ")
	assert.Contains(t, prompt, "Cliente: Ana")
	assert.NotContains(t, prompt, "Descubra o nome")
}

func TestSystemPromptFillsMissingPersonaFields(t *testing.T) {
	prompt := SystemPrompt(Persona{CompanyName: "Acme"}, "")
	assert.Contains(t, prompt, "Você é a Aurora, Consultora Estratégica da Acme.")
	assert.Contains(t, prompt, "ofereça contato com Rubens")
	assert.Contains(t, prompt, "- Chatbots Humanizados com IA")
}

func TestFounderCallToAction(t *testing.T) {
	assert.Equal(t,
		"\n\nQuer falar direto com o Rubens, nosso fundador? Ele pode te passar um orçamento personalizado! 😊",
		FounderCallToAction(Persona{}),
	)
	assert.Contains(t, FounderCallToAction(Persona{FounderName: "Marina"}), "com o Marina,")
}
