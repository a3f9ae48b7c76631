package conversation

import (
	"fmt"
	"strings"
)

// Persona describes who the assistant speaks for.
type Persona struct {
	AssistantName string
	CompanyName   string
	FounderName   string
	Services      []string
}

// DefaultPersona is the Make IA sales consultant.
func DefaultPersona() Persona {
	return Persona{
		AssistantName: "Aurora",
		CompanyName:   "Make IA",
		FounderName:   "Rubens",
		Services: []string{
			"Chatbots Humanizados com IA",
			"Sites de Alta Conversão",
			"Influencers Virtuais e Avatares IA",
			"Comerciais com IA (TV/Web)",
			"Aplicativos Inteligentes",
		},
	}
}

func (p Persona) withDefaults() Persona {
	def := DefaultPersona()
	if strings.TrimSpace(p.AssistantName) == "" {
		p.AssistantName = def.AssistantName
	}
	if strings.TrimSpace(p.CompanyName) == "" {
		p.CompanyName = def.CompanyName
	}
	if strings.TrimSpace(p.FounderName) == "" {
		p.FounderName = def.FounderName
	}
	if len(p.Services) == 0 {
		p.Services = def.Services
	}
	return p
}

const systemPromptTemplate = `Você é a %s, Consultora Estratégica da %s.

PERSONALIDADE:
- Profissional, mas descontraída
- Use emojis com moderação (1-2 por mensagem)
- Linguagem natural do Brasil
- Seja direta e objetiva

SERVIÇOS %s:
%s

OBJETIVO:
Identificar necessidades do cliente e direcionar para:
1. Agendamento de reunião
2. Falar com o %s (fundador)

%s

IMPORTANTE:
- Respostas curtas (máximo 3 linhas no WhatsApp)
- Foque em benefícios práticos
- Pergunte sobre o negócio do cliente
- Se cliente demonstrar interesse, ofereça contato com %s`

// SystemPrompt renders the system instruction for a conversation. When the
// customer's name is unknown the model is asked to discover it.
func SystemPrompt(p Persona, displayName string) string {
	p = p.withDefaults()

	services := make([]string, len(p.Services))
	for i, svc := range p.Services {
		services[i] = "- " + svc
	}

	customer := "Descubra o nome do cliente naturalmente."
	if name := strings.TrimSpace(displayName); name != "" {
		customer = "Cliente: " + name
	}

	return fmt.Sprintf(systemPromptTemplate,
		p.AssistantName,
		p.CompanyName,
		strings.ToUpper(p.CompanyName),
		strings.Join(services, "\n"),
		p.FounderName,
		customer,
		p.FounderName,
	)
}

// FounderCallToAction is appended to replies for engaged leads.
func FounderCallToAction(p Persona) string {
	p = p.withDefaults()
	return fmt.Sprintf("\n\nQuer falar direto com o %s, nosso fundador? Ele pode te passar um orçamento personalizado! 😊", p.FounderName)
}
