package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockLLM is a scripted model for development and tests. It recognizes the
// planner's prompts by their lead-in phrases and returns canned structured
// output, so the whole stage graph runs deterministically without network
// access. ClarifyRounds controls how many analysis calls claim that
// clarification is still needed before the script settles on a full trip.
type MockLLM struct {
	mu            sync.Mutex
	clarifyRounds int
	analyzeCalls  int
}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// NewClarifyingMockLLM returns a mock whose first rounds analysis calls ask
// for clarification before proceeding.
func NewClarifyingMockLLM(rounds int) *MockLLM {
	return &MockLLM{clarifyRounds: rounds}
}

func (m *MockLLM) Generate(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "expert travel planner analyzing"):
		return m.analysisResponse(), nil
	case strings.Contains(prompt, "Identify the top 5 most interesting specific places"):
		return placesResponse, nil
	case strings.Contains(prompt, "Create a detailed daily itinerary for day"):
		return dayPlanResponse, nil
	case strings.Contains(prompt, "Create a budget breakdown"):
		return "Estimated split: 40% accommodation, 25% food, 20% activities, 15% transport.", nil
	case strings.Contains(prompt, "Create a comprehensive, well-formatted travel guide"):
		return "# Your Travel Guide\n\nA practical day-by-day guide to Paris on a mid-range budget.", nil
	case strings.Contains(prompt, "revising a travel plan"):
		return "# Your Travel Guide (revised)\n\nUpdated to address your feedback.", nil
	}
	return fmt.Sprintf("Mock response to: %.80s", prompt), nil
}

func (m *MockLLM) analysisResponse() string {
	m.mu.Lock()
	call := m.analyzeCalls
	m.analyzeCalls++
	m.mu.Unlock()

	if call < m.clarifyRounds {
		return "```yaml\n" +
			"extracted_info:\n" +
			"  destination: Paris\n" +
			"needs_clarification: true\n" +
			"reasoning: Duration and budget are still unknown.\n" +
			"questions:\n" +
			"  - How many days are you planning to stay?\n" +
			"  - What budget do you have in mind?\n" +
			"```"
	}
	return "```yaml\n" +
		"extracted_info:\n" +
		"  destination: Paris\n" +
		"  trip_type: international\n" +
		"  duration_days: 2\n" +
		"  travelers: 2\n" +
		"  budget: \"$2000\"\n" +
		"  travel_style: mid-range\n" +
		"  interests:\n" +
		"    - food\n" +
		"    - museums\n" +
		"needs_clarification: false\n" +
		"reasoning: Enough information for a solid plan.\n" +
		"questions: []\n" +
		"```"
}

const placesResponse = "```yaml\n" +
	"places:\n" +
	"  - Hotel Le Meurice\n" +
	"  - Le Comptoir du Relais\n" +
	"  - Musee d'Orsay\n" +
	"```"

const dayPlanResponse = "```yaml\n" +
	"morning: Walk the Seine and visit the Musee d'Orsay early.\n" +
	"afternoon: Lunch near Saint-Germain, then the Latin Quarter.\n" +
	"evening: Dinner at a neighborhood bistro.\n" +
	"meals: Le Comptoir du Relais for lunch.\n" +
	"tips: Buy museum tickets online to skip the queue.\n" +
	"```"
