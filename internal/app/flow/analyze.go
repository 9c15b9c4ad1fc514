package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// AnalyzeStage extracts structured trip attributes from the conversation so
// far and decides, with the model's help, whether follow-up questions are
// worth asking. This stage is critical: if the model never produces usable
// output the session fails.
type AnalyzeStage struct {
	llm     domain.LLMClient
	retries int
}

func NewAnalyzeStage(llm domain.LLMClient, retries int) *AnalyzeStage {
	return &AnalyzeStage{llm: llm, retries: retries}
}

func (s *AnalyzeStage) Name() string { return StageAnalyze }

type analyzeInput struct {
	Conversation []string
	Trip         domain.TripAttributes
}

type analysisResult struct {
	ExtractedInfo      extractedInfo `yaml:"extracted_info"`
	NeedsClarification bool          `yaml:"needs_clarification"`
	Reasoning          string        `yaml:"reasoning"`
	Questions          []string      `yaml:"questions"`
}

type extractedInfo struct {
	Destination         string   `yaml:"destination"`
	TripType            string   `yaml:"trip_type"`
	DurationDays        int      `yaml:"duration_days"`
	Travelers           int      `yaml:"travelers"`
	Budget              string   `yaml:"budget"`
	TravelStyle         string   `yaml:"travel_style"`
	Interests           []string `yaml:"interests"`
	StartDate           string   `yaml:"start_date"`
	SpecialRequirements string   `yaml:"special_requirements"`
}

func (s *AnalyzeStage) Prepare(store *domain.TripStore) (any, error) {
	return analyzeInput{
		Conversation: append([]string(nil), store.ConversationHistory...),
		Trip:         store.Trip,
	}, nil
}

func (s *AnalyzeStage) Execute(ctx context.Context, ev Events, in any) (any, error) {
	data := in.(analyzeInput)

	ev.Thinking("Analyzing your travel request...")

	convo := "No conversation yet."
	if len(data.Conversation) > 0 {
		var b strings.Builder
		for _, line := range data.Conversation {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		convo = b.String()
	}

	prompt := buildAnalyzePrompt(convo, data.Trip)
	return generateDecoded[analysisResult](ctx, s.llm, prompt, s.retries)
}

func (s *AnalyzeStage) Finalize(store *domain.TripStore, ev Events, in, out any) (Action, error) {
	res := out.(analysisResult)

	applyExtracted(&store.Trip, res.ExtractedInfo)
	store.MissingInfo = store.Trip.Missing()
	store.NeedsClarification = res.NeedsClarification
	store.DynamicQuestions = res.Questions
	store.AnalysisReasoning = res.Reasoning

	return ActionDefault, nil
}

// applyExtracted merges newly extracted values into the accumulated
// attributes. Empty extractions never erase what a previous round learned.
func applyExtracted(trip *domain.TripAttributes, e extractedInfo) {
	if e.Destination != "" {
		trip.Destination = e.Destination
	}
	if e.TripType != "" {
		trip.TripType = e.TripType
	}
	if e.DurationDays > 0 {
		trip.DurationDays = e.DurationDays
	}
	if e.Travelers > 0 {
		trip.Travelers = e.Travelers
	}
	if e.Budget != "" {
		trip.Budget = e.Budget
	}
	if e.TravelStyle != "" {
		trip.TravelStyle = e.TravelStyle
	}
	if len(e.Interests) > 0 {
		trip.Interests = e.Interests
	}
	if e.StartDate != "" {
		trip.StartDate = e.StartDate
	}
	if e.SpecialRequirements != "" {
		trip.SpecialRequirements = e.SpecialRequirements
	}
}
