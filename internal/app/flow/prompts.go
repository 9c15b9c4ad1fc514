package flow

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

func buildAnalyzePrompt(conversation string, trip domain.TripAttributes) string {
	known := "None yet."
	if raw, err := yaml.Marshal(trip); err == nil {
		known = string(raw)
	}

	return fmt.Sprintf(`You are an expert travel planner analyzing a user's travel request.

CONVERSATION SO FAR:
%s

INFORMATION GATHERED SO FAR:
%s

TASK:
1. Extract any NEW travel information from the conversation into a structured format
2. Analyze what's known and what's missing or unclear
3. Generate 1-3 SMART, CONTEXTUAL follow-up questions (if needed)
   - Questions should be specific to THIS trip, not generic
   - Ask about things that would genuinely help create a better plan
   - If you have enough info for a good plan, set needs_clarification to false

Return ONLY this YAML:
`+"```yaml"+`
extracted_info:
  destination: <string or null>
  trip_type: <local/domestic/international or null>
  duration_days: <number or null>
  travelers: <number or null>
  budget: <string like "$2000" or "mid-range" or null>
  travel_style: <luxury/mid-range/budget/backpacker or null>
  interests: <list of specific interests or []>
  start_date: <date string or null>
  special_requirements: <any special needs, accessibility, dietary, etc. or null>

needs_clarification: <true/false>
reasoning: <brief explanation of what's known and what's missing>
questions:
  - <question 1 if needed>
  - <question 2 if needed>
`+"```", conversation, known)
}

func buildIdentifyPlacesPrompt(text string) string {
	return fmt.Sprintf(`Identify the top 5 most interesting specific places (hotels, restaurants, attractions) mentioned in this text that are worth checking reviews for.
Return ONLY a YAML list of names.

Text:
%s

`+"```yaml"+`
places:
  - <Place Name 1>
  - <Place Name 2>
`+"```", text)
}

func buildDailyPlanPrompt(day int, trip domain.TripAttributes, research []domain.CategoryResult, reviews []domain.PlaceReview) string {
	var b strings.Builder
	for i, cat := range research {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "Query: %s\n", cat.Query)
		for _, r := range cat.Results {
			fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.Snippet)
		}
	}
	var rb strings.Builder
	for _, rev := range reviews {
		fmt.Fprintf(&rb, "- %s: %s\n", rev.Name, strings.Join(rev.Snippets, " | "))
	}

	return fmt.Sprintf(`Create a detailed daily itinerary for day %d of a %d-day trip to %s.

Trip Details:
- Travelers: %d
- Budget: %s
- Style: %s
- Interests: %s

Research Data Available:
%s
Top Places & Reviews:
%s
For this day include morning activities, afternoon activities, evening activities, restaurant recommendations and transportation tips. Be reasonable with what can be covered in one day and do not repeat the highlights of other days.

Return as YAML. Strictly follow the structure and escape any special characters in the content:
`+"```yaml"+`
morning: <activities>
afternoon: <activities>
evening: <activities>
meals: <recommendations>
tips: <helpful tips>
`+"```", day, trip.DurationDays, trip.Destination, trip.Travelers, trip.Budget, trip.TravelStyle, strings.Join(trip.Interests, ", "), b.String(), rb.String())
}

func buildBudgetPrompt(trip domain.TripAttributes, plans []domain.DailyPlan) string {
	var b strings.Builder
	for _, p := range plans {
		fmt.Fprintf(&b, "Day %d: %s / %s / %s\n", p.Day, p.Morning, p.Afternoon, p.Evening)
	}
	return fmt.Sprintf(`Create a budget breakdown for a trip.

- Destination: %s
- Budget: %s
- Duration: %d days
- Travelers: %d

Daily plans:
%s
Break the budget down by accommodation, food, transport and activities, and flag anything that looks unrealistic for the stated budget.`,
		trip.Destination, trip.Budget, trip.DurationDays, trip.Travelers, b.String())
}

func buildCombinePrompt(store combineInput) string {
	var days strings.Builder
	for _, p := range store.DailyPlans {
		fmt.Fprintf(&days, "Day %d:\n  Morning: %s\n  Afternoon: %s\n  Evening: %s\n  Meals: %s\n  Tips: %s\n",
			p.Day, p.Morning, p.Afternoon, p.Evening, p.Meals, p.Tips)
	}

	accommodations := "N/A"
	if len(store.Accommodations) > 0 {
		var ab strings.Builder
		for i, cat := range store.Accommodations {
			if i >= 2 {
				break
			}
			for _, r := range cat.Results {
				fmt.Fprintf(&ab, "- %s: %s\n", r.Title, r.Snippet)
			}
		}
		accommodations = ab.String()
	}

	transportation := "N/A"
	if len(store.Transportation.Results) > 0 {
		var tb strings.Builder
		for _, r := range store.Transportation.Results {
			fmt.Fprintf(&tb, "- %s: %s\n", r.Title, r.Snippet)
		}
		transportation = tb.String()
	}

	budget := store.BudgetBreakdown
	if budget == "" {
		budget = "No breakdown available; estimate from the stated budget."
	}

	return fmt.Sprintf(`Create a comprehensive, well-formatted travel guide.

Trip Information:
- Destination: %s
- Duration: %d days
- Travelers: %d
- Budget: %s
- Style: %s
- Interests: %s

Daily Plans:
%s
Additional Info:
- Accommodations:
%s
- Transportation:
%s
- Budget notes:
%s

Format as a beautiful travel guide with:
1. Trip Overview
2. Day-by-Day Itinerary (detailed) that is practically possible
3. Accommodation Recommendations
4. Transportation Guide
5. Important Tips
6. Budget Breakdown

Make it engaging, practical, and easy to follow.`,
		store.Trip.Destination, store.Trip.DurationDays, store.Trip.Travelers,
		store.Trip.Budget, store.Trip.TravelStyle, strings.Join(store.Trip.Interests, ", "),
		days.String(), accommodations, transportation, budget)
}

func buildReplanPrompt(currentPlan, feedback string, trip domain.TripAttributes) string {
	details := ""
	if raw, err := yaml.Marshal(trip); err == nil {
		details = string(raw)
	}
	return fmt.Sprintf(`You are revising a travel plan based on user feedback.

CURRENT PLAN:
%s

USER'S FEEDBACK:
%q

TRIP DETAILS:
%s

TASK:
Revise the travel plan to address the user's feedback. Keep what's working well and modify only what's needed to address their concerns.

Create an updated comprehensive travel guide that incorporates their requested changes.`,
		currentPlan, feedback, details)
}
