package models

import "slices"

// Step names one stage of the onboarding flow.
type Step string

const (
	StepAccount       Step = "account"
	StepAboutYou      Step = "about-you"
	StepBudget        Step = "budget"
	StepLifestyle     Step = "lifestyle"
	StepPhotos        Step = "photos"
	StepPlaceDetails  Step = "place-details"
	StepNotifications Step = "notifications"
	StepComplete      Step = "complete"

	// InitialStep is where new and reset accounts start.
	InitialStep = StepAccount
)

// onboardingSteps is the flow order. StepPlaceDetails is skipped for
// people without a place to list.
var onboardingSteps = []Step{
	StepAccount,
	StepAboutYou,
	StepBudget,
	StepLifestyle,
	StepPhotos,
	StepPlaceDetails,
	StepNotifications,
	StepComplete,
}

// IsKnown reports whether s is part of the onboarding flow.
func (s Step) IsKnown() bool {
	return slices.Contains(onboardingSteps, s)
}

// NextStep returns the step that follows step. ok is false for steps outside
// the flow. StepComplete is terminal and returns itself.
func NextStep(step Step, hasPlace bool) (next Step, ok bool) {
	i := slices.Index(onboardingSteps, step)
	if i < 0 {
		return "", false
	}
	if step == StepComplete {
		return StepComplete, true
	}
	next = onboardingSteps[i+1]
	if next == StepPlaceDetails && !hasPlace {
		next = onboardingSteps[i+2]
	}
	return next, true
}

// OnboardingProgress tracks where a person is in the onboarding flow.
type OnboardingProgress struct {
	CurrentStep Step `json:"currentStep"`

	// CompletedSteps is a set kept in completion order. Use MarkCompleted
	// to add to it; it only grows until Reset.
	CompletedSteps []Step `json:"completedSteps"`

	IsComplete bool `json:"isComplete"`
}

// NewOnboardingProgress returns progress positioned at InitialStep.
func NewOnboardingProgress() OnboardingProgress {
	return OnboardingProgress{
		CurrentStep:    InitialStep,
		CompletedSteps: []Step{},
	}
}

// HasCompleted reports whether step is in the completed set.
func (p OnboardingProgress) HasCompleted(step Step) bool {
	return slices.Contains(p.CompletedSteps, step)
}

// MarkCompleted adds step to the completed set. It returns false when the
// step was already present.
func (p *OnboardingProgress) MarkCompleted(step Step) bool {
	if p.HasCompleted(step) {
		return false
	}
	p.CompletedSteps = append(p.CompletedSteps, step)
	return true
}
