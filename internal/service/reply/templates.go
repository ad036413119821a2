package reply

import "github.com/zhouzirui/mindhaven/backend/internal/analysis/emotion"

// EmptyReply is returned for blank input.
const EmptyReply = "Please say or type something so I can help."

// FollowUpPrompt is offered to non-distressed labels most of the time.
const FollowUpPrompt = "Would you like to try a breathing exercise or hear a distraction (joke/short story)?"

const crisisPreamble = "⚠️ It sounds like you might be in crisis. Please reach out for immediate help:\n"

// followUpPromptChance is the probability of FollowUpPrompt over a suggestion.
const followUpPromptChance = 0.6

var empathy = map[emotion.Label][]string{
	emotion.Sadness: {
		"I’m really sorry you’re feeling this way 💙. I’m here with you.",
		"That sounds heavy. Would you like to tell me what happened?",
		"Your feelings are valid — thank you for sharing that with me.",
	},
	emotion.Joy: {
		"That’s wonderful! I’m happy for you 😊",
		"Amazing — I love hearing good news like this!",
		"Enjoy this moment — you deserve it.",
	},
	emotion.Anger: {
		"I hear your frustration 😤. Want to say what triggered it?",
		"It makes sense to feel angry. Let’s try to understand it together.",
		"Anger can be heavy. I’m with you to work through it.",
	},
	emotion.Fear: {
		"It sounds scary — you’re not alone. Breathe slowly with me.",
		"I understand that worry. Tell me what exactly you’re fearing.",
		"Fear is valid and okay. We can handle this step by step.",
	},
	emotion.Disgust: {
		"That must have been unpleasant. Do you want to share more?",
		"I’m sorry you experienced that — thank you for telling me.",
	},
	emotion.Neutral: {
		"I’m listening. Tell me more about what’s on your mind.",
		"Thanks for sharing — I’m here to help however I can.",
		"Go on, I’m paying attention.",
	},
}

var suggestions = []string{
	"Try a breathing exercise: inhale 4s — hold 4s — exhale 6s. Repeat 4 times.",
	"If possible, stand up and stretch your arms — small movement helps.",
	"Write down one small thing you can do in the next hour to feel better.",
	"If it helps, call a trusted friend or family member and tell them you need support.",
}

// Empathy returns a copy of the empathy templates for label, or the neutral
// templates when label has none.
func Empathy(label emotion.Label) []string {
	lines, ok := empathy[label]
	if !ok {
		lines = empathy[emotion.Neutral]
	}
	return append([]string(nil), lines...)
}

// Suggestions returns a copy of the practical suggestions.
func Suggestions() []string {
	return append([]string(nil), suggestions...)
}

func alwaysSuggest(label emotion.Label) bool {
	return label == emotion.Sadness || label == emotion.Fear
}
