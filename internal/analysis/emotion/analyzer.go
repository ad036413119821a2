package emotion

import "strings"

// Label 表示可统计的情绪类别，集合封闭。
type Label string

const (
	Joy     Label = "joy"
	Sadness Label = "sadness"
	Anger   Label = "anger"
	Fear    Label = "fear"
	Neutral Label = "neutral"
	Disgust Label = "disgust"
)

// priority 同时决定统计输出顺序与同分时的取舍：靠前者胜出。
var priority = []Label{Joy, Sadness, Anger, Fear, Neutral, Disgust}

// Labels returns the closed label set in tie-break priority order.
func Labels() []Label {
	return append([]Label(nil), priority...)
}

// Valid reports whether l belongs to the closed label set.
func (l Label) Valid() bool {
	for _, candidate := range priority {
		if l == candidate {
			return true
		}
	}
	return false
}

// ParseLabel 将外部输入（如模型输出）规范化为情绪标签。
func ParseLabel(raw string) (Label, bool) {
	label := Label(strings.ToLower(strings.TrimSpace(raw)))
	if !label.Valid() {
		return "", false
	}
	return label, true
}

var keywordBuckets = map[Label][]string{
	Sadness: {"sad", "depress", "hopeless", "alone", "tired", "low", "unhappy", "miserable", "cry"},
	Joy:     {"happy", "good", "great", "awesome", "joy", "excited", "glad", "relieved"},
	Anger:   {"angry", "hate", "furious", "annoyed", "frustrat", "irritat"},
	Fear:    {"scared", "afraid", "anxious", "panic", "worried", "fear"},
	Disgust: {"disgust", "gross", "nasty", "repulsed"},
}

var crisisKeywords = []string{
	"suicide", "kill myself", "end my life", "i want to die", "i'm going to die",
	"i want to end it", "worthless", "cant go on", "can't go on", "die now",
}

var negationMarkers = []string{"not", "n't", "no", "never"}

// Keywords returns a copy of the keyword list for label.
func Keywords(label Label) []string {
	return append([]string(nil), keywordBuckets[label]...)
}

// CrisisKeywords returns a copy of the crisis keyword list.
func CrisisKeywords() []string {
	return append([]string(nil), crisisKeywords...)
}

// Result 给出分类结果以及各标签得分。
type Result struct {
	Label    Label
	Scores   map[Label]float64
	Fallback bool
}

// DetectCrisis reports whether text contains any crisis keyword. Matching is
// plain substring containment on the lowercased text.
func DetectCrisis(text string) bool {
	normalized := strings.ToLower(text)
	for _, kw := range crisisKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// CrisisMatches lists every crisis keyword found in text, in table order.
func CrisisMatches(text string) []string {
	normalized := strings.ToLower(text)
	var matches []string
	for _, kw := range crisisKeywords {
		if strings.Contains(normalized, kw) {
			matches = append(matches, kw)
		}
	}
	return matches
}

// Detect is shorthand for Classify(text).Label.
func Detect(text string) Label {
	return Classify(text).Label
}

// Classify 根据关键词命中数为每个情绪打分并选出最高者。
func Classify(text string) Result {
	normalized := strings.ToLower(text)

	scores := make(map[Label]float64, len(priority))
	for _, label := range priority {
		scores[label] = 0
	}

	total := 0.0
	for label, keywords := range keywordBuckets {
		for _, kw := range keywords {
			// 每个关键词只计一次，与出现次数无关。
			if strings.Contains(normalized, kw) {
				scores[label]++
				total++
			}
		}
	}

	fallback := false
	if total == 0 {
		fallback = true
		if containsAny(normalized, negationMarkers) {
			scores[Sadness] += 0.5
		} else {
			scores[Neutral] += 1
		}
	}

	best := priority[0]
	for _, label := range priority[1:] {
		if scores[label] > scores[best] {
			best = label
		}
	}
	if scores[best] <= 0 {
		best = Neutral
	}

	return Result{Label: best, Scores: scores, Fallback: fallback}
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
