package reply

import (
	"math/rand/v2"
	"sync"

	"github.com/zhouzirui/mindhaven/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindhaven/backend/internal/model/helpline"
)

// Rand is the randomness the responder draws from.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// NewRandom returns a Rand backed by the runtime's shared source.
func NewRandom() Rand {
	return globalRand{}
}

type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// NewSeeded returns a deterministic Rand, safe for concurrent use.
func NewSeeded(seed uint64) Rand {
	return &lockedRand{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Responder composes replies from the static templates.
type Responder struct {
	line helpline.Helpline
	rng  Rand
}

// New creates a Responder. A nil rng falls back to NewRandom.
func New(line helpline.Helpline, rng Rand) *Responder {
	if rng == nil {
		rng = NewRandom()
	}
	return &Responder{line: line, rng: rng}
}

// Helpline returns the helpline used in crisis replies.
func (r *Responder) Helpline() helpline.Helpline {
	return r.line
}

// CrisisMessage returns the fixed reply sent when crisis language is detected.
func (r *Responder) CrisisMessage() string {
	return CrisisMessage(r.line)
}

// CrisisMessage builds the crisis reply for a helpline.
func CrisisMessage(line helpline.Helpline) string {
	return crisisPreamble + line.Contact + "\n" + line.Outside
}

// Reply builds the bot answer for text. Crisis language overrides label.
func (r *Responder) Reply(text string, label emotion.Label) string {
	if emotion.DetectCrisis(text) {
		return r.CrisisMessage()
	}

	prefix := r.pick(Empathy(label))

	var follow string
	switch {
	case alwaysSuggest(label):
		follow = r.pick(suggestions)
	case r.rng.Float64() < followUpPromptChance:
		follow = FollowUpPrompt
	default:
		follow = r.pick(suggestions)
	}

	return prefix + "\n\n" + follow
}

func (r *Responder) pick(options []string) string {
	return options[r.rng.IntN(len(options))]
}
