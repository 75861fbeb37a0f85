package prompt

import (
	"math/rand/v2"
	"strings"

	"github.com/matheuskafuri/dbroast/internal/feed"
)

// Rand is the source of uniform choices.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Request is a fully rendered generation prompt and the persona behind it.
type Request struct {
	Prompt  string
	Persona Persona
}

type Builder struct {
	rng       Rand
	personas  []Persona
	templates []string
	devices   []string
	closings  []string
}

// NewBuilder returns a builder over the fixed persona, template, device and
// closing sets. A nil rng uses the runtime's random source.
func NewBuilder(rng Rand) *Builder {
	if rng == nil {
		rng = globalRand{}
	}
	return &Builder{
		rng:       rng,
		personas:  personas,
		templates: templates,
		devices:   devices,
		closings:  closings,
	}
}

// Build picks a persona, template, device and closing uniformly at random and
// renders the prompt around the item's text.
func (b *Builder) Build(item feed.Item) Request {
	p := b.personas[b.rng.IntN(len(b.personas))]
	tmpl := b.templates[b.rng.IntN(len(b.templates))]
	device := b.devices[b.rng.IntN(len(b.devices))]
	closing := b.closings[b.rng.IntN(len(b.closings))]

	r := strings.NewReplacer(
		"{persona}", p.Name,
		"{role}", p.Role,
		"{tone}", p.Tone,
		"{device}", device,
		"{closing}", closing,
		"{content}", Content(item),
	)
	return Request{Prompt: r.Replace(tmpl), Persona: p}
}

// Content is the article text embedded in a prompt: the snippet, else the
// full content, else the title.
func Content(item feed.Item) string {
	if s := strings.TrimSpace(item.Snippet); s != "" {
		return s
	}
	if s := strings.TrimSpace(item.Content); s != "" {
		return s
	}
	return item.Title
}
