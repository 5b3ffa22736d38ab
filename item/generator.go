package item

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

const (
	// optionalChance is the percentage of generated items carrying each optional field.
	optionalChance = 80

	minPrice = 5.0
	maxPrice = 50000.0

	createdWindow = 5 * 365 * 24 * time.Hour
)

// Generator produces random items. Generators built from the same seed and
// clock produce the same sequence. A Generator is not safe for concurrent use.
type Generator struct {
	faker *gofakeit.Faker
	now   func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithClock sets the reference time creation timestamps are drawn back from.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a Generator. A zero seed draws a random one.
func NewGenerator(seed uint64, opts ...GeneratorOption) *Generator {
	g := &Generator{
		faker: gofakeit.New(seed),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns one random item. Item id, creation time, source, event id,
// URL and hash are always set; every other field is present with 80% chance.
func (g *Generator) Generate() Model {
	f := g.faker

	baseURL := "https://" + strings.ToLower(f.LetterN(10)) + ".com"
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(baseURL+"/"+f.LetterN(16))).String()
	now := g.now().UTC()

	opts := []Option{
		WithID(baseURL + "#" + id),
		WithCreated(f.DateRange(now.Add(-createdWindow), now)),
		WithSource(baseURL),
		WithURL(baseURL),
	}
	if g.chance() {
		opts = append(opts, WithState(States()[f.Number(0, len(States())-1)]))
	}
	if g.chance() {
		opts = append(opts, WithPrice(roundCents(f.Float64Range(minPrice, maxPrice))))
	}
	if g.chance() {
		opts = append(opts, WithCategory(g.category()))
	}
	if g.chance() {
		opts = append(opts, func(m *Model) { m.NameEn = g.title() })
	}
	if g.chance() {
		opts = append(opts, func(m *Model) { m.DescriptionEn = f.LoremIpsumSentence(f.Number(100, 499)) })
	}
	if g.chance() {
		opts = append(opts, func(m *Model) { m.NameDe = g.title() })
	}
	if g.chance() {
		opts = append(opts, func(m *Model) { m.DescriptionDe = f.LoremIpsumSentence(f.Number(100, 499)) })
	}
	if g.chance() {
		opts = append(opts, WithImageURL(baseURL+"/"+id+".png"))
	}

	return New(opts...)
}

// GenerateMany returns n random items.
func (g *Generator) GenerateMany(n int) []Model {
	items := make([]Model, 0, n)
	for range n {
		items = append(items, g.Generate())
	}
	return items
}

func (g *Generator) chance() bool {
	return g.faker.Number(1, 100) <= optionalChance
}

// category returns 2 to 6 words joined into a path.
func (g *Generator) category() string {
	words := make([]string, g.faker.Number(2, 6))
	for i := range words {
		words[i] = g.faker.LoremIpsumWord()
	}
	return strings.Join(words, "/")
}

func (g *Generator) title() string {
	s := strings.TrimSuffix(g.faker.LoremIpsumSentence(g.faker.Number(2, 6)), ".")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
