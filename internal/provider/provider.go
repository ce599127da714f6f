// Package provider implements the dynamic value providers selected by
// template tags such as $random{..}, $uuid and $now.
package provider

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Provider generates one value per invocation. Providers are stateless with
// respect to configuration; their only impurity is the shared random source.
type Provider interface {
	Resolve() any
}

// Registry maps template tags to value providers. Named $range{..} tags are
// resolved against the config ranges table captured at construction.
type Registry struct {
	ranges map[string]any
	rnd    *lockedRand
}

// NewRegistry creates a registry backed by the given ranges table and a
// seeded random source. A zero seed falls back to the current time.
func NewRegistry(ranges map[string]any, seed int64) *Registry {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Registry{
		ranges: ranges,
		rnd:    &lockedRand{rnd: rand.New(rand.NewSource(seed))},
	}
}

// Lookup returns the provider matching the tag syntax, or (nil, false) when
// the string is not a provider tag at all. Unrecognized tags that still lead
// with '$' resolve to a passthrough provider returning the literal string.
func (r *Registry) Lookup(tag string) (Provider, bool) {
	if !strings.HasPrefix(tag, "$") || strings.HasPrefix(tag, "${") {
		return nil, false
	}

	switch tag {
	case "$uuid":
		return uuidProvider{}, true
	case "$now":
		return nowProvider{}, true
	}

	name, args, ok := splitTag(tag)
	if !ok {
		return staticProvider{value: tag}, true
	}

	switch name {
	case "random":
		return r.numericOrChoice(tag, args), true
	case "range":
		return r.rangeTag(tag, args), true
	case "lorem":
		n, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil || n < 0 {
			return staticProvider{value: tag}, true
		}
		return &loremProvider{words: n, rnd: r.rnd}, true
	default:
		return staticProvider{value: tag}, true
	}
}

// splitTag decomposes "$name{args}" into its parts.
func splitTag(tag string) (name, args string, ok bool) {
	if !strings.HasSuffix(tag, "}") {
		return "", "", false
	}
	open := strings.Index(tag, "{")
	if open < 2 {
		return "", "", false
	}
	return tag[1:open], tag[open+1 : len(tag)-1], true
}

// numericOrChoice builds the $random provider: two numeric tokens select a
// numeric range, any other comma list becomes a uniform string choice.
func (r *Registry) numericOrChoice(tag, args string) Provider {
	tokens := splitTokens(args)
	if len(tokens) == 2 {
		if p, ok := r.numericRange(tokens[0], tokens[1]); ok {
			return p
		}
	}
	if len(tokens) >= 2 {
		return &choiceProvider{options: tokens, rnd: r.rnd}
	}
	return staticProvider{value: tag}
}

// rangeTag builds the $range provider from explicit bounds or a named entry
// in the config ranges table.
func (r *Registry) rangeTag(tag, args string) Provider {
	tokens := splitTokens(args)
	if len(tokens) == 2 {
		if p, ok := r.numericRange(tokens[0], tokens[1]); ok {
			return p
		}
		return staticProvider{value: tag}
	}
	if len(tokens) == 1 {
		if lo, hi, isFloat, ok := namedBounds(r.ranges, tokens[0]); ok {
			if isFloat {
				return &floatRangeProvider{lo: lo, hi: hi, rnd: r.rnd}
			}
			return &intRangeProvider{lo: int64(lo), hi: int64(hi), rnd: r.rnd}
		}
	}
	return staticProvider{value: tag}
}

func (r *Registry) numericRange(aTok, bTok string) (Provider, bool) {
	a, errA := strconv.ParseFloat(aTok, 64)
	b, errB := strconv.ParseFloat(bTok, 64)
	if errA != nil || errB != nil {
		return nil, false
	}
	if a > b {
		a, b = b, a
	}
	if strings.Contains(aTok, ".") || strings.Contains(bTok, ".") {
		return &floatRangeProvider{lo: a, hi: b, rnd: r.rnd}, true
	}
	return &intRangeProvider{lo: int64(a), hi: int64(b), rnd: r.rnd}, true
}

// namedBounds resolves a symbolic range name against the ranges table.
// Accepted shapes: [min, max] sequences and {min: .., max: ..} mappings.
func namedBounds(ranges map[string]any, name string) (lo, hi float64, isFloat, ok bool) {
	raw, found := ranges[name]
	if !found {
		return 0, 0, false, false
	}
	var loRaw, hiRaw any
	switch v := raw.(type) {
	case []any:
		if len(v) != 2 {
			return 0, 0, false, false
		}
		loRaw, hiRaw = v[0], v[1]
	case map[string]any:
		var okLo, okHi bool
		loRaw, okLo = v["min"]
		hiRaw, okHi = v["max"]
		if !okLo || !okHi {
			return 0, 0, false, false
		}
	default:
		return 0, 0, false, false
	}

	lo, okA := toFloat(loRaw)
	hi, okB := toFloat(hiRaw)
	if !okA || !okB {
		return 0, 0, false, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	isFloat = lo != math.Trunc(lo) || hi != math.Trunc(hi)
	return lo, hi, isFloat, true
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func splitTokens(args string) []string {
	parts := strings.Split(args, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}

// lockedRand serializes access to a seeded rand.Rand so providers can be
// invoked from concurrent endpoint tasks.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (l *lockedRand) Int63n(n int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Int63n(n)
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

type intRangeProvider struct {
	lo, hi int64
	rnd    *lockedRand
}

func (p *intRangeProvider) Resolve() any {
	return int(p.lo + p.rnd.Int63n(p.hi-p.lo+1))
}

type floatRangeProvider struct {
	lo, hi float64
	rnd    *lockedRand
}

func (p *floatRangeProvider) Resolve() any {
	value := p.lo + p.rnd.Float64()*(p.hi-p.lo)
	return math.Round(value*100) / 100
}

type choiceProvider struct {
	options []string
	rnd     *lockedRand
}

func (p *choiceProvider) Resolve() any {
	return p.options[p.rnd.Intn(len(p.options))]
}

type uuidProvider struct{}

func (uuidProvider) Resolve() any {
	return uuid.NewString()
}

type nowProvider struct{}

func (nowProvider) Resolve() any {
	return time.Now().UTC().Format(time.RFC3339)
}

var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing",
	"elit", "sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore",
	"et", "dolore", "magna", "aliqua", "enim", "ad", "minim", "veniam",
	"quis", "nostrud", "exercitation", "ullamco", "laboris", "nisi",
	"aliquip", "ex", "ea", "commodo", "consequat",
}

type loremProvider struct {
	words int
	rnd   *lockedRand
}

func (p *loremProvider) Resolve() any {
	out := make([]string, p.words)
	for i := range out {
		out[i] = loremWords[p.rnd.Intn(len(loremWords))]
	}
	return strings.Join(out, " ")
}

// staticProvider passes the original string through unchanged.
type staticProvider struct {
	value string
}

func (p staticProvider) Resolve() any {
	return p.value
}
