package provider_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ramazansakin/firedrill/internal/provider"
)

func lookup(t *testing.T, r *provider.Registry, tag string) provider.Provider {
	t.Helper()
	p, ok := r.Lookup(tag)
	if !ok {
		t.Fatalf("expected %q to resolve to a provider", tag)
	}
	return p
}

func TestRandomIntRangeStaysInBounds(t *testing.T) {
	r := provider.NewRegistry(nil, 42)
	p := lookup(t, r, "$random{1,100}")

	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		value, ok := p.Resolve().(int)
		if !ok {
			t.Fatalf("expected int, got %T", p.Resolve())
		}
		if value < 1 || value > 100 {
			t.Fatalf("value %d out of range [1,100]", value)
		}
		seen[value] = true
	}
	if len(seen) < 50 {
		t.Errorf("expected varied samples, got only %d distinct values", len(seen))
	}
}

func TestRandomIntRangeInclusiveBounds(t *testing.T) {
	r := provider.NewRegistry(nil, 7)
	p := lookup(t, r, "$random{1,2}")

	sawLo, sawHi := false, false
	for i := 0; i < 200; i++ {
		switch p.Resolve().(int) {
		case 1:
			sawLo = true
		case 2:
			sawHi = true
		default:
			t.Fatal("value outside inclusive bounds")
		}
	}
	if !sawLo || !sawHi {
		t.Errorf("expected both bounds to appear, lo=%v hi=%v", sawLo, sawHi)
	}
}

func TestRandomFloatRangeRoundsToTwoDecimals(t *testing.T) {
	r := provider.NewRegistry(nil, 42)
	p := lookup(t, r, "$random{0.5,9.5}")

	for i := 0; i < 1000; i++ {
		value, ok := p.Resolve().(float64)
		if !ok {
			t.Fatalf("expected float64, got %T", p.Resolve())
		}
		if value < 0.5 || value > 9.5 {
			t.Fatalf("value %v out of range [0.5,9.5]", value)
		}
		scaled := value * 100
		if math.Abs(scaled-math.Round(scaled)) > 1e-6 {
			t.Fatalf("value %v not rounded to two decimals", value)
		}
	}
}

func TestRandomReversedBoundsAreSwapped(t *testing.T) {
	r := provider.NewRegistry(nil, 1)
	p := lookup(t, r, "$random{100,1}")

	for i := 0; i < 100; i++ {
		value := p.Resolve().(int)
		if value < 1 || value > 100 {
			t.Fatalf("value %d out of range after swap", value)
		}
	}
}

func TestRandomChoicePicksOnlyListedOptions(t *testing.T) {
	r := provider.NewRegistry(nil, 42)
	p := lookup(t, r, "$random{red,green,blue}")

	counts := map[string]int{}
	for i := 0; i < 100; i++ {
		value, ok := p.Resolve().(string)
		if !ok {
			t.Fatalf("expected string, got %T", p.Resolve())
		}
		counts[value]++
	}
	for value := range counts {
		if value != "red" && value != "green" && value != "blue" {
			t.Errorf("unexpected choice %q", value)
		}
	}
	if len(counts) < 2 {
		t.Errorf("expected at least two distinct choices, got %v", counts)
	}
}

func TestUUIDProvider(t *testing.T) {
	r := provider.NewRegistry(nil, 42)
	p := lookup(t, r, "$uuid")

	first := p.Resolve().(string)
	second := p.Resolve().(string)
	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("invalid uuid %q: %v", first, err)
	}
	if first == second {
		t.Error("expected a fresh uuid per invocation")
	}
}

func TestNowProviderFormatsRFC3339(t *testing.T) {
	r := provider.NewRegistry(nil, 42)
	p := lookup(t, r, "$now")

	value := p.Resolve().(string)
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("invalid timestamp %q: %v", value, err)
	}
	if diff := time.Since(parsed); diff < -time.Minute || diff > time.Minute {
		t.Errorf("timestamp %q not near current time", value)
	}
}

func TestLoremProviderWordCount(t *testing.T) {
	r := provider.NewRegistry(nil, 42)
	p := lookup(t, r, "$lorem{5}")

	value := p.Resolve().(string)
	if words := strings.Fields(value); len(words) != 5 {
		t.Errorf("expected 5 words, got %d in %q", len(words), value)
	}
}

func TestNamedRangeFromTable(t *testing.T) {
	ranges := map[string]any{
		"user_ids": []any{100, 200},
		"prices":   map[string]any{"min": 1.5, "max": 2.5},
	}
	r := provider.NewRegistry(ranges, 42)

	ints := lookup(t, r, "$range{user_ids}")
	for i := 0; i < 200; i++ {
		value, ok := ints.Resolve().(int)
		if !ok {
			t.Fatalf("expected int for user_ids, got %T", ints.Resolve())
		}
		if value < 100 || value > 200 {
			t.Fatalf("user_ids value %d out of bounds", value)
		}
	}

	floats := lookup(t, r, "$range{prices}")
	for i := 0; i < 200; i++ {
		value, ok := floats.Resolve().(float64)
		if !ok {
			t.Fatalf("expected float64 for prices, got %T", floats.Resolve())
		}
		if value < 1.5 || value > 2.5 {
			t.Fatalf("prices value %v out of bounds", value)
		}
	}
}

func TestExplicitRangeBounds(t *testing.T) {
	r := provider.NewRegistry(nil, 42)
	p := lookup(t, r, "$range{10,20}")

	for i := 0; i < 200; i++ {
		value := p.Resolve().(int)
		if value < 10 || value > 20 {
			t.Fatalf("value %d out of range [10,20]", value)
		}
	}
}

func TestUnknownTagsPassThrough(t *testing.T) {
	r := provider.NewRegistry(nil, 42)

	for _, tag := range []string{"$unknown", "$range{missing_name}", "$random{solo}", "$lorem{x}"} {
		p, ok := r.Lookup(tag)
		if !ok {
			t.Fatalf("expected passthrough provider for %q", tag)
		}
		if got := p.Resolve(); got != tag {
			t.Errorf("expected %q to pass through, got %v", tag, got)
		}
	}
}

func TestVariableReferencesAreNotTags(t *testing.T) {
	r := provider.NewRegistry(nil, 42)

	for _, value := range []string{"${user_id}", "plain text", "price: $random{1,5}"} {
		if _, ok := r.Lookup(value); ok {
			t.Errorf("expected no provider for %q", value)
		}
	}
}

func TestSeededRegistryIsDeterministic(t *testing.T) {
	a := lookup(t, provider.NewRegistry(nil, 99), "$random{1,1000000}")
	b := lookup(t, provider.NewRegistry(nil, 99), "$random{1,1000000}")

	for i := 0; i < 10; i++ {
		if av, bv := a.Resolve(), b.Resolve(); av != bv {
			t.Fatalf("seeded sequences diverged at %d: %v vs %v", i, av, bv)
		}
	}
}
