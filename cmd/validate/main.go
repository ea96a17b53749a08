// Command validate checks a published weather artifact on disk: JSON Schema
// conformance, content consistency and, optionally, freshness.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -file /opt/weather-daemon/cache/weather_forecast.json \
//	  -max-age 2h
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/weather-daemon/internal/domain"
	"github.com/couchcryptid/weather-daemon/internal/schema"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "path to the published weather_forecast.json")
	maxAge := flag.Duration("max-age", 0, "fail when the artifact is older than this (0 disables)")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file, *maxAge, time.Now()); code != 0 {
		os.Exit(code)
	}
}

func run(path string, maxAge time.Duration, now time.Time) int {
	fmt.Println("=== Weather Artifact Validation ===")
	fmt.Println()

	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: stat artifact: %v\n", err)
		return 1
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read artifact: %v\n", err)
		return 1
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode artifact: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSchema(data),
		validateContent(&doc),
	}
	if maxAge > 0 {
		phases = append(phases, validateFreshness(info.ModTime(), now, maxAge))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Artifact: %s (%d bytes), %d hourly, %d daily entries\n",
		path, info.Size(), len(doc.Hourly), len(doc.Daily))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateSchema(data []byte) *phase {
	p := &phase{name: "Phase 1: Schema conformance"}

	err := schema.Validate(data)
	var verr *schema.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		for _, fe := range verr.Errors {
			p.errorf("%s: %s", fe.Field, fe.Message)
		}
	default:
		p.errorf("%v", err)
	}
	return p
}

func validateContent(doc *domain.Document) *phase {
	p := &phase{name: "Phase 2: Content consistency"}

	if doc.Location == "" {
		p.errorf("location is empty")
	}
	if doc.Updated.IsZero() {
		p.errorf("updated is missing")
	}
	if !strings.HasPrefix(doc.UpdatedDisplay, "Updated ") {
		p.errorf("updated_display %q lacks the \"Updated \" prefix", doc.UpdatedDisplay)
	}
	if doc.Feed.Path != domain.FeedPath {
		p.errorf("feed.path = %q, want %q", doc.Feed.Path, domain.FeedPath)
	}
	if doc.Now.PrecipChance < 0 || doc.Now.PrecipChance > 100 {
		p.errorf("now.precip_chance %d outside 0-100", doc.Now.PrecipChance)
	}

	checkIcon(p, "now.icon", doc.Now.Icon)
	checkRange(p, "now", doc.Now.High, doc.Now.Low)
	for i, h := range doc.Hourly {
		checkIcon(p, fmt.Sprintf("hourly[%d].icon", i), h.Icon)
	}
	for i, d := range doc.Daily {
		checkIcon(p, fmt.Sprintf("daily[%d].icon", i), d.Icon)
		checkRange(p, fmt.Sprintf("daily[%d]", i), d.High, d.Low)
	}
	return p
}

func validateFreshness(modTime, now time.Time, maxAge time.Duration) *phase {
	p := &phase{name: "Phase 3: Freshness"}
	if age := now.Sub(modTime); age > maxAge {
		p.errorf("artifact is %s old, limit %s", age.Truncate(time.Second), maxAge)
	}
	return p
}

// ── Helpers ──

func checkIcon(p *phase, field, icon string) {
	if !domain.KnownIcon(icon) {
		p.errorf("%s: unknown icon %q", field, icon)
	}
}

func checkRange(p *phase, field string, high, low *int) {
	if high != nil && low != nil && *high < *low {
		p.errorf("%s: high %d below low %d", field, *high, *low)
	}
}
