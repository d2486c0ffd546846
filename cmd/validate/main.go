// Command validate checks the snapshot files in an output directory for
// integrity: leaderboard ranks, previous ranks, ordering, storm events and
// history continuity. It exits non-zero when any phase fails.
//
// Usage:
//
//	go run ./cmd/validate -dir public/data -storm-threshold 4
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	skipped bool
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "public/data", "directory containing snapshot files")
	threshold := flag.Float64("storm-threshold", domain.DefaultStormThreshold, "minimum 24h snowfall for a storm event")
	flag.Parse()

	if code := run(*dir, *threshold); code != 0 {
		os.Exit(code)
	}
}

func run(dir string, threshold float64) int {
	fmt.Println("=== Snapshot Integrity Validation ===")
	fmt.Println()

	var (
		current, ny domain.CurrentSnapshot
		cold        domain.ColdSnapshot
		history     domain.HistorySnapshot
	)
	for name, v := range map[string]any{
		domain.FileSeasonCurrent: &current,
		domain.FileSnowfallNY:    &ny,
		domain.FileColdest:       &cold,
	} {
		if err := loadJSON(filepath.Join(dir, name), v); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", name, err)
			return 1
		}
	}
	err := loadJSON(filepath.Join(dir, domain.FileHistory), &history)
	hasHistory := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", domain.FileHistory, err)
		return 1
	}

	phases := []*phase{
		validateSnowBoard(domain.FileSeasonCurrent, current),
		validateSnowBoard(domain.FileSnowfallNY, ny),
		validateColdBoard(cold),
		validateStormEvents(current, threshold),
	}
	if hasHistory {
		phases = append(phases, validateHistory(history))
	} else {
		phases = append(phases, &phase{name: "History continuity", skipped: true})
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "\033[33mSKIP\033[0m"
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Entries: %d national, %d NY, %d coldest, %d storm events, %d history cities\n",
		len(current.Rankings), len(ny.Rankings), len(cold.Rankings), len(current.StormEvents), len(history.Cities))

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

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ── Validation phases ──

// validateSnowBoard checks a snowfall leaderboard: ranks form 1..N, previous
// ranks are positive, valid rows are ordered by total descending and
// placeholders trail the valid rows.
func validateSnowBoard(name string, s domain.CurrentSnapshot) *phase {
	p := &phase{name: "Leaderboard " + name}
	checkSeasonDates(p, s.SeasonStart, s.SeasonEnd)

	ranks := make([]int, len(s.Rankings))
	seenError := false
	for i, e := range s.Rankings {
		ranks[i] = e.Rank
		checkPreviousRank(p, e.ID, e.PreviousRank)
		if e.TotalSnow < 0 || e.Last24h < 0 {
			p.errorf("%s: negative snowfall (total %.1f, 24h %.1f)", e.ID, e.TotalSnow, e.Last24h)
		}
		if !isRounded(e.TotalSnow) || !isRounded(e.Last24h) {
			p.errorf("%s: values not rounded to one decimal", e.ID)
		}
		if e.Error {
			seenError = true
			continue
		}
		if seenError {
			p.errorf("%s: valid entry ranked after a failed one", e.ID)
		}
		if i > 0 && !s.Rankings[i-1].Error && s.Rankings[i-1].TotalSnow < e.TotalSnow {
			p.errorf("%s: total %.1f ranked below %.1f", e.ID, e.TotalSnow, s.Rankings[i-1].TotalSnow)
		}
	}
	checkPermutation(p, ranks)
	return p
}

// validateColdBoard checks the coldest-cities leaderboard.
func validateColdBoard(s domain.ColdSnapshot) *phase {
	p := &phase{name: "Leaderboard " + domain.FileColdest}
	checkSeasonDates(p, s.SeasonStart, s.SeasonEnd)

	ranks := make([]int, len(s.Rankings))
	seenError := false
	for i, e := range s.Rankings {
		ranks[i] = e.Rank
		checkPreviousRank(p, e.ID, e.PreviousRank)
		if e.Error {
			seenError = true
			continue
		}
		if seenError {
			p.errorf("%s: valid entry ranked after a failed one", e.ID)
		}
		if i > 0 && !s.Rankings[i-1].Error && s.Rankings[i-1].LowestTemp > e.LowestTemp {
			p.errorf("%s: low %.1f ranked below %.1f", e.ID, e.LowestTemp, s.Rankings[i-1].LowestTemp)
		}
		if e.LowestWindchill > e.LowestTemp {
			p.errorf("%s: windchill %.1f above low %.1f", e.ID, e.LowestWindchill, e.LowestTemp)
		}
	}
	checkPermutation(p, ranks)
	return p
}

// validateStormEvents checks that every storm event meets the threshold, is
// ordered by snowfall descending and carries a message.
func validateStormEvents(s domain.CurrentSnapshot, threshold float64) *phase {
	p := &phase{name: "Storm events"}
	if s.StormEvents == nil {
		p.errorf("storm_events is null, want a list")
	}
	for i, ev := range s.StormEvents {
		if ev.Snow24h < threshold {
			p.errorf("%s, %s: %.1f below threshold %.1f", ev.City, ev.State, ev.Snow24h, threshold)
		}
		if i > 0 && s.StormEvents[i-1].Snow24h < ev.Snow24h {
			p.errorf("%s, %s: %.1f listed after %.1f", ev.City, ev.State, ev.Snow24h, s.StormEvents[i-1].Snow24h)
		}
		if ev.Message == "" {
			p.errorf("%s, %s: empty message", ev.City, ev.State)
		}
	}
	return p
}

// validateHistory checks that every city carries every season in the span
// with a non-negative rounded total.
func validateHistory(h domain.HistorySnapshot) *phase {
	p := &phase{name: "History continuity"}
	span := domain.SeasonSpan{First: h.Meta.StartSeason, Last: h.Meta.EndSeason}
	if err := span.Validate(); err != nil {
		p.errorf("meta: %v", err)
		return p
	}
	if h.Meta.Source == "" {
		p.errorf("meta: empty source")
	}

	for id, totals := range h.Cities {
		for _, season := range span.Seasons() {
			v, ok := totals[season]
			switch {
			case !ok:
				p.errorf("%s: season %d missing", id, season)
			case v < 0:
				p.errorf("%s: season %d negative total %.1f", id, season, v)
			case !isRounded(v):
				p.errorf("%s: season %d total %v not rounded", id, season, v)
			}
		}
		for season := range totals {
			if !span.Contains(season) {
				p.errorf("%s: season %d outside %d..%d", id, season, span.First, span.Last)
			}
		}
	}
	return p
}

// ── Shared checks ──

func checkPermutation(p *phase, ranks []int) {
	seen := make(map[int]bool, len(ranks))
	for _, r := range ranks {
		if r < 1 || r > len(ranks) {
			p.errorf("rank %d outside 1..%d", r, len(ranks))
			continue
		}
		if seen[r] {
			p.errorf("rank %d assigned twice", r)
		}
		seen[r] = true
	}
}

func checkPreviousRank(p *phase, id string, prev int) {
	if prev < 1 {
		p.errorf("%s: previous_rank %d, want a positive rank", id, prev)
	}
}

func checkSeasonDates(p *phase, start, end string) {
	s, err := domain.ParseDate(start)
	if err != nil {
		p.errorf("season_start %q: %v", start, err)
		return
	}
	e, err := domain.ParseDate(end)
	if err != nil {
		p.errorf("season_end %q: %v", end, err)
		return
	}
	if e.Before(s) {
		p.errorf("season_end %s before season_start %s", end, start)
	}
}

func isRounded(v float64) bool {
	return domain.Round1(v) == v
}
