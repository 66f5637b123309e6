package app_test

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"gameday-trivia-service/internal/app"
	"gameday-trivia-service/internal/domain"
)

type stubStats struct {
	hitting  domain.SeasonStats
	pitching domain.SeasonStats
	errs     map[domain.StatGroup]error
}

func (s stubStats) SeasonStats(_ context.Context, _ int64, _ int, group domain.StatGroup) (domain.SeasonStats, error) {
	if err := s.errs[group]; err != nil {
		return domain.SeasonStats{}, err
	}
	if group == domain.StatGroupPitching {
		return s.pitching, nil
	}
	return s.hitting, nil
}

func intp(v int) *int { return &v }

func newTestGenerator(live app.LiveContextProvider, stats app.StatSource, now time.Time) *app.Generator {
	return app.NewGeneratorWithRand(live, stats, testBank(), 2026, rand.New(rand.NewSource(7)), func() time.Time { return now })
}

func matchup() domain.LiveContext {
	return domain.LiveContext{
		GamePk:   777,
		HomeTeam: "Phillies",
		AwayTeam: "Mets",
		Batter:   &domain.PlayerRef{ID: 592450, Name: "Aaron Judge"},
		Pitcher:  &domain.PlayerRef{ID: 605483, Name: "Zack Wheeler"},
	}
}

func assertGraded(t *testing.T, d domain.QuestionDraft, want string) {
	t.Helper()
	if len(d.Options) != 4 {
		t.Fatalf("expected 4 options, got %v", d.Options)
	}
	seen := map[string]bool{}
	for _, o := range d.Options {
		if seen[o] {
			t.Fatalf("duplicate option %q in %v", o, d.Options)
		}
		seen[o] = true
	}
	if d.CorrectIndex == nil {
		t.Fatalf("expected a graded question, got %+v", d)
	}
	if d.Options[*d.CorrectIndex] != want {
		t.Fatalf("correct index points at %q, want %q (options %v)", d.Options[*d.CorrectIndex], want, d.Options)
	}
}

func TestGenerateBatterCountingStat(t *testing.T) {
	stats := stubStats{hitting: domain.SeasonStats{HomeRuns: intp(41)}}
	g := newTestGenerator(fixedLive{lc: matchup()}, stats, time.Now())

	d := g.Generate(context.Background(), 777)
	if d.Category != "batter-stat" {
		t.Fatalf("expected batter-stat, got %q", d.Category)
	}
	assertGraded(t, d, "41")
}

func TestGenerateClampsDistractorsNonNegative(t *testing.T) {
	stats := stubStats{hitting: domain.SeasonStats{StolenBases: intp(1)}}
	g := newTestGenerator(fixedLive{lc: matchup()}, stats, time.Now())

	d := g.Generate(context.Background(), 777)
	assertGraded(t, d, "1")
	for _, o := range d.Options {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			t.Fatalf("expected non-negative integer options, got %v", d.Options)
		}
	}
}

func TestGenerateFallsBackToPitcher(t *testing.T) {
	stats := stubStats{
		pitching: domain.SeasonStats{StrikeOuts: intp(212)},
		errs:     map[domain.StatGroup]error{domain.StatGroupHitting: errors.New("hitting feed down")},
	}
	g := newTestGenerator(fixedLive{lc: matchup()}, stats, time.Now())

	d := g.Generate(context.Background(), 777)
	if d.Category != "pitcher-stat" {
		t.Fatalf("expected pitcher-stat, got %q", d.Category)
	}
	assertGraded(t, d, "212")
}

func TestGeneratePitcherERA(t *testing.T) {
	stats := stubStats{
		pitching: domain.SeasonStats{ERA: "3.15"},
		errs:     map[domain.StatGroup]error{domain.StatGroupHitting: errors.New("hitting feed down")},
	}
	g := newTestGenerator(fixedLive{lc: matchup()}, stats, time.Now())

	d := g.Generate(context.Background(), 777)
	if d.Category != "pitcher-era" {
		t.Fatalf("expected pitcher-era, got %q", d.Category)
	}
	assertGraded(t, d, "3.15")
}

func TestGenerateBatterAverage(t *testing.T) {
	lc := matchup()
	lc.Pitcher = nil
	stats := stubStats{hitting: domain.SeasonStats{AVG: ".274"}}
	g := newTestGenerator(fixedLive{lc: lc}, stats, time.Now())

	d := g.Generate(context.Background(), 777)
	if d.Category != "batter-avg" {
		t.Fatalf("expected batter-avg, got %q", d.Category)
	}
	assertGraded(t, d, "0.274")
}

func TestGenerateTeamNextWhenStatsUnavailable(t *testing.T) {
	g := newTestGenerator(fixedLive{lc: matchup()}, noStats{}, time.Now())

	d := g.Generate(context.Background(), 777)
	if d.Category != "team-next" {
		t.Fatalf("expected team-next, got %q", d.Category)
	}
	if d.CorrectIndex != nil {
		t.Fatalf("engagement question must not be gradable")
	}
	if len(d.Options) != 2 || d.Options[0] != "Mets" || d.Options[1] != "Phillies" {
		t.Fatalf("expected [away home] options, got %v", d.Options)
	}
}

func TestGenerateBankFallbackRotates(t *testing.T) {
	bank := []domain.BankQuestion{
		{Text: "first", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 0},
		{Text: "second", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2},
	}
	now := time.Unix(0, 0)
	g := app.NewGeneratorWithRand(failingLive{}, noStats{}, bank, 2026, rand.New(rand.NewSource(7)), func() time.Time { return now })

	first := g.Generate(context.Background(), 777)
	if first.Category != "bank" || first.Text != "first" {
		t.Fatalf("expected the first bank entry, got %+v", first)
	}
	if first.CorrectIndex == nil || *first.CorrectIndex != 0 {
		t.Fatalf("expected bank correct index preserved, got %+v", first)
	}

	same := g.Generate(context.Background(), 777)
	if same.Text != first.Text {
		t.Fatalf("expected stable entry within a rotation window")
	}

	now = now.Add(30 * time.Second)
	next := g.Generate(context.Background(), 777)
	if next.Text != "second" {
		t.Fatalf("expected rotation to the second entry, got %+v", next)
	}
}

func TestGenerateBankFallbackWithEmptyBank(t *testing.T) {
	g := app.NewGeneratorWithRand(failingLive{}, noStats{}, nil, 2026, rand.New(rand.NewSource(7)), time.Now)

	d := g.Generate(context.Background(), 777)
	if d.Category != "bank" || d.CorrectIndex == nil {
		t.Fatalf("expected built-in fallback question, got %+v", d)
	}
	if d.Options[*d.CorrectIndex] != "Earned Run Average" {
		t.Fatalf("unexpected fallback answer: %v", d.Options)
	}
}
