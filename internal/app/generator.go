package app

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"gameday-trivia-service/internal/domain"
)

// LiveContextProvider supplies the latest known game state.
type LiveContextProvider interface {
	LiveContext(ctx context.Context, gamePk int64) (domain.LiveContext, error)
}

// StatSource returns season aggregate statistics for a player.
type StatSource interface {
	SeasonStats(ctx context.Context, playerID int64, season int, group domain.StatGroup) (domain.SeasonStats, error)
}

// BankLoader loads the static fallback question bank.
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.BankQuestion, error)
}

// Budget for a single upstream call made while crafting a question; a slow
// stat feed degrades to the next template, it never stalls the request.
const upstreamTimeout = 3 * time.Second

// How often the static fallback bank rotates to the next entry.
const bankRotation = 30 * time.Second

const optionCount = 4

// Generator crafts trivia questions from live game context, degrading
// template by template down to a static definitional bank. It never fails:
// missing context, missing stats, and upstream errors all fall through.
type Generator struct {
	live   LiveContextProvider
	stats  StatSource
	bank   []domain.BankQuestion
	season int
	clock  func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator(live LiveContextProvider, stats StatSource, bank []domain.BankQuestion, season int) *Generator {
	return NewGeneratorWithRand(live, stats, bank, season, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

// NewGeneratorWithRand is test-only for deterministic shuffles and rotation.
func NewGeneratorWithRand(live LiveContextProvider, stats StatSource, bank []domain.BankQuestion, season int, rnd *rand.Rand, clock func() time.Time) *Generator {
	return &Generator{
		live:   live,
		stats:  stats,
		bank:   bank,
		season: season,
		clock:  clock,
		rnd:    rnd,
	}
}

type countingStat struct {
	key   string
	label string
	value *int
}

// Generate produces a question draft for the game. Templates run in
// priority order: batter counting stat, pitcher counting stat, pitcher
// ERA, batter average, then a team engagement question; the static bank
// is the last resort when no live context is available at all.
func (g *Generator) Generate(ctx context.Context, gamePk int64) domain.QuestionDraft {
	ctx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	lc, err := g.live.LiveContext(ctx, gamePk)
	if err == nil {
		if d := g.batterCounting(ctx, lc); d != nil {
			return *d
		}
		if d := g.pitcherCounting(ctx, lc); d != nil {
			return *d
		}
		if d := g.pitcherERA(ctx, lc); d != nil {
			return *d
		}
		if d := g.batterAverage(ctx, lc); d != nil {
			return *d
		}
		return g.teamNext(lc)
	}
	return g.bankFallback()
}

func (g *Generator) seasonFor(now time.Time) int {
	if g.season > 0 {
		return g.season
	}
	return now.Year()
}

func (g *Generator) batterCounting(ctx context.Context, lc domain.LiveContext) *domain.QuestionDraft {
	if lc.Batter == nil {
		return nil
	}
	season := g.seasonFor(g.clock())
	stats, err := g.stats.SeasonStats(ctx, lc.Batter.ID, season, domain.StatGroupHitting)
	if err != nil {
		return nil
	}
	candidates := []countingStat{
		{"homeRuns", "home runs", stats.HomeRuns},
		{"rbi", "RBIs", stats.RBI},
		{"stolenBases", "stolen bases", stats.StolenBases},
		{"runs", "runs", stats.Runs},
		{"hits", "hits", stats.Hits},
	}
	available := candidates[:0]
	for _, c := range candidates {
		if c.value != nil {
			available = append(available, c)
		}
	}
	if len(available) == 0 {
		return nil
	}

	g.mu.Lock()
	chosen := available[g.rnd.Intn(len(available))]
	options, answer := g.intChoicesLocked(*chosen.value, []int{-3, -1, 2, 5})
	g.mu.Unlock()

	return &domain.QuestionDraft{
		Text:         fmt.Sprintf("How many %s does %s have in %d?", chosen.label, lc.Batter.Name, season),
		Options:      options,
		CorrectIndex: &answer,
		Category:     "batter-stat",
		Detail:       fmt.Sprintf("Source: MLB season stats %d", season),
	}
}

func (g *Generator) pitcherCounting(ctx context.Context, lc domain.LiveContext) *domain.QuestionDraft {
	if lc.Pitcher == nil {
		return nil
	}
	season := g.seasonFor(g.clock())
	stats, err := g.stats.SeasonStats(ctx, lc.Pitcher.ID, season, domain.StatGroupPitching)
	if err != nil {
		return nil
	}
	// Fixed priority rather than random: strikeouts read best on screen.
	ordered := []countingStat{
		{"strikeOuts", "strikeouts", stats.StrikeOuts},
		{"wins", "wins", stats.Wins},
		{"saves", "saves", stats.Saves},
	}
	var chosen *countingStat
	for i := range ordered {
		if ordered[i].value != nil {
			chosen = &ordered[i]
			break
		}
	}
	if chosen == nil {
		return nil
	}

	g.mu.Lock()
	options, answer := g.intChoicesLocked(*chosen.value, []int{-4, -2, 1, 3})
	g.mu.Unlock()

	return &domain.QuestionDraft{
		Text:         fmt.Sprintf("How many %s does %s have in %d?", chosen.label, lc.Pitcher.Name, season),
		Options:      options,
		CorrectIndex: &answer,
		Category:     "pitcher-stat",
		Detail:       fmt.Sprintf("Source: MLB season stats %d", season),
	}
}

func (g *Generator) pitcherERA(ctx context.Context, lc domain.LiveContext) *domain.QuestionDraft {
	if lc.Pitcher == nil {
		return nil
	}
	season := g.seasonFor(g.clock())
	stats, err := g.stats.SeasonStats(ctx, lc.Pitcher.ID, season, domain.StatGroupPitching)
	if err != nil {
		return nil
	}
	val, ok := parseRate(stats.ERA)
	if !ok {
		return nil
	}

	g.mu.Lock()
	options, answer := g.decimalChoicesLocked(val, []float64{-1.0, -0.5, 0.5, 1.0}, 2)
	g.mu.Unlock()

	return &domain.QuestionDraft{
		Text:         fmt.Sprintf("What is %s's ERA this season?", lc.Pitcher.Name),
		Options:      options,
		CorrectIndex: &answer,
		Category:     "pitcher-era",
		Detail:       fmt.Sprintf("Source: MLB season stats %d", season),
	}
}

func (g *Generator) batterAverage(ctx context.Context, lc domain.LiveContext) *domain.QuestionDraft {
	if lc.Batter == nil {
		return nil
	}
	season := g.seasonFor(g.clock())
	stats, err := g.stats.SeasonStats(ctx, lc.Batter.ID, season, domain.StatGroupHitting)
	if err != nil {
		return nil
	}
	val, ok := parseRate(stats.AVG)
	if !ok {
		return nil
	}

	g.mu.Lock()
	options, answer := g.decimalChoicesLocked(val, []float64{-0.030, -0.015, 0.015, 0.030}, 3)
	g.mu.Unlock()

	return &domain.QuestionDraft{
		Text:         fmt.Sprintf("What is %s's batting average this season?", lc.Batter.Name),
		Options:      options,
		CorrectIndex: &answer,
		Category:     "batter-avg",
		Detail:       fmt.Sprintf("Source: MLB season stats %d", season),
	}
}

// teamNext is an engagement-only question: there is no gradable answer, so
// CorrectIndex stays nil and votes on it never score.
func (g *Generator) teamNext(lc domain.LiveContext) domain.QuestionDraft {
	home, away := lc.HomeTeam, lc.AwayTeam
	if home == "" {
		home = "Home"
	}
	if away == "" {
		away = "Away"
	}
	return domain.QuestionDraft{
		Text:     "Which team will score next?",
		Options:  []string{away, home},
		Category: "team-next",
	}
}

// bankFallback rotates through the definitional bank on a time index so
// repeated generator failures don't keep serving the same question.
func (g *Generator) bankFallback() domain.QuestionDraft {
	bank := g.bank
	if len(bank) == 0 {
		idx := 0
		return domain.QuestionDraft{
			Text: "What does ERA stand for?",
			Options: []string{
				"Earned Run Average",
				"Eventual Runs Against",
				"Extra Runs Allowed",
				"Estimated Run Average",
			},
			CorrectIndex: &idx,
			Category:     "bank",
		}
	}
	idx := int(g.clock().Unix()/int64(bankRotation/time.Second)) % len(bank)
	entry := bank[idx]
	options := append([]string(nil), entry.Options...)
	answer := entry.CorrectIndex
	return domain.QuestionDraft{
		Text:         entry.Text,
		Options:      options,
		CorrectIndex: &answer,
		Category:     "bank",
	}
}

// intChoicesLocked builds four distinct non-negative options around the
// true value and returns them shuffled with the answer's index. Callers
// hold g.mu for the shared rand.
func (g *Generator) intChoicesLocked(trueVal int, deltas []int) ([]string, int) {
	vals := []int{trueVal}
	seen := map[int]bool{trueVal: true}
	for _, d := range deltas {
		v := trueVal + d
		if v < 0 {
			v = 0
		}
		if !seen[v] {
			seen[v] = true
			vals = append(vals, v)
		}
		if len(vals) == optionCount {
			break
		}
	}
	// Clamping can collapse distractors for small true values; top up with
	// values above the largest delta until four are distinct.
	for next := trueVal + deltas[len(deltas)-1] + 1; len(vals) < optionCount; next++ {
		if !seen[next] {
			seen[next] = true
			vals = append(vals, next)
		}
	}

	g.rnd.Shuffle(len(vals), func(i, j int) { vals[i], vals[j] = vals[j], vals[i] })

	options := make([]string, len(vals))
	answer := 0
	for i, v := range vals {
		options[i] = strconv.Itoa(v)
		if v == trueVal {
			answer = i
		}
	}
	return options, answer
}

func (g *Generator) decimalChoicesLocked(trueVal float64, deltas []float64, digits int) ([]string, int) {
	format := func(v float64) string {
		if v < 0 {
			v = 0
		}
		return strconv.FormatFloat(v, 'f', digits, 64)
	}
	trueLabel := format(trueVal)
	labels := []string{trueLabel}
	seen := map[string]bool{trueLabel: true}
	for _, d := range deltas {
		l := format(trueVal + d)
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
		if len(labels) == optionCount {
			break
		}
	}
	step := deltas[len(deltas)-1]
	for k := 2; len(labels) < optionCount; k++ {
		l := format(trueVal + float64(k)*step)
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}

	g.rnd.Shuffle(len(labels), func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })

	answer := 0
	for i, l := range labels {
		if l == trueLabel {
			answer = i
		}
	}
	return labels, answer
}

// parseRate reads feed-formatted rate stats like ".274" or "3.15".
func parseRate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
