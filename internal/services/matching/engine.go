package matching

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// amountEpsilon absorbs float drift on cent-scale sums when the configured
// amount tolerance is zero.
const amountEpsilon = 1e-6

// maxCombinationsPerGroup bounds the journal subset search for a single bank
// group. A pathological candidate set degrades to partial results instead of
// an unbounded search.
const maxCombinationsPerGroup = 100000

// Entry is one side of a candidate match: either a bank transaction or a
// journal entry, reduced to the fields the scorer needs.
type Entry struct {
	ID          uuid.UUID
	Date        time.Time
	Amount      float64
	Currency    string
	Description string
}

// Config is the immutable per-run matching configuration. It is validated
// upstream; the engine assumes non-negative weights that are not all zero.
type Config struct {
	DateWeight        float64
	AmountWeight      float64
	CurrencyWeight    float64
	DescriptionWeight float64

	AmountTolerance   float64
	DateToleranceDays int

	MaxBankEntries int
	MaxBookEntries int
	MaxSuggestions int

	MinConfidence float64
}

type ScoreBreakdown struct {
	DateScore        float64 `json:"date_score"`
	AmountScore      float64 `json:"amount_score"`
	DescriptionScore float64 `json:"description_score"`
	CurrencyScore    float64 `json:"currency_score"`
}

// Suggestion is an ephemeral proposed match between one or more bank
// transactions and one or more journal entries. ID is assigned by the owner
// of the suggestion set, not by the engine, so matching stays deterministic.
type Suggestion struct {
	ID           uuid.UUID      `json:"id"`
	BankIDs      []uuid.UUID    `json:"bank_ids"`
	BookIDs      []uuid.UUID    `json:"book_ids"`
	Score        float64        `json:"score"`
	Confidence   float64        `json:"confidence"`
	Breakdown    ScoreBreakdown `json:"score_breakdown"`
	EarliestDate time.Time      `json:"earliest_date"`
}

// Entries is the total number of records the suggestion touches.
func (s *Suggestion) Entries() int {
	return len(s.BankIDs) + len(s.BookIDs)
}

type Engine struct {
	cfg Config
	sim Similarity
}

// NewEngine builds an engine for one run. A nil similarity falls back to the
// token-Levenshtein strategy.
func NewEngine(cfg Config, sim Similarity) *Engine {
	if sim == nil {
		sim = TokenSimilarity{}
	}
	return &Engine{cfg: cfg, sim: sim}
}

// Match runs the full pipeline: group the bank side, search the journal side
// per group, rank and truncate. Identical inputs always yield the identical
// ranked list.
func (e *Engine) Match(bank, book []Entry) []Suggestion {
	var all []Suggestion
	for _, group := range e.BankGroups(bank) {
		all = append(all, e.MatchGroup(group, book)...)
	}
	return e.Rank(all)
}

// BankGroups forms the bounded bank-side groups that seed the combinatorial
// search. Candidates are sorted by (date, amount, id); every transaction
// yields a singleton group, and contiguous runs of length 2..MaxBankEntries
// whose dates all lie within DateToleranceDays of the run's first transaction
// yield multi-entry groups. Group count stays O(n * MaxBankEntries).
func (e *Engine) BankGroups(bank []Entry) [][]Entry {
	sorted := make([]Entry, len(bank))
	copy(sorted, bank)
	sortEntries(sorted)

	var groups [][]Entry
	for i := range sorted {
		groups = append(groups, sorted[i:i+1])
		for size := 2; size <= e.cfg.MaxBankEntries && i+size <= len(sorted); size++ {
			run := sorted[i : i+size]
			if dayDelta(run[0].Date, run[size-1].Date) > float64(e.cfg.DateToleranceDays) {
				break
			}
			groups = append(groups, run)
		}
	}
	return groups
}

// MatchGroup searches journal-entry combinations for one bank group and
// returns the scored suggestions that clear MinConfidence. Results are not
// yet ranked across groups.
func (e *Engine) MatchGroup(group []Entry, book []Entry) []Suggestion {
	bankSum := 0.0
	refDate := group[0].Date
	for _, b := range group {
		bankSum += b.Amount
		if b.Date.Before(refDate) {
			refDate = b.Date
		}
	}

	// 1. Prefilter the journal side to the date window around the group.
	var candidates []Entry
	for _, j := range book {
		if dayDelta(refDate, j.Date) <= float64(e.cfg.DateToleranceDays) {
			candidates = append(candidates, j)
		}
	}
	sortEntries(candidates)

	// 2. Bounded subset search for combinations whose sum lands within the
	// amount tolerance of the bank group's sum.
	tolerance := math.Max(e.cfg.AmountTolerance, amountEpsilon)
	var (
		suggestions []Suggestion
		combo       []int
		evaluated   int
	)
	var search func(start int, sum float64)
	search = func(start int, sum float64) {
		if evaluated >= maxCombinationsPerGroup {
			return
		}
		if len(combo) > 0 {
			evaluated++
			if math.Abs(bankSum-sum) <= tolerance {
				if s, ok := e.score(group, candidates, combo, bankSum, refDate, sum); ok {
					suggestions = append(suggestions, s)
				}
			}
		}
		if len(combo) == e.cfg.MaxBookEntries {
			return
		}
		for i := start; i < len(candidates); i++ {
			combo = append(combo, i)
			search(i+1, sum+candidates[i].Amount)
			combo = combo[:len(combo)-1]
		}
	}
	search(0, 0)

	return suggestions
}

// Rank orders suggestions by confidence desc, touched entries asc, earliest
// date asc, then bank/book id tuples for a fully deterministic tie-break,
// and truncates to MaxSuggestions.
func (e *Engine) Rank(suggestions []Suggestion) []Suggestion {
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := &suggestions[i], &suggestions[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Entries() != b.Entries() {
			return a.Entries() < b.Entries()
		}
		if !a.EarliestDate.Equal(b.EarliestDate) {
			return a.EarliestDate.Before(b.EarliestDate)
		}
		if c := compareIDs(a.BankIDs, b.BankIDs); c != 0 {
			return c < 0
		}
		return compareIDs(a.BookIDs, b.BookIDs) < 0
	})
	if e.cfg.MaxSuggestions > 0 && len(suggestions) > e.cfg.MaxSuggestions {
		suggestions = suggestions[:e.cfg.MaxSuggestions]
	}
	return suggestions
}

func (e *Engine) score(group, candidates []Entry, combo []int, bankSum float64, refDate time.Time, bookSum float64) (Suggestion, bool) {
	bookRef := candidates[combo[0]].Date
	earliest := refDate
	for _, i := range combo {
		if candidates[i].Date.Before(bookRef) {
			bookRef = candidates[i].Date
		}
	}
	if bookRef.Before(earliest) {
		earliest = bookRef
	}

	breakdown := ScoreBreakdown{
		DateScore:        e.dateScore(refDate, bookRef),
		AmountScore:      e.amountScore(bankSum, bookSum),
		DescriptionScore: e.descriptionScore(group, candidates, combo),
		CurrencyScore:    currencyScore(group, candidates, combo),
	}

	weightSum := e.cfg.DateWeight + e.cfg.AmountWeight + e.cfg.DescriptionWeight + e.cfg.CurrencyWeight
	raw := (e.cfg.DateWeight*breakdown.DateScore +
		e.cfg.AmountWeight*breakdown.AmountScore +
		e.cfg.DescriptionWeight*breakdown.DescriptionScore +
		e.cfg.CurrencyWeight*breakdown.CurrencyScore) / weightSum

	// Smaller groups win at equal raw score; a 1:1 match carries no penalty.
	entries := len(group) + len(combo)
	confidence := clamp01(raw - 0.01*float64(entries-2))
	if confidence < e.cfg.MinConfidence {
		return Suggestion{}, false
	}

	s := Suggestion{
		BankIDs:      make([]uuid.UUID, 0, len(group)),
		BookIDs:      make([]uuid.UUID, 0, len(combo)),
		Score:        raw,
		Confidence:   confidence,
		Breakdown:    breakdown,
		EarliestDate: earliest,
	}
	for _, b := range group {
		s.BankIDs = append(s.BankIDs, b.ID)
	}
	for _, i := range combo {
		s.BookIDs = append(s.BookIDs, candidates[i].ID)
	}
	return s, true
}

func (e *Engine) dateScore(a, b time.Time) float64 {
	delta := dayDelta(a, b)
	if e.cfg.DateToleranceDays == 0 {
		if delta == 0 {
			return 1
		}
		return 0
	}
	return math.Max(0, 1-delta/float64(e.cfg.DateToleranceDays))
}

func (e *Engine) amountScore(bankSum, bookSum float64) float64 {
	delta := math.Abs(bankSum - bookSum)
	denom := math.Max(e.cfg.AmountTolerance, math.Abs(bankSum))
	if denom == 0 {
		if delta <= amountEpsilon {
			return 1
		}
		return 0
	}
	return math.Max(0, 1-delta/denom)
}

func (e *Engine) descriptionScore(group, candidates []Entry, combo []int) float64 {
	var bankDesc, bookDesc []string
	for _, b := range group {
		bankDesc = append(bankDesc, b.Description)
	}
	for _, i := range combo {
		bookDesc = append(bookDesc, candidates[i].Description)
	}
	return clamp01(e.sim.Score(strings.Join(bankDesc, " "), strings.Join(bookDesc, " ")))
}

func currencyScore(group, candidates []Entry, combo []int) float64 {
	currency := ""
	for _, b := range group {
		if b.Currency == "" {
			continue
		}
		if currency == "" {
			currency = b.Currency
		} else if b.Currency != currency {
			return 0
		}
	}
	for _, i := range combo {
		c := candidates[i].Currency
		if c == "" {
			continue
		}
		if currency == "" {
			currency = c
		} else if c != currency {
			return 0
		}
	}
	return 1
}

// dayDelta is the absolute distance in calendar days (UTC).
func dayDelta(a, b time.Time) float64 {
	da := a.UTC().Truncate(24 * time.Hour)
	db := b.UTC().Truncate(24 * time.Hour)
	return math.Abs(da.Sub(db).Hours() / 24)
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		if entries[i].Amount != entries[j].Amount {
			return entries[i].Amount < entries[j].Amount
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})
}

func compareIDs(a, b []uuid.UUID) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].String(), b[i].String()); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
