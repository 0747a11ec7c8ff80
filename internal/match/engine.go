package match

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/klinikops/sgk-docflow/constants"
	"github.com/klinikops/sgk-docflow/internal/entity"
	"github.com/klinikops/sgk-docflow/internal/extract"
)

// Options holds the cascade thresholds. Zero values select the defaults the
// pipeline has been tuned with.
type Options struct {
	HighThreshold          float64       // fuzzy composite for a confident match
	MediumThreshold        float64       // fuzzy composite requiring confirmation
	LowThreshold           float64       // below this, no hint is surfaced
	PromotionThreshold     float64       // lenient promotion for directory-backed candidates
	TokenOverlapConfidence float32       // short-circuit confidence for word intersection
	RemoteTimeout          time.Duration // budget per remote-search call
}

func (o *Options) defaults() {
	if o.HighThreshold == 0 {
		o.HighThreshold = 0.4
	}
	if o.MediumThreshold == 0 {
		o.MediumThreshold = 0.15
	}
	if o.LowThreshold == 0 {
		o.LowThreshold = 0.1
	}
	if o.PromotionThreshold == 0 {
		// intentionally as lenient as the medium tier: presence in the
		// directory is itself corroborating evidence
		o.PromotionThreshold = 0.15
	}
	if o.TokenOverlapConfidence == 0 {
		o.TokenOverlapConfidence = 0.8
	}
	if o.RemoteTimeout == 0 {
		o.RemoteTimeout = 5 * time.Second
	}
}

// Engine resolves extracted identity signals to a patient record using a
// layered exact -> fuzzy -> remote-search -> heuristic-promotion cascade.
type Engine struct {
	dir       Directory
	remote    RemoteSearcher // nil disables remote enrichment
	shortcuts SurnameShortcuts
	opts      Options
	logger    *slog.Logger
}

func NewEngine(dir Directory, remote RemoteSearcher, shortcuts SurnameShortcuts, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	opts.defaults()
	return &Engine{dir: dir, remote: remote, shortcuts: shortcuts, opts: opts, logger: logger}
}

// Resolve runs the cascade. Each tier short-circuits on a sufficiently
// confident result. The returned error only reports directory access
// failures; "nobody matched" is a successful NoMatch result.
func (e *Engine) Resolve(ctx context.Context, text extract.ExtractedText) (entity.MatchResult, error) {
	names := e.nameCandidates(text)

	// tier 1: exact national ID, local then remote
	if res, ok := e.resolveByNationalID(ctx, text.NationalIDs); ok {
		return res, nil
	}

	snapshot, err := e.dir.Snapshot(ctx)
	if err != nil {
		return entity.NoMatch("directory-error"), err
	}

	// tier 2: exact normalized name
	for _, name := range names {
		for _, p := range snapshot {
			if name == NormalizeName(p.FullName()) {
				return entity.MatchResult{
					Matched:    true,
					Patient:    p,
					Confidence: 0.97,
					Level:      constants.MatchHigh,
					Candidates: []entity.ScoredPatient{{Patient: p, Confidence: 0.97}},
					Method:     "exact-name",
				}, nil
			}
		}
	}

	// tier 3: token overlap short-circuit before expensive fuzzy scoring
	for _, name := range names {
		words := significantWords(name)
		for _, p := range snapshot {
			if wordsIntersect(words, significantWords(NormalizeName(p.FullName()))) {
				return entity.MatchResult{
					Matched:    true,
					Patient:    p,
					Confidence: e.opts.TokenOverlapConfidence,
					Level:      constants.MatchHigh,
					Candidates: []entity.ScoredPatient{{Patient: p, Confidence: e.opts.TokenOverlapConfidence}},
					Method:     "token-overlap",
				}, nil
			}
		}
	}

	// remote enrichment widens the fuzzy candidate pool; best-effort only
	pool := snapshot
	if e.remote != nil && len(names) > 0 {
		pool = e.enrichPool(ctx, snapshot, names[0])
	}

	// tier 4: weighted fuzzy scoring over the pool
	if res, done := e.resolveFuzzy(text, names, pool, snapshot); done {
		return res, nil
	}

	// tier 5: surname shortcut for recurring known cases
	if res, ok := e.resolveByShortcut(names, snapshot); ok {
		return res, nil
	}

	return entity.NoMatch("none"), nil
}

// nameCandidates filters out institutional text and normalizes, preserving
// extraction-confidence order.
func (e *Engine) nameCandidates(text extract.ExtractedText) []string {
	cands := append([]extract.Candidate(nil), text.Names...)
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Confidence > cands[j].Confidence })

	var out []string
	seen := map[string]struct{}{}
	for _, c := range cands {
		if IsInstitutional(c.Value) {
			e.logger.Debug("rejected institutional name candidate", "value", c.Value)
			continue
		}
		n := NormalizeName(c.Value)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (e *Engine) resolveByNationalID(ctx context.Context, ids []extract.Candidate) (entity.MatchResult, bool) {
	for _, c := range ids {
		digits := normalizeDigits(c.Value)
		if len(digits) != 11 {
			continue
		}

		conf := float32(0.98)
		if extract.ValidTCKN(digits) {
			conf = 0.99
		}

		if p, err := e.dir.GetByNationalID(ctx, digits); err == nil && p != nil {
			return entity.MatchResult{
				Matched:    true,
				Patient:    p,
				Confidence: conf,
				Level:      constants.MatchHigh,
				Candidates: []entity.ScoredPatient{{Patient: p, Confidence: conf}},
				Method:     "national-id",
			}, true
		}

		if e.remote == nil {
			continue
		}
		rctx, cancel := context.WithTimeout(ctx, e.opts.RemoteTimeout)
		found, err := e.remote.SearchByNationalID(rctx, digits)
		cancel()
		if err != nil {
			e.logger.Warn("remote national-id search failed, continuing local-only", "error", err)
			continue
		}
		for _, p := range found {
			if normalizeDigits(p.NationalID) == digits {
				return entity.MatchResult{
					Matched:    true,
					Patient:    p,
					Confidence: 0.98,
					Level:      constants.MatchHigh,
					Candidates: []entity.ScoredPatient{{Patient: p, Confidence: 0.98}},
					Method:     "national-id-remote",
				}, true
			}
		}
	}
	return entity.MatchResult{}, false
}

func (e *Engine) enrichPool(ctx context.Context, snapshot []*entity.Patient, name string) []*entity.Patient {
	rctx, cancel := context.WithTimeout(ctx, e.opts.RemoteTimeout)
	defer cancel()

	found, err := e.remote.SearchByName(rctx, name)
	if err != nil {
		e.logger.Warn("remote name search failed, continuing local-only", "error", err)
		return snapshot
	}

	known := make(map[string]struct{}, len(snapshot))
	for _, p := range snapshot {
		known[p.ID.String()] = struct{}{}
	}
	pool := snapshot
	for _, p := range found {
		if _, dup := known[p.ID.String()]; !dup {
			pool = append(pool, p)
		}
	}
	return pool
}

// resolveFuzzy scores every candidate, classifies the top composite against
// the tier thresholds, and applies the directory-presence promotion
// heuristic. done=false means nothing even hint-worthy was found.
func (e *Engine) resolveFuzzy(text extract.ExtractedText, names []string, pool, snapshot []*entity.Patient) (entity.MatchResult, bool) {
	if len(names) == 0 || len(pool) == 0 {
		return entity.MatchResult{}, false
	}

	scored := make([]entity.ScoredPatient, 0, len(pool))
	for _, p := range pool {
		best := 0.0
		for _, name := range names {
			if s := e.composite(name, p, text); s > best {
				best = s
			}
		}
		if best > 0 {
			scored = append(scored, entity.ScoredPatient{Patient: p, Confidence: float32(best)})
		}
	}
	if len(scored) == 0 {
		return entity.MatchResult{}, false
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Confidence > scored[j].Confidence })

	top := scored[0]
	topScore := float64(top.Confidence)
	switch {
	case topScore >= e.opts.HighThreshold:
		return entity.MatchResult{
			Matched:    true,
			Patient:    top.Patient,
			Confidence: top.Confidence,
			Level:      constants.MatchHigh,
			Candidates: scored,
			Method:     "fuzzy",
		}, true
	case topScore >= e.opts.MediumThreshold:
		res := entity.MatchResult{
			Patient:              top.Patient,
			Confidence:           top.Confidence,
			Level:                constants.MatchMedium,
			Candidates:           scored,
			Method:               "fuzzy",
			RequiresConfirmation: true,
		}
		// promotion: a candidate that independently exists in the
		// authoritative directory clears a lenient bar
		if topScore >= e.opts.PromotionThreshold && containsPatient(snapshot, top.Patient) {
			res.Matched = true
			res.Method = "fuzzy-promoted"
		} else {
			res.Patient = nil
		}
		return res, true
	case topScore >= e.opts.LowThreshold:
		return entity.MatchResult{
			Confidence: top.Confidence,
			Level:      constants.MatchLow,
			Candidates: scored,
			Method:     "fuzzy-hint",
		}, true
	default:
		return entity.MatchResult{}, false
	}
}

// composite is the weighted fuzzy score: 0.8 name similarity, 0.15 exact word
// overlap, 0.05 word order, plus small additive bonuses for corroborating
// fields. Clipped to [0,1].
func (e *Engine) composite(name string, p *entity.Patient, text extract.ExtractedText) float64 {
	pname := NormalizeName(p.FullName())
	if pname == "" {
		return 0
	}
	aw := strings.Fields(name)
	bw := strings.Fields(pname)

	score := 0.8*NameSimilarity(name, pname) +
		0.15*wordOverlapRatio(aw, bw) +
		0.05*wordOrderSimilarity(aw, bw)

	if p.NationalID != "" {
		pid := normalizeDigits(p.NationalID)
		for _, c := range text.NationalIDs {
			if normalizeDigits(c.Value) == pid {
				score += 0.1
				break
			}
		}
	}
	if p.BirthDate != nil {
		bd := p.BirthDate.Format("02.01.2006")
		alt := p.BirthDate.Format("02/01/2006")
		for _, c := range text.Dates {
			if c.Value == bd || c.Value == alt {
				score += 0.05
				break
			}
		}
	}
	if suffix := phoneSuffix(p.Phone); suffix != "" && strings.Contains(normalizeDigits(text.Text), suffix) {
		score += 0.02
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (e *Engine) resolveByShortcut(names []string, snapshot []*entity.Patient) (entity.MatchResult, bool) {
	if len(e.shortcuts) == 0 {
		return entity.MatchResult{}, false
	}
	var words []string
	for _, n := range names {
		words = append(words, strings.Fields(n)...)
	}
	id, ok := e.shortcuts.Lookup(words)
	if !ok {
		return entity.MatchResult{}, false
	}
	for _, p := range snapshot {
		if p.ID == id {
			return entity.MatchResult{
				Matched:    true,
				Patient:    p,
				Confidence: 0.7,
				Level:      constants.MatchKeyword,
				Candidates: []entity.ScoredPatient{{Patient: p, Confidence: 0.7}},
				Method:     "surname-shortcut",
			}, true
		}
	}
	return entity.MatchResult{}, false
}

func significantWords(name string) []string {
	var out []string
	for _, w := range strings.Fields(name) {
		if len(w) >= 3 {
			out = append(out, w)
		}
	}
	return out
}

func wordsIntersect(a, b []string) bool {
	for _, w := range a {
		for _, v := range b {
			if w == v {
				return true
			}
		}
	}
	return false
}

func containsPatient(snapshot []*entity.Patient, p *entity.Patient) bool {
	if p == nil {
		return false
	}
	for _, s := range snapshot {
		if s.ID == p.ID {
			return true
		}
	}
	return false
}

func phoneSuffix(phone string) string {
	d := normalizeDigits(phone)
	if len(d) < 4 {
		return ""
	}
	return d[len(d)-4:]
}
