package search

import "sort"

// DefaultRRFConstant is the k smoothing constant in the hybrid RRF
// formula ; k=60 is the value shared by Azure AI Search,
// OpenSearch, and every other hybrid-RRF implementation this was
// grounded on.
const DefaultRRFConstant = 60

// DefaultAlpha weights the RRF term against the normalized-score term in
// the hybrid formula: hybrid = alpha*rrf + (1-alpha)*norm.
const DefaultAlpha = 0.7

// DefaultSemanticWeight is the default w_sem; the keyword list's weight
// is 1 - DefaultSemanticWeight.
const DefaultSemanticWeight = 0.7

// fused accumulates one id's combined score and its rank in each source
// list, prior to re-ranking.
type fused struct {
	chunk        *Scored
	score        float64
	bm25Score    float64
	semScore     float64
	bm25Rank     int
	semRank      int
}

// Fusion implements hybrid RRF: each source list contributes
// alpha*rrf(rank) + (1-alpha)*(score/max_score_in_list), weighted by the
// list's configured weight, summed per id.
type Fusion struct {
	K     int
	Alpha float64
}

// NewFusion returns a Fusion using the documented defaults.
func NewFusion() *Fusion {
	return &Fusion{K: DefaultRRFConstant, Alpha: DefaultAlpha}
}

// Fuse combines bm25 and semantic result lists (each already sorted
// best-first) into a single ranked, deduplicated list. semanticWeight is
// w_sem; the keyword list's weight is 1-semanticWeight. Ties break on the
// ascending sum of per-list ranks (lower is better; a list a result is
// absent from contributes 0 to the sum), then ascending chunk id.
func (f *Fusion) Fuse(bm25, vec []Scored, semanticWeight float64) []Result {
	if semanticWeight < 0 {
		semanticWeight = DefaultSemanticWeight
	}
	bm25Weight := 1 - semanticWeight

	byID := make(map[string]*fused, len(bm25)+len(vec))

	f.accumulate(byID, bm25, bm25Weight, true)
	f.accumulate(byID, vec, semanticWeight, false)

	results := make([]Result, 0, len(byID))
	for _, fr := range byID {
		kind := MatchBM25
		switch {
		case fr.bm25Rank > 0 && fr.semRank > 0:
			kind = MatchHybrid
		case fr.semRank > 0:
			kind = MatchSemantic
		}
		results = append(results, Result{
			Chunk:         fr.chunk.Chunk,
			Score:         fr.score,
			BM25Score:     fr.bm25Score,
			SemanticScore: fr.semScore,
			BM25Rank:      fr.bm25Rank,
			SemanticRank:  fr.semRank,
			MatchKind:     kind,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return f.less(results[i], results[j])
	})
	return results
}

func (f *Fusion) accumulate(byID map[string]*fused, list []Scored, weight float64, isBM25 bool) {
	if len(list) == 0 {
		return
	}
	max := list[0].Score
	for _, s := range list {
		if s.Score > max {
			max = s.Score
		}
	}
	if max == 0 {
		max = 1
	}

	for i := range list {
		s := list[i]
		rank := i + 1
		rrf := 1 / float64(f.K+rank)
		norm := s.Score / max
		hybrid := f.Alpha*rrf + (1-f.Alpha)*norm
		contribution := weight * hybrid

		fr, ok := byID[s.Chunk.ID]
		if !ok {
			fr = &fused{chunk: &s}
			byID[s.Chunk.ID] = fr
		}
		fr.score += contribution
		if isBM25 {
			fr.bm25Score = s.Score
			fr.bm25Rank = rank
		} else {
			fr.semScore = s.Score
			fr.semRank = rank
		}
	}
}

// less implements the tie-break rule: descending fused score, then ascending
// sum of per-list ranks, then ascending chunk id.
func (f *Fusion) less(a, b Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	sumA, sumB := a.BM25Rank+a.SemanticRank, b.BM25Rank+b.SemanticRank
	if sumA != sumB {
		return sumA < sumB
	}
	return a.Chunk.ID < b.Chunk.ID
}
