package recommend

import (
	"math"
	"sort"

	"github.com/cinematch/cinematch/pkg/models"
)

// PopularityScorer computes a Bayesian-shrinkage weighted rating per movie:
//
//	score = (v/(v+m))*R + (m/(v+m))*C
//
// where v is the movie's vote count, R its vote average, m the 60th
// percentile vote count across the dataset and C the dataset mean vote
// average. Low-vote movies are pulled toward the global mean so two perfect
// votes cannot outrank thousands of good ones. m and C are derived from the
// dataset on construction, never hardcoded.
type PopularityScorer struct {
	scores     []float64 // aligned with dataset row order
	normalized []float64 // min-max scaled to [0,1]
	minVotes   float64
	meanVote   float64
}

// voteCountQuantile is the percentile of vote_count used as the shrinkage
// prior m.
const voteCountQuantile = 0.6

// NewPopularityScorer derives scores for every movie in dataset row order.
func NewPopularityScorer(movies []models.Movie) *PopularityScorer {
	s := &PopularityScorer{
		scores:     make([]float64, len(movies)),
		normalized: make([]float64, len(movies)),
	}
	if len(movies) == 0 {
		return s
	}

	counts := make([]float64, len(movies))
	var voteSum float64
	for i, m := range movies {
		counts[i] = float64(m.VoteCount)
		voteSum += m.VoteAverage
	}
	s.minVotes = quantile(counts, voteCountQuantile)
	s.meanVote = voteSum / float64(len(movies))

	for i, m := range movies {
		s.scores[i] = s.weightedRating(float64(m.VoteCount), m.VoteAverage)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, sc := range s.scores {
		lo = math.Min(lo, sc)
		hi = math.Max(hi, sc)
	}
	for i, sc := range s.scores {
		if hi > lo {
			s.normalized[i] = (sc - lo) / (hi - lo)
		}
	}

	return s
}

func (s *PopularityScorer) weightedRating(v, r float64) float64 {
	if v+s.minVotes == 0 {
		return s.meanVote
	}
	return v/(v+s.minVotes)*r + s.minVotes/(v+s.minVotes)*s.meanVote
}

// Score returns the weighted rating for a dataset row.
func (s *PopularityScorer) Score(row int) float64 {
	return s.scores[row]
}

// Normalized returns the min-max scaled score in [0,1] for a dataset row,
// comparable with cosine similarities in hybrid blending.
func (s *PopularityScorer) Normalized(row int) float64 {
	return s.normalized[row]
}

// Len returns the number of scored rows.
func (s *PopularityScorer) Len() int {
	return len(s.scores)
}

// quantile returns the q-th quantile of values using linear interpolation
// between closest ranks.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
