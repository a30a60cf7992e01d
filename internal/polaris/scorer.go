package polaris

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/uygaratabay1015-boop/kutupp/internal/detection"
)

// Scorer defaults.
const (
	DefaultMaxCandidates = 30
	DefaultNeighbors     = 5
)

// Weights sets how much each sub-score contributes to the total.
type Weights struct {
	Height     float64 `json:"height" yaml:"height"`
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Isolation  float64 `json:"isolation" yaml:"isolation"`
}

// DefaultWeights returns 0.4 height, 0.3 brightness, 0.3 isolation.
func DefaultWeights() Weights {
	return Weights{Height: 0.4, Brightness: 0.3, Isolation: 0.3}
}

// Validate requires non-negative weights that sum to 1.
func (w Weights) Validate() error {
	if w.Height < 0 || w.Brightness < 0 || w.Isolation < 0 {
		return fmt.Errorf("weights must not be negative: %+v", w)
	}
	sum := w.Height + w.Brightness + w.Isolation
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights must sum to 1, got %g", sum)
	}
	return nil
}

// StarScore is a candidate annotated with its sub-scores. Every score lies
// in [0, 1].
type StarScore struct {
	Star            detection.Star `json:"star"`
	HeightScore     float64        `json:"height_score"`
	BrightnessScore float64        `json:"brightness_score"`
	IsolationScore  float64        `json:"isolation_score"`
	TotalScore      float64        `json:"total_score"`
}

// Scorer ranks star candidates by how likely each is to be Polaris.
type Scorer struct {
	Weights Weights

	// MaxCandidates limits scoring to the brightest stars. Zero scores all.
	MaxCandidates int

	// Neighbors is how many nearest candidates feed the isolation score.
	Neighbors int
}

// NewScorer returns a scorer with the default weights and limits.
func NewScorer() *Scorer {
	return &Scorer{
		Weights:       DefaultWeights(),
		MaxCandidates: DefaultMaxCandidates,
		Neighbors:     DefaultNeighbors,
	}
}

// NewScorerWithWeights returns a default scorer using w, after validating it.
func NewScorerWithWeights(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	s := NewScorer()
	s.Weights = w
	return s, nil
}

// SelectPolaris scores stars with the default scorer.
func SelectPolaris(stars []detection.Star, imageHeight, imageWidth int) (detection.Star, float64) {
	return NewScorer().SelectPolaris(stars, imageHeight, imageWidth)
}

// ScoreStars ranks stars with the default scorer.
func ScoreStars(stars []detection.Star, imageHeight, imageWidth int) []StarScore {
	return NewScorer().ScoreStars(stars, imageHeight, imageWidth)
}

// SelectPolaris returns the highest scoring candidate and its total score.
//
// An empty candidate list or non-positive image dimensions give a zero Star
// and score 0; callers treat a zero score as "no result". On equal totals the
// candidate seen first (brightest, then input order) wins.
func (s *Scorer) SelectPolaris(stars []detection.Star, imageHeight, imageWidth int) (detection.Star, float64) {
	scores := s.score(stars, imageHeight, imageWidth)
	if len(scores) == 0 {
		return detection.Star{}, 0
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].TotalScore > scores[best].TotalScore {
			best = i
		}
	}
	return scores[best].Star, scores[best].TotalScore
}

// ScoreStars returns every scored candidate, highest total first.
func (s *Scorer) ScoreStars(stars []detection.Star, imageHeight, imageWidth int) []StarScore {
	scores := s.score(stars, imageHeight, imageWidth)
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})
	return scores
}

// score computes sub-scores for the reduced candidate set, in candidate order.
func (s *Scorer) score(stars []detection.Star, imageHeight, imageWidth int) []StarScore {
	if len(stars) == 0 || imageHeight <= 0 || imageWidth <= 0 {
		return []StarScore{}
	}

	candidates := detection.Brightest(stars, s.limit())
	h := float64(imageHeight)
	diagonal := math.Hypot(float64(imageWidth), h)

	scores := make([]StarScore, len(candidates))
	for i, c := range candidates {
		hs := clamp01((h/2-c.Y)/h + 0.5)
		bs := clamp01(c.Brightness / 255)
		is := clamp01(s.meanNeighborDistance(candidates, i) / diagonal)

		scores[i] = StarScore{
			Star:            c,
			HeightScore:     hs,
			BrightnessScore: bs,
			IsolationScore:  is,
			TotalScore:      clamp01(s.Weights.Height*hs + s.Weights.Brightness*bs + s.Weights.Isolation*is),
		}
	}
	return scores
}

func (s *Scorer) limit() int {
	if s.MaxCandidates <= 0 {
		return -1
	}
	return s.MaxCandidates
}

// meanNeighborDistance is the mean distance from candidates[i] to its nearest
// Neighbors other candidates, or to all of them when there are fewer. A lone
// candidate has distance 0.
func (s *Scorer) meanNeighborDistance(candidates []detection.Star, i int) float64 {
	if len(candidates) < 2 {
		return 0
	}

	dists := make([]float64, 0, len(candidates)-1)
	for j, o := range candidates {
		if j == i {
			continue
		}
		dists = append(dists, math.Hypot(candidates[i].X-o.X, candidates[i].Y-o.Y))
	}
	sort.Float64s(dists)

	k := s.Neighbors
	if k <= 0 || k > len(dists) {
		k = len(dists)
	}
	return stat.Mean(dists[:k], nil)
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
