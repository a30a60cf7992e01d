package polaris

import (
	"math"
	"math/rand"
	"testing"

	"github.com/uygaratabay1015-boop/kutupp/internal/detection"
)

// cluster is four stars tightly packed around a bright star at (50, 50).
func cluster() []detection.Star {
	return []detection.Star{
		{X: 50, Y: 50, Brightness: 255},
		{X: 52, Y: 50, Brightness: 200},
		{X: 48, Y: 50, Brightness: 200},
		{X: 50, Y: 52, Brightness: 200},
		{X: 50, Y: 48, Brightness: 200},
	}
}

func TestSelectPolaris_Empty(t *testing.T) {
	for _, stars := range [][]detection.Star{nil, {}} {
		star, score := SelectPolaris(stars, 100, 100)
		if star != (detection.Star{}) || score != 0 {
			t.Errorf("empty input: got %+v score %v, want zero values", star, score)
		}
	}
}

func TestSelectPolaris_InvalidDimensions(t *testing.T) {
	stars := []detection.Star{{X: 10, Y: 10, Brightness: 200}}

	for _, dims := range [][2]int{{0, 100}, {100, 0}, {-5, 100}} {
		star, score := SelectPolaris(stars, dims[0], dims[1])
		if star != (detection.Star{}) || score != 0 {
			t.Errorf("dims %v: got %+v score %v, want zero values", dims, star, score)
		}
		if ranked := ScoreStars(stars, dims[0], dims[1]); len(ranked) != 0 {
			t.Errorf("dims %v: expected no scores, got %d", dims, len(ranked))
		}
	}
}

func TestSelectPolaris_DimIsolatedTopStarWins(t *testing.T) {
	top := detection.Star{X: 10, Y: 5, Brightness: 60}
	stars := append(cluster(), top)

	star, score := SelectPolaris(stars, 100, 100)
	if star != top {
		t.Errorf("Polaris: got %+v, want %+v", star, top)
	}
	if math.Abs(score-0.5783) > 1e-3 {
		t.Errorf("score: got %.4f, want 0.5783", score)
	}

	ranked := ScoreStars(stars, 100, 100)
	if len(ranked) != 6 {
		t.Fatalf("expected 6 scores, got %d", len(ranked))
	}
	if want := (detection.Star{X: 50, Y: 50, Brightness: 255}); ranked[1].Star != want {
		t.Errorf("runner-up: got %+v, want %+v", ranked[1].Star, want)
	}
	if math.Abs(ranked[1].TotalScore-0.5289) > 1e-3 {
		t.Errorf("runner-up score: got %.4f, want 0.5289", ranked[1].TotalScore)
	}
}

func TestSelectPolaris_BrightClusteredStarWins(t *testing.T) {
	lower := detection.Star{X: 10, Y: 30, Brightness: 50}
	stars := append(cluster(), lower)

	star, score := SelectPolaris(stars, 100, 100)
	if want := (detection.Star{X: 50, Y: 50, Brightness: 255}); star != want {
		t.Errorf("Polaris: got %+v, want %+v", star, want)
	}
	if math.Abs(score-0.5224) > 1e-3 {
		t.Errorf("score: got %.4f, want 0.5224", score)
	}

	for _, s := range ScoreStars(stars, 100, 100) {
		if s.Star == lower && math.Abs(s.TotalScore-0.4337) > 1e-3 {
			t.Errorf("lower star score: got %.4f, want 0.4337", s.TotalScore)
		}
	}
}

func TestSelectPolaris_SingleStar(t *testing.T) {
	only := detection.Star{X: 50, Y: 25, Brightness: 255}

	star, score := SelectPolaris([]detection.Star{only}, 100, 200)
	if star != only {
		t.Errorf("Polaris: got %+v, want %+v", star, only)
	}
	// height 0.75, brightness 1, isolation 0
	if want := 0.4*0.75 + 0.3; math.Abs(score-want) > 1e-9 {
		t.Errorf("score: got %v, want %v", score, want)
	}
}

func TestSelectPolaris_TieKeepsFirst(t *testing.T) {
	left := detection.Star{X: 20, Y: 20, Brightness: 100}
	right := detection.Star{X: 80, Y: 20, Brightness: 100}

	if star, _ := SelectPolaris([]detection.Star{left, right}, 100, 100); star != left {
		t.Errorf("tie should keep the first star, got %+v", star)
	}
	if star, _ := SelectPolaris([]detection.Star{right, left}, 100, 100); star != right {
		t.Errorf("tie should keep the first star, got %+v", star)
	}
}

func TestScoreStars_ReducesToBrightest(t *testing.T) {
	stars := make([]detection.Star, 40)
	for i := range stars {
		stars[i] = detection.Star{X: float64(i * 10), Y: 100, Brightness: float64(100 + i)}
	}

	ranked := ScoreStars(stars, 400, 400)
	if len(ranked) != DefaultMaxCandidates {
		t.Fatalf("expected %d scores, got %d", DefaultMaxCandidates, len(ranked))
	}
	for _, s := range ranked {
		if s.Star.Brightness < 110 {
			t.Errorf("dim star %v kept", s.Star.Brightness)
		}
	}
}

func TestScoreStars_SortedAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	stars := make([]detection.Star, 25)
	for i := range stars {
		stars[i] = detection.Star{
			X:          rng.Float64()*800 - 50,
			Y:          rng.Float64()*700 - 50,
			Brightness: rng.Float64() * 255,
		}
	}

	ranked := ScoreStars(stars, 600, 800)
	if len(ranked) != 25 {
		t.Fatalf("expected 25 scores, got %d", len(ranked))
	}
	for i, s := range ranked {
		for _, v := range []float64{s.HeightScore, s.BrightnessScore, s.IsolationScore, s.TotalScore} {
			if v < 0 || v > 1 {
				t.Errorf("score %d out of [0,1]: %+v", i, s)
			}
		}
		if i > 0 && s.TotalScore > ranked[i-1].TotalScore {
			t.Errorf("scores not descending at %d", i)
		}
	}

	best, score := SelectPolaris(stars, 600, 800)
	if best != ranked[0].Star || score != ranked[0].TotalScore {
		t.Errorf("SelectPolaris should match the top score: %+v %v", best, score)
	}
}

func TestScoreStars_HeightClamped(t *testing.T) {
	stars := []detection.Star{
		{X: 10, Y: -40, Brightness: 300},
		{X: 10, Y: 190, Brightness: -5},
	}

	ranked := ScoreStars(stars, 100, 100)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(ranked))
	}
	if ranked[0].HeightScore != 1 || ranked[0].BrightnessScore != 1 {
		t.Errorf("above frame: got %+v, want height and brightness 1", ranked[0])
	}
	if ranked[1].HeightScore != 0 || ranked[1].BrightnessScore != 0 {
		t.Errorf("below frame: got %+v, want height and brightness 0", ranked[1])
	}
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"defaults", DefaultWeights(), false},
		{"height only", Weights{Height: 1}, false},
		{"negative", Weights{Height: 1.2, Brightness: -0.2}, true},
		{"sum too small", Weights{Height: 0.3, Brightness: 0.3, Isolation: 0.3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewScorerWithWeights(t *testing.T) {
	s, err := NewScorerWithWeights(Weights{Height: 1})
	if err != nil {
		t.Fatalf("NewScorerWithWeights failed: %v", err)
	}

	stars := []detection.Star{
		{X: 50, Y: 80, Brightness: 255},
		{X: 50, Y: 10, Brightness: 60},
	}
	star, score := s.SelectPolaris(stars, 100, 100)
	if star.Y != 10 {
		t.Errorf("height-only scorer should pick the top star, got %+v", star)
	}
	if math.Abs(score-0.9) > 1e-9 {
		t.Errorf("score: got %v, want 0.9", score)
	}

	if _, err := NewScorerWithWeights(Weights{}); err == nil {
		t.Error("zero weights should be rejected")
	}
}
