package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubClassifier struct {
	label string
	dist  []float64
	err   error
}

func (s stubClassifier) Predict([]float64) (string, []float64, error) {
	return s.label, s.dist, s.err
}

func TestGenerateBuy(t *testing.T) {
	t.Parallel()
	g := NewGenerator(stubClassifier{label: "UP", dist: []float64{0.1, 0.17, 0.73}}, 0.6, 0.6)

	sig := g.Generate(nil)
	assert.Equal(t, ActionBuy, sig.Action)
	assert.Equal(t, "UP", sig.Predicted)
	assert.Equal(t, 0.73, sig.Confidence)
}

func TestGenerateSell(t *testing.T) {
	t.Parallel()
	g := NewGenerator(stubClassifier{label: "DOWN", dist: []float64{0.65, 0.2, 0.15}}, 0.6, 0.6)

	sig := g.Generate(nil)
	assert.Equal(t, ActionSell, sig.Action)
	assert.Equal(t, 0.65, sig.Confidence)
}

func TestGenerateHoldBelowThreshold(t *testing.T) {
	t.Parallel()
	g := NewGenerator(stubClassifier{label: "UP", dist: []float64{0.3, 0.15, 0.55}}, 0.6, 0.6)

	sig := g.Generate(nil)
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 0.55, sig.Confidence, "confidence is the stronger of up and down")
}

func TestGenerateThresholdIsExclusive(t *testing.T) {
	t.Parallel()
	g := NewGenerator(stubClassifier{label: "UP", dist: []float64{0.2, 0.2, 0.6}}, 0.6, 0.6)

	sig := g.Generate(nil)
	assert.Equal(t, ActionHold, sig.Action, "exactly at threshold does not trigger")
}

func TestGenerateClassifierError(t *testing.T) {
	t.Parallel()
	g := NewGenerator(stubClassifier{err: errors.New("model unavailable")}, 0.6, 0.6)

	sig := g.Generate(nil)
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, "HOLD", sig.Predicted)
	assert.Equal(t, 0.0, sig.Confidence)
	assert.Equal(t, []float64{0, 1, 0}, sig.Distribution)
}

func TestGenerateShortDistribution(t *testing.T) {
	t.Parallel()
	g := NewGenerator(stubClassifier{label: "UP", dist: []float64{0.5, 0.5}}, 0.6, 0.6)

	sig := g.Generate(nil)
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, 0.0, sig.Confidence)
}

func TestBaselineIsDeterministic(t *testing.T) {
	t.Parallel()
	b := Baseline{}

	features := []float64{0.02, 0.01, 0.03, 0.02}
	l1, d1, err := b.Predict(features)
	assert.NoError(t, err)
	l2, d2, err := b.Predict(features)
	assert.NoError(t, err)
	assert.Equal(t, l1, l2)
	assert.Equal(t, d1, d2)

	var sum float64
	for _, p := range d1 {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "distribution sums to one")
}

func TestBaselineDirection(t *testing.T) {
	t.Parallel()
	b := Baseline{Scale: 50}

	up, upDist, _ := b.Predict([]float64{0.5, 0.5, 0.5})
	assert.Equal(t, "UP", up)
	assert.Greater(t, upDist[LabelUp], upDist[LabelDown])

	down, downDist, _ := b.Predict([]float64{-0.5, -0.5, -0.5})
	assert.Equal(t, "DOWN", down)
	assert.Greater(t, downDist[LabelDown], downDist[LabelUp])
}
