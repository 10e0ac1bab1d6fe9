// Package signal turns classifier output into trade actions.
package signal

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Label indices in the classifier's probability distribution.
const (
	LabelDown = 0
	LabelHold = 1
	LabelUp   = 2
)

// Signal is the externally-produced action recommendation for one step.
type Signal struct {
	Action       Action
	Predicted    string    // label chosen by the classifier
	Distribution []float64 // probability mass per label: DOWN, HOLD, UP
	Confidence   float64   // probability mass behind the chosen action
}

// Classifier is the predictive model collaborator. The engine only consumes
// its output; training and internals are out of scope.
type Classifier interface {
	Predict(features []float64) (label string, distribution []float64, err error)
}

// Generator maps classifier distributions to BUY/SELL/HOLD using
// configurable probability thresholds.
type Generator struct {
	clf           Classifier
	buyThreshold  float64
	sellThreshold float64
}

func NewGenerator(clf Classifier, buyThreshold, sellThreshold float64) *Generator {
	return &Generator{clf: clf, buyThreshold: buyThreshold, sellThreshold: sellThreshold}
}

// Generate produces the Signal for one feature vector. Classifier errors
// and malformed distributions map to HOLD with confidence 0.
func (g *Generator) Generate(features []float64) Signal {
	label, dist, err := g.clf.Predict(features)
	if err != nil || len(dist) < 3 {
		return Signal{
			Action:       ActionHold,
			Predicted:    "HOLD",
			Distribution: []float64{0, 1, 0},
			Confidence:   0,
		}
	}

	sig := Signal{Predicted: label, Distribution: dist}
	up := dist[LabelUp]
	down := dist[LabelDown]

	switch {
	case up > g.buyThreshold:
		sig.Action = ActionBuy
		sig.Confidence = up
	case down > g.sellThreshold:
		sig.Action = ActionSell
		sig.Confidence = down
	default:
		sig.Action = ActionHold
		sig.Confidence = up
		if down > up {
			sig.Confidence = down
		}
	}
	return sig
}
