package signal

import "math"

// Baseline is a model-free momentum classifier. It scores the average
// of the feature vector through a logistic squash and splits the
// probability mass between UP, HOLD and DOWN. It exists so the engines
// run end to end without a trained model; replace it with a real
// Classifier for anything beyond smoke testing.
type Baseline struct {
	// Scale sharpens the logistic response. Zero means 10.
	Scale float64
}

func (b Baseline) Predict(features []float64) (string, []float64, error) {
	scale := b.Scale
	if scale == 0 {
		scale = 10
	}
	var sum float64
	for _, f := range features {
		sum += f
	}
	var mean float64
	if len(features) > 0 {
		mean = sum / float64(len(features))
	}

	up := 1 / (1 + math.Exp(-scale*mean))
	down := 1 - up
	hold := 1 - math.Abs(up-down)
	total := up + down + hold
	dist := []float64{down / total, hold / total, up / total}

	label := "HOLD"
	if dist[LabelUp] > dist[LabelHold] && dist[LabelUp] >= dist[LabelDown] {
		label = "UP"
	} else if dist[LabelDown] > dist[LabelHold] {
		label = "DOWN"
	}
	return label, dist, nil
}
