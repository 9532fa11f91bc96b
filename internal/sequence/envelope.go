package sequence

import "sort"

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

func ease(kind string, u float64) float64 {
	switch kind {
	case "smooth":
		return u * u * (3 - 2*u)
	case "cubic":
		// smootherstep
		return u * u * u * (u*(u*6-15) + 10)
	default:
		return u
	}
}

// Eval interpolates the envelope at t. Values hold flat before the first and
// after the last key; an empty envelope evaluates to 0.
func (e Envelope) Eval(t float64) float64 {
	n := len(e)
	if n == 0 {
		return 0
	}
	if t <= e[0].T {
		return e[0].V
	}
	if t >= e[n-1].T {
		return e[n-1].V
	}
	// first key strictly after t; e[i-1] starts the segment
	i := sort.Search(n, func(i int) bool { return e[i].T > t })
	a, b := e[i-1], e[i]
	span := b.T - a.T
	if span <= 0 {
		return b.V
	}
	u := ease(a.Ease, clamp01((t-a.T)/span))
	return a.V + (b.V-a.V)*u
}

// Sorted returns a copy of e ordered by T.
func (e Envelope) Sorted() Envelope {
	out := append(Envelope(nil), e...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].T < out[j].T })
	return out
}
