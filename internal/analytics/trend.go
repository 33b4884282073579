package analytics

import "fmt"

// TrendSamples is the number of evenly spaced points each fitted line is
// evaluated at, spanning the group's own x range.
const TrendSamples = 100

// TrendLine is a degree-1 least-squares fit for one split group,
// evaluated at TrendSamples points across that group's x range.
type TrendLine struct {
	Group     string
	Slope     float64
	Intercept float64
	Points    []Point
}

// TrendLines fits y = slope*x + intercept per split group over the
// filtered rows, dropping pairs with a null in either axis. A group with
// fewer than two valid points, or with no x spread, gets no line: the
// result may be empty and that is not an error.
func (e *Engine) TrendLines(p Predicate, xcol, ycol, splitDim string) ([]TrendLine, error) {
	groups, err := e.ScatterPoints(p, xcol, ycol, splitDim)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}

	var out []TrendLine
	for _, g := range groups {
		line, ok := fitLine(g.Points)
		if !ok {
			continue
		}
		line.Group = g.Group
		out = append(out, line)
	}
	return out, nil
}

// fitLine computes the ordinary least-squares line through the points
// and samples it across [minX, maxX]. ok is false for fewer than two
// points or a degenerate x range.
func fitLine(points []Point) (TrendLine, bool) {
	if len(points) < 2 {
		return TrendLine{}, false
	}

	var sumX, sumY, sumXX, sumXY float64
	minX, maxX := points[0].X, points[0].X
	for _, pt := range points {
		sumX += pt.X
		sumY += pt.Y
		sumXX += pt.X * pt.X
		sumXY += pt.X * pt.Y
		if pt.X < minX {
			minX = pt.X
		}
		if pt.X > maxX {
			maxX = pt.X
		}
	}

	n := float64(len(points))
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		// All x values identical: a vertical set has no slope.
		return TrendLine{}, false
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	line := TrendLine{Slope: slope, Intercept: intercept}
	step := (maxX - minX) / float64(TrendSamples-1)
	for s := 0; s < TrendSamples; s++ {
		x := minX + float64(s)*step
		line.Points = append(line.Points, Point{X: x, Y: slope*x + intercept})
	}
	return line, true
}

// FitThrough exposes the fit itself for callers that only need slope and
// intercept, such as tests against known lines.
func FitThrough(points []Point) (slope, intercept float64, ok bool) {
	line, ok := fitLine(points)
	if !ok {
		return 0, 0, false
	}
	return line.Slope, line.Intercept, true
}
