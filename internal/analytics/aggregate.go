package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/glycoview/glycoview/internal/platform/dataset"
)

// Engine computes aggregates over the immutable dataset store. Every
// method is a pure function of (store, predicate, parameters); the
// engine holds no per-request state and is safe for concurrent use.
type Engine struct {
	store *dataset.Store
}

// NewEngine creates an Engine over the given store.
func NewEngine(store *dataset.Store) *Engine {
	return &Engine{store: store}
}

// Store returns the engine's dataset store.
func (e *Engine) Store() *dataset.Store { return e.store }

// Rows gathers the indices of all rows passing the predicate.
func (e *Engine) Rows(p Predicate) []int {
	rows := make([]int, 0, e.store.Len())
	for i := 0; i < e.store.Len(); i++ {
		if p(i) {
			rows = append(rows, i)
		}
	}
	return rows
}

// ---------------------------------------------------------------------------
// Summary statistics
// ---------------------------------------------------------------------------

// ColumnStats holds mean/min/max over the non-null values of one column.
// Defined is false when the filtered subset had no valid value: the
// caller renders "no data" instead of a propagated NaN.
type ColumnStats struct {
	Valid   int
	Mean    float64
	Min     float64
	Max     float64
	Defined bool
}

// Summary holds the filtered row count and per-column statistics.
type Summary struct {
	Count int
	Stats map[string]ColumnStats
}

// Summary computes the filtered row count and mean/min/max for each
// requested numeric column. An empty subset is valid and yields
// Defined=false stats, never NaN.
func (e *Engine) Summary(p Predicate, cols []string) (*Summary, error) {
	columns := make(map[string]*dataset.FloatColumn, len(cols))
	for _, name := range cols {
		col, ok := e.store.Numeric(name)
		if !ok {
			return nil, fmt.Errorf("summary: unknown numeric column %q", name)
		}
		columns[name] = col
	}

	out := &Summary{Stats: make(map[string]ColumnStats, len(cols))}
	acc := make(map[string]*ColumnStats, len(cols))
	sums := make(map[string]float64, len(cols))
	for _, name := range cols {
		acc[name] = &ColumnStats{}
	}

	for i := 0; i < e.store.Len(); i++ {
		if !p(i) {
			continue
		}
		out.Count++
		for name, col := range columns {
			v, valid := col.Value(i)
			if !valid {
				continue
			}
			st := acc[name]
			if !st.Defined {
				st.Min, st.Max, st.Defined = v, v, true
			} else {
				if v < st.Min {
					st.Min = v
				}
				if v > st.Max {
					st.Max = v
				}
			}
			st.Valid++
			sums[name] += v
		}
	}

	for _, name := range cols {
		st := acc[name]
		if st.Defined {
			st.Mean = sums[name] / float64(st.Valid)
		}
		out.Stats[name] = *st
	}
	return out, nil
}

// CountWhere counts filtered rows that additionally match a category
// value on one dimension. Null cells never match.
func (e *Engine) CountWhere(p Predicate, dim, value string) (int, error) {
	col, ok := e.store.Category(dim)
	if !ok {
		return 0, fmt.Errorf("count: unknown dimension %q", dim)
	}
	n := 0
	for i := 0; i < e.store.Len(); i++ {
		if !p(i) {
			continue
		}
		if v, valid := col.Value(i); valid && v == value {
			n++
		}
	}
	return n, nil
}

// CountFlag counts filtered rows whose anomaly flag is non-null and set.
func (e *Engine) CountFlag(p Predicate, flag string) (int, error) {
	col, ok := e.store.Flag(flag)
	if !ok {
		return 0, fmt.Errorf("count: unknown flag %q", flag)
	}
	n := 0
	for i := 0; i < e.store.Len(); i++ {
		if !p(i) {
			continue
		}
		if v, valid := col.Value(i); valid && v {
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Grouped counts
// ---------------------------------------------------------------------------

// GroupCount is one cell of a grouped count: one key per grouping
// dimension, in the order the dimensions were requested.
type GroupCount struct {
	Keys  []string
	Count int
}

// GroupedCounts groups the filtered rows by one or two categorical
// dimensions. Output order follows the declared category order of each
// dimension (primary outer, secondary inner), including zero-count
// groups so chart axes stay stable across filter changes. Rows with a
// null value in any grouping dimension are excluded.
func (e *Engine) GroupedCounts(p Predicate, dims []string) ([]GroupCount, error) {
	if len(dims) == 0 || len(dims) > 2 {
		return nil, fmt.Errorf("grouped counts: need one or two dimensions, got %d", len(dims))
	}

	cols := make([]*dataset.StringColumn, len(dims))
	orders := make([][]string, len(dims))
	for d, dim := range dims {
		col, ok := e.store.Category(dim)
		if !ok {
			return nil, fmt.Errorf("grouped counts: unknown dimension %q", dim)
		}
		cols[d] = col
		orders[d], _ = e.store.CategoryOrder(dim)
	}

	counts := make(map[string]int)
	for i := 0; i < e.store.Len(); i++ {
		if !p(i) {
			continue
		}
		key := ""
		null := false
		for d := range dims {
			v, valid := cols[d].Value(i)
			if !valid {
				null = true
				break
			}
			key += v + "\x00"
		}
		if !null {
			counts[key]++
		}
	}

	var out []GroupCount
	if len(dims) == 1 {
		for _, k := range orders[0] {
			out = append(out, GroupCount{Keys: []string{k}, Count: counts[k+"\x00"]})
		}
		return out, nil
	}
	for _, k0 := range orders[0] {
		for _, k1 := range orders[1] {
			out = append(out, GroupCount{Keys: []string{k0, k1}, Count: counts[k0+"\x00"+k1+"\x00"]})
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Time-bucketed means
// ---------------------------------------------------------------------------

// TimeBucketMean is the mean of one numeric column over one
// (time bucket, split group) pair. Group is empty when no split was
// requested.
type TimeBucketMean struct {
	Bucket string
	Start  time.Time
	Group  string
	Mean   float64
	N      int
}

// TimeBucketedMeans computes the mean of col per (time bucket, split)
// pair at the given granularity. Buckets appear in chronological order;
// within a bucket, split groups follow the declared category order.
// Pairs with no valid value are omitted.
func (e *Engine) TimeBucketedMeans(p Predicate, col string, splitDim string, period Period) ([]TimeBucketMean, error) {
	values, ok := e.store.Numeric(col)
	if !ok {
		return nil, fmt.Errorf("time-bucketed means: unknown numeric column %q", col)
	}

	var split *dataset.StringColumn
	groups := []string{""}
	if splitDim != "" {
		split, ok = e.store.Category(splitDim)
		if !ok {
			return nil, fmt.Errorf("time-bucketed means: unknown dimension %q", splitDim)
		}
		groups, _ = e.store.CategoryOrder(splitDim)
	}

	type cell struct {
		sum float64
		n   int
	}
	starts := make(map[string]time.Time)
	cells := make(map[string]*cell)

	for i := 0; i < e.store.Len(); i++ {
		if !p(i) {
			continue
		}
		v, valid := values.Value(i)
		if !valid {
			continue
		}
		group := ""
		if split != nil {
			g, gValid := split.Value(i)
			if !gValid {
				continue
			}
			group = g
		}

		bucket, start := e.bucketOf(i, period)
		starts[bucket] = start
		key := bucket + "\x00" + group
		c, exists := cells[key]
		if !exists {
			c = &cell{}
			cells[key] = c
		}
		c.sum += v
		c.n++
	}

	buckets := make([]string, 0, len(starts))
	for b := range starts {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return starts[buckets[i]].Before(starts[buckets[j]])
	})

	var out []TimeBucketMean
	for _, b := range buckets {
		for _, g := range groups {
			c, exists := cells[b+"\x00"+g]
			if !exists {
				continue
			}
			out = append(out, TimeBucketMean{
				Bucket: b,
				Start:  starts[b],
				Group:  g,
				Mean:   c.sum / float64(c.n),
				N:      c.n,
			})
		}
	}
	return out, nil
}

// bucketOf maps row i's timestamp to its bucket key and bucket start.
func (e *Engine) bucketOf(i int, period Period) (string, time.Time) {
	t := e.store.Timestamp(i)
	switch period {
	case PeriodWeekly:
		start := dataset.WeekStart(t)
		return start.Format("2006-01-02"), start
	case PeriodMonthly:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return e.store.Month(i), start
	default:
		return t.Format("2006-01-02"), t
	}
}

// ---------------------------------------------------------------------------
// Histograms
// ---------------------------------------------------------------------------

// HistogramBin is one equal-width interval [Lo, Hi); the final bin is
// closed on the right.
type HistogramBin struct {
	Lo float64
	Hi float64
}

// HistogramSeries is the per-bin counts for one split group.
type HistogramSeries struct {
	Group  string
	Counts []int
}

// Histogram holds the shared bin layout and one count series per split
// group. An empty filtered subset yields empty Bins and Series.
type Histogram struct {
	Column string
	Bins   []HistogramBin
	Series []HistogramSeries
}

// Histogram bins the non-null values of col into bins equal-width
// intervals spanning the filtered subset's own value range, optionally
// split by a categorical dimension. All split groups share one bin
// layout so the distributions overlay.
func (e *Engine) Histogram(p Predicate, col string, bins int, splitDim string) (*Histogram, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("histogram: bin count must be positive, got %d", bins)
	}
	values, ok := e.store.Numeric(col)
	if !ok {
		return nil, fmt.Errorf("histogram: unknown numeric column %q", col)
	}

	var split *dataset.StringColumn
	groups := []string{""}
	if splitDim != "" {
		split, ok = e.store.Category(splitDim)
		if !ok {
			return nil, fmt.Errorf("histogram: unknown dimension %q", splitDim)
		}
		groups, _ = e.store.CategoryOrder(splitDim)
	}

	type point struct {
		v     float64
		group string
	}
	var points []point
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < e.store.Len(); i++ {
		if !p(i) {
			continue
		}
		v, valid := values.Value(i)
		if !valid {
			continue
		}
		group := ""
		if split != nil {
			g, gValid := split.Value(i)
			if !gValid {
				continue
			}
			group = g
		}
		points = append(points, point{v: v, group: group})
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := &Histogram{Column: col}
	if len(points) == 0 {
		return out, nil
	}

	width := (hi - lo) / float64(bins)
	if width == 0 {
		// All values identical: one degenerate bin holds everything.
		bins = 1
		width = 1
	}
	for b := 0; b < bins; b++ {
		out.Bins = append(out.Bins, HistogramBin{Lo: lo + float64(b)*width, Hi: lo + float64(b+1)*width})
	}

	counts := make(map[string][]int, len(groups))
	for _, g := range groups {
		counts[g] = make([]int, bins)
	}
	for _, pt := range points {
		idx := int((pt.v - lo) / width)
		if idx >= bins {
			idx = bins - 1 // hi itself lands in the last, closed bin
		}
		counts[pt.group][idx]++
	}

	for _, g := range groups {
		series := counts[g]
		total := 0
		for _, c := range series {
			total += c
		}
		if total == 0 {
			continue
		}
		out.Series = append(out.Series, HistogramSeries{Group: g, Counts: series})
	}
	return out, nil
}

// HistogramOfValues bins a plain value slice the same way Histogram does.
// Used for distributions over tables that are not part of the store,
// such as raw anomaly scores.
func HistogramOfValues(values []float64, bins int) ([]HistogramBin, []int) {
	if bins <= 0 || len(values) == 0 {
		return nil, nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	width := (hi - lo) / float64(bins)
	if width == 0 {
		bins = 1
		width = 1
	}
	layout := make([]HistogramBin, bins)
	for b := 0; b < bins; b++ {
		layout[b] = HistogramBin{Lo: lo + float64(b)*width, Hi: lo + float64(b+1)*width}
	}
	counts := make([]int, bins)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	return layout, counts
}

// ---------------------------------------------------------------------------
// Correlation matrix
// ---------------------------------------------------------------------------

// Matrix is a square, symmetric correlation matrix with its column
// labels.
type Matrix struct {
	Labels []string
	Values [][]float64
}

// CorrelationMatrix computes the Pearson correlation over the given
// ordered column set, restricted to filtered rows where every listed
// column is non-null. The diagonal is exactly 1.0 by construction and
// all values are clamped to [-1, 1]. Fewer than two complete rows is an
// InsufficientDataError.
func (e *Engine) CorrelationMatrix(p Predicate, cols []string) (*Matrix, error) {
	columns := make([]*dataset.FloatColumn, len(cols))
	for c, name := range cols {
		col, ok := e.store.Numeric(name)
		if !ok {
			return nil, fmt.Errorf("correlation: unknown numeric column %q", name)
		}
		columns[c] = col
	}

	// Gather complete rows only.
	var rows [][]float64
	for i := 0; i < e.store.Len(); i++ {
		if !p(i) {
			continue
		}
		row := make([]float64, len(cols))
		complete := true
		for c, col := range columns {
			v, valid := col.Value(i)
			if !valid {
				complete = false
				break
			}
			row[c] = v
		}
		if complete {
			rows = append(rows, row)
		}
	}

	if len(rows) < 2 {
		return nil, &InsufficientDataError{Op: "correlation matrix", Rows: len(rows), Min: 2}
	}

	n := float64(len(rows))
	k := len(cols)
	sum := make([]float64, k)
	sumSq := make([]float64, k)
	cross := make([][]float64, k)
	for c := range cross {
		cross[c] = make([]float64, k)
	}
	for _, row := range rows {
		for a := 0; a < k; a++ {
			sum[a] += row[a]
			sumSq[a] += row[a] * row[a]
			for b := a + 1; b < k; b++ {
				cross[a][b] += row[a] * row[b]
			}
		}
	}

	m := &Matrix{Labels: append([]string(nil), cols...)}
	m.Values = make([][]float64, k)
	for a := range m.Values {
		m.Values[a] = make([]float64, k)
		m.Values[a][a] = 1.0
	}
	for a := 0; a < k; a++ {
		varA := n*sumSq[a] - sum[a]*sum[a]
		for b := a + 1; b < k; b++ {
			varB := n*sumSq[b] - sum[b]*sum[b]
			var r float64
			if varA > 0 && varB > 0 {
				r = (n*cross[a][b] - sum[a]*sum[b]) / math.Sqrt(varA*varB)
			}
			if r > 1 {
				r = 1
			}
			if r < -1 {
				r = -1
			}
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Box stats and scatter points
// ---------------------------------------------------------------------------

// BoxStats is the five-number summary of one column within one split
// group.
type BoxStats struct {
	Group  string
	N      int
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// BoxStatsBy computes five-number summaries of col per split group, in
// declared group order. Groups with no valid value are omitted.
func (e *Engine) BoxStatsBy(p Predicate, col, splitDim string) ([]BoxStats, error) {
	values, ok := e.store.Numeric(col)
	if !ok {
		return nil, fmt.Errorf("box stats: unknown numeric column %q", col)
	}
	split, ok := e.store.Category(splitDim)
	if !ok {
		return nil, fmt.Errorf("box stats: unknown dimension %q", splitDim)
	}
	groups, _ := e.store.CategoryOrder(splitDim)

	byGroup := make(map[string][]float64)
	for i := 0; i < e.store.Len(); i++ {
		if !p(i) {
			continue
		}
		v, valid := values.Value(i)
		if !valid {
			continue
		}
		g, gValid := split.Value(i)
		if !gValid {
			continue
		}
		byGroup[g] = append(byGroup[g], v)
	}

	var out []BoxStats
	for _, g := range groups {
		vals := byGroup[g]
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)
		out = append(out, BoxStats{
			Group:  g,
			N:      len(vals),
			Min:    vals[0],
			Q1:     quantile(vals, 0.25),
			Median: quantile(vals, 0.5),
			Q3:     quantile(vals, 0.75),
			Max:    vals[len(vals)-1],
		})
	}
	return out, nil
}

// quantile interpolates linearly between order statistics of the sorted
// slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := float64(len(sorted)-1) * q
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// Point is one (x, y) pair.
type Point struct {
	X float64
	Y float64
}

// ScatterGroup is the point set of one split group.
type ScatterGroup struct {
	Group  string
	Points []Point
}

// ScatterPoints gathers (xcol, ycol) pairs per split group, dropping
// rows with a null in either axis. Groups appear in declared order;
// empty groups are omitted.
func (e *Engine) ScatterPoints(p Predicate, xcol, ycol, splitDim string) ([]ScatterGroup, error) {
	xs, ok := e.store.Numeric(xcol)
	if !ok {
		return nil, fmt.Errorf("scatter: unknown numeric column %q", xcol)
	}
	ys, ok := e.store.Numeric(ycol)
	if !ok {
		return nil, fmt.Errorf("scatter: unknown numeric column %q", ycol)
	}

	var split *dataset.StringColumn
	groups := []string{""}
	if splitDim != "" {
		split, ok = e.store.Category(splitDim)
		if !ok {
			return nil, fmt.Errorf("scatter: unknown dimension %q", splitDim)
		}
		groups, _ = e.store.CategoryOrder(splitDim)
	}

	byGroup := make(map[string][]Point)
	for i := 0; i < e.store.Len(); i++ {
		if !p(i) {
			continue
		}
		x, xValid := xs.Value(i)
		y, yValid := ys.Value(i)
		if !xValid || !yValid {
			continue
		}
		group := ""
		if split != nil {
			g, gValid := split.Value(i)
			if !gValid {
				continue
			}
			group = g
		}
		byGroup[group] = append(byGroup[group], Point{X: x, Y: y})
	}

	var out []ScatterGroup
	for _, g := range groups {
		pts := byGroup[g]
		if len(pts) == 0 {
			continue
		}
		out = append(out, ScatterGroup{Group: g, Points: pts})
	}
	return out, nil
}
