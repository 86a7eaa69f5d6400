// Package threshold evaluates pass/fail assertions against suite results.
//
// Syntax: "suite:metric<op>value" or "suite.task:metric<op>value", e.g.
//
//	login:p99<250ms
//	login.hash:ops>=1000
//
// Metrics: avg, min, max, p50, p90, p99 (milliseconds, optional ms suffix)
// and ops (ops per second). Operators: <, <=, >, >=, ==.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/benchforge/internal/suite"
)

// Threshold is one parsed assertion.
type Threshold struct {
	Suite    string
	Task     string // empty applies to every task in the suite
	Metric   string
	Operator string
	Value    float64
	Raw      string
}

// Result is the outcome of evaluating one threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

var pattern = regexp.MustCompile(`^([\w-]+)(?:\.([\w-]+))?:(avg|min|max|p50|p90|p99|ops)(<=|>=|==|<|>)([\d.]+)(ms)?$`)

// Parse parses a single threshold expression.
func Parse(raw string) (Threshold, error) {
	m := pattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Threshold{}, fmt.Errorf("invalid threshold %q", raw)
	}
	value, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value in %q: %w", raw, err)
	}
	if m[6] == "ms" && m[3] == "ops" {
		return Threshold{}, fmt.Errorf("ops threshold %q must not carry a ms suffix", raw)
	}
	return Threshold{
		Suite:    m[1],
		Task:     m[2],
		Metric:   m[3],
		Operator: m[4],
		Value:    value,
		Raw:      raw,
	}, nil
}

// ParseAll parses every expression, failing on the first invalid one.
func ParseAll(raws []string) ([]Threshold, error) {
	out := make([]Threshold, 0, len(raws))
	for _, raw := range raws {
		t, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Evaluator evaluates thresholds against a run report.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates an evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks all thresholds against the report. A threshold over a
// suite that produced no usable records fails.
func (e *Evaluator) Evaluate(report *suite.Report) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, report))
	}
	return results
}

func evaluateOne(t Threshold, report *suite.Report) Result {
	records := matchRecords(t, report)
	if len(records) == 0 {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("%s: no matching results", t.Raw),
		}
	}

	// A suite-wide threshold must hold for every task; report the worst value.
	actual := metricValue(t.Metric, records[0])
	for _, rec := range records[1:] {
		v := metricValue(t.Metric, rec)
		if t.Metric == "ops" {
			actual = math.Min(actual, v)
		} else {
			actual = math.Max(actual, v)
		}
	}

	pass := compare(actual, t.Operator, t.Value)
	msg := fmt.Sprintf("%s: actual %.3f", t.Raw, actual)
	if !pass {
		msg = fmt.Sprintf("%s: actual %.3f violates %s%.3f", t.Raw, actual, t.Operator, t.Value)
	}
	return Result{Threshold: t, Actual: actual, Pass: pass, Message: msg}
}

func matchRecords(t Threshold, report *suite.Report) []suite.Record {
	for _, s := range report.Suites {
		if s.Name != t.Suite {
			continue
		}
		if t.Task == "" {
			return s.Records
		}
		for _, rec := range s.Records {
			if rec.Name == t.Task {
				return []suite.Record{rec}
			}
		}
	}
	return nil
}

func metricValue(metric string, rec suite.Record) float64 {
	switch metric {
	case "avg":
		return rec.AvgMs
	case "min":
		return rec.MinMs
	case "max":
		return rec.MaxMs
	case "p50":
		return rec.P50Ms
	case "p90":
		return rec.P90Ms
	case "p99":
		return rec.P99Ms
	case "ops":
		return rec.OpsPerSecond
	}
	return 0
}

func compare(actual float64, op string, expected float64) bool {
	switch op {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected
	case "==":
		return actual == expected
	}
	return false
}
