package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/t03i/jdime/match"
)

// parseCostModelTuple reads the fixed-arity-7 comma-separated cost-model
// tuple: "iterations,pAssign,wr,wn,wa,ws,wo".
func parseCostModelTuple(raw string) (match.CostModelOptions, error) {
	opts := match.DefaultCostModelOptions()
	if strings.TrimSpace(raw) == "" {
		return opts, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 7 {
		return opts, errors.Errorf("cost-model tuple: want 7 comma-separated fields, got %d", len(parts))
	}
	fields := make([]float64, 7)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return opts, errors.Wrapf(err, "cost-model tuple field %d", i)
		}
		fields[i] = v
	}
	opts.Iterations = int(fields[0])
	opts.PAssign = fields[1]
	opts.Weights.Renaming = fields[2]
	opts.Weights.Ancestry = fields[3]
	opts.Weights.Unmatched = fields[4]
	opts.Weights.Sibling = fields[5]
	opts.Weights.Order = fields[6]
	return opts, nil
}

// parseFixPercentTuple reads the arity-2 "fixLower,fixUpper" tuple.
func parseFixPercentTuple(raw string) (lower, upper float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("fix-percentage tuple: want 2 comma-separated fields, got %d", len(parts))
	}
	if lower, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return 0, 0, errors.Wrap(err, "fix-percentage lower bound")
	}
	if upper, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return 0, 0, errors.Wrap(err, "fix-percentage upper bound")
	}
	return lower, upper, nil
}

// parseSeed reads the seed token: an integer, or "none" for a
// nondeterministic run.
func parseSeed(raw string) (seed int64, fixed bool, err error) {
	if strings.TrimSpace(raw) == "" || raw == "none" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "seed %q", raw)
	}
	return v, true, nil
}

// tomlConfig is the on-disk shape loaded via github.com/BurntSushi/toml:
// the look-ahead, cost-model and marker-style settings, none of which has
// a command-line flag of its own.
type tomlConfig struct {
	Lookahead        string            `toml:"lookahead"`
	PerKindLookahead map[string]string `toml:"per_kind_lookahead"`
	CostModelEnabled bool              `toml:"cost_model_enabled"`
	CostModelTuple   string            `toml:"cost_model_tuple"`
	FixPercentTuple  string            `toml:"fix_percent_tuple"`
	Seed             string            `toml:"seed"`
	Parallel         bool              `toml:"parallel"`
	MarkerStyle      string            `toml:"marker_style"`
}
