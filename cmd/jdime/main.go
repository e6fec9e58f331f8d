// Command jdime is the thin CLI front-end over the merge core. This
// binary only wires the line-based and n-way strategies out of the box;
// structured/combined merging needs a real language parser registered
// via strategy.Dispatcher, which a downstream embedder supplies.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/t03i/jdime/artifact"
	"github.com/t03i/jdime/linediff"
	"github.com/t03i/jdime/match"
	"github.com/t03i/jdime/mergectx"
	"github.com/t03i/jdime/mergeerr"
	"github.com/t03i/jdime/strategy"
)

const (
	exitClean         = 0
	exitConflicts     = 1
	exitInternalError = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("jdime", flag.ContinueOnError)
	strategyName := fs.String("strategy", "combined", "merge strategy: linebased, structured, combined, nway")
	basePath := fs.String("base", "", "path to the base (ancestor) file")
	leftPath := fs.String("left", "", "path to the left (ours) file")
	rightPath := fs.String("right", "", "path to the right (theirs) file")
	outputPath := fs.String("output", "", "path to write the merged file (default stdout)")
	configPath := fs.String("config", "", "path to a TOML config file")
	keepGoing := fs.Bool("keep-going", false, "record recoverable errors and continue")
	exitOnError := fs.Bool("exit-on-error", false, "make the first failure fatal, overriding keep-going")
	conditional := fs.Bool("conditional", false, "emit choice artifacts instead of conflicts")
	conditionalOutsideMethods := fs.Bool("conditional-outside-methods", false, "allow conditional mode outside method-scoped kinds")

	if err := fs.Parse(args); err != nil {
		return exitInternalError
	}
	if *leftPath == "" || *rightPath == "" {
		logrus.Errorf("jdime: -left and -right are required")
		return exitInternalError
	}

	ctx := mergectx.New()
	ctx.KeepGoing = *keepGoing
	ctx.ExitOnError = *exitOnError
	ctx.ConditionalMerge = *conditional
	ctx.ConditionalOutsideMethods = *conditionalOutsideMethods

	if *configPath != "" {
		if err := applyConfigFile(*configPath, ctx); err != nil {
			logrus.Errorf("jdime: loading config %s: %v", *configPath, err)
			return exitInternalError
		}
	}

	name, err := strategy.Normalize(*strategyName)
	if err != nil {
		logrus.Errorf("jdime: %v", err)
		return exitInternalError
	}

	baseBytes, err := readOptional(*basePath)
	if err != nil {
		logrus.Errorf("jdime: reading base: %v", err)
		return exitInternalError
	}
	leftBytes, err := os.ReadFile(*leftPath)
	if err != nil {
		logrus.Errorf("jdime: reading left: %v", err)
		return exitInternalError
	}
	rightBytes, err := os.ReadFile(*rightPath)
	if err != nil {
		logrus.Errorf("jdime: reading right: %v", err)
		return exitInternalError
	}

	dispatcher := strategy.New(ctx, nil, nil, nil)
	var result *strategy.Result
	if name == strategy.NWay {
		result, err = dispatcher.RunNWay(nwayScenario(baseBytes, leftBytes, rightBytes), nil)
	} else {
		result, err = dispatcher.Run(context.Background(), name, baseBytes, leftBytes, rightBytes)
	}
	if err != nil {
		logrus.Errorf("jdime: merge failed: %v", err)
		if mergeerr.IsRecoverable(err) {
			return exitConflicts
		}
		return exitInternalError
	}

	if err := writeResult(*outputPath, result.Merged); err != nil {
		logrus.Errorf("jdime: writing output: %v", err)
		return exitInternalError
	}

	if result.Conflicts > 0 {
		logrus.Infof("jdime: merged with %d conflict(s)", result.Conflicts)
		return exitConflicts
	}
	logrus.Infof("jdime: merged cleanly")
	return exitClean
}

// nwayScenario folds the CLI's whole files into an n-way scenario of
// leaf artifacts; the base file, when present, becomes the first
// revision of the fold.
func nwayScenario(baseBytes, leftBytes, rightBytes []byte) *artifact.Scenario {
	order := []artifact.Revision{artifact.Left, artifact.Right}
	roots := map[artifact.Revision]*artifact.Artifact{
		artifact.Left:  artifact.NewLeaf(artifact.Left, "left", artifact.KindFile, string(leftBytes)),
		artifact.Right: artifact.NewLeaf(artifact.Right, "right", artifact.KindFile, string(rightBytes)),
	}
	if baseBytes != nil {
		order = append([]artifact.Revision{artifact.Base}, order...)
		roots[artifact.Base] = artifact.NewLeaf(artifact.Base, "base", artifact.KindFile, string(baseBytes))
	}
	return artifact.NewScenario(order, roots)
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

func writeResult(path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprint(os.Stdout, string(data))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func applyConfigFile(path string, ctx *mergectx.MergeContext) error {
	var cfg tomlConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return err
	}

	global := match.Off
	if cfg.Lookahead != "" {
		d, ok := match.ParseDepth(cfg.Lookahead)
		if !ok {
			return fmt.Errorf("invalid lookahead token %q", cfg.Lookahead)
		}
		global = d
	}
	overrides := make(map[artifact.Kind]match.Depth, len(cfg.PerKindLookahead))
	for kind, token := range cfg.PerKindLookahead {
		d, ok := match.ParseDepth(token)
		if !ok {
			return fmt.Errorf("invalid lookahead token %q for kind %q", token, kind)
		}
		overrides[artifact.Kind(kind)] = d
	}
	ctx.Lookahead = match.NewTable(global, overrides)

	if cfg.CostModelEnabled {
		opts, err := parseCostModelTuple(cfg.CostModelTuple)
		if err != nil {
			return err
		}
		if cfg.FixPercentTuple != "" {
			lower, upper, err := parseFixPercentTuple(cfg.FixPercentTuple)
			if err != nil {
				return err
			}
			opts.FixLower, opts.FixUpper = lower, upper
		}
		seed, fixed, err := parseSeed(cfg.Seed)
		if err != nil {
			return err
		}
		if !fixed {
			seed = time.Now().UnixNano()
		}
		opts.Seed = seed
		opts.FixRandom = !fixed
		opts.Parallel = cfg.Parallel
		ctx.UseCostModel = true
		ctx.CostModel = opts
	}

	switch cfg.MarkerStyle {
	case "", "default":
		ctx.MarkerStyle = linediff.StyleDefault
	case "diff3":
		ctx.MarkerStyle = linediff.StyleDiff3
	case "zealous-diff3":
		ctx.MarkerStyle = linediff.StyleZealousDiff3
	default:
		return fmt.Errorf("unknown marker style %q", cfg.MarkerStyle)
	}
	return nil
}
