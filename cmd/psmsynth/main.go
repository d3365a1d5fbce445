/*
Psmsynth runs the PSM invariant-synthesis-and-verification engine against
one of the built-in example reactive-module/DPA products and prints the
resulting lexicographic parity supermartingale, or a diagnostic explaining
which obligation family failed.

Usage:

	psmsynth [flags]

The flags are:

	-v, --version
		Give the current version of the synthesiser and then exit.

	-m, --model NAME
		Run the named example model. One of: consensus2, counter,
		herman3, nondetcounter, randomwalk, reactivedecr. Defaults to
		"counter".

	-c, --config FILE
		Load synthesis parameters (strict-epsilon, solver iteration cap,
		ranker choice) from the given TOML file. Unset fields keep their
		defaults.

	-o, --out FILE
		On success, also write the rezi-encoded synthesis result to FILE.

	-l, --legacy
		Use the iterative legacy ranker (internal/psm.RankLegacy) instead
		of the joint invariant-synthesis-and-verification encoding.
*/
package main

import (
	"fmt"
	"math/big"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/corvidlab/psmsynth/internal/config"
	"github.com/corvidlab/psmsynth/internal/diag"
	"github.com/corvidlab/psmsynth/internal/persist"
	"github.com/corvidlab/psmsynth/internal/psm"
	"github.com/corvidlab/psmsynth/internal/psmerr"
	"github.com/corvidlab/psmsynth/internal/reactive"
	"github.com/corvidlab/psmsynth/internal/smt"
	"github.com/corvidlab/psmsynth/internal/util"
	"github.com/corvidlab/psmsynth/internal/version"

	"github.com/corvidlab/psmsynth/examples/consensus2"
	"github.com/corvidlab/psmsynth/examples/counter"
	"github.com/corvidlab/psmsynth/examples/herman3"
	"github.com/corvidlab/psmsynth/examples/nondetcounter"
	"github.com/corvidlab/psmsynth/examples/randomwalk"
	"github.com/corvidlab/psmsynth/examples/reactivedecr"
)

const (
	// ExitSuccess indicates synthesis found a PSM and invariant.
	ExitSuccess = iota

	// ExitUnsatisfiable indicates the chosen templates admit no PSM or
	// invariant (psmerr.Unsatisfiable).
	ExitUnsatisfiable

	// ExitModelError indicates a structural or algebra error in the model
	// itself (psmerr.Structural, psmerr.Algebra, psmerr.Syntax).
	ExitModelError

	// ExitInternalError indicates an error the engine should never raise
	// for a linear real arithmetic problem (psmerr.ModelDecode), or any
	// other unclassified failure.
	ExitInternalError
)

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Gives the version info")
	modelName   = pflag.StringP("model", "m", "counter", "The example model to synthesise: consensus2, counter, herman3, nondetcounter, randomwalk, reactivedecr")
	configFile  = pflag.StringP("config", "c", "", "TOML file of synthesis parameters; unset fields keep their defaults")
	outFile     = pflag.StringP("out", "o", "", "Write the rezi-encoded result to this file on success")
	useLegacy   = pflag.BoolP("legacy", "l", false, "Use the iterative legacy ranker instead of the joint encoding")
)

type modelBuilder func(ctx *smt.SymbolContext) (reactive.Module, reactive.DPA, error)

var models = map[string]modelBuilder{
	"counter":       counter.Build,
	"reactivedecr":  reactivedecr.Build,
	"randomwalk":    randomwalk.Build,
	"nondetcounter": nondetcounter.Build,
	"herman3":       herman3.Build,
	"consensus2":    consensus2.Build,
}

func modelNames() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	cfg := config.Config{}.FillDefaults()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitModelError
			return
		}
		cfg = loaded
	}
	if *useLegacy {
		cfg.Ranker = config.RankerLegacy
	}
	if *outFile == "" {
		*outFile = cfg.OutFile
	}

	build, ok := models[*modelName]
	if !ok {
		fmt.Fprintf(os.Stderr, "ERROR: unknown model %q; available models are %s\n", *modelName, util.QuotedTextList(modelNames(), "or"))
		returnCode = ExitModelError
		return
	}

	ctx := smt.NewSymbolContext(*modelName)
	product, dpa, err := build(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = exitCodeFor(err)
		return
	}

	res, err := synthesize(product, dpa, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = exitCodeFor(err)
		return
	}

	fmt.Println(diag.Report(res))

	if *outFile != "" {
		if err := os.WriteFile(*outFile, persist.Encode(res), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: writing %s: %s\n", *outFile, err.Error())
			returnCode = ExitInternalError
			return
		}
	}
}

func synthesize(product reactive.Module, dpa reactive.DPA, cfg config.Config) (*psm.Result, error) {
	if cfg.Ranker == config.RankerLegacy {
		legacy, err := psm.RankLegacy(product, dpa)
		if err != nil {
			return nil, err
		}
		// The legacy ranker co-synthesises no invariant, so
		// report an empty one per state rather than leaving the map nil.
		res := &psm.Result{
			PSM:            legacy.PSM,
			Invariant:      map[int64]psm.Invariant{},
			PriorityLevels: dpa.PriorityLevels(),
		}
		for q := range legacy.PSM {
			res.Invariant[q] = psm.Invariant{Vars: product.Vars, Alpha: map[string]*big.Rat{}, Beta: big.NewRat(0, 1)}
		}
		return res, nil
	}
	return psm.InvariantSynthesisAndVerification(product, dpa, psm.Options{StrictEpsilon: cfg.StrictEpsilon()})
}

func exitCodeFor(err error) int {
	pe, ok := psmerr.As(err)
	if !ok {
		return ExitInternalError
	}
	switch pe.Kind() {
	case psmerr.Unsatisfiable:
		return ExitUnsatisfiable
	case psmerr.Structural, psmerr.Algebra, psmerr.Syntax:
		return ExitModelError
	default:
		return ExitInternalError
	}
}
