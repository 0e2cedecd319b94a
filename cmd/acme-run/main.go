/* Runs a scenario file for a fixed number of steps and reports traffic statistics */
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
	acme "github.com/nrl-acme/acme-sim/src"
	flag "github.com/spf13/pflag"
)

func main() {
	scenarioPath := flag.StringP("scenario", "s", "", "path to a scenario YAML file")
	steps := flag.IntP("steps", "n", 20, "number of simulation steps to run")
	deltaT := flag.Float64P("delta-t", "d", 0.25, "seconds advanced per step")
	txProbability := flag.Float64P("tx-probability", "p", 0.5, "probability a comms platform transmits in a given step")
	reportFormat := flag.StringP("report-file", "r", "", "strftime pattern for a run-report file (e.g. acme-run-%Y%m%d-%H%M%S.log); empty disables")
	flag.Parse()

	if *scenarioPath == "" {
		usage()
		os.Exit(1)
	}

	if err := run(*scenarioPath, *steps, *deltaT, *txProbability, *reportFormat); err != nil {
		fmt.Fprintf(os.Stderr, "acme-run: %s\n", err)
		os.Exit(1)
	}
}

func run(scenarioPath string, steps int, deltaT, txProbability float64, reportFormat string) error {
	f, err := os.Open(scenarioPath)
	if err != nil {
		return fmt.Errorf("opening scenario: %w", err)
	}
	defer f.Close()

	scenario, err := acme.LoadScenario(f)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}

	env, commsByID, _, err := scenario.Build()
	if err != nil {
		return fmt.Errorf("building environment: %w", err)
	}

	for t := 0; t < steps; t++ {
		for _, p := range commsByID {
			if rand.Float64() <= txProbability && len(p.DestIDs) > 0 {
				dest := p.DestIDs[rand.Intn(len(p.DestIDs))]
				p.TxData(rand.Float64(), []string{dest})
			}
			for {
				if _, ok := p.RxData(); !ok {
					break
				}
			}
		}
		env.Step(deltaT)
	}

	report := formatStatistics(env, scenario)
	fmt.Print(report)

	if reportFormat != "" {
		if err := writeReportFile(reportFormat, report); err != nil {
			return fmt.Errorf("writing run report: %w", err)
		}
	}
	return nil
}

func formatStatistics(env *acme.Environment, scenario *acme.Scenario) string {
	var out strings.Builder
	stats := env.TrafficStatistics()
	fmt.Fprintf(&out, "delivery ratio after %d comms platforms:\n", len(scenario.CommsPlatforms))
	for s, row := range stats {
		srcID := scenario.CommsPlatforms[s].ID
		for d, ratio := range row {
			if s == d {
				continue
			}
			dstID := scenario.CommsPlatforms[d].ID
			fmt.Fprintf(&out, "  %s -> %s: %.2f\n", srcID, dstID, ratio)
		}
	}
	return out.String()
}

// writeReportFile names the run report using a strftime pattern, the same
// way log and audio filenames are named elsewhere in this stack.
func writeReportFile(pattern, contents string) error {
	name, err := strftime.Format(pattern, time.Now())
	if err != nil {
		return fmt.Errorf("formatting report filename: %w", err)
	}
	return os.WriteFile(name, []byte(contents), 0o644)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Run an RF communications simulation scenario.\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n\tacme-run --scenario scenario.yaml [--steps 20] [--delta-t 0.25]\n")
}
