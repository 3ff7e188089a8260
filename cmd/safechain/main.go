package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"

	"safechain/internal/cache"
	"safechain/internal/catalog"
	"safechain/internal/checker"
	"safechain/internal/config"
	"safechain/internal/controller"
	"safechain/internal/device"
)

func main() {
	var (
		configPath      = flag.String("config", "", "YAML check configuration (grouping/pruning/timeout/bmc); defaults applied if omitted")
		catalogDir      = flag.String("catalogs", "", "directory of <channel>.json catalogue files")
		devicesPath     = flag.String("devices", "", "YAML device manifest")
		rulesPath       = flag.String("rules", "", "tab-separated rules corpus")
		policyPath      = flag.String("policy", "", "YAML policy specification")
		cachePath       = flag.String("cache", "", "optional BoltDB path for memoizing check results")
		checkerPath     = flag.String("checker", "", "override the checker binary path (defaults to config's checkerPath)")
		verbose         = flag.Bool("v", false, "debug logging")
		explainPruning  = flag.Bool("explain-pruning", false, "after a pruning pass, list the rules that kept a variable reachable")
		assertReachable = flag.Bool("assert-reachable", false, "sanity-check the counter-example's first state for reachability before trusting it")
	)
	flag.Parse()

	if *catalogDir == "" || *devicesPath == "" || *rulesPath == "" || *policyPath == "" {
		fmt.Fprintln(os.Stderr, "usage: safechain -catalogs DIR -devices FILE -rules FILE -policy FILE [-config FILE] [-cache FILE] [-checker PATH] [-explain-pruning] [-assert-reachable]")
		os.Exit(2)
	}

	if err := run(*configPath, *catalogDir, *devicesPath, *rulesPath, *policyPath, *cachePath, *checkerPath, *verbose, *explainPruning, *assertReachable); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func run(configPath, catalogDir, devicesPath, rulesPath, policyPath, cachePath, checkerPathOverride string, verbose, explainPruning, assertReachable bool) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}
	if checkerPathOverride != "" {
		cfg.CheckerPath = checkerPathOverride
	}

	logLevel := hclog.Info
	if verbose {
		logLevel = hclog.Debug
	}
	log := hclog.New(&hclog.LoggerOptions{Name: "safechain", Level: logLevel})

	sc, err := loadScenario(devicesPath)
	if err != nil {
		return err
	}

	catalogs, err := loadCatalogues(catalogDir, sc.channels())
	if err != nil {
		return err
	}

	devices := map[string]*device.Device{}
	for _, d := range sc.Devices {
		devices[d.Name] = device.New(d.Name, catalogs[d.Channel])
	}

	ctrl := controller.New(devices, cfg)

	rows, err := loadRulesTSV(rulesPath)
	if err != nil {
		return err
	}
	if err := bindRules(ctrl, catalogs, sc.devicesByChannel(), rows); err != nil {
		return err
	}

	spec, err := loadPolicySpec(policyPath)
	if err != nil {
		return err
	}
	p, vulnerable, err := spec.build()
	if err != nil {
		return err
	}
	for _, v := range vulnerable {
		if err := ctrl.AddVulnerable(v.Device, v.Variable); err != nil {
			return err
		}
	}

	var store *cache.Store
	if cachePath != "" {
		store, err = cache.Open(cachePath, nil)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	driver := checker.New(cfg.CheckerPath, log.Named("checker"))

	ctx := context.Background()
	result, err := ctrl.Check(ctx, p, driver, store)
	if err != nil {
		return err
	}

	printVerdict(result)
	if len(result.Trace) > 0 {
		fmt.Println(renderTrace(result.Trace))
	}

	if explainPruning {
		printPruningExplanation(ctrl)
	}

	if assertReachable && len(result.Trace) > 0 {
		first := controller.Probe(result.Trace[0].State)
		reachable, err := ctrl.Reachable(ctx, driver, first, cfg.Timeout)
		if err != nil {
			return fmt.Errorf("assert-reachable: %w", err)
		}
		if reachable {
			color.Green("assert-reachable: counter-example's first state is reachable")
		} else {
			color.Red("assert-reachable: counter-example's first state is NOT reachable — suspect a bug in model emission")
		}
	}

	if result.Verdict != checker.Success {
		os.Exit(1)
	}
	return nil
}

func printPruningExplanation(ctrl *controller.Controller) {
	rules := ctrl.SurvivingRules()
	if rules == nil {
		fmt.Println("explain-pruning: pruning was not enabled for this check")
		return
	}
	if len(rules) == 0 {
		fmt.Println("explain-pruning: no rule survived pruning")
		return
	}
	fmt.Println("explain-pruning: rules kept reachable by pruning:")
	for _, r := range rules {
		fmt.Printf("  - %s\n", r)
	}
}

func loadCatalogues(dir string, channels []string) (map[string]*catalog.Catalog, error) {
	out := make(map[string]*catalog.Catalog, len(channels))
	for _, channel := range channels {
		path := filepath.Join(dir, channel+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalogue %s: %w", channel, err)
		}
		cat, err := catalog.Parse(channel, data)
		if err != nil {
			return nil, err
		}
		out[channel] = cat
	}
	return out, nil
}
