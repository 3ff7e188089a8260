package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"safechain/internal/catalog"
	"safechain/internal/controller"
)

// ruleRow is one entry of the external rules corpus (§6): a tab-
// separated file whose columns 5/6/8/9 (1-indexed) carry the trigger
// channel, trigger name, action channel, and action name; every other
// column is ignored, matching applet datasets that also carry free-text
// titles/descriptions/ids this system has no use for.
type ruleRow struct {
	TriggerChannel string
	TriggerName    string
	ActionChannel  string
	ActionName     string
}

// loadRulesTSV reads the rules corpus, skipping short or malformed
// rows rather than failing the whole load — a large scraped dataset
// routinely carries a handful of incomplete rows, and §7 reserves
// fatal errors for catalogue/composition problems, not corpus noise.
func loadRulesTSV(path string) ([]ruleRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rules: open %s: %w", path, err)
	}
	defer f.Close()

	var rows []ruleRow
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		cols := strings.Split(scanner.Text(), "\t")
		if len(cols) < 9 {
			continue
		}
		rows = append(rows, ruleRow{
			TriggerChannel: strings.TrimSpace(cols[4]),
			TriggerName:    strings.TrimSpace(cols[5]),
			ActionChannel:  strings.TrimSpace(cols[7]),
			ActionName:     strings.TrimSpace(cols[8]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("rules: scan %s: %w", path, err)
	}
	return rows, nil
}

// bindRules instantiates every corpus row against the scenario's
// concrete device instances and adds it to c. A row whose channel has
// more than one device instance is bound once per matching device
// pair, named "r<i>-<trigDevice>-<actDevice>"; a row referencing a
// channel absent from the scenario is skipped (it names a device type
// this check run doesn't instantiate, not a composition error — only a
// rule actually bound against a present device is a composition
// error candidate).
func bindRules(c *controller.Controller, catalogs map[string]*catalog.Catalog, devicesByChannel map[string][]string, rows []ruleRow) error {
	for i, row := range rows {
		trigCat, ok := catalogs[row.TriggerChannel]
		if !ok {
			continue
		}
		actCat, ok := catalogs[row.ActionChannel]
		if !ok {
			continue
		}
		trig, ok := trigCat.Triggers[row.TriggerName]
		if !ok {
			continue
		}
		act, ok := actCat.Actions[row.ActionName]
		if !ok {
			continue
		}

		trigDevices := devicesByChannel[row.TriggerChannel]
		actDevices := devicesByChannel[row.ActionChannel]
		for _, td := range trigDevices {
			for _, ad := range actDevices {
				name := fmt.Sprintf("r%d-%s-%s", i, td, ad)
				if err := c.AddRule(name, row.TriggerChannel, trig, []string{td}, row.ActionChannel, act, []string{ad}); err != nil {
					return fmt.Errorf("rules: row %d (%s.%s -> %s.%s): %w", i, row.TriggerChannel, row.TriggerName, row.ActionChannel, row.ActionName, err)
				}
			}
		}
	}
	return nil
}
