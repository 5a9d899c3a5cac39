package main

import (
	"errors"
	"fmt"
	"io"

	"recbooth/internal/config"
	"recbooth/internal/preflight"
)

// renderCheck prints the preflight results. It returns an error, and thereby
// exit status 1, only when the script catalog check fails.
func renderCheck(out io.Writer, cfg *config.Config) error {
	results, ok := preflight.Run(cfg)

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := "FAIL"
		if result.Passed {
			status = "OK"
		}
		rows = append(rows, []string{result.Name, status, result.Detail})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Check", "Status", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	))

	if !ok {
		return errors.New("environment not ready; fix the script catalog and run --check again")
	}
	fmt.Fprintln(out, "Environment looks good. Ready to record samples.")
	return nil
}
