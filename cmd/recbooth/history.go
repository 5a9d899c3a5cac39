package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"recbooth/internal/config"
	"recbooth/internal/takelog"
)

// printHistory shows the most recent capture attempts from the take log,
// newest first.
func printHistory(out io.Writer, cfg *config.Config, limit int) error {
	store, err := takelog.Open(cfg.TakeLogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	takes, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(takes) == 0 {
		fmt.Fprintln(out, "No capture attempts recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(takes))
	for _, take := range takes {
		rows = append(rows, []string{
			take.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			take.ScriptID,
			take.Outcome,
			strconv.FormatFloat(take.DurationSeconds, 'f', 2, 64),
			take.Message,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Recorded", "Script", "Outcome", "Seconds", "Note"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
