package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Nixie-Tech-LLC/minbar/internal/hijri"
	"github.com/Nixie-Tech-LLC/minbar/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/minbar/internal/prayertime"
	"github.com/Nixie-Tech-LLC/minbar/internal/storage"
)

// TableCmd prints one day's table using the stored settings.
type TableCmd struct {
	Date string `help:"Day to compute (YYYY-MM-DD); today when empty"`
}

func (c *TableCmd) Run(env Environment) error {
	backend, err := InitStorage(env)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	settings, err := storage.LoadOrDefault(ctx, backend.store)
	if err != nil {
		return err
	}
	inputs, err := prayertime.InputsFromSettings(settings)
	if err != nil {
		return err
	}

	now := time.Now().In(inputs.Location)
	if c.Date != "" {
		day, err := time.ParseInLocation(time.DateOnly, c.Date, inputs.Location)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		// start of day, so the table is that day's rather than the rollover
		now = day
	}

	table, err := prayertime.Build(ctx, newCalculator(env, nil), inputs, now)
	if err != nil {
		return err
	}
	return printTable(os.Stdout, settings.Mosque.Name, table, now)
}

func printTable(w io.Writer, mosque string, table prayertime.Table, now time.Time) error {
	if !table.Available() {
		return errors.New("no schedule could be computed for these settings")
	}
	fmt.Fprintf(w, "%s  %s  (%s)\n\n", mosque, table.Date, hijri.FromGregorian(now))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, e := range table.Entries {
		marker := ""
		if i == table.NextIndex {
			marker = "<- next"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Time.Format("15:04"), marker)
	}
	return tw.Flush()
}

// HashPasswordCmd prints a bcrypt hash for the operator account.
type HashPasswordCmd struct {
	Password string `arg:"" help:"Plaintext password"`
}

func (c *HashPasswordCmd) Run() error {
	hash, err := middleware.HashPassword(c.Password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
