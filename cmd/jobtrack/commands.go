package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/hazyhaar/jobtrack/domain"
	"github.com/hazyhaar/jobtrack/tracker"
)

var errNotConfirmed = errors.New("refusing without --yes")

func list(ctx context.Context, trk *tracker.Tracker, f tracker.Filter) error {
	apps, err := trk.List(ctx, f)
	if err != nil {
		return err
	}
	return printApplications(os.Stdout, apps)
}

func printApplications(w io.Writer, apps []domain.Application) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCOMPANY\tPOSITION\tSTATUS\tSOURCE")
	for _, a := range apps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.Date, a.Company, a.Position, a.Status, a.Source)
	}
	return tw.Flush()
}

func export(ctx context.Context, trk *tracker.Tracker, args []string) error {
	name := tracker.ExportFilename(time.Now())
	if len(args) > 0 {
		name = args[0]
	}
	if name == "-" {
		return trk.Export(ctx, os.Stdout)
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := trk.Export(ctx, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "exported to", name)
	return nil
}

func importArchive(ctx context.Context, trk *tracker.Tracker, args []string, yes bool) error {
	if len(args) != 1 {
		return errors.New("import: expected one file argument")
	}
	if !yes {
		return fmt.Errorf("import replaces every application: %w", errNotConfirmed)
	}
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	n, err := trk.Import(ctx, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "imported %d applications\n", n)
	return nil
}

func clearAll(ctx context.Context, trk *tracker.Tracker, yes bool) error {
	if !yes {
		return fmt.Errorf("clear deletes every application: %w", errNotConfirmed)
	}
	return trk.Clear(ctx)
}

func settings(ctx context.Context, trk *tracker.Tracker, args []string) error {
	if len(args) > 0 {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		set, err := trk.Settings(ctx)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(jsonc.ToJSON(raw), &set); err != nil {
			return fmt.Errorf("settings: decode: %w", err)
		}
		if _, err := trk.SaveSettings(ctx, set); err != nil {
			return err
		}
	}
	set, err := trk.Settings(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(set)
}

func followUps(ctx context.Context, trk *tracker.Tracker) error {
	apps, err := trk.FollowUps(ctx, time.Now())
	if err != nil {
		return err
	}
	return printApplications(os.Stdout, apps)
}

func hashToken(args []string) error {
	if len(args) != 1 {
		return errors.New("hash-token: expected one token argument")
	}
	h, err := tracker.HashToken(args[0])
	if err != nil {
		return err
	}
	fmt.Println(h)
	return nil
}
