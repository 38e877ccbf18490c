package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/simp-lee/newsdesk/internal/app"
	"github.com/simp-lee/newsdesk/internal/config"
	"github.com/simp-lee/newsdesk/internal/export"
)

func newExportCmd(e *env) *cobra.Command {
	var collection, format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a collection as csv, xlsx or pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return e.open(cmd.Context(), false, func(_ *config.Config, svc *app.Services) error {
				load, err := exporter(svc, collection)
				if err != nil {
					return err
				}
				table, err := load(cmd.Context())
				if err != nil {
					return fmt.Errorf("load %s: %w", collection, err)
				}
				if out == "" {
					out = f.Filename(collection, time.Now())
				}
				if out == "-" {
					return export.Write(cmd.OutOrStdout(), f, table)
				}
				return writeFile(out, func(w io.Writer) error { return export.Write(w, f, table) })
			})
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "users, admins or news")
	cmd.Flags().StringVar(&format, "format", "csv", "csv, xlsx or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout (default <collection>-<date>.<ext>)`)
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func exporter(svc *app.Services, collection string) (func(context.Context) (export.Table, error), error) {
	switch collection {
	case "users":
		return svc.Users.Export, nil
	case "admins":
		return svc.Admins.Export, nil
	case "news":
		return svc.News.Export, nil
	default:
		return nil, fmt.Errorf("unknown collection %q: must be users, admins or news", collection)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
