// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gpc-harvester/internal/catalog"
	"github.com/pdiddy/gpc-harvester/pkg/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloaded guidelines from the catalog",
	RunE:  runList,
}

func init() {
	listCmd.Flags().String("output-dir", "", "directory holding the PDFs and catalog")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	dir := stringSetting(cmd, "output-dir", "download.output_dir", defaultOutputDir)

	store, err := catalog.NewStore(types.CatalogConfig{Dir: dir})
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background())
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No guidelines downloaded yet.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-14s  %-44s  %-10s  %s\n", "Guide ID", "File", "Size", "Downloaded")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, e := range entries {
		name := e.LocalName
		if len(name) > 44 {
			name = name[:41] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-14s  %-44s  %-10d  %s\n",
			e.GuideID, name, e.SizeBytes, e.DownloadedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(os.Stdout, "\n%d guideline(s) in %s\n", len(entries), dir)
	return nil
}
