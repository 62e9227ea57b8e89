// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gpc-harvester/internal/catalog"
	"github.com/pdiddy/gpc-harvester/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the download catalog to YAML or JSON",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().String("output-dir", "", "directory holding the PDFs and catalog")
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	dir := stringSetting(cmd, "output-dir", "download.output_dir", defaultOutputDir)
	format, _ := cmd.Flags().GetString("format")

	store, err := catalog.NewStore(types.CatalogConfig{Dir: dir})
	if err != nil {
		return err
	}
	defer store.Close()

	var path string
	switch format {
	case "yaml":
		path, err = store.ExportYAML(context.Background())
	case "json":
		path, err = store.ExportJSON(context.Background())
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Println("Exported catalog to", path)
	return nil
}
