package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/irrlab/phigold/internal/fixture"
)

// CatalogListOptions holds flags for the catalog list command.
type CatalogListOptions struct {
	*RootOptions
	Database string
}

// CatalogRow is one catalog record on the wire.
type CatalogRow struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Digest        string `json:"digest"`
	FormatVersion string `json:"format_version"`
	SizeBytes     int64  `json:"size_bytes"`
	Seq           int64  `json:"seq"`
}

// CatalogListResult holds the rows for JSON output.
type CatalogListResult struct {
	Database string       `json:"database"`
	Count    int          `json:"count"`
	Fixtures []CatalogRow `json:"fixtures"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect a fixture catalog",
	}

	cmd.AddCommand(newCatalogListCommand(rootOpts))

	return cmd
}

// newCatalogListCommand creates the catalog list subcommand.
func newCatalogListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog records in sequence order",
		Long: `List every fixture recorded in a catalog database.

Rows come back in deterministic order: by sequence number, ties broken
by run ID.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the catalog database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runCatalogList(opts *CatalogListOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening a catalog creates one; a list command must not conjure an
	// empty database out of a typo.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "catalog not found", err)
	}

	catalog, err := fixture.OpenCatalog(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open catalog", err)
	}
	defer catalog.Close()

	records, err := catalog.ListFixtures(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list catalog", err)
	}

	result := CatalogListResult{
		Database: opts.Database,
		Count:    len(records),
		Fixtures: make([]CatalogRow, 0, len(records)),
	}
	for _, rec := range records {
		result.Fixtures = append(result.Fixtures, CatalogRow{
			ID:            rec.ID,
			Name:          rec.Name,
			Digest:        rec.Digest,
			FormatVersion: rec.FormatVersion,
			SizeBytes:     rec.SizeBytes,
			Seq:           rec.Seq,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Text format
	w := formatter.Writer
	fmt.Fprintf(w, "Catalog: %s\n", opts.Database)
	if len(records) == 0 {
		fmt.Fprintln(w, "  (no fixtures recorded)")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(w, "  [%d] %s  %s  v%s  %d bytes  run %s\n",
			rec.Seq, rec.Name, truncateDigest(rec.Digest), rec.FormatVersion, rec.SizeBytes, rec.ID)
	}
	fmt.Fprintf(w, "%d fixture(s)\n", len(records))
	return nil
}

// truncateDigest shortens a digest for text listings.
func truncateDigest(digest string) string {
	if len(digest) <= 16 {
		return digest
	}
	return digest[:8] + "..." + digest[len(digest)-8:]
}
