package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/irrlab/phigold/internal/codec"
	"github.com/irrlab/phigold/internal/fixture"
	"github.com/irrlab/phigold/internal/phi"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Out      string
	Database string
}

// DemoFixture describes one written demo fixture.
type DemoFixture struct {
	Name   string `json:"name"`
	Digest string `json:"digest"`
	RunID  string `json:"run_id"`
	Seq    int64  `json:"seq,omitempty"`
}

// DemoResult holds the demo command's output.
type DemoResult struct {
	Dir      string        `json:"dir"`
	Manifest string        `json:"manifest"`
	Fixtures []DemoFixture `json:"fixtures"`
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write the built-in example fixtures",
		Long: `Write a small suite of example analysis documents.

The suite holds a reducible system analysis (zero phi, null cut), an
irreducible one (one concept, a real cut), and a transition probability
matrix, plus a manifest for later verification. With --db each write is
also recorded in a catalog.

Example:
  phigold demo --out ./fixtures
  phigold demo --out ./fixtures --db ./catalog.db --verbose`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "directory to write fixtures into (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "optional catalog database to record runs in")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runDemo(opts *DemoOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Structured logs go to stderr; the formatter owns stdout.
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	store, err := fixture.NewStore(opts.Out,
		fixture.WithStoreLogger(logger),
		fixture.WithStoreCodec(documentOptions()...))
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open fixture store", err)
	}

	runnerOpts := []fixture.RunnerOption{fixture.WithRunnerLogger(logger)}
	if opts.Database != "" {
		catalog, err := fixture.OpenCatalog(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open catalog", err)
		}
		defer catalog.Close()

		// Resume numbering over whatever the catalog already holds.
		maxSeq, err := catalog.MaxSeq(cmd.Context())
		if err != nil {
			_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read catalog", err)
		}
		runnerOpts = append(runnerOpts,
			fixture.WithCatalog(catalog),
			fixture.WithClock(fixture.NewClockAt(maxSeq)))
	}
	runner := fixture.NewRunner(store, runnerOpts...)

	demos := []struct {
		name    string
		produce fixture.Producer
	}{
		{"sia_reducible", func(context.Context) (any, error) { return demoReducible(), nil }},
		{"sia_irreducible", func(context.Context) (any, error) { return demoIrreducible(), nil }},
		{"tpm_and_or", func(context.Context) (any, error) { return demoTPM(), nil }},
	}

	result := DemoResult{Dir: opts.Out}
	for _, d := range demos {
		res, err := runner.Run(cmd.Context(), d.name, d.produce)
		if err != nil {
			_ = formatter.Error(errorCode(err), err.Error(), errorDetails(err))
			return WrapExitError(ExitFailure, "demo fixture failed", err)
		}
		result.Fixtures = append(result.Fixtures, DemoFixture{
			Name:   res.Entry.Name,
			Digest: res.Entry.Digest,
			RunID:  res.RunID,
			Seq:    res.Seq,
		})
	}

	entries, err := store.List()
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list fixtures", err)
	}
	manifestPath := filepath.Join(opts.Out, "manifest.yaml")
	m := fixture.ManifestFromEntries("phigold-demo", codec.FormatVersion, entries)
	if err := fixture.WriteManifest(m, manifestPath); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write manifest", err)
	}
	result.Manifest = manifestPath

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Text format
	fmt.Fprintf(formatter.Writer, "✓ wrote %d fixture(s) to %s\n", len(result.Fixtures), opts.Out)
	for _, f := range result.Fixtures {
		fmt.Fprintf(formatter.Writer, "  %s  %s\n", f.Name, truncateDigest(f.Digest))
	}
	fmt.Fprintf(formatter.Writer, "manifest: %s\n", manifestPath)
	return nil
}

// mustFloatArray builds a float64 array from static demo data.
func mustFloatArray(shape []int, data []float64) *codec.Array {
	a, err := codec.NewFloat64Array(shape, data)
	if err != nil {
		panic(err)
	}
	return a
}

// demoReducible is the zero-phi analysis of a reducible three-node
// system: empty structures under a null cut.
func demoReducible() *phi.SystemIrreducibilityAnalysis {
	return phi.NullSystemIrreducibilityAnalysis([]int{0, 1, 2})
}

// demoIrreducible is a small two-node analysis with one concept and a
// real cut. The numbers are illustrative, not computed.
func demoIrreducible() *phi.SystemIrreducibilityAnalysis {
	labels := []string{"A", "B"}
	cause := &phi.MaximallyIrreducibleCause{
		RIA: &phi.RepertoireIrreducibilityAnalysis{
			Phi:       0.25,
			Direction: phi.Cause,
			Mechanism: []int{0},
			Purview:   []int{0, 1},
			Partition: &phi.Bipartition{Parts: []*phi.Part{
				{Mechanism: []int{}, Purview: []int{0}},
				{Mechanism: []int{0}, Purview: []int{1}},
			}},
			Repertoire:            mustFloatArray([]int{2, 2}, []float64{0.25, 0.25, 0.25, 0.25}),
			PartitionedRepertoire: mustFloatArray([]int{2, 2}, []float64{0.5, 0, 0.25, 0.25}),
		},
	}
	effect := &phi.MaximallyIrreducibleEffect{
		RIA: &phi.RepertoireIrreducibilityAnalysis{
			Phi:       0.25,
			Direction: phi.Effect,
			Mechanism: []int{0},
			Purview:   []int{1},
			Partition: &phi.Bipartition{Parts: []*phi.Part{
				{Mechanism: []int{}, Purview: []int{1}},
				{Mechanism: []int{0}, Purview: []int{}},
			}},
			Repertoire:            mustFloatArray([]int{2}, []float64{0.75, 0.25}),
			PartitionedRepertoire: mustFloatArray([]int{2}, []float64{0.5, 0.5}),
		},
	}
	concept := &phi.Concept{
		Phi:        0.25,
		Mechanism:  []int{0},
		Cause:      cause,
		Effect:     effect,
		NodeLabels: labels,
	}
	return &phi.SystemIrreducibilityAnalysis{
		Phi:            0.1875,
		Ces:            &phi.CauseEffectStructure{Concepts: []*phi.Concept{concept}},
		PartitionedCes: &phi.CauseEffectStructure{},
		Subsystem:      "A,B",
		CutSubsystem:   "A,B",
		Cut:            &phi.Cut{FromNodes: []int{0}, ToNodes: []int{1}, NodeLabels: labels},
		NetworkState:   []int{1, 0},
		NodeIndices:    []int{0, 1},
	}
}

// demoTPM is the transition matrix of an AND-OR node pair in
// state-by-node form, states ordered little-endian.
func demoTPM() *phi.TPM {
	return &phi.TPM{
		Tpm: mustFloatArray([]int{4, 2}, []float64{
			0, 0,
			0, 1,
			0, 1,
			1, 1,
		}),
		NodeLabels: []string{"A", "B"},
	}
}
