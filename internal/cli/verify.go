package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irrlab/phigold/internal/fixture"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Manifest string
	Dir      string
}

// VerifyEntryResult is one fixture's verification outcome on the wire.
type VerifyEntryResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// VerifyReport is the verification report on the wire.
type VerifyReport struct {
	Suite    string              `json:"suite"`
	Passed   bool                `json:"passed"`
	Failures int                 `json:"failures"`
	Results  []VerifyEntryResult `json:"results"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a fixture suite against its manifest",
		Long: `Verify every fixture in a manifest against the files on disk.

Each fixture runs the full chain: digest comparison, wire format schema
validation, decode, and a byte-for-byte re-encode check. The command
fails if any fixture deviates from its canonical form.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "path to the suite manifest (required)")
	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "directory holding the fixture files")
	_ = cmd.MarkFlagRequired("manifest")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, err := fixture.LoadManifest(opts.Manifest)
	if err != nil {
		_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}
	formatter.VerboseLog("Verifying suite %s (%d fixtures) in %s", m.Suite, len(m.Fixtures), opts.Dir)

	report, err := fixture.Verify(opts.Dir, m, documentOptions()...)
	if err != nil {
		_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
		return WrapExitError(ExitCommandError, "verification could not run", err)
	}

	wire := VerifyReport{
		Suite:    report.Suite,
		Passed:   report.Passed(),
		Failures: report.Failures,
		Results:  make([]VerifyEntryResult, 0, len(report.Results)),
	}
	for _, res := range report.Results {
		wire.Results = append(wire.Results, VerifyEntryResult{
			Name:   res.Name,
			Status: string(res.Status),
			Detail: res.Detail,
		})
	}

	if wire.Passed {
		return outputVerifySuccess(formatter, wire)
	}
	return outputVerifyFailure(formatter, wire)
}

func outputVerifySuccess(formatter *OutputFormatter, report VerifyReport) error {
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	fmt.Fprintf(formatter.Writer, "✓ suite %s: %d fixture(s) verified\n", report.Suite, len(report.Results))
	return nil
}

func outputVerifyFailure(formatter *OutputFormatter, report VerifyReport) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   report,
			Error: &CLIError{
				Code:    ErrCodeGeneric,
				Message: fmt.Sprintf("%d of %d fixture(s) failed verification", report.Failures, len(report.Results)),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("verification failed for %d of %d fixture(s)", report.Failures, len(report.Results)))
	}

	// Text format
	fmt.Fprintf(formatter.Writer, "✗ suite %s: verification failed\n\n", report.Suite)
	for _, res := range report.Results {
		if res.Status == string(fixture.StatusOK) {
			fmt.Fprintf(formatter.Writer, "  ✓ %s\n", res.Name)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  ✗ %s (%s)\n    %s\n", res.Name, res.Status, res.Detail)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("verification failed for %d of %d fixture(s)", report.Failures, len(report.Results)))
}
