package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// FileResult holds one file's validation outcome.
type FileResult struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Files []FileResult `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file...>",
		Short: "Validate documents without rewriting them",
		Long: `Validate versioned canonical JSON documents.

Each file runs the full chain: wire format schema validation, version
gate, and decode against the result object registry. Nothing is written.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true, Files: make([]FileResult, 0, len(files))}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)

		fr := FileResult{File: file, Valid: true}
		if _, err := LoadDocument(file); err != nil {
			fr.Valid = false
			fr.Code = errorCode(err)
			fr.Error = err.Error()
			result.Valid = false
		}
		result.Files = append(result.Files, fr)
	}

	if result.Valid {
		return outputValidateSuccess(formatter, result)
	}
	return outputValidateFailure(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d file(s) valid\n", len(result.Files))
	return nil
}

// outputValidateFailure outputs per-file validation failures.
func outputValidateFailure(formatter *OutputFormatter, result ValidationResult) error {
	failed := 0
	for _, fr := range result.Files {
		if !fr.Valid {
			failed++
		}
	}

	if formatter.Format == "json" {
		var first *FileResult
		for i := range result.Files {
			if !result.Files[i].Valid {
				first = &result.Files[i]
				break
			}
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Error,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d of %d file(s)", failed, len(result.Files)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, fr := range result.Files {
		if fr.Valid {
			fmt.Fprintf(formatter.Writer, "  ✓ %s\n", fr.File)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  ✗ %s\n    %s: %s\n", fr.File, fr.Code, fr.Error)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d of %d file(s)", failed, len(result.Files)))
}
