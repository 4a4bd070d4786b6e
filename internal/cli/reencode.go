package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irrlab/phigold/internal/codec"
	"github.com/irrlab/phigold/internal/fixture"
)

// ReencodeOptions holds flags for the reencode command.
type ReencodeOptions struct {
	*RootOptions
	Output string
}

// ReencodeResult describes what a reencode wrote.
type ReencodeResult struct {
	File    string `json:"file"`
	Output  string `json:"output"`
	Bytes   int    `json:"bytes"`
	Digest  string `json:"digest"`
	Changed bool   `json:"changed"`
}

// NewReencodeCommand creates the reencode command.
func NewReencodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReencodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reencode <file>",
		Short: "Rewrite a document in canonical form",
		Long: `Load a document and write its canonical encoding back out.

Re-encoding an already-canonical file is byte-stable: the output equals
the input. Without --output the file is rewritten in place; the write
is atomic either way.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReencode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output path (defaults to rewriting the input)")

	return cmd
}

func runReencode(opts *ReencodeOptions, file string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	doc, err := LoadDocument(file)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), errorDetails(err))
		return WrapExitError(exitCodeFor(err), "failed to load document", err)
	}

	data, err := codec.Marshal(doc.Value, documentOptions()...)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), errorDetails(err))
		return WrapExitError(ExitFailure, "failed to encode document", err)
	}

	out := opts.Output
	if out == "" {
		out = file
	}
	formatter.VerboseLog("Writing %d bytes to %s", len(data), out)

	if err := codec.DumpFile(doc.Value, out, documentOptions()...); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write document", err)
	}

	result := ReencodeResult{
		File:    file,
		Output:  out,
		Bytes:   len(data),
		Digest:  fixture.Digest(data),
		Changed: !bytes.Equal(data, doc.Bytes),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	state := "unchanged"
	if result.Changed {
		state = "canonicalized"
	}
	fmt.Fprintf(formatter.Writer, "%s -> %s (%d bytes, %s)\n", file, out, result.Bytes, state)
	return nil
}
