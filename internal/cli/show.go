package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irrlab/phigold/internal/codec"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Indent bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print a document in canonical form",
		Long: `Load a document and print its canonical encoding.

The file is decoded and re-encoded, so what prints is the canonical
form, not the raw file bytes. Use --indent for a readable layout;
indented output is for eyes only and is not canonical.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Indent, "indent", false, "indent output for readability")

	return cmd
}

func runShow(opts *ShowOptions, file string, cmd *cobra.Command) error {
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

	if opts.Indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return WrapExitError(ExitFailure, "failed to indent document", err)
		}
		data = buf.Bytes()
	}

	if formatter.Format == "json" {
		return formatter.Success(json.RawMessage(data))
	}

	fmt.Fprintf(formatter.Writer, "%s\n", data)
	return nil
}
