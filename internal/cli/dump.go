package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fmea/internal/docstore"
	"github.com/roach88/fmea/internal/model"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Counts bool
}

// CountsResult lists record counts per collection.
type CountsResult map[string]int

// WriteText implements TextWriter.
func (c CountsResult) WriteText(w io.Writer) error {
	for _, name := range model.Collections {
		if _, err := fmt.Fprintf(w, "%-26s %d\n", name, c[name]); err != nil {
			return err
		}
	}
	return nil
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the whole document",
		Long: `Print the document in the JSON file format, whatever the backend. The output
of a SQLite store can be saved as fmea-data.json to move back to the file backend.

With --counts only the number of records per collection is printed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Counts, "counts", false, "print record counts only")

	return cmd
}

func runDump(opts *DumpOptions, cmd *cobra.Command) error {
	e, err := opts.openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	doc, err := e.db.Document(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read store", err).WithCode(ErrCodeStore)
	}
	if opts.Counts {
		return opts.formatter(cmd).Success(CountsResult(doc.Counts()))
	}

	data, err := docstore.Encode(doc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode document", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
