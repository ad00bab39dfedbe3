package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nnviz/pkg/graph"
)

// prettyCommand creates the pretty command.
func (c *CLI) prettyCommand() *cobra.Command {
	var write, check bool

	cmd := &cobra.Command{
		Use:   "pretty [file|-]",
		Short: "Re-indent a network description",
		Long: `Re-indent a network description with two spaces.

Keys outside the description format are kept. A malformed description is
reported with its line and column and the file is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if write && input == stdinArg {
				return fmt.Errorf("--write needs a file")
			}
			name, text, err := c.readSource(input, "")
			if err != nil {
				return err
			}
			out, err := graph.Pretty(text)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			out = append(out, '\n')

			switch {
			case check:
				if !bytes.Equal(out, text) {
					return fmt.Errorf("%s is not pretty-printed", name)
				}
				printSuccess("%s is pretty-printed", name)
			case write:
				info, err := os.Stat(input)
				if err != nil {
					return err
				}
				if err := os.WriteFile(input, out, info.Mode().Perm()); err != nil {
					return fmt.Errorf("write %s: %w", input, err)
				}
				printSuccess("Formatted %s", name)
			default:
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the file in place")
	cmd.Flags().BoolVar(&check, "check", false, "fail when the file is not pretty-printed")

	return cmd
}
