package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nnviz/pkg/presets"
)

// presetsCommand creates the presets command.
func (c *CLI) presetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List, show and import architecture presets",
	}

	cmd.AddCommand(c.presetsListCommand())
	cmd.AddCommand(c.presetsShowCommand())
	cmd.AddCommand(c.presetsImportCommand())

	return cmd
}

func (c *CLI) presetsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), presetTable(cat, c.Config.Preset))
			return nil
		},
	}
}

// presetTable renders one row per preset; the selected key is marked.
func presetTable(cat *presets.Catalog, selected string) string {
	builtin := presets.Builtin()
	entries := cat.Entries()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		mark := " "
		if e.Key == selected {
			mark = "▸"
		}
		origin := "builtin"
		if _, err := builtin.Lookup(e.Key); err != nil {
			origin = "imported"
		}
		rows = append(rows, []string{
			mark,
			e.Key,
			e.Graph.DisplayName(),
			strconv.Itoa(e.Graph.NodeCount()),
			strconv.Itoa(e.Graph.EdgeCount()),
			origin,
			e.Summary,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Key", "Name", "Nodes", "Edges", "Origin", "Summary").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return styleHeader.Padding(0, 1)
			case rows[row][1] == selected:
				return base.Foreground(colorCyan).Bold(true)
			case col >= 3:
				return base.Foreground(colorGray)
			}
			return base
		}).
		Render()
}

// presetsShowCommand prints the description of a preset, which is the
// editor text the page resets to.
func (c *CLI) presetsShowCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "show [key]",
		Short:             "Print the description of a preset",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.presetNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := c.Config.Preset
			if len(args) == 1 {
				key = args[0]
			}
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			text, err := cat.Text(key)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}
			if err := os.WriteFile(output, []byte(text+"\n"), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Wrote preset %s", key)
			printFile(output)
			printNextStep("Render", appName+" render "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}

// presetsImportCommand validates a TOML catalog and installs it as the
// user catalog, merged over the built-in presets.
func (c *CLI) presetsImportCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import [catalog.toml]",
		Short: "Import presets from a TOML catalog",
		Long: `Import presets from a TOML catalog with the layout of the built-in one:

  [[preset]]
  key = "resnet"
  name = "ResNet block"
  edges = [["x", "conv"], ["conv", "add"], ["x", "add"]]

    [[preset.nodes]]
    id = "x"
    type = "Input"

Imported presets are available to every command; a key equal to a built-in
preset replaces it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := presets.LoadFile(args[0])
			if err != nil {
				return err
			}
			dest, err := c.userPresetsPath()
			if err != nil {
				return fmt.Errorf("locate user config: %w", err)
			}
			if _, err := os.Stat(dest); err == nil && !force {
				return fmt.Errorf("%s exists; use --force to replace it", dest)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}

			builtin := presets.Builtin()
			printSuccess("Imported %d presets", user.Len())
			for _, key := range user.Keys() {
				if _, err := builtin.Lookup(key); err == nil {
					printDetail("%s replaces the built-in preset", key)
				} else {
					printDetail("%s", key)
				}
			}
			printFile(dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace previously imported presets")

	return cmd
}
