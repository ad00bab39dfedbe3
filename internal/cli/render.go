package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nnviz/pkg/graph"
	"github.com/matzehuels/nnviz/pkg/pipeline"
	"github.com/matzehuels/nnviz/pkg/presets"
)

// stdinArg selects standard input as the description.
const stdinArg = "-"

// renderOpts holds the command-line flags of the render command that are
// not config overrides.
type renderOpts struct {
	output  string // output file, base path for several formats, or "-"
	formats string // comma-separated formats
	preset  string // render a preset instead of a file
	noCache bool
	watch   bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var ro renderOpts
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a network description",
		Long: `Render a network description to one or more formats.

Formats: svg (interactive, default), json (positioned layout), dot and dotsvg
(Graphviz), png and pdf (need rsvg-convert), ascii (terminal table).

Without --output, files are written next to the input; a single format read
from stdin or a preset goes to stdout. With --watch the file is re-rendered on
every save and a malformed description keeps the previous output.`,
		Example: `  nnviz render model.json
  nnviz render model.json -f svg,png -o out/model
  nnviz render --preset vit -f ascii
  cat model.json | nnviz render - -f json --diagnostics`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := pipeline.ParseFormats(ro.formats)
			if err != nil {
				return err
			}
			opts.Formats = formats

			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			if (input == "") == (ro.preset == "") {
				return fmt.Errorf("give either a file (or - for stdin) or --preset")
			}
			if ro.watch && (input == "" || input == stdinArg) {
				return fmt.Errorf("--watch needs a file")
			}

			runner, err := c.newRunner(cmd.Context(), ro.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts.Source = input
			c.applyConfig(&opts)

			if ro.watch {
				return c.watchRender(cmd.Context(), runner, input, ro, opts)
			}
			_, err = c.runRender(cmd.Context(), runner, input, ro, opts, cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file, base path for several formats, or - for stdout")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s), comma-separated: "+strings.Join(pipeline.Formats, ", "))
	cmd.Flags().StringVar(&ro.preset, "preset", "", "render a preset instead of a file")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&ro.watch, "watch", "w", false, "re-render when the file changes")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().BoolVar(&opts.Static, "static", false, "SVG without hover and pulse script")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "notes in Graphviz labels")
	cmd.Flags().BoolVar(&opts.Diagnostics, "diagnostics", false, "include graph checks in JSON output")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	addCanvasFlags(cmd)
	_ = cmd.RegisterFlagCompletionFunc("preset", c.presetNames)

	return cmd
}

// runRender renders one description and writes its artifacts.
func (c *CLI) runRender(ctx context.Context, runner *pipeline.Runner, input string, ro renderOpts, opts pipeline.Options, stdout io.Writer) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)

	name, text, err := c.readSource(input, ro.preset)
	if err != nil {
		return nil, err
	}
	opts.Source = name
	logger.Debugf("Rendering %s", name)

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Rendering "+name+"...")
	spinner.Start()

	res, err := runner.Execute(ctx, text, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	spinner.Stop()

	paths := outputPaths(input, ro.preset, ro.output, opts.Formats)
	for _, format := range opts.Formats {
		if err := writeArtifact(paths[format], res.Artifacts[format], stdout); err != nil {
			return nil, err
		}
	}
	prog.done("Rendered " + name)

	printSuccess("Rendered %s", name)
	for _, format := range opts.Formats {
		if p := paths[format]; p != "" {
			printFile(p)
		}
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.LayerCount, res.CacheInfo.RenderHit)
	printDiagnostics(res.Diagnostics)
	return res, nil
}

// readSource returns the display name and text of a file, stdin or preset.
func (c *CLI) readSource(input, preset string) (string, []byte, error) {
	switch {
	case preset != "":
		cat, err := c.catalog()
		if err != nil {
			return "", nil, err
		}
		text, err := cat.Text(preset)
		if err != nil {
			return "", nil, err
		}
		return preset, []byte(text), nil
	case input == stdinArg:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, fmt.Errorf("read stdin: %w", err)
		}
		return "stdin", data, nil
	default:
		data, err := os.ReadFile(input)
		if err != nil {
			return "", nil, fmt.Errorf("read %s: %w", input, err)
		}
		return input, data, nil
	}
}

// outputPaths maps each format to its destination; "" means stdout.
//
//   - an explicit output names the file for one format and the base path for
//     several; "-" selects stdout for a single format
//   - otherwise files go next to the input (or into the working directory,
//     named after the preset), except a single format from stdin or a preset,
//     which goes to stdout
func outputPaths(input, preset, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	single := len(formats) == 1

	var base string
	switch {
	case output == stdinArg && single:
		paths[formats[0]] = ""
		return paths
	case output != "" && output != stdinArg:
		if single {
			paths[formats[0]] = output
			return paths
		}
		base = trimFormatExt(output)
	case input != "" && input != stdinArg:
		base = strings.TrimSuffix(input, filepath.Ext(input))
	case single:
		paths[formats[0]] = ""
		return paths
	case preset != "":
		base = preset
	default:
		base = appName
	}

	for _, f := range formats {
		paths[f] = base + "." + fileExt(f)
	}
	return paths
}

// fileExt returns the file extension of format.
func fileExt(format string) string {
	switch format {
	case pipeline.FormatDOTSVG:
		return "dot.svg"
	case pipeline.FormatASCII:
		return "txt"
	default:
		return format
	}
}

// trimFormatExt strips a known format extension from path.
func trimFormatExt(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if pipeline.ValidateFormat(ext) == nil || ext == "txt" {
		return strings.TrimSuffix(path, "."+ext)
	}
	return path
}

func writeArtifact(path string, data []byte, stdout io.Writer) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// isParseError reports whether err is a malformed description.
func isParseError(err error) bool {
	var pe *graph.ParseError
	return stderrors.As(err, &pe)
}

// presetNames lists catalog keys for shell completion.
func (c *CLI) presetNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cat, err := c.catalog()
	if err != nil {
		return presets.Keys(), cobra.ShellCompDirectiveNoFileComp
	}
	return cat.Keys(), cobra.ShellCompDirectiveNoFileComp
}
