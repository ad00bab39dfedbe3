package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nnviz/pkg/animate"
	"github.com/matzehuels/nnviz/pkg/pipeline"
	"github.com/matzehuels/nnviz/pkg/render/diagram"
)

var stylePulse = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)

// animateCommand creates the animate command.
func (c *CLI) animateCommand() *cobra.Command {
	var (
		preset   string
		schedule bool
		repeat   int
	)

	cmd := &cobra.Command{
		Use:   "animate [file|-]",
		Short: "Play the forward pulse in the terminal",
		Long: `Play the forward pulse: connectors light up one after another in
emission order, each for the configured duration, staggered by the configured
delay. With --schedule the timing table is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			if (input == "") == (preset == "") {
				return fmt.Errorf("give either a file (or - for stdin) or --preset")
			}
			name, text, err := c.readSource(input, preset)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts := c.pipelineOptions(name)
			opts.Formats = []string{pipeline.FormatASCII}
			res, err := runner.Execute(cmd.Context(), text, opts)
			if err != nil {
				return fmt.Errorf("animate %s: %w", name, err)
			}

			out := cmd.OutOrStdout()
			if schedule {
				fmt.Fprintln(out, scheduleTable(res.Scene, c.Config.Pulse))
				return nil
			}
			if len(res.Scene.Connectors) == 0 {
				printInfo("%s has no connectors to animate", name)
				return nil
			}
			for i := 0; i < max(repeat, 1); i++ {
				if err := playPulse(cmd.Context(), res.Scene, c.Config.Pulse, out); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "animate a preset instead of a file")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "print the timing table instead of playing")
	cmd.Flags().IntVar(&repeat, "repeat", 1, "number of pulses to play")
	addCanvasFlags(cmd)
	_ = cmd.RegisterFlagCompletionFunc("preset", c.presetNames)

	return cmd
}

// playPulse plays one pulse over sc and waits for it to finish. Interrupting
// cancels the run.
func playPulse(ctx context.Context, sc *diagram.Scene, t animate.Timing, w io.Writer) error {
	sink := newLineSink(sc, w)
	ctrl := animate.NewController(t)
	done := ctrl.Start(ctx, len(sc.Connectors), sink)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		ctrl.Cancel()
		return ctx.Err()
	}
}

// lineSink prints one line per highlight change.
type lineSink struct {
	mu    sync.Mutex
	w     io.Writer
	sc    *diagram.Scene
	start time.Time
}

func newLineSink(sc *diagram.Scene, w io.Writer) *lineSink {
	return &lineSink{w: w, sc: sc, start: time.Now()}
}

func (s *lineSink) On(i int)  { s.print(i, stylePulse.Render("●")) }
func (s *lineSink) Off(i int) { s.print(i, StyleDim.Render("○")) }

func (s *lineSink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, StyleDim.Render("  (cancelled)"))
}

func (s *lineSink) print(i int, mark string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.sc.Connectors[i]
	elapsed := time.Since(s.start).Round(10 * time.Millisecond)
	fmt.Fprintf(s.w, "%8s  %s %s %s %s\n", elapsed, mark, c.From, iconArrow, c.To)
}

// scheduleTable renders the highlight window of every connector.
func scheduleTable(sc *diagram.Scene, t animate.Timing) string {
	rows := make([][]string, 0, len(sc.Connectors))
	for _, st := range animate.Schedule(len(sc.Connectors), t) {
		c := sc.Connectors[st.Index]
		rows = append(rows, []string{
			strconv.Itoa(st.Index),
			c.From + " " + iconArrow + " " + c.To,
			st.On.String(),
			st.Off.String(),
		})
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Connector", "On", "Off").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return tbl.Render() + "\n" + StyleDim.Render(fmt.Sprintf("total %s", t.Total(len(sc.Connectors))))
}
