package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/pipeline"
	"github.com/matzehuels/annoview/pkg/watch"
)

// widthStep is how far +/- change the canvas width.
const widthStep = 100

func (c *CLI) inspectCommand() *cobra.Command {
	var width float64

	cmd := &cobra.Command{
		Use:   "inspect [document]",
		Short: "Browse a document's layout in the terminal",
		Long: `Inspect shows rows, span boxes and arcs of a layout and follows edits
to the file. Press + and - to change the canvas width, q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], width)
		},
	}

	cmd.Flags().Float64Var(&width, "width", 0, "canvas width in pixels (default from config)")
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, path string, width float64) error {
	w, err := watch.New(path, watch.WithDebounce(c.cfg.Watch.Debounce))
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var prog *tea.Program
	ctrl, d := c.newController(width,
		func(l *layout.Layout) { prog.Send(layoutMsg{l}) },
		pipeline.WithErrorHandler(func(err error) { prog.Send(faultMsg{err}) }),
	)
	if width <= 0 {
		width = c.cfg.Layout.CanvasWidth
	}
	resize := func(w float64) {
		_ = d.Dispatch(ctx, pipeline.Message{Kind: pipeline.MsgResize, Width: w})
	}
	prog = tea.NewProgram(newInspectModel(path, width, resize), tea.WithAltScreen(), tea.WithContext(ctx))

	load := func() {
		doc, err := pipeline.ParseFile(path)
		if err != nil {
			prog.Send(faultMsg{err})
			return
		}
		_ = d.Dispatch(ctx, pipeline.Message{Kind: pipeline.MsgSetDocument, Doc: doc})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctrl.Run(gctx) })
	g.Go(func() error {
		load()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-w.Changes():
				load()
			}
		}
	})

	_, runErr := prog.Run()
	cancel()
	_ = g.Wait()
	if runErr != nil && !stderrors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}

type layoutMsg struct{ l *layout.Layout }

type faultMsg struct{ err error }

var (
	inspectHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	inspectFaultStyle  = lipgloss.NewStyle().Foreground(colorRed).Padding(0, 1)
	inspectHelpStyle   = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
)

// inspectModel is the bubbletea model of the inspect view.
type inspectModel struct {
	name   string
	width  float64
	resize func(float64)

	vp     viewport.Model
	ready  bool
	layout *layout.Layout
	fault  error
}

func newInspectModel(name string, width float64, resize func(float64)) inspectModel {
	return inspectModel{name: name, width: width, resize: resize}
}

func (m inspectModel) Init() tea.Cmd { return nil }

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "+", "=":
			m.width += widthStep
			m.resize(m.width)
			return m, nil
		case "-":
			if m.width > widthStep {
				m.width -= widthStep
				m.resize(m.width)
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		h := max(msg.Height-4, 3)
		if !m.ready {
			m.vp = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.vp.Width, m.vp.Height = msg.Width, h
		}
		m.vp.SetContent(m.content())
		return m, nil
	case layoutMsg:
		m.layout, m.fault = msg.l, nil
		m.width = msg.l.Width
		m.vp.SetContent(m.content())
		return m, nil
	case faultMsg:
		m.fault = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m inspectModel) View() string {
	var b strings.Builder
	title := fmt.Sprintf("%s · %.0fpx", m.name, m.width)
	b.WriteString(inspectHeaderStyle.Render(title))
	b.WriteString("\n")
	if m.layout != nil {
		b.WriteString(statsLine(m.layout.Stats, false))
	}
	b.WriteString("\n")
	if m.ready {
		b.WriteString(m.vp.View())
	}
	b.WriteString("\n")
	if m.fault != nil {
		b.WriteString(inspectFaultStyle.Render(iconError + " " + faultText(m.fault)))
	} else {
		b.WriteString(inspectHelpStyle.Render("↑/↓ scroll  +/- width  q quit"))
	}
	return b.String()
}

func (m inspectModel) content() string {
	if m.layout == nil {
		return StyleDim.Render("waiting for layout…")
	}
	return describeLayout(m.layout)
}

func faultText(err error) string {
	if id := errors.OffendingID(err); id != "" {
		return fmt.Sprintf("%s (offending id %s)", errors.UserMessage(err), id)
	}
	return errors.UserMessage(err)
}

// describeLayout renders rows with their span boxes, then the arcs.
func describeLayout(l *layout.Layout) string {
	byChunk := make(map[int][]layout.SpanBox)
	for _, sb := range l.Spans {
		byChunk[sb.Chunk] = append(byChunk[sb.Chunk], sb)
	}

	var b strings.Builder
	for _, r := range l.Rows {
		if r.FirstOfSentence {
			fmt.Fprintf(&b, "%s\n", StyleTitle.Render(fmt.Sprintf("sentence %d", r.Sentence)))
		}
		for _, idx := range r.Chunks {
			ch := l.Chunks[idx]
			fmt.Fprintf(&b, "  %s %s\n", StyleValue.Render(ch.Text), StyleDim.Render(fmt.Sprintf("x=%.0f", ch.X)))
			for _, sb := range byChunk[idx] {
				style := styleEntity
				if sb.Kind == "trigger" {
					style = styleTrigger
				}
				line := fmt.Sprintf("    %s %s", style.Render("["+sb.Label+"]"), StyleDim.Render(sb.ID))
				if len(sb.Modifiers) > 0 {
					line += " " + StyleWarning.Render(strings.Join(sb.Modifiers, ","))
				}
				b.WriteString(line + "\n")
			}
		}
	}

	if len(l.Arcs) > 0 {
		b.WriteString("\n" + StyleTitle.Render("arcs") + "\n")
		for _, a := range l.Arcs {
			fmt.Fprintf(&b, "  %s %s %s %s\n",
				StyleValue.Render(a.Origin),
				StyleDim.Render("─"+a.Type+iconArrow),
				StyleValue.Render(a.Target),
				StyleDim.Render(fmt.Sprintf("h=%.0f", a.Height)))
		}
	}
	return b.String()
}
