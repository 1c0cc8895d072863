package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"parkcraft.io/internal/protocol"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("2")).Padding(0, 1)
)

// Money formats a cost or balance. Nil is an unknown amount.
func Money(v *int64) string {
	if v == nil {
		return "-"
	}
	if *v < 0 {
		return "-$" + humanize.Comma(-*v)
	}
	return "$" + humanize.Comma(*v)
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + value
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// Panel renders the tool state and the last acknowledgement, if any.
func Panel(st protocol.StateMsg, last *protocol.AckMsg) string {
	t := st.Tool
	lines := []string{
		titleStyle.Render("Footpaths") + labelStyle.Render(fmt.Sprintf("  tick %d  %s", st.Tick, strings.ToLower(st.Weather))),
		row("mode", t.Mode),
		row("position", fmt.Sprintf("%d,%d,%d", t.From.X, t.From.Y, t.From.Z)),
		row("direction", fmt.Sprintf("%d", t.Direction)),
		row("slope", t.Slope),
		row("rotation", fmt.Sprintf("%d", t.Rotation)),
		row("cost", Money(t.Cost)),
	}
	if st.Cash != nil {
		lines = append(lines, row("cash", Money(st.Cash)))
	}
	sel := t.Selection
	lines = append(lines, row("surface", fmt.Sprintf("%d (queue %d, %s)", sel.NormalSurface, sel.QueueSurface, map[bool]string{true: "queue", false: "path"}[sel.QueueSelected])))
	lines = append(lines, row("railings", fmt.Sprintf("%d", sel.Railings)))
	b := t.Buttons
	lines = append(lines, row("buttons", fmt.Sprintf("build %s  remove %s  slope %s", onOff(b.ConstructEnabled), onOff(b.RemoveEnabled), onOff(b.SlopeEnabled))))
	if st.Scenery.Flags != 0 {
		g := st.Scenery
		lines = append(lines, row("ghost", fmt.Sprintf("%s %s at %d,%d,%d for %s", g.Object.Type, g.Object.ID, g.Pos[0], g.Pos[1], g.Pos[2], Money(g.Cost))))
	}
	if t.LastError != "" {
		lines = append(lines, errStyle.Render("tool: "+t.LastError))
	}
	if last != nil {
		lines = append(lines, AckLine(*last))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// AckLine is a one-line summary of an acknowledgement.
func AckLine(a protocol.AckMsg) string {
	if a.Accepted {
		return okStyle.Render(fmt.Sprintf("%s ok", a.AckFor))
	}
	msg := a.Code
	if a.Message != "" {
		msg += ": " + a.Message
	}
	return errStyle.Render(fmt.Sprintf("%s %s", a.AckFor, msg))
}
