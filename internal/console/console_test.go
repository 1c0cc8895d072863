package console

import (
	"errors"
	"strings"
	"testing"

	"parkcraft.io/internal/park/climate"
	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/park/tuning"
	"parkcraft.io/internal/protocol"
)

func identityScreen(xy tile.XY) tile.ScreenXY {
	return tile.ScreenXY{X: xy.X * 100, Y: xy.Y * 100}
}

func TestParseToolCommands(t *testing.T) {
	p := NewParser(identityScreen)
	cases := []struct {
		line  string
		check func(*protocol.ToolMsg) bool
	}{
		{"open", func(m *protocol.ToolMsg) bool { return m.Op == protocol.OpOpen }},
		{"DOWN 3 4", func(m *protocol.ToolMsg) bool { return m.Op == protocol.OpPointerDown && m.Screen == [2]int{300, 400} }},
		{"construct", func(m *protocol.ToolMsg) bool { return m.Op == protocol.OpConstruct }},
		{"dir 2", func(m *protocol.ToolMsg) bool { return m.Direction == 2 }},
		{"slope up", func(m *protocol.ToolMsg) bool { return m.Slope == "UP" }},
		{"surface 6 queue", func(m *protocol.ToolMsg) bool { return m.Entry == 6 && m.Queue }},
		{"railings 1", func(m *protocol.ToolMsg) bool { return m.Op == protocol.OpSelectRailings && m.Entry == 1 }},
		{"rotate 3", func(m *protocol.ToolMsg) bool { return m.Rotation == 3 }},
	}
	for i, tc := range cases {
		cmd, err := p.Parse(tc.line)
		if err != nil {
			t.Fatalf("%q: %v", tc.line, err)
		}
		if cmd.Kind != KindTool || cmd.Tool == nil || !tc.check(cmd.Tool) {
			t.Fatalf("%q: cmd=%+v tool=%+v", tc.line, cmd, cmd.Tool)
		}
		if want := "c" + string(rune('1'+i)); cmd.Tool.ID != want {
			t.Fatalf("%q: id=%s want %s", tc.line, cmd.Tool.ID, want)
		}
	}
}

func TestParseSceneryAndLocal(t *testing.T) {
	p := NewParser(identityScreen)
	cmd, err := p.Parse("ghost small rct2.scenery_small.tic 2 3 16 1 2")
	if err != nil {
		t.Fatalf("ghost: %v", err)
	}
	m := cmd.Scenery
	if cmd.Kind != KindScenery || m.Op != protocol.OpGhost || m.Object.Type != "SMALL" || m.Object.ID != "rct2.scenery_small.tic" {
		t.Fatalf("ghost=%+v", m)
	}
	if m.Pos != [3]int{2, 3, 16} || m.Quadrant != 1 || m.Rotation != 2 {
		t.Fatalf("ghost position=%+v", m)
	}
	cmd, err = p.Parse("wait 5")
	if err != nil || cmd.Kind != KindLocal || cmd.Ticks != 5 {
		t.Fatalf("wait=%+v err=%v", cmd, err)
	}
	cmd, err = p.Parse("q")
	if err != nil || cmd.Name != "quit" {
		t.Fatalf("alias=%+v err=%v", cmd, err)
	}
}

func TestParseErrors(t *testing.T) {
	p := NewParser(identityScreen)
	if _, err := p.Parse("   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty err=%v", err)
	}
	for _, line := range []string{"down 3", "dir 7", "slope sideways", "surface x", "ghost small a 1 2", "place small a 1 2 3 9", "wait 0"} {
		if _, err := p.Parse(line); err == nil {
			t.Fatalf("%q: expected error", line)
		}
	}

	_, err := p.Parse("biuld")
	var unk *UnknownCommandError
	if !errors.As(err, &unk) || unk.Suggestion != "build" {
		t.Fatalf("suggestion err=%v", err)
	}
	_, err = p.Parse("xyzzyplugh")
	if !errors.As(err, &unk) || unk.Suggestion != "" {
		t.Fatalf("far input err=%v", err)
	}
}

func TestMoney(t *testing.T) {
	v := func(n int64) *int64 { return &n }
	cases := []struct {
		in   *int64
		want string
	}{
		{nil, "-"},
		{v(0), "$0"},
		{v(1200), "$1,200"},
		{v(-45000), "-$45,000"},
	}
	for _, tc := range cases {
		if got := Money(tc.in); got != tc.want {
			t.Fatalf("Money=%q want %q", got, tc.want)
		}
	}
}

func newDriver(t *testing.T) *Driver {
	t.Helper()
	cat, err := objects.Load("../../configs")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	tune := tuning.Defaults()
	tune.MapSize = 16
	tune.Climate = []climate.Spell{{Weather: climate.Sunny, Ticks: 100}}
	p, err := sim.New(sim.Config{ID: "console_test", Tuning: tune}, cat)
	if err != nil {
		t.Fatalf("new park: %v", err)
	}
	d, err := NewDriver(p, "tester")
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	return d
}

func TestDriverBuildsPath(t *testing.T) {
	d := newDriver(t)
	if d.State().Tool.Mode != "LAND" {
		t.Fatalf("tool not open: %+v", d.State().Tool)
	}
	for _, line := range []string{"move 3 3", "down 3 3", "up"} {
		if _, _, err := d.Exec(line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	st := d.State()
	if st.Cash == nil || *st.Cash != 10000-120 {
		t.Fatalf("cash=%v", st.Cash)
	}
	out, quit, err := d.Exec("status")
	if err != nil || quit {
		t.Fatalf("status quit=%v err=%v", quit, err)
	}
	if !strings.Contains(out, "$9,880") || !strings.Contains(out, "LAND") {
		t.Fatalf("panel:\n%s", out)
	}
	if _, quit, _ := d.Exec("exit"); !quit {
		t.Fatalf("exit should quit")
	}
}

func TestDriverReportsRejections(t *testing.T) {
	d := newDriver(t)
	if _, _, err := d.Exec("close"); err != nil {
		t.Fatalf("close: %v", err)
	}
	out, _, err := d.Exec("build")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	a := d.LastAck()
	if a == nil || a.Accepted || a.Code != protocol.ErrToolClosed {
		t.Fatalf("ack=%+v", a)
	}
	if !strings.Contains(out, protocol.ErrToolClosed) {
		t.Fatalf("panel missing error:\n%s", out)
	}
}

func TestDriverSceneryGhost(t *testing.T) {
	d := newDriver(t)
	if _, _, err := d.Exec("ghost small rct2.scenery_small.tic 2 2 16"); err != nil {
		t.Fatalf("ghost: %v", err)
	}
	if d.State().Scenery.Flags == 0 {
		t.Fatalf("no ghost in state: %+v", d.State().Scenery)
	}
	out, _, err := d.Exec("place small rct2.scenery_small.tic 2 2 16")
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if a := d.LastAck(); a == nil || !a.Accepted {
		t.Fatalf("place ack=%+v\n%s", a, out)
	}
	d.Close()
}
