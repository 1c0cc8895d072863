package console

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/protocol"
)

type Kind int

const (
	KindTool Kind = iota + 1
	KindScenery
	// KindLocal commands are handled by the console itself.
	KindLocal
)

type Command struct {
	Kind    Kind
	Name    string
	Tool    *protocol.ToolMsg
	Scenery *protocol.SceneryMsg
	// Ticks is the argument of "wait".
	Ticks int
}

var ErrEmpty = errors.New("empty command")

// UnknownCommandError carries the closest known command, if any is near.
type UnknownCommandError struct {
	Input      string
	Suggestion string
}

func (e *UnknownCommandError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown command %q, did you mean %q?", e.Input, e.Suggestion)
	}
	return fmt.Sprintf("unknown command %q", e.Input)
}

type argKind int

const (
	argNone argKind = iota
	argTile
	argInt
	argSlope
	argEntry
	argObject
	argTicks
)

type commandDef struct {
	name  string
	kind  Kind
	op    string
	args  argKind
	usage string
}

var commands = []commandDef{
	{"open", KindTool, protocol.OpOpen, argNone, "open the path tool"},
	{"close", KindTool, protocol.OpClose, argNone, "close the path tool"},
	{"land", KindTool, protocol.OpLandMode, argNone, "switch to land placement"},
	{"bridge", KindTool, protocol.OpBridgeMode, argNone, "switch to directional building"},
	{"move", KindTool, protocol.OpPointerMove, argTile, "move X Y: hover a tile"},
	{"down", KindTool, protocol.OpPointerDown, argTile, "down X Y: press on a tile"},
	{"drag", KindTool, protocol.OpPointerDrag, argTile, "drag X Y: drag to a tile"},
	{"up", KindTool, protocol.OpPointerUp, argNone, "release the pointer"},
	{"dir", KindTool, protocol.OpSelectDirection, argInt, "dir N: choose a screen direction 0-3"},
	{"slope", KindTool, protocol.OpSelectSlope, argSlope, "slope level|up|down"},
	{"build", KindTool, protocol.OpConstruct, argNone, "build the next piece"},
	{"remove", KindTool, protocol.OpRemove, argNone, "remove the piece behind"},
	{"left", KindTool, protocol.OpTurnLeft, argNone, "turn left"},
	{"right", KindTool, protocol.OpTurnRight, argNone, "turn right"},
	{"slopeup", KindTool, protocol.OpSlopeUp, argNone, "raise the slope"},
	{"slopedown", KindTool, protocol.OpSlopeDown, argNone, "lower the slope"},
	{"demolish", KindTool, protocol.OpDemolishCurrent, argNone, "demolish the current piece"},
	{"buildcurrent", KindTool, protocol.OpBuildCurrent, argNone, "build at the current position"},
	{"surface", KindTool, protocol.OpSelectSurface, argEntry, "surface N [queue]"},
	{"legacy", KindTool, protocol.OpSelectLegacyPath, argEntry, "legacy N [queue]"},
	{"railings", KindTool, protocol.OpSelectRailings, argInt, "railings N"},
	{"rotate", KindTool, protocol.OpRotateCamera, argInt, "rotate N: camera rotation 0-3"},
	{"ghost", KindScenery, protocol.OpGhost, argObject, "ghost TYPE ID X Y Z [QUADRANT] [ROTATION]"},
	{"clearghost", KindScenery, protocol.OpClearGhost, argNone, "remove the scenery preview"},
	{"place", KindScenery, protocol.OpPlace, argObject, "place TYPE ID X Y Z [QUADRANT] [ROTATION]"},
	{"wait", KindLocal, "", argTicks, "wait [N]: advance N ticks"},
	{"status", KindLocal, "", argNone, "show the tool panel"},
	{"help", KindLocal, "", argNone, "list commands"},
	{"quit", KindLocal, "", argNone, "leave"},
}

var aliases = map[string]string{
	"construct": "build",
	"exit":      "quit",
	"q":         "quit",
	"?":         "help",
	"step":      "wait",
}

func lookup(name string) (commandDef, bool) {
	if a, ok := aliases[name]; ok {
		name = a
	}
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return commandDef{}, false
}

// suggest returns the nearest command within a small edit distance.
func suggest(name string) string {
	best, bestDist := "", 3
	if len(name) <= 3 {
		bestDist = 2
	}
	for _, c := range commands {
		d := levenshtein.ComputeDistance(name, c.name)
		if d < bestDist {
			best, bestDist = c.name, d
		}
	}
	return best
}

// Help lists every command with its usage, sorted by name.
func Help() []string {
	out := make([]string, 0, len(commands))
	for _, c := range commands {
		out = append(out, fmt.Sprintf("%-13s %s", c.name, c.usage))
	}
	sort.Strings(out)
	return out
}

// Parser turns console lines into protocol messages. Screen converts a tile
// to the screen point the tool should receive.
type Parser struct {
	screen func(tile.XY) tile.ScreenXY
	seq    int
}

func NewParser(screen func(tile.XY) tile.ScreenXY) *Parser {
	return &Parser{screen: screen}
}

func (p *Parser) nextID() string {
	p.seq++
	return "c" + strconv.Itoa(p.seq)
}

func (p *Parser) Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmpty
	}
	name := strings.ToLower(fields[0])
	def, ok := lookup(name)
	if !ok {
		return Command{}, &UnknownCommandError{Input: name, Suggestion: suggest(name)}
	}
	args := fields[1:]
	cmd := Command{Kind: def.kind, Name: def.name}

	switch def.kind {
	case KindLocal:
		if def.args == argTicks {
			cmd.Ticks = 1
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 || n > 100000 {
					return Command{}, fmt.Errorf("%s: bad tick count %q", def.name, args[0])
				}
				cmd.Ticks = n
			}
		}
		return cmd, nil
	case KindScenery:
		m := &protocol.SceneryMsg{Type: protocol.TypeScenery, ProtocolVersion: protocol.Version, ID: p.nextID(), Op: def.op}
		if def.args == argObject {
			if err := parseObject(m, args); err != nil {
				return Command{}, fmt.Errorf("%s: %w (usage: %s)", def.name, err, def.usage)
			}
		}
		cmd.Scenery = m
		return cmd, nil
	}

	m := &protocol.ToolMsg{Type: protocol.TypeTool, ProtocolVersion: protocol.Version, ID: p.nextID(), Op: def.op}
	var err error
	switch def.args {
	case argTile:
		var xy tile.XY
		if xy.X, xy.Y, err = twoInts(args); err == nil {
			s := p.screen(xy)
			m.Screen = [2]int{s.X, s.Y}
		}
	case argInt:
		var n int
		if n, err = oneInt(args); err == nil {
			if def.op == protocol.OpSelectRailings {
				m.Entry = n
			} else if n < 0 || n > 3 {
				err = fmt.Errorf("%d out of range 0-3", n)
			} else if def.op == protocol.OpRotateCamera {
				m.Rotation = n
			} else {
				m.Direction = n
			}
		}
	case argSlope:
		if len(args) != 1 {
			err = errors.New("want one argument")
		} else {
			m.Slope = strings.ToUpper(args[0])
			if m.Slope != "LEVEL" && m.Slope != "UP" && m.Slope != "DOWN" {
				err = fmt.Errorf("unknown slope %q", args[0])
			}
		}
	case argEntry:
		if len(args) == 2 && strings.EqualFold(args[1], "queue") {
			m.Queue = true
			args = args[:1]
		}
		m.Entry, err = oneInt(args)
	}
	if err != nil {
		return Command{}, fmt.Errorf("%s: %w (usage: %s)", def.name, err, def.usage)
	}
	cmd.Tool = m
	return cmd, nil
}

func parseObject(m *protocol.SceneryMsg, args []string) error {
	if len(args) < 5 || len(args) > 7 {
		return errors.New("wrong number of arguments")
	}
	m.Object = protocol.ObjectRef{Type: strings.ToUpper(args[0]), ID: args[1]}
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(args[2+i])
		if err != nil {
			return fmt.Errorf("bad coordinate %q", args[2+i])
		}
		m.Pos[i] = v
	}
	rest := args[5:]
	for i, dst := range []*int{&m.Quadrant, &m.Rotation} {
		if i >= len(rest) {
			break
		}
		v, err := strconv.Atoi(rest[i])
		if err != nil || v < 0 || v > 3 {
			return fmt.Errorf("bad value %q", rest[i])
		}
		*dst = v
	}
	return nil
}

func oneInt(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("want one number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("bad number %q", args[0])
	}
	return n, nil
}

func twoInts(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("want X Y")
	}
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad number %q", args[0])
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad number %q", args[1])
	}
	return x, y, nil
}
