package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/protocol"
)

// Driver runs console commands against an in-process park, one tick per
// command. The park must not be running its own loop.
type Driver struct {
	park    *sim.Park
	parser  *Parser
	session string
	out     chan []byte

	state protocol.StateMsg
	last  *protocol.AckMsg
}

func NewDriver(p *sim.Park, name string) (*Driver, error) {
	d := &Driver{park: p, out: make(chan []byte, 64)}
	d.parser = NewParser(func(xy tile.XY) tile.ScreenXY {
		return p.ScreenFor(xy, d.state.Tool.Rotation)
	})
	req := sim.JoinRequest{Name: name, Out: d.out, Resp: make(chan sim.JoinResponse, 1)}
	p.StepOnce([]sim.JoinRequest{req}, nil, nil)
	resp := <-req.Resp
	if resp.Code != "" {
		return nil, fmt.Errorf("join: %s", resp.Code)
	}
	d.session = resp.Welcome.SessionID
	d.drain()
	return d, nil
}

func (d *Driver) SessionID() string         { return d.session }
func (d *Driver) State() protocol.StateMsg  { return d.state }
func (d *Driver) LastAck() *protocol.AckMsg { return d.last }
func (d *Driver) Close()                    { d.park.StepOnce(nil, []string{d.session}, nil) }

// Exec runs one line. quit reports that the user asked to leave.
func (d *Driver) Exec(line string) (output string, quit bool, err error) {
	cmd, err := d.parser.Parse(line)
	if errors.Is(err, ErrEmpty) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	switch cmd.Kind {
	case KindLocal:
		switch cmd.Name {
		case "quit":
			return "", true, nil
		case "help":
			return strings.Join(Help(), "\n"), false, nil
		case "wait":
			for i := 0; i < cmd.Ticks; i++ {
				d.step(nil)
			}
		}
		return Panel(d.state, d.last), false, nil
	case KindTool:
		d.step(&sim.Envelope{SessionID: d.session, Tool: cmd.Tool})
	case KindScenery:
		d.step(&sim.Envelope{SessionID: d.session, Scenery: cmd.Scenery})
	}
	return Panel(d.state, d.last), false, nil
}

func (d *Driver) step(env *sim.Envelope) {
	var events []sim.Envelope
	if env != nil {
		events = append(events, *env)
		d.last = nil
	}
	d.park.StepOnce(nil, nil, events)
	d.drain()
}

func (d *Driver) drain() {
	for {
		select {
		case b := <-d.out:
			base, err := protocol.DecodeBase(b)
			if err != nil {
				continue
			}
			switch base.Type {
			case protocol.TypeState:
				var st protocol.StateMsg
				if json.Unmarshal(b, &st) == nil {
					d.state = st
				}
			case protocol.TypeAck:
				var a protocol.AckMsg
				if json.Unmarshal(b, &a) == nil {
					d.last = &a
				}
			}
		default:
			return
		}
	}
}
