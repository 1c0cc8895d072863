package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"

	"parkcraft.io/internal/console"
	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/protocol"
)

// bot connects to a park server and either runs console commands from a
// script (one per line, "-" for stdin) or wanders laying paths.
func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "client name")
		script = flag.String("script", "", "console script to run instead of wandering (\"-\" for stdin)")
		every  = flag.Int("every", 20, "wander: act every N states")
		seed   = flag.Int64("seed", 1, "wander: random seed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Capabilities:    protocol.HelloCapabilities{AckRequired: true},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	var welcome protocol.WelcomeMsg
	if err := readWelcome(conn, &welcome); err != nil {
		logger.Fatalf("handshake: %v", err)
	}
	logger.Printf("WELCOME session_id=%s tick_rate=%d map=%d", welcome.SessionID, welcome.ParkParams.TickRateHz, welcome.ParkParams.MapSize)

	b := &bot{
		conn:     conn,
		logger:   logger,
		mapSize:  welcome.ParkParams.MapSize,
		picker:   tile.Picker{Map: tile.NewMap(welcome.ParkParams.MapSize, welcome.ParkParams.BaseHeight)},
		rng:      rand.New(rand.NewSource(*seed)),
		every:    *every,
		incoming: make(chan []byte, 64),
	}
	b.parser = console.NewParser(func(xy tile.XY) tile.ScreenXY {
		b.picker.Rotation = b.state.Tool.Rotation
		return b.picker.WorldToScreen(xy)
	})

	go func() {
		defer close(b.incoming)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			b.incoming <- msg
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	if *script != "" {
		var in io.Reader = os.Stdin
		if *script != "-" {
			f, err := os.Open(*script)
			if err != nil {
				logger.Fatalf("open script: %v", err)
			}
			defer f.Close()
			in = f
		}
		b.runScript(in, stop)
		return
	}
	b.wander(stop)
}

type bot struct {
	conn     *websocket.Conn
	logger   *log.Logger
	parser   *console.Parser
	picker   tile.Picker
	mapSize  int
	rng      *rand.Rand
	every    int
	incoming chan []byte

	state  protocol.StateMsg
	states int
}

func readWelcome(conn *websocket.Conn, w *protocol.WelcomeMsg) error {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return err
	}
	if base.Type != protocol.TypeWelcome {
		return fmt.Errorf("expected WELCOME, got %s", base.Type)
	}
	return json.Unmarshal(msg, w)
}

// handle applies one server message and returns the ack it carried, if any.
func (b *bot) handle(msg []byte) *protocol.AckMsg {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return nil
	}
	switch base.Type {
	case protocol.TypeState:
		if json.Unmarshal(msg, &b.state) == nil {
			b.states++
		}
	case protocol.TypeAck:
		var a protocol.AckMsg
		if json.Unmarshal(msg, &a) == nil {
			return &a
		}
	case protocol.TypeAuditBatch:
		var batch protocol.AuditBatchMsg
		if json.Unmarshal(msg, &batch) == nil {
			for _, r := range batch.Records {
				b.logger.Printf("audit #%d tick=%d %s at %v cost=%s", r.ID, r.Tick, r.Action, r.Pos, console.Money(&r.Cost))
			}
		}
	}
	return nil
}

func (b *bot) send(cmd console.Command) string {
	var v any
	var id string
	switch {
	case cmd.Tool != nil:
		v, id = cmd.Tool, cmd.Tool.ID
	case cmd.Scenery != nil:
		v, id = cmd.Scenery, cmd.Scenery.ID
	default:
		return ""
	}
	if err := b.conn.WriteJSON(v); err != nil {
		b.logger.Printf("send: %v", err)
		return ""
	}
	return id
}

func (b *bot) runScript(in io.Reader, stop <-chan os.Signal) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := b.parser.Parse(line)
		if err != nil {
			b.logger.Printf("%v", err)
			continue
		}
		if cmd.Kind == console.KindLocal {
			switch cmd.Name {
			case "quit":
				return
			case "help":
				fmt.Println(strings.Join(console.Help(), "\n"))
			default:
				fmt.Println(console.Panel(b.state, nil))
			}
			continue
		}
		id := b.send(cmd)
		if id == "" || !b.waitAck(id, stop) {
			return
		}
	}
}

// waitAck prints the panel once id is acked so it reflects the command. It
// returns false when the connection closed or the user interrupted.
func (b *bot) waitAck(id string, stop <-chan os.Signal) bool {
	for {
		select {
		case <-stop:
			return false
		case msg, ok := <-b.incoming:
			if !ok {
				return false
			}
			if a := b.handle(msg); a != nil && a.AckFor == id {
				fmt.Println(console.Panel(b.state, a))
				return true
			}
		}
	}
}

func (b *bot) wander(stop <-chan os.Signal) {
	for {
		select {
		case <-stop:
			return
		case msg, ok := <-b.incoming:
			if !ok {
				return
			}
			if a := b.handle(msg); a != nil && !a.Accepted {
				b.logger.Printf("%s rejected: %s %s", a.AckFor, a.Code, a.Message)
			}
			if b.every > 0 && b.states > 0 && b.states%b.every == 0 {
				b.states++
				b.step()
			}
		}
	}
}

// step lays one path tile somewhere random, or extends the current run.
func (b *bot) step() {
	var line string
	if b.state.Tool.Mode == "BRIDGE" && b.rng.Intn(3) > 0 {
		line = "build"
	} else {
		x, y := b.rng.Intn(b.mapSize), b.rng.Intn(b.mapSize)
		for _, l := range []string{fmt.Sprintf("move %d %d", x, y), fmt.Sprintf("down %d %d", x, y)} {
			if cmd, err := b.parser.Parse(l); err == nil {
				b.send(cmd)
			}
		}
		line = "up"
	}
	if cmd, err := b.parser.Parse(line); err == nil {
		b.send(cmd)
	}
}
