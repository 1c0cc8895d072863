package main

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"parkcraft.io/internal/legacy/rct1"
)

func TestLookup(t *testing.T) {
	var warn bytes.Buffer
	rct1.SetLogger(log.New(&warn, "", 0))
	t.Cleanup(func() { rct1.SetLogger(nil) })

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"colour", []string{"27"}, rct1.DarkPink.String()},
		{"COLOUR", []string{"0x1f"}, rct1.IcyBlue.String()},
		{"terrain", []string{"8"}, "rct2.surface.ice"},
		{"edge", []string{"99"}, rct1.DefaultTerrainEdge},
		{"ride", []string{"51", "71"}, "-> hyper_twister"},
		{"ride", []string{"51"}, "-> twister_roller_coaster"},
		{"ride", []string{"84", "0"}, "vehicles no"},
		{"scheme", []string{"6"}, "body=copy_1 trim=copy_1 tertiary=copy_2"},
		{"theme", []string{"5"}, "jumping_fountains"},
		{"path", []string{"0"}, "queue"},
		{"path", []string{"10"}, "(none) footpath"},
		{"addition", []string{"10"}, "repaired from 10"},
		{"scenery", []string{"small", "0"}, "TL0"},
		{"scenery", []string{"group", "1"}, "SCGMINE"},
	}
	for _, tc := range cases {
		got, err := lookup(tc.name, tc.args)
		if err != nil {
			t.Fatalf("%s %v: %v", tc.name, tc.args, err)
		}
		if !strings.Contains(got, tc.want) {
			t.Fatalf("%s %v=%q want it to contain %q", tc.name, tc.args, got, tc.want)
		}
	}
	if !strings.Contains(warn.String(), "terrain edge: 99") {
		t.Fatalf("missing warning: %q", warn.String())
	}
}

func TestLookupErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"colr", []string{"1"}, `did you mean "colour"`},
		{"xyzzy", nil, `unknown lookup "xyzzy"`},
		{"colour", []string{"256"}, "bad value"},
		{"colour", nil, "usage"},
		{"scenery", []string{"tree", "1"}, "unknown scenery kind"},
	}
	for _, tc := range cases {
		_, err := lookup(tc.name, tc.args)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s %v: err=%v want %q", tc.name, tc.args, err, tc.want)
		}
	}
}
