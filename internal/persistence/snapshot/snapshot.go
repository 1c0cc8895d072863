package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/park/tool"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	ParkID  string `json:"park_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is the persisted park state. Tool sessions and previews are not
// saved; every ghost element is dropped on export.
type SnapshotV1 struct {
	Header Header `json:"header"`

	TickRate      int    `json:"tick_rate_hz"`
	MapSize       int    `json:"map_size"`
	CatalogDigest string `json:"catalog_digest"`

	Cash    int64 `json:"cash"`
	NoMoney bool  `json:"no_money,omitempty"`

	WeatherIndex int    `json:"weather_index"`
	WeatherLeft  uint64 `json:"weather_left"`
	SweepCursor  int    `json:"sweep_cursor"`

	Selection  tool.Selection      `json:"selection"`
	Restricted []objects.Selection `json:"restricted,omitempty"`

	Tiles []tile.TileState `json:"tiles"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is repeated inside the gob payload.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("snapshot version %d not supported", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader reads only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("snapshot header: %w", err)
	}
	return h, nil
}

// Latest returns the newest snapshot in dir by tick, or "" if there is none.
func Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.snap.zst"))
	if err != nil {
		return "", err
	}
	best, bestTick := "", uint64(0)
	for _, p := range matches {
		h, err := ReadHeader(p)
		if err != nil {
			continue
		}
		if best == "" || h.Tick > bestTick {
			best, bestTick = p, h.Tick
		}
	}
	return best, nil
}

// FileName is the snapshot file name for a tick.
func FileName(tick uint64) string { return fmt.Sprintf("%012d.snap.zst", tick) }
