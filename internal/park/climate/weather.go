package climate

import (
	"fmt"
	"strings"
)

type Weather uint8

const (
	Sunny Weather = iota
	PartiallyCloudy
	Cloudy
	Rain
	HeavyRain
	Thunder
	Snow
	HeavySnow
	Blizzard
)

var names = [...]string{
	Sunny:           "SUNNY",
	PartiallyCloudy: "PARTIALLY_CLOUDY",
	Cloudy:          "CLOUDY",
	Rain:            "RAIN",
	HeavyRain:       "HEAVY_RAIN",
	Thunder:         "THUNDER",
	Snow:            "SNOW",
	HeavySnow:       "HEAVY_SNOW",
	Blizzard:        "BLIZZARD",
}

func (w Weather) String() string {
	if int(w) < len(names) {
		return names[w]
	}
	return fmt.Sprintf("WEATHER_%d", uint8(w))
}

// IsDry reports whether plants go unwatered. Only rain and thunder water them.
func (w Weather) IsDry() bool {
	switch w {
	case Rain, HeavyRain, Thunder:
		return false
	}
	return true
}

func ParseWeather(s string) (Weather, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Weather(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weather %q", s)
}

func (w Weather) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *Weather) UnmarshalText(b []byte) error {
	v, err := ParseWeather(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}
