// Package time holds the clock seam and the zone published stamps use
package time

import (
	"sync"
	"time"
)

// DefaultZone is the zone published timestamps are rendered in
const DefaultZone = "Europe/Moscow"

var (
	zoneMu    sync.Mutex
	zoneCache = map[string]*time.Location{}
)

// Zone loads a named location. When the tz database is missing from the host it
// falls back to a fixed UTC+3 zone for DefaultZone and to UTC for anything else
func Zone(name string) *time.Location {
	if name == "" {
		name = DefaultZone
	}
	zoneMu.Lock()
	defer zoneMu.Unlock()
	if loc, ok := zoneCache[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name == DefaultZone {
			loc = time.FixedZone("MSK", 3*60*60)
		} else {
			loc = time.UTC
		}
	}
	zoneCache[name] = loc
	return loc
}

// In returns t converted to the named zone
func In(t time.Time, zone string) time.Time {
	return t.In(Zone(zone))
}

// Clock returns the current time. Tests swap it
var Clock = time.Now
