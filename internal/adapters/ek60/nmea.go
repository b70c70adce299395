package ek60

import (
	"strconv"
	"strings"
)

// positionFix is one parsed GPS sentence. The sentence's own clock field is
// ignored; the enclosing datagram's FILETIME is used as the fix time, which
// keeps telemetry on the same clock as the samples.
type positionFix struct {
	Lat float64
	Lon float64
}

// attitudeFix is one parsed attitude sentence (PASHR and compatibles).
type attitudeFix struct {
	Pitch float64
	Roll  float64
	Heave float64
}

// parseNMEA classifies one sentence. Either return may be nil; both nil
// means the sentence type is not of interest or was malformed.
func parseNMEA(sentence string) (*positionFix, *attitudeFix) {
	sentence = strings.TrimSpace(sentence)
	if !strings.HasPrefix(sentence, "$") {
		return nil, nil
	}
	if i := strings.IndexByte(sentence, '*'); i >= 0 {
		sentence = sentence[:i]
	}
	fields := strings.Split(sentence[1:], ",")
	if len(fields) == 0 {
		return nil, nil
	}

	tag := fields[0]
	switch {
	case strings.HasSuffix(tag, "GGA"):
		return parseLatLonAt(fields, 2), nil
	case strings.HasSuffix(tag, "GLL"):
		return parseLatLonAt(fields, 1), nil
	case strings.HasSuffix(tag, "RMC"):
		return parseLatLonAt(fields, 3), nil
	case strings.HasSuffix(tag, "SHR"):
		return nil, parseAttitude(fields)
	}
	return nil, nil
}

// parseLatLonAt reads lat, N/S, lon, E/W starting at field index i.
func parseLatLonAt(fields []string, i int) *positionFix {
	if len(fields) < i+4 {
		return nil
	}
	lat, ok := parseCoord(fields[i], fields[i+1], 2)
	if !ok {
		return nil
	}
	lon, ok := parseCoord(fields[i+2], fields[i+3], 3)
	if !ok {
		return nil
	}
	return &positionFix{Lat: lat, Lon: lon}
}

// parseCoord converts ddmm.mmmm (degDigits=2) or dddmm.mmmm (degDigits=3)
// plus a hemisphere letter to signed decimal degrees.
func parseCoord(value, hemi string, degDigits int) (float64, bool) {
	if len(value) <= degDigits || hemi == "" {
		return 0, false
	}
	deg, err := strconv.ParseFloat(value[:degDigits], 64)
	if err != nil {
		return 0, false
	}
	min, err := strconv.ParseFloat(value[degDigits:], 64)
	if err != nil {
		return 0, false
	}
	out := deg + min/60
	switch hemi {
	case "S", "W":
		out = -out
	case "N", "E":
	default:
		return 0, false
	}
	return out, true
}

// parseAttitude reads a PASHR-style sentence:
// $PASHR,time,heading,T,roll,pitch,heave,...
func parseAttitude(fields []string) *attitudeFix {
	if len(fields) < 7 {
		return nil
	}
	roll, err1 := strconv.ParseFloat(fields[4], 64)
	pitch, err2 := strconv.ParseFloat(fields[5], 64)
	heave, err3 := strconv.ParseFloat(fields[6], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	return &attitudeFix{Pitch: pitch, Roll: roll, Heave: heave}
}
