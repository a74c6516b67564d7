package calls

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TrunkRecorderCall builds a call from trunk-recorder metadata, which carries
// "talkgroup", "freq" in Hz, and "start_time" in Unix seconds.
func TrunkRecorderCall(audio []byte, audioName, audioType string, system int, meta map[string]any) (Call, error) {
	talkgroup, ok := metaInt(meta, "talkgroup")
	if !ok {
		return Call{}, fmt.Errorf("trunk-recorder metadata for %s has no talkgroup", audioName)
	}
	call := Call{
		Audio:      audio,
		AudioName:  audioName,
		AudioType:  audioType,
		System:     system,
		Talkgroup:  talkgroup,
		Meta:       meta,
		SourceType: SourceTrunkRecorder,
	}
	if freq, ok := metaInt(meta, "freq"); ok && freq != 0 {
		call.Frequency = &freq
	}
	if start, ok := metaInt(meta, "start_time"); ok && start > 0 {
		call.DateTime = time.Unix(int64(start), 0)
	}
	return call, nil
}

// SdrtrunkCall builds a call from sdrtrunk metadata. The talkgroup is read
// from "talkgroup" or "to" (which may carry an alias after the number),
// frequency from "frequency", and the start time from "time" as Unix
// milliseconds or an RFC 3339 timestamp.
func SdrtrunkCall(audio []byte, audioName, audioType string, system int, meta map[string]any) (Call, error) {
	talkgroup, ok := metaInt(meta, "talkgroup")
	if !ok {
		talkgroup, ok = metaInt(meta, "to")
	}
	if !ok {
		return Call{}, fmt.Errorf("sdrtrunk metadata for %s has no talkgroup", audioName)
	}
	call := Call{
		Audio:      audio,
		AudioName:  audioName,
		AudioType:  audioType,
		System:     system,
		Talkgroup:  talkgroup,
		Meta:       meta,
		SourceType: SourceSdrtrunk,
	}
	if freq, ok := metaInt(meta, "frequency"); ok && freq != 0 {
		call.Frequency = &freq
	}
	switch v := meta["time"].(type) {
	case float64:
		if v > 0 {
			call.DateTime = time.UnixMilli(int64(v))
		}
	case string:
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
			call.DateTime = ts
		}
	}
	return call, nil
}

// metaInt reads a JSON number or a string starting with digits.
func metaInt(meta map[string]any, key string) (int, bool) {
	switch v := meta[key].(type) {
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	case string:
		digits := strings.TrimSpace(v)
		end := 0
		for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
			end++
		}
		if end == 0 {
			return 0, false
		}
		n, err := strconv.Atoi(digits[:end])
		if err == nil {
			return n, true
		}
	}
	return 0, false
}
