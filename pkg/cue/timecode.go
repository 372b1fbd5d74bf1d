package cue

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Audio CD parameters: 44100 samples per second, 75 frames per second,
// so one frame covers 588 samples.
const (
	sampleRate      = 44100
	framesPerSecond = 75
	frameSamples    = sampleRate / framesPerSecond
)

// ErrTimecode reports an mm:ss:ff string that could not be parsed.
var ErrTimecode = errors.New("invalid timecode")

// ToFrames converts an "mm:ss:ff" timecode into an absolute sample count.
// The three fields are taken as-is and combined arithmetically; values are
// not range checked, so ff >= 75 simply rolls over into the next second.
func ToFrames(pos string) (int64, error) {
	parts := strings.Split(pos, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrTimecode, pos)
	}
	nums := make([]int64, 3)
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrTimecode, pos)
		}
		nums[i] = n
	}
	seconds := nums[0]*60 + nums[1]
	return seconds*sampleRate + nums[2]*frameSamples, nil
}
