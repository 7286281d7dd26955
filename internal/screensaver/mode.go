package screensaver

import "fmt"

// Mode is the screensaver selection strategy stored in the mode key.
type Mode int

// Modes in the order of the stored enumeration.
const (
	ModeBlankOnly Mode = iota
	ModeRandom
	ModeSingle
	ModeImage
	ModeDefaultUKUI
	ModeCustomize
)

var modeNicks = []string{"blank-only", "random", "single", "image", "default-ukui", "customize"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNicks) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNicks[m]
}

// ParseMode converts a stored nick.
func ParseMode(s string) (Mode, error) {
	for i, nick := range modeNicks {
		if nick == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown screensaver mode: %q", s)
}

// Never is the idle delay meaning the screensaver is never activated.
const Never = -1

// Idle slider positions.
const (
	IdleSliderMin = 1
	IdleSliderMax = 6
)

// IdleLabels are the tick labels of the idle slider.
var IdleLabels = []string{"5min", "10min", "15min", "30min", "1hour", "Never"}

var idleMinutes = []int{5, 10, 15, 30, 60, Never}

// SliderToMinutes converts an idle slider position to minutes, or Never.
func SliderToMinutes(pos int) int {
	if pos < IdleSliderMin || pos > IdleSliderMax {
		return Never
	}
	return idleMinutes[pos-IdleSliderMin]
}

// MinutesToSlider converts an idle delay to a slider position. Delays the
// slider cannot show map to Never.
func MinutesToSlider(minutes int) int {
	for i, m := range idleMinutes {
		if m == minutes {
			return IdleSliderMin + i
		}
	}
	return IdleSliderMax
}

// CycleLabels are the entries of the picture replacement combo.
var CycleLabels = []string{"1min", "5min", "10min", "30min"}

var cycleSeconds = []int{60, 300, 600, 1800}

// CycleIndexToSeconds converts a replacement combo index to seconds.
func CycleIndexToSeconds(index int) (int, bool) {
	if index < 0 || index >= len(cycleSeconds) {
		return 0, false
	}
	return cycleSeconds[index], true
}

// SecondsToCycleIndex converts a stored cycle time to a combo index.
func SecondsToCycleIndex(seconds int) (int, bool) {
	for i, s := range cycleSeconds {
		if s == seconds {
			return i, true
		}
	}
	return 0, false
}
