package prompt

// Momentum describes the user's pace for the day. It selects the tone
// guidance line of the prompt.
type Momentum int

const (
	MomentumStrong Momentum = iota
	MomentumOverload
	MomentumFreshSlate
	MomentumLateNight
	MomentumStalled
	MomentumNormal
)

var momentumNames = map[Momentum]string{
	MomentumStrong:     "strong",
	MomentumOverload:   "overload",
	MomentumFreshSlate: "fresh_slate",
	MomentumLateNight:  "late_night",
	MomentumStalled:    "stalled",
	MomentumNormal:     "normal",
}

var momentumGuidance = map[Momentum]string{
	MomentumStrong:     "User has strong momentum. Acknowledge progress naturally without overdoing praise.",
	MomentumOverload:   "Task list is getting overwhelming. Suggest prioritization if they seem stuck.",
	MomentumFreshSlate: "Starting fresh with clean slate. Keep expectations realistic.",
	MomentumLateNight:  "Very late night or very early morning. Acknowledge dedication without judgment.",
	MomentumStalled:    "Tasks exist but none completed yet. Encourage starting without pressure.",
	MomentumNormal:     "Normal working pace. Stay matter-of-fact and supportive.",
}

func (m Momentum) String() string {
	if s, ok := momentumNames[m]; ok {
		return s
	}
	return "unknown"
}

// Guidance returns the fixed tone instruction for m.
func (m Momentum) Guidance() string {
	return momentumGuidance[m]
}

// Classify maps the day's numbers to a Momentum. Rules are checked in
// order and the first match wins.
func Classify(completedToday, activeTasks, hour int) Momentum {
	switch {
	case completedToday >= 3:
		return MomentumStrong
	case activeTasks > 8:
		return MomentumOverload
	case activeTasks == 0 && completedToday == 0:
		return MomentumFreshSlate
	case hour < 6:
		return MomentumLateNight
	case completedToday == 0 && activeTasks > 0:
		return MomentumStalled
	default:
		return MomentumNormal
	}
}

// TimeOfDay returns the label for the given hour (0-23).
func TimeOfDay(hour int) string {
	switch {
	case hour < 6:
		return "Late night (after midnight)"
	case hour < 12:
		return "Morning"
	case hour < 17:
		return "Afternoon"
	case hour < 21:
		return "Evening"
	default:
		return "Late night"
	}
}
