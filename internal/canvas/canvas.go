package canvas

// Canvas dimensions. Coordinates are 0-based, so valid x/y are [0, Width).
const (
	Width  = 1000
	Height = 1000
)

// Team doubles as the pixel color set: a pixel's color is always one of
// the eight team colors.
type Team string

const (
	TeamRed     Team = "red"
	TeamBlue    Team = "blue"
	TeamGreen   Team = "green"
	TeamYellow  Team = "yellow"
	TeamPurple  Team = "purple"
	TeamOrange  Team = "orange"
	TeamCyan    Team = "cyan"
	TeamMagenta Team = "magenta"
)

// Teams lists every valid team in a stable order.
var Teams = []Team{
	TeamRed,
	TeamBlue,
	TeamGreen,
	TeamYellow,
	TeamPurple,
	TeamOrange,
	TeamCyan,
	TeamMagenta,
}

func ValidTeam(t Team) bool {
	for _, team := range Teams {
		if t == team {
			return true
		}
	}
	return false
}

// ValidColor is ValidTeam under a different name: the color set and the
// team set are the same enumeration.
func ValidColor(c Team) bool { return ValidTeam(c) }

func InBounds(x, y int) bool {
	return x >= 0 && x < Width && y >= 0 && y < Height
}
