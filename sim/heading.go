package sim

type Heading uint8

const (
	North Heading = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest

	headingCount = 8
)

type Offset struct {
	Row int
	Col int
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type compassTable [headingCount]Offset

var compass = compassTable{
	North:     {-1, 0},
	NorthEast: {-1, 1},
	East:      {0, 1},
	SouthEast: {1, 1},
	South:     {1, 0},
	SouthWest: {1, -1},
	West:      {0, -1},
	NorthWest: {-1, -1},
}

// legacyCompass collapses West onto SouthWest, leaving seven directions.
var legacyCompass = func() compassTable {
	t := compass
	t[West] = compass[SouthWest]
	return t
}()

func (h Heading) Offset() Offset {
	return compass[h%headingCount]
}

func (h Heading) String() string {
	switch h {
	case North:
		return "N"
	case NorthEast:
		return "NE"
	case East:
		return "E"
	case SouthEast:
		return "SE"
	case South:
		return "S"
	case SouthWest:
		return "SW"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	}
	return "?"
}
