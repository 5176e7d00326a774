package track

var corkscrewSegments = []Segment{
	{Name: "s1", Kind: Left, Length: 32, Radius: 153.7, Arc: 12, BrakeThreshold: 0.15},
	{Name: "s2", Kind: Straight, Length: 152},
	{Name: "s3", Kind: Left, Length: 38, Radius: 86.5, Arc: 25, BrakeThreshold: 0.35},
	{Name: "s5", Kind: Right, Length: 78, Radius: 185.7, Arc: 15, BrakeThreshold: 0.25},
	{Name: "s6", Kind: Straight, Length: 27},
	{Name: "s7", Kind: Left, Length: 45, Radius: 79.3, Arc: 32, BrakeThreshold: 0.40},
	{Name: "s8", Kind: Straight, Length: 35},
	{Name: "s9", Kind: Right, Length: 40, Radius: 119.7, Arc: 20, BrakeThreshold: 0.30},
	{Name: "s10", Kind: Straight, Length: 32},
	// spiral
	{Name: "s11", Kind: Left, Length: 125, Radius: 130.3, Arc: 54, BrakeThreshold: 0.50},
	{Name: "s14", Kind: Right, Length: 80, Radius: 150, Arc: 30, BrakeThreshold: 0.40},
	{Name: "s16", Kind: Straight, Length: 94},
	{Name: "s17", Kind: Left, Length: 35, Radius: 95.2, Arc: 21, BrakeThreshold: 0.30},
	{Name: "s18", Kind: Straight, Length: 70},
	{Name: "s20", Kind: Right, Length: 35, Radius: 120, Arc: 16, BrakeThreshold: 0.25},
	// the corkscrew itself
	{Name: "s21", Kind: Left, Length: 117, Radius: 75, Arc: 89, BrakeThreshold: 0.55},
	{Name: "s23", Kind: Straight, Length: 50},
	{Name: "s24", Kind: Right, Length: 35, Radius: 100, Arc: 20, BrakeThreshold: 0.30},
	{Name: "s25", Kind: Straight, Length: 35},
	{Name: "s26", Kind: Left, Length: 32, Radius: 115, Arc: 16, BrakeThreshold: 0.25},
	{Name: "s27", Kind: Straight, Length: 160},
}

// Corkscrew returns the Laguna Seca style "corkscrew" layout, 1347 m.
func Corkscrew() *Map {
	m, err := NewMap("corkscrew", corkscrewSegments)
	if err != nil {
		panic(err)
	}
	return m
}
