package analyzer

// Distribution holds the global byte-class percentages for a buffer.
// ControlPercent counts every byte below 32 and therefore includes
// NullPercent; OtherPercent is whatever is neither control nor printable
// ASCII, so the exclusive classes
// null + (control - null) + ascii + other always sum to 100.
type Distribution struct {
	NullPercent    float64
	ControlPercent float64
	ASCIIPercent   float64
	OtherPercent   float64
}

// profileDistribution tallies the byte classes in a single pass. The caller
// guarantees data is non-empty.
func profileDistribution(data []byte) Distribution {
	var nulls, control, ascii int
	for _, b := range data {
		switch {
		case b == 0:
			nulls++
			control++
		case b < 32:
			control++
		case b <= 127:
			ascii++
		}
	}
	other := len(data) - control - ascii

	total := float64(len(data))
	return Distribution{
		NullPercent:    float64(nulls) / total * 100,
		ControlPercent: float64(control) / total * 100,
		ASCIIPercent:   float64(ascii) / total * 100,
		OtherPercent:   float64(other) / total * 100,
	}
}
