package feed

// Scale is the display scale ratings are expressed on. The service always
// reports ratings out of ten.
type Scale int

const (
	TenPoint Scale = iota
	FivePoint
)

// ScaleFor selects FivePoint when fiveStar is set.
func ScaleFor(fiveStar bool) Scale {
	if fiveStar {
		return FivePoint
	}
	return TenPoint
}

// Apply converts a ten point value onto s.
func (s Scale) Apply(v float32) float32 {
	if s == FivePoint {
		return v * 0.5
	}
	return v
}

// ApplyByte converts a ten point review rating onto s, truncating halves.
func (s Scale) ApplyByte(v uint8) uint8 {
	if s == FivePoint {
		return uint8(float32(v) * 0.5)
	}
	return v
}

func (s Scale) String() string {
	if s == FivePoint {
		return "five-point"
	}
	return "ten-point"
}
