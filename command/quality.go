package command

// Quality bounds for the user-facing 0-100 quality setting.
const (
	MinQuality = 0
	MaxQuality = 100
)

// CRFFromQuality maps a 0-100 quality value (higher = better) onto the
// encoder's CRF scale (0-51, lower = higher fidelity).
//
//	CRFFromQuality(100) // 0
//	CRFFromQuality(75)  // 12
//	CRFFromQuality(0)   // 51
//
// Values outside 0-100 are clamped before mapping.
func CRFFromQuality(quality int) int {
	if quality < MinQuality {
		quality = MinQuality
	}
	if quality > MaxQuality {
		quality = MaxQuality
	}
	return (51 * (MaxQuality - quality)) / 99
}

// EvenDimension rounds a pixel dimension up to the nearest even number.
// The encoder's macroblock alignment requires even output dimensions.
func EvenDimension(n int) int {
	if n%2 != 0 {
		return n + 1
	}
	return n
}
