package sourcemap

import "fmt"

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase
)

var base64Index [256]int8

func init() {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	for i := range base64Index {
		base64Index[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		base64Index[alphabet[i]] = int8(i)
	}
}

// decodeVLQ reads one base64 VLQ value from s starting at pos and returns the
// value and the position after it.
func decodeVLQ(s string, pos int) (int, int, error) {
	result, shift := 0, 0
	for {
		if pos >= len(s) {
			return 0, pos, fmt.Errorf("unexpected end of VLQ value")
		}
		digit := base64Index[s[pos]]
		if digit < 0 {
			return 0, pos, fmt.Errorf("invalid base64 character %q at offset %d", s[pos], pos)
		}
		pos++
		result += (int(digit) & vlqBaseMask) << shift
		if int(digit)&vlqContinuationBit == 0 {
			break
		}
		shift += vlqBaseShift
		if shift > 60 {
			return 0, pos, fmt.Errorf("VLQ value overflows")
		}
	}
	if result&1 == 1 {
		return -(result >> 1), pos, nil
	}
	return result >> 1, pos, nil
}
