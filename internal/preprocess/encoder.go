package preprocess

// SequenceLength is the fixed width of the character model input
const SequenceLength = 200

// Vocabulary codes. Printable ASCII 32..126 maps to 2..97.
const (
	PadCode int32 = 0
	UnkCode int32 = 1

	firstPrintable = 32
	lastPrintable  = 126
)

// EncodedSequence is the character-level model input
type EncodedSequence [SequenceLength]int32

// Encode maps a domain onto the fixed-length vocabulary sequence.
// Input longer than SequenceLength code points is truncated; the tail is PAD.
func Encode(domain string) EncodedSequence {
	var seq EncodedSequence
	i := 0
	for _, r := range domain {
		if i == SequenceLength {
			break
		}
		seq[i] = CharCode(r)
		i++
	}
	return seq
}

// CharCode returns the vocabulary code of a single character
func CharCode(r rune) int32 {
	if r < firstPrintable || r > lastPrintable {
		return UnkCode
	}
	return int32(r-firstPrintable) + 2
}
