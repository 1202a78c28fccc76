package headers

import "github.com/brunoabdon/abdedge/internal/util"

// Check reports whether acrhs is a sequence of [list-based field values]
// whose elements all are, once byte-lowercased, members of set.
// The elements of set are expected to be byte-lowercase.
// Neither the order of elements nor duplicates matter.
//
// This function's parameter is a slice of strings rather than just a string
// because, although [the Fetch standard] requires browsers to include at most
// one ACRH field line in CORS-preflight requests, some intermediaries may well
// split it into multiple ACRH field lines.
//
// [RFC 9110] requires recipients to tolerate arbitrarily long optional
// whitespace (OWS) around list elements, but doing so opens the door to
// adversarial preflight requests. Check only tolerates a small number
// (MaxOWSBytes) of OWS bytes before and/or after each element and a small
// number (MaxEmptyElements) of empty elements.
// Anything else makes Check report false rather than fail.
//
// [RFC 9110]: https://httpwg.org/specs/rfc9110.html
// [list-based field values]: https://httpwg.org/specs/rfc9110.html#abnf.extension
// [the Fetch standard]: https://fetch.spec.whatwg.org
func Check(set util.SortedSet, acrhs []string) bool {
	// effectively constant
	maxLen := MaxOWSBytes + set.MaxLen() + MaxOWSBytes + 1 // +1 for comma
	var (
		name          string
		commaFound    bool
		emptyElements int
		ok            bool
	)
	for _, acrh := range acrhs {
		for {
			// As a defense against maliciously long names in acrh, we process
			// only a small number of acrh's leading bytes per iteration.
			name, acrh, commaFound = cutAtComma(acrh, uint(maxLen))
			name, ok = TrimOWS(name, MaxOWSBytes)
			if !ok {
				return false
			}
			if name == "" {
				// see https://httpwg.org/specs/rfc9110.html#abnf.extension.recipient
				emptyElements++
				if emptyElements > MaxEmptyElements {
					return false
				}
				if !commaFound {
					break
				}
				continue
			}
			if !set.Contains(util.ByteLowercase(name)) {
				return false
			}
			if !commaFound {
				break
			}
		}
	}
	return true
}

const (
	MaxOWSBytes      = 1  // number of leading/trailing OWS bytes tolerated
	MaxEmptyElements = 16 // number of empty list elements tolerated
)

// cutAtComma slices str around the first comma that appears among (up to) the
// first n bytes of str, returning the parts of str before and after the comma.
// The found result reports whether a comma appears in that portion of str.
// If no comma appears in that portion of str, cutAtComma returns str, "", false.
func cutAtComma(str string, n uint) (before, after string, found bool) {
	for i := range min(uint(len(str)), n) {
		if str[i] == ',' {
			return str[:i], str[i+1:], true
		}
	}
	return str, "", false
}
