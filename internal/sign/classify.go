// Package sign classifies hand landmarks into sign-language glosses.
//
// The classifier is a lookup over the 5-bit finger state: 32 possible
// states, three of which carry a gloss. It keeps no state between calls.
package sign

import "github.com/ayusman/signvoice/internal/detector"

// Gloss is a recognized sign. The zero value None means no sign.
type Gloss string

// Known glosses.
const (
	None    Gloss = ""
	Hello   Gloss = "HELLO"
	Goodbye Gloss = "GOODBYE"
	OK      Gloss = "OK"
)

// All lists the known glosses in table order.
var All = []Gloss{Hello, Goodbye, OK}

var patterns = map[FingerState]Gloss{
	State(0, 1, 1, 1, 1): Hello,
	State(0, 0, 0, 0, 0): Goodbye,
	State(1, 1, 0, 0, 1): OK,
}

// IsNone reports whether g is the absent label.
func (g Gloss) IsNone() bool {
	return g == None
}

// Valid reports whether g is one of the known glosses.
func (g Gloss) Valid() bool {
	for _, k := range All {
		if g == k {
			return true
		}
	}
	return false
}

// Lookup returns the gloss for an exact finger state, or None.
func Lookup(s FingerState) Gloss {
	return patterns[s]
}

// Classify maps one hand's landmarks to a gloss, or None for unknown
// poses and incomplete input.
func Classify(points []detector.Point3D) Gloss {
	s, ok := Fingers(points)
	if !ok {
		return None
	}
	return Lookup(s)
}

// ClassifyHands returns the gloss of the first hand that yields one.
func ClassifyHands(hands []detector.HandLandmarks) (Gloss, int) {
	for i := range hands {
		if g := Classify(hands[i].Points); g != None {
			return g, i
		}
	}
	return None, -1
}
