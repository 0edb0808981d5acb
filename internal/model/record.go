package model

// Record is one logcat line split into its fields.
// Every field is a substring of the line it was parsed from.
type Record struct {
	Date  string
	Time  string
	Level string // single letter: V, D, I, W, E, F
	Tag   string
	Msg   string
}

// RawLine is a single unparsed line as delivered by a source.
type RawLine struct {
	Text   string
	Source string // "adb", "stdin" or a file path
}
