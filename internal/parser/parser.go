// Package parser splits logcat lines in the `-v time` format into records.
//
//	12-02 24:01:13.237 I/flutter ( 666): my super log
package parser

import (
	"strings"

	"github.com/atikulmunna/droidlog/internal/model"
)

// Parse extracts the date, time, level, tag and message from a logcat line.
// It reports false when the line does not follow the format; no partial
// record is ever returned. The pid inside the parentheses is ignored.
func Parse(line string) (model.Record, bool) {
	date, rest, ok := nextToken(line)
	if !ok {
		return model.Record{}, false
	}
	ts, rest, ok := nextToken(rest)
	if !ok {
		return model.Record{}, false
	}

	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return model.Record{}, false
	}
	group := strings.TrimSpace(rest[:open])

	// The message separator is searched from the parenthesis so that a
	// colon inside the tag does not end it early.
	colon := strings.IndexByte(rest[open:], ':')
	if colon < 0 {
		return model.Record{}, false
	}
	msg := rest[open+colon+1:]

	level, tag, found := strings.Cut(group, "/")
	if !found {
		return model.Record{}, false
	}

	return model.Record{
		Date:  date,
		Time:  ts,
		Level: level,
		Tag:   strings.TrimSpace(tag),
		Msg:   strings.TrimSpace(msg),
	}, true
}

// nextToken returns the text before the first space and the remainder after
// the whole run of spaces that follows it. A token with nothing after it is
// reported as missing.
func nextToken(s string) (token, rest string, ok bool) {
	idx := strings.IndexByte(s, ' ')
	if idx < 0 {
		return "", "", false
	}
	token = s[:idx]
	for idx < len(s) && s[idx] == ' ' {
		idx++
	}
	if idx >= len(s) {
		return "", "", false
	}
	return token, s[idx:], true
}
