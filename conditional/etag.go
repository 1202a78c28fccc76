package conditional

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// An ETag is a strong entity tag in its quoted wire form, e.g. "1f0c9e3a55d2b7c4".
type ETag string

// NewETag returns the entity tag of representation rep negotiated under
// Accept header value accept. It is deterministic and order-sensitive:
// both inputs are length-prefixed before being hashed, so that
// NewETag(a+b, c) and NewETag(a, b+c) differ.
// The hash is not cryptographic; collisions are merely improbable.
func NewETag(rep []byte, accept string) ETag {
	var (
		d   = xxhash.New()
		buf [8]byte
	)
	binary.LittleEndian.PutUint64(buf[:], uint64(len(rep)))
	d.Write(buf[:])
	d.Write(rep)
	binary.LittleEndian.PutUint64(buf[:], uint64(len(accept)))
	d.Write(buf[:])
	d.WriteString(accept)
	binary.BigEndian.PutUint64(buf[:], d.Sum64())

	var sb strings.Builder
	sb.Grow(2 + hex.EncodedLen(len(buf)))
	sb.WriteByte('"')
	sb.WriteString(hex.EncodeToString(buf[:]))
	sb.WriteByte('"')
	return ETag(sb.String())
}

func (t ETag) String() string {
	return string(t)
}

// An entityTag is an element of an If-Match or If-None-Match list.
type entityTag struct {
	weak   bool
	opaque string // including the surrounding double quotes
}

// strongMatch implements the strong comparison function of RFC 9110 §8.8.3.2.
func (et entityTag) strongMatch(t ETag) bool {
	return !et.weak && et.opaque == string(t)
}

// weakMatch implements the weak comparison function of RFC 9110 §8.8.3.2.
func (et entityTag) weakMatch(t ETag) bool {
	return et.opaque == string(t)
}

// A tagList is the parsed value of an If-Match or If-None-Match header.
type tagList struct {
	present   bool
	any       bool // "*"
	malformed bool // a malformed list never matches
	tags      []entityTag
}

const maxListElements = 64

// parseTagList parses the field lines of an If-Match or If-None-Match
// header. It never fails: malformed values yield a list that matches
// nothing.
func parseTagList(values []string) tagList {
	if len(values) == 0 {
		return tagList{}
	}
	l := tagList{present: true}
	for _, v := range values {
		for {
			v = strings.TrimLeft(v, " \t,")
			if v == "" {
				break
			}
			if v[0] == '*' {
				l.any = true
				v = v[1:]
				continue
			}
			et, rest, ok := cutEntityTag(v)
			if !ok || len(l.tags) == maxListElements {
				return tagList{present: true, malformed: true}
			}
			l.tags = append(l.tags, et)
			v = strings.TrimLeft(rest, " \t")
			if v != "" && v[0] != ',' {
				return tagList{present: true, malformed: true}
			}
		}
	}
	if l.any && len(l.tags) > 0 {
		// "*" must appear alone.
		return tagList{present: true, malformed: true}
	}
	return l
}

// cutEntityTag parses the entity-tag at the start of s and returns it along
// with the remainder of s.
//
//	entity-tag = [ weak ] opaque-tag
//	weak       = %s"W/"
//	opaque-tag = DQUOTE *etagc DQUOTE
//	etagc      = %x21 / %x23-7E / obs-text
func cutEntityTag(s string) (entityTag, string, bool) {
	var et entityTag
	if strings.HasPrefix(s, "W/") {
		et.weak = true
		s = s[2:]
	}
	if len(s) < 2 || s[0] != '"' {
		return entityTag{}, "", false
	}
	for i := 1; i < len(s); i++ {
		switch b := s[i]; {
		case b == '"':
			et.opaque = s[:i+1]
			return et, s[i+1:], true
		case b == 0x21, 0x23 <= b && b <= 0x7e, b >= 0x80:
		default:
			return entityTag{}, "", false
		}
	}
	return entityTag{}, "", false
}

func (l *tagList) strongMatch(t ETag) bool {
	if l.malformed {
		return false
	}
	if l.any {
		return true
	}
	for _, et := range l.tags {
		if et.strongMatch(t) {
			return true
		}
	}
	return false
}

func (l *tagList) weakMatch(t ETag) bool {
	if l.malformed {
		return false
	}
	if l.any {
		return true
	}
	for _, et := range l.tags {
		if et.weakMatch(t) {
			return true
		}
	}
	return false
}
