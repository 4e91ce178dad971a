package common

import "strings"

// JoinURL appends path elements to storage prefix. Prefix is used as is
// (it may be absolute URL or just a path), only trailing slash is removed.
func JoinURL(prefix string, elems ...string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(prefix, "/"))
	for _, e := range elems {
		sb.WriteByte('/')
		sb.WriteString(strings.Trim(e, "/"))
	}
	return sb.String()
}
