package bysant

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Dump decodes every event in buf and writes a human-readable indented trace
// to w, one line per event, with container nesting shown via indentation —
// a debugging aid for inspecting a captured wire stream, in the same
// hex-dump-plus-indentation style cmd/hivectl's dump command uses for
// registry values. It stops at the first error or at a needMoreErr (noted
// as a truncated-stream line rather than treated as a failure, since a
// partial capture is the common case when dumping).
func Dump(w io.Writer, buf []byte) error {
	d := NewDeserializer()
	off := 0
	depth := 0
	for off < len(buf) {
		n, data, err := d.Read(buf[off:])
		if err != nil {
			if need, ok := NeedMoreBytes(err); ok {
				fmt.Fprintf(w, "%s(truncated, need %d more byte(s))\n", strings.Repeat("  ", depth), need)
				return nil
			}
			return err
		}
		indent := depth
		if data.Type == TypeClose {
			indent--
			if indent < 0 {
				indent = 0
			}
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", indent), describe(data))
		switch data.Type {
		case TypeList, TypeZList, TypeMap, TypeZMap, TypeObject, TypeChunkedString:
			depth++
		case TypeClose:
			if depth > 0 {
				depth--
			}
		}
		off += n
	}
	return nil
}

func describe(d Data) string {
	switch d.Type {
	case TypeNull:
		return "null"
	case TypeInt:
		return fmt.Sprintf("int %d", d.Int)
	case TypeBool:
		return fmt.Sprintf("bool %t", d.Bool)
	case TypeDouble:
		return fmt.Sprintf("double %v", d.Double)
	case TypeString:
		return fmt.Sprintf("string %q", d.Bytes)
	case TypeChunkedString:
		return "chunked-string {"
	case TypeChunk:
		return fmt.Sprintf("chunk %s (%d bytes)", hex.EncodeToString(d.Bytes), len(d.Bytes))
	case TypeList:
		return fmt.Sprintf("list[%d] {", d.Length)
	case TypeZList:
		return "list[?] {"
	case TypeMap:
		return fmt.Sprintf("map[%d] {", d.Length)
	case TypeZMap:
		return "map[?] {"
	case TypeObject:
		name := d.Class.Name
		if name == "" {
			name = fmt.Sprintf("#%d", d.Class.ID)
		}
		return fmt.Sprintf("object %s {", name)
	case TypeClassDef:
		return fmt.Sprintf("classdef %s (id=%d, %d field(s))", d.Class.Name, d.Class.ID, len(d.Class.Fields))
	case TypeClose:
		return "}"
	default:
		return "?"
	}
}
