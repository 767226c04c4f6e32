package reval

import (
	"bytes"
	"encoding/base64"
	"strconv"

	j "github.com/goccy/go-json"
)

// MarshalJSON renders the Value tree as JSON, preserving mapping key order
// (a plain map marshal would sort keys and break field ordering guarantees).
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.appendJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) appendJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindBigInt:
		buf.WriteString(v.big.String())
	case KindFloat:
		b, err := j.Marshal(v.f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindDecimal:
		buf.WriteString(v.dec.String())
	case KindString:
		b, err := j.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindBytes:
		b, err := j.Marshal(base64.StdEncoding.EncodeToString(v.by))
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindSeq:
		buf.WriteByte('[')
		for i, it := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := j.Marshal(keyLabel(m.Key))
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := m.Val.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindExternal:
		b, err := j.Marshal(v.ext)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
