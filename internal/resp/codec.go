/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: respkv/internal/resp/codec.go
*/
package resp

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

// Decode attempts to parse exactly one RESP value from the front of buf.
//
// On success it returns the decoded value and the number of bytes that
// make up its wire representation; buf itself is not modified, and the
// caller is expected to advance past those bytes (e.g. via Buffer.Advance)
// once it is done with the returned Value, whose byte payloads may alias
// buf.
//
// If buf holds a truncated frame, Decode returns ErrIncomplete and leaves
// buf untouched so the caller can retry after appending more data. Any
// other error is a fatal framing error.
func Decode(buf []byte) (Value, int, error) {
	if len(buf) == 0 {
		return Value{}, 0, ErrIncomplete
	}

	switch Type(buf[0]) {
	case SimpleString, SimpleError:
		line, n, err := readLine(buf[1:])
		if err != nil {
			return Value{}, 0, err
		}
		if Type(buf[0]) == SimpleString {
			return Value{Type: SimpleString, Str: line}, 1 + n, nil
		}
		return Value{Type: SimpleError, Err: line}, 1 + n, nil

	case Integer:
		line, n, err := readLine(buf[1:])
		if err != nil {
			return Value{}, 0, err
		}
		i, err := parseInt(line)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Type: Integer, Int: i}, 1 + n, nil

	case BulkString:
		return decodeBulkString(buf)

	case Array:
		return decodeArray(buf)

	default:
		return Value{}, 0, ErrInvalidFirstByte{Byte: buf[0]}
	}
}

// readLine locates the CRLF terminating the header token starting at
// buf[0] and returns the token (without the CRLF) and the total number of
// bytes consumed, including the CRLF itself.
func readLine(buf []byte) (line []byte, consumed int, err error) {
	idx := bytes.Index(buf, []byte(CRLF))
	if idx < 0 {
		return nil, 0, ErrIncomplete
	}
	return buf[:idx], idx + 2, nil
}

// parseInt parses a decimal signed 64-bit integer token, distinguishing
// malformed UTF-8 from a syntactically invalid number as spec's error
// taxonomy requires.
func parseInt(token []byte) (int64, error) {
	if !utf8.Valid(token) {
		return 0, ErrParseUTF8{Token: token}
	}
	n, err := strconv.ParseInt(string(token), 10, 64)
	if err != nil {
		return 0, ErrParseInteger{Token: token}
	}
	return n, nil
}

func decodeBulkString(buf []byte) (Value, int, error) {
	line, headerLen, err := readLine(buf[1:])
	if err != nil {
		return Value{}, 0, err
	}
	length, err := parseInt(line)
	if err != nil {
		return Value{}, 0, err
	}

	if length == -1 {
		return NewNullBulkString(), 1 + headerLen, nil
	}
	if length < -1 {
		return Value{}, 0, ErrInvalidBulkStringLength{Length: length}
	}
	if length > maxLength {
		return Value{}, 0, ErrExceededMaxLength
	}

	start := 1 + headerLen
	end := start + int(length)
	if len(buf) < end+2 {
		return Value{}, 0, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return Value{}, 0, ErrMalformedTerminator
	}

	return NewBulkString(buf[start:end]), end + 2, nil
}

func decodeArray(buf []byte) (Value, int, error) {
	line, headerLen, err := readLine(buf[1:])
	if err != nil {
		return Value{}, 0, err
	}
	length, err := parseInt(line)
	if err != nil {
		return Value{}, 0, err
	}

	if length == -1 {
		return NewNullArray(), 1 + headerLen, nil
	}
	if length < -1 {
		return Value{}, 0, ErrInvalidArrayLength{Length: length}
	}
	if length > maxLength {
		return Value{}, 0, ErrExceededMaxLength
	}

	pos := 1 + headerLen
	elems := make([]Value, 0, length)
	for i := int64(0); i < length; i++ {
		child, n, err := Decode(buf[pos:])
		if err != nil {
			// Includes ErrIncomplete: the whole array returns "need more
			// input" without partially consuming buf.
			return Value{}, 0, err
		}
		elems = append(elems, child)
		pos += n
	}

	return NewArray(elems), pos, nil
}

// Encode appends the wire representation of v to dst and returns the
// extended slice.
func Encode(v Value, dst []byte) []byte {
	switch v.Type {
	case SimpleString:
		dst = append(dst, byte(SimpleString))
		dst = append(dst, v.Str...)
		dst = append(dst, CRLF...)
	case SimpleError:
		dst = append(dst, byte(SimpleError))
		dst = append(dst, v.Err...)
		dst = append(dst, CRLF...)
	case Integer:
		dst = append(dst, byte(Integer))
		dst = strconv.AppendInt(dst, v.Int, 10)
		dst = append(dst, CRLF...)
	case BulkString:
		if v.Null {
			dst = append(dst, "$-1"+CRLF...)
			break
		}
		dst = append(dst, byte(BulkString))
		dst = strconv.AppendInt(dst, int64(len(v.Bulk)), 10)
		dst = append(dst, CRLF...)
		dst = append(dst, v.Bulk...)
		dst = append(dst, CRLF...)
	case Array:
		if v.Null {
			dst = append(dst, "*-1"+CRLF...)
			break
		}
		dst = append(dst, byte(Array))
		dst = strconv.AppendInt(dst, int64(len(v.Array)), 10)
		dst = append(dst, CRLF...)
		for _, elem := range v.Array {
			dst = Encode(elem, dst)
		}
	}
	return dst
}
