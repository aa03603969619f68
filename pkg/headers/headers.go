/*
Zaparoo 1G1R
Copyright (C) 2025 The Zaparoo Project Contributors

This file is part of Zaparoo 1G1R.

Zaparoo 1G1R is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Zaparoo 1G1R is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Zaparoo 1G1R.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package headers loads clrmamepro header detector files. A detector
// describes how to recognise a copier or format header at the start of a
// ROM and which bytes to keep so the digest matches the catalog.
package headers

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/afero"
)

// ErrInvalidRule is wrapped by every detector validation error.
var ErrInvalidRule = errors.New("invalid header rule")

// Rule is a byte-pattern test paired with a transform.
type Rule interface {
	// Test reports whether the rule applies to data.
	Test(data []byte) bool
	// Apply returns the normalized bytes. data is not modified.
	Apply(data []byte) []byte
}

// ApplyAll runs every rule whose test matches, in order, each output
// feeding the next.
func ApplyAll(rules []Rule, data []byte) []byte {
	for _, r := range rules {
		if r.Test(data) {
			data = r.Apply(data)
		}
	}
	return data
}

type operation int

const (
	opNone operation = iota
	opBitSwap
	opByteSwap
	opWordSwap
	opWordByteSwap
)

var operations = map[string]operation{
	"none":         opNone,
	"bitswap":      opBitSwap,
	"byteswap":     opByteSwap,
	"wordswap":     opWordSwap,
	"wordbyteswap": opWordByteSwap,
}

type test interface {
	match(data []byte) bool
}

// detectorRule is a single <rule> of a detector.
type detectorRule struct {
	tests []test
	start int
	// end of 0 means end of file
	end int
	op  operation
}

func (r *detectorRule) Test(data []byte) bool {
	for _, t := range r.tests {
		if !t.match(data) {
			return false
		}
	}
	return true
}

func (r *detectorRule) Apply(data []byte) []byte {
	out := bytes.Clone(r.slice(data))
	switch r.op {
	case opBitSwap:
		for i, b := range out {
			out[i] = bits.Reverse8(b)
		}
	case opByteSwap:
		invert(out, 2)
	case opWordSwap:
		invert(out, 4)
	case opWordByteSwap:
		invert(out, 4)
		invert(out, 2)
	case opNone:
	}
	return out
}

func (r *detectorRule) slice(data []byte) []byte {
	start := min(r.start, len(data))
	end := len(data)
	if r.end != 0 {
		end = max(min(r.end, len(data)), start)
	}
	return data[start:end]
}

// invert reverses every chunk of size n in place. A short trailing chunk is
// reversed too.
func invert(data []byte, n int) {
	for i := 0; i < len(data); i += n {
		chunk := data[i:min(i+n, len(data))]
		for a, b := 0, len(chunk)-1; a < b; a, b = a+1, b-1 {
			chunk[a], chunk[b] = chunk[b], chunk[a]
		}
	}
}

// window returns n bytes at offset, or false if data is too short.
func window(data []byte, offset, n int) ([]byte, bool) {
	if offset+n > len(data) {
		return nil, false
	}
	return data[offset : offset+n], true
}

type dataTest struct {
	value  []byte
	offset int
	result bool
}

func (t dataTest) match(data []byte) bool {
	w, ok := window(data, t.offset, len(t.value))
	return (ok && bytes.Equal(w, t.value)) == t.result
}

type booleanTest struct {
	mask   []byte
	value  []byte
	op     string
	offset int
	result bool
}

func (t booleanTest) match(data []byte) bool {
	w, ok := window(data, t.offset, len(t.mask))
	if !ok {
		return !t.result
	}
	for i, b := range w {
		var v byte
		switch t.op {
		case "and":
			v = t.mask[i] & b
		case "or":
			v = t.mask[i] | b
		default:
			v = t.mask[i] ^ b
		}
		if v != t.value[i] {
			return !t.result
		}
	}
	return t.result
}

type fileTest struct {
	operator string
	size     int
	po2      bool
	result   bool
}

func (t fileTest) match(data []byte) bool {
	var ok bool
	switch {
	case t.po2:
		ok = bits.OnesCount(uint(len(data))) == 1
	case t.operator == "less":
		ok = len(data) < t.size
	case t.operator == "greater":
		ok = len(data) > t.size
	default:
		ok = len(data) == t.size
	}
	return ok == t.result
}

// Load reads the detector file at path.
func Load(fs afero.Fs, path string) ([]Rule, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open header file: %w", err)
	}
	defer func() { _ = f.Close() }()

	rules, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return rules, nil
}

// Parse reads a detector document. Every <rule> of every <detector>
// becomes one Rule, in document order.
func Parse(r io.Reader) ([]Rule, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to read xml: %w", err)
	}

	var rules []Rule
	for _, detector := range doc.FindElements("//detector") {
		for _, el := range detector.FindElements(".//rule") {
			rule, err := parseRule(el)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func parseRule(el *etree.Element) (*detectorRule, error) {
	start, err := parseHex(el.SelectAttrValue("start_offset", "0"))
	if err != nil {
		return nil, fmt.Errorf("%w: start_offset: %w", ErrInvalidRule, err)
	}

	end := 0
	if v := el.SelectAttrValue("end_offset", "EOF"); !strings.EqualFold(v, "EOF") {
		end, err = parseHex(v)
		if err != nil {
			return nil, fmt.Errorf("%w: end_offset: %w", ErrInvalidRule, err)
		}
	}

	opName := el.SelectAttrValue("operation", "none")
	op, ok := operations[opName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown operation: %s", ErrInvalidRule, opName)
	}

	rule := &detectorRule{start: start, end: end, op: op}
	for _, child := range el.ChildElements() {
		t, err := parseTest(child)
		if err != nil {
			return nil, err
		}
		if t != nil {
			rule.tests = append(rule.tests, t)
		}
	}
	return rule, nil
}

func parseTest(el *etree.Element) (test, error) {
	offset, err := parseHex(el.SelectAttrValue("offset", "0"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s offset: %w", ErrInvalidRule, el.Tag, err)
	}
	result, err := strconv.ParseBool(el.SelectAttrValue("result", "true"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s result: %w", ErrInvalidRule, el.Tag, err)
	}

	switch el.Tag {
	case "data":
		value, err := parseBytes(el.SelectAttrValue("value", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: data value: %w", ErrInvalidRule, err)
		}
		return dataTest{value: value, offset: offset, result: result}, nil
	case "and", "or", "xor":
		mask, err := parseBytes(el.SelectAttrValue("mask", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: %s mask: %w", ErrInvalidRule, el.Tag, err)
		}
		value, err := parseBytes(el.SelectAttrValue("value", ""))
		if err != nil {
			return nil, fmt.Errorf("%w: %s value: %w", ErrInvalidRule, el.Tag, err)
		}
		if len(mask) != len(value) {
			return nil, fmt.Errorf("%w: %s mask and value differ in length", ErrInvalidRule, el.Tag)
		}
		return booleanTest{op: el.Tag, mask: mask, value: value, offset: offset, result: result}, nil
	case "file":
		t := fileTest{result: result, operator: el.SelectAttrValue("operator", "equal")}
		switch t.operator {
		case "equal", "less", "greater":
		default:
			return nil, fmt.Errorf("%w: invalid file operator: %s", ErrInvalidRule, t.operator)
		}
		size := el.SelectAttrValue("size", "")
		if size == "PO2" {
			t.po2 = true
		} else if t.size, err = parseHex(size); err != nil {
			return nil, fmt.Errorf("%w: file size: %w", ErrInvalidRule, err)
		}
		return t, nil
	default:
		return nil, nil
	}
}

func parseHex(s string) (int, error) {
	n, err := strconv.ParseUint(s, 16, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid hex number %q: %w", s, err)
	}
	return int(n), nil
}

func parseBytes(s string) ([]byte, error) {
	if s == "" || len(s)%2 != 0 {
		return nil, fmt.Errorf("hex length must be even and non-zero: %q", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex bytes: %w", err)
	}
	return b, nil
}
