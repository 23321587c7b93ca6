package lut

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Minimal reader for the NPY serialized-array format the calibration
// workflow produces. Only the shapes and dtypes calibration files actually
// use are supported: uint8 or little-endian float32/float64 arrays whose
// cells are RGB (or RGBA, alpha ignored) triplets in C order.

var npyMagic = []byte("\x93NUMPY")

// isNPY reports whether data starts with the NPY magic.
func isNPY(data []byte) bool { return bytes.HasPrefix(data, npyMagic) }

// parseNPY decodes an NPY payload into a flat sequence of RGB samples.
func parseNPY(data []byte) ([]RGB, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("truncated npy header")
	}
	major := data[6]
	var headerLen, headerStart int
	switch major {
	case 1:
		headerLen = int(binary.LittleEndian.Uint16(data[8:10]))
		headerStart = 10
	case 2, 3:
		if len(data) < 12 {
			return nil, fmt.Errorf("truncated npy header")
		}
		headerLen = int(binary.LittleEndian.Uint32(data[8:12]))
		headerStart = 12
	default:
		return nil, fmt.Errorf("unsupported npy version %d", major)
	}
	if len(data) < headerStart+headerLen {
		return nil, fmt.Errorf("truncated npy header")
	}
	header := string(data[headerStart : headerStart+headerLen])
	body := data[headerStart+headerLen:]

	descr, err := headerField(header, "descr")
	if err != nil {
		return nil, err
	}
	order, err := headerField(header, "fortran_order")
	if err != nil {
		return nil, err
	}
	if order != "False" {
		return nil, fmt.Errorf("fortran-ordered npy arrays are not supported")
	}
	shape, err := headerShape(header)
	if err != nil {
		return nil, err
	}

	total := 1
	for _, d := range shape {
		total *= d
	}
	// Cells must be RGB or RGBA triplets: either the last dimension is
	// 3/4, or the array is flat with a length divisible by 3.
	channels := 3
	switch {
	case len(shape) >= 2 && (shape[len(shape)-1] == 3 || shape[len(shape)-1] == 4):
		channels = shape[len(shape)-1]
	case len(shape) == 1 && total%3 == 0:
		channels = 3
	default:
		return nil, fmt.Errorf("unsupported npy shape %v for a color array", shape)
	}

	values, err := decodeValues(descr, body, total)
	if err != nil {
		return nil, err
	}

	// Float calibration dumps are normalized; scale them to 8-bit unless
	// they already exceed 1.
	if descr != "|u1" {
		max := 0.0
		for _, v := range values {
			if v > max {
				max = v
			}
		}
		if max <= 1.0 {
			for i := range values {
				values[i] *= 255
			}
		}
	}

	n := total / channels
	out := make([]RGB, n)
	for i := 0; i < n; i++ {
		base := i * channels
		out[i] = RGB{clamp8(values[base]), clamp8(values[base+1]), clamp8(values[base+2])}
	}
	return out, nil
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func decodeValues(descr string, body []byte, total int) ([]float64, error) {
	values := make([]float64, total)
	switch descr {
	case "|u1", "<u1":
		if len(body) < total {
			return nil, fmt.Errorf("npy body too short: have %d values, want %d", len(body), total)
		}
		for i := 0; i < total; i++ {
			values[i] = float64(body[i])
		}
	case "<f4":
		if len(body) < total*4 {
			return nil, fmt.Errorf("npy body too short for %d float32 values", total)
		}
		for i := 0; i < total; i++ {
			bits := binary.LittleEndian.Uint32(body[i*4:])
			values[i] = float64(math.Float32frombits(bits))
		}
	case "<f8":
		if len(body) < total*8 {
			return nil, fmt.Errorf("npy body too short for %d float64 values", total)
		}
		for i := 0; i < total; i++ {
			bits := binary.LittleEndian.Uint64(body[i*8:])
			values[i] = math.Float64frombits(bits)
		}
	default:
		return nil, fmt.Errorf("unsupported npy dtype %q", descr)
	}
	return values, nil
}

// headerField extracts the value of one key from the NPY header dict
// literal, stripping quotes.
func headerField(header, key string) (string, error) {
	idx := strings.Index(header, "'"+key+"'")
	if idx < 0 {
		return "", fmt.Errorf("npy header missing %q", key)
	}
	rest := header[idx+len(key)+2:]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", fmt.Errorf("malformed npy header near %q", key)
	}
	rest = rest[colon+1:]
	end := strings.IndexAny(rest, ",}")
	if end < 0 {
		end = len(rest)
	}
	return strings.Trim(strings.TrimSpace(rest[:end]), "'\""), nil
}

// headerShape parses the shape tuple, e.g. "(1024, 3)".
func headerShape(header string) ([]int, error) {
	idx := strings.Index(header, "'shape'")
	if idx < 0 {
		return nil, fmt.Errorf("npy header missing 'shape'")
	}
	open := strings.Index(header[idx:], "(")
	close := strings.Index(header[idx:], ")")
	if open < 0 || close < 0 || close < open {
		return nil, fmt.Errorf("malformed npy shape")
	}
	inner := header[idx+open+1 : idx+close]
	var shape []int
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("malformed npy shape dimension %q", part)
		}
		shape = append(shape, d)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("empty npy shape")
	}
	return shape, nil
}
