package lut

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/gzip"
)

// Merged LUT persistence: a gzip-compressed CBOR record of the unified
// 8-slot table. The archive is what the external persistence step stores
// under the auto-generated Merged_{label}_{date}_{time} name.

type mergedArchive struct {
	Version int                      `cbor:"version"`
	Label   string                   `cbor:"label"`
	Created time.Time                `cbor:"created"`
	Slots   [NumCanonical]MergedSlot `cbor:"slots"`
	Samples []Sample                 `cbor:"samples"`
	Stats   MergeStats               `cbor:"stats"`
}

const archiveVersion = 1

// WriteArchive serializes a merged LUT to w.
func WriteArchive(m *MergedLUT, w io.Writer) error {
	payload, err := cbor.Marshal(mergedArchive{
		Version: archiveVersion,
		Label:   m.label,
		Created: m.Created,
		Slots:   m.Slots,
		Samples: m.samples,
		Stats:   m.Stats,
	})
	if err != nil {
		return fmt.Errorf("encode merged lut: %w", err)
	}
	zw := gzip.NewWriter(w)
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("compress merged lut: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress merged lut: %w", err)
	}
	return nil
}

// ReadArchive restores a merged LUT written by WriteArchive. A payload
// that does not decode is a *FormatError, consistent with calibration file
// loading.
func ReadArchive(r io.Reader) (*MergedLUT, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, &FormatError{Reason: "not a merged LUT archive", Err: err}
	}
	defer zr.Close()
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, &FormatError{Reason: "corrupt merged LUT archive", Err: err}
	}
	var a mergedArchive
	if err := cbor.Unmarshal(payload, &a); err != nil {
		return nil, &FormatError{Reason: "corrupt merged LUT payload", Err: err}
	}
	if a.Version != archiveVersion {
		return nil, &FormatError{Reason: fmt.Sprintf("unsupported merged LUT version %d", a.Version)}
	}
	return &MergedLUT{
		Slots:   a.Slots,
		Created: a.Created,
		Stats:   a.Stats,
		label:   a.Label,
		samples: a.Samples,
	}, nil
}
