package gallery

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/palmvec/codec"
	"github.com/hupe1980/palmvec/internal/conv"
	"github.com/hupe1980/palmvec/internal/hash"
)

const (
	snapshotMagic   = "PALMGAL1"
	snapshotVersion = 1
	headerSize      = 8 + 2 + 1 + 1 + 4 + 4 + 4 + 4
)

// SnapshotOptions configures Encode and Decode.
type SnapshotOptions struct {
	Compression Compression
	// Codec serializes the record payload. Defaults to codec.Default.
	Codec codec.Codec
	// Gallery configures galleries created by Decode.
	Gallery []func(o *Options)
}

// DefaultSnapshotOptions returns LZ4 compression with the default codec.
func DefaultSnapshotOptions() SnapshotOptions {
	return SnapshotOptions{
		Compression: CompressionLZ4,
		Codec:       codec.Default,
	}
}

func snapshotOptions(optFns []func(o *SnapshotOptions)) SnapshotOptions {
	opts := DefaultSnapshotOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	return opts
}

type snapshotRecord struct {
	ID        string    `json:"id"`
	Embedding []float64 `json:"embedding"`
	Verified  bool      `json:"verified"`
}

// Header is the fixed-size prefix of a snapshot.
type Header struct {
	Version     uint16
	Compression Compression
	Count       uint32
	RawLength   uint32
	StoredLen   uint32
	Checksum    uint32
}

// Encode serializes the live records of g in ordinal order.
func Encode(g *Gallery, optFns ...func(o *SnapshotOptions)) ([]byte, error) {
	opts := snapshotOptions(optFns)

	records := g.Records()
	payload := make([]snapshotRecord, len(records))
	for i, r := range records {
		payload[i] = snapshotRecord{ID: r.ID, Embedding: r.Vector, Verified: r.Verified}
	}

	raw, err := opts.Codec.Marshal(payload)
	if err != nil {
		return nil, err
	}

	stored, used, err := compress(raw, opts.Compression)
	if err != nil {
		return nil, err
	}

	sizes, err := conv.HeaderFields([]string{"record count", "raw length", "stored length"},
		len(records), len(raw), len(stored))
	if err != nil {
		return nil, fmt.Errorf("gallery: %w", err)
	}

	h := Header{
		Version:     snapshotVersion,
		Compression: used,
		Count:       sizes[0],
		RawLength:   sizes[1],
		StoredLen:   sizes[2],
		Checksum:    hash.CRC32C(stored),
	}

	out := make([]byte, headerSize+len(stored))
	putHeader(out, h)
	copy(out[headerSize:], stored)
	return out, nil
}

func putHeader(dst []byte, h Header) {
	copy(dst[0:8], snapshotMagic)
	binary.LittleEndian.PutUint16(dst[8:], h.Version)
	dst[10] = byte(h.Compression)
	dst[11] = 0
	binary.LittleEndian.PutUint32(dst[12:], h.Count)
	binary.LittleEndian.PutUint32(dst[16:], h.RawLength)
	binary.LittleEndian.PutUint32(dst[20:], h.StoredLen)
	binary.LittleEndian.PutUint32(dst[24:], h.Checksum)
}

// ReadHeader parses and validates the snapshot header without touching the payload.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, corrupt("%d bytes, header needs %d", len(data), headerSize)
	}
	if string(data[0:8]) != snapshotMagic {
		return Header{}, corrupt("bad magic %q", data[0:8])
	}

	h := Header{
		Version:     binary.LittleEndian.Uint16(data[8:]),
		Compression: Compression(data[10]),
		Count:       binary.LittleEndian.Uint32(data[12:]),
		RawLength:   binary.LittleEndian.Uint32(data[16:]),
		StoredLen:   binary.LittleEndian.Uint32(data[20:]),
		Checksum:    binary.LittleEndian.Uint32(data[24:]),
	}
	if h.Version != snapshotVersion {
		return Header{}, corrupt("unsupported version %d", h.Version)
	}
	if uint64(len(data)-headerSize) != uint64(h.StoredLen) {
		return Header{}, corrupt("payload is %d bytes, header says %d", len(data)-headerSize, h.StoredLen)
	}
	return h, nil
}

// Decode parses a snapshot into a new Gallery.
func Decode(data []byte, optFns ...func(o *SnapshotOptions)) (*Gallery, error) {
	opts := snapshotOptions(optFns)

	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	stored := data[headerSize:]
	if sum := hash.CRC32C(stored); sum != h.Checksum {
		return nil, &ChecksumError{Expected: h.Checksum, Actual: sum}
	}

	raw, err := decompress(stored, h.Compression, h.RawLength)
	if err != nil {
		return nil, err
	}

	var payload []snapshotRecord
	if err := opts.Codec.Unmarshal(raw, &payload); err != nil {
		return nil, corrupt("payload: %v", err)
	}
	if uint32(len(payload)) != h.Count {
		return nil, corrupt("%d records, header says %d", len(payload), h.Count)
	}

	g := New(opts.Gallery...)
	for _, r := range payload {
		if _, dup := g.Get(r.ID); dup {
			return nil, corrupt("duplicate record %q", r.ID)
		}
		if err := g.Upsert(Record{ID: r.ID, Vector: r.Embedding, Verified: r.Verified}); err != nil {
			return nil, corrupt("record %q: %v", r.ID, err)
		}
	}
	return g, nil
}
