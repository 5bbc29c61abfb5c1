// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventcache

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/multiverse/lib/codec"
	"github.com/bureau-foundation/multiverse/messaging"
)

// compressionNone and compressionZstd are stored in the compression
// column of chunk_events. Protocol constants — changing them
// invalidates existing caches.
const (
	compressionNone = 0
	compressionZstd = 1
)

// compressThreshold is the minimum CBOR payload size, in bytes, at
// which compression is attempted. Smaller payloads (reactions,
// receipts, short messages) rarely shrink and always cost a frame
// header.
const compressThreshold = 256

// payloadDomainKey is the BLAKE3 keyed-hash domain for event payload
// checksums. The byte values are the ASCII encoding of the domain name,
// zero-padded to 32 bytes, so the key is inspectable in hex dumps.
var payloadDomainKey = [32]byte{
	'm', 'u', 'l', 't', 'i', 'v', 'e', 'r', 's', 'e', '.', 'c', 'a', 'c', 'h', 'e',
	'.', 'e', 'v', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// zstdEncoder and zstdDecoder are reused across calls. Both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("eventcache: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("eventcache: zstd decoder initialization failed: " + err.Error())
	}
}

// checksumPayload computes the keyed BLAKE3 digest of the uncompressed
// CBOR bytes. Checksums are always over uncompressed bytes so they
// survive a change of compression scheme.
func checksumPayload(data []byte) [32]byte {
	hasher, err := blake3.NewKeyed(payloadDomainKey[:])
	if err != nil {
		panic("eventcache: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// encodePayload marshals an event to deterministic CBOR and compresses
// it when large enough to benefit. Returns the stored bytes, the
// compression tag, and the checksum of the uncompressed CBOR.
func encodePayload(event *messaging.Event) (payload []byte, compression int, checksum [32]byte, err error) {
	encoded, err := codec.Marshal(event)
	if err != nil {
		return nil, 0, checksum, fmt.Errorf("eventcache: encode event payload: %w", err)
	}

	checksum = checksumPayload(encoded)

	if len(encoded) < compressThreshold {
		return encoded, compressionNone, checksum, nil
	}

	compressed := zstdEncoder.EncodeAll(encoded, nil)
	if len(compressed) >= len(encoded) {
		return encoded, compressionNone, checksum, nil
	}
	return compressed, compressionZstd, checksum, nil
}

// decodePayload reverses encodePayload, verifying the checksum before
// unmarshalling. A failed checksum or unknown compression tag returns
// an error; callers treat the containing chunk as missing.
func decodePayload(payload []byte, compression int, checksum []byte) (messaging.Event, error) {
	var event messaging.Event

	var encoded []byte
	switch compression {
	case compressionNone:
		encoded = payload
	case compressionZstd:
		decompressed, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return event, fmt.Errorf("eventcache: decompress event payload: %w", err)
		}
		encoded = decompressed
	default:
		return event, fmt.Errorf("eventcache: unknown compression tag %d", compression)
	}

	digest := checksumPayload(encoded)
	if !bytes.Equal(digest[:], checksum) {
		return event, fmt.Errorf("eventcache: event payload checksum mismatch")
	}

	if err := codec.Unmarshal(encoded, &event); err != nil {
		return event, fmt.Errorf("eventcache: decode event payload: %w", err)
	}
	return event, nil
}
