// Copyright 2021 Andrew Werner.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package abstract

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// Column blocks start with a tag byte recording whether the payload is lz4
// compressed. Columns which lz4 would not shrink are stored raw.
const (
	blockRaw byte = iota
	blockLZ4
)

func compressUint32s(data []uint32) ([]byte, error) {
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return compressBlock(buf)
}

func decompressUint32s(block []byte, out []uint32) error {
	buf := make([]byte, 4*len(out))
	if err := decompressBlock(block, buf); err != nil {
		return err
	}
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return nil
}

func compressUint64s(data []uint64) ([]byte, error) {
	buf := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(buf[8*i:], v)
	}
	return compressBlock(buf)
}

func decompressUint64s(block []byte, out []uint64) error {
	buf := make([]byte, 8*len(out))
	if err := decompressBlock(block, buf); err != nil {
		return err
	}
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[8*i:])
	}
	return nil
}

func compressBlock(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return []byte{blockRaw}, nil
	}
	dst := make([]byte, 1+lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst[1:], nil)
	if err != nil {
		return nil, fmt.Errorf("abstract: compressing column: %w", err)
	}
	if n == 0 || n >= len(src) {
		dst = append(dst[:1], src...)
		dst[0] = blockRaw
		return dst, nil
	}
	dst[0] = blockLZ4
	return dst[:1+n], nil
}

func decompressBlock(block, dst []byte) error {
	if len(block) == 0 {
		return fmt.Errorf("abstract: empty column block")
	}
	switch block[0] {
	case blockRaw:
		if len(block)-1 != len(dst) {
			return fmt.Errorf("abstract: raw column has %d bytes, want %d", len(block)-1, len(dst))
		}
		copy(dst, block[1:])
		return nil
	case blockLZ4:
		n, err := lz4.UncompressBlock(block[1:], dst)
		if err != nil {
			return fmt.Errorf("abstract: decompressing column: %w", err)
		}
		if n != len(dst) {
			return fmt.Errorf("abstract: column decompressed to %d bytes, want %d", n, len(dst))
		}
		return nil
	default:
		return fmt.Errorf("abstract: unknown column block tag %d", block[0])
	}
}
