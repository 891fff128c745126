// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sourcemap

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	vlqShift    = 5
	vlqBase     = 1 << vlqShift
	vlqMask     = vlqBase - 1
	vlqContinue = vlqBase
)

var base64Values = func() [128]int8 {
	var values [128]int8
	for i := range values {
		values[i] = -1
	}
	for i, c := range base64Chars {
		values[c] = int8(i)
	}
	return values
}()

// EncodeVLQ appends the base64 VLQ encoding of v to b.
// The sign is stored in the least significant bit.
func EncodeVLQ(b *strings.Builder, v int) {
	u := uint64(v) << 1
	if v < 0 {
		u = uint64(-v)<<1 | 1
	}
	for {
		digit := u & vlqMask
		u >>= vlqShift
		if u > 0 {
			digit |= vlqContinue
		}
		b.WriteByte(base64Chars[digit])
		if u == 0 {
			return
		}
	}
}

// DecodeVLQ decodes the first base64 VLQ value of s.
// It returns the value and the number of bytes read.
func DecodeVLQ(s string) (int, int, error) {
	var u uint64
	shift := uint(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 128 || base64Values[c] < 0 {
			return 0, 0, errors.Errorf("invalid base64 character %q", c)
		}
		if shift > 60 {
			return 0, 0, errors.Errorf("VLQ value overflow")
		}
		digit := uint64(base64Values[c])
		u |= (digit & vlqMask) << shift
		if digit&vlqContinue == 0 {
			v := int(u >> 1)
			if u&1 == 1 {
				v = -v
			}
			return v, i + 1, nil
		}
		shift += vlqShift
	}
	return 0, 0, errors.Errorf("unterminated VLQ value")
}
