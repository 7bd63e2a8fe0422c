// Copyright 2025 Sovdef Labs
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


package storage

import (
	"fmt"

	"github.com/sovdef/filesearch/core"
)

// MarshalStore serializes a Store to bytes.
func MarshalStore(store *core.Store) []byte {
	buf := make([]byte, core.StoreMUS.Size(*store))
	core.StoreMUS.Marshal(*store, buf)
	return buf
}

// UnmarshalStore deserializes a Store from bytes.
func UnmarshalStore(data []byte) (*core.Store, error) {
	store, _, err := core.StoreMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &store, nil
}

// MarshalFileDescriptor serializes a FileDescriptor to bytes.
func MarshalFileDescriptor(fd *core.FileDescriptor) []byte {
	buf := make([]byte, core.FileDescriptorMUS.Size(*fd))
	core.FileDescriptorMUS.Marshal(*fd, buf)
	return buf
}

// UnmarshalFileDescriptor deserializes a FileDescriptor from bytes.
func UnmarshalFileDescriptor(data []byte) (*core.FileDescriptor, error) {
	fd, _, err := core.FileDescriptorMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &fd, nil
}
