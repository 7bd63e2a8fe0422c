package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for persisted core types. The schema is small and fixed, so
// these are written by hand against the mus-go primitives. Timestamps are
// stored as Unix microseconds.
var (
	IDMUS             = idSer{}
	FileDescriptorMUS = fileDescriptorSer{}
	StoreMUS          = storeSer{}
)

var (
	_ mus.Serializer[ID]             = IDMUS
	_ mus.Serializer[FileDescriptor] = FileDescriptorMUS
	_ mus.Serializer[Store]          = StoreMUS
)

var fileSliceMUS = ord.NewSliceSer[FileDescriptor](FileDescriptorMUS)

type idSer struct{}

func (idSer) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idSer) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type fileDescriptorSer struct{}

func (fileDescriptorSer) Marshal(fd FileDescriptor, bs []byte) (n int) {
	n = ord.String.Marshal(fd.Name, bs)
	n += varint.Int64.Marshal(fd.Size, bs[n:])
	n += ord.String.Marshal(fd.MimeType, bs[n:])
	n += IDMUS.Marshal(fd.ContentHash, bs[n:])
	n += marshalTime(fd.UploadedAt, bs[n:])
	return n
}

func (fileDescriptorSer) Unmarshal(bs []byte) (fd FileDescriptor, n int, err error) {
	var n1 int
	if fd.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if fd.Size, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return fd, n + n1, err
	}
	n += n1
	if fd.MimeType, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return fd, n + n1, err
	}
	n += n1
	if fd.ContentHash, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return fd, n + n1, err
	}
	n += n1
	fd.UploadedAt, n1, err = unmarshalTime(bs[n:])
	return fd, n + n1, err
}

func (fileDescriptorSer) Size(fd FileDescriptor) int {
	return ord.String.Size(fd.Name) +
		varint.Int64.Size(fd.Size) +
		ord.String.Size(fd.MimeType) +
		IDMUS.Size(fd.ContentHash) +
		sizeTime(fd.UploadedAt)
}

func (fileDescriptorSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	if n1, err = varint.Int64.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = ord.String.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	if n1, err = IDMUS.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	n1, err = varint.Int64.Skip(bs[n:])
	return n + n1, err
}

type storeSer struct{}

func (storeSer) Marshal(s Store, bs []byte) (n int) {
	n = ord.String.Marshal(s.Name, bs)
	n += marshalTime(s.CreatedAt, bs[n:])
	n += fileSliceMUS.Marshal(s.Files, bs[n:])
	return n
}

func (storeSer) Unmarshal(bs []byte) (s Store, n int, err error) {
	var n1 int
	if s.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if s.CreatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return s, n + n1, err
	}
	n += n1
	s.Files, n1, err = fileSliceMUS.Unmarshal(bs[n:])
	return s, n + n1, err
}

func (storeSer) Size(s Store) int {
	return ord.String.Size(s.Name) + sizeTime(s.CreatedAt) + fileSliceMUS.Size(s.Files)
}

func (storeSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	if n, err = ord.String.Skip(bs); err != nil {
		return
	}
	if n1, err = varint.Int64.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	n1, err = fileSliceMUS.Skip(bs[n:])
	return n + n1, err
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}
