package orm

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/custody/errors"
)

// Counter is a minimal model used in the orm tests.
type Counter struct {
	Name  string   `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Count uint64   `protobuf:"varint,2,opt,name=count,proto3" json:"count,omitempty"`
	Tags  []uint64 `protobuf:"varint,3,rep,packed,name=tags,proto3" json:"tags,omitempty"`
}

func (m *Counter) Reset()         { *m = Counter{} }
func (m *Counter) String() string { return proto.CompactTextString(m) }
func (*Counter) ProtoMessage()    {}

func (m *Counter) Validate() error {
	if m.Name == "" {
		return errors.Wrap(errors.ErrEmpty, "name")
	}
	return nil
}

// Other is used to check type safety of the buckets.
type Other struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
}

func (m *Other) Reset()         { *m = Other{} }
func (m *Other) String() string { return proto.CompactTextString(m) }
func (*Other) ProtoMessage()    {}
func (m *Other) Validate() error { return nil }
