package models

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/simstore/internal/core/observability/log"
	"github.com/zeusync/simstore/pkg/encoding"
)

const kindHandle KindID = 100

type handle struct {
	disposed int
}

func (*handle) Kind() KindID { return kindHandle }
func (h *handle) Dispose()   { h.disposed++ }

func init() {
	MustRegisterKind(KindInfo{ID: kindHandle, Name: "test_handle", Caps: CapDisposable})
}

var fixedGUID = uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")

func recordSink(t *testing.T) (*log.Sink, *[]log.Record) {
	t.Helper()
	sink := log.NewSink()
	var got []log.Record
	cancel := sink.Subscribe(func(r log.Record) { got = append(got, r) })
	t.Cleanup(cancel)
	return sink, &got
}

func TestEntity_RoundTrip(t *testing.T) {
	f := NewFactory(log.NewSink())
	e, err := f.NewWithGUID(EntityKindBox, fixedGUID)
	require.NoError(t, err)
	Get[*Position](e).Vec2[0] = 1.5
	Get[*Position](e).Vec2[1] = -2.25

	raw, err := encoding.Marshal(e)
	require.NoError(t, err)

	want := []byte{
		0x00, 0x01, 0x00, 0x00, 0x03,
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
		0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
		0x00, 0x02, 0x00, 0x3f, 0xc0, 0x00, 0x00, 0xc0, 0x10, 0x00, 0x00,
		0xff, 0xff,
	}
	assert.Equal(t, want, raw)
	assert.Equal(t, len(want), e.SerializeSize())

	decoded, err := f.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, EntityKindBox, decoded.EntityKind())
	assert.Equal(t, fixedGUID, decoded.GUID())

	pos, ok := TryGet[*Position](decoded)
	require.True(t, ok)
	assert.Equal(t, float32(1.5), pos.X())
	assert.Equal(t, float32(-2.25), pos.Y())
}

func TestEntity_EncodeToMatchesSerialize(t *testing.T) {
	e, err := NewFactory(nil).NewWithGUID(EntityKindPlayer, fixedGUID)
	require.NoError(t, err)
	Get[*Position](e).Vec2 = [2]float32{float32(math.Inf(1)), float32(math.Copysign(0, -1))}

	raw, err := encoding.Marshal(e)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := e.EncodeTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(raw)), n)
	assert.Equal(t, raw, buf.Bytes())
}

func TestEntity_SerializeSkipsNonSerializable(t *testing.T) {
	e := NewEntity(log.NewSink())
	require.True(t, Add(e, &handle{}))
	assert.Equal(t, encoding.Uint16Size, e.SerializeSize())

	raw, err := encoding.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff}, raw)
}

func TestEntity_SerializeBufferTooSmall(t *testing.T) {
	e, err := NewFactory(nil).New(EntityKindBox)
	require.NoError(t, err)

	_, err = e.Serialize(make([]byte, e.SerializeSize()-1), 0)
	assert.ErrorIs(t, err, encoding.ErrBufferBounds)
}

func TestEntity_DecodeUnknownTag(t *testing.T) {
	e := NewEntity(log.NewSink())
	_, err := e.Deserialize([]byte{0x00, 0x07, 0x00, 0xff, 0xff}, 0)

	require.ErrorIs(t, err, ErrUnknownComponentTag)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, Tag(7), de.Tag)
	assert.Equal(t, 0, de.Offset)
	assert.Equal(t, uuid.Nil, de.GUID)
}

func TestEntity_DecodeUnknownTagAfterIdentity(t *testing.T) {
	src, err := NewFactory(nil).NewWithGUID(EntityKindVehicle, fixedGUID)
	require.NoError(t, err)
	Remove[*Position](src)

	raw, err := encoding.Marshal(src)
	require.NoError(t, err)
	// swap the sentinel for an unregistered tag
	raw[len(raw)-2], raw[len(raw)-1] = 0x12, 0x34

	_, err = NewEntity(log.NewSink()).Deserialize(raw, 0)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, Tag(0x1234), de.Tag)
	assert.Equal(t, len(raw)-2, de.Offset)
	assert.Equal(t, fixedGUID, de.GUID)
	assert.Contains(t, de.Error(), fixedGUID.String())
}

func TestEntity_DecodeTruncated(t *testing.T) {
	src, err := NewFactory(nil).New(EntityKindBox)
	require.NoError(t, err)
	raw, err := encoding.Marshal(src)
	require.NoError(t, err)

	_, err = NewEntity(log.NewSink()).Deserialize(raw[:len(raw)-5], 0)
	assert.ErrorIs(t, err, encoding.ErrBufferBounds)
}

func TestEntity_FailedDecodeAttachesNothing(t *testing.T) {
	src, err := NewFactory(nil).NewWithGUID(EntityKindBox, fixedGUID)
	require.NoError(t, err)
	raw, err := encoding.Marshal(src)
	require.NoError(t, err)

	target := NewEntity(log.NewSink())
	require.True(t, Add(target, &EntityData{ID: EntityKindPlayer}))

	_, err = target.Deserialize(raw[:len(raw)-5], 0)
	require.ErrorIs(t, err, encoding.ErrBufferBounds)

	// the identity record decoded in place, the truncated position never joined
	assert.Equal(t, 1, target.Len())
	assert.False(t, Has[*Position](target))
	assert.Equal(t, EntityKindBox, target.EntityKind())
}

func TestEntity_DecodeTwiceOverwrites(t *testing.T) {
	f := NewFactory(nil)
	first, err := f.NewWithGUID(EntityKindBox, fixedGUID)
	require.NoError(t, err)
	Get[*Position](first).Vec2 = [2]float32{1, 2}
	second, err := f.NewWithGUID(EntityKindBox, fixedGUID)
	require.NoError(t, err)
	Get[*Position](second).Vec2 = [2]float32{3, 4}

	a, err := encoding.Marshal(first)
	require.NoError(t, err)
	b, err := encoding.Marshal(second)
	require.NoError(t, err)

	target := NewEntity(log.NewSink())
	require.NoError(t, encoding.Unmarshal(a, target))
	pos := Get[*Position](target)
	require.NoError(t, encoding.Unmarshal(b, target))

	assert.Equal(t, 2, target.Len())
	assert.Same(t, pos, Get[*Position](target))
	assert.Equal(t, float32(3), pos.X())
	assert.Equal(t, float32(4), pos.Y())
}

func TestEntity_DuplicateAddWarns(t *testing.T) {
	sink, got := recordSink(t)
	e := NewEntity(sink)

	first := NewPosition(1, 1)
	require.True(t, Add(e, first))
	assert.False(t, Add(e, NewPosition(2, 2)))

	assert.Same(t, first, Get[*Position](e))
	require.Len(t, *got, 1)
	assert.Equal(t, log.SeverityWarning, (*got)[0].Severity)
	assert.Contains(t, (*got)[0].Message, ErrDuplicateComponent.Error())
}

func TestEntity_GetMissingPublishesError(t *testing.T) {
	sink, got := recordSink(t)
	e := NewEntity(sink)

	assert.Nil(t, Get[*Position](e))
	_, ok := TryGet[*Position](e)
	assert.False(t, ok)

	require.Len(t, *got, 1)
	assert.Equal(t, log.SeverityError, (*got)[0].Severity)
	assert.NotEmpty(t, (*got)[0].Stack)
}

func TestEntity_InterfaceTypeArgumentsMatchNothing(t *testing.T) {
	sink, got := recordSink(t)
	e := NewEntity(sink)
	require.True(t, Add(e, NewPosition(1, 2)))

	assert.NotPanics(t, func() {
		_, ok := TryGet[Serializable](e)
		assert.False(t, ok)
		assert.False(t, Has[Disposable](e))
		assert.Nil(t, Get[Serializable](e))
		Remove[Serializable](e)
	})
	assert.Equal(t, 1, e.Len())
	require.Len(t, *got, 1)
	assert.Contains(t, (*got)[0].Message, ErrComponentNotFound.Error())
}

func TestEntity_RemoveDisposesAndReindexes(t *testing.T) {
	e := NewEntity(log.NewSink())
	h := &handle{}
	require.True(t, Add(e, h))
	require.True(t, Add(e, NewPosition(5, 6)))
	require.True(t, Add(e, &EntityData{ID: EntityKindBox}))

	Remove[*handle](e)
	Remove[*handle](e)

	assert.Equal(t, 1, h.disposed)
	assert.False(t, Has[*handle](e))
	assert.Equal(t, float32(5), Get[*Position](e).X())
	assert.Equal(t, EntityKindBox, e.EntityKind())

	var order []KindID
	e.Each(func(k KindID, _ Component) bool {
		order = append(order, k)
		return true
	})
	assert.Equal(t, []KindID{KindPosition, KindEntityData}, order)
}

func TestEntity_DisposeKeepsComponents(t *testing.T) {
	e := NewEntity(log.NewSink())
	h := &handle{}
	Add(e, h)
	e.Dispose()
	assert.Equal(t, 1, h.disposed)
	assert.True(t, Has[*handle](e))
}

func TestFactory_UnknownKind(t *testing.T) {
	_, err := NewFactory(nil).New(EntityKindNone)
	assert.ErrorIs(t, err, ErrUnknownEntityKind)
}

func TestFactory_DefineOverridesPopulator(t *testing.T) {
	f := NewFactory(nil)
	f.Define(EntityKindNone, func(e *Entity) { Add(e, &handle{}) })

	e, err := f.New(EntityKindNone)
	require.NoError(t, err)
	assert.True(t, Has[*handle](e))
	assert.True(t, Has[*EntityData](e))
	assert.NotEqual(t, uuid.Nil, e.GUID())
}

func TestFactory_DecodeRejectsTrailingBytes(t *testing.T) {
	f := NewFactory(nil)
	e, err := f.New(EntityKindBox)
	require.NoError(t, err)
	raw, err := encoding.Marshal(e)
	require.NoError(t, err)

	_, err = f.Decode(append(raw, 0x00))
	assert.Error(t, err)
}
