package encoding

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegers_RoundTrip(t *testing.T) {
	buf := make([]byte, 64)

	for _, v := range []int64{0, 1, -1, math.MinInt64, math.MaxInt64, -123456789} {
		n, err := PutInt64(buf, 3, v)
		require.NoError(t, err)
		require.Equal(t, Uint64Size, n)
		got, m, err := Int64(buf, 3)
		require.NoError(t, err)
		assert.Equal(t, n, m)
		assert.Equal(t, v, got)
	}

	for _, v := range []int32{0, -1, math.MinInt32, math.MaxInt32} {
		_, err := PutInt32(buf, 0, v)
		require.NoError(t, err)
		got, _, err := Int32(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	for _, v := range []int16{0, -1, math.MinInt16, math.MaxInt16} {
		_, err := PutInt16(buf, 1, v)
		require.NoError(t, err)
		got, _, err := Int16(buf, 1)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	for _, v := range []int8{0, -1, math.MinInt8, math.MaxInt8} {
		_, err := PutInt8(buf, 7, v)
		require.NoError(t, err)
		got, _, err := Int8(buf, 7)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	_, err := PutUint64(buf, 0, math.MaxUint64)
	require.NoError(t, err)
	u64, _, err := Uint64(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), u64)

	_, err = PutUint32(buf, 0, math.MaxUint32)
	require.NoError(t, err)
	u32, _, err := Uint32(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), u32)
}

func TestIntegers_BigEndianLayout(t *testing.T) {
	buf := make([]byte, 8)

	_, err := PutUint16(buf, 0, 0x0102)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, buf[:2])

	_, err = PutUint32(buf, 0, 0x01020304)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf[:4])

	_, err = PutInt64(buf, 0, -2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe}, buf)
}

func TestFloats_BitExact(t *testing.T) {
	buf := make([]byte, 8)

	f32s := []float32{
		0, float32(math.Copysign(0, -1)), 1.5, -2.25,
		math.MaxFloat32, math.SmallestNonzeroFloat32,
		float32(math.Inf(1)), float32(math.Inf(-1)),
		math.Float32frombits(0x7fc00001), // quiet NaN with payload
	}
	for _, v := range f32s {
		_, err := PutFloat32(buf, 2, v)
		require.NoError(t, err)
		got, n, err := Float32(buf, 2)
		require.NoError(t, err)
		assert.Equal(t, Float32Size, n)
		assert.Equal(t, math.Float32bits(v), math.Float32bits(got))
	}

	f64s := []float64{
		0, 1.5, -2.25, math.MaxFloat64, math.SmallestNonzeroFloat64,
		math.Inf(1), math.Inf(-1), math.Float64frombits(0x7ff8000000000123),
	}
	for _, v := range f64s {
		_, err := PutFloat64(buf, 0, v)
		require.NoError(t, err)
		got, _, err := Float64(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(v), math.Float64bits(got))
	}

	_, err := PutFloat32(buf, 0, 1.5)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3f, 0xc0, 0x00, 0x00}, buf[:4])
}

func TestBool_RoundTrip(t *testing.T) {
	buf := make([]byte, 2)
	_, err := PutBool(buf, 0, true)
	require.NoError(t, err)
	_, err = PutBool(buf, 1, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0}, buf)

	v, _, err := Bool(buf, 0)
	require.NoError(t, err)
	assert.True(t, v)
	v, _, err = Bool(buf, 1)
	require.NoError(t, err)
	assert.False(t, v)
}

func TestStrings_RawAndSized(t *testing.T) {
	s := "héllo, мир"
	buf := make([]byte, SizedStringSize(s)+StringSize(s))

	off := 0
	n, err := PutSizedString(buf, off, s)
	require.NoError(t, err)
	assert.Equal(t, SizedStringSize(s), n)
	off += n
	n, err = PutString(buf, off, s)
	require.NoError(t, err)
	assert.Equal(t, StringSize(s), n)

	got, m, err := SizedString(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, s, got)
	raw, _, err := String(buf, m, StringSize(s))
	require.NoError(t, err)
	assert.Equal(t, s, raw)
}

func TestStrings_Empty(t *testing.T) {
	buf := make([]byte, LengthPrefixSize)
	n, err := PutSizedString(buf, 0, "")
	require.NoError(t, err)
	assert.Equal(t, LengthPrefixSize, n)
	assert.Equal(t, []byte{0, 0, 0, 0}, buf)

	got, m, err := SizedString(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "", got)
	assert.Equal(t, LengthPrefixSize, m)

	n, err = PutString(buf, 0, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUUIDAndBytes_RoundTrip(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	buf := make([]byte, UUIDSize+3)

	n, err := PutUUID(buf, 0, id)
	require.NoError(t, err)
	assert.Equal(t, UUIDSize, n)
	assert.Equal(t, id[:], buf[:UUIDSize])

	got, _, err := UUID(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = PutBytes(buf, UUIDSize, []byte{9, 8, 7})
	require.NoError(t, err)
	block, m, err := Bytes(buf, UUIDSize, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, m)
	assert.Equal(t, []byte{9, 8, 7}, block)
}

func TestBounds_Errors(t *testing.T) {
	buf := make([]byte, 3)

	_, err := PutUint32(buf, 0, 1)
	require.ErrorIs(t, err, ErrBufferBounds)

	_, _, err = Uint16(buf, 2)
	require.ErrorIs(t, err, ErrBufferBounds)

	_, err = PutUint8(buf, -1, 1)
	require.ErrorIs(t, err, ErrBufferBounds)

	_, _, err = Uint8(buf, 3)
	require.ErrorIs(t, err, ErrBufferBounds)

	_, err = PutSizedString(buf, 0, "")
	require.ErrorIs(t, err, ErrBufferBounds)

	var be *BoundsError
	_, _, err = UUID(buf, 0)
	require.ErrorAs(t, err, &be)
	assert.Equal(t, UUIDSize, be.Need)
	assert.Equal(t, 3, be.Len)
}

func TestBounds_NegativeSizedLength(t *testing.T) {
	buf := make([]byte, 8)
	_, err := PutInt32(buf, 0, -5)
	require.NoError(t, err)
	_, _, err = SizedString(buf, 0)
	require.ErrorIs(t, err, ErrBufferBounds)
}

func TestLengthPrefix_RejectsOversizedStrings(t *testing.T) {
	n, err := lengthPrefix("put sized string", math.MaxInt32)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), n)

	if math.MaxInt == math.MaxInt32 {
		t.Skip("int cannot exceed an int32 prefix on this platform")
	}
	over := math.MaxInt32
	over++
	var be *BoundsError
	_, err = lengthPrefix("put sized string", over)
	require.ErrorAs(t, err, &be)
	assert.ErrorIs(t, err, ErrBufferBounds)
	assert.Equal(t, "put sized string", be.Op)
}

func TestWriter_MatchesBufferForm(t *testing.T) {
	id := uuid.New()
	var out bytes.Buffer
	w := NewWriter(&out)

	total := 0
	for _, step := range []func() (int, error){
		func() (int, error) { return w.WriteUint8(0xAB) },
		func() (int, error) { return w.WriteBool(true) },
		func() (int, error) { return w.WriteInt16(-2) },
		func() (int, error) { return w.WriteUint32(0xDEADBEEF) },
		func() (int, error) { return w.WriteInt64(math.MinInt64) },
		func() (int, error) { return w.WriteFloat32(-2.25) },
		func() (int, error) { return w.WriteFloat64(math.Inf(-1)) },
		func() (int, error) { return w.WriteSizedString("abc") },
		func() (int, error) { return w.WriteSizedString("") },
		func() (int, error) { return w.WriteString("xyz") },
		func() (int, error) { return w.WriteUUID(id) },
	} {
		n, err := step()
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, int64(total), w.Written())
	assert.Equal(t, total, out.Len())

	buf := make([]byte, total)
	off := 0
	for _, step := range []func() (int, error){
		func() (int, error) { return PutUint8(buf, off, 0xAB) },
		func() (int, error) { return PutBool(buf, off, true) },
		func() (int, error) { return PutInt16(buf, off, -2) },
		func() (int, error) { return PutUint32(buf, off, 0xDEADBEEF) },
		func() (int, error) { return PutInt64(buf, off, math.MinInt64) },
		func() (int, error) { return PutFloat32(buf, off, -2.25) },
		func() (int, error) { return PutFloat64(buf, off, math.Inf(-1)) },
		func() (int, error) { return PutSizedString(buf, off, "abc") },
		func() (int, error) { return PutSizedString(buf, off, "") },
		func() (int, error) { return PutString(buf, off, "xyz") },
		func() (int, error) { return PutUUID(buf, off, id) },
	} {
		n, err := step()
		require.NoError(t, err)
		off += n
	}
	assert.Equal(t, buf, out.Bytes())
}
