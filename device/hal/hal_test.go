package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointAddress(t *testing.T) {
	tests := []struct {
		name   string
		number uint8
		dir    Direction
		want   EndpointAddress
		str    string
	}{
		{"EP0 OUT", 0, DirectionOut, 0x00, "EP0 OUT"},
		{"EP1 IN", 1, DirectionIn, 0x81, "EP1 IN"},
		{"EP7 OUT", 7, DirectionOut, 0x07, "EP7 OUT"},
		{"EP15 IN", 15, DirectionIn, 0x8F, "EP15 IN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := NewEndpointAddress(tt.number, tt.dir)
			assert.Equal(t, tt.want, addr)
			assert.Equal(t, tt.number, addr.Number())
			assert.Equal(t, tt.dir, addr.Direction())
			assert.Equal(t, tt.dir == DirectionIn, addr.IsIn())
			assert.Equal(t, tt.str, addr.String())
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Full Speed", SpeedFull.String())
	assert.Equal(t, "Unknown", Speed(9).String())
	assert.Equal(t, "Bulk", EndpointTypeBulk.String())
	assert.Equal(t, "Unknown(7)", EndpointType(7).String())
	assert.Equal(t, "reset", PollReset.String())
	assert.Equal(t, "unknown", PollEvent(99).String())
}

func TestSetupPacketWord(t *testing.T) {
	// SET_ADDRESS(5)
	raw := []byte{0x00, 0x05, 0x05, 0x00, 0x00, 0x00, 0x00, 0x00}

	var s SetupPacket
	require.NoError(t, ParseSetupPacket(raw, &s))
	assert.Equal(t, uint8(0x00), s.RequestType)
	assert.Equal(t, uint8(RequestSetAddress), s.Request)
	assert.Equal(t, uint16(5), s.Value)
	assert.True(t, s.IsSetAddress())
	assert.False(t, s.IsDeviceToHost())

	w := s.Word()
	assert.Equal(t, uint64(0x0000_0000_0005_0500), w)
	assert.Equal(t, s, SetupPacketFromWord(w))

	buf := make([]byte, SetupPacketSize)
	assert.Equal(t, SetupPacketSize, s.MarshalTo(buf))
	assert.Equal(t, raw, buf)
	assert.Zero(t, s.MarshalTo(buf[:4]))
}

func TestParseSetupPacketShort(t *testing.T) {
	var s SetupPacket
	assert.Error(t, ParseSetupPacket([]byte{0x80, 0x06}, &s))
}

func TestGetDescriptorDirection(t *testing.T) {
	s := SetupPacket{RequestType: 0x80, Request: RequestGetDescriptor, Value: 0x0100, Length: 18}
	assert.True(t, s.IsDeviceToHost())
	assert.False(t, s.IsSetAddress())
	assert.Equal(t, uint8(DescriptorTypeDevice), s.DescriptorType())
}
