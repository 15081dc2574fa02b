// Package artnet decodes Art-Net ArtDmx packets and receives them over UDP.
package artnet

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// Port is the well-known Art-Net UDP port.
const Port = 6454

// Wire constants for ArtDmx.
const (
	OpDMX           uint16 = 0x5000
	ProtocolVersion uint16 = 14
	headerLen              = 18
	maxPayload             = 512
)

var packetID = []byte("Art-Net\x00")

// Decode errors. The transport treats all of them as ignorable.
var (
	ErrShortPacket = errors.New("artnet: packet too short")
	ErrBadID       = errors.New("artnet: missing Art-Net identifier")
	ErrNotDMX      = errors.New("artnet: not an ArtDmx packet")
	ErrBadVersion  = errors.New("artnet: unsupported protocol version")
)

// Frame is one ArtDmx payload addressed to a universe.
type Frame struct {
	Universe uint16
	Sequence uint8
	Payload  []byte
}

// Decode parses an ArtDmx datagram. The returned payload is a copy and is
// truncated to the bytes actually present in the datagram.
func Decode(datagram []byte) (Frame, error) {
	if len(datagram) < 10 {
		return Frame{}, ErrShortPacket
	}
	if !bytes.Equal(datagram[:8], packetID) {
		return Frame{}, ErrBadID
	}
	if binary.LittleEndian.Uint16(datagram[8:10]) != OpDMX {
		return Frame{}, ErrNotDMX
	}
	if len(datagram) < headerLen {
		return Frame{}, ErrShortPacket
	}
	if binary.BigEndian.Uint16(datagram[10:12]) < ProtocolVersion {
		return Frame{}, ErrBadVersion
	}

	// Port-Address: 7-bit Net, 8-bit SubUni.
	universe := uint16(datagram[15]&0x7f)<<8 | uint16(datagram[14])

	length := int(binary.BigEndian.Uint16(datagram[16:18]))
	if length > maxPayload {
		length = maxPayload
	}
	data := datagram[headerLen:]
	if length < len(data) {
		data = data[:length]
	}

	payload := make([]byte, len(data))
	copy(payload, data)

	return Frame{
		Universe: universe,
		Sequence: datagram[12],
		Payload:  payload,
	}, nil
}

// Encode builds an ArtDmx datagram for f. Payloads longer than 512 bytes are
// truncated and odd lengths are padded with a zero byte.
func Encode(f Frame) []byte {
	payload := f.Payload
	if len(payload) > maxPayload {
		payload = payload[:maxPayload]
	}
	length := len(payload)
	if length%2 == 1 {
		length++
	}

	buf := make([]byte, headerLen+length)
	copy(buf, packetID)
	binary.LittleEndian.PutUint16(buf[8:10], OpDMX)
	binary.BigEndian.PutUint16(buf[10:12], ProtocolVersion)
	buf[12] = f.Sequence
	buf[13] = 0
	buf[14] = byte(f.Universe)
	buf[15] = byte(f.Universe>>8) & 0x7f
	binary.BigEndian.PutUint16(buf[16:18], uint16(length))
	copy(buf[headerLen:], payload)
	return buf
}
