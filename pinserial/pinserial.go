// Package pinserial implements the pin bridge serial protocol. The host
// drives the shift register lines of a microcontroller and asks it for ADC
// readings; the microcontroller reports readings and button edges back.
//
// Every packet is a type byte, a little-endian body and the CRC32 (IEEE) of
// both.
package pinserial

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// Endianness defines the endianness of the protocol.
var Endianness = binary.LittleEndian

// MaxMessageLength bounds the message of error and log packets.
const MaxMessageLength = 1024

// Line names one of the shift register lines on the bridge.
type Line uint8

const (
	LineData Line = iota
	LineClock
	LineLatch
)

// String returns a string representation of the line.
func (l Line) String() string {
	switch l {
	case LineData:
		return "data"
	case LineClock:
		return "clock"
	case LineLatch:
		return "latch"
	default:
		return fmt.Sprintf("Line(%d)", l)
	}
}

// IncomingPacketType is the type of a packet sent to the bridge.
type IncomingPacketType uint8

const (
	TypeSetLinePacket IncomingPacketType = iota
	TypeSamplePacket
)

// String returns a string representation of the packet type.
func (t IncomingPacketType) String() string {
	switch t {
	case TypeSetLinePacket:
		return "set-line"
	case TypeSamplePacket:
		return "sample"
	default:
		return fmt.Sprintf("IncomingPacketType(%d)", t)
	}
}

// IncomingPacket is a packet sent to the bridge.
type IncomingPacket interface {
	// Type returns the type of packet.
	Type() IncomingPacketType
}

// SetLinePacket drives one line to a level. Level is 0 or 1.
type SetLinePacket struct {
	Line  Line
	Level uint8
}

// SamplePacket asks the bridge for one ADC conversion.
type SamplePacket struct{}

func (p SetLinePacket) Type() IncomingPacketType { return TypeSetLinePacket }
func (p SamplePacket) Type() IncomingPacketType  { return TypeSamplePacket }

// OutgoingPacketType is the type of a packet sent by the bridge.
type OutgoingPacketType uint8

const (
	TypeErrorPacket OutgoingPacketType = iota
	TypePanicPacket
	TypeLogPacket
	TypeReadingPacket
	TypeEdgePacket
)

// String returns a string representation of the packet type.
func (t OutgoingPacketType) String() string {
	switch t {
	case TypeErrorPacket:
		return "error"
	case TypePanicPacket:
		return "panic"
	case TypeLogPacket:
		return "log"
	case TypeReadingPacket:
		return "reading"
	case TypeEdgePacket:
		return "edge"
	default:
		return fmt.Sprintf("OutgoingPacketType(%d)", t)
	}
}

// OutgoingPacket is a packet sent by the bridge.
type OutgoingPacket interface {
	// Type returns the type of packet.
	Type() OutgoingPacketType
}

// ErrorPacket is a packet that indicates an error occurred.
type ErrorPacket struct {
	Message string
}

// PanicPacket is a packet that indicates the bridge cannot recover.
type PanicPacket struct{}

// LogPacket is a packet that contains a log message.
type LogPacket struct {
	Message string
}

// ReadingPacket answers a SamplePacket. Raw is Bits wide.
type ReadingPacket struct {
	Raw  uint16
	Bits uint8
}

// EdgePacket reports a button line change. Level is the line level after the
// change, 0 or 1.
type EdgePacket struct {
	Level uint8
}

func (p ErrorPacket) Type() OutgoingPacketType   { return TypeErrorPacket }
func (p PanicPacket) Type() OutgoingPacketType   { return TypePanicPacket }
func (p LogPacket) Type() OutgoingPacketType     { return TypeLogPacket }
func (p ReadingPacket) Type() OutgoingPacketType { return TypeReadingPacket }
func (p EdgePacket) Type() OutgoingPacketType    { return TypeEdgePacket }

// ReadIncomingPacket reads an incoming packet from the given reader.
func ReadIncomingPacket(r io.Reader) (IncomingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet IncomingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read incoming packet type: %w", err)
	}

	switch ptype := IncomingPacketType(ptypeBuf[0]); ptype {
	case TypeSetLinePacket:
		var p SetLinePacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read line level: %w", err)
		}
		packet = p

	case TypeSamplePacket:
		packet = SamplePacket{}

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := readChecksum(r, hash.Sum32()); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteIncomingPacket writes an incoming packet to the given writer.
func WriteIncomingPacket(w io.Writer, p IncomingPacket) error {
	hash := crc32.NewIEEE()
	mw := io.MultiWriter(w, hash)

	switch p := p.(type) {
	case SetLinePacket:
		if err := binary.Write(mw, Endianness, TypeSetLinePacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
		if err := binary.Write(mw, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case SamplePacket:
		if err := binary.Write(mw, Endianness, TypeSamplePacket); err != nil {
			return fmt.Errorf("failed to write packet type: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

// ReadOutgoingPacket reads an outgoing packet from the given reader.
func ReadOutgoingPacket(r io.Reader) (OutgoingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet OutgoingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read outgoing packet type: %w", err)
	}

	switch ptype := OutgoingPacketType(ptypeBuf[0]); ptype {
	case TypeErrorPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read error message: %w", err)
		}
		packet = ErrorPacket{Message: msg}

	case TypePanicPacket:
		packet = PanicPacket{}

	case TypeLogPacket:
		msg, err := readMessage(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read log message: %w", err)
		}
		packet = LogPacket{Message: msg}

	case TypeReadingPacket:
		var p ReadingPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read reading: %w", err)
		}
		packet = p

	case TypeEdgePacket:
		var p EdgePacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read edge level: %w", err)
		}
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := readChecksum(r, hash.Sum32()); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteOutgoingPacket writes an outgoing packet to the given writer.
func WriteOutgoingPacket(w io.Writer, p OutgoingPacket) error {
	hash := crc32.NewIEEE()
	mw := io.MultiWriter(w, hash)

	if err := binary.Write(mw, Endianness, p.Type()); err != nil {
		return fmt.Errorf("failed to write packet type: %w", err)
	}

	switch p := p.(type) {
	case ErrorPacket:
		if err := writeMessage(mw, p.Message); err != nil {
			return fmt.Errorf("failed to write error message: %w", err)
		}
	case PanicPacket:
	case LogPacket:
		if err := writeMessage(mw, p.Message); err != nil {
			return fmt.Errorf("failed to write log message: %w", err)
		}
	case ReadingPacket:
		if err := binary.Write(mw, Endianness, p); err != nil {
			return fmt.Errorf("failed to write reading: %w", err)
		}
	case EdgePacket:
		if err := binary.Write(mw, Endianness, p); err != nil {
			return fmt.Errorf("failed to write edge level: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

// readChecksum reads the trailer from r. want must be computed before the
// trailer is read, since r feeds the running hash.
func readChecksum(r io.Reader, want uint32) error {
	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return fmt.Errorf("failed to read packet checksum: %w", err)
	}
	if checksum != want {
		return fmt.Errorf("packet checksum mismatch")
	}
	return nil
}

func readMessage(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, Endianness, &length); err != nil {
		return "", err
	}
	if length > MaxMessageLength {
		return "", fmt.Errorf("message too long: %d bytes", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeMessage(w io.Writer, msg string) error {
	if len(msg) > MaxMessageLength {
		msg = msg[:MaxMessageLength]
	}
	if err := binary.Write(w, Endianness, uint16(len(msg))); err != nil {
		return err
	}
	_, err := io.WriteString(w, msg)
	return err
}
