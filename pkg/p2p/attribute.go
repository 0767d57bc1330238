package p2p

import "strconv"

// Attribute identifies a readable stream attribute.
type Attribute uint32

const (
	AttributeStreamState Attribute = 0

	AttributeWriterNumElementsForWriting Attribute = 0x10000000
	AttributeWriterSizeInElements        Attribute = 0x10000001
	AttributeWriterOverflow              Attribute = 0x10000002

	AttributeReaderNumElementsForReading Attribute = 0x20000000
	AttributeReaderSizeInElements        Attribute = 0x20000001
	AttributeReaderUnderflow             Attribute = 0x20000002
)

const (
	attributeWriterBase Attribute = 0x10000000
	attributeReaderBase Attribute = 0x20000000
	attributeGroupMask  Attribute = 0xF0000000
)

var attributeNames = map[Attribute]string{
	AttributeStreamState:                 "StreamState",
	AttributeWriterNumElementsForWriting: "WriterNumElementsForWriting",
	AttributeWriterSizeInElements:        "WriterSizeInElements",
	AttributeWriterOverflow:              "WriterOverflow",
	AttributeReaderNumElementsForReading: "ReaderNumElementsForReading",
	AttributeReaderSizeInElements:        "ReaderSizeInElements",
	AttributeReaderUnderflow:             "ReaderUnderflow",
}

func (a Attribute) String() string {
	if n, ok := attributeNames[a]; ok {
		return n
	}
	return "(unknown attribute 0x" + strconv.FormatUint(uint64(a), 16) + ")"
}

// IsWriter reports whether a is specific to the writer endpoint.
func (a Attribute) IsWriter() bool { return a&attributeGroupMask == attributeWriterBase }

// IsReader reports whether a is specific to the reader endpoint.
func (a Attribute) IsReader() bool { return a&attributeGroupMask == attributeReaderBase }

// Known reports whether a is a defined attribute.
func (a Attribute) Known() bool {
	_, ok := attributeNames[a]
	return ok
}
