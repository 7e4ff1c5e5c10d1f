// Package section defines the fixed binary header of the native seiskit block format.
//
// A native block stores one channel segment set: identity and descriptive
// metadata, the breakpoint table and the sample payload.
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Header (48 bytes, fixed)                                │
//	│  - Flag (4 bytes): magic, byte order, type, codec       │
//	│  - StartTime (8 bytes, µs since epoch)                  │
//	│  - SampleRate (8 bytes, float64 Hz)                     │
//	│  - Counts (8 bytes): samples, breakpoints               │
//	│  - Section lengths (16 bytes): meta, breakpoints,       │
//	│    payload, block                                       │
//	│  - Checksum (4 bytes): xxHash64 of payload, low 32 bits │
//	├─────────────────────────────────────────────────────────┤
//	│ Metadata (CBOR map: id, src, units, gain, location,     │
//	│ notes, misc)                                            │
//	├─────────────────────────────────────────────────────────┤
//	│ Breakpoint table (delta-coded indices and times)        │
//	├─────────────────────────────────────────────────────────┤
//	│ Payload (packed samples, shuffled and compressed)       │
//	└─────────────────────────────────────────────────────────┘
//
// The Options half-word of the flag is always little-endian so a reader can
// find the magic number and byte order before decoding anything else; every
// other numeric field, and the payload, use the byte order named by the flag.
//
// Blocks are self-delimiting: PeekBlockLength reads BlockLength after
// checking the magic number, which is all a framer needs to split a stream
// of concatenated blocks.
package section
