package section

const (
	// Bit masks of NativeFlag.Options
	IrregularMask    = 0x0001 // Mask for irregular sampling bit (bit 0), set when fs == 0
	EndiannessMask   = 0x0002 // Mask for endianness bit (bit 1)
	ReservedBitsMask = 0x000C // Mask for reserved bits (bits 2-3)
	MagicNumberMask  = 0xFFF0 // Mask for magic number (bits 4-15)

	// MagicNativeV1Opt is the version 1 magic number of the native block format.
	MagicNativeV1Opt = 0x5E10
)

// Offsets and sizes of the native block.
const (
	HeaderSize = 48 // fixed header size in bytes

	OptionsOffset          = 0
	SampleTypeOffset       = 2
	CodecOffset            = 3
	StartTimeOffset        = 4
	SampleRateOffset       = 12
	SampleCountOffset      = 20
	BreakpointCountOffset  = 24
	MetaLengthOffset       = 28
	BreakpointLengthOffset = 32
	PayloadLengthOffset    = 36
	BlockLengthOffset      = 40
	ChecksumOffset         = 44
)
