package fixture

import "github.com/simonhull/metaspector/internal/binary"

// JPEG returns a tiny baseline JPEG header with the given size. It is not
// a decodable image, only enough for sniffing and dimension reading.
func JPEG(width, height int) []byte {
	return binary.NewWriter().
		U8(0xFF).U8(0xD8).
		U8(0xFF).U8(0xE0).U16(16).String("JFIF").U8(0).U16(0x0101).U8(0).U16(1).U16(1).U8(0).U8(0).
		U8(0xFF).U8(0xC0).U16(17).U8(8).U16(uint16(height)).U16(uint16(width)).
		U8(3).Raw([]byte{1, 0x22, 0, 2, 0x11, 1, 3, 0x11, 1}).
		U8(0xFF).U8(0xD9).
		Bytes()
}

// PNG returns a PNG signature and IHDR chunk with the given size.
func PNG(width, height int) []byte {
	return binary.NewWriter().
		Raw([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}).
		U32(13).String("IHDR").U32(uint32(width)).U32(uint32(height)).
		U8(8).U8(6).U8(0).U8(0).U8(0).
		U32(0). // CRC, unchecked
		Bytes()
}
