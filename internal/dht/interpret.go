package dht

// Frame byte layout. The 40-bit frame is transmitted most significant bit
// first; byte 0 (the least significant byte of the accumulated word) is the
// checksum, bytes 1-4 are data:
//
//	           0      1      2      3      4
//	        +------+------+------+------+------+
//	  DHT11 |check-| 0    | temp |  0   | RH%  |
//	        |sum   |      |      |      |      |
//	        +------+------+------+------+------+
//	  DHT21 |check-| temp | temp | RH%  | RH%  |
//	  DHT22 |sum   | LSB  | MSB  | LSB  | MSB  |
//	  DHT33 |      |      |      |      |      |
//	  DHT44 |      |      |      |      |      |
//	        +------+------+------+------+------+

// Interpret decodes a completed 40-bit frame according to the given model.
// It is pure and side-effect free. The returned temperature and humidity are
// only meaningful when the status is StatusGood.
func Interpret(frame uint64, model Model) (Status, float64, float64) {
	b0 := byte(frame)
	b1 := byte(frame >> 8)
	b2 := byte(frame >> 16)
	b3 := byte(frame >> 24)
	b4 := byte(frame >> 32)

	if b1+b2+b3+b4 != b0 {
		return StatusBadChecksum, 0, 0
	}

	var (
		valid bool
		t, h  float64
	)
	switch model {
	case ModelDHT11:
		valid, t, h = decodeDHT11(b1, b2, b3, b4)
	case ModelDHTXX:
		valid, t, h = decodeDHTXX(b1, b2, b3, b4)
	default:
		// Auto-detection is a heuristic, not a protocol guarantee: some byte
		// patterns are valid under both encodings with different results.
		// The DHTXX interpretation is tried first, then DHT11.
		valid, t, h = decodeDHTXX(b1, b2, b3, b4)
		if !valid {
			valid, t, h = decodeDHT11(b1, b2, b3, b4)
		}
	}
	if !valid {
		return StatusBadData, 0, 0
	}
	return StatusGood, t, h
}

// decodeDHT11 interprets the data bytes as DHT11 whole-unit values.
// b1 and b3 are the DHT11's unused fractional bytes and must be exactly zero.
func decodeDHT11(b1, b2, b3, b4 byte) (bool, float64, float64) {
	t := float64(b2)
	h := float64(b4)
	valid := b1 == 0 && b3 == 0 && b2 <= 60 && b4 >= 9 && b4 <= 90
	return valid, t, h
}

// decodeDHTXX interprets the data bytes as DHTXX tenths. Temperature is a
// 15-bit sign-and-magnitude value: bit 7 of b2 is the sign flag.
func decodeDHTXX(b1, b2, b3, b4 byte) (bool, float64, float64) {
	div := 10.0
	if b2&0x80 != 0 {
		div = -10.0
	}
	t := float64(uint16(b2&0x7F)<<8|uint16(b1)) / div
	h := float64(uint16(b4)<<8|uint16(b3)) / 10.0
	valid := h <= 110.0 && t >= -50.0 && t <= 135.0
	return valid, t, h
}
