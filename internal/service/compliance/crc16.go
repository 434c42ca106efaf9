package compliance

// crc16 computes the CRC-16/ARC checksum (polynomial 0x8005 reflected,
// zero initial value) that Portaria 671 mandates on AFD punch records.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
