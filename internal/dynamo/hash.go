package dynamo

// Hash mixes a particle index, an iteration number and a frame index into a
// well distributed 64-bit value (splitmix64 finalizer). Identical inputs
// always give identical outputs, independent of worker scheduling.
func Hash(index, iteration, frame uint32) uint64 {
	x := uint64(index) | uint64(frame)<<32
	x ^= uint64(iteration) * 0x9e3779b97f4a7c15
	return mix64(x + 0x9e3779b97f4a7c15)
}

// Rehash derives an independent stream value from h.
func Rehash(h uint64, salt uint64) uint64 {
	return mix64(h ^ (salt * 0xbf58476d1ce4e5b9))
}

func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Unit maps h to [0, 1) using its top 24 bits.
func Unit(h uint64) float32 {
	return float32(h>>40) / (1 << 24)
}

// Signed maps h to [-1, 1).
func Signed(h uint64) float32 {
	return Unit(h)*2 - 1
}
