package util

import "math/bits"

// Bitmap is a validity mask. An empty Bits slice means "all valid".
type Bitmap struct {
	Bits []uint8
}

func EntryCount(count int) int {
	return (count + 7) / 8
}

func (bm *Bitmap) Data() []uint8 {
	return bm.Bits
}

func (bm *Bitmap) Init(count int) {
	bm.Bits = make([]uint8, EntryCount(count))
	for i := range bm.Bits {
		bm.Bits[i] = 0xFF
	}
}

func (bm *Bitmap) Invalid() bool {
	return len(bm.Bits) == 0
}

func GetEntryIndex(idx uint64) (uint64, uint64) {
	return idx / 8, idx % 8
}

func EntryIsSet(e uint8, pos uint64) bool {
	return e&(1<<pos) != 0
}

func (bm *Bitmap) RowIsValid(idx uint64) bool {
	if bm.Invalid() {
		return true
	}
	eIdx, pos := GetEntryIndex(idx)
	return EntryIsSet(bm.Bits[eIdx], pos)
}

func (bm *Bitmap) Set(idx uint64, valid bool) {
	if valid {
		bm.SetValid(idx)
	} else {
		bm.SetInvalid(idx)
	}
}

func (bm *Bitmap) SetValid(idx uint64) {
	if bm.Invalid() {
		return
	}
	eIdx, pos := GetEntryIndex(idx)
	bm.Bits[eIdx] |= 1 << pos
}

func (bm *Bitmap) SetInvalid(idx uint64) {
	AssertFunc(!bm.Invalid())
	eIdx, pos := GetEntryIndex(idx)
	bm.Bits[eIdx] &= ^(1 << pos)
}

// CountValid counts set bits over the first count rows.
func (bm *Bitmap) CountValid(count int) int {
	if bm.Invalid() {
		return count
	}
	valid := 0
	full := count / 8
	for i := 0; i < full; i++ {
		valid += bits.OnesCount8(bm.Bits[i])
	}
	for i := full * 8; i < count; i++ {
		if bm.RowIsValid(uint64(i)) {
			valid++
		}
	}
	return valid
}
