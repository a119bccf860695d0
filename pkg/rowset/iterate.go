package rowset

// Iteration walks logical indices in order, skipping empty entries,
// honoring the permutation through the logical index mapping and
// LIMIT/OFFSET through the fetch counter. The cursor is guarded by the
// result set mutex so concurrent readers see a consistent sequence.

// MoveToBegin rewinds the cursor and pre-skips the OFFSET rows.
func (rs *ResultSet) MoveToBegin() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.moveToBeginLocked()
}

func (rs *ResultSet) moveToBeginLocked() {
	rs._crtRowBuffIdx = 0
	rs._fetchedSoFar = 0
	rs._begun = true
	for skipped := int64(0); skipped < rs._dropFirst; skipped++ {
		if rs.advanceCursorToNextEntryLocked() >= int64(rs.EntryCount()) {
			return
		}
		rs._crtRowBuffIdx++
	}
}

// advanceCursorToNextEntryLocked moves the cursor to the next non-empty
// logical index and returns it, or EntryCount when exhausted.
func (rs *ResultSet) advanceCursorToNextEntryLocked() int64 {
	entryCount := int64(rs.EntryCount())
	for rs._crtRowBuffIdx < entryCount {
		if !rs.IsRowAtEmpty(int(rs._crtRowBuffIdx)) {
			break
		}
		rs._crtRowBuffIdx++
	}
	return rs._crtRowBuffIdx
}

// GetNextRow decodes the row under the cursor and advances. A nil row
// means the iteration is over, either by exhaustion or by LIMIT.
func (rs *ResultSet) GetNextRow(translateStrings, decimalToDouble bool) Row {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if !rs._begun {
		rs.moveToBeginLocked()
	}
	if rs._keepFirst > 0 && rs._fetchedSoFar >= rs._keepFirst {
		return nil
	}
	logicalIdx := rs.advanceCursorToNextEntryLocked()
	if logicalIdx >= int64(rs.EntryCount()) {
		return nil
	}
	rs._crtRowBuffIdx++
	rs._fetchedSoFar++
	return rs.rowAt(rs.permute(int(logicalIdx)), translateStrings, decimalToDouble, nil)
}
