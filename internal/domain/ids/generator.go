// Package ids generates identifiers for domain objects.
//
// Identifiers are a composite of the logical cluster time and a per-instant
// sequence, so every replica that applies the same command stream mints the
// same ids in the same order. Wall-clock time and randomness are never used.
package ids

const sequenceBits = 20

const sequenceMask = (1 << sequenceBits) - 1

// Generator mints unique, monotonically non-decreasing identifiers from
// logical time. The zero value is ready to use.
type Generator struct {
	lastTime int64
	sequence int64
	lastID   int64
}

// NextID returns the next identifier for the supplied logical time in
// milliseconds. Identifiers are strictly increasing across calls even when
// the logical time does not advance between them.
func (g *Generator) NextID(logicalTimeMillis int64) int64 {
	if logicalTimeMillis < g.lastTime {
		// Logical time never regresses in a well-formed log; hold the
		// last observed time so ids stay monotonic regardless.
		logicalTimeMillis = g.lastTime
	}

	if logicalTimeMillis == g.lastTime {
		g.sequence++
		if g.sequence > sequenceMask {
			logicalTimeMillis++
			g.sequence = 0
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = logicalTimeMillis

	id := logicalTimeMillis<<sequenceBits | g.sequence
	if id <= g.lastID {
		id = g.lastID + 1
	}
	g.lastID = id
	return id
}

// LastID returns the most recently minted identifier, for snapshots.
func (g *Generator) LastID() int64 {
	return g.lastID
}

// RestoreLastID reinstates the generator position from a snapshot so a
// restarted replica never re-issues an identifier.
func (g *Generator) RestoreLastID(lastID int64) {
	g.lastID = lastID
	g.lastTime = lastID >> sequenceBits
	g.sequence = lastID & sequenceMask
}
