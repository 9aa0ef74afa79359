package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// IDGenerator mints identifiers for new records. Stores accept a generator at
// construction so tests can supply deterministic ids; uniqueness is practical
// (collision-resistant within one center's dataset), not cryptographic.
type IDGenerator interface {
	NewID(entity EntityType) string
}

var idPrefixes = map[EntityType]string{
	EntityStudent:          "std",
	EntityTeacher:          "tch",
	EntityStaffMember:      "stf",
	EntityClass:            "cls",
	EntityAttendanceRecord: "att",
	EntityInvoice:          "inv",
	EntityProgressReport:   "rpt",
	EntityLedgerEntry:      "txn",
	EntityIncomeItem:       "inc",
	EntityExpenseItem:      "exp",
	EntityPayroll:          "pay",
	EntityAnnouncement:     "ann",
}

func idPrefix(entity EntityType) string {
	if p, ok := idPrefixes[entity]; ok {
		return p
	}
	return "rec"
}

// RandomIDGenerator is the production generator: entity prefix, millisecond
// timestamp, and a short random suffix.
type RandomIDGenerator struct{}

// NewID implements IDGenerator.
func (RandomIDGenerator) NewID(entity EntityType) string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%s-%d-%s", idPrefix(entity), time.Now().UnixMilli(), hex.EncodeToString(b[:]))
}

// SequenceIDGenerator mints predictable ids for tests.
type SequenceIDGenerator struct {
	n atomic.Uint64
}

// NewID implements IDGenerator.
func (g *SequenceIDGenerator) NewID(entity EntityType) string {
	return fmt.Sprintf("%s-%04d", idPrefix(entity), g.n.Add(1))
}
