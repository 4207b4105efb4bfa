package aggregates

// WriteTxOwnership records where the transaction boundary of a ledger write lives.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate: each write method opens and commits its own
	// transaction, so callers never hold a ledger row across calls.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy records which reads an aggregate exposes.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped limits reads to the lookups issuance and
	// verification decide on (by enrollment, by hash).
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
)

// Contract is the static description an aggregate reports about itself.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

type Aggregate interface {
	Contract() Contract
}
