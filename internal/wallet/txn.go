package wallet

import "gorm.io/gorm"

// Txn is the tagged transaction handle the ledger runs on. An owned handle
// is opened and committed (or rolled back) by the ledger itself; a borrowed
// handle was supplied by an outer caller who keeps commit/rollback
// authority, letting several ledger operations share one transaction.
type Txn struct {
	tx    *gorm.DB
	owned bool
}

// Owned wraps a transaction the ledger opened and must finish.
func Owned(tx *gorm.DB) Txn {
	return Txn{tx: tx, owned: true}
}

// Borrowed wraps a caller-supplied transaction the ledger must not commit.
func Borrowed(tx *gorm.DB) Txn {
	return Txn{tx: tx, owned: false}
}

// DB returns the underlying transaction.
func (t Txn) DB() *gorm.DB {
	return t.tx
}

// Owned reports whether commit/rollback authority sits with the ledger.
func (t Txn) Owned() bool {
	return t.owned
}
