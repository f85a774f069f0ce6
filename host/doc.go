// Package host defines the collaborators a contract talks to at run time.
//
// A contract never touches ledger state directly. Every effect goes
// through a Host: object allocation for non-inline values, keyed storage
// with a durability class, event publication, ledger information, hashing
// and calls into other contracts. All arguments and results cross the
// boundary as val.Val words.
//
// The in-process implementation used by tests lives in package testenv.
package host
