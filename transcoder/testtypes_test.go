package transcoder

import (
	"math/big"

	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/val"
)

type Point struct {
	X int32
	Y int32
}

type Account struct {
	Owner   val.Address
	Balance val.I128
	Memo    *string `doc:"free text"`
	Tags    map[val.Symbol]uint32
}

func (Account) ContractLayout() Layout { return LayoutMap }
func (Account) ContractDoc() string    { return "An account entry." }

type Color uint32

const (
	Red   Color = 1
	Green Color = 2
)

func (Color) ContractEnum() []spec.EnumCase {
	return []spec.EnumCase{{Name: "Red", Value: 1}, {Name: "Green", Value: 2}}
}

type TokenError uint32

const (
	ErrInsufficient TokenError = 1
	ErrFrozen       TokenError = 7
)

func (TokenError) ContractErrors() []spec.EnumCase {
	return []spec.EnumCase{{Name: "Insufficient", Value: 1}, {Name: "Frozen", Value: 7}}
}

func (e TokenError) Error() string { return val.ContractError(uint32(e)).Error() }

type Pair struct {
	A uint32
	B string
}

func (Pair) ContractTuple() {}

type Action struct {
	Stop     *struct{}
	Move     *Point
	Transfer *Pair
}

func (Action) ContractUnion()       {}
func (Action) ContractName() string { return "Act" }

type Node struct {
	Value    uint32
	Children []Node
}

type Skipped struct {
	Kept     uint32
	Ignored  string `contract:"-"`
	internal int
	OwnerID  uint64 `contract:"owner"`
}

type WithBig struct {
	Amount *big.Int
}
