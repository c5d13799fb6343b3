package actions

import (
	"math/big"
	"strings"

	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type BlockTag string

const (
	BlockTag_Latest    BlockTag = "latest"
	BlockTag_Earliest  BlockTag = "earliest"
	BlockTag_Pending   BlockTag = "pending"
	BlockTag_Safe      BlockTag = "safe"
	BlockTag_Finalized BlockTag = "finalized"
)

var blockTags = map[BlockTag]bool{
	BlockTag_Latest:    true,
	BlockTag_Earliest:  true,
	BlockTag_Pending:   true,
	BlockTag_Safe:      true,
	BlockTag_Finalized: true,
}

// BlockIdentifier is either a block number or a symbolic tag.
type BlockIdentifier struct {
	Number *big.Int
	Tag    BlockTag
}

func BlockNumber(n uint64) *BlockIdentifier {
	return &BlockIdentifier{Number: new(big.Int).SetUint64(n)}
}

func Tag(tag BlockTag) *BlockIdentifier {
	return &BlockIdentifier{Tag: tag}
}

// ParseBlockIdentifier accepts a decimal number, a 0x-prefixed hex number or one of
// the block tags.
func ParseBlockIdentifier(s string) (*BlockIdentifier, error) {
	s = strings.TrimSpace(s)
	if tag := BlockTag(strings.ToLower(s)); blockTags[tag] {
		return Tag(tag), nil
	}
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || strings.HasPrefix(s, "0") && len(s) > 1 && !strings.HasPrefix(strings.ToLower(s), "0x") {
		return nil, eventErrors.NewValidationError("block", "'%s' is neither a block number nor a block tag", s)
	}
	b := &BlockIdentifier{Number: n}
	if err := b.validate("block"); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *BlockIdentifier) validate(field string) error {
	switch {
	case b.Number != nil && b.Tag != "":
		return eventErrors.NewValidationError(field, "a block is either a number or a tag")
	case b.Number != nil:
		if b.Number.Sign() < 0 {
			return eventErrors.NewValidationError(field, "negative block number %s", b.Number.String())
		}
	case !blockTags[b.Tag]:
		return eventErrors.NewValidationError(field, "unknown block tag '%s'", b.Tag)
	}
	return nil
}

// Param returns the JSON-RPC representation: a hex quantity or the tag verbatim.
func (b *BlockIdentifier) Param() string {
	if b.Number != nil {
		return hexutil.EncodeBig(b.Number)
	}
	return string(b.Tag)
}

// Uint64 returns the block number, or false for tags.
func (b *BlockIdentifier) Uint64() (uint64, bool) {
	if b == nil || b.Number == nil || !b.Number.IsUint64() {
		return 0, false
	}
	return b.Number.Uint64(), true
}

func (b *BlockIdentifier) String() string {
	if b.Number != nil {
		return b.Number.String()
	}
	return string(b.Tag)
}
