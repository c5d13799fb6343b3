// Package topicFilter builds the topics array of an eth_getLogs filter from an event
// description and constraints on its indexed parameters.
package topicFilter

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Layr-Labs/logscope/pkg/abiCodec"
	"github.com/Layr-Labs/logscope/pkg/eventAbi"
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/Layr-Labs/logscope/pkg/utils"
	"github.com/ethereum/go-ethereum/common"
)

// MaxTopics is the number of topic slots a log can carry.
const MaxTopics = 4

// Constraint restricts the values an indexed parameter may take. The zero value
// matches anything.
type Constraint struct {
	values []interface{}
}

// Any matches every value.
func Any() Constraint {
	return Constraint{}
}

// Equals matches a single value. Equals(nil) is the same as Any().
func Equals(v interface{}) Constraint {
	if v == nil {
		return Constraint{}
	}
	return Constraint{values: []interface{}{v}}
}

// OneOf matches any of the given values. With no values it is the same as Any().
func OneOf(values ...interface{}) Constraint {
	return Constraint{values: utils.Filter(values, func(v interface{}) bool { return v != nil })}
}

func (c Constraint) IsAny() bool {
	return len(c.values) == 0
}

func (c Constraint) Values() []interface{} {
	return c.values
}

// ArgumentConstraints maps an indexed parameter name to its constraint.
type ArgumentConstraints map[string]Constraint

type SlotKind int

const (
	SlotKind_Wildcard SlotKind = iota
	SlotKind_Single
	SlotKind_Set
)

// TopicSlot is one position of a topic filter: a wildcard, a single hash or a set of
// alternative hashes.
type TopicSlot struct {
	Kind   SlotKind
	Hashes []common.Hash
}

func Wildcard() TopicSlot {
	return TopicSlot{Kind: SlotKind_Wildcard}
}

func Single(h common.Hash) TopicSlot {
	return TopicSlot{Kind: SlotKind_Single, Hashes: []common.Hash{h}}
}

// Set returns an OR slot. A set of one hash collapses to Single.
func Set(hashes ...common.Hash) TopicSlot {
	switch len(hashes) {
	case 0:
		return Wildcard()
	case 1:
		return Single(hashes[0])
	}
	return TopicSlot{Kind: SlotKind_Set, Hashes: hashes}
}

// MarshalJSON renders the slot as null, "0x.." or ["0x..", ...].
func (s TopicSlot) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SlotKind_Wildcard:
		return []byte("null"), nil
	case SlotKind_Single:
		return json.Marshal(s.Hashes[0])
	case SlotKind_Set:
		return json.Marshal(s.Hashes)
	}
	return nil, fmt.Errorf("unknown topic slot kind %d", s.Kind)
}

// Matches reports whether a topic value satisfies the slot.
func (s TopicSlot) Matches(topic common.Hash) bool {
	if s.Kind == SlotKind_Wildcard {
		return true
	}
	for _, h := range s.Hashes {
		if h == topic {
			return true
		}
	}
	return false
}

// TopicFilter is the ordered list of topic slots sent with eth_getLogs.
type TopicFilter []TopicSlot

func (f TopicFilter) IsEmpty() bool {
	return len(f) == 0
}

// Matches reports whether a log with the given topics would be returned by a node
// applying this filter.
func (f TopicFilter) Matches(topics []common.Hash) bool {
	if len(topics) < len(f) {
		return false
	}
	for i, slot := range f {
		if !slot.Matches(topics[i]) {
			return false
		}
	}
	return true
}

// BuildTopics returns the topic filter selecting occurrences of event whose indexed
// parameters satisfy args.
//
// Slot 0 is the signature hash unless the event is anonymous. Every indexed parameter
// then takes one slot in declaration order, a wildcard when unconstrained. Trailing
// wildcards are kept. A constraint applies to every indexed parameter carrying its
// name. A nil event yields an empty filter and accepts no constraints.
func BuildTopics(event *eventAbi.EventDescription, args ArgumentConstraints) (TopicFilter, error) {
	if event == nil {
		if len(args) > 0 {
			return nil, eventErrors.NewValidationError("args", "argument constraints require an event")
		}
		return TopicFilter{}, nil
	}

	if err := validateConstraintNames(event, args); err != nil {
		return nil, err
	}

	filter := make(TopicFilter, 0, MaxTopics)
	if !event.Anonymous {
		filter = append(filter, Single(event.SignatureHash()))
	}

	for _, p := range event.IndexedParameters() {
		constraint, ok := args[p.Name]
		if p.Name == "" || !ok || constraint.IsAny() {
			filter = append(filter, Wildcard())
			continue
		}

		hashes := make([]common.Hash, 0, len(constraint.values))
		for _, v := range constraint.values {
			h, err := abiCodec.EncodeTopic(p.Type, v)
			if err != nil {
				return nil, constraintError(p, err)
			}
			hashes = append(hashes, h)
		}
		filter = append(filter, Set(hashes...))
	}
	return filter, nil
}

func validateConstraintNames(event *eventAbi.EventDescription, args ArgumentConstraints) error {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		found, indexed := false, false
		for _, p := range event.Parameters {
			if p.Name != name {
				continue
			}
			found = true
			indexed = indexed || p.Indexed
		}
		switch {
		case name == "" || !found:
			return &eventErrors.ValidationError{
				Field:     "args",
				Parameter: name,
				Message:   fmt.Sprintf("event '%s' has no parameter with this name", event.Name),
			}
		case !indexed:
			return &eventErrors.ValidationError{
				Field:     "args",
				Parameter: name,
				Message:   "only indexed parameters can be constrained",
			}
		}
	}
	return nil
}

// constraintError keeps unsupported-type failures as TypeErrors and reports value
// mismatches as caller input errors.
func constraintError(p eventAbi.Parameter, err error) error {
	if te, ok := err.(*eventErrors.TypeError); ok {
		te.Parameter = p.Name
		if te.Reason == eventErrors.TypeErrorReason_Unsupported {
			return te
		}
	}
	return &eventErrors.ValidationError{
		Field:     "args",
		Parameter: p.Name,
		Message:   fmt.Sprintf("value does not fit type '%s'", eventAbi.CanonicalType(p.Type)),
		Err:       err,
	}
}
