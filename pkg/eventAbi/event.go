// Package eventAbi describes contract events: their ordered parameters, which of them
// are indexed, and the canonical signature that identifies the event in topic 0.
//
// An EventDescription is built once (programmatically, from a go-ethereum abi.Event,
// or from a human-readable signature) and is never mutated afterwards.
package eventAbi

import (
	"fmt"
	"strings"

	"github.com/Layr-Labs/logscope/pkg/abiCodec"
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	// MaxIndexedParameters is the number of topics left after the signature topic.
	MaxIndexedParameters = 3
	// MaxIndexedParametersAnonymous applies to anonymous events, which have no signature topic.
	MaxIndexedParametersAnonymous = 4
)

// ParameterKind says where a parameter's value lives in an emitted log.
type ParameterKind int

const (
	// ParameterKind_IndexedValue is an indexed static value type, recoverable from its topic.
	ParameterKind_IndexedValue ParameterKind = iota
	// ParameterKind_IndexedHash is an indexed string, bytes, array or tuple. The topic only
	// holds the keccak256 digest of the value.
	ParameterKind_IndexedHash
	// ParameterKind_Data is a non-indexed parameter, encoded in the data payload.
	ParameterKind_Data
)

func (k ParameterKind) String() string {
	switch k {
	case ParameterKind_IndexedValue:
		return "indexedValue"
	case ParameterKind_IndexedHash:
		return "indexedHash"
	case ParameterKind_Data:
		return "data"
	}
	return fmt.Sprintf("ParameterKind(%d)", int(k))
}

type Parameter struct {
	Name    string
	Type    abi.Type
	Indexed bool
}

func (p Parameter) Kind() ParameterKind {
	if !p.Indexed {
		return ParameterKind_Data
	}
	if abiCodec.IsHashedInTopic(p.Type) {
		return ParameterKind_IndexedHash
	}
	return ParameterKind_IndexedValue
}

// NewParameter parses typ (e.g. "uint256", "address[]", "(uint256,string)[2]") and
// returns the parameter. "uint" and "int" are accepted as uint256 and int256.
func NewParameter(name string, typ string, indexed bool) (Parameter, error) {
	abiType, err := parseType(typ)
	if err != nil {
		return Parameter{}, withParameter(err, name)
	}
	return Parameter{Name: name, Type: abiType, Indexed: indexed}, nil
}

type EventDescription struct {
	Name       string
	Parameters []Parameter
	Anonymous  bool
}

// NewEventDescription validates and returns an event description. Every parameter type
// must be supported by abiCodec and the number of indexed parameters must fit in the
// available topics.
func NewEventDescription(name string, params []Parameter, anonymous bool) (*EventDescription, error) {
	if !isIdentifier(name) {
		return nil, eventErrors.NewValidationError("event", "invalid event name '%s'", name)
	}

	indexed := 0
	for _, p := range params {
		if err := abiCodec.CheckSupported(p.Type); err != nil {
			return nil, withParameter(err, p.Name)
		}
		if p.Indexed {
			indexed++
		}
	}

	limit := MaxIndexedParameters
	if anonymous {
		limit = MaxIndexedParametersAnonymous
	}
	if indexed > limit {
		return nil, eventErrors.NewValidationError("event", "'%s' declares %d indexed parameters, at most %d are allowed", name, indexed, limit)
	}

	copied := make([]Parameter, len(params))
	copy(copied, params)
	return &EventDescription{
		Name:       name,
		Parameters: copied,
		Anonymous:  anonymous,
	}, nil
}

// FromAbiEvent converts an event loaded by go-ethereum's ABI parser.
func FromAbiEvent(event abi.Event) (*EventDescription, error) {
	params := make([]Parameter, len(event.Inputs))
	for i, input := range event.Inputs {
		params[i] = Parameter{Name: input.Name, Type: input.Type, Indexed: input.Indexed}
	}
	name := event.RawName
	if name == "" {
		name = event.Name
	}
	return NewEventDescription(name, params, event.Anonymous)
}

func (e *EventDescription) IndexedParameters() []Parameter {
	params := make([]Parameter, 0, len(e.Parameters))
	for _, p := range e.Parameters {
		if p.Indexed {
			params = append(params, p)
		}
	}
	return params
}

func (e *EventDescription) DataParameters() []Parameter {
	params := make([]Parameter, 0, len(e.Parameters))
	for _, p := range e.Parameters {
		if !p.Indexed {
			params = append(params, p)
		}
	}
	return params
}

// DataTypes returns the types of the non-indexed parameters, in declaration order.
func (e *EventDescription) DataTypes() []abi.Type {
	params := e.DataParameters()
	types := make([]abi.Type, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return types
}

// String renders the description in human-readable form, which ParseEventSignature
// accepts back.
func (e *EventDescription) String() string {
	parts := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		part := CanonicalType(p.Type)
		if p.Indexed {
			part += " indexed"
		}
		if p.Name != "" {
			part += " " + p.Name
		}
		parts[i] = part
	}
	s := fmt.Sprintf("event %s(%s)", e.Name, strings.Join(parts, ", "))
	if e.Anonymous {
		s += " anonymous"
	}
	return s
}

func withParameter(err error, name string) error {
	switch e := err.(type) {
	case *eventErrors.TypeError:
		e.Parameter = name
	case *eventErrors.ValidationError:
		e.Parameter = name
	}
	return err
}
