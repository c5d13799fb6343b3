// Package parser holds the decoded form of event logs returned to callers.
package parser

import (
	"encoding/json"

	"github.com/Layr-Labs/logscope/pkg/clients/ethereum"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DecodedLog is a raw log record plus, when an event description was supplied and
// decoding succeeded, its event name and decoded arguments.
//
// When decoding the record failed, DecodeError holds the *eventErrors.MismatchError or
// *eventErrors.DecodeError and no arguments are set. Other records of the same query
// are unaffected.
type DecodedLog struct {
	// Log is the record exactly as returned by the node
	Log *ethereum.EthereumEventLog
	// EventName is empty unless the record was decoded
	EventName string
	// Arguments are the decoded parameters in declaration order
	Arguments []Argument
	// Args is a name-keyed view of Arguments. Unnamed parameters are left out and a
	// repeated name keeps its first position with the last value.
	Args *orderedmap.OrderedMap[string, interface{}]
	// DecodeError is set when the record could not be decoded
	DecodeError error
}

// Argument represents a single decoded event parameter.
type Argument struct {
	// Name is the parameter name, possibly empty
	Name string `json:"name"`
	// Type is the canonical interface type of the parameter
	Type string `json:"type"`
	// Value is the decoded value, see abiCodec for the Go representations
	Value interface{} `json:"value"`
	// Indexed indicates whether the value came from a topic
	Indexed bool `json:"indexed"`
}

// NewRawLog wraps a record that was not decoded.
func NewRawLog(lg *ethereum.EthereumEventLog) *DecodedLog {
	return &DecodedLog{Log: lg}
}

// IsDecoded reports whether arguments are available.
func (d *DecodedLog) IsDecoded() bool {
	return d.EventName != "" && d.DecodeError == nil
}

// Arg returns the value of the named argument.
func (d *DecodedLog) Arg(name string) (interface{}, bool) {
	if d.Args == nil {
		return nil, false
	}
	return d.Args.Get(name)
}

// BuildArgs creates the name-keyed view of args.
func BuildArgs(args []Argument) *orderedmap.OrderedMap[string, interface{}] {
	m := orderedmap.New[string, interface{}]()
	for _, arg := range args {
		if arg.Name == "" {
			continue
		}
		m.Set(arg.Name, arg.Value)
	}
	return m
}

func (d *DecodedLog) MarshalJSON() ([]byte, error) {
	type decodedLogJson struct {
		*ethereum.EthereumEventLog
		EventName string                                      `json:"eventName,omitempty"`
		Args      *orderedmap.OrderedMap[string, interface{}] `json:"args,omitempty"`
		Arguments []Argument                                  `json:"arguments,omitempty"`
		Error     string                                      `json:"decodeError,omitempty"`
	}
	out := decodedLogJson{
		EthereumEventLog: d.Log,
		EventName:        d.EventName,
		Args:             d.Args,
		Arguments:        d.Arguments,
	}
	if d.DecodeError != nil {
		out.Error = d.DecodeError.Error()
	}
	return json.Marshal(out)
}
