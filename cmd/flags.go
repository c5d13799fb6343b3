package cmd

import (
	"strings"

	"github.com/Layr-Labs/logscope/pkg/abiCodec"
	"github.com/Layr-Labs/logscope/pkg/actions"
	"github.com/Layr-Labs/logscope/pkg/contractAbi"
	"github.com/Layr-Labs/logscope/pkg/eventAbi"
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/Layr-Labs/logscope/pkg/topicFilter"
	"github.com/Layr-Labs/logscope/pkg/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	flagAddress   = "address"
	flagEvent     = "event"
	flagAbi       = "abi"
	flagEventName = "event-name"
	flagArg       = "arg"
	flagFromBlock = "from-block"
	flagToBlock   = "to-block"
	flagBlockHash = "block-hash"
	flagBlock     = "block"
	flagSeconds   = "seconds"
)

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagAddress, "", `Comma separated contract addresses`)
	cmd.Flags().String(flagEvent, "", `Event signature, e.g. "event Transfer(address indexed from, address indexed to, uint256 value)"`)
	cmd.Flags().String(flagAbi, "", `Path to a JSON ABI (or build artifact) to load the event from`)
	cmd.Flags().String(flagEventName, "", `Event to use from --abi: a name, an overload name or a full signature`)
	cmd.Flags().StringArray(flagArg, []string{}, `Indexed argument constraint "name=value", alternatives separated by "|" (repeatable)`)
}

// filterInput is the raw, unparsed filter given on the command line.
type filterInput struct {
	Address   string
	Event     string
	Abi       string
	EventName string
	Args      []string
}

func readFilterInput(cmd *cobra.Command) (*filterInput, error) {
	in := &filterInput{}
	var err error
	if in.Address, err = cmd.Flags().GetString(flagAddress); err != nil {
		return nil, err
	}
	if in.Event, err = cmd.Flags().GetString(flagEvent); err != nil {
		return nil, err
	}
	if in.Abi, err = cmd.Flags().GetString(flagAbi); err != nil {
		return nil, err
	}
	if in.EventName, err = cmd.Flags().GetString(flagEventName); err != nil {
		return nil, err
	}
	if in.Args, err = cmd.Flags().GetStringArray(flagArg); err != nil {
		return nil, err
	}
	return in, nil
}

// toParams builds the query parameters, without a block range.
func (in *filterInput) toParams(l *zap.Logger) (*actions.GetLogsParams, error) {
	addresses, err := parseAddresses(in.Address)
	if err != nil {
		return nil, err
	}
	event, err := resolveEvent(in.Event, in.Abi, in.EventName, l)
	if err != nil {
		return nil, err
	}
	args, err := parseArgConstraints(in.Args, event)
	if err != nil {
		return nil, err
	}
	return &actions.GetLogsParams{
		Address: addresses,
		Event:   event,
		Args:    args,
	}, nil
}

func parseAddresses(s string) ([]common.Address, error) {
	parts := utils.SplitAndTrim(s, ",")
	addresses := make([]common.Address, 0, len(parts))
	for _, part := range parts {
		if !common.IsHexAddress(part) {
			return nil, eventErrors.NewValidationError("address", "invalid address '%s'", part)
		}
		addresses = append(addresses, common.HexToAddress(part))
	}
	return addresses, nil
}

// resolveEvent returns nil when no event was requested.
func resolveEvent(signature string, abiPath string, eventName string, l *zap.Logger) (*eventAbi.EventDescription, error) {
	switch {
	case signature != "" && abiPath != "":
		return nil, eventErrors.NewValidationError("event", "--%s and --%s are mutually exclusive", flagEvent, flagAbi)
	case signature != "":
		return eventAbi.ParseEventSignature(signature)
	case abiPath != "":
		if eventName == "" {
			return nil, eventErrors.NewValidationError("event", "--%s is required with --%s", flagEventName, flagAbi)
		}
		a, err := contractAbi.LoadAbiFile(abiPath, l)
		if err != nil {
			return nil, err
		}
		return contractAbi.FindEvent(a, eventName)
	case eventName != "":
		return nil, eventErrors.NewValidationError("event", "--%s requires --%s", flagEventName, flagAbi)
	}
	return nil, nil
}

// parseArgConstraints parses "name=value" and "name=v1|v2" pairs. Values are parsed
// against the type of the first parameter carrying the name; names the event does not
// index are passed through as text and rejected when the topics are built.
func parseArgConstraints(raw []string, event *eventAbi.EventDescription) (topicFilter.ArgumentConstraints, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	constraints := topicFilter.ArgumentConstraints{}
	for _, pair := range raw {
		name, values, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, eventErrors.NewValidationError("args", "expected name=value, got '%s'", pair)
		}

		param, found := findIndexedParameter(event, name)
		parsed := make([]interface{}, 0)
		for _, v := range utils.SplitAndTrim(values, "|") {
			if !found {
				parsed = append(parsed, v)
				continue
			}
			value, err := abiCodec.ParseValue(param.Type, v)
			if err != nil {
				return nil, &eventErrors.ValidationError{Field: "args", Parameter: name, Message: "invalid value", Err: err}
			}
			parsed = append(parsed, value)
		}
		if len(parsed) == 0 {
			return nil, eventErrors.NewValidationError("args", "no value given for '%s'", name)
		}
		constraints[name] = topicFilter.OneOf(parsed...)
	}
	return constraints, nil
}

func findIndexedParameter(event *eventAbi.EventDescription, name string) (eventAbi.Parameter, bool) {
	if event == nil {
		return eventAbi.Parameter{}, false
	}
	for _, p := range event.IndexedParameters() {
		if p.Name == name {
			return p, true
		}
	}
	return eventAbi.Parameter{}, false
}
