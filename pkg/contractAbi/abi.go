package contractAbi

import (
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/Layr-Labs/logscope/pkg/eventAbi"
	"github.com/Layr-Labs/logscope/pkg/eventErrors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// patterns that we're fine to ignore and not treat as an error
var ignorableAbiErrors = []*regexp.Regexp{
	regexp.MustCompile(`only single receive is allowed`),
	regexp.MustCompile(`only single fallback is allowed`),
}

// UnmarshalJsonToAbi unmarshals a JSON ABI into an abi.ABI struct.
// Build artifacts of the form {"abi": [...]} are unwrapped first. Errors about
// duplicate receive/fallback entries are ignored since they do not affect events.
func UnmarshalJsonToAbi(data []byte, l *zap.Logger) (*abi.ABI, error) {
	data = unwrapArtifact(data)

	a := &abi.ABI{}
	if err := a.UnmarshalJSON(data); err != nil {
		for _, pattern := range ignorableAbiErrors {
			if pattern.MatchString(err.Error()) {
				l.Sugar().Debugw("Ignoring abi unmarshal error", zap.Error(err))
				return a, nil
			}
		}
		l.Sugar().Warnw("Error unmarshaling abi json", zap.Error(err))
		return nil, err
	}
	return a, nil
}

// LoadAbiFile reads and parses a JSON ABI (or build artifact) from disk.
func LoadAbiFile(path string, l *zap.Logger) (*abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read abi file '%s'", path)
	}
	return UnmarshalJsonToAbi(data, l)
}

func unwrapArtifact(data []byte) []byte {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return data
	}
	var artifact struct {
		Abi json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal([]byte(trimmed), &artifact); err != nil || len(artifact.Abi) == 0 {
		return data
	}
	return artifact.Abi
}

// FindEvent returns the event called name. name may be the plain event name, the
// go-ethereum overload name (e.g. "Transfer0") or the full canonical signature
// (e.g. "Transfer(address,address,uint256)"). A plain name shared by several overloads
// is ambiguous and rejected.
func FindEvent(a *abi.ABI, name string) (*eventAbi.EventDescription, error) {
	name = strings.TrimSpace(name)

	if strings.Contains(name, "(") {
		for _, event := range a.Events {
			if event.Sig == name {
				return eventAbi.FromAbiEvent(event)
			}
		}
		return nil, eventErrors.NewValidationError("event", "no event with signature '%s' in abi", name)
	}

	if event, ok := a.Events[name]; ok && event.Name != event.RawName {
		return eventAbi.FromAbiEvent(event)
	}

	matches := make([]abi.Event, 0)
	for _, event := range a.Events {
		if event.RawName == name {
			matches = append(matches, event)
		}
	}
	switch len(matches) {
	case 0:
		return nil, eventErrors.NewValidationError("event", "no event named '%s' in abi", name)
	case 1:
		return eventAbi.FromAbiEvent(matches[0])
	}

	sigs := make([]string, len(matches))
	for i, event := range matches {
		sigs[i] = event.Sig
	}
	sort.Strings(sigs)
	return nil, eventErrors.NewValidationError("event", "'%s' is overloaded, use one of: %s", name, strings.Join(sigs, ", "))
}

// EventNames lists the events in the abi, sorted by canonical signature.
func EventNames(a *abi.ABI) []string {
	sigs := make([]string, 0, len(a.Events))
	for _, event := range a.Events {
		sigs = append(sigs, event.Sig)
	}
	sort.Strings(sigs)
	return sigs
}
