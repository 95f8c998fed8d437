package descriptor

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// toolFile is the on-disk shape of one tool descriptor: the identity fields
// inline plus the intent list.
type toolFile struct {
	ToolIdentity `yaml:",inline"`
	Intents      []Intent `yaml:"intents"`
}

// ParseIdentity reads only the identity record from a descriptor file.
// Intent lists are deliberately not decoded here; they are loaded lazily
// via ParseCapabilities on first use.
func ParseIdentity(path string) (*ToolIdentity, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("descriptor: reading %s: %w", path, err)
	}

	var id ToolIdentity
	if err := yaml.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("descriptor: parsing %s: %w", path, err)
	}
	if err := checkIdentity(&id); err != nil {
		return nil, fmt.Errorf("descriptor: %s: %w", path, err)
	}
	return &id, nil
}

// ParseCapabilities reads the full descriptor file and returns the tool's
// capability record.
func ParseCapabilities(path string, tool *ToolIdentity) (*CapabilityRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("descriptor: reading %s: %w", path, err)
	}

	var tf toolFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("descriptor: parsing %s: %w", path, err)
	}
	if err := checkIntents(tf.Intents); err != nil {
		return nil, fmt.Errorf("descriptor: %s: %w", path, err)
	}

	return &CapabilityRecord{Tool: tool, Intents: tf.Intents}, nil
}

func checkIdentity(id *ToolIdentity) error {
	var errs []error
	if id.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if id.Domain == "" {
		errs = append(errs, errors.New("domain is required"))
	}
	if id.Summary == "" {
		errs = append(errs, errors.New("summary is required"))
	}
	return errors.Join(errs...)
}

func checkIntents(intents []Intent) error {
	var errs []error
	for i, in := range intents {
		if len(in.Patterns) == 0 {
			errs = append(errs, fmt.Errorf("intents[%d]: at least one pattern is required", i))
		}
		if in.Command == "" {
			errs = append(errs, fmt.Errorf("intents[%d]: command template is required", i))
		}
		for name, def := range in.Params {
			if !def.Type.valid() {
				errs = append(errs, fmt.Errorf("intents[%d]: param %q: unknown type %q", i, name, def.Type))
			}
		}
	}
	return errors.Join(errs...)
}
