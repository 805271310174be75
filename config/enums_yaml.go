package config

// yaml.v3 does not look at encoding.TextUnmarshaler, so enum types get thin
// YAML adapters over the generated text marshalling here.

import "gopkg.in/yaml.v3"

func unmarshalEnum(value *yaml.Node, parse func(string) error) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	return parse(name)
}

func (x PresentationMode) MarshalYAML() (any, error) { return x.String(), nil }

func (x *PresentationMode) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalEnum(value, func(name string) (err error) {
		*x, err = ParsePresentationMode(name)
		return
	})
}

func (x TOCPlacement) MarshalYAML() (any, error) { return x.String(), nil }

func (x *TOCPlacement) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalEnum(value, func(name string) (err error) {
		*x, err = ParseTOCPlacement(name)
		return
	})
}

func (x OnFetchError) MarshalYAML() (any, error) { return x.String(), nil }

func (x *OnFetchError) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalEnum(value, func(name string) (err error) {
		*x, err = ParseOnFetchError(name)
		return
	})
}
