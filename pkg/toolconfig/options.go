// Package toolconfig declares the CLI-visible shape of a tool's opaque
// sub-configuration, so the command-line layer can generate flags and
// help text for it without the core needing to know anything about tool
// config beyond "it's a map".
package toolconfig

import (
	"fmt"
	"log"
	"strings"
)

// OptionType represents the possible types of an Option's value.
type OptionType int

const (
	// BoolOption reflects the boolean value type.
	BoolOption OptionType = iota
	// IntOption reflects the integer value type.
	IntOption
	// StringOption reflects the string value type.
	StringOption
	// FloatOption reflects a floating point value type.
	FloatOption
	// StringsOption reflects the array of strings value type.
	StringsOption
	// PathOption reflects the file system path value type.
	PathOption
)

// String returns an empty string for the boolean type, "int" for integers and "string" for
// strings. It is used in the command line interface to show the argument's type.
func (opt OptionType) String() string {
	switch opt {
	case BoolOption:
		return ""
	case IntOption:
		return "int"
	case StringOption:
		return "string"
	case FloatOption:
		return "float"
	case StringsOption:
		return "string"
	case PathOption:
		return "path"
	}

	log.Panicf("Invalid OptionType value %d", opt)

	return ""
}

// Option describes one entry a tool accepts in its sub-configuration
// block, so --tool.<name>.<flag> can be generated and documented
// generically.
type Option struct {
	// Default is the initial value of the configuration option.
	Default any
	// Name identifies the configuration option within the tool's config.
	Name string
	// Description represents the help text about the configuration option.
	Description string
	// Flag is the CLI flag name without its leading "--", conventionally
	// "tool.<tool-name>.<option>".
	Flag string
	// Type specifies the kind of the configuration option's value.
	Type OptionType
}

// FormatDefault converts the default value of Option to string.
// Used in the command line interface to show the argument's default value.
func (opt Option) FormatDefault() string {
	if opt.Type == StringsOption {
		strSlice, ok := opt.Default.([]string)
		if !ok {
			return fmt.Sprint(opt.Default)
		}

		return fmt.Sprintf("%q", strings.Join(strSlice, ","))
	}

	if opt.Type != StringOption {
		return fmt.Sprint(opt.Default)
	}

	return fmt.Sprintf("%q", opt.Default)
}

// Describable is implemented by tools that want their sub-configuration
// documented and flag-generated by the CLI layer. It is optional: a tool
// with no DescribeConfig method is still usable, just invisible to --help.
type Describable interface {
	DescribeConfig() []Option
}
