// Package flags provides helpers for declaring repo-copier command flags.
package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefixConstant  = "<"
	choicePlaceholderSuffixConstant  = ">"
	choiceSeparatorConstant          = "|"
	usageWithoutDescriptionTemplate  = "`%s`"
	usageWithDescriptionTemplate     = "`%s` %s"
	toggleTrueValueConstant          = "true"
	toggleFalseValueConstant         = "false"
	toggleTypeNameConstant           = "bool"
	toggleTruePlaceholderConstant    = "<YES|no>"
	toggleFalsePlaceholderConstant   = "<yes|NO>"
	toggleParseErrorTemplateConstant = "invalid toggle value %q"
)

var toggleLiterals = map[string]bool{
	"true":  true,
	"yes":   true,
	"on":    true,
	"1":     true,
	"y":     true,
	"false": false,
	"no":    false,
	"off":   false,
	"0":     false,
	"n":     false,
}

// FormatChoiceUsage builds a usage string listing choices with the default one upper-cased.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	displayed := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(normalizedChoice) == 0 {
			continue
		}
		if _, duplicate := seen[normalizedChoice]; duplicate {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		if normalizedChoice == normalizedDefault {
			trimmedChoice = strings.ToUpper(trimmedChoice)
		}
		displayed = append(displayed, trimmedChoice)
	}

	placeholder := choicePlaceholderPrefixConstant + strings.Join(displayed, choiceSeparatorConstant) + choicePlaceholderSuffixConstant
	return formatUsage(placeholder, description)
}

// AddToggleFlag registers a boolean flag accepting yes/no style values. A bare flag means true.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil || len(name) == 0 {
		return
	}

	*target = defaultValue
	placeholder := toggleFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleTruePlaceholderConstant
	}

	flagSet.Var(&toggleValue{target: target}, name, formatUsage(placeholder, usage))
	flagSet.Lookup(name).NoOptDefVal = toggleTrueValueConstant
}

func formatUsage(placeholder string, description string) string {
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(usageWithoutDescriptionTemplate, placeholder)
	}
	return fmt.Sprintf(usageWithDescriptionTemplate, placeholder, trimmedDescription)
}

type toggleValue struct {
	target *bool
}

func (value *toggleValue) Set(rawValue string) error {
	parsedValue, known := toggleLiterals[strings.ToLower(strings.TrimSpace(rawValue))]
	if !known {
		return fmt.Errorf(toggleParseErrorTemplateConstant, rawValue)
	}
	*value.target = parsedValue
	return nil
}

func (value *toggleValue) String() string {
	if value == nil || value.target == nil || !*value.target {
		return toggleFalseValueConstant
	}
	return toggleTrueValueConstant
}

func (value *toggleValue) Type() string {
	return toggleTypeNameConstant
}
