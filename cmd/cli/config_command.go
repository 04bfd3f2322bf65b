package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	configCommandUseConstant              = "config"
	configCommandShortDescriptionConstant = "Print the effective configuration"
	configCommandLongDescriptionConstant  = "config prints the configuration after merging built-in defaults, the configuration file, environment variables and flags."
	configFileCommentTemplateConstant     = "# configuration file: %s\n"
	configRenderErrorTemplateConstant     = "unable to render configuration: %w"
)

func (application *Application) newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:           configCommandUseConstant,
		Short:         configCommandShortDescriptionConstant,
		Long:          configCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.printConfiguration(command)
		},
	}
}

func (application *Application) printConfiguration(command *cobra.Command) error {
	rendered, marshalError := yaml.Marshal(application.configuration)
	if marshalError != nil {
		return fmt.Errorf(configRenderErrorTemplateConstant, marshalError)
	}

	if configFile := application.configurationMetadata.ConfigFileUsed; len(configFile) > 0 {
		fmt.Fprintf(command.OutOrStdout(), configFileCommentTemplateConstant, configFile)
	}
	_, writeError := command.OutOrStdout().Write(rendered)
	return writeError
}
