// Package utils holds the configuration and logging plumbing shared by the
// repo-copier commands.
//
// ConfigurationLoader layers the embedded defaults, an optional YAML file and
// REPOCOPIER_ environment variables through Viper. LoggerFactory turns the
// resolved level and format into a zap.Logger.
package utils
