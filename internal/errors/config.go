package errors

import (
	"fmt"
	"strings"
)

// ConfigurationError is raised when configuration is invalid or missing
type ConfigurationError struct {
	*HeraldError
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{
		HeraldError: &HeraldError{
			Message:  message,
			ExitCode: ExitConfigError,
		},
	}
}

// MissingEnvVarError is raised when a required environment variable is not set
type MissingEnvVarError struct {
	*HeraldError
}

// NewMissingEnvVarError creates a new missing environment variable error
func NewMissingEnvVarError(varName, description string) *MissingEnvVarError {
	// Convert environment variable name to YAML key format for suggestions
	yamlKey := convertEnvToYAMLKey(varName)

	return &MissingEnvVarError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("Required environment variable '%s' is not set", varName),
			Context: &ErrorContext{
				Operation: "Loading configuration",
				Component: "Environment",
				Details: map[string]interface{}{
					"variable":    varName,
					"description": description,
				},
				Suggestions: []string{
					"Run 'thesisherald config show' to inspect the effective configuration",
					fmt.Sprintf("Export the variable: export %s='your-value'", varName),
					fmt.Sprintf("Add to herald.yaml under llm.%s", yamlKey),
					"Check .env.example for required variables",
				},
				Recoverable: false,
			},
			ExitCode: ExitConfigError,
		},
	}
}

// convertEnvToYAMLKey converts environment variable name to YAML key format
// Example: HERALD_LLM_API_KEY -> api_key
func convertEnvToYAMLKey(envVar string) string {
	parts := strings.FieldsFunc(strings.ToLower(envVar), func(r rune) bool { return r == '_' })
	if len(parts) > 2 {
		return strings.Join(parts[2:], "_")
	}
	return strings.Join(parts, "_")
}

// InvalidEnvVarError is raised when an environment variable has an invalid value
type InvalidEnvVarError struct {
	*HeraldError
}

// NewInvalidEnvVarError creates a new invalid environment variable error
func NewInvalidEnvVarError(varName, value, reason string) *InvalidEnvVarError {
	return &InvalidEnvVarError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("Environment variable '%s' has an invalid value", varName),
			Context: &ErrorContext{
				Operation: "Validating configuration",
				Component: "Environment",
				Details: map[string]interface{}{
					"variable": varName,
					"value":    value,
					"reason":   reason,
				},
				Suggestions: []string{
					fmt.Sprintf("Check the value of %s in your .env file", varName),
					"Refer to the documentation for valid values",
				},
				Recoverable: false,
			},
			ExitCode: ExitConfigError,
		},
	}
}

// ConfigFileError is raised when a configuration file cannot be read or parsed
type ConfigFileError struct {
	*HeraldError
}

// NewConfigFileError creates a new config file error
func NewConfigFileError(filePath string, cause error) *ConfigFileError {
	return &ConfigFileError{
		HeraldError: &HeraldError{
			Message: fmt.Sprintf("Failed to load configuration file: %s", filePath),
			Cause:   cause,
			Context: &ErrorContext{
				Operation: "Loading configuration",
				Component: "Config File",
				Details: map[string]interface{}{
					"file_path": filePath,
				},
				Suggestions: []string{
					"Check that the file exists and is readable",
					"Validate YAML syntax",
					"Check file permissions",
				},
				Recoverable: false,
			},
			ExitCode: ExitConfigError,
		},
	}
}
