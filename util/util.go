package util

import (
	"fmt"
	"os"
	"strings"
)

// Errors accumulates the errors encountered while loading configuration,
// so we can report every missing variable at once instead of one per run.
type Errors []error

func (e Errors) Error() string {
	messages := []string{}
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// RequireEnv fetches an environment variable, recording an error in errs
// if it isn't set.
func RequireEnv(varName string, errs *Errors) string {
	envVar := os.Getenv(varName)
	if len(envVar) == 0 {
		*errs = append(*errs, fmt.Errorf("environment variable %s must be set", varName))
	}
	return envVar
}
