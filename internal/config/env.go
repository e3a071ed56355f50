package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Environment is the per-run input a workflow passes through environment
// variables.
type Environment struct {
	Word        string `env:"WORD"`
	Author      string `env:"AUTHOR" envDefault:"unknown"`
	IssueNumber int    `env:"ISSUE_NUMBER"`
	Token       string `env:"GITHUB_TOKEN"`
	Repository  string `env:"GITHUB_REPOSITORY"`
	ServerURL   string `env:"GITHUB_SERVER_URL"`
	APIURL      string `env:"GITHUB_API_URL"`
}

// ParseEnv reads Environment from the process environment.
func ParseEnv() (Environment, error) {
	e, err := env.ParseAs[Environment]()
	if err != nil {
		return Environment{}, fmt.Errorf("parsing environment: %w", err)
	}
	return e, nil
}
