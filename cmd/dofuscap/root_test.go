package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.Contains(t, names, "capture")
	assert.Contains(t, names, "replay")
	assert.Contains(t, names, "schema")
}

func TestSchemaCommandRegistersValidateSubcommand(t *testing.T) {
	root := newRootCmd()

	var schemaCmd *cobra.Command
	for _, c := range root.Commands() {
		if c.Name() == "schema" {
			schemaCmd = c
		}
	}
	require.NotNil(t, schemaCmd)

	var names []string
	for _, c := range schemaCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "validate")
}
