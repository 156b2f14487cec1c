// Package tools implements the capabilities the agent can call: listing the
// sample directory, file sizes, byte and line range reads, and schema
// inference. Registry wires them into agent.ToolSpecs with parameter schemas
// generated from their argument structs.
//
// All file access goes through Files, which confines paths to one root.
package tools
