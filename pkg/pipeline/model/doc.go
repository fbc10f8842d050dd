// Package model provides the data structures shared between the pipeline
// package and its option implementations. It defines the step metadata
// recorded in the pipeline graph and the hook interface observers implement
// to follow a pipeline run.
package model
