package main

import (
	"cmp"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/classlive/internal/output"
	"github.com/zulandar/classlive/internal/resolve"
	"go.uber.org/zap"
)

// outputFlags are shared by every command that prints results.
type outputFlags struct {
	path   string
	format string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.path, "output", "o", "", "write results to this file instead of stdout")
	cmd.Flags().StringVarP(&o.format, "format", "f", "json", "output format: json or yaml")
}

// open returns the destination writer and a function that closes it.
func (o *outputFlags) open(cmd *cobra.Command) (io.Writer, func() error, error) {
	if o.path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(o.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return f, f.Close, nil
}

// emitEntries writes entries in the chosen format. An empty result is still
// written, as an empty mapping, with a warning.
func emitEntries[K cmp.Ordered, V any](cmd *cobra.Command, log *zap.Logger, o outputFlags, entries []resolve.Entry[K, V]) error {
	f, err := output.ParseFormat(o.format)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Warn("nothing resolved")
	}
	w, closeFn, err := o.open(cmd)
	if err != nil {
		return err
	}
	if err := output.Write(w, f, entries); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

// emitValue writes a single value in the chosen format.
func emitValue(cmd *cobra.Command, o outputFlags, v any) error {
	f, err := output.ParseFormat(o.format)
	if err != nil {
		return err
	}
	w, closeFn, err := o.open(cmd)
	if err != nil {
		return err
	}
	if err := output.Value(w, f, v); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}
