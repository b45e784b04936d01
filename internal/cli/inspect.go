package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/ports"
	"gopkg.in/yaml.v3"
)

// PrintSpec writes a freshly generated spec as JSON or YAML.
func PrintSpec(ctx context.Context, w io.Writer, source ports.SpecSource, format string) error {
	spec, err := source.FetchSpec(ctx)
	if err != nil {
		return &domain.SpecFetchError{Cause: err}
	}
	return encode(w, spec, format)
}

// ListResults writes one line per stored submission.
func ListResults(ctx context.Context, w io.Writer, store ports.ResultStore) error {
	ids, err := store.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SPEC ID\tRESPONSES")
	for _, id := range ids {
		sub, err := store.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("load %s: %w", id, err)
		}
		fmt.Fprintf(tw, "%s\t%d\n", id, len(sub.Responses))
	}
	return tw.Flush()
}

// ShowResult writes one stored submission.
func ShowResult(ctx context.Context, w io.Writer, store ports.ResultStore, specID, format string) error {
	sub, err := store.Load(ctx, specID)
	if err != nil {
		return err
	}
	return encode(w, sub, format)
}

func encode(w io.Writer, v any, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q", format)
}
