package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/prohmpiriya/servus/internal/maintenance"
)

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeResult prints v as YAML or the text line.
func writeResult(w io.Writer, output string, v interface{}, text string) error {
	if output == "yaml" {
		return writeYAML(w, v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func writeTenantReport(w io.Writer, output string, report *maintenance.TenantReport) error {
	if output == "yaml" {
		return writeYAML(w, report)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLLECTION\tTENANT ID\tTYPE\tDOCUMENTS\tSTATUS\tREPLACE WITH\tREWRITTEN")
	for _, ref := range report.References {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%d\n",
			ref.Collection, ref.TenantID, ref.Type, ref.Documents, ref.Status, dash(ref.ReplaceWith), ref.Rewritten)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	mode := "dry run"
	if report.Applied {
		mode = "applied"
	}
	_, err := fmt.Fprintf(w, "\n%d tenants, %d ok, %d legacy, %d orphan (%s)\n",
		report.Tenants,
		report.Count(maintenance.ReferenceOK),
		report.Count(maintenance.ReferenceLegacy),
		report.Count(maintenance.ReferenceOrphan),
		mode,
	)
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
