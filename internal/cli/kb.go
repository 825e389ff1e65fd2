package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/neurolocus/internal/knowledge"
	"github.com/ppiankov/neurolocus/internal/model"
)

var (
	kbDumpYAML bool
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect and validate Knowledge Bases",
}

var kbShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active Knowledge Base",
	Long: `Show lists the cranial nerves, tracts, signs, syndromes and vascular
territories of the active Knowledge Base (--kb, knowledge.path, or embedded).

Example:
  neurolocus kb show
  neurolocus kb show --yaml > brainstem.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if kbDumpYAML {
			if cfg.Knowledge.Path != "" {
				raw, err := os.ReadFile(cfg.Knowledge.Path)
				if err != nil {
					return fmt.Errorf("read knowledge base: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			_, err := cmd.OutOrStdout().Write(knowledge.EmbeddedYAML())
			return err
		}

		kb, err := loadKnowledge(cfg)
		if err != nil {
			return err
		}
		printKnowledge(cmd.OutOrStdout(), kb)
		return nil
	},
}

var kbValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a Knowledge Base YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kb, err := knowledge.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (version %s: %d nerves, %d tracts, %d signs, %d syndromes, %d territories)\n",
			args[0], kb.Version(), len(kb.CranialNerves()), len(kb.Tracts()), len(kb.Signs()), len(kb.Syndromes()), len(kb.Territories()))
		return nil
	},
}

func printKnowledge(w io.Writer, kb *knowledge.Base) {
	heading := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s %s\n\n", heading("Knowledge Base"), kb.Version())

	fmt.Fprintln(w, heading("Cranial nerves"))
	for _, n := range kb.CranialNerves() {
		fmt.Fprintf(w, "  %-7s %-18s %-9s %s\n", n.ID, n.Name, levelName(n.Level), strings.Join(n.Triggers, ", "))
	}

	fmt.Fprintln(w, "\n"+heading("Tracts"))
	for _, t := range kb.Tracts() {
		fmt.Fprintf(w, "  %-14s %-24s crosses %-8s %s\n", t.ID, t.Name, t.Crosses, strings.Join(t.Triggers, ", "))
	}

	fmt.Fprintln(w, "\n"+heading("Additional signs"))
	for _, s := range kb.Signs() {
		levels := make([]string, len(s.Levels))
		for i, l := range s.Levels {
			levels[i] = levelName(l)
		}
		fmt.Fprintf(w, "  %-10s %-22s %-22s %s\n", s.ID, s.Name, strings.Join(levels, "/"), strings.Join(s.Triggers, ", "))
	}

	fmt.Fprintln(w, "\n"+heading("Syndromes"))
	for _, s := range kb.Syndromes() {
		tags := make([]string, len(s.Findings))
		for i, f := range s.Findings {
			tags[i] = f.Label
		}
		fmt.Fprintf(w, "  %-46s %-9s %s\n", s.Name, levelName(s.Level), strings.Join(tags, " + "))
	}

	fmt.Fprintln(w, "\n"+heading("Vascular territories"))
	for _, t := range kb.Territories() {
		fmt.Fprintf(w, "  %-10s %-40s %s\n", t.ID, t.Name, strings.Join(t.Findings, ", "))
	}
}

func levelName(l model.Level) string {
	if l == model.LevelNone {
		return "-"
	}
	return string(l)
}

func init() {
	rootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbShowCmd)
	kbCmd.AddCommand(kbValidateCmd)

	kbShowCmd.Flags().BoolVar(&kbDumpYAML, "yaml", false, "print the Knowledge Base document as YAML")
}
