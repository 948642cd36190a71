package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skillcortex/skillcortex/pkg/config"
	"github.com/skillcortex/skillcortex/pkg/index"
	"github.com/skillcortex/skillcortex/pkg/presenter"
	"github.com/skillcortex/skillcortex/pkg/scanner"
	"github.com/skillcortex/skillcortex/pkg/tags"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rescan the skill roots and refresh the index cache",
	Long: `Walk every configured skill root, rebuild the index from scratch, save
it to the cache file, and print a summary of the skills found. Use this
after editing skill files outside of the MCP tools: the cache is trusted
until an explicit rescan.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			presenter.Error(err, "invalid configuration")
			return err
		}
		if err := cfg.EnsureWritableRoot(); err != nil {
			presenter.Error(err, "failed to prepare skill root")
			return err
		}

		registry, err := tags.Load(cfg.TagsPath)
		if err != nil {
			presenter.Error(err, "failed to load tags vocabulary")
			return err
		}

		result, err := scanner.Scan(ctx, cfg.Roots, registry)
		if err != nil {
			presenter.Error(err, "scan failed")
			return err
		}
		if err := index.Save(cfg.CachePath, result); err != nil {
			presenter.Error(err, "failed to save index cache")
			return err
		}

		presenter.Success(fmt.Sprintf("Indexed %d skills into %s", len(result.Skills), cfg.CachePath))
		printSkillTable(result)
		return nil
	},
}

func printSkillTable(result *scanner.ScanResult) {
	if len(result.Skills) == 0 {
		presenter.Info("No skills found. Create one with the create_skill tool.")
		return
	}

	sorted := make([]*scanner.SkillRecord, len(result.Skills))
	copy(sorted, result.Skills)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTAGS\tISSUES\tDESCRIPTION")
	for _, record := range sorted {
		issues := make([]string, 0, len(record.Issues))
		for _, issue := range record.Issues {
			issues = append(issues, string(issue.Kind))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			record.ID,
			strings.Join(record.Frontmatter.Tags, ","),
			strings.Join(issues, ","),
			record.Snapshot,
		)
	}
	w.Flush()
}
