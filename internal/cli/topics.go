package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/ecoscan-backend/internal/modules/scan"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Print the keyword and topic tables as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := catalogFromConfig()
		if err != nil {
			return err
		}
		type topic struct {
			Key  string `yaml:"key"`
			Fact string `yaml:"fact"`
			Tip  string `yaml:"tip"`
		}
		out := struct {
			Keywords []string `yaml:"keywords"`
			Topics   []topic  `yaml:"topics"`
		}{Keywords: catalog.Keywords()}
		for _, t := range catalog.Topics() {
			out.Topics = append(out.Topics, topic{Key: t.Key, Fact: t.Fact, Tip: t.Tip})
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode topics: %w", err)
		}
		return enc.Close()
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <label>...",
	Short: "Show whether labels count as environmental and which topic they map to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := catalogFromConfig()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, label := range args {
			topic := "-"
			if t, ok := catalog.MatchTopic(label); ok {
				topic = t.Key
			}
			fmt.Fprintf(w, "%-24s environmental=%-5t topic=%s\n", strings.TrimSpace(label), catalog.IsEnvironmental(label), topic)
		}
		return nil
	},
}

func catalogFromConfig() (*scan.Catalog, error) {
	v, err := loadViper()
	if err != nil {
		return nil, err
	}
	return scan.LoadCatalog(v.GetString("ecoscan_catalog_file"))
}
