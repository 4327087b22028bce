package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/outreach-engine/internal/knowledge"
	"github.com/sells-group/outreach-engine/internal/model"
)

var (
	knowledgeFile     string
	knowledgeCategory string
	knowledgeTags     string
	knowledgePriority string
	knowledgeQuery    string
	knowledgeLimit    int
	knowledgeID       string
	knowledgeManifest string
)

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the sales knowledge base",
}

var knowledgeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest one document into the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initKnowledge(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		staged, err := stageCopy(knowledgeFile)
		if err != nil {
			return err
		}

		rec, err := env.Knowledge.Ingest(ctx, staged, filepath.Base(knowledgeFile), model.KnowledgeMetadata{
			Category: knowledgeCategory,
			Priority: knowledgePriority,
			Tags:     splitTags(knowledgeTags),
		})
		if err != nil {
			return err
		}

		fmt.Printf("ingested %s: id=%s chunks=%d category=%s\n",
			rec.Filename, rec.ID, len(rec.Chunks), rec.Metadata.Category)
		return nil
	},
}

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initKnowledge(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Knowledge.Search(knowledgeQuery, knowledgeCategory, knowledgeLimit)
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("no matching documents")
			return nil
		}
		for i, r := range results {
			fmt.Printf("%2d. %-40s score=%.3f category=%s\n",
				i+1, r.Record.Filename, r.RelevanceScore, r.Record.Metadata.Category)
		}
		return nil
	},
}

var knowledgeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initKnowledge(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := json.MarshalIndent(env.Knowledge.Stats(), "", "  ")
		if err != nil {
			return eris.Wrap(err, "render stats")
		}
		fmt.Println(string(out))
		return nil
	},
}

var knowledgeDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a document by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initKnowledge(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		existed, err := env.Knowledge.Delete(ctx, knowledgeID)
		if err != nil {
			return err
		}
		if !existed {
			return eris.Errorf("no document with id %s", knowledgeID)
		}
		fmt.Printf("deleted %s\n", knowledgeID)
		return nil
	},
}

// seedManifest is the YAML layout consumed by `knowledge seed`.
type seedManifest struct {
	Documents []struct {
		File     string   `yaml:"file"`
		Category string   `yaml:"category"`
		Tags     []string `yaml:"tags"`
		Priority string   `yaml:"priority"`
	} `yaml:"documents"`
}

var knowledgeSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Ingest every document listed in a YAML manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(knowledgeManifest)
		if err != nil {
			return eris.Wrapf(err, "read manifest %s", knowledgeManifest)
		}
		var manifest seedManifest
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return eris.Wrapf(err, "parse manifest %s", knowledgeManifest)
		}
		if len(manifest.Documents) == 0 {
			return eris.New("manifest lists no documents")
		}

		env, err := initKnowledge(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		base := filepath.Dir(knowledgeManifest)
		batch := make([]knowledge.IngestFile, 0, len(manifest.Documents))
		for _, doc := range manifest.Documents {
			path := doc.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(base, path)
			}
			staged, err := stageCopy(path)
			if err != nil {
				zap.L().Warn("skipping unreadable manifest entry",
					zap.String("file", doc.File), zap.Error(err))
				continue
			}
			batch = append(batch, knowledge.IngestFile{
				Path: staged,
				Name: filepath.Base(doc.File),
				Meta: model.KnowledgeMetadata{
					Category: doc.Category,
					Tags:     doc.Tags,
					Priority: doc.Priority,
				},
			})
		}

		outcomes := env.Knowledge.IngestBatch(ctx, batch)
		succeeded := 0
		for _, o := range outcomes {
			if o.Status == "success" {
				succeeded++
				fmt.Printf("ok    %s (%d chunks)\n", o.Filename, o.Chunks)
			} else {
				fmt.Printf("fail  %s: %s\n", o.Filename, o.Error)
			}
		}
		fmt.Printf("\n%d/%d documents seeded\n", succeeded, len(outcomes))
		return nil
	},
}

// stageCopy copies a source file into a temp location the engine can
// consume and delete, leaving the original untouched.
func stageCopy(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "open %s", path)
	}
	defer src.Close()

	staged := filepath.Join(os.TempDir(), uuid.NewString())
	dst, err := os.Create(staged)
	if err != nil {
		return "", eris.Wrap(err, "create staging file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(staged)
		return "", eris.Wrap(err, "copy to staging file")
	}
	return staged, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func init() {
	knowledgeIngestCmd.Flags().StringVar(&knowledgeFile, "file", "", "document to ingest (required)")
	knowledgeIngestCmd.Flags().StringVar(&knowledgeCategory, "category", "", "document category")
	knowledgeIngestCmd.Flags().StringVar(&knowledgeTags, "tags", "", "comma-separated tags")
	knowledgeIngestCmd.Flags().StringVar(&knowledgePriority, "priority", "", "document priority")
	knowledgeIngestCmd.MarkFlagRequired("file")

	knowledgeSearchCmd.Flags().StringVar(&knowledgeQuery, "query", "", "search query (required)")
	knowledgeSearchCmd.Flags().StringVar(&knowledgeCategory, "category", "", "restrict to one category")
	knowledgeSearchCmd.Flags().IntVar(&knowledgeLimit, "limit", 10, "maximum results")
	knowledgeSearchCmd.MarkFlagRequired("query")

	knowledgeDeleteCmd.Flags().StringVar(&knowledgeID, "id", "", "document id (required)")
	knowledgeDeleteCmd.MarkFlagRequired("id")

	knowledgeSeedCmd.Flags().StringVar(&knowledgeManifest, "manifest", "", "YAML manifest of documents (required)")
	knowledgeSeedCmd.MarkFlagRequired("manifest")

	knowledgeCmd.AddCommand(knowledgeIngestCmd, knowledgeSearchCmd, knowledgeStatsCmd, knowledgeDeleteCmd, knowledgeSeedCmd)
	rootCmd.AddCommand(knowledgeCmd)
}
