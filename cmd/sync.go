package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dreamclass/examengine/internal/api"
	"github.com/dreamclass/examengine/internal/store"
	"github.com/dreamclass/examengine/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the remote question catalog and update the local bank",
	Long: "Sync fetches the question catalog from the quiz server, reports what changed\n" +
		"since the last sync, and imports the questions into the local bank so exams\n" +
		"can run offline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := apiClientFromEnv()
		if client == nil {
			return errors.New("EXAMENGINE_API_URL is not set")
		}

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return err
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer st.Close()

		report, imported, err := syncBank(cmd.Context(), client, st)
		if err != nil {
			return err
		}
		fmt.Println(report.String())
		fmt.Printf("Imported %d questions into the local bank.\n", imported)
		return nil
	},
}

// syncBank fetches the catalog, imports its questions into the local
// bank and only then adopts the snapshot. Adoption last means a failed
// import leaves the old snapshot in place, so the next sync still sees
// the difference instead of reporting a clean bank it never wrote.
func syncBank(ctx context.Context, client *api.Client, st *store.Store) (*sync.DiffReport, int, error) {
	engine := sync.NewEngine(client, st.Snapshots(), nil)
	catalog, err := engine.FetchCatalog(ctx)
	if err != nil {
		return nil, 0, err
	}

	bank := st.Bank()
	imported := 0
	for si := range catalog.Subjects {
		subj := &catalog.Subjects[si]
		for ci := range subj.Chapters {
			ch := &subj.Chapters[ci]
			n, err := bank.Import(ctx, si, ci, ch.Questions)
			if err != nil {
				return nil, 0, fmt.Errorf("import %s / %s: %w", subj.Name, ch.Name, err)
			}
			imported += n
		}
	}

	report, err := engine.CompareAndAdopt(ctx, catalog)
	if err != nil {
		return nil, 0, err
	}
	return report, imported, nil
}
